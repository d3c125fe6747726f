// Package session holds the logged-in salesperson explicitly. A Session is
// created at login, handed to every consumer that needs the user, and
// destroyed at logout; there is no ambient current user.
package session

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUnauthenticated means no valid session was presented.
	ErrUnauthenticated = errors.New("session: authentication required")
	// ErrForbidden means the session lacks the required role.
	ErrForbidden = errors.New("session: forbidden")
	// ErrNotFound is returned for unknown or expired session ids.
	ErrNotFound = errors.New("session: not found")
	// ErrAccountExists means signup hit an email that is already registered.
	ErrAccountExists = errors.New("session: account already exists")
)

// RoleAdmin unlocks the admin views.
const RoleAdmin = "admin"

// User is the backend user payload.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	// Code is the salesperson code used to scope backend queries.
	Code int `json:"code"`
}

// IsAdmin reports whether the user has the admin role.
func (u User) IsAdmin() bool { return strings.EqualFold(u.Role, RoleAdmin) }

// CodeString returns the salesperson code as text.
func (u User) CodeString() string { return strconv.Itoa(u.Code) }

// Session binds a user to the backend token issued at login.
type Session struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the session is past its expiry.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Store creates, resolves and destroys sessions.
type Store interface {
	Create(ctx context.Context, user User, token string) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	Destroy(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
	onExpire func(Session)
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore builds a store; ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: map[string]Session{},
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create registers a session for the user.
func (s *MemoryStore) Create(_ context.Context, user User, token string) (Session, error) {
	if strings.TrimSpace(user.ID) == "" && strings.TrimSpace(user.Email) == "" {
		return Session{}, errors.New("session: user id or email is required")
	}
	now := s.now().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		User:      user,
		Token:     token,
		CreatedAt: now,
	}
	if s.ttl > 0 {
		sess.ExpiresAt = now.Add(s.ttl)
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess, nil
}

// OnExpire registers fn to run for every session evicted because it expired.
// Explicit Destroy calls do not trigger it.
func (s *MemoryStore) OnExpire(fn func(Session)) {
	s.mu.Lock()
	s.onExpire = fn
	s.mu.Unlock()
}

// Get resolves a session; expired sessions are evicted.
func (s *MemoryStore) Get(_ context.Context, id string) (Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Session{}, ErrNotFound
	}
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return Session{}, ErrNotFound
	}
	if sess.Expired(s.now()) {
		s.evict([]string{id})
		return Session{}, ErrNotFound
	}
	return sess, nil
}

// Sweep evicts every expired session and returns how many were removed.
func (s *MemoryStore) Sweep(context.Context) int {
	now := s.now()
	s.mu.RLock()
	var expired []string
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()
	return s.evict(expired)
}

func (s *MemoryStore) evict(ids []string) int {
	s.mu.Lock()
	hook := s.onExpire
	evicted := make([]Session, 0, len(ids))
	for _, id := range ids {
		if sess, ok := s.sessions[id]; ok {
			delete(s.sessions, id)
			evicted = append(evicted, sess)
		}
	}
	s.mu.Unlock()
	if hook != nil {
		for _, sess := range evicted {
			hook(sess)
		}
	}
	return len(evicted)
}

// Destroy removes the session. Unknown ids are not an error.
func (s *MemoryStore) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

type contextKey struct{}

// WithSession attaches the session to ctx.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the session attached by WithSession.
func FromContext(ctx context.Context) (Session, bool) {
	if ctx == nil {
		return Session{}, false
	}
	sess, ok := ctx.Value(contextKey{}).(Session)
	return sess, ok
}

// RequireSession is the protected-route guard.
func RequireSession(sess *Session) error {
	if sess == nil || sess.ID == "" {
		return ErrUnauthenticated
	}
	return nil
}

// RequireAdmin is the admin-route guard.
func RequireAdmin(sess *Session) error {
	if err := RequireSession(sess); err != nil {
		return err
	}
	if !sess.User.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// BearerID extracts the session id from an Authorization header value.
func BearerID(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
