package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	sess, err := store.Create(ctx, User{ID: "u-1", Email: "ventas@example.com", Role: "salesperson", Code: 42}, "jwt")
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 42, got.User.Code)
	assert.Equal(t, "jwt", got.Token)

	require.NoError(t, store.Destroy(ctx, sess.ID))
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	sess, err := store.Create(context.Background(), User{ID: "u-1"}, "jwt")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(context.Background(), sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiryHook(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	var expired []string
	store.OnExpire(func(sess Session) { expired = append(expired, sess.ID) })
	ctx := context.Background()

	read, err := store.Create(ctx, User{ID: "u-1"}, "jwt")
	require.NoError(t, err)
	idle, err := store.Create(ctx, User{ID: "u-2"}, "jwt")
	require.NoError(t, err)
	gone, err := store.Create(ctx, User{ID: "u-3"}, "jwt")
	require.NoError(t, err)
	require.NoError(t, store.Destroy(ctx, gone.ID))

	assert.Zero(t, store.Sweep(ctx), "nothing has expired yet")
	now = now.Add(2 * time.Minute)

	_, err = store.Get(ctx, read.ID)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{read.ID}, expired)

	assert.Equal(t, 1, store.Sweep(ctx))
	assert.Equal(t, []string{read.ID, idle.ID}, expired, "destroyed sessions never reach the hook")
	assert.Zero(t, store.Sweep(ctx))
}

func TestCreateRequiresIdentity(t *testing.T) {
	_, err := NewMemoryStore(0).Create(context.Background(), User{}, "jwt")
	assert.Error(t, err)
}

func TestGuards(t *testing.T) {
	assert.ErrorIs(t, RequireSession(nil), ErrUnauthenticated)
	assert.ErrorIs(t, RequireAdmin(nil), ErrUnauthenticated)

	seller := &Session{ID: "s-1", User: User{Role: "salesperson"}}
	assert.NoError(t, RequireSession(seller))
	assert.ErrorIs(t, RequireAdmin(seller), ErrForbidden)

	admin := &Session{ID: "s-2", User: User{Role: "Admin"}}
	assert.NoError(t, RequireAdmin(admin))
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithSession(context.Background(), Session{ID: "s-1"})
	sess, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "s-1", sess.ID)
}

func TestBearerID(t *testing.T) {
	assert.Equal(t, "abc", BearerID("Bearer abc"))
	assert.Equal(t, "abc", BearerID("bearer  abc "))
	assert.Empty(t, BearerID("Basic abc"))
	assert.Empty(t, BearerID(""))
}
