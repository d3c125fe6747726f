package salesapi

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	dashboard "github.com/goliatone/go-salesboard/components/dashboard"
	"github.com/goliatone/go-salesboard/pkg/session"
)

// MockUser is a credential accepted by the mock client.
type MockUser struct {
	Password string
	User     session.User
}

// MockData seeds the mock client.
type MockData struct {
	// Source serves the sales rows; DemoSalesRepository when nil.
	Source dashboard.SalesRepository
	Users  []MockUser
	// Err makes every data fetch fail, for exercising error states.
	Err error
}

// MockClient implements Client in memory for demos and tests.
type MockClient struct {
	mu     sync.RWMutex
	source dashboard.SalesRepository
	users  map[string]MockUser
	tokens map[string]session.User
	err    error
}

var _ Client = (*MockClient)(nil)

// RoleSalesperson is the role given to accounts created through Signup.
const RoleSalesperson = "salesperson"

// DemoUsers are the stock logins of the mock backend.
func DemoUsers() []MockUser {
	return []MockUser{
		{Password: "demo", User: session.User{ID: "1", Email: "vendedor@example.com", Role: RoleSalesperson, Code: 1}},
		{Password: "admin", User: session.User{ID: "2", Email: "admin@example.com", Role: session.RoleAdmin, Code: 0}},
	}
}

// NewMockClient builds a mock backend client.
func NewMockClient(data MockData) *MockClient {
	source := data.Source
	if source == nil {
		source = dashboard.DemoSalesRepository{}
	}
	users := data.Users
	if users == nil {
		users = DemoUsers()
	}
	c := &MockClient{
		source: source,
		users:  map[string]MockUser{},
		tokens: map[string]session.User{},
		err:    data.Err,
	}
	for _, u := range users {
		c.users[strings.ToLower(u.User.Email)] = u
	}
	return c
}

// SetError switches the failure mode at runtime.
func (c *MockClient) SetError(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

func (c *MockClient) failure() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

func (c *MockClient) Login(_ context.Context, email, password string) Result[LoginResult] {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok || u.Password != password {
		return Fail[LoginResult](ErrUnauthorized)
	}
	token := uuid.NewString()
	c.tokens[token] = u.User
	return OK(LoginResult{Token: token, User: u.User})
}

// Signup registers a salesperson. Emails are unique, case-insensitively.
func (c *MockClient) Signup(_ context.Context, email, password string, code int) Result[LoginResult] {
	email = strings.TrimSpace(email)
	key := strings.ToLower(email)
	if key == "" || password == "" {
		return Fail[LoginResult](errors.New("salesapi: email and password are required"))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.users[key]; ok {
		return Fail[LoginResult](ErrUserExists)
	}
	user := session.User{ID: uuid.NewString(), Email: email, Role: RoleSalesperson, Code: code}
	c.users[key] = MockUser{Password: password, User: user}
	token := uuid.NewString()
	c.tokens[token] = user
	return OK(LoginResult{Token: token, User: user})
}

func (c *MockClient) UserData(_ context.Context, token string) Result[session.User] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.tokens[token]
	if !ok {
		return Fail[session.User](ErrUnauthorized)
	}
	return OK(u)
}

func (c *MockClient) Quotes(ctx context.Context, query Query) Result[[]dashboard.Quote] {
	if err := c.failure(); err != nil {
		return Fail[[]dashboard.Quote](err)
	}
	return wrap(c.source.Quotes(ctx, query.sales()))
}

func (c *MockClient) QuotesRange(ctx context.Context, query Query) Result[[]dashboard.Quote] {
	if err := c.failure(); err != nil {
		return Fail[[]dashboard.Quote](err)
	}
	return wrap(c.source.PastQuotes(ctx, query.sales()))
}

func (c *MockClient) ExpiredQuotes(ctx context.Context, query Query, quoteNumbers []string, monthRange int) Result[[]dashboard.Quote] {
	if err := c.failure(); err != nil {
		return Fail[[]dashboard.Quote](err)
	}
	sq := query.sales()
	sq.MonthRange = monthRange
	return wrap(c.source.ExpiredQuotes(ctx, sq, quoteNumbers))
}

func (c *MockClient) Customers(ctx context.Context, query Query) Result[[]dashboard.Customer] {
	if err := c.failure(); err != nil {
		return Fail[[]dashboard.Customer](err)
	}
	return wrap(c.source.Customers(ctx, query.sales()))
}

func (c *MockClient) PayingCustomers(ctx context.Context, token string, customerNos []string) Result[[]string] {
	if err := c.failure(); err != nil {
		return Fail[[]string](err)
	}
	return wrap(c.source.PayingCustomers(ctx, dashboard.SalesQuery{Token: token}, customerNos))
}

func (c *MockClient) SalesOrders(ctx context.Context, query Query) Result[[]dashboard.SalesOrder] {
	if err := c.failure(); err != nil {
		return Fail[[]dashboard.SalesOrder](err)
	}
	return wrap(c.source.SalesOrders(ctx, query.sales()))
}

func wrap[T any](data T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return OK(data)
}

func (q Query) sales() dashboard.SalesQuery {
	return dashboard.SalesQuery{SalespersonCode: q.SalespersonCode, Date: q.Date, Token: q.Token}
}
