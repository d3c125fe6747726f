package salesapi

import (
	"context"
	"time"

	dashboard "github.com/goliatone/go-salesboard/components/dashboard"
	"github.com/goliatone/go-salesboard/pkg/session"
)

// Query scopes a salesperson lookup.
type Query struct {
	SalespersonCode int
	Date            time.Time
	Token           string
}

// LoginResult is the backend reply to a successful login.
type LoginResult struct {
	Token string       `json:"token"`
	User  session.User `json:"payload"`
}

// AuthClient authenticates salespeople.
type AuthClient interface {
	Login(ctx context.Context, email, password string) Result[LoginResult]
	// Signup registers a salesperson and logs them in.
	Signup(ctx context.Context, email, password string, code int) Result[LoginResult]
	UserData(ctx context.Context, token string) Result[session.User]
}

// QuoteClient fetches quotations.
type QuoteClient interface {
	Quotes(ctx context.Context, query Query) Result[[]dashboard.Quote]
	QuotesRange(ctx context.Context, query Query) Result[[]dashboard.Quote]
	ExpiredQuotes(ctx context.Context, query Query, quoteNumbers []string, monthRange int) Result[[]dashboard.Quote]
}

// CustomerClient fetches customers and invoicing state.
type CustomerClient interface {
	Customers(ctx context.Context, query Query) Result[[]dashboard.Customer]
	PayingCustomers(ctx context.Context, token string, customerNos []string) Result[[]string]
}

// OrderClient fetches sales orders.
type OrderClient interface {
	SalesOrders(ctx context.Context, query Query) Result[[]dashboard.SalesOrder]
}

// Client is the full backend surface.
type Client interface {
	AuthClient
	QuoteClient
	CustomerClient
	OrderClient
}
