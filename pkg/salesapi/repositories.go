package salesapi

import (
	"context"
	"fmt"

	dashboard "github.com/goliatone/go-salesboard/components/dashboard"
	"github.com/goliatone/go-salesboard/pkg/session"
)

// NewSalesRepository adapts a backend client into the dashboard repository.
// Failed results surface as errors so widgets render their error state.
func NewSalesRepository(client Client) dashboard.SalesRepository {
	return &salesRepository{client: client}
}

type salesRepository struct {
	client Client
}

func toQuery(q dashboard.SalesQuery) Query {
	return Query{SalespersonCode: q.SalespersonCode, Date: q.Date, Token: q.Token}
}

func (r *salesRepository) Quotes(ctx context.Context, query dashboard.SalesQuery) ([]dashboard.Quote, error) {
	return r.client.Quotes(ctx, toQuery(query)).Unwrap()
}

func (r *salesRepository) PastQuotes(ctx context.Context, query dashboard.SalesQuery) ([]dashboard.Quote, error) {
	return r.client.QuotesRange(ctx, toQuery(query)).Unwrap()
}

func (r *salesRepository) ExpiredQuotes(ctx context.Context, query dashboard.SalesQuery, quoteNumbers []string) ([]dashboard.Quote, error) {
	return r.client.ExpiredQuotes(ctx, toQuery(query), quoteNumbers, query.MonthRange).Unwrap()
}

func (r *salesRepository) Customers(ctx context.Context, query dashboard.SalesQuery) ([]dashboard.Customer, error) {
	return r.client.Customers(ctx, toQuery(query)).Unwrap()
}

func (r *salesRepository) PayingCustomers(ctx context.Context, query dashboard.SalesQuery, customerNos []string) ([]string, error) {
	return r.client.PayingCustomers(ctx, query.Token, customerNos).Unwrap()
}

func (r *salesRepository) SalesOrders(ctx context.Context, query dashboard.SalesQuery) ([]dashboard.SalesOrder, error) {
	return r.client.SalesOrders(ctx, toQuery(query)).Unwrap()
}

// Authenticator logs salespeople in against the backend.
type Authenticator struct {
	Client AuthClient
}

// Login returns the backend user and bearer token.
func (a Authenticator) Login(ctx context.Context, email, password string) (session.User, string, error) {
	res := a.Client.Login(ctx, email, password)
	if res.Failed() {
		return session.User{}, "", fmt.Errorf("salesapi: login: %w", res.Err)
	}
	return res.Data.User, res.Data.Token, nil
}

// Signup creates the account and returns the new user with its bearer token.
func (a Authenticator) Signup(ctx context.Context, email, password string, code int) (session.User, string, error) {
	res := a.Client.Signup(ctx, email, password, code)
	if res.Failed() {
		return session.User{}, "", fmt.Errorf("salesapi: signup: %w", res.Err)
	}
	return res.Data.User, res.Data.Token, nil
}
