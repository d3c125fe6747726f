package salesapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	dashboard "github.com/goliatone/go-salesboard/components/dashboard"
	"github.com/goliatone/go-salesboard/pkg/session"
)

// DefaultBaseURL is the backend address used when none is configured.
const DefaultBaseURL = "http://localhost:5000/api/v1"

var (
	// ErrUnauthorized is returned when the backend rejects the token or credentials.
	ErrUnauthorized = errors.New("salesapi: unauthorized")
	// ErrUserExists is returned by Signup for an email that is already registered.
	ErrUserExists = fmt.Errorf("salesapi: %w", session.ErrAccountExists)
)

// maxErrorBody caps how much of a failed response ends up in the error.
const maxErrorBody = 4 << 10

// HTTPConfig configures the HTTP sales client.
type HTTPConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// HTTPClient talks to the sales backend REST API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client for the live backend.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("salesapi: invalid base url: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{baseURL: base, client: httpClient}, nil
}

// Login exchanges credentials for a bearer token and the user payload.
func (c *HTTPClient) Login(ctx context.Context, email, password string) Result[LoginResult] {
	payload := map[string]string{"email": email, "password": password}
	var resp LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, "", payload, &resp); err != nil {
		return Fail[LoginResult](err)
	}
	if resp.Token == "" {
		return Fail[LoginResult](errors.New("salesapi: login response without token"))
	}
	return OK(resp)
}

// Signup creates a salesperson account and returns the same payload as Login.
func (c *HTTPClient) Signup(ctx context.Context, email, password string, code int) Result[LoginResult] {
	payload := map[string]any{"email": email, "password": password, "code": code}
	var resp LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/create", nil, "", payload, &resp); err != nil {
		return Fail[LoginResult](err)
	}
	if resp.Token == "" {
		return Fail[LoginResult](errors.New("salesapi: signup response without token"))
	}
	return OK(resp)
}

// UserData resolves the user behind a token.
func (c *HTTPClient) UserData(ctx context.Context, token string) Result[session.User] {
	var user session.User
	if err := c.do(ctx, http.MethodGet, "/auth/user/data", nil, token, nil, &user); err != nil {
		return Fail[session.User](err)
	}
	return OK(user)
}

// Quotes lists the quotes of the salesperson on the query date.
func (c *HTTPClient) Quotes(ctx context.Context, query Query) Result[[]dashboard.Quote] {
	return c.quotes(ctx, "/quotes", query.values(), query.Token)
}

// QuotesRange lists the salesperson's quotes preceding the query date.
func (c *HTTPClient) QuotesRange(ctx context.Context, query Query) Result[[]dashboard.Quote] {
	return c.quotes(ctx, "/quotes/range", query.values(), query.Token)
}

// ExpiredQuotes filters quoteNumbers down to the expired ones. An empty list
// never reaches the backend.
func (c *HTTPClient) ExpiredQuotes(ctx context.Context, query Query, quoteNumbers []string, monthRange int) Result[[]dashboard.Quote] {
	if len(quoteNumbers) == 0 {
		return OK([]dashboard.Quote{})
	}
	params := url.Values{}
	params.Set("quoteNumbers", strings.Join(quoteNumbers, ","))
	params.Set("date", formatDate(query.Date))
	params.Set("monthRange", strconv.Itoa(monthRange))
	return c.quotes(ctx, "/quotes/expired", params, query.Token)
}

// Customers lists the customers assigned to the salesperson.
func (c *HTTPClient) Customers(ctx context.Context, query Query) Result[[]dashboard.Customer] {
	var resp envelope[customerRecord]
	if err := c.do(ctx, http.MethodGet, "/customers/salesperson", query.values(), query.Token, nil, &resp); err != nil {
		return Fail[[]dashboard.Customer](err)
	}
	out := make([]dashboard.Customer, 0, len(resp.Results))
	for _, rec := range resp.Results {
		out = append(out, rec.toCustomer())
	}
	return OK(out)
}

// PayingCustomers returns the unique customer numbers with invoices.
func (c *HTTPClient) PayingCustomers(ctx context.Context, token string, customerNos []string) Result[[]string] {
	if len(customerNos) == 0 {
		return OK([]string{})
	}
	params := url.Values{}
	params.Set("customerNo", strings.Join(customerNos, ","))
	var resp envelope[invoiceRecord]
	if err := c.do(ctx, http.MethodGet, "/customers/invoice", params, token, nil, &resp); err != nil {
		return Fail[[]string](err)
	}
	seen := map[string]struct{}{}
	out := make([]string, 0, len(resp.Results))
	for _, rec := range resp.Results {
		if _, ok := seen[rec.CustomerNo]; ok || rec.CustomerNo == "" {
			continue
		}
		seen[rec.CustomerNo] = struct{}{}
		out = append(out, rec.CustomerNo)
	}
	return OK(out)
}

// SalesOrders lists the salesperson's orders.
func (c *HTTPClient) SalesOrders(ctx context.Context, query Query) Result[[]dashboard.SalesOrder] {
	var resp envelope[orderRecord]
	if err := c.do(ctx, http.MethodGet, "/orders", query.values(), query.Token, nil, &resp); err != nil {
		return Fail[[]dashboard.SalesOrder](err)
	}
	out := make([]dashboard.SalesOrder, 0, len(resp.Results))
	for _, rec := range resp.Results {
		out = append(out, rec.toOrder())
	}
	return OK(out)
}

func (c *HTTPClient) quotes(ctx context.Context, path string, params url.Values, token string) Result[[]dashboard.Quote] {
	var resp envelope[quoteRecord]
	if err := c.do(ctx, http.MethodGet, path, params, token, nil, &resp); err != nil {
		return Fail[[]dashboard.Quote](err)
	}
	out := make([]dashboard.Quote, 0, len(resp.Results))
	for _, rec := range resp.Results {
		out = append(out, rec.toQuote())
	}
	return OK(out)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, token string, payload any, target any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("salesapi: encode payload: %w", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("salesapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("salesapi: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: %s %s", ErrUnauthorized, method, path)
	}
	if resp.StatusCode == http.StatusConflict {
		return fmt.Errorf("%w: %s %s", ErrUserExists, method, path)
	}
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("salesapi: remote error %d: %s", resp.StatusCode, strings.TrimSpace(buf.String()))
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("salesapi: decode response: %w", err)
	}
	return nil
}

func (q Query) values() url.Values {
	params := url.Values{}
	params.Set("salespersonCode", strconv.Itoa(q.SalespersonCode))
	params.Set("date", formatDate(q.Date))
	return params
}

// formatDate renders dates the way the backend expects them (UTC ISO-8601
// with milliseconds).
func formatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
