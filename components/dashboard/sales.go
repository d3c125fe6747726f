package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Quote is a sales quotation issued by a salesperson.
type Quote struct {
	Number              string    `json:"number"`
	CustomerNo          string    `json:"customer_no"`
	CustomerName        string    `json:"customer_name"`
	SalespersonCode     int       `json:"salesperson_code"`
	DocumentDate        time.Time `json:"document_date"`
	Amount              float64   `json:"amount"`
	Status              string    `json:"status"`
	NextAppointmentDate time.Time `json:"next_appointment_date"`
}

// Customer is an account assigned to a salesperson.
type Customer struct {
	No               string    `json:"no"`
	Name             string    `json:"name"`
	Segment          string    `json:"segment"`
	SalespersonCode  int       `json:"salesperson_code"`
	LastQuoteDate    time.Time `json:"last_quote_date"`
	LastPurchaseDate time.Time `json:"last_purchase_date"`
	PotentialValue   float64   `json:"potential_value"`
	Source           string    `json:"source"`
	CreatedAt        time.Time `json:"created_at"`
}

// SalesOrder is a confirmed order (VSP) pending or done invoicing.
type SalesOrder struct {
	Number        string    `json:"number"`
	CustomerName  string    `json:"customer_name"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
	Date          time.Time `json:"date"`
	InvoiceStatus string    `json:"invoice_status"`
}

// SalesQuery scopes backend lookups to a salesperson and a document date.
type SalesQuery struct {
	SalespersonCode int
	Date            time.Time
	MonthRange      int
	Token           string
}

// SalesRepository loads sales data from the backend. Implementations must
// return an error for failed fetches; an empty slice always means "no data".
type SalesRepository interface {
	Quotes(ctx context.Context, query SalesQuery) ([]Quote, error)
	PastQuotes(ctx context.Context, query SalesQuery) ([]Quote, error)
	ExpiredQuotes(ctx context.Context, query SalesQuery, quoteNumbers []string) ([]Quote, error)
	Customers(ctx context.Context, query SalesQuery) ([]Customer, error)
	PayingCustomers(ctx context.Context, query SalesQuery, customerNos []string) ([]string, error)
	SalesOrders(ctx context.Context, query SalesQuery) ([]SalesOrder, error)
}

// SalesSettings holds the sales targets and date used by metric providers.
type SalesSettings struct {
	QuoteGoal        int
	NewClientsTarget int
	MonthRange       int
	// DocumentDate pins the date used for lookups; zero means today.
	DocumentDate time.Time
	// Now is used when DocumentDate is zero. Tests override it.
	Now func() time.Time
	// PageSize and PageSizeOptions override the table defaults when set.
	PageSize        int
	PageSizeOptions []int
}

// DefaultDocumentDate is the date the demo fixtures are built around.
var DefaultDocumentDate = time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC)

// DefaultSalesSettings returns the stock targets: 20 quotes a day, 50 new
// clients a month, a one month expiry window.
func DefaultSalesSettings() SalesSettings {
	return SalesSettings{
		QuoteGoal:        20,
		NewClientsTarget: 50,
		MonthRange:       1,
		DocumentDate:     DefaultDocumentDate,
	}
}

func (s SalesSettings) normalized() SalesSettings {
	defaults := DefaultSalesSettings()
	if s.QuoteGoal <= 0 {
		s.QuoteGoal = defaults.QuoteGoal
	}
	if s.NewClientsTarget <= 0 {
		s.NewClientsTarget = defaults.NewClientsTarget
	}
	if s.MonthRange <= 0 {
		s.MonthRange = defaults.MonthRange
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	return s
}

// Query builds the backend query for the viewer.
func (s SalesSettings) Query(viewer ViewerContext) SalesQuery {
	s = s.normalized()
	date := viewer.AsOf
	if date.IsZero() {
		date = s.DocumentDate
	}
	if date.IsZero() {
		date = s.Now().UTC()
	}
	return SalesQuery{
		SalespersonCode: viewer.SalespersonCode,
		Date:            date,
		MonthRange:      s.MonthRange,
		Token:           viewer.Token,
	}
}

// QuotePercent returns progress towards the daily quote goal, in percent.
func (s SalesSettings) QuotePercent(count int) float64 {
	s = s.normalized()
	return float64(count) / float64(s.QuoteGoal) * 100
}

// LoadExpiredQuotes fetches the past quotes of the viewer and then the
// expired subset. No past quotes means no expired lookup.
func LoadExpiredQuotes(ctx context.Context, repo SalesRepository, query SalesQuery) ([]Quote, error) {
	if repo == nil {
		return nil, errMissingSalesRepository
	}
	past, err := repo.PastQuotes(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("dashboard: past quotes: %w", err)
	}
	numbers := UniqueQuoteNumbers(past)
	if len(numbers) == 0 {
		return []Quote{}, nil
	}
	expired, err := repo.ExpiredQuotes(ctx, query, numbers)
	if err != nil {
		return nil, fmt.Errorf("dashboard: expired quotes: %w", err)
	}
	return expired, nil
}

// LoadPayingCustomers returns the unique numbers of the viewer's customers
// that have been invoiced.
func LoadPayingCustomers(ctx context.Context, repo SalesRepository, query SalesQuery) ([]string, error) {
	if repo == nil {
		return nil, errMissingSalesRepository
	}
	customers, err := repo.Customers(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("dashboard: customers: %w", err)
	}
	numbers := UniqueCustomerNumbers(customers)
	if len(numbers) == 0 {
		return []string{}, nil
	}
	paying, err := repo.PayingCustomers(ctx, query, numbers)
	if err != nil {
		return nil, fmt.Errorf("dashboard: paying customers: %w", err)
	}
	return uniqueStrings(paying), nil
}

// ExpiringOn keeps the quotes whose next appointment falls on day.
func ExpiringOn(quotes []Quote, day time.Time) []Quote {
	out := make([]Quote, 0, len(quotes))
	y, m, d := day.Date()
	for _, q := range quotes {
		if q.NextAppointmentDate.IsZero() {
			continue
		}
		qy, qm, qd := q.NextAppointmentDate.Date()
		if qy == y && qm == m && qd == d {
			out = append(out, q)
		}
	}
	return out
}

// UniqueQuoteNumbers returns quote numbers in first-seen order.
func UniqueQuoteNumbers(quotes []Quote) []string {
	numbers := make([]string, 0, len(quotes))
	for _, q := range quotes {
		numbers = append(numbers, q.Number)
	}
	return uniqueStrings(numbers)
}

// UniqueCustomerNumbers returns customer numbers in first-seen order.
func UniqueCustomerNumbers(customers []Customer) []string {
	numbers := make([]string, 0, len(customers))
	for _, c := range customers {
		numbers = append(numbers, c.No)
	}
	return uniqueStrings(numbers)
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// SectorShare counts customers per segment, ordered by count then name.
type SectorShare struct {
	Segment string
	Count   int
}

// CustomersBySector groups customers by segment.
func CustomersBySector(customers []Customer) []SectorShare {
	counts := map[string]int{}
	for _, c := range customers {
		segment := c.Segment
		if segment == "" {
			segment = "Sin segmento"
		}
		counts[segment]++
	}
	out := make([]SectorShare, 0, len(counts))
	for segment, count := range counts {
		out = append(out, SectorShare{Segment: segment, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Segment < out[j].Segment
	})
	return out
}
