package salesapi

import (
	"strings"
	"time"

	dashboard "github.com/goliatone/go-salesboard/components/dashboard"
)

type envelope[T any] struct {
	Results []T `json:"results"`
}

type quoteRecord struct {
	No                  string  `json:"No_"`
	CustomerNo          string  `json:"Sell-to Customer No_"`
	CustomerName        string  `json:"Sell-to Customer Name"`
	SalespersonCode     int     `json:"Salesperson Code"`
	DocumentDate        string  `json:"Document Date"`
	Amount              float64 `json:"Amount"`
	Status              string  `json:"Status"`
	NextAppointmentDate string  `json:"Next Appointment Date"`
}

func (r quoteRecord) toQuote() dashboard.Quote {
	return dashboard.Quote{
		Number:              r.No,
		CustomerNo:          r.CustomerNo,
		CustomerName:        r.CustomerName,
		SalespersonCode:     r.SalespersonCode,
		DocumentDate:        parseDate(r.DocumentDate),
		Amount:              r.Amount,
		Status:              r.Status,
		NextAppointmentDate: parseDate(r.NextAppointmentDate),
	}
}

type customerRecord struct {
	No               string  `json:"No_"`
	Name             string  `json:"Name"`
	Segment          string  `json:"Sector"`
	SalespersonCode  int     `json:"Salesperson Code"`
	LastQuoteDate    string  `json:"Last Quote Date"`
	LastPurchaseDate string  `json:"Last Purchase Date"`
	PotentialValue   float64 `json:"Potential Value"`
	Source           string  `json:"Source"`
	CreatedAt        string  `json:"Created At"`
}

func (r customerRecord) toCustomer() dashboard.Customer {
	return dashboard.Customer{
		No:               r.No,
		Name:             r.Name,
		Segment:          r.Segment,
		SalespersonCode:  r.SalespersonCode,
		LastQuoteDate:    parseDate(r.LastQuoteDate),
		LastPurchaseDate: parseDate(r.LastPurchaseDate),
		PotentialValue:   r.PotentialValue,
		Source:           r.Source,
		CreatedAt:        parseDate(r.CreatedAt),
	}
}

type invoiceRecord struct {
	CustomerNo string `json:"Customer No_"`
}

type orderRecord struct {
	No            string  `json:"No_"`
	CustomerName  string  `json:"Sell-to Customer Name"`
	Amount        float64 `json:"Amount"`
	Status        string  `json:"Status"`
	OrderDate     string  `json:"Order Date"`
	InvoiceStatus string  `json:"Invoice Status"`
}

func (r orderRecord) toOrder() dashboard.SalesOrder {
	return dashboard.SalesOrder{
		Number:        r.No,
		CustomerName:  r.CustomerName,
		Amount:        r.Amount,
		Status:        r.Status,
		Date:          parseDate(r.OrderDate),
		InvoiceStatus: r.InvoiceStatus,
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// parseDate accepts the layouts the backend emits; unparseable values and
// the 1753 null date yield the zero time.
func parseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			if t.Year() <= 1753 {
				return time.Time{}
			}
			return t.UTC()
		}
	}
	return time.Time{}
}
