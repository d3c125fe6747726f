package dashboard

import (
	"context"
	"fmt"
	"time"
)

var demoCustomers = []struct {
	name    string
	segment string
	source  string
}{
	{"Constructora Moderna", "Comercial", "Referido"},
	{"Universidad Nacional", "Educación", "Licitación"},
	{"Muebles Modernos", "Comercial", "Sitio web"},
	{"Industrias García", "Industrial", "Visita en frío"},
	{"Hospital Central", "Salud", "Licitación"},
	{"Constructora Acme", "Industrial", "Referido"},
	{"Gobierno del Estado", "Gobierno", "Licitación"},
	{"Colegio Americano", "Educación", "Sitio web"},
	{"Clínica del Valle", "Salud", "Referido"},
	{"Aceros del Norte", "Industrial", "Feria comercial"},
	{"Oficinas Delta", "Comercial", "Sitio web"},
	{"Municipio de Apodaca", "Gobierno", "Licitación"},
	{"Laboratorios Vértice", "Salud", "Visita en frío"},
	{"Plásticos Regios", "Industrial", "Feria comercial"},
	{"Instituto Tecnológico", "Educación", "Referido"},
}

var demoQuoteStatuses = []string{"Vencida", "En seguimiento", "Alta prioridad"}

// DemoSalesRepository serves deterministic fixtures anchored on the query date.
type DemoSalesRepository struct{}

var _ SalesRepository = DemoSalesRepository{}

func demoDate(query SalesQuery) time.Time {
	if query.Date.IsZero() {
		return DefaultDocumentDate
	}
	y, m, d := query.Date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func demoCustomerNo(i int) string {
	return fmt.Sprintf("C%05d", 1000+i)
}

// Quotes returns the quotes issued on the query date.
func (DemoSalesRepository) Quotes(_ context.Context, query SalesQuery) ([]Quote, error) {
	day := demoDate(query)
	out := make([]Quote, 0, 13)
	for i := 0; i < 13; i++ {
		c := demoCustomers[i%len(demoCustomers)]
		out = append(out, Quote{
			Number:          fmt.Sprintf("COT-%d-%03d", day.Year(), 200+i),
			CustomerNo:      demoCustomerNo(i % len(demoCustomers)),
			CustomerName:    c.name,
			SalespersonCode: query.SalespersonCode,
			DocumentDate:    day.Add(time.Duration(8+i%9) * time.Hour),
			Amount:          float64(5000 + (i*7919)%45000),
			Status:          "Abierta",
		})
	}
	return out, nil
}

// PastQuotes returns quotes from the previous weeks, with one duplicate number.
func (DemoSalesRepository) PastQuotes(_ context.Context, query SalesQuery) ([]Quote, error) {
	day := demoDate(query)
	out := make([]Quote, 0, 16)
	for i := 0; i < 15; i++ {
		c := demoCustomers[(i*2)%len(demoCustomers)]
		issued := day.AddDate(0, 0, -(30 + (i*11)%30))
		out = append(out, Quote{
			Number:              fmt.Sprintf("COT-%d-%03d", issued.Year(), 100+i),
			CustomerNo:          demoCustomerNo((i * 2) % len(demoCustomers)),
			CustomerName:        c.name,
			SalespersonCode:     query.SalespersonCode,
			DocumentDate:        issued,
			Amount:              float64(5000 + (i*4813)%45000),
			Status:              demoQuoteStatuses[i%len(demoQuoteStatuses)],
			NextAppointmentDate: day.AddDate(0, 0, -(i % 4)),
		})
	}
	out = append(out, out[0])
	return out, nil
}

// ExpiredQuotes returns the past quotes whose number was requested and whose
// document date lies before the query date minus the month range.
func (r DemoSalesRepository) ExpiredQuotes(ctx context.Context, query SalesQuery, quoteNumbers []string) ([]Quote, error) {
	past, err := r.PastQuotes(ctx, query)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(quoteNumbers))
	for _, n := range quoteNumbers {
		wanted[n] = true
	}
	months := query.MonthRange
	if months <= 0 {
		months = 1
	}
	cutoff := demoDate(query).AddDate(0, -months, 0)
	out := make([]Quote, 0, len(quoteNumbers))
	for _, q := range past {
		if !wanted[q.Number] || !q.DocumentDate.Before(cutoff) {
			continue
		}
		wanted[q.Number] = false
		out = append(out, q)
	}
	return out, nil
}

// Customers returns the full demo portfolio.
func (DemoSalesRepository) Customers(_ context.Context, query SalesQuery) ([]Customer, error) {
	day := demoDate(query)
	out := make([]Customer, 0, len(demoCustomers))
	for i, c := range demoCustomers {
		customer := Customer{
			No:               demoCustomerNo(i),
			Name:             c.name,
			Segment:          c.segment,
			SalespersonCode:  query.SalespersonCode,
			LastPurchaseDate: day.AddDate(0, 0, -(15 + (i*37)%180)),
			PotentialValue:   float64(20000 + (i*15485)%180000),
			Source:           c.source,
			CreatedAt:        day.AddDate(0, 0, -(i * 9)),
		}
		// Every third customer has never been quoted.
		if i%3 != 2 {
			customer.LastQuoteDate = day.AddDate(0, 0, -(i*5)%45)
		}
		out = append(out, customer)
	}
	return out, nil
}

// PayingCustomers reports every second requested customer as invoiced.
func (DemoSalesRepository) PayingCustomers(_ context.Context, _ SalesQuery, customerNos []string) ([]string, error) {
	out := make([]string, 0, len(customerNos)/2+1)
	for i, no := range customerNos {
		if i%2 == 0 {
			out = append(out, no)
		}
	}
	return out, nil
}

// SalesOrders returns the demo VSP orders.
func (DemoSalesRepository) SalesOrders(_ context.Context, query SalesQuery) ([]SalesOrder, error) {
	day := demoDate(query)
	statuses := []string{"Pendiente", "Facturada", "Parcial"}
	out := make([]SalesOrder, 0, 12)
	for i := 0; i < 12; i++ {
		c := demoCustomers[(i*4)%len(demoCustomers)]
		out = append(out, SalesOrder{
			Number:        fmt.Sprintf("VSP-%d-%03d", day.Year(), 300+i),
			CustomerName:  c.name,
			Amount:        float64(8000 + (i*6151)%60000),
			Status:        "Confirmada",
			Date:          day.AddDate(0, 0, -(2 + (i*3)%40)),
			InvoiceStatus: statuses[i%len(statuses)],
		})
	}
	return out, nil
}
