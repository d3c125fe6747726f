package dashboard

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"slices"
	"time"

	"github.com/goliatone/go-salesboard/components/datatable"
	"github.com/goliatone/go-salesboard/pkg/tasks"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Table codes served by the sales dashboard.
const (
	TableQuotations          = "quotations"
	TableExpiredQuotations   = "expired_quotations"
	TableClients             = "clients"
	TableNewClients          = "new_clients"
	TableClientsWithoutQuote = "clients_without_quote"
	TableProactiveSales      = "proactive_sales"
	TableSalesOrders         = "sales_orders"
	TableTasks               = "tasks"
)

var salesTableCodes = []string{
	TableQuotations, TableExpiredQuotations, TableClients, TableNewClients,
	TableClientsWithoutQuote, TableProactiveSales, TableSalesOrders, TableTasks,
}

// KnownTable reports whether code names one of the sales tables.
func KnownTable(code string) bool {
	return slices.Contains(salesTableCodes, code)
}

const (
	dateLayout = "02/01/2006"
	// proactiveAfterDays is how long without a purchase before a customer is
	// suggested for a proactive sale.
	proactiveAfterDays = 90
	// staleQuoteDays is how old a customer's last quote may be before the
	// customer is listed as without quote.
	staleQuoteDays = 30
)

var recommendedProducts = map[string]string{
	"Industrial": "Acero estructural",
	"Comercial":  "Mobiliario de oficina",
	"Educación":  "Pupitres escolares",
	"Gobierno":   "Señalética institucional",
	"Salud":      "Mobiliario clínico",
}

var moneyPrinter = message.NewPrinter(language.MustParse("es-MX"))

func formatMoney(value any, _ datatable.Row) any {
	amount, ok := value.(float64)
	if !ok {
		return value
	}
	return moneyPrinter.Sprintf("$%.2f", amount)
}

func formatDate(value any, _ datatable.Row) any {
	t, ok := value.(time.Time)
	if !ok || t.IsZero() {
		return nil
	}
	return t.Format(dateLayout)
}

func formatPercent(value any, _ datatable.Row) any {
	p, ok := value.(float64)
	if !ok {
		return value
	}
	return fmt.Sprintf("%.0f%%", p)
}

func money(key, header string) datatable.DataColumn {
	col := datatable.Sortable(key, header)
	col.Format = formatMoney
	return col
}

func date(key, header string) datatable.DataColumn {
	col := datatable.Sortable(key, header)
	col.Format = formatDate
	return col
}

func daysBetween(from, to time.Time) int {
	if from.IsZero() || to.IsZero() {
		return 0
	}
	return int(math.Floor(to.Sub(from).Hours() / 24))
}

func priorityFor(potential float64) string {
	switch {
	case potential >= 150000:
		return "Alta"
	case potential >= 80000:
		return "Media"
	default:
		return "Baja"
	}
}

func riskFor(daysPending int) string {
	switch {
	case daysPending > 30:
		return "Alto"
	case daysPending > 15:
		return "Medio"
	default:
		return "Bajo"
	}
}

func quoteLink(row datatable.Row) string {
	number, _ := row["number"].(string)
	return "/quotations/" + url.PathEscape(number)
}

func customerLink(row datatable.Row) string {
	no, _ := row["no"].(string)
	return "/clients/" + url.PathEscape(no)
}

func quoteRow(q Quote, day time.Time) datatable.Row {
	row := datatable.Row{
		"number":        q.Number,
		"customer_no":   q.CustomerNo,
		"customer_name": q.CustomerName,
		"amount":        q.Amount,
		"document_date": q.DocumentDate,
		"status":        q.Status,
	}
	if !q.NextAppointmentDate.IsZero() {
		row["expiration_date"] = q.NextAppointmentDate
		row["days_expired"] = daysBetween(q.NextAppointmentDate, day)
	} else {
		row["expiration_date"] = nil
		row["days_expired"] = nil
	}
	return row
}

func customerRow(c Customer, day time.Time) datatable.Row {
	row := datatable.Row{
		"no":                 c.No,
		"name":               c.Name,
		"segment":            c.Segment,
		"last_purchase_date": c.LastPurchaseDate,
		"potential_value":    c.PotentialValue,
		"priority":           priorityFor(c.PotentialValue),
		"source":             c.Source,
		"created_at":         c.CreatedAt,
		"days_without_sale":  daysBetween(c.LastPurchaseDate, day),
	}
	if c.LastQuoteDate.IsZero() {
		row["last_quote_date"] = nil
	} else {
		row["last_quote_date"] = c.LastQuoteDate
	}
	return row
}

func quoteActions() datatable.ActionColumn {
	return datatable.ActionColumn{
		Header: "Acciones",
		Render: func(row datatable.Row) any {
			return map[string]any{"label": "Ver", "href": quoteLink(row)}
		},
	}
}

// SalesTableDefinitions builds the stock tables over the sales repository and
// the task store.
func SalesTableDefinitions(repo SalesRepository, taskStore tasks.Store, settings SalesSettings) []TableDefinition {
	opts := datatable.DefaultOptions()
	opts.Locale = "es-MX"
	if len(settings.PageSizeOptions) > 0 {
		opts.PageSizeOptions = append([]int(nil), settings.PageSizeOptions...)
	}
	if settings.PageSize > 0 {
		opts.InitialPageSize = settings.PageSize
	}

	loadQuotes := func(ctx context.Context, viewer ViewerContext) ([]datatable.Row, error) {
		query := settings.Query(viewer)
		quotes, err := repo.Quotes(ctx, query)
		if err != nil {
			return nil, err
		}
		rows := make([]datatable.Row, 0, len(quotes))
		for _, q := range quotes {
			rows = append(rows, quoteRow(q, query.Date))
		}
		return rows, nil
	}
	loadExpired := func(ctx context.Context, viewer ViewerContext) ([]datatable.Row, error) {
		query := settings.Query(viewer)
		quotes, err := LoadExpiredQuotes(ctx, repo, query)
		if err != nil {
			return nil, err
		}
		rows := make([]datatable.Row, 0, len(quotes))
		for _, q := range quotes {
			rows = append(rows, quoteRow(q, query.Date))
		}
		return rows, nil
	}
	customersWhere := func(keep func(Customer, SalesQuery) bool) TableLoader {
		return func(ctx context.Context, viewer ViewerContext) ([]datatable.Row, error) {
			query := settings.Query(viewer)
			customers, err := repo.Customers(ctx, query)
			if err != nil {
				return nil, err
			}
			rows := make([]datatable.Row, 0, len(customers))
			for _, c := range customers {
				if keep == nil || keep(c, query) {
					row := customerRow(c, query.Date)
					row["recommended_product"] = recommendedProducts[c.Segment]
					row["probability"] = proactiveProbability(c, query.Date)
					rows = append(rows, row)
				}
			}
			return rows, nil
		}
	}
	loadNewClients := func(ctx context.Context, viewer ViewerContext) ([]datatable.Row, error) {
		query := settings.Query(viewer)
		paying, err := LoadPayingCustomers(ctx, repo, query)
		if err != nil {
			return nil, err
		}
		customers, err := repo.Customers(ctx, query)
		if err != nil {
			return nil, err
		}
		set := make(map[string]bool, len(paying))
		for _, no := range paying {
			set[no] = true
		}
		rows := make([]datatable.Row, 0, len(paying))
		for _, c := range customers {
			if set[c.No] {
				rows = append(rows, customerRow(c, query.Date))
				set[c.No] = false
			}
		}
		return rows, nil
	}
	loadOrders := func(ctx context.Context, viewer ViewerContext) ([]datatable.Row, error) {
		query := settings.Query(viewer)
		orders, err := repo.SalesOrders(ctx, query)
		if err != nil {
			return nil, err
		}
		rows := make([]datatable.Row, 0, len(orders))
		for _, o := range orders {
			pending := daysBetween(o.Date, query.Date)
			rows = append(rows, datatable.Row{
				"number":         o.Number,
				"customer_name":  o.CustomerName,
				"date":           o.Date,
				"amount":         o.Amount,
				"days_pending":   pending,
				"risk":           riskFor(pending),
				"invoice_status": o.InvoiceStatus,
			})
		}
		return rows, nil
	}
	loadTasks := func(ctx context.Context, viewer ViewerContext) ([]datatable.Row, error) {
		if taskStore == nil {
			return nil, errMissingTaskStore
		}
		list, err := taskStore.List(ctx, viewer.UserID)
		if err != nil {
			return nil, err
		}
		rows := make([]datatable.Row, 0, len(list))
		for _, t := range list {
			rows = append(rows, datatable.Row{
				"id":          t.ID,
				"description": t.Description,
				"client":      t.Client,
				"order_id":    nilIfEmpty(t.OrderID),
				"priority":    t.PriorityLabel(),
				"type":        nilIfEmpty(t.TypeLabel()),
				"due_date":    nilIfEmpty(t.DueDate),
				"status":      taskStatusLabel(t),
			})
		}
		return rows, nil
	}

	return []TableDefinition{
		{
			Code:  TableQuotations,
			Title: "Cotizaciones del día",
			Columns: []datatable.Column{
				datatable.Sortable("number", "ID"),
				datatable.Sortable("customer_name", "Cliente"),
				money("amount", "Monto"),
				date("document_date", "Fecha Emisión"),
				datatable.Sortable("status", "Estado"),
				quoteActions(),
			},
			Options: opts,
			Load:    loadQuotes,
			RowLink: quoteLink,
		},
		{
			Code:  TableExpiredQuotations,
			Title: "Cotizaciones vencidas",
			Columns: []datatable.Column{
				datatable.Sortable("number", "ID"),
				datatable.Sortable("customer_name", "Cliente"),
				money("amount", "Monto"),
				date("document_date", "Fecha Emisión"),
				date("expiration_date", "Fecha Vencimiento"),
				datatable.Sortable("days_expired", "Días Vencida"),
				datatable.Sortable("status", "Estado"),
				quoteActions(),
			},
			Options: opts,
			Load:    loadExpired,
			RowLink: quoteLink,
		},
		{
			Code:  TableClients,
			Title: "Clientes",
			Columns: []datatable.Column{
				datatable.Sortable("no", "ID"),
				datatable.Sortable("name", "Cliente"),
				date("last_quote_date", "Última Cotización"),
				date("last_purchase_date", "Última Compra"),
				money("potential_value", "Potencial"),
				datatable.Sortable("segment", "Segmento"),
				datatable.Sortable("priority", "Prioridad"),
			},
			Options: opts,
			Load:    customersWhere(nil),
			RowLink: customerLink,
		},
		{
			Code:  TableNewClients,
			Title: "Clientes nuevos",
			Columns: []datatable.Column{
				datatable.Sortable("no", "ID"),
				datatable.Sortable("name", "Cliente"),
				date("created_at", "Fecha Alta"),
				datatable.Sortable("source", "Origen"),
				datatable.Sortable("segment", "Segmento"),
			},
			Options: opts,
			Load:    loadNewClients,
			RowLink: customerLink,
		},
		{
			Code:  TableClientsWithoutQuote,
			Title: "Clientes sin cotización",
			Columns: []datatable.Column{
				datatable.Sortable("no", "ID"),
				datatable.Sortable("name", "Cliente"),
				date("last_quote_date", "Última Cotización"),
				date("last_purchase_date", "Última Compra"),
				money("potential_value", "Potencial"),
				datatable.Sortable("segment", "Segmento"),
			},
			Options: opts,
			Load: customersWhere(func(c Customer, q SalesQuery) bool {
				return c.LastQuoteDate.IsZero() || daysBetween(c.LastQuoteDate, q.Date) > staleQuoteDays
			}),
			RowLink: customerLink,
		},
		{
			Code:  TableProactiveSales,
			Title: "Ventas proactivas",
			Columns: []datatable.Column{
				datatable.Sortable("name", "Cliente"),
				datatable.Text("recommended_product", "Producto Recomendado"),
				datatable.Sortable("segment", "Categoría"),
				date("last_purchase_date", "Última Compra"),
				datatable.DataColumn{Key: "probability", Header: "Probabilidad", Sortable: true, Format: formatPercent},
			},
			Options: opts,
			Load: customersWhere(func(c Customer, q SalesQuery) bool {
				return daysBetween(c.LastPurchaseDate, q.Date) > proactiveAfterDays
			}),
			RowLink: customerLink,
		},
		{
			Code:  TableSalesOrders,
			Title: "Ventas (VSP)",
			Columns: []datatable.Column{
				datatable.Sortable("number", "Folio"),
				datatable.Sortable("customer_name", "Cliente"),
				date("date", "Fecha Pedido"),
				money("amount", "Monto"),
				datatable.Sortable("days_pending", "Días Pendiente"),
				datatable.Sortable("risk", "Riesgo"),
				datatable.Sortable("invoice_status", "Estado Factura"),
			},
			Options: opts,
			Load:    loadOrders,
		},
		{
			Code:  TableTasks,
			Title: "Tareas",
			Columns: []datatable.Column{
				datatable.Sortable("description", "Descripción"),
				datatable.Sortable("client", "Cliente"),
				datatable.Text("order_id", "Folio"),
				datatable.Sortable("priority", "Prioridad"),
				datatable.Sortable("type", "Tipo"),
				datatable.Text("due_date", "Vence"),
				datatable.Sortable("status", "Estado"),
			},
			Options: opts,
			Load:    loadTasks,
		},
	}
}

// proactiveProbability decays with the time since the last purchase.
func proactiveProbability(c Customer, day time.Time) float64 {
	days := daysBetween(c.LastPurchaseDate, day)
	if days <= 0 {
		return 90
	}
	p := 90 - float64(days)/4
	return math.Max(10, math.Round(p))
}

func taskStatusLabel(t tasks.Task) string {
	if t.Completed() {
		return "Completada"
	}
	return "Pendiente"
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
