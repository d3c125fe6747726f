package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-salesboard/pkg/chat"
	"github.com/goliatone/go-salesboard/pkg/tasks"
)

// Widget definition codes served by the sales dashboard.
const (
	WidgetQuoteGoal       = "sales.widget.quote_goal"
	WidgetExpiredQuotes   = "sales.widget.expired_quotes"
	WidgetCustomers       = "sales.widget.customers"
	WidgetPayingCustomers = "sales.widget.paying_customers"
	WidgetQuotesChart     = "sales.widget.quotes_chart"
	WidgetSectorChart     = "sales.widget.sector_chart"
	WidgetTable           = "sales.widget.table"
	WidgetTasks           = "sales.widget.tasks"
	WidgetChat            = "sales.widget.chat"
)

const (
	defaultTasksLimit = 3
	defaultChartTTL   = 5 * time.Minute
)

// ChatGreeting opens every chat widget.
const ChatGreeting = "¡Hola! Soy tu asistente virtual. ¿En qué puedo ayudarte con tus ventas hoy?"

// SalesBackends bundles the collaborators shared by sales providers and the
// service. Tables must be shared so that widget payloads and table actions
// see the same per-viewer view state.
type SalesBackends struct {
	Sales    SalesRepository
	Settings SalesSettings
	Tasks    tasks.Store
	Chat     chat.Responder
	Tables   *TableManager
	// Charts caches rendered chart HTML; nil renders on every fetch.
	Charts RenderCache
	// ChartTheme is the default echarts theme for every chart widget.
	ChartTheme string
}

// NewSalesBackends wires the stock tables over the given collaborators. Nil
// collaborators fall back to the demo repository, an in-memory task store
// seeded with the demo tasks, and the default chat rules. It panics if a stock
// table definition fails to register.
func NewSalesBackends(repo SalesRepository, taskStore tasks.Store, responder chat.Responder, settings SalesSettings) *SalesBackends {
	if repo == nil {
		repo = DemoSalesRepository{}
	}
	if taskStore == nil {
		taskStore = tasks.NewMemoryStore(tasks.DemoTasks())
	}
	if responder == nil {
		responder = chat.NewRuleResponder(nil)
	}
	settings = settings.normalized()
	tables, err := NewTableManager(nil, SalesTableDefinitions(repo, taskStore, settings)...)
	if err != nil {
		panic(err)
	}
	return &SalesBackends{
		Sales:    repo,
		Settings: settings,
		Tasks:    taskStore,
		Chat:     responder,
		Tables:   tables,
		Charts:   NewChartCache(defaultChartTTL),
	}
}

var (
	defaultBackendsOnce sync.Once
	defaultBackends     *SalesBackends
)

// DefaultSalesBackends returns the process-wide demo backends used when a
// registry or service is built without explicit ones.
func DefaultSalesBackends() *SalesBackends {
	defaultBackendsOnce.Do(func() {
		defaultBackends = NewSalesBackends(nil, nil, nil, DefaultSalesSettings())
	})
	return defaultBackends
}

// RegisterSalesProviders binds the sales providers to their definitions. The
// definitions must already be registered.
func RegisterSalesProviders(reg *Registry, backends *SalesBackends) error {
	if reg == nil {
		return fmt.Errorf("dashboard: registry is required")
	}
	if backends == nil {
		backends = DefaultSalesBackends()
	}
	var errs []error
	for code, provider := range salesProviders(backends) {
		if _, ok := reg.Definition(code); !ok {
			continue
		}
		if err := reg.RegisterProvider(code, provider); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func salesProviders(b *SalesBackends) map[string]Provider {
	chart := func(kind ChartKind) *EChartsProvider {
		return NewEChartsProvider(kind, WithChartCache(b.Charts), WithChartTheme(b.ChartTheme))
	}
	providers := map[string]Provider{
		WidgetQuoteGoal:       quoteGoalProvider(b),
		WidgetExpiredQuotes:   expiredQuotesProvider(b),
		WidgetCustomers:       customersProvider(b),
		WidgetPayingCustomers: payingCustomersProvider(b),
		WidgetQuotesChart:     NewSalesChartProvider(b.Sales, b.Settings, chart(ChartBar)),
		WidgetSectorChart:     NewSectorChartProvider(b.Sales, b.Settings, chart(ChartPie)),
		WidgetTable:           tableProvider(b),
		WidgetTasks:           tasksProvider(b),
		WidgetChat:            chatProvider(b),
	}
	for code, kind := range genericCharts {
		providers[code] = chart(kind)
	}
	return providers
}

// failed turns a backend failure into a payload the templates render as an
// error state. Empty results are never reported this way.
func failed(title string, err error) WidgetData {
	return WidgetData{
		"title": title,
		"state": string(TableError),
		"error": err.Error(),
	}
}

func percentOf(count, target int) float64 {
	if target <= 0 {
		return 0
	}
	return math.Round(float64(count)/float64(target)*1000) / 10
}

func sumAmounts(quotes []Quote) float64 {
	total := 0.0
	for _, q := range quotes {
		total += q.Amount
	}
	return total
}

func quoteGoalProvider(b *SalesBackends) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		title := meta.Text(ctx, "sales.widget.quote_goal.title", "Meta Diaria de Cotizaciones")
		query := b.Settings.Query(meta.Viewer)
		quotes, err := b.Sales.Quotes(ctx, query)
		if err != nil {
			return failed(title, err), nil
		}
		goal := intConfig(meta.Setting("goal"), b.Settings.QuoteGoal)
		settings := b.Settings
		settings.QuoteGoal = goal
		percent := settings.QuotePercent(len(quotes))
		return WidgetData{
			"title":        title,
			"state":        string(TableReady),
			"count":        len(quotes),
			"goal":         goal,
			"value":        fmt.Sprintf("%d / %d", len(quotes), goal),
			"percent":      percent,
			"amount":       sumAmounts(quotes),
			"amount_label": moneyPrinter.Sprintf("$%.2f", sumAmounts(quotes)),
			"details_link": "/quotations",
		}, nil
	})
}

func expiredQuotesProvider(b *SalesBackends) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		title := meta.Text(ctx, "sales.widget.expired_quotes.title", "Cotizaciones Vencidas")
		query := b.Settings.Query(meta.Viewer)
		expired, err := LoadExpiredQuotes(ctx, b.Sales, query)
		if err != nil {
			return failed(title, err), nil
		}
		today := ExpiringOn(expired, query.Date)
		items := make([]map[string]any, 0, len(today))
		for _, q := range today {
			items = append(items, map[string]any{
				"number":   q.Number,
				"customer": q.CustomerName,
				"amount":   q.Amount,
			})
		}
		return WidgetData{
			"title":          title,
			"state":          string(TableReady),
			"count":          len(expired),
			"expiring_today": len(today),
			"items":          items,
			"amount":         sumAmounts(expired),
			"amount_label":   moneyPrinter.Sprintf("$%.2f", sumAmounts(expired)),
			"details_link":   "/quotations?table=" + TableExpiredQuotations,
		}, nil
	})
}

func customersProvider(b *SalesBackends) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		title := meta.Text(ctx, "sales.widget.customers.title", "Clientes")
		query := b.Settings.Query(meta.Viewer)
		customers, err := b.Sales.Customers(ctx, query)
		if err != nil {
			return failed(title, err), nil
		}
		withoutQuote := 0
		potential := 0.0
		for _, c := range customers {
			if c.LastQuoteDate.IsZero() || daysBetween(c.LastQuoteDate, query.Date) > staleQuoteDays {
				withoutQuote++
				potential += c.PotentialValue
			}
		}
		return WidgetData{
			"title":           title,
			"state":           string(TableReady),
			"count":           len(customers),
			"without_quote":   withoutQuote,
			"potential_label": moneyPrinter.Sprintf("$%.2f", potential),
			"details_link":    "/clients",
		}, nil
	})
}

func payingCustomersProvider(b *SalesBackends) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		title := meta.Text(ctx, "sales.widget.paying_customers.title", "Clientes Nuevos")
		query := b.Settings.Query(meta.Viewer)
		paying, err := LoadPayingCustomers(ctx, b.Sales, query)
		if err != nil {
			return failed(title, err), nil
		}
		target := intConfig(meta.Setting("target"), b.Settings.NewClientsTarget)
		return WidgetData{
			"title":        title,
			"state":        string(TableReady),
			"count":        len(paying),
			"target":       target,
			"percent":      percentOf(len(paying), target),
			"details_link": "/clients?table=" + TableNewClients,
		}, nil
	})
}

func tableProvider(b *SalesBackends) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		code := strings.TrimSpace(stringValue(meta.Setting("table"), ""))
		if code == "" {
			return nil, fmt.Errorf("%w: table code is required", ErrUnknownTable)
		}
		snap, err := b.Tables.Snapshot(ctx, meta.Viewer, code)
		if err != nil {
			return nil, err
		}
		data := snap.WidgetData()
		key := "sales.table." + code + ".title"
		data["title"] = meta.Text(ctx, key, snap.Title)
		return data, nil
	})
}

func tasksProvider(b *SalesBackends) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		title := meta.Text(ctx, "sales.widget.tasks.title", "Tareas Pendientes")
		list, err := b.Tasks.List(ctx, meta.Viewer.UserID)
		if err != nil {
			return failed(title, err), nil
		}
		pending := tasks.Pending(list)
		limit := intConfig(meta.Setting("limit"), defaultTasksLimit)
		shown := tasks.Limit(pending, limit)
		items := make([]map[string]any, 0, len(shown))
		for _, t := range shown {
			items = append(items, map[string]any{
				"id":          t.ID,
				"description": t.Description,
				"client":      t.Client,
				"priority":    t.PriorityLabel(),
				"type":        t.TypeLabel(),
				"due_date":    t.DueDate,
			})
		}
		return WidgetData{
			"title":   title,
			"state":   string(TableReady),
			"items":   items,
			"pending": len(pending),
			"total":   len(list),
			"more":    len(pending) > len(shown),
		}, nil
	})
}

func chatProvider(b *SalesBackends) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		title := meta.Text(ctx, "sales.widget.chat.title", "Asistente de Ventas")
		data := WidgetData{
			"title":       title,
			"greeting":    stringValue(meta.Setting("greeting"), ChatGreeting),
			"placeholder": "Escribe tu mensaje...",
		}
		if rules, ok := b.Chat.(*chat.RuleResponder); ok {
			keywords := make([]string, 0, len(rules.Rules()))
			for _, rule := range rules.Rules() {
				keywords = append(keywords, rule.Keyword)
			}
			data["keywords"] = keywords
		}
		return data, nil
	})
}

func intConfig(value any, fallback int) int {
	switch v := value.(type) {
	case int:
		if v > 0 {
			return v
		}
	case int64:
		if v > 0 {
			return int(v)
		}
	case float64:
		if v > 0 {
			return int(v)
		}
	}
	return fallback
}
