package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"
)

var chartPeriods = map[string]int{"7d": 7, "14d": 14, "30d": 30}

// SalesSeriesPoint is one day of quote activity.
type SalesSeriesPoint struct {
	Day    time.Time
	Count  int
	Amount float64
}

// QuoteSeries fetches the quotes of each day in the window ending at the
// query date, oldest first.
func QuoteSeries(ctx context.Context, repo SalesRepository, query SalesQuery, days int) ([]SalesSeriesPoint, error) {
	if repo == nil {
		return nil, errMissingSalesRepository
	}
	if days <= 0 {
		days = 7
	}
	points := make([]SalesSeriesPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := query
		day.Date = query.Date.AddDate(0, 0, -i)
		quotes, err := repo.Quotes(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("dashboard: quotes for %s: %w", day.Date.Format(time.DateOnly), err)
		}
		points = append(points, SalesSeriesPoint{
			Day:    day.Date,
			Count:  len(quotes),
			Amount: sumAmounts(quotes),
		})
	}
	return points, nil
}

// SalesChartProvider renders daily quote activity through an echarts renderer.
type SalesChartProvider struct {
	repo     SalesRepository
	settings SalesSettings
	renderer *EChartsProvider
}

// NewSalesChartProvider builds a provider backed by the given repository.
func NewSalesChartProvider(repo SalesRepository, settings SalesSettings, renderer *EChartsProvider) Provider {
	if renderer == nil {
		renderer = NewEChartsProvider(ChartBar)
	}
	return &SalesChartProvider{
		repo:     repo,
		settings: settings,
		renderer: renderer,
	}
}

// Fetch renders the quotes chart widget.
func (p *SalesChartProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	cfg := meta.Instance.Configuration
	if cfg == nil {
		cfg = map[string]any{}
	}

	period := strings.ToLower(stringValue(cfg["period"], "7d"))
	days, ok := chartPeriods[period]
	if !ok {
		period, days = "7d", 7
	}
	metric := strings.ToLower(stringValue(cfg["metric"], "amount"))

	points, err := QuoteSeries(ctx, p.repo, p.settings.Query(meta.Viewer), days)
	if err != nil {
		return failed("Cotizaciones", err), nil
	}

	seriesData := []map[string]any{{
		"name": metricLabel(metric),
		"data": seriesValues(points, metric),
	}}
	if comparison := strings.ToLower(stringValue(cfg["comparison_metric"], "")); comparison != "" && comparison != metric {
		seriesData = append(seriesData, map[string]any{
			"name": metricLabel(comparison),
			"data": seriesValues(points, comparison),
		})
	}

	temp := meta
	temp.Instance.Configuration = map[string]any{
		"title":            stringValue(cfg["title"], "Cotizaciones por día"),
		"subtitle":         strings.ToUpper(period),
		"x_axis":           axisLabels(points),
		"series":           seriesData,
		"dynamic":          boolValue(cfg["dynamic"]),
		"refresh_endpoint": cfg["refresh_endpoint"],
		"theme":            cfg["theme"],
	}

	data, err := p.renderer.Fetch(ctx, temp)
	if err != nil {
		return nil, err
	}
	data["source"] = map[string]any{
		"metric": metric,
		"period": period,
	}
	return data, nil
}

// SectorChartProvider renders the customer share per segment as a pie.
type SectorChartProvider struct {
	repo     SalesRepository
	settings SalesSettings
	renderer *EChartsProvider
}

// NewSectorChartProvider builds the sector pie provider.
func NewSectorChartProvider(repo SalesRepository, settings SalesSettings, renderer *EChartsProvider) Provider {
	if renderer == nil {
		renderer = NewEChartsProvider(ChartPie)
	}
	return &SectorChartProvider{repo: repo, settings: settings, renderer: renderer}
}

// Fetch renders the sector chart widget.
func (p *SectorChartProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	if p.repo == nil {
		return nil, errMissingSalesRepository
	}
	cfg := meta.Instance.Configuration
	if cfg == nil {
		cfg = map[string]any{}
	}
	customers, err := p.repo.Customers(ctx, p.settings.Query(meta.Viewer))
	if err != nil {
		return failed("Clientes por sector", err), nil
	}
	shares := CustomersBySector(customers)
	if len(shares) == 0 {
		return WidgetData{"title": "Clientes por sector", "state": string(TableEmpty)}, nil
	}
	points := make([]map[string]any, 0, len(shares))
	for _, share := range shares {
		points = append(points, map[string]any{"name": share.Segment, "value": share.Count})
	}
	temp := meta
	temp.Instance.Configuration = map[string]any{
		"title":  stringValue(cfg["title"], "Clientes por sector"),
		"series": []map[string]any{{"name": "Clientes", "data": points}},
		"theme":  cfg["theme"],
	}
	data, err := p.renderer.Fetch(ctx, temp)
	if err != nil {
		return nil, err
	}
	data["sectors"] = shares
	return data, nil
}

func seriesValues(points []SalesSeriesPoint, metric string) []float64 {
	values := make([]float64, len(points))
	for i, point := range points {
		if metric == "count" {
			values[i] = float64(point.Count)
		} else {
			values[i] = point.Amount
		}
	}
	return values
}

func axisLabels(points []SalesSeriesPoint) []string {
	labels := make([]string, len(points))
	for i, point := range points {
		labels[i] = point.Day.Format("02/01")
	}
	return labels
}

func metricLabel(metric string) string {
	if metric == "count" {
		return "Cotizaciones"
	}
	return "Monto"
}
