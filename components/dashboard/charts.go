package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// ChartKind selects the echarts series type.
type ChartKind string

const (
	ChartBar   ChartKind = "bar"
	ChartLine  ChartKind = "line"
	ChartPie   ChartKind = "pie"
	ChartGauge ChartKind = "gauge"
)

// Generic chart widgets, configured entirely through their series.
const (
	WidgetBarChart   = "sales.widget.bar_chart"
	WidgetLineChart  = "sales.widget.line_chart"
	WidgetPieChart   = "sales.widget.pie_chart"
	WidgetGaugeChart = "sales.widget.gauge_chart"
)

var genericCharts = map[string]ChartKind{
	WidgetBarChart:   ChartBar,
	WidgetLineChart:  ChartLine,
	WidgetPieChart:   ChartPie,
	WidgetGaugeChart: ChartGauge,
}

// ErrUnsupportedChart is returned when rendering an unknown ChartKind.
var ErrUnsupportedChart = errors.New("dashboard: unsupported chart type")

const defaultChartHeight = "360px"

// ThemeResolver selects a chart theme per viewer.
type ThemeResolver func(ViewerContext) string

// EChartsProvider renders chart widgets to self-contained echarts HTML.
type EChartsProvider struct {
	kind          ChartKind
	cache         RenderCache
	theme         string
	themeResolver ThemeResolver
	assetsHost    string
}

type ChartOption func(*EChartsProvider)

// WithChartCache memoizes rendered HTML. Nil renders on every fetch.
func WithChartCache(cache RenderCache) ChartOption {
	return func(p *EChartsProvider) { p.cache = cache }
}

func WithChartTheme(theme string) ChartOption {
	return func(p *EChartsProvider) { p.theme = theme }
}

// WithChartThemeResolver picks the theme per viewer; an empty result falls
// back to the static theme.
func WithChartThemeResolver(resolver ThemeResolver) ChartOption {
	return func(p *EChartsProvider) { p.themeResolver = resolver }
}

func WithChartAssetsHost(host string) ChartOption {
	return func(p *EChartsProvider) { p.assetsHost = ensureTrailingSlash(host) }
}

func NewEChartsProvider(kind ChartKind, options ...ChartOption) *EChartsProvider {
	p := &EChartsProvider{
		kind:       ChartKind(strings.ToLower(string(kind))),
		theme:      types.ThemeWesteros,
		assetsHost: EChartsAssetsHost(),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// chartModel is everything a render needs, already translated.
type chartModel struct {
	Title    string
	Subtitle string
	Axis     []string
	Series   []ChartSeries
	Theme    string
	// Goal turns a gauge value into a percentage of it.
	Goal float64
}

// Fetch reads title, subtitle, x_axis, series, theme and goal from the
// widget configuration and renders the chart.
func (p *EChartsProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	cfg := meta.Instance.Configuration
	if cfg == nil {
		cfg = map[string]any{}
	}
	model, err := p.model(ctx, meta, cfg)
	if err != nil {
		return nil, err
	}

	render := func() (string, error) { return p.render(model) }
	var html string
	if p.cache != nil {
		html, err = p.cache.GetOrRender(chartCacheKey(meta, string(p.kind), cfg), render)
	} else {
		html, err = render()
	}
	if err != nil {
		return nil, err
	}

	data := WidgetData{
		"chart_html": html,
		"chart_type": string(p.kind),
		"title":      model.Title,
		"subtitle":   model.Subtitle,
		"theme":      model.Theme,
	}
	if p.kind == ChartGauge && model.Goal > 0 {
		data["goal"] = model.Goal
		data["percent"] = gaugePercent(model.Series[0].Points[0].Value, model.Goal)
	}
	if boolValue(cfg["dynamic"]) {
		data["dynamic"] = true
		if endpoint := stringValue(cfg["refresh_endpoint"], ""); endpoint != "" {
			data["refresh_endpoint"] = endpoint
		}
	}
	return data, nil
}

func (p *EChartsProvider) model(ctx context.Context, meta WidgetContext, cfg map[string]any) (chartModel, error) {
	series := parseChartSeries(cfg["series"])
	if len(series) == 0 {
		return chartModel{}, errMissingChartSeries
	}
	model := chartModel{
		Title:    stringValue(cfg["title"], "Gráfica"),
		Subtitle: stringValue(cfg["subtitle"], ""),
		Series:   series,
		Theme:    p.resolveTheme(meta.Viewer),
		Goal:     float64Value(cfg["goal"]),
	}
	model.Title = meta.Text(ctx, meta.Instance.DefinitionID+".title", model.Title)

	model.Axis = stringSliceValue(cfg["x_axis"])
	if len(model.Axis) == 0 {
		model.Axis = inferredAxisLabels(series)
	}
	if meta.Translator != nil {
		for i, label := range model.Axis {
			model.Axis[i] = meta.Text(ctx, label, label)
		}
		for i := range model.Series {
			name := model.Series[i].Name
			model.Series[i].Name = meta.Text(ctx, name, name)
		}
	}
	if theme := strings.TrimSpace(stringValue(cfg["theme"], "")); theme != "" {
		model.Theme = theme
	}
	return model, nil
}

func (p *EChartsProvider) resolveTheme(viewer ViewerContext) string {
	if p.themeResolver != nil {
		if theme := p.themeResolver(viewer); theme != "" {
			return theme
		}
	}
	if p.theme != "" {
		return p.theme
	}
	return types.ThemeWesteros
}

func (p *EChartsProvider) render(model chartModel) (string, error) {
	global := p.globalOptions(model)
	switch p.kind {
	case ChartBar:
		bar := charts.NewBar()
		bar.SetGlobalOptions(global...)
		bar.SetXAxis(model.Axis)
		for _, s := range model.Series {
			data := make([]opts.BarData, len(s.Points))
			for i, pt := range s.Points {
				data[i] = opts.BarData{Name: pt.Label, Value: pt.Value}
			}
			bar.AddSeries(s.Name, data)
		}
		return renderChart(bar)
	case ChartLine:
		line := charts.NewLine()
		line.SetGlobalOptions(global...)
		line.SetXAxis(model.Axis)
		for _, s := range model.Series {
			data := make([]opts.LineData, len(s.Points))
			for i, pt := range s.Points {
				data[i] = opts.LineData{Name: pt.Label, Value: pt.Value}
			}
			line.AddSeries(s.Name, data)
		}
		line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
		return renderChart(line)
	case ChartPie:
		pie := charts.NewPie()
		pie.SetGlobalOptions(global...)
		for _, s := range model.Series {
			data := make([]opts.PieData, len(s.Points))
			for i, pt := range s.Points {
				name := pt.Label
				if name == "" {
					name = fmt.Sprintf("Segmento %d", i+1)
				}
				data[i] = opts.PieData{Name: name, Value: pt.Value}
			}
			pie.AddSeries(s.Name, data)
		}
		return renderChart(pie)
	case ChartGauge:
		gauge := charts.NewGauge()
		gauge.SetGlobalOptions(global...)
		for _, s := range model.Series {
			value := s.Points[0].Value
			if model.Goal > 0 {
				value = gaugePercent(value, model.Goal)
			}
			gauge.AddSeries(s.Name, []opts.GaugeData{{Name: s.Name, Value: value}})
		}
		return renderChart(gauge)
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedChart, p.kind)
}

func (p *EChartsProvider) globalOptions(model chartModel) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:      model.Theme,
		Width:      "100%",
		Height:     defaultChartHeight,
		AssetsHost: p.assetsHost,
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: model.Title, Subtitle: model.Subtitle}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(p.kind != ChartGauge)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithToolboxOpts(opts.Toolbox{Show: opts.Bool(true)}),
	}
}

func renderChart(chart interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := chart.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// gaugePercent caps progress at 100 so an exceeded goal reads as complete.
func gaugePercent(value, goal float64) float64 {
	return math.Min(100, math.Round(value/goal*1000)/10)
}
