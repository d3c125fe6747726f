package dashboard

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weeklySeries() []map[string]any {
	return []map[string]any{
		{"name": "Cotizaciones", "data": []float64{4, 7, 5, 9, 3}},
		{"name": "Pedidos", "data": []float64{1, 2, 2, 4, 1}},
	}
}

func TestChartKindsRender(t *testing.T) {
	t.Parallel()
	cases := []struct {
		kind       ChartKind
		definition string
		cfg        map[string]any
	}{
		{ChartBar, WidgetBarChart, map[string]any{"title": "Semana", "x_axis": []string{"Lun", "Mar", "Mié", "Jue", "Vie"}, "series": weeklySeries()}},
		{ChartLine, WidgetLineChart, map[string]any{"title": "Tendencia", "series": weeklySeries()}},
		{ChartPie, WidgetPieChart, map[string]any{"title": "Sectores", "series": []map[string]any{{
			"name": "Clientes",
			"data": []map[string]any{{"name": "Retail", "value": 12}, {"name": "Industria", "value": 5}},
		}}}},
		{ChartGauge, WidgetGaugeChart, map[string]any{"title": "Meta", "series": []map[string]any{{"name": "Avance", "data": []float64{56}}}}},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			data, err := NewEChartsProvider(tc.kind).Fetch(context.Background(), sampleChartContext(tc.definition, tc.cfg))
			require.NoError(t, err)
			assert.Equal(t, string(tc.kind), data["chart_type"])
			assert.Equal(t, tc.cfg["title"], data["title"])
			assert.Contains(t, chartHTML(data), "echarts")
		})
	}
}

func TestChartUnsupportedKind(t *testing.T) {
	t.Parallel()
	_, err := NewEChartsProvider("bubble").Fetch(context.Background(), sampleChartContext(WidgetBarChart, map[string]any{
		"series": []map[string]any{{"name": "S", "data": []float64{1}}},
	}))
	require.ErrorIs(t, err, ErrUnsupportedChart)
}

func TestChartRequiresSeries(t *testing.T) {
	t.Parallel()
	_, err := NewEChartsProvider(ChartBar).Fetch(context.Background(), sampleChartContext(WidgetBarChart, map[string]any{"title": "Vacía"}))
	assert.ErrorIs(t, err, errMissingChartSeries)
}

func TestGaugeReportsProgressTowardGoal(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(ChartGauge)
	data, err := provider.Fetch(context.Background(), sampleChartContext(WidgetGaugeChart, map[string]any{
		"title":  "Meta diaria",
		"goal":   20,
		"series": []map[string]any{{"name": "Cotizaciones", "data": []float64{13}}},
	}))
	require.NoError(t, err)
	assert.Equal(t, 65.0, data["percent"])
	assert.Equal(t, 20.0, data["goal"])

	data, err = provider.Fetch(context.Background(), sampleChartContext(WidgetGaugeChart, map[string]any{
		"goal":   10,
		"series": []map[string]any{{"name": "Cotizaciones", "data": []float64{25}}},
	}))
	require.NoError(t, err)
	assert.Equal(t, 100.0, data["percent"])
}

func TestChartCacheIsConsulted(t *testing.T) {
	t.Parallel()
	cache := &countingCache{}
	provider := NewEChartsProvider(ChartBar, WithChartCache(cache))
	meta := sampleChartContext(WidgetBarChart, map[string]any{"series": weeklySeries()})

	for range 3 {
		_, err := provider.Fetch(context.Background(), meta)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), cache.renders.Load())
}

func TestChartThemes(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(ChartBar, WithChartThemeResolver(func(viewer ViewerContext) string {
		if viewer.HasRole("admin") {
			return string(types.ThemeChalk)
		}
		return ""
	}))
	meta := sampleChartContext(WidgetBarChart, map[string]any{"series": weeklySeries()})

	data, err := provider.Fetch(context.Background(), meta)
	require.NoError(t, err)
	assert.Equal(t, string(types.ThemeWesteros), data["theme"])

	meta.Viewer.Roles = []string{"admin"}
	data, err = provider.Fetch(context.Background(), meta)
	require.NoError(t, err)
	assert.Equal(t, string(types.ThemeChalk), data["theme"])

	meta.Instance.Configuration["theme"] = "wonderland"
	data, err = provider.Fetch(context.Background(), meta)
	require.NoError(t, err)
	assert.Equal(t, "wonderland", data["theme"])

	fixed := NewEChartsProvider(ChartBar, WithChartTheme(string(types.ThemeInfographic)))
	data, err = fixed.Fetch(context.Background(), sampleChartContext(WidgetBarChart, map[string]any{"series": weeklySeries()}))
	require.NoError(t, err)
	assert.Equal(t, string(types.ThemeInfographic), data["theme"])
}

func TestChartAssetsHost(t *testing.T) {
	t.Parallel()
	meta := sampleChartContext(WidgetBarChart, map[string]any{"series": weeklySeries()})

	data, err := NewEChartsProvider(ChartBar).Fetch(context.Background(), meta)
	require.NoError(t, err)
	assert.Contains(t, chartHTML(data), "cdn.jsdelivr.net")

	data, err = NewEChartsProvider(ChartBar, WithChartAssetsHost("https://assets.example.com/echarts")).Fetch(context.Background(), meta)
	require.NoError(t, err)
	assert.Contains(t, chartHTML(data), "assets.example.com/echarts/")
}

func TestChartTranslatesTitleAndSeries(t *testing.T) {
	t.Parallel()
	meta := sampleChartContext(WidgetBarChart, map[string]any{
		"title":  "Semana",
		"series": []map[string]any{{"name": "sales.series.quotes", "data": []float64{1, 2}}},
	})
	meta.Viewer.Locale = "en-US"
	meta.Translator = NewCatalogTranslator(Catalog{
		"en": {
			WidgetBarChart + ".title": "Week",
			"sales.series.quotes":     "Quotes",
		},
	})
	data, err := NewEChartsProvider(ChartBar).Fetch(context.Background(), meta)
	require.NoError(t, err)
	assert.Equal(t, "Week", data["title"])
	assert.NotContains(t, chartHTML(data), "sales.series.quotes")
}

func TestParseChartPointsAcceptsMixedInput(t *testing.T) {
	points := parseChartPoints([]any{1, 2.5, map[string]any{"name": "Retail", "value": "4"}, "skip"})
	require.Len(t, points, 3)
	assert.Equal(t, ChartPoint{Label: "Retail", Value: 4}, points[2])
	assert.Equal(t, []string{"Item 1", "Item 2", "Retail"}, inferredAxisLabels([]ChartSeries{{Points: points}}))
}

func TestServiceRendersGenericChartWidget(t *testing.T) {
	service := NewService(Options{
		WidgetStore:     NewMemoryWidgetStore(),
		Providers:       NewRegistry(),
		ConfigValidator: noopConfigValidator{},
	})
	require.NoError(t, service.AddWidget(context.Background(), AddWidgetRequest{
		DefinitionID:  WidgetLineChart,
		AreaCode:      AreaMain,
		Configuration: map[string]any{"title": "Pedidos", "series": weeklySeries()},
	}))

	layout, err := service.ConfigureLayout(context.Background(), ViewerContext{UserID: "V001"})
	require.NoError(t, err)
	require.Len(t, layout.Areas[AreaMain], 1)
	data, ok := layout.Areas[AreaMain][0].Metadata["data"].(WidgetData)
	require.True(t, ok)
	assert.Equal(t, "line", data["chart_type"])
	assert.Equal(t, "Pedidos", data["title"])
}

func sampleChartContext(definition string, cfg map[string]any) WidgetContext {
	return WidgetContext{
		Instance: WidgetInstance{
			ID:            definition + "-1",
			DefinitionID:  definition,
			Configuration: cfg,
		},
		Viewer: ViewerContext{UserID: "V001", Locale: "es-MX"},
	}
}

func chartHTML(data WidgetData) string {
	val, _ := data["chart_html"].(string)
	return strings.ToLower(val)
}

type countingCache struct {
	renders atomic.Int32
	value   string
}

func (c *countingCache) GetOrRender(_ string, render func() (string, error)) (string, error) {
	if c.value != "" {
		return c.value, nil
	}
	html, err := render()
	if err != nil {
		return "", err
	}
	c.renders.Add(1)
	c.value = html
	return html, nil
}

func BenchmarkChartRenderCached(b *testing.B) {
	provider := NewEChartsProvider(ChartBar, WithChartCache(NewChartCache(time.Minute)))
	meta := sampleChartContext(WidgetBarChart, map[string]any{"series": weeklySeries()})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := provider.Fetch(context.Background(), meta); err != nil {
			b.Fatal(err)
		}
	}
}
