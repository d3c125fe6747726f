package dashboard

import (
	"time"

	"github.com/go-echarts/go-echarts/v2/types"
)

// Dashboard areas.
const (
	AreaMain    = "sales.dashboard.main"
	AreaSidebar = "sales.dashboard.sidebar"
	AreaFooter  = "sales.dashboard.footer"
)

var defaultAreaDefinitions = []WidgetAreaDefinition{
	{Code: AreaMain, Name: "Panel de ventas (principal)", Description: "Metric cards, charts and tables"},
	{Code: AreaSidebar, Name: "Panel de ventas (lateral)", Description: "Tasks and assistant"},
	{Code: AreaFooter, Name: "Panel de ventas (pie)", Description: "Secondary tables"},
}

var chartThemes = []string{
	string(types.ThemeWesteros),
	string(types.ThemeWalden),
	string(types.ThemeWonderland),
	string(types.ThemeChalk),
}

func metricSchema(extra map[string]any) map[string]any {
	props := map[string]any{
		"title": map[string]any{"type": "string"},
	}
	for k, v := range extra {
		props[k] = v
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
}

var defaultWidgetDefinitions = []WidgetDefinition{
	{
		Code:                 WidgetQuoteGoal,
		Name:                 "Daily Quote Goal",
		NameLocalized:        map[string]string{"es": "Meta Diaria de Cotizaciones"},
		Description:          "Quotes issued today against the daily goal",
		DescriptionLocalized: map[string]string{"es": "Cotizaciones del día contra la meta"},
		Category:             "metrics",
		Schema: metricSchema(map[string]any{
			"goal": map[string]any{"type": "integer", "minimum": 1, "default": 20},
		}),
	},
	{
		Code:                 WidgetExpiredQuotes,
		Name:                 "Expired Quotes",
		NameLocalized:        map[string]string{"es": "Cotizaciones Vencidas"},
		Description:          "Past quotes that expired, and those expiring today",
		DescriptionLocalized: map[string]string{"es": "Cotizaciones vencidas y las que vencen hoy"},
		Category:             "metrics",
		Schema:               metricSchema(nil),
	},
	{
		Code:          WidgetCustomers,
		Name:          "Customers",
		NameLocalized: map[string]string{"es": "Clientes"},
		Description:   "Assigned customers and those without a recent quote",
		Category:      "metrics",
		Schema:        metricSchema(nil),
	},
	{
		Code:                 WidgetPayingCustomers,
		Name:                 "New Clients",
		NameLocalized:        map[string]string{"es": "Clientes Nuevos"},
		Description:          "Invoiced customers against the monthly target",
		DescriptionLocalized: map[string]string{"es": "Clientes facturados contra la meta mensual"},
		Category:             "metrics",
		Schema: metricSchema(map[string]any{
			"target": map[string]any{"type": "integer", "minimum": 1, "default": 50},
		}),
	},
	{
		Code:          WidgetQuotesChart,
		Name:          "Quotes Chart",
		NameLocalized: map[string]string{"es": "Gráfica de cotizaciones"},
		Description:   "Daily quote amount or count",
		Category:      "charts",
		Schema:        salesChartSchema(),
	},
	{
		Code:          WidgetSectorChart,
		Name:          "Customers by Sector",
		NameLocalized: map[string]string{"es": "Clientes por sector"},
		Description:   "Customer share per segment",
		Category:      "charts",
		Schema: metricSchema(map[string]any{
			"theme": map[string]any{"type": "string", "enum": chartThemes},
		}),
	},
	{
		Code:          WidgetTable,
		Name:          "Data Table",
		NameLocalized: map[string]string{"es": "Tabla de datos"},
		Description:   "Searchable, sortable, paginated sales table",
		Category:      "tables",
		Schema: map[string]any{
			"type":     "object",
			"required": []string{"table"},
			"properties": map[string]any{
				"table": map[string]any{
					"type": "string",
					"enum": salesTableCodes,
				},
			},
			"additionalProperties": false,
		},
	},
	{
		Code:          WidgetTasks,
		Name:          "Pending Tasks",
		NameLocalized: map[string]string{"es": "Tareas Pendientes"},
		Description:   "First pending tasks of the salesperson",
		Category:      "activity",
		Schema: metricSchema(map[string]any{
			"limit": map[string]any{"type": "integer", "minimum": 1, "maximum": 20, "default": 3},
		}),
	},
	{
		Code:          WidgetChat,
		Name:          "Sales Assistant",
		NameLocalized: map[string]string{"es": "Asistente de Ventas"},
		Description:   "Keyword driven sales assistant",
		Category:      "assistant",
		Schema: metricSchema(map[string]any{
			"greeting": map[string]any{"type": "string"},
		}),
	},
	{
		Code:          WidgetBarChart,
		Name:          "Bar Chart",
		NameLocalized: map[string]string{"es": "Gráfica de barras"},
		Description:   "Configurable bar chart.",
		Category:      "charts",
		Schema:        chartConfigSchema(ChartBar),
	},
	{
		Code:          WidgetLineChart,
		Name:          "Line Chart",
		NameLocalized: map[string]string{"es": "Gráfica de líneas"},
		Description:   "Configurable line chart.",
		Category:      "charts",
		Schema:        chartConfigSchema(ChartLine),
	},
	{
		Code:          WidgetPieChart,
		Name:          "Pie Chart",
		NameLocalized: map[string]string{"es": "Gráfica circular"},
		Description:   "Configurable pie chart.",
		Category:      "charts",
		Schema:        chartConfigSchema(ChartPie),
	},
	{
		Code:          WidgetGaugeChart,
		Name:          "Gauge Chart",
		NameLocalized: map[string]string{"es": "Indicador de meta"},
		Description:   "Single-value gauge, optionally as progress toward a goal.",
		Category:      "charts",
		Schema:        chartConfigSchema(ChartGauge),
	},
}

func chartSeriesSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"name", "data"},
		"properties": map[string]any{
			"name": map[string]any{
				"type":    "string",
				"default": "Series",
			},
			"data": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"oneOf": []map[string]any{
						{"type": "number"},
						{
							"type":     "object",
							"required": []string{"value"},
							"properties": map[string]any{
								"name":  map[string]any{"type": "string"},
								"value": map[string]any{"type": "number"},
							},
						},
					},
				},
			},
		},
	}
}

func chartConfigSchema(kind ChartKind) map[string]any {
	props := map[string]any{
		"title": map[string]any{
			"type":    "string",
			"default": "Chart",
		},
		"subtitle": map[string]any{
			"type": "string",
		},
		"series": map[string]any{
			"type":     "array",
			"items":    chartSeriesSchema(),
			"minItems": 1,
		},
		"footer_note": map[string]any{
			"type": "string",
		},
		"theme": map[string]any{
			"type": "string",
			"enum": chartThemes,
		},
		"dynamic": map[string]any{
			"type":    "boolean",
			"default": false,
		},
		"refresh_endpoint": map[string]any{
			"type": "string",
		},
		"show_chart_title": map[string]any{
			"type":    "boolean",
			"default": false,
		},
	}
	switch kind {
	case ChartGauge:
		props["goal"] = map[string]any{"type": "number", "exclusiveMinimum": 0}
	case ChartBar, ChartLine:
		props["x_axis"] = map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "string",
			},
			"default": []string{"Lun", "Mar", "Mié", "Jue", "Vie", "Sáb", "Dom"},
		}
	}
	return map[string]any{
		"type":       "object",
		"required":   []string{"series"},
		"properties": props,
	}
}

func salesChartSchema() map[string]any {
	metrics := []string{"amount", "count"}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{"type": "string"},
			"period": map[string]any{
				"type":    "string",
				"enum":    []string{"7d", "14d", "30d"},
				"default": "7d",
			},
			"metric": map[string]any{
				"type":    "string",
				"enum":    metrics,
				"default": "amount",
			},
			"comparison_metric": map[string]any{
				"type": "string",
				"enum": metrics,
			},
			"dynamic": map[string]any{
				"type":    "boolean",
				"default": false,
			},
			"refresh_endpoint": map[string]any{
				"type": "string",
			},
			"theme": map[string]any{
				"type": "string",
				"enum": chartThemes,
			},
		},
		"additionalProperties": false,
	}
}

func tableSeed(area, code string) AddWidgetRequest {
	return AddWidgetRequest{
		DefinitionID:  WidgetTable,
		AreaCode:      area,
		Configuration: map[string]any{"table": code},
	}
}

var defaultSeedConfigs = []AddWidgetRequest{
	{DefinitionID: WidgetQuoteGoal, AreaCode: AreaMain, Configuration: map[string]any{}},
	{DefinitionID: WidgetExpiredQuotes, AreaCode: AreaMain, Configuration: map[string]any{}},
	{DefinitionID: WidgetPayingCustomers, AreaCode: AreaMain, Configuration: map[string]any{}},
	{DefinitionID: WidgetQuotesChart, AreaCode: AreaMain, Configuration: map[string]any{"period": "7d", "metric": "amount"}},
	tableSeed(AreaMain, TableQuotations),
	{DefinitionID: WidgetTasks, AreaCode: AreaSidebar, Configuration: map[string]any{"limit": 3}},
	{DefinitionID: WidgetChat, AreaCode: AreaSidebar, Configuration: map[string]any{}},
	{DefinitionID: WidgetSectorChart, AreaCode: AreaSidebar, Configuration: map[string]any{}},
	tableSeed(AreaFooter, TableExpiredQuotations),
	tableSeed(AreaFooter, TableSalesOrders),
}

// KnownArea reports whether code names one of the dashboard areas.
func KnownArea(code string) bool {
	for _, area := range defaultAreaDefinitions {
		if area.Code == code {
			return true
		}
	}
	return false
}

// DefaultAreaDefinitions returns copies of built-in area definitions.
func DefaultAreaDefinitions() []WidgetAreaDefinition {
	out := make([]WidgetAreaDefinition, len(defaultAreaDefinitions))
	copy(out, defaultAreaDefinitions)
	return out
}

// DefaultWidgetDefinitions returns copies of built-in widget definitions.
func DefaultWidgetDefinitions() []WidgetDefinition {
	out := make([]WidgetDefinition, len(defaultWidgetDefinitions))
	copy(out, defaultWidgetDefinitions)
	return out
}

// DefaultSeedWidgets returns starter widget configurations.
func DefaultSeedWidgets() []AddWidgetRequest {
	out := make([]AddWidgetRequest, len(defaultSeedConfigs))
	for i, cfg := range defaultSeedConfigs {
		copyCfg := cfg
		if cfg.StartAt != nil {
			start := *cfg.StartAt
			copyCfg.StartAt = &start
		}
		if cfg.EndAt != nil {
			end := *cfg.EndAt
			copyCfg.EndAt = &end
		}
		copyCfg.Configuration = cloneConfig(cfg.Configuration)
		out[i] = copyCfg
	}
	return out
}

// DefaultWidgetVisibility returns a permissive visibility configuration for seeds.
func DefaultWidgetVisibility() WidgetVisibility {
	now := time.Now().UTC()
	return WidgetVisibility{
		StartAt: &now,
	}
}

func cloneConfig(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
