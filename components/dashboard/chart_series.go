package dashboard

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ChartSeries is one legend entry of a chart.
type ChartSeries struct {
	Name   string
	Points []ChartPoint
}

// ChartPoint is a value with an optional label (pie slice, axis category).
type ChartPoint struct {
	Label string
	Value float64
}

// parseChartSeries reads the "series" configuration key. Series without
// points are skipped.
func parseChartSeries(v any) []ChartSeries {
	var items []map[string]any
	switch val := v.(type) {
	case []map[string]any:
		items = val
	case []any:
		for _, item := range val {
			if m, ok := item.(map[string]any); ok {
				items = append(items, m)
			}
		}
	}
	out := make([]ChartSeries, 0, len(items))
	for _, item := range items {
		series := ChartSeries{
			Name:   stringValue(item["name"], "Serie"),
			Points: parseChartPoints(item["data"]),
		}
		if len(series.Points) > 0 {
			out = append(out, series)
		}
	}
	return out
}

func parseChartPoints(v any) []ChartPoint {
	var raw []any
	switch val := v.(type) {
	case []any:
		raw = val
	case []float64:
		for _, f := range val {
			raw = append(raw, f)
		}
	case []int:
		for _, n := range val {
			raw = append(raw, n)
		}
	case []map[string]any:
		for _, m := range val {
			raw = append(raw, m)
		}
	default:
		return nil
	}
	points := make([]ChartPoint, 0, len(raw))
	for _, item := range raw {
		if point, ok := toChartPoint(item); ok {
			points = append(points, point)
		}
	}
	return points
}

func toChartPoint(v any) (ChartPoint, bool) {
	switch val := v.(type) {
	case map[string]any:
		return ChartPoint{Label: stringValue(val["name"], ""), Value: float64Value(val["value"])}, true
	case float64, float32, int, int64, json.Number:
		return ChartPoint{Value: float64Value(val)}, true
	}
	return ChartPoint{}, false
}

// inferredAxisLabels takes point labels from the longest series, numbering
// the unlabeled ones.
func inferredAxisLabels(series []ChartSeries) []string {
	var longest []ChartPoint
	for _, s := range series {
		if len(s.Points) > len(longest) {
			longest = s.Points
		}
	}
	if longest == nil {
		return nil
	}
	labels := make([]string, len(longest))
	for i, point := range longest {
		labels[i] = point.Label
		if labels[i] == "" {
			labels[i] = fmt.Sprintf("Item %d", i+1)
		}
	}
	return labels
}

func stringSliceValue(v any) []string {
	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...)
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func stringValue(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func float64Value(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case json.Number:
		f, _ := val.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f
	}
	return 0
}

func boolValue(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return strings.EqualFold(val, "true")
	case int:
		return val != 0
	case int64:
		return val != 0
	}
	return false
}
