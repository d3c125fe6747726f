package dashboard

import (
	"os"
	"strings"
)

const (
	// DefaultEChartsAssetsHost is where chart pages load the ECharts runtime.
	DefaultEChartsAssetsHost = "https://cdn.jsdelivr.net/npm/echarts@5/dist/"
	envEChartsCDN            = "SALESBOARD_ECHARTS_CDN"
)

// EChartsAssetsHost returns the assets host, honoring SALESBOARD_ECHARTS_CDN.
func EChartsAssetsHost() string {
	if host := strings.TrimSpace(os.Getenv(envEChartsCDN)); host != "" {
		return ensureTrailingSlash(host)
	}
	return DefaultEChartsAssetsHost
}

func ensureTrailingSlash(value string) string {
	if value == "" || strings.HasSuffix(value, "/") {
		return value
	}
	return value + "/"
}
