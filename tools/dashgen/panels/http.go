package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// latencyQuantiles are the plotted HTTP latency percentiles with their ref IDs.
var latencyQuantiles = []struct {
	q      float64
	legend string
	refID  string
}{
	{0.50, "p50", "A"},
	{0.95, "p95", "B"},
	{0.99, "p99", "C"},
}

// RequestRate plots HTTP requests per second, total and per route. Health
// checks and scrapes are left out of the per-route series.
func RequestRate() *timeseries.PanelBuilder {
	return Graph("Request Rate", "HTTP requests per second, total and per route template").
		WithTarget(Target(`ew:http_requests:rate5m`, "total", "A")).
		WithTarget(Target(
			`sum by (path) (rate(`+Sel("ew_http_requests_total", `path!~"/healthz|/readyz|/metrics"`)+`[5m]))`,
			"{{path}}", "B",
		)).
		Unit("reqps").
		Legend(Legend("mean", "max"))
}

// LatencyPercentiles plots p50, p95 and p99 HTTP request latency.
func LatencyPercentiles() *timeseries.PanelBuilder {
	b := Graph("Latency Percentiles", "HTTP request duration percentiles")
	for _, lq := range latencyQuantiles {
		b = b.WithTarget(Target(Quantile(lq.q, "ew_http_request_duration_seconds"), lq.legend, lq.refID))
	}
	return b.
		Unit("s").
		Legend(Legend("mean", "max"))
}

// ErrorRate plots the 5xx share of requests. Threshold writes are broken out
// since a 503 there means a change was applied but not saved.
func ErrorRate() *timeseries.PanelBuilder {
	return Graph("Error Rate %", "HTTP 5xx error rate as percentage of total requests").
		Span(FullWidth).
		WithTarget(Target(`ew:http_errors:rate5m / ew:http_requests:rate5m * 100`, "error %", "A")).
		WithTarget(Target(
			`sum(rate(`+Sel("ew_http_requests_total", `method="PUT"`, `status="503"`)+`[5m])) / ew:http_requests:rate5m * 100`,
			"threshold writes not saved", "B",
		)).
		Unit("percent").
		Thresholds(Warn(1, 5)).
		ColorScheme(dashboard.NewFieldColorBuilder().Mode(dashboard.FieldColorModeIdThresholds))
}
