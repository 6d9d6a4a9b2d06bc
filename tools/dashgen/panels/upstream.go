package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// UpstreamRequests plots plant API requests by endpoint and outcome.
func UpstreamRequests() *timeseries.PanelBuilder {
	return Graph("Plant API Requests", "Requests to the plant data API per second by endpoint and outcome").
		WithTarget(Target(
			`sum by (endpoint, outcome) (rate(`+Sel("ew_upstream_requests_total")+`[5m]))`,
			"{{endpoint}} {{outcome}}", "A",
		)).
		Unit("reqps").
		Legend(Legend("mean", "max"))
}

// UpstreamLatency plots p95 plant API latency per endpoint. The process
// status endpoint is optional, so a gap there alone is not an outage.
func UpstreamLatency() *timeseries.PanelBuilder {
	return Graph("Plant API Latency (p95)", "95th percentile plant API latency per endpoint").
		WithTarget(Target(Quantile(0.95, "ew_upstream_request_duration_seconds", "endpoint"), "{{endpoint}}", "A")).
		Unit("s").
		Thresholds(Warn(2, 8))
}

// StreamClients shows connected websocket monitoring clients.
func StreamClients() *stat.PanelBuilder {
	return Single("Stream Clients", "Connected websocket monitoring clients", Sel("ew_stream_clients")).
		GraphMode(common.BigValueGraphModeArea)
}

// StreamDropped shows frames dropped for slow clients over 1h.
func StreamDropped() *stat.PanelBuilder {
	return Single("Dropped Frames (1h)", "Frames dropped because a stream client fell behind",
		`increase(`+Sel("ew_stream_dropped_total")+`[1h])`).
		Thresholds(Warn(1, 50)).
		ColorMode(common.BigValueColorModeBackground)
}
