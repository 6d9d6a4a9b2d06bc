package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// AlertsRate plots alerts raised per second by category.
func AlertsRate() *timeseries.PanelBuilder {
	return Graph("Alerts Raised Rate", "Alerts raised per second by category").
		WithTarget(Target(`ew:alerts_raised:rate5m`, "{{category}}", "A")).
		Legend(Legend("mean", "max"))
}

// AlertFeedLength shows how many records the live alert feed holds.
func AlertFeedLength() *stat.PanelBuilder {
	return Single("Alert Feed", "Records in the live alert feed", Sel("ew_alert_feed_length")).
		GraphMode(common.BigValueGraphModeArea)
}

// NotificationLatency plots p95 alert delivery latency.
func NotificationLatency() *timeseries.PanelBuilder {
	return Graph("Notification Latency (p95)", "95th percentile alert delivery latency across all sinks").
		WithTarget(Target(Quantile(0.95, "ew_notification_duration_seconds"), "p95", "A")).
		Unit("s").
		Thresholds(Warn(1, 5))
}

// NotificationFailures shows failed deliveries over 24h.
func NotificationFailures() *stat.PanelBuilder {
	return Single("Notification Failures (24h)", "Failed alert deliveries in the last 24 hours",
		`increase(`+Sel("ew_notification_failures_total")+`[24h])`).
		Thresholds(Warn(1, 5)).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}

// HistoryFailures shows alert history write failures over 24h.
func HistoryFailures() *stat.PanelBuilder {
	return Single("History Write Failures (24h)", "Raised alerts that could not be appended to the history log",
		`increase(`+Sel("ew_alert_history_failures_total")+`[24h])`).
		Thresholds(Warn(1, 10)).
		ColorMode(common.BigValueColorModeBackground)
}
