package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// AbnormalByCategory plots abnormal process sensors, effluent parameters and
// predictions in the latest report.
func AbnormalByCategory() *timeseries.PanelBuilder {
	return Graph("Abnormal Indicators",
		"Abnormal sensors, effluent parameters and predictions in the latest report").
		Span(FullWidth).
		WithTarget(Target(Sel("ew_abnormal"), "{{category}}", "A")).
		FillOpacity(20).
		Legend(Legend("last", "max")).
		Thresholds(Warn(1, 3))
}

// CycleRate plots evaluation cycles per second by trigger.
func CycleRate() *timeseries.PanelBuilder {
	return Graph("Evaluation Cycles", "Evaluation cycles per second by trigger").
		WithTarget(Target(`ew:cycles:rate5m`, "{{trigger}}", "A")).
		Unit("ops").
		Legend(Legend("mean", "max"))
}

// CycleDuration plots p50 and p95 fetch plus evaluate time.
func CycleDuration() *timeseries.PanelBuilder {
	return Graph("Cycle Duration", "Fetch plus evaluate duration percentiles").
		WithTarget(Target(Quantile(0.50, "ew_cycle_duration_seconds"), "p50", "A")).
		WithTarget(Target(Quantile(0.95, "ew_cycle_duration_seconds"), "p95", "B")).
		Unit("s").
		Legend(Legend("mean", "max"))
}

// FetchErrors plots failed snapshot fetches alongside malformed readings.
func FetchErrors() *timeseries.PanelBuilder {
	return Graph("Fetch Errors", "Failed snapshot fetches and malformed readings per second").
		WithTarget(Target(`ew:fetch_errors:rate5m`, "fetch errors", "A")).
		WithTarget(Target(`rate(`+Sel("ew_malformed_readings_total")+`[5m])`, "malformed readings", "B"))
}

// NextPoll shows seconds until the next scheduled poll.
func NextPoll() *stat.PanelBuilder {
	return Single("Next Poll", "Seconds until the next scheduled snapshot poll",
		Sel("ew_scheduler_next_poll_timestamp")+` - time()`).
		Unit("s")
}

// ThresholdUpdates plots operator threshold changes and failed saves.
func ThresholdUpdates() *timeseries.PanelBuilder {
	return Graph("Threshold Changes", "Threshold updates by category and failed saves over 1h").
		WithTarget(Target(
			`sum by (category) (increase(`+Sel("ew_threshold_updates_total")+`[1h]))`,
			"{{category}}", "A",
		)).
		WithTarget(Target(
			`increase(`+Sel("ew_threshold_persist_failures_total")+`[1h])`,
			"persist failures", "B",
		))
}
