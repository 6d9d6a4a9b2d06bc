package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
)

// HealthzStat shows the /healthz gauge.
func HealthzStat() *stat.PanelBuilder {
	return Single("Healthz", "Health check status (1 = ok, 0 = failing)", `ew_healthz_up`).
		Thresholds(UpIsGreen()).
		ColorMode(common.BigValueColorModeBackground).
		TextMode(common.BigValueTextModeValue)
}

// ReadyzStat shows the /readyz gauge.
func ReadyzStat() *stat.PanelBuilder {
	return Single("Readyz",
		"Readiness check status (1 = first report evaluated and store reachable)",
		`ew_readyz_up`).
		Thresholds(UpIsGreen()).
		ColorMode(common.BigValueColorModeBackground).
		TextMode(common.BigValueTextModeValue)
}

// LastCycleAge shows how long ago the last evaluation cycle completed.
// Anything past two poll intervals means operators see stale readings.
func LastCycleAge() *stat.PanelBuilder {
	return Single("Last Cycle", "Seconds since the last completed evaluation cycle",
		`time() - `+Sel("ew_last_cycle_timestamp")).
		Unit("s").
		Thresholds(Warn(30, 120)).
		ColorMode(common.BigValueColorModeBackground)
}

// UptimeStat shows process uptime.
func UptimeStat() *stat.PanelBuilder {
	return Single("Uptime", "Time since process start",
		`time() - `+Sel("process_start_time_seconds")).
		Unit("s")
}
