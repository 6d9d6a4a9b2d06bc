// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/effluent-watch/tools/dashgen/panels"
)

// BuildOverview constructs the Effluent Watch Overview dashboard with all
// metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Effluent Watch Overview").
		Uid("ew-overview").
		Tags([]string{"ew", "effluent-watch", "wastewater"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Overview.
	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.LastCycleAge()).
		WithPanel(panels.UptimeStat()))

	// Row 2: Plant status.
	b.WithRow(dashboard.NewRowBuilder("Plant Status").
		WithPanel(panels.AbnormalByCategory()))

	// Row 3: Monitor.
	b.WithRow(dashboard.NewRowBuilder("Monitor").
		WithPanel(panels.CycleRate()).
		WithPanel(panels.CycleDuration()).
		WithPanel(panels.FetchErrors()).
		WithPanel(panels.ThresholdUpdates()).
		WithPanel(panels.NextPoll()))

	// Row 4: Alerts.
	b.WithRow(dashboard.NewRowBuilder("Alerts").
		WithPanel(panels.AlertsRate()).
		WithPanel(panels.NotificationLatency()).
		WithPanel(panels.AlertFeedLength()).
		WithPanel(panels.NotificationFailures()).
		WithPanel(panels.HistoryFailures()))

	// Row 5: Plant API and live stream.
	b.WithRow(dashboard.NewRowBuilder("Plant API").
		WithPanel(panels.UpstreamRequests()).
		WithPanel(panels.UpstreamLatency()).
		WithPanel(panels.StreamClients()).
		WithPanel(panels.StreamDropped()))

	// Row 6: HTTP.
	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
