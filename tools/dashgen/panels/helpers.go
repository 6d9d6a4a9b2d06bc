// Package panels provides Grafana panel builders for effluent-watch metrics.
// Every panel queries the ${datasource} variable and scopes raw metrics to
// the effluent-watch job; recording rules are already scoped.
package panels

import (
	"fmt"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/cog"
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/grafana/grafana-foundation-sdk/go/prometheus"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// Job is the scrape job effluent-watch runs under.
const Job = "effluent-watch"

// Panel sizes on the 24-column grid.
const (
	StatWidth  = 6
	StatHeight = 4

	TSWidth  = 12
	TSHeight = 8

	FullWidth = 24
)

// Sel returns metric with the job matcher plus any extra matchers, e.g.
// Sel("ew_abnormal", `category="effluent"`).
func Sel(metric string, matchers ...string) string {
	all := append([]string{fmt.Sprintf("job=%q", Job)}, matchers...)
	return metric + "{" + strings.Join(all, ", ") + "}"
}

// Quantile returns a histogram_quantile over the 5m rate of histogram,
// aggregated by le and any extra labels.
func Quantile(q float64, histogram string, by ...string) string {
	labels := append([]string{"le"}, by...)
	return fmt.Sprintf("histogram_quantile(%.2f, sum(rate(%s[5m])) by (%s))",
		q, Sel(histogram+"_bucket"), strings.Join(labels, ", "))
}

// Target builds a Prometheus query target.
func Target(expr, legend, refID string) *prometheus.DataqueryBuilder {
	return prometheus.NewDataqueryBuilder().
		Expr(expr).
		LegendFormat(legend).
		RefId(refID)
}

// Graph returns a half-width line timeseries panel with the shared
// datasource, tooltip and palette. Callers add targets, unit and thresholds.
func Graph(title, description string) *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title(title).
		Description(description).
		Datasource(datasource()).
		Height(TSHeight).
		Span(TSWidth).
		FillOpacity(10).
		LineWidth(2).
		Tooltip(common.NewVizTooltipOptionsBuilder().
			Mode(common.TooltipDisplayModeMulti).
			Sort(common.SortOrderDescending)).
		Thresholds(Steps()).
		ColorScheme(dashboard.NewFieldColorBuilder().
			Mode(dashboard.FieldColorModeIdPaletteClassic)).
		DrawStyle(common.GraphDrawStyleLine)
}

// Single returns a stat panel for one query colored by its thresholds.
func Single(title, description, expr string) *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title(title).
		Description(description).
		Datasource(datasource()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(Target(expr, "", "A")).
		Thresholds(Steps()).
		ColorScheme(dashboard.NewFieldColorBuilder().
			Mode(dashboard.FieldColorModeIdThresholds)).
		GraphMode(common.BigValueGraphModeNone)
}

// Level is a threshold step: values at or above At are drawn in Color.
type Level struct {
	At    float64
	Color string
}

// Steps builds absolute thresholds on a green base.
func Steps(levels ...Level) cog.Builder[dashboard.ThresholdsConfig] {
	out := []dashboard.Threshold{{Color: "green"}}
	for _, l := range levels {
		out = append(out, dashboard.Threshold{Value: cog.ToPtr(l.At), Color: l.Color})
	}
	return dashboard.NewThresholdsConfigBuilder().
		Mode(dashboard.ThresholdsModeAbsolute).
		Steps(out)
}

// Warn returns green, yellow at warn and red at crit.
func Warn(warn, crit float64) cog.Builder[dashboard.ThresholdsConfig] {
	return Steps(Level{warn, "yellow"}, Level{crit, "red"})
}

// UpIsGreen returns red below one and green at one, for 0/1 health gauges.
func UpIsGreen() cog.Builder[dashboard.ThresholdsConfig] {
	return dashboard.NewThresholdsConfigBuilder().
		Mode(dashboard.ThresholdsModeAbsolute).
		Steps([]dashboard.Threshold{
			{Color: "red"},
			{Value: cog.ToPtr(1.0), Color: "green"},
		})
}

// Legend shows a bottom table legend with the given calculations.
func Legend(calcs ...string) *common.VizLegendOptionsBuilder {
	return common.NewVizLegendOptionsBuilder().
		DisplayMode(common.LegendDisplayModeTable).
		Placement(common.LegendPlacementBottom).
		Calcs(calcs)
}

func datasource() dashboard.DataSourceRef {
	return dashboard.DataSourceRef{
		Type: cog.ToPtr("prometheus"),
		Uid:  cog.ToPtr("${datasource}"),
	}
}
