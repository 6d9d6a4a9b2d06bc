package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/donaldgifford/effluent-watch/pkg/numfmt"
	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printStatusReport(w io.Writer, r *domain.StatusReport, onlyAbnormal bool) error {
	counts := r.AbnormalCount()

	tw := newTabWriter(w)
	tw.writef("Evaluated:\t%s\n", r.EvaluatedAt.Format(domain.TimestampLayout))
	tw.writef("Horizon:\t%s\n", r.Horizon)
	tw.writef("Abnormal:\tprocess %d, effluent %d, prediction %d\n",
		counts[domain.CategoryProcess], counts[domain.CategoryEffluent], counts[domain.CategoryPrediction])
	tw.writef("\n")

	// Flows are never abnormal, so they only show in the full view.
	if r.Flows != nil && !onlyAbnormal {
		tw.writef("FLOW\tDAILY (%s/일)\tTODAY (%s)\n", domain.FlowUnit, domain.FlowUnit)
		for _, p := range domain.FlowPoints {
			f := r.Flows.Point(p)
			tw.writef("%s\t%s\t%s\n",
				p.DisplayName(),
				numfmt.Reading(f.Daily, numfmt.Large),
				numfmt.Reading(f.Accumulated, numfmt.Accumulated),
			)
		}
		tw.writef("\n")
	}

	tw.writef("ZONE\tSTAGE\tSENSOR\tVALUE\tUPPER\tLOWER\tSTATUS\n")
	for i := range r.Zones {
		z := &r.Zones[i]
		for _, s := range z.Sensors {
			if onlyAbnormal && s.Status != domain.StatusAbnormal {
				continue
			}
			tw.writef("%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				z.Zone,
				s.Stage.DisplayName(),
				s.Sensor.DisplayName(),
				numfmt.Reading(s.Value, numfmt.Sensor),
				numfmt.Bound(s.Threshold.Upper, numfmt.Sensor),
				numfmt.Bound(s.Threshold.Lower, numfmt.Sensor),
				s.Status,
			)
		}
	}
	tw.writef("\n")

	tw.writef("EFFLUENT\tMEASURED\tPREDICTED\tUPPER\tSTATUS\tFORECAST\n")
	predicted := make(map[domain.Parameter]domain.ParameterStatus, len(r.Prediction))
	for _, p := range r.Prediction {
		predicted[p.Parameter] = p
	}
	for _, e := range r.Effluent {
		p := predicted[e.Parameter]
		if onlyAbnormal && e.Status != domain.StatusAbnormal && p.Status != domain.StatusAbnormal {
			continue
		}
		tw.writef("%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Parameter.DisplayName(),
			numfmt.Reading(e.Value, numfmt.OneDecimal),
			numfmt.Reading(p.Value, numfmt.OneDecimal),
			numfmt.Bound(e.Threshold.Upper, numfmt.OneDecimal),
			e.Status,
			statusOrPlaceholder(p.Status),
		)
	}
	return tw.finish()
}

func printAlertsTable(w io.Writer, alerts []domain.AlertRecord) error {
	tw := newTabWriter(w)
	tw.writef("TIME\tCATEGORY\tKEY\tMESSAGE\n")
	for i := range alerts {
		a := &alerts[i]
		tw.writef("%s\t%s\t%s\t%s\n",
			a.FormattedTime(),
			a.Category,
			a.Key,
			truncate(a.Message, 60),
		)
	}
	return tw.finish()
}

func printThresholds(w io.Writer, th *domain.Thresholds) error {
	tw := newTabWriter(w)
	tw.writef("STAGE\tSENSOR\tUPPER\tLOWER\n")
	for _, stage := range domain.Stages {
		for _, sensor := range stage.Sensors() {
			t, ok := th.Process.Lookup(stage, sensor)
			if !ok {
				continue
			}
			tw.writef("%s\t%s\t%s\t%s\n",
				stage.DisplayName(),
				sensor.DisplayName(),
				numfmt.Bound(t.Upper, numfmt.Sensor),
				numfmt.Bound(t.Lower, numfmt.Sensor),
			)
		}
	}
	tw.writef("\n")

	tw.writef("PARAMETER\tUPPER\tLOWER\tUNIT\n")
	for _, p := range domain.Parameters {
		t, ok := th.Effluent[p]
		if !ok {
			continue
		}
		tw.writef("%s\t%s\t%s\t%s\n",
			p.DisplayName(),
			numfmt.Bound(t.Upper, numfmt.OneDecimal),
			numfmt.Bound(t.Lower, numfmt.OneDecimal),
			domain.EffluentUnit,
		)
	}

	if th.UpdatedBy != "" {
		tw.writef("\nUpdated:\t%s by %s\n", th.UpdatedAt.Format(domain.TimestampLayout), th.UpdatedBy)
	}
	return tw.finish()
}

func statusOrPlaceholder(s domain.Status) string {
	if s == "" {
		return numfmt.Placeholder
	}
	return string(s)
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
