package engine

import (
	"time"

	"github.com/donaldgifford/effluent-watch/pkg/status"
	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

// Evaluate classifies every monitored quantity in snap against th. It has no
// side effects: identical inputs always produce identical reports.
//
// Zone order is preserved and every stage-appropriate sensor appears in the
// output, whether or not it has data. Effluent parameters are classified
// twice, once for the measured value and once for the predicted value, both
// against the same effluent threshold. Plant flows are copied through
// unclassified.
func Evaluate(snap *domain.Snapshot, th *domain.Thresholds, now time.Time) *domain.StatusReport {
	report := &domain.StatusReport{
		EvaluatedAt: now,
		Horizon:     snap.Horizon,
		Zones:       make([]domain.ZoneStatus, 0, len(snap.Zones)),
		Effluent:    make([]domain.ParameterStatus, 0, len(domain.Parameters)),
		Prediction:  make([]domain.ParameterStatus, 0, len(domain.Parameters)),
	}

	if snap.Flows != nil {
		flows := *snap.Flows
		report.Flows = &flows
	}

	for i := range snap.Zones {
		report.Zones = append(report.Zones, evaluateZone(&snap.Zones[i], th.Process))
	}

	for _, p := range domain.Parameters {
		t := th.Effluent[p]

		measured := snap.Effluent[p]
		report.Effluent = append(report.Effluent, domain.ParameterStatus{
			Parameter: p,
			Value:     measured,
			Threshold: t,
			Status:    status.ClassifyEffluent(t, measured),
		})

		pred := snap.Prediction[p]
		report.Prediction = append(report.Prediction, domain.ParameterStatus{
			Parameter: p,
			Value:     pred.Predicted,
			Current:   pred.Current,
			Threshold: t,
			Status:    status.ClassifyEffluent(t, pred.Predicted),
		})
	}

	return report
}

func evaluateZone(z *domain.ZoneSnapshot, process domain.ProcessThresholds) domain.ZoneStatus {
	zs := domain.ZoneStatus{Zone: z.Zone}
	for _, stage := range domain.Stages {
		for _, sensor := range stage.Sensors() {
			t, _ := process.Lookup(stage, sensor)
			v := z.Reading(stage, sensor)
			zs.Sensors = append(zs.Sensors, domain.SensorStatus{
				Stage:     stage,
				Sensor:    sensor,
				Value:     v,
				Threshold: t,
				Status:    status.ClassifyProcess(t, v),
			})
		}
	}
	return zs
}
