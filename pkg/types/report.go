package domain

import "time"

// SensorStatus is the verdict for one zone/stage/sensor.
type SensorStatus struct {
	Stage     Stage     `json:"stage"`
	Sensor    Sensor    `json:"sensor"`
	Value     Reading   `json:"value"`
	Threshold Threshold `json:"threshold"`
	Status    Status    `json:"status"`
}

// ZoneStatus holds every sensor verdict for one zone, in stage order.
type ZoneStatus struct {
	Zone    string         `json:"zone"`
	Sensors []SensorStatus `json:"sensors"`
}

// Lookup returns the verdict for a stage/sensor pair.
func (z *ZoneStatus) Lookup(stage Stage, sensor Sensor) (SensorStatus, bool) {
	for _, s := range z.Sensors {
		if s.Stage == stage && s.Sensor == sensor {
			return s, true
		}
	}
	return SensorStatus{}, false
}

// ParameterStatus is the verdict for one effluent parameter, measured or
// predicted.
type ParameterStatus struct {
	Parameter Parameter `json:"parameter"`
	Value     Reading   `json:"value"`
	Current   Reading   `json:"current"`
	Threshold Threshold `json:"threshold"`
	Status    Status    `json:"status"`
}

// StatusReport is the evaluated output of one cycle. Only the latest report is
// kept.
type StatusReport struct {
	EvaluatedAt time.Time         `json:"evaluated_at"`
	Horizon     time.Duration     `json:"horizon"`
	Zones       []ZoneStatus      `json:"zones"`
	Effluent    []ParameterStatus `json:"effluent"`
	Prediction  []ParameterStatus `json:"prediction"`
	Flows       *Flows            `json:"flows,omitempty"`
}

// AbnormalCount returns how many entries per category are abnormal.
func (r *StatusReport) AbnormalCount() map[Category]int {
	counts := map[Category]int{
		CategoryProcess:    0,
		CategoryEffluent:   0,
		CategoryPrediction: 0,
	}
	for i := range r.Zones {
		for _, s := range r.Zones[i].Sensors {
			if s.Status == StatusAbnormal {
				counts[CategoryProcess]++
			}
		}
	}
	for _, p := range r.Effluent {
		if p.Status == StatusAbnormal {
			counts[CategoryEffluent]++
		}
	}
	for _, p := range r.Prediction {
		if p.Status == StatusAbnormal {
			counts[CategoryPrediction]++
		}
	}
	return counts
}
