// Package upstream fetches plant snapshots from the monitoring REST API and
// provides a simulated plant for local development.
package upstream

import (
	"strings"
	"time"

	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

// Endpoint paths served by the plant monitoring API.
const (
	ProcessStatusPath = "/api/monitoring/process-status"
	ZoneDataPath      = "/api/monitoring/zone-data"
	TMSPath           = "/api/monitoring/tms"
	ForecastPath      = "/api/prediction/forecast"
)

// FlowPayload is one metering point on the wire.
type FlowPayload struct {
	Total       domain.Reading `json:"total"`
	Accumulated domain.Reading `json:"accumulated"`
}

func (p FlowPayload) toFlow() domain.Flow {
	return domain.Flow{Daily: p.Total, Accumulated: p.Accumulated}
}

// ProcessStatusResponse is the body of GET /api/monitoring/process-status.
type ProcessStatusResponse struct {
	Timestamp        string      `json:"timestamp"`
	Inflow           FlowPayload `json:"inflow"`
	BiologicalInflow FlowPayload `json:"biologicalInflow"`
	Effluent         FlowPayload `json:"effluent"`
}

// Flows converts the payload, or returns nil for a nil response.
func (r *ProcessStatusResponse) Flows() *domain.Flows {
	if r == nil {
		return nil
	}
	return &domain.Flows{
		Inflow:           r.Inflow.toFlow(),
		BioreactorInflow: r.BiologicalInflow.toFlow(),
		Effluent:         r.Effluent.toFlow(),
	}
}

// StagePayload is one stage's readings on the wire. Unused sensors are null.
type StagePayload struct {
	ORP  domain.Reading `json:"orp"`
	PH   domain.Reading `json:"ph"`
	DO   domain.Reading `json:"do,omitzero"`
	MLSS domain.Reading `json:"mlss,omitzero"`
}

func (p StagePayload) reading(s domain.Sensor) domain.Reading {
	switch s {
	case domain.SensorORP:
		return p.ORP
	case domain.SensorPH:
		return p.PH
	case domain.SensorDO:
		return p.DO
	case domain.SensorMLSS:
		return p.MLSS
	default:
		return domain.NoData()
	}
}

func (p StagePayload) toReadings(stage domain.Stage) domain.StageReadings {
	readings := make(domain.StageReadings, len(stage.Sensors()))
	for _, s := range stage.Sensors() {
		readings[s] = p.reading(s)
	}
	return readings
}

// ZonePayload is one zone on the wire.
type ZonePayload struct {
	Zone      string       `json:"zone"`
	Anaerobic StagePayload `json:"anaerobic"`
	Anoxic    StagePayload `json:"anoxic"`
	Aerobic   StagePayload `json:"aerobic"`
}

// ZoneDataResponse is the body of GET /api/monitoring/zone-data.
type ZoneDataResponse struct {
	Timestamp string        `json:"timestamp"`
	Zones     []ZonePayload `json:"zones"`
}

// TMSValue is one measured effluent parameter.
type TMSValue struct {
	Value domain.Reading `json:"value"`
	Unit  string         `json:"unit,omitempty"`
}

// TMSResponse is the body of GET /api/monitoring/tms, keyed by parameter
// label (TOC, SS, TN, TP).
type TMSResponse struct {
	Timestamp  string              `json:"timestamp"`
	Parameters map[string]TMSValue `json:"parameters"`
}

// ForecastEntry is one predicted effluent parameter.
type ForecastEntry struct {
	Parameter string         `json:"parameter"`
	Current   domain.Reading `json:"current"`
	Predicted domain.Reading `json:"predicted"`
	Unit      string         `json:"unit,omitempty"`
}

// ForecastResponse is the body of GET /api/prediction/forecast.
type ForecastResponse struct {
	Timestamp    string          `json:"timestamp"`
	ForecastTime string          `json:"forecastTime"`
	Predictions  []ForecastEntry `json:"predictions"`
}

// Horizon returns forecastTime minus timestamp, or false when either is
// missing or the difference is not positive.
func (f *ForecastResponse) Horizon() (time.Duration, bool) {
	if f == nil {
		return 0, false
	}
	from, ok := parseTimestamp(f.Timestamp)
	if !ok {
		return 0, false
	}
	to, ok := parseTimestamp(f.ForecastTime)
	if !ok {
		return 0, false
	}
	d := to.Sub(from)
	if d <= 0 {
		return 0, false
	}
	return d, true
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// BuildSnapshot assembles a domain snapshot from the three upstream payloads.
// forecast may be nil; parameters without a forecast entry fall back to the
// measured value for both current and predicted.
func BuildSnapshot(
	zones *ZoneDataResponse,
	tms *TMSResponse,
	forecast *ForecastResponse,
	defaultHorizon time.Duration,
	fetchedAt time.Time,
) *domain.Snapshot {
	snap := &domain.Snapshot{
		Effluent:   make(domain.EffluentSnapshot, len(domain.Parameters)),
		Prediction: make(domain.PredictionSnapshot, len(domain.Parameters)),
		Horizon:    defaultHorizon,
		FetchedAt:  fetchedAt,
	}

	if zones != nil {
		snap.Zones = make([]domain.ZoneSnapshot, 0, len(zones.Zones))
		for _, z := range zones.Zones {
			snap.Zones = append(snap.Zones, domain.ZoneSnapshot{
				Zone:      z.Zone,
				Anaerobic: z.Anaerobic.toReadings(domain.StageAnaerobic),
				Anoxic:    z.Anoxic.toReadings(domain.StageAnoxic),
				Aerobic:   z.Aerobic.toReadings(domain.StageAerobic),
			})
		}
	}

	if tms != nil {
		for label, v := range tms.Parameters {
			if p, ok := domain.ParseParameter(label); ok {
				snap.Effluent[p] = v.Value
			}
		}
	}

	if forecast != nil {
		for _, e := range forecast.Predictions {
			if p, ok := domain.ParseParameter(e.Parameter); ok {
				snap.Prediction[p] = domain.PredictionReading{
					Current:   e.Current,
					Predicted: e.Predicted,
				}
			}
		}
		if h, ok := forecast.Horizon(); ok {
			snap.Horizon = h
		}
	}

	for _, p := range domain.Parameters {
		if _, ok := snap.Prediction[p]; ok {
			continue
		}
		measured := snap.Effluent[p]
		snap.Prediction[p] = domain.PredictionReading{Current: measured, Predicted: measured}
	}

	return snap
}
