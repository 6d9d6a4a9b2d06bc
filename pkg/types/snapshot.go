package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// NoDataPlaceholder is the literal upstream systems use for a missing reading.
const NoDataPlaceholder = "-"

// Reading is a single raw sensor value as delivered upstream: a number, a
// numeric string, the "-" placeholder, or nothing at all. The zero value is
// "no data".
type Reading struct {
	raw any
}

// Value returns a Reading holding a number.
func Value(v float64) Reading {
	return Reading{raw: v}
}

// RawReading wraps an arbitrary decoded value.
func RawReading(v any) Reading {
	return Reading{raw: v}
}

// NoData returns the "no data" Reading.
func NoData() Reading {
	return Reading{}
}

// Float parses the reading. ok is false for absent values, the placeholder,
// non-numeric strings and non-finite numbers.
func (r Reading) Float() (float64, bool) {
	var f float64
	switch v := r.raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(v)
		if s == "" || s == NoDataPlaceholder {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// IsNoData reports whether the reading carries no usable value.
func (r Reading) IsNoData() bool {
	_, ok := r.Float()
	return !ok
}

// Malformed reports whether the reading held something that was neither a
// number nor an accepted "no data" marker.
func (r Reading) Malformed() bool {
	switch v := r.raw.(type) {
	case nil:
		return false
	case string:
		s := strings.TrimSpace(v)
		if s == "" || s == NoDataPlaceholder {
			return false
		}
	}
	return r.IsNoData()
}

// MarshalJSON encodes usable readings as numbers and everything else as null.
func (r Reading) MarshalJSON() ([]byte, error) {
	f, ok := r.Float()
	if !ok {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// UnmarshalJSON keeps the decoded value as-is; parsing happens on use.
func (r *Reading) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	r.raw = v
	return nil
}

// StageReadings holds one stage's sensor values.
type StageReadings map[Sensor]Reading

// ZoneSnapshot is one treatment zone's current readings.
type ZoneSnapshot struct {
	Zone      string        `json:"zone"`
	Anaerobic StageReadings `json:"anaerobic"`
	Anoxic    StageReadings `json:"anoxic"`
	Aerobic   StageReadings `json:"aerobic"`
}

// Stage returns the readings for the given stage.
func (z *ZoneSnapshot) Stage(s Stage) StageReadings {
	switch s {
	case StageAnaerobic:
		return z.Anaerobic
	case StageAnoxic:
		return z.Anoxic
	case StageAerobic:
		return z.Aerobic
	default:
		return nil
	}
}

// Reading returns the value for a stage/sensor pair, "no data" if absent.
func (z *ZoneSnapshot) Reading(s Stage, sensor Sensor) Reading {
	return z.Stage(s)[sensor]
}

// EffluentSnapshot holds the measured (TMS) value per effluent parameter.
type EffluentSnapshot map[Parameter]Reading

// PredictionReading is a current/predicted pair for one parameter.
type PredictionReading struct {
	Current   Reading `json:"current"`
	Predicted Reading `json:"predicted"`
}

// PredictionSnapshot holds the forecast per effluent parameter.
type PredictionSnapshot map[Parameter]PredictionReading

// FlowUnit is the unit of every plant flow volume.
const FlowUnit = "㎥"

// Flow is one metering point: the daily flow rate (㎥/day) and the volume
// accumulated since midnight (㎥).
type Flow struct {
	Daily       Reading `json:"daily"`
	Accumulated Reading `json:"accumulated"`
}

// Flows is the plant-wide process status. It is informational only and is
// never classified.
type Flows struct {
	Inflow           Flow `json:"inflow"`
	BioreactorInflow Flow `json:"bioreactor_inflow"`
	Effluent         Flow `json:"effluent"`
}

// FlowPoint names a metering point of Flows.
type FlowPoint string

// FlowPoint constants in plant order.
const (
	FlowInflow           FlowPoint = "inflow"
	FlowBioreactorInflow FlowPoint = "bioreactor_inflow"
	FlowEffluent         FlowPoint = "effluent"
)

// FlowPoints lists metering points from plant inlet to outfall.
var FlowPoints = []FlowPoint{FlowInflow, FlowBioreactorInflow, FlowEffluent}

// DisplayName returns the operator-facing label.
func (p FlowPoint) DisplayName() string {
	switch p {
	case FlowInflow:
		return "유입 하수량"
	case FlowBioreactorInflow:
		return "생물반응조 유입량"
	case FlowEffluent:
		return "방류 유량"
	default:
		return string(p)
	}
}

// Point returns the flow at p.
func (f *Flows) Point(p FlowPoint) Flow {
	switch p {
	case FlowInflow:
		return f.Inflow
	case FlowBioreactorInflow:
		return f.BioreactorInflow
	case FlowEffluent:
		return f.Effluent
	default:
		return Flow{}
	}
}

// Snapshot is everything the evaluator needs for one cycle. Flows is nil when
// the plant did not report process status.
type Snapshot struct {
	Zones      []ZoneSnapshot     `json:"zones"`
	Effluent   EffluentSnapshot   `json:"effluent"`
	Prediction PredictionSnapshot `json:"prediction"`
	Flows      *Flows             `json:"flows,omitempty"`
	Horizon    time.Duration      `json:"horizon"`
	FetchedAt  time.Time          `json:"fetched_at"`
}
