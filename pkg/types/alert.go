package domain

import (
	"fmt"
	"time"
)

// SeverityAbnormal is the only severity the alert engine raises.
const SeverityAbnormal = "abnormal"

// TimestampLayout is how alert timestamps are rendered to operators.
const TimestampLayout = "2006-01-02 15:04:05"

// AlertKey identifies one monitored quantity. Only the fields relevant to
// Kind are set, so keys of different categories never collide.
type AlertKey struct {
	Kind      Category  `json:"kind"`
	Zone      string    `json:"zone,omitempty"`
	Stage     Stage     `json:"stage,omitempty"`
	Sensor    Sensor    `json:"sensor,omitempty"`
	Parameter Parameter `json:"parameter,omitempty"`
}

// ProcessKey builds the key for a zone/stage/sensor.
func ProcessKey(zone string, stage Stage, sensor Sensor) AlertKey {
	return AlertKey{Kind: CategoryProcess, Zone: zone, Stage: stage, Sensor: sensor}
}

// EffluentKey builds the key for a measured effluent parameter.
func EffluentKey(p Parameter) AlertKey {
	return AlertKey{Kind: CategoryEffluent, Parameter: p}
}

// PredictionKey builds the key for a predicted effluent parameter.
func PredictionKey(p Parameter) AlertKey {
	return AlertKey{Kind: CategoryPrediction, Parameter: p}
}

func (k AlertKey) String() string {
	switch k.Kind {
	case CategoryProcess:
		return fmt.Sprintf("process/%s/%s/%s", k.Zone, k.Stage, k.Sensor)
	default:
		return fmt.Sprintf("%s/%s", k.Kind, k.Parameter)
	}
}

// AlertRecord is one entry of the alert feed. Records are never mutated after
// creation.
type AlertRecord struct {
	ID        string    `json:"id"        db:"id"`
	Timestamp time.Time `json:"timestamp" db:"raised_at"`
	Severity  string    `json:"severity"  db:"severity"`
	Category  Category  `json:"category"  db:"category"`
	Key       AlertKey  `json:"key"       db:"alert_key"`
	Message   string    `json:"message"   db:"message"`
}

// FormattedTime renders the timestamp as YYYY-MM-DD HH:MM:SS.
func (a *AlertRecord) FormattedTime() string {
	return a.Timestamp.Format(TimestampLayout)
}
