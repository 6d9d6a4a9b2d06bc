// Package domain defines the core types for the effluent-watch service:
// treatment stages and sensors, thresholds, snapshots, status reports and
// alert records.
package domain

import "time"

// Stage is a biological treatment phase within a zone.
type Stage string

// Stage constants.
const (
	StageAnaerobic Stage = "anaerobic"
	StageAnoxic    Stage = "anoxic"
	StageAerobic   Stage = "aerobic"
)

// Stages lists every stage in evaluation order.
var Stages = []Stage{StageAnaerobic, StageAnoxic, StageAerobic}

var stageNames = map[Stage]string{
	StageAnaerobic: "혐기조",
	StageAnoxic:    "무산소조",
	StageAerobic:   "호기조",
}

// DisplayName returns the operator-facing stage name.
func (s Stage) DisplayName() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return string(s)
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

// Sensors returns the sensors installed for the stage, in display order.
func (s Stage) Sensors() []Sensor {
	switch s {
	case StageAnaerobic, StageAnoxic:
		return []Sensor{SensorORP, SensorPH}
	case StageAerobic:
		return []Sensor{SensorDO, SensorPH, SensorMLSS}
	default:
		return nil
	}
}

// HasSensor reports whether sensor belongs to the stage.
func (s Stage) HasSensor(sensor Sensor) bool {
	for _, candidate := range s.Sensors() {
		if candidate == sensor {
			return true
		}
	}
	return false
}

// Sensor is a process-zone measurement.
type Sensor string

// Sensor constants.
const (
	SensorORP  Sensor = "orp"
	SensorPH   Sensor = "ph"
	SensorDO   Sensor = "do"
	SensorMLSS Sensor = "mlss"
)

// DisplayName returns the upper-cased sensor label used in alert messages.
func (s Sensor) DisplayName() string {
	switch s {
	case SensorORP:
		return "ORP"
	case SensorPH:
		return "PH"
	case SensorDO:
		return "DO"
	case SensorMLSS:
		return "MLSS"
	default:
		return string(s)
	}
}

// Parameter is an effluent water-quality parameter.
type Parameter string

// Parameter constants.
const (
	ParameterTOC Parameter = "toc"
	ParameterSS  Parameter = "ss"
	ParameterTN  Parameter = "tn"
	ParameterTP  Parameter = "tp"
)

// Parameters lists every effluent parameter in display order.
var Parameters = []Parameter{ParameterTOC, ParameterSS, ParameterTN, ParameterTP}

// EffluentUnit is the unit all effluent parameters are measured in.
const EffluentUnit = "mg/L"

// DisplayName returns the operator-facing parameter label (TOC, SS, T-N, T-P).
func (p Parameter) DisplayName() string {
	switch p {
	case ParameterTOC:
		return "TOC"
	case ParameterSS:
		return "SS"
	case ParameterTN:
		return "T-N"
	case ParameterTP:
		return "T-P"
	default:
		return string(p)
	}
}

// Valid reports whether p is a known parameter.
func (p Parameter) Valid() bool {
	switch p {
	case ParameterTOC, ParameterSS, ParameterTN, ParameterTP:
		return true
	default:
		return false
	}
}

// ParseParameter maps both keys ("tn") and display labels ("T-N", "TN") to a
// Parameter.
func ParseParameter(s string) (Parameter, bool) {
	switch s {
	case "toc", "TOC":
		return ParameterTOC, true
	case "ss", "SS":
		return ParameterSS, true
	case "tn", "TN", "T-N", "t-n":
		return ParameterTN, true
	case "tp", "TP", "T-P", "t-p":
		return ParameterTP, true
	default:
		return "", false
	}
}

// Bound selects one side of a Threshold.
type Bound string

// Bound constants.
const (
	BoundUpper Bound = "upper"
	BoundLower Bound = "lower"
)

// Valid reports whether b is a known bound.
func (b Bound) Valid() bool {
	return b == BoundUpper || b == BoundLower
}

// Status is the verdict for one monitored quantity.
type Status string

// Status constants.
const (
	StatusNormal   Status = "normal"
	StatusAbnormal Status = "abnormal"
)

// Category groups monitored quantities and the alerts they raise.
type Category string

// Category constants.
const (
	CategoryProcess    Category = "process"
	CategoryEffluent   Category = "effluent"
	CategoryPrediction Category = "prediction"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryProcess, CategoryEffluent, CategoryPrediction:
		return true
	default:
		return false
	}
}

// DefaultHorizon is the forecast horizon of the prediction model.
const DefaultHorizon = 3 * time.Hour
