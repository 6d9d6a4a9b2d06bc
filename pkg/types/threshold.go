package domain

import "time"

// Threshold holds the bounds for one monitored quantity. A nil bound is
// missing, which is not the same as zero.
type Threshold struct {
	Upper *float64 `json:"upper" yaml:"upper"`
	Lower *float64 `json:"lower" yaml:"lower"`
}

// NewThreshold returns a Threshold with both bounds set.
func NewThreshold(upper, lower float64) Threshold {
	return Threshold{Upper: &upper, Lower: &lower}
}

// Complete reports whether both bounds are present.
func (t Threshold) Complete() bool {
	return t.Upper != nil && t.Lower != nil
}

// Get returns the requested bound.
func (t Threshold) Get(b Bound) *float64 {
	if b == BoundUpper {
		return t.Upper
	}
	return t.Lower
}

// With returns a copy of t with one bound replaced.
func (t Threshold) With(b Bound, v *float64) Threshold {
	v = copyFloat(v)
	if b == BoundUpper {
		t.Upper = v
	} else {
		t.Lower = v
	}
	return t
}

func (t Threshold) clone() Threshold {
	return Threshold{Upper: copyFloat(t.Upper), Lower: copyFloat(t.Lower)}
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// ProcessThresholds maps stage to sensor to Threshold.
type ProcessThresholds map[Stage]map[Sensor]Threshold

// Lookup returns the threshold for a stage/sensor pair.
func (p ProcessThresholds) Lookup(stage Stage, sensor Sensor) (Threshold, bool) {
	sensors, ok := p[stage]
	if !ok {
		return Threshold{}, false
	}
	t, ok := sensors[sensor]
	return t, ok
}

// Clone deep-copies p.
func (p ProcessThresholds) Clone() ProcessThresholds {
	out := make(ProcessThresholds, len(p))
	for stage, sensors := range p {
		m := make(map[Sensor]Threshold, len(sensors))
		for sensor, t := range sensors {
			m[sensor] = t.clone()
		}
		out[stage] = m
	}
	return out
}

// EffluentThresholds maps effluent parameter to Threshold. Only the upper
// bound is enforced; lower is informational.
type EffluentThresholds map[Parameter]Threshold

// Clone deep-copies e.
func (e EffluentThresholds) Clone() EffluentThresholds {
	out := make(EffluentThresholds, len(e))
	for param, t := range e {
		out[param] = t.clone()
	}
	return out
}

// Thresholds is the full threshold configuration.
type Thresholds struct {
	Process   ProcessThresholds  `json:"process"    yaml:"process"`
	Effluent  EffluentThresholds `json:"effluent"   yaml:"effluent"`
	UpdatedAt time.Time          `json:"updated_at" yaml:"updated_at"`
	UpdatedBy string             `json:"updated_by" yaml:"updated_by"`
}

// Clone deep-copies t.
func (t Thresholds) Clone() Thresholds {
	return Thresholds{
		Process:   t.Process.Clone(),
		Effluent:  t.Effluent.Clone(),
		UpdatedAt: t.UpdatedAt,
		UpdatedBy: t.UpdatedBy,
	}
}

// DefaultThresholds returns the regulatory defaults used when nothing has been
// persisted yet.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Process: ProcessThresholds{
			StageAnaerobic: {
				SensorORP: NewThreshold(-350, -250),
				SensorPH:  NewThreshold(7.0, 6.5),
			},
			StageAnoxic: {
				SensorORP: NewThreshold(-200, -100),
				SensorPH:  NewThreshold(7.0, 6.5),
			},
			StageAerobic: {
				SensorDO:   NewThreshold(5.0, 3.0),
				SensorPH:   NewThreshold(7.0, 6.5),
				SensorMLSS: NewThreshold(9000, 6000),
			},
		},
		Effluent: EffluentThresholds{
			ParameterTOC: NewThreshold(25, 0),
			ParameterSS:  NewThreshold(10, 0),
			ParameterTN:  NewThreshold(20, 0),
			ParameterTP:  NewThreshold(2, 0),
		},
		UpdatedBy: "system",
	}
}
