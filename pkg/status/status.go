// Package status classifies raw readings against thresholds.
//
// Classification is permissive: a reading with no usable value, or a
// threshold missing a bound the check needs, is always normal. Nothing here
// returns an error or panics.
package status

import (
	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

// ClassifyProcess checks a process-zone reading. Both bounds are required;
// the reading is abnormal when it is above upper or below lower.
func ClassifyProcess(t domain.Threshold, v domain.Reading) domain.Status {
	value, ok := v.Float()
	if !ok || !t.Complete() {
		return domain.StatusNormal
	}
	if value > *t.Upper || value < *t.Lower {
		return domain.StatusAbnormal
	}
	return domain.StatusNormal
}

// ClassifyEffluent checks an effluent reading (measured or predicted). Only
// the upper bound is enforced.
func ClassifyEffluent(t domain.Threshold, v domain.Reading) domain.Status {
	value, ok := v.Float()
	if !ok || t.Upper == nil {
		return domain.StatusNormal
	}
	if value > *t.Upper {
		return domain.StatusAbnormal
	}
	return domain.StatusNormal
}

// IncompleteProcess reports whether a process threshold cannot flag anything.
func IncompleteProcess(t domain.Threshold) bool {
	return !t.Complete()
}

// IncompleteEffluent reports whether an effluent threshold cannot flag
// anything.
func IncompleteEffluent(t domain.Threshold) bool {
	return t.Upper == nil
}
