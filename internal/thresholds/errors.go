package thresholds

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidKey matches every *InvalidKeyError.
	ErrInvalidKey = errors.New("invalid threshold key")

	// ErrPersistence is wrapped when a change was applied in memory but could
	// not be saved. The caller should retry or tell the operator.
	ErrPersistence = errors.New("threshold change not persisted")
)

// InvalidKeyError reports an update aimed at an unknown stage, sensor,
// parameter, bound or category. State is left unchanged.
type InvalidKeyError struct {
	Field string
	Value string
	Hint  string
}

func (e *InvalidKeyError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid %s %q", e.Field, e.Value)
	if e.Hint != "" {
		b.WriteString(": ")
		b.WriteString(e.Hint)
	}
	return b.String()
}

// Is makes errors.Is(err, ErrInvalidKey) true.
func (e *InvalidKeyError) Is(target error) bool {
	return target == ErrInvalidKey
}
