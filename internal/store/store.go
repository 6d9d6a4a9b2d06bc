// Package store persists threshold configuration and alert history.
// Callers depend on the ThresholdRepository and AlertLog interfaces, never on
// concrete implementations, so tests run without a live database.
package store

import (
	"context"
	"errors"

	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

// ErrNotFound is returned when nothing has been persisted yet.
var ErrNotFound = errors.New("not found")

// ThresholdRepository loads and saves the full threshold configuration.
type ThresholdRepository interface {
	// LoadThresholds returns ErrNotFound when no configuration was ever saved.
	LoadThresholds(ctx context.Context) (*domain.Thresholds, error)
	SaveThresholds(ctx context.Context, th *domain.Thresholds) error
}

// AlertLog is the append-only history of raised alerts.
type AlertLog interface {
	AppendAlerts(ctx context.Context, alerts []domain.AlertRecord) error
	ListAlerts(ctx context.Context, q *AlertQuery) ([]domain.AlertRecord, error)
}

// Pinger is implemented by backends that can report their own health.
type Pinger interface {
	Ping(ctx context.Context) error
}
