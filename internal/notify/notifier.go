// Package notify defines the notification interface and implementations
// for alert delivery.
package notify

import (
	"context"
	"errors"

	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

// Notifier delivers raised alerts to operators or downstream systems.
type Notifier interface {
	SendAlert(ctx context.Context, alert *domain.AlertRecord) error
	SendBatchAlert(ctx context.Context, alerts []domain.AlertRecord) error
}

// Multi fans every call out to each notifier. All notifiers are attempted;
// their errors are joined.
type Multi []Notifier

// SendAlert implements Notifier.
func (m Multi) SendAlert(ctx context.Context, alert *domain.AlertRecord) error {
	var errs []error
	for _, n := range m {
		if err := n.SendAlert(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SendBatchAlert implements Notifier.
func (m Multi) SendBatchAlert(ctx context.Context, alerts []domain.AlertRecord) error {
	var errs []error
	for _, n := range m {
		if err := n.SendBatchAlert(ctx, alerts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
