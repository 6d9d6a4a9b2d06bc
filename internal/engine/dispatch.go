package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/donaldgifford/effluent-watch/internal/notify"
	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

const batchThreshold = 5

// SendAlerts delivers one cycle's alerts. Five or more go out as a single
// batch; fewer are sent one by one and every send is attempted.
func SendAlerts(ctx context.Context, n notify.Notifier, alerts []domain.AlertRecord) error {
	if len(alerts) == 0 {
		return nil
	}

	if len(alerts) >= batchThreshold {
		if err := n.SendBatchAlert(ctx, alerts); err != nil {
			return fmt.Errorf("sending batch of %d alerts: %w", len(alerts), err)
		}
		return nil
	}

	var errs []error
	for i := range alerts {
		if err := n.SendAlert(ctx, &alerts[i]); err != nil {
			errs = append(errs, fmt.Errorf("sending alert %s: %w", alerts[i].Key, err))
		}
	}
	return errors.Join(errs...)
}
