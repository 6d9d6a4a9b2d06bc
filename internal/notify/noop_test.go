package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

func TestNoOpNotifier_SendAlert(t *testing.T) {
	t.Parallel()

	n := NewNoOpNotifier(slog.New(slog.NewTextHandler(io.Discard, nil)))
	alert := testAlert(domain.CategoryProcess)
	require.NoError(t, n.SendAlert(context.Background(), &alert))
}

func TestNoOpNotifier_SendBatchAlert(t *testing.T) {
	t.Parallel()

	n := NewNoOpNotifier(slog.New(slog.NewTextHandler(io.Discard, nil)))
	alerts := []domain.AlertRecord{
		testAlert(domain.CategoryProcess),
		testAlert(domain.CategoryEffluent),
	}
	require.NoError(t, n.SendBatchAlert(context.Background(), alerts))
}

func TestNoOpNotifier_SendBatchAlert_Empty(t *testing.T) {
	t.Parallel()

	n := NewNoOpNotifier(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, n.SendBatchAlert(context.Background(), nil))
}

// compile-time interface checks.
var (
	_ Notifier = (*NoOpNotifier)(nil)
	_ Notifier = (*DiscordNotifier)(nil)
	_ Notifier = (*KafkaNotifier)(nil)
	_ Notifier = Multi(nil)
)
