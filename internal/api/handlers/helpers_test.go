package handlers_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/effluent-watch/internal/engine"
	"github.com/donaldgifford/effluent-watch/internal/store"
	"github.com/donaldgifford/effluent-watch/internal/thresholds"
	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

var testNow = time.Date(2024, 5, 1, 9, 30, 15, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockMonitor is a testify mock of handlers.Monitor.
type mockMonitor struct {
	mock.Mock
}

func (m *mockMonitor) Latest() (*domain.StatusReport, bool) {
	args := m.Called()
	report, _ := args.Get(0).(*domain.StatusReport)
	return report, args.Bool(1)
}

func (m *mockMonitor) Alerts() []domain.AlertRecord {
	args := m.Called()
	alerts, _ := args.Get(0).([]domain.AlertRecord)
	return alerts
}

func (m *mockMonitor) TrimAlerts(slots int) []domain.AlertRecord {
	args := m.Called(slots)
	alerts, _ := args.Get(0).([]domain.AlertRecord)
	return alerts
}

func (m *mockMonitor) RunNow(ctx context.Context) (*engine.CycleResult, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*engine.CycleResult)
	return res, args.Error(1)
}

func sampleAlerts() []domain.AlertRecord {
	return []domain.AlertRecord{
		{
			ID:        "a-2",
			Timestamp: testNow,
			Severity:  domain.SeverityAbnormal,
			Category:  domain.CategoryEffluent,
			Key:       domain.EffluentKey(domain.ParameterTOC),
			Message:   "TOC 기준 초과",
		},
		{
			ID:        "a-1",
			Timestamp: testNow.Add(-time.Minute),
			Severity:  domain.SeverityAbnormal,
			Category:  domain.CategoryProcess,
			Key:       domain.ProcessKey("1지", domain.StageAerobic, domain.SensorMLSS),
			Message:   "1지 호기조 MLSS 이상",
		},
	}
}

// failingRepo loads nothing and never saves.
type failingRepo struct{}

func (failingRepo) LoadThresholds(context.Context) (*domain.Thresholds, error) {
	return nil, store.ErrNotFound
}

func (failingRepo) SaveThresholds(context.Context, *domain.Thresholds) error {
	return errors.New("disk full")
}

func newThresholdStore(t *testing.T) *thresholds.Store {
	t.Helper()
	repo := store.NewFileStore(filepath.Join(t.TempDir(), "thresholds.yaml"))
	s, err := thresholds.New(context.Background(), repo,
		thresholds.WithLogger(quietLogger()),
		thresholds.WithClock(func() time.Time { return testNow }),
	)
	require.NoError(t, err)
	return s
}
