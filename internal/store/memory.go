package store

import (
	"context"
	"sync"

	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

// MemoryAlertLog is a bounded in-process AlertLog. The oldest records are
// dropped once capacity is reached.
type MemoryAlertLog struct {
	mu       sync.RWMutex
	capacity int
	items    []domain.AlertRecord // newest first
}

// NewMemoryAlertLog returns a log holding at most capacity records.
func NewMemoryAlertLog(capacity int) *MemoryAlertLog {
	if capacity <= 0 {
		capacity = defaultRedisHistoryMax
	}
	return &MemoryAlertLog{capacity: capacity}
}

// AppendAlerts prepends alerts, which are expected newest first.
func (m *MemoryAlertLog) AppendAlerts(_ context.Context, alerts []domain.AlertRecord) error {
	if len(alerts) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]domain.AlertRecord, 0, len(alerts)+len(m.items))
	items = append(items, alerts...)
	items = append(items, m.items...)
	if len(items) > m.capacity {
		items = items[:m.capacity]
	}
	m.items = items
	return nil
}

// ListAlerts returns records matching q, newest first.
func (m *MemoryAlertLog) ListAlerts(_ context.Context, q *AlertQuery) ([]domain.AlertRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit := q.EffectiveLimit()
	out := make([]domain.AlertRecord, 0, min(limit, len(m.items)))
	for i := range m.items {
		if !q.Match(&m.items[i]) {
			continue
		}
		out = append(out, m.items[i])
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
