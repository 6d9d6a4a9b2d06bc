package engine

import (
	"sync"

	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

// CapacityProbe reports how many whole alert entries fit in the consumer's
// display right now. It is sampled only after the feed has been updated.
type CapacityProbe interface {
	AvailableSlots() int
}

// FixedCapacity is a CapacityProbe that always reports the same slot count.
type FixedCapacity int

// AvailableSlots implements CapacityProbe.
func (c FixedCapacity) AvailableSlots() int { return int(c) }

// Feed is the newest-first alert list. It is safe for concurrent use.
type Feed struct {
	mu    sync.RWMutex
	items []domain.AlertRecord
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Prepend puts records at the front of the feed, preserving their order.
func (f *Feed) Prepend(records ...domain.AlertRecord) {
	if len(records) == 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	items := make([]domain.AlertRecord, 0, len(records)+len(f.items))
	items = append(items, records...)
	f.items = append(items, f.items...)
}

// Items returns a copy of the feed, newest first.
func (f *Feed) Items() []domain.AlertRecord {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]domain.AlertRecord, len(f.items))
	copy(out, f.items)
	return out
}

// Len returns the number of records in the feed.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.items)
}

// Trim keeps the n newest records and returns how many were dropped. A
// negative n is treated as zero.
func (f *Feed) Trim(n int) int {
	if n < 0 {
		n = 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.items) <= n {
		return 0
	}
	dropped := len(f.items) - n
	clear(f.items[n:])
	f.items = f.items[:n]
	return dropped
}

// TrimTo samples probe and trims the feed to the reported capacity. A nil
// probe leaves the feed untouched.
func (f *Feed) TrimTo(probe CapacityProbe) int {
	if probe == nil {
		return 0
	}
	return f.Trim(probe.AvailableSlots())
}
