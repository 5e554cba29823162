// Package widgetfeed keeps a bounded in-memory log of published widget states so SSE clients
// can poll for updates the same way they poll the balance WAL.
package widgetfeed

import (
	"sync"

	"github.com/vadiminshakov/helios/internal/domain"
)

// DefaultCapacity number of updates kept when no capacity is configured.
const DefaultCapacity = 512

// Feed ring buffer of widget updates with monotonically increasing indices starting at 1.
type Feed struct {
	mu      sync.RWMutex
	records []domain.WidgetUpdateRecord
	start   int // position of the oldest record in records
	size    int
	last    uint64
	latest  map[domain.MetricKind]domain.WidgetUpdateRecord
}

// New creates a feed holding at most capacity updates.
func New(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{
		records: make([]domain.WidgetUpdateRecord, capacity),
		latest:  make(map[domain.MetricKind]domain.WidgetUpdateRecord),
	}
}

// Publish appends a state and returns its index.
func (f *Feed) Publish(state domain.WidgetState) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.last++
	rec := domain.WidgetUpdateRecord{Index: f.last, State: state}

	capacity := len(f.records)
	if f.size < capacity {
		f.records[(f.start+f.size)%capacity] = rec
		f.size++
	} else {
		f.records[f.start] = rec
		f.start = (f.start + 1) % capacity
	}
	f.latest[state.Kind] = rec

	return f.last
}

// UpdatesAfter returns retained updates with index greater than the given one, oldest first.
// Updates evicted from the ring are silently skipped.
func (f *Feed) UpdatesAfter(index uint64) []domain.WidgetUpdateRecord {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if index >= f.last || f.size == 0 {
		return nil
	}

	capacity := len(f.records)
	out := make([]domain.WidgetUpdateRecord, 0, min(f.size, int(f.last-index)))
	for i := 0; i < f.size; i++ {
		rec := f.records[(f.start+i)%capacity]
		if rec.Index > index {
			out = append(out, rec)
		}
	}
	return out
}

// Latest returns the most recent state per widget kind, in display order.
func (f *Feed) Latest() []domain.WidgetState {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]domain.WidgetState, 0, len(f.latest))
	for _, kind := range domain.AllMetricKinds {
		if rec, ok := f.latest[kind]; ok {
			out = append(out, rec.State)
		}
	}
	return out
}

// LatestOf returns the most recent state of one widget kind.
func (f *Feed) LatestOf(kind domain.MetricKind) (domain.WidgetState, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	rec, ok := f.latest[kind]
	return rec.State, ok
}

// CurrentIndex returns the index of the last published update.
func (f *Feed) CurrentIndex() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.last
}
