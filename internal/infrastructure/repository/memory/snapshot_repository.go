package memory

import (
	"sync"

	"github.com/riskibarqy/matchday-advisor/internal/domain/snapshot"
)

// SnapshotRepository keeps the latest published snapshot per date. Publish
// swaps a pointer under the write lock, so a reader sees the old snapshot or
// the new one, never a mix.
type SnapshotRepository struct {
	mu     sync.RWMutex
	byDate map[string]*snapshot.Snapshot
}

func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{byDate: make(map[string]*snapshot.Snapshot)}
}

func (r *SnapshotRepository) Get(date string) (*snapshot.Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byDate[date]
	return item, ok
}

func (r *SnapshotRepository) Publish(item *snapshot.Snapshot) {
	if item == nil || item.Date == "" {
		return
	}

	r.mu.Lock()
	r.byDate[item.Date] = item
	r.mu.Unlock()
}

func (r *SnapshotRepository) List() map[string]*snapshot.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*snapshot.Snapshot, len(r.byDate))
	for date, item := range r.byDate {
		out[date] = item
	}
	return out
}

// Retain drops every date not in dates and reports how many were removed.
func (r *SnapshotRepository) Retain(dates []string) int {
	keep := make(map[string]struct{}, len(dates))
	for _, date := range dates {
		keep[date] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for date := range r.byDate {
		if _, ok := keep[date]; ok {
			continue
		}
		delete(r.byDate, date)
		removed++
	}
	return removed
}
