package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/matchday-advisor/internal/domain/snapshot"
	"github.com/riskibarqy/matchday-advisor/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchday-advisor/internal/platform/resilience"
)

type fixedSizer struct {
	namespace string
	size      int
}

func (s fixedSizer) Namespace() string { return s.namespace }
func (s fixedSizer) Len() int          { return s.size }

func newTestQueryService(store snapshot.Repository, now time.Time, sizers ...CacheSizer) *SnapshotQueryService {
	svc := NewSnapshotQueryService(store, SnapshotQueryConfig{
		StaleAfter: 90 * time.Minute,
		Window: func(now time.Time) []string {
			return windowDates(now, normalizeSnapshotSchedulerConfig(SnapshotSchedulerConfig{PastDays: 1, FutureDays: 1}))
		},
	}, sizers...)
	svc.now = func() time.Time { return now }
	return svc
}

func TestSnapshotQueryService_UpcomingAndFinished(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	correct := true
	store := memory.NewSnapshotRepository()
	store.Publish(&snapshot.Snapshot{
		Date:    "2026-10-17",
		Ready:   true,
		BuiltAt: now.Add(-10 * time.Minute),
		Pending: []snapshot.EnrichedFixture{{Fixture: testFixture(1, "NS", now), Price: 1.9}},
	})
	store.Publish(&snapshot.Snapshot{
		Date:     "2026-10-16",
		Ready:    true,
		BuiltAt:  now.Add(-10 * time.Minute),
		Terminal: []snapshot.EnrichedFixture{{Fixture: finishedFixture(2, 1, 0), Price: 2.2, OutcomeCorrect: &correct}},
	})

	svc := newTestQueryService(store, now)

	upcoming, err := svc.Upcoming(context.Background(), "")
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if upcoming.Date != "2026-10-17" || upcoming.Building || len(upcoming.Fixtures) != 1 {
		t.Fatalf("unexpected upcoming view: %+v", upcoming)
	}

	finished, err := svc.Finished(context.Background(), "")
	if err != nil {
		t.Fatalf("finished: %v", err)
	}
	if finished.Date != "2026-10-16" || len(finished.Fixtures) != 1 || finished.Fixtures[0].OutcomeCorrect == nil {
		t.Fatalf("unexpected finished view: %+v", finished)
	}
}

func TestSnapshotQueryService_MissingDateIsBuilding(t *testing.T) {
	t.Parallel()

	svc := newTestQueryService(memory.NewSnapshotRepository(), time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC))

	view, err := svc.Upcoming(context.Background(), "2026-10-18")
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if !view.Building || view.Fixtures == nil || len(view.Fixtures) != 0 {
		t.Fatalf("expected empty building view, got %+v", view)
	}
}

func TestSnapshotQueryService_InvalidDate(t *testing.T) {
	t.Parallel()

	svc := newTestQueryService(memory.NewSnapshotRepository(), time.Now())
	for _, raw := range []string{"2026/10/17", "yesterday", "2026-13-01"} {
		if _, err := svc.Finished(context.Background(), raw); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("date %q: expected ErrInvalidInput, got %v", raw, err)
		}
	}
}

func TestSnapshotQueryService_CacheStatus(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	store := memory.NewSnapshotRepository()
	store.Publish(&snapshot.Snapshot{Date: "2026-10-16", Ready: true, BuiltAt: now.Add(-2 * time.Hour)})
	store.Publish(&snapshot.Snapshot{
		Date:     "2026-10-17",
		Ready:    true,
		BuiltAt:  now.Add(-5 * time.Minute),
		Pending:  make([]snapshot.EnrichedFixture, 3),
		Terminal: make([]snapshot.EnrichedFixture, 2),
	})

	svc := newTestQueryService(store, now,
		fixedSizer{namespace: "fixtures", size: 3},
		fixedSizer{namespace: "prediction", size: 40},
		fixedSizer{namespace: "odds", size: 71},
	)

	status := svc.CacheStatus(context.Background())
	if status.CacheReady {
		t.Fatalf("cache must not be ready while 2026-10-18 has no snapshot")
	}
	if len(status.Dates) != 3 {
		t.Fatalf("unexpected dates: %+v", status.Dates)
	}
	if status.CacheSizes["odds"] != 71 || status.CacheSizes["prediction"] != 40 || status.CacheSizes["fixtures"] != 3 {
		t.Fatalf("unexpected cache sizes: %+v", status.CacheSizes)
	}

	byDate := make(map[string]DateStatus, len(status.Dates))
	for _, item := range status.Dates {
		byDate[item.Date] = item
	}
	if !byDate["2026-10-16"].Stale {
		t.Fatalf("two hour old snapshot should be stale")
	}
	today := byDate["2026-10-17"]
	if today.Stale || today.PendingCount != 3 || today.TerminalCount != 2 || today.AgeSeconds != 300 {
		t.Fatalf("unexpected status for today: %+v", today)
	}
	if byDate["2026-10-18"].Ready {
		t.Fatalf("missing date must not be ready")
	}

	store.Publish(&snapshot.Snapshot{Date: "2026-10-18", Ready: true, BuiltAt: now})
	if !svc.CacheStatus(context.Background()).CacheReady {
		t.Fatalf("cache should be ready once every window date is published")
	}
}

type fixedBreaker struct {
	stats resilience.BreakerStats
}

func (b fixedBreaker) BreakerStats() resilience.BreakerStats { return b.stats }

func TestSnapshotQueryService_CacheStatusReportsBreaker(t *testing.T) {
	t.Parallel()

	svc := NewSnapshotQueryService(memory.NewSnapshotRepository(), SnapshotQueryConfig{
		Breaker: fixedBreaker{stats: resilience.BreakerStats{State: resilience.CircuitStateOpen, ConsecutiveFailures: 8, Rejected: 4}},
	})

	status := svc.CacheStatus(context.Background())
	if status.Upstream == nil || status.Upstream.State != resilience.CircuitStateOpen || status.Upstream.Rejected != 4 {
		t.Fatalf("unexpected upstream status: %+v", status.Upstream)
	}
	if status.CacheReady {
		t.Fatalf("cache cannot be ready without a window")
	}
}
