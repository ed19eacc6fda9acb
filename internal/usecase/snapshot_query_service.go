package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/matchday-advisor/internal/domain/fixture"
	"github.com/riskibarqy/matchday-advisor/internal/domain/snapshot"
	"github.com/riskibarqy/matchday-advisor/internal/platform/resilience"
	"github.com/sourcegraph/conc/iter"
)

// BreakerReporter exposes the upstream circuit breaker state.
type BreakerReporter interface {
	BreakerStats() resilience.BreakerStats
}

// CacheSizer reports the size of one cache category.
type CacheSizer interface {
	Namespace() string
	Len() int
}

type DateView struct {
	Date     string
	Building bool
	BuiltAt  time.Time
	Fixtures []snapshot.EnrichedFixture
}

type DateStatus struct {
	Date          string
	Ready         bool
	PendingCount  int
	TerminalCount int
	Discarded     int
	AgeSeconds    int64
	BuiltAt       time.Time
	Stale         bool
}

type CacheStatus struct {
	Dates       []DateStatus
	CacheSizes  map[string]int
	CacheReady  bool
	CurrentTime time.Time
	Upstream    *resilience.BreakerStats
}

type SnapshotQueryConfig struct {
	StaleAfter time.Duration
	Location   *time.Location
	// Window returns the dates the scheduler maintains at now.
	Window func(now time.Time) []string
	// Breaker is optional.
	Breaker BreakerReporter
}

// SnapshotQueryService serves reads from published snapshots only.
type SnapshotQueryService struct {
	store  snapshot.Repository
	sizers []CacheSizer
	cfg    SnapshotQueryConfig
	now    func() time.Time
}

func NewSnapshotQueryService(store snapshot.Repository, cfg SnapshotQueryConfig, sizers ...CacheSizer) *SnapshotQueryService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &SnapshotQueryService{
		store:  store,
		sizers: sizers,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Upcoming returns the non-terminal fixtures of date, today when empty.
func (s *SnapshotQueryService) Upcoming(ctx context.Context, date string) (DateView, error) {
	_, span := startUsecaseSpan(ctx, "usecase.SnapshotQueryService.Upcoming")
	defer span.End()

	date, err := s.resolveDate(date, 0)
	if err != nil {
		return DateView{}, err
	}
	return s.view(date, func(snap *snapshot.Snapshot) []snapshot.EnrichedFixture { return snap.Pending }), nil
}

// Finished returns the terminal fixtures of date with their outcomes,
// yesterday when empty.
func (s *SnapshotQueryService) Finished(ctx context.Context, date string) (DateView, error) {
	_, span := startUsecaseSpan(ctx, "usecase.SnapshotQueryService.Finished")
	defer span.End()

	date, err := s.resolveDate(date, -1)
	if err != nil {
		return DateView{}, err
	}
	return s.view(date, func(snap *snapshot.Snapshot) []snapshot.EnrichedFixture { return snap.Terminal }), nil
}

func (s *SnapshotQueryService) view(date string, pick func(*snapshot.Snapshot) []snapshot.EnrichedFixture) DateView {
	snap, ok := s.store.Get(date)
	if !ok || snap == nil || !snap.Ready {
		return DateView{Date: date, Building: true, Fixtures: []snapshot.EnrichedFixture{}}
	}
	items := pick(snap)
	out := make([]snapshot.EnrichedFixture, len(items))
	copy(out, items)
	return DateView{Date: date, BuiltAt: snap.BuiltAt, Fixtures: out}
}

func (s *SnapshotQueryService) resolveDate(raw string, defaultOffset int) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		local := s.now().In(s.cfg.Location)
		return local.AddDate(0, 0, defaultOffset).Format(fixture.DateLayout), nil
	}
	parsed, err := time.Parse(fixture.DateLayout, raw)
	if err != nil {
		return "", fmt.Errorf("%w: date must use YYYY-MM-DD", ErrInvalidInput)
	}
	return parsed.Format(fixture.DateLayout), nil
}

// CacheStatus lists every window date and every date still held, with cache
// sizes per category. CacheReady is true once each window date has a
// snapshot.
func (s *SnapshotQueryService) CacheStatus(ctx context.Context) CacheStatus {
	_, span := startUsecaseSpan(ctx, "usecase.SnapshotQueryService.CacheStatus")
	defer span.End()

	now := s.now()
	held := s.store.List()

	var window []string
	if s.cfg.Window != nil {
		window = s.cfg.Window(now)
	}

	dateSet := make(map[string]struct{}, len(held)+len(window))
	for date := range held {
		dateSet[date] = struct{}{}
	}
	for _, date := range window {
		dateSet[date] = struct{}{}
	}
	dates := make([]string, 0, len(dateSet))
	for date := range dateSet {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	statuses := iter.Map(dates, func(date *string) DateStatus {
		return s.dateStatus(*date, held[*date], now)
	})

	ready := len(window) > 0
	for _, date := range window {
		if snap, ok := held[date]; !ok || snap == nil || !snap.Ready {
			ready = false
			break
		}
	}

	sizes := make(map[string]int, len(s.sizers))
	for _, sizer := range s.sizers {
		sizes[sizer.Namespace()] = sizer.Len()
	}

	out := CacheStatus{
		Dates:       statuses,
		CacheSizes:  sizes,
		CacheReady:  ready,
		CurrentTime: now.In(s.cfg.Location),
	}
	if s.cfg.Breaker != nil {
		stats := s.cfg.Breaker.BreakerStats()
		out.Upstream = &stats
	}
	return out
}

func (s *SnapshotQueryService) dateStatus(date string, snap *snapshot.Snapshot, now time.Time) DateStatus {
	if snap == nil {
		return DateStatus{Date: date}
	}
	return DateStatus{
		Date:          date,
		Ready:         snap.Ready,
		PendingCount:  len(snap.Pending),
		TerminalCount: len(snap.Terminal),
		Discarded:     snap.Discarded,
		AgeSeconds:    int64(snap.Age(now) / time.Second),
		BuiltAt:       snap.BuiltAt,
		Stale:         snap.Stale(now, s.cfg.StaleAfter),
	}
}
