package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/matchday-advisor/internal/domain/fixture"
	"github.com/riskibarqy/matchday-advisor/internal/domain/snapshot"
	idgen "github.com/riskibarqy/matchday-advisor/internal/platform/id"
	"github.com/riskibarqy/matchday-advisor/internal/platform/logging"
	"github.com/sourcegraph/conc/panics"
)

// BatchExecutor builds the enrichment result for one date.
type BatchExecutor interface {
	Run(ctx context.Context, date string) (BatchResult, error)
}

// CachePurger drops expired entries and reports how many were removed.
type CachePurger interface {
	Namespace() string
	Purge() int
}

type SnapshotSchedulerConfig struct {
	PastDays         int
	FutureDays       int
	RefreshInterval  time.Duration
	DateStagger      time.Duration
	RecoveryInterval time.Duration
	Location         *time.Location
}

func normalizeSnapshotSchedulerConfig(cfg SnapshotSchedulerConfig) SnapshotSchedulerConfig {
	if cfg.PastDays < 0 {
		cfg.PastDays = 0
	}
	if cfg.FutureDays < 0 {
		cfg.FutureDays = 0
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 30 * time.Minute
	}
	if cfg.DateStagger < 0 {
		cfg.DateStagger = 0
	}
	if cfg.RecoveryInterval <= 0 {
		cfg.RecoveryInterval = 5 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return cfg
}

// SnapshotScheduler rebuilds the snapshot of every date in the window, one
// date at a time, forever. Reads never wait on it.
type SnapshotScheduler struct {
	runner  BatchExecutor
	store   snapshot.Repository
	purgers []CachePurger
	cfg     SnapshotSchedulerConfig
	logger  *logging.Logger
	ids     idgen.Generator
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
	trigger chan struct{}
	cycles  atomic.Int64
}

func NewSnapshotScheduler(
	runner BatchExecutor,
	store snapshot.Repository,
	cfg SnapshotSchedulerConfig,
	logger *logging.Logger,
	purgers ...CachePurger,
) *SnapshotScheduler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SnapshotScheduler{
		runner:  runner,
		store:   store,
		purgers: purgers,
		cfg:     normalizeSnapshotSchedulerConfig(cfg),
		logger:  logger,
		ids:     idgen.NewRandomGenerator(),
		now:     time.Now,
		sleep:   sleepWithContext,
		trigger: make(chan struct{}, 1),
	}
}

// TriggerRefresh wakes the loop if it is waiting for the next cycle. Calls
// made while a cycle is running queue at most one extra cycle.
func (s *SnapshotScheduler) TriggerRefresh() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Cycles reports how many cycles have finished, successful or not.
func (s *SnapshotScheduler) Cycles() int64 {
	return s.cycles.Load()
}

// WindowDates returns the dates covered at now, oldest first.
func (s *SnapshotScheduler) WindowDates(now time.Time) []string {
	return windowDates(now, s.cfg)
}

func windowDates(now time.Time, cfg SnapshotSchedulerConfig) []string {
	local := now.In(cfg.Location)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, cfg.Location)
	out := make([]string, 0, cfg.PastDays+cfg.FutureDays+1)
	for offset := -cfg.PastDays; offset <= cfg.FutureDays; offset++ {
		out = append(out, today.AddDate(0, 0, offset).Format(fixture.DateLayout))
	}
	return out
}

// Run blocks until ctx is cancelled. A failed or panicking cycle is logged
// and retried after RecoveryInterval.
func (s *SnapshotScheduler) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "snapshot scheduler started",
		"past_days", s.cfg.PastDays,
		"future_days", s.cfg.FutureDays,
		"refresh_interval", s.cfg.RefreshInterval.String(),
		"timezone", s.cfg.Location.String(),
	)
	for {
		if ctx.Err() != nil {
			s.logger.InfoContext(ctx, "snapshot scheduler stopped")
			return nil
		}

		err := s.safeCycle(ctx)
		s.cycles.Add(1)

		wait := s.cfg.RefreshInterval
		if err != nil {
			if ctx.Err() != nil {
				s.logger.InfoContext(ctx, "snapshot scheduler stopped")
				return nil
			}
			s.logger.ErrorContext(ctx, "snapshot cycle failed", "error", err, "retry_in", s.cfg.RecoveryInterval.String())
			wait = s.cfg.RecoveryInterval
		}

		if !s.waitNext(ctx, wait) {
			s.logger.InfoContext(ctx, "snapshot scheduler stopped")
			return nil
		}
	}
}

func (s *SnapshotScheduler) safeCycle(ctx context.Context) (err error) {
	var pc panics.Catcher
	pc.Try(func() {
		err = s.RunCycle(ctx)
	})
	if recovered := pc.Recovered(); recovered != nil {
		return fmt.Errorf("snapshot cycle panicked: %s", recovered.String())
	}
	return err
}

// RunCycle rebuilds every date of the current window once. A date whose
// batch fails keeps its previous snapshot; the remaining dates still run and
// the failures are returned together.
func (s *SnapshotScheduler) RunCycle(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SnapshotScheduler.RunCycle")
	defer span.End()

	logger := s.logger
	if cycleID, err := s.ids.NewID(); err == nil {
		logger = logger.With("cycle_id", cycleID)
	}

	dates := s.WindowDates(s.now())
	logger.InfoContext(ctx, "snapshot cycle started", "dates", dates)

	var errs []error
	for i, date := range dates {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := s.runner.Run(ctx, date)
		if err != nil {
			errs = append(errs, fmt.Errorf("build snapshot date=%s: %w", date, err))
			logger.WarnContext(ctx, "snapshot build failed, keeping previous snapshot", "date", date, "error", err)
		} else {
			s.store.Publish(&snapshot.Snapshot{
				Date:      date,
				Pending:   result.Pending,
				Terminal:  result.Terminal,
				Ready:     true,
				BuiltAt:   s.now(),
				Total:     result.Total,
				Discarded: result.Discarded,
				Duration:  result.Duration,
			})
			logger.InfoContext(ctx, "snapshot published",
				"date", date,
				"pending", len(result.Pending),
				"terminal", len(result.Terminal),
				"discarded", result.Discarded,
			)
		}

		if i < len(dates)-1 {
			if err := s.sleep(ctx, s.cfg.DateStagger); err != nil {
				return err
			}
		}
	}

	if removed := s.store.Retain(dates); removed > 0 {
		logger.InfoContext(ctx, "snapshots outside window dropped", "removed", removed)
	}
	for _, purger := range s.purgers {
		if removed := purger.Purge(); removed > 0 {
			logger.DebugContext(ctx, "expired cache entries purged", "namespace", purger.Namespace(), "removed", removed)
		}
	}

	return errors.Join(errs...)
}

func (s *SnapshotScheduler) waitNext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	case <-s.trigger:
		s.logger.InfoContext(ctx, "snapshot refresh triggered")
		return true
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
