package resilience

import (
	"context"
	"sync"
	"time"
)

const rateWindow = time.Second

// RateGovernor bounds outbound calls to a fixed number per trailing second,
// shared by every caller in the process.
type RateGovernor struct {
	mu    sync.Mutex
	limit int
	calls []time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRateGovernor(perSecond int) *RateGovernor {
	if perSecond < 1 {
		perSecond = 1
	}
	return &RateGovernor{
		limit: perSecond,
		calls: make([]time.Time, 0, perSecond),
		now:   time.Now,
		sleep: sleepContext,
	}
}

// Limit returns the per-second ceiling.
func (g *RateGovernor) Limit() int {
	return g.limit
}

// Acquire blocks until issuing one more call keeps the trailing one-second
// window at or under the ceiling, then records the call. The lock is held
// while waiting so callers are admitted one at a time.
func (g *RateGovernor) Acquire(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := g.now()
		g.evict(now)
		if len(g.calls) < g.limit {
			g.calls = append(g.calls, now)
			return nil
		}

		wait := rateWindow - now.Sub(g.calls[0])
		if wait <= 0 {
			continue
		}
		if err := g.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// InFlight reports how many calls are inside the current window.
func (g *RateGovernor) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.evict(g.now())
	return len(g.calls)
}

func (g *RateGovernor) evict(now time.Time) {
	drop := 0
	for drop < len(g.calls) && now.Sub(g.calls[drop]) >= rateWindow {
		drop++
	}
	if drop == 0 {
		return
	}
	g.calls = append(g.calls[:0], g.calls[drop:]...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
