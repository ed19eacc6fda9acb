package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestGovernor(limit int, clock *fakeClock) *RateGovernor {
	g := NewRateGovernor(limit)
	g.now = clock.Now
	g.sleep = clock.Sleep
	return g
}

func TestRateGovernor_NeverExceedsLimitInAnyWindow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)}
	const limit = 8
	g := newTestGovernor(limit, clock)

	var stamps []time.Time
	for i := 0; i < 50; i++ {
		if err := g.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		stamps = append(stamps, clock.Now())
		if i%3 == 0 {
			clock.Advance(37 * time.Millisecond)
		}
	}

	for i := range stamps {
		count := 0
		for j := i; j < len(stamps) && stamps[j].Sub(stamps[i]) < time.Second; j++ {
			count++
		}
		if count > limit {
			t.Fatalf("window starting at %d holds %d calls, limit %d", i, count, limit)
		}
	}
}

func TestRateGovernor_WaitsForOldestToLeaveWindow(t *testing.T) {
	start := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	g := newTestGovernor(2, clock)

	for i := 0; i < 2; i++ {
		if err := g.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire: %v", err)
		}
	}
	clock.Advance(300 * time.Millisecond)

	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("third acquire: %v", err)
	}
	if got := clock.Now().Sub(start); got != time.Second {
		t.Fatalf("third call admitted after %s, want 1s", got)
	}
	if got := g.InFlight(); got != 1 {
		t.Fatalf("expected only the new call in window, got %d", got)
	}
}

func TestRateGovernor_ConcurrentCallersRealClock(t *testing.T) {
	t.Parallel()

	const limit = 5
	g := NewRateGovernor(limit)

	var mu sync.Mutex
	var stamps []time.Time
	var wg sync.WaitGroup
	for i := 0; i < 2*limit; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Acquire(context.Background()); err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			mu.Lock()
			stamps = append(stamps, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	first, last := stamps[0], stamps[0]
	for _, s := range stamps {
		if s.Before(first) {
			first = s
		}
		if s.After(last) {
			last = s
		}
	}
	if last.Sub(first) < 900*time.Millisecond {
		t.Fatalf("%d calls with limit %d finished within %s", len(stamps), limit, last.Sub(first))
	}
}

func TestRateGovernor_CancelledContext(t *testing.T) {
	g := NewRateGovernor(1)
	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := g.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
