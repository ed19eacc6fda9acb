package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore[string]("prediction", time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (string, bool, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", true, nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "1035034", loader)
			if err != nil {
				errCh <- err
				return
			}
			if v != "value" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_UsesCachedValueAfterFirstLoad(t *testing.T) {
	t.Parallel()

	store := NewStore[string]("odds", time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (string, bool, error) {
		calls.Add(1)
		return "cached", true, nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("first GetOrLoad error: %v", err)
	}
	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("second GetOrLoad error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_SkipsStoreWhenLoaderDeclines(t *testing.T) {
	t.Parallel()

	store := NewStore[[]int]("fixtures", time.Minute)
	var calls atomic.Int32
	loader := func(context.Context) ([]int, bool, error) {
		calls.Add(1)
		return nil, false, nil
	}

	for i := 0; i < 2; i++ {
		if _, err := store.GetOrLoad(context.Background(), "2026-10-17", loader); err != nil {
			t.Fatalf("GetOrLoad: %v", err)
		}
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("empty result should not be cached, loader ran %d times", got)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d entries", store.Len())
	}
}

func TestStore_GetOrLoad_PropagatesError(t *testing.T) {
	t.Parallel()

	store := NewStore[int]("odds", time.Minute)
	errBoom := errors.New("boom")
	_, err := store.GetOrLoad(context.Background(), "k", func(context.Context) (int, bool, error) {
		return 0, true, errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, ok := store.Get(context.Background(), "k"); ok {
		t.Fatalf("failed load must not be cached")
	}
}

func TestStore_TTLBoundary(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	now := base
	store := NewStore[string]("prediction", 2*time.Hour)
	store.now = func() time.Time { return now }

	store.Set(context.Background(), "99", "Winner : Arsenal")

	cases := []struct {
		elapsed time.Duration
		hit     bool
	}{
		{0, true},
		{time.Hour, true},
		{2*time.Hour - time.Nanosecond, true},
		{2 * time.Hour, false},
		{3 * time.Hour, false},
	}
	for _, tc := range cases {
		store.Set(context.Background(), "99", "Winner : Arsenal")
		now = now.Add(tc.elapsed)
		got, ok := store.Get(context.Background(), "99")
		if ok != tc.hit {
			t.Fatalf("elapsed %s: hit=%v want %v", tc.elapsed, ok, tc.hit)
		}
		if ok && got != "Winner : Arsenal" {
			t.Fatalf("elapsed %s: unexpected value %q", tc.elapsed, got)
		}
		now = base
	}
}

func TestStore_NamespacesDoNotCollide(t *testing.T) {
	t.Parallel()

	predictions := NewStore[string]("prediction", time.Minute)
	odds := NewStore[string]("odds:", time.Minute)

	if predictions.Key("42") != "prediction:42" {
		t.Fatalf("unexpected key %q", predictions.Key("42"))
	}
	if odds.Key("42:12") != "odds:42:12" {
		t.Fatalf("unexpected key %q", odds.Key("42:12"))
	}
	if odds.Namespace() != "odds" {
		t.Fatalf("unexpected namespace %q", odds.Namespace())
	}
}

func TestStore_PurgeRemovesExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	store := NewStore[int]("fixtures", time.Minute)
	store.now = func() time.Time { return now }

	store.Set(context.Background(), "a", 1)
	now = now.Add(30 * time.Second)
	store.Set(context.Background(), "b", 2)
	now = now.Add(45 * time.Second)

	if removed := store.Purge(); removed != 1 {
		t.Fatalf("expected 1 purged entry, got %d", removed)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", store.Len())
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
