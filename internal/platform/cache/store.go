package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/matchday-advisor/internal/platform/resilience"
)

type entry[T any] struct {
	value    T
	storedAt time.Time
}

// Loader produces a value for a missing key. When store is false the value is
// returned to the caller but not kept, so an empty upstream answer is retried
// on the next lookup.
type Loader[T any] func(ctx context.Context) (value T, store bool, err error)

// Store is a namespaced key/value cache with a single TTL and lazy expiry:
// an entry is valid while now-storedAt < ttl and nothing sweeps in the
// background.
type Store[T any] struct {
	mu        sync.RWMutex
	namespace string
	entries   map[string]entry[T]
	ttl       time.Duration
	flight    resilience.SingleFlight[T]
	now       func() time.Time
}

func NewStore[T any](namespace string, ttl time.Duration) *Store[T] {
	namespace = strings.TrimSpace(namespace)
	if namespace != "" && !strings.HasSuffix(namespace, ":") {
		namespace += ":"
	}
	return &Store[T]{
		namespace: namespace,
		entries:   make(map[string]entry[T]),
		ttl:       ttl,
		now:       time.Now,
	}
}

func (s *Store[T]) Namespace() string {
	return strings.TrimSuffix(s.namespace, ":")
}

func (s *Store[T]) TTL() time.Duration {
	return s.ttl
}

// Key builds the namespaced key for an entity id.
func (s *Store[T]) Key(id string) string {
	return s.namespace + id
}

func (s *Store[T]) Get(_ context.Context, id string) (T, bool) {
	var zero T
	if id == "" {
		return zero, false
	}

	key := s.Key(id)
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if s.expired(e, s.now()) {
		s.mu.Lock()
		if current, ok := s.entries[key]; ok && current.storedAt.Equal(e.storedAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return zero, false
	}

	return e.value, true
}

func (s *Store[T]) Set(_ context.Context, id string, value T) {
	if id == "" {
		return
	}

	s.mu.Lock()
	s.entries[s.Key(id)] = entry[T]{
		value:    value,
		storedAt: s.now(),
	}
	s.mu.Unlock()
}

func (s *Store[T]) Delete(_ context.Context, id string) {
	if id == "" {
		return
	}

	s.mu.Lock()
	delete(s.entries, s.Key(id))
	s.mu.Unlock()
}

// Len counts entries held, expired or not.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Purge drops expired entries and reports how many were removed.
func (s *Store[T]) Purge() int {
	now := s.now()
	removed := 0

	s.mu.Lock()
	for key, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, key)
			removed++
		}
	}
	s.mu.Unlock()

	return removed
}

func (s *Store[T]) GetOrLoad(ctx context.Context, id string, loader Loader[T]) (T, error) {
	var zero T
	if loader == nil {
		return zero, fmt.Errorf("loader is required")
	}
	if id == "" {
		value, _, err := loader(ctx)
		return value, err
	}

	if value, ok := s.Get(ctx, id); ok {
		return value, nil
	}

	value, err, _ := s.flight.Do(s.Key(id), func() (T, error) {
		if cached, ok := s.Get(ctx, id); ok {
			return cached, nil
		}

		loaded, store, loadErr := loader(ctx)
		if loadErr != nil {
			return zero, loadErr
		}
		if store {
			s.Set(ctx, id, loaded)
		}
		return loaded, nil
	})
	if err != nil {
		return zero, err
	}

	return value, nil
}

func (s *Store[T]) expired(e entry[T], now time.Time) bool {
	if s.ttl <= 0 {
		return false
	}
	return now.Sub(e.storedAt) >= s.ttl
}
