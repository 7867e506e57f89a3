// ABOUTME: Cache entry for records with exactly one conceptual row
// ABOUTME: Used for the user profile, invoice config and calendar sync state
package cache

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/harperreed/bizcrm/metrics"
	"github.com/harperreed/bizcrm/store"
)

// Singleton mirrors a single JSON object stored under key.
type Singleton[T any] struct {
	key     string
	backend store.Backend
	logger  *log.Logger
	metrics *metrics.Recorder

	mu    sync.Mutex
	value T
}

func newSingleton[T any](c *Cache, key string) *Singleton[T] {
	return &Singleton[T]{
		key:     key,
		backend: c.backend,
		logger:  c.logger,
		metrics: c.metrics,
	}
}

// Get returns the cached value.
func (s *Singleton[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Save replaces the value in memory and store; a failed write restores the old value.
func (s *Singleton[T]) Save(ctx context.Context, v T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.value
	s.value = v
	err := store.Write(s.backend, s.key, v)
	s.metrics.StoreWrite(s.key, err)
	if err != nil {
		s.value = prev
		s.logger.Error("store write failed, cache rolled back", "key", s.key, "err", err)
		return err
	}
	return nil
}

func (s *Singleton[T]) load(fallback T) error {
	v, err := store.Read(s.backend, s.key, fallback)
	if err != nil && !isCorrupt(err) {
		return err
	}
	if err != nil {
		s.logger.Warn("corrupt record, using defaults", "key", s.key, "err", err)
	}

	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
	return nil
}
