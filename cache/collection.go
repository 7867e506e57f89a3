// ABOUTME: Generic cache-coherent collection over one store key
// ABOUTME: Every mutation updates memory and store under one lock and rolls back on write failure
package cache

import (
	"context"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/harperreed/bizcrm/metrics"
	"github.com/harperreed/bizcrm/store"
)

// Record is anything stored in a collection.
type Record interface {
	GetID() string
}

// Collection mirrors the JSON list stored under key. The newest record is first.
type Collection[T Record] struct {
	key     string
	backend store.Backend
	logger  *log.Logger
	metrics *metrics.Recorder

	mu    sync.Mutex
	items []T
}

func newCollection[T Record](c *Cache, key string) *Collection[T] {
	return &Collection[T]{
		key:     key,
		backend: c.backend,
		logger:  c.logger,
		metrics: c.metrics,
		items:   []T{},
	}
}

// Key returns the store key backing the collection.
func (c *Collection[T]) Key() string {
	return c.key
}

// List returns a copy of the cached records, newest first.
func (c *Collection[T]) List() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Len returns the number of cached records.
func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Get returns the record with id.
func (c *Collection[T]) Get(id string) (T, bool) {
	return c.Find(func(rec T) bool { return rec.GetID() == id })
}

// Find returns the first record matching pred.
func (c *Collection[T]) Find(pred func(T) bool) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range c.items {
		if pred(rec) {
			return rec, true
		}
	}
	var zero T
	return zero, false
}

// Create prepends rec and persists the list. rec is returned unchanged.
func (c *Collection[T]) Create(ctx context.Context, rec T) (T, error) {
	if err := ctx.Err(); err != nil {
		return rec, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make([]T, 0, len(c.items)+1)
	next = append(next, rec)
	next = append(next, c.items...)
	return rec, c.commitLocked(next)
}

// Update replaces the record with the same ID. A missing ID is a no-op and
// reports false; neither memory nor store is touched.
func (c *Collection[T]) Update(ctx context.Context, rec T) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(rec.GetID())
	if i < 0 {
		c.logger.Debug("update of missing record ignored", "key", c.key, "id", rec.GetID())
		return false, nil
	}
	next := slices.Clone(c.items)
	next[i] = rec
	return true, c.commitLocked(next)
}

// Delete removes the record with id. A missing ID is a no-op and reports false.
func (c *Collection[T]) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(id)
	if i < 0 {
		c.logger.Debug("delete of missing record ignored", "key", c.key, "id", id)
		return false, nil
	}
	next := slices.Delete(slices.Clone(c.items), i, i+1)
	return true, c.commitLocked(next)
}

// Mutate runs fn on a copy of the list while holding the collection lock.
// When fn reports a change the returned list replaces the cache and is
// written with a single store write.
func (c *Collection[T]) Mutate(ctx context.Context, fn func(items []T) ([]T, bool)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	next, changed := fn(slices.Clone(c.items))
	if !changed {
		return nil
	}
	return c.commitLocked(next)
}

func (c *Collection[T]) indexLocked(id string) int {
	return slices.IndexFunc(c.items, func(rec T) bool { return rec.GetID() == id })
}

// commitLocked swaps in next and persists it. The cache is mutated first; on
// a failed write the previous list is restored.
func (c *Collection[T]) commitLocked(next []T) error {
	if next == nil {
		next = []T{}
	}
	prev := c.items
	c.items = next

	err := store.Write(c.backend, c.key, next)
	c.metrics.StoreWrite(c.key, err)
	if err != nil {
		c.items = prev
		c.logger.Error("store write failed, cache rolled back", "key", c.key, "err", err)
		return err
	}
	return nil
}

// load replaces the cache with the stored list, or fallback when the key is
// missing or corrupt.
func (c *Collection[T]) load(fallback []T) error {
	items, err := store.Read(c.backend, c.key, fallback)
	if err != nil && !isCorrupt(err) {
		return err
	}
	if err != nil {
		c.logger.Warn("corrupt collection, using defaults", "key", c.key, "err", err)
	}
	if items == nil {
		items = []T{}
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	return nil
}
