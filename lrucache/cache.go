/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/acronis/go-cachemetrics/hitrate"
)

// AccessObserver receives keys of all lookups in the cache.
// *hitrate.Tracker implements it.
type AccessObserver[K comparable] interface {
	Insert(key K)
	Resize(maxSize int) error
}

var _ AccessObserver[string] = (*hitrate.Tracker[string])(nil)

type cacheEntry[K comparable, V any] struct {
	key   K
	value V
}

// LRUCache represents an LRU cache with eviction mechanism and Prometheus metrics.
// Lookups may be reported to an AccessObserver to estimate how the hit rate would change with another size.
type LRUCache[K comparable, V any] struct {
	maxEntries int

	mu      sync.RWMutex
	lruList *list.List
	cache   map[K]*list.Element // map of cache entries, value is a lruList element

	metricsCollector MetricsCollector
	observer         AccessObserver[K]
}

// Options represents options for the cache.
type Options[K comparable] struct {
	// Observer is notified about every Get and GetOrAdd call and every resize.
	// If it's nil, lookups are not observed.
	Observer AccessObserver[K]
}

// New creates a new LRUCache with the provided maximum number of entries and metrics collector.
func New[K comparable, V any](maxEntries int, metricsCollector MetricsCollector) (*LRUCache[K, V], error) {
	return NewWithOpts[K, V](maxEntries, metricsCollector, Options[K]{})
}

// NewWithOpts creates a new LRUCache with the provided maximum number of entries, metrics collector, and options.
// Metrics collector is used to collect statistics about cache usage.
// It can be nil, in this case, metrics will be disabled.
func NewWithOpts[K comparable, V any](
	maxEntries int, metricsCollector MetricsCollector, opts Options[K],
) (*LRUCache[K, V], error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("maxEntries must be greater than 0")
	}
	if metricsCollector == nil {
		metricsCollector = disabledMetricsCollector
	}
	if opts.Observer == nil {
		opts.Observer = disabledObserver[K]{}
	}
	return &LRUCache[K, V]{
		maxEntries:       maxEntries,
		lruList:          list.New(),
		cache:            make(map[K]*list.Element),
		metricsCollector: metricsCollector,
		observer:         opts.Observer,
	}, nil
}

// NewTracked creates a new LRUCache together with a hit rate tracker of the same size
// registered under the cache name in the hit rate registry.
func NewTracked[K comparable, V any](
	name string, maxEntries int, metricsCollector MetricsCollector, registry *hitrate.Registry, trackerOpts hitrate.Options,
) (*LRUCache[K, V], *hitrate.Tracker[K], error) {
	tracker, err := hitrate.CreateIn[K](registry, name, maxEntries, trackerOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("create hit rate tracker: %w", err)
	}
	cache, err := NewWithOpts[K, V](maxEntries, metricsCollector, Options[K]{Observer: tracker})
	if err != nil {
		registry.Unregister(tracker)
		return nil, nil, err
	}
	return cache, tracker, nil
}

// Get returns a value from the cache by the provided key.
func (c *LRUCache[K, V]) Get(key K) (value V, ok bool) {
	c.observer.Insert(key)

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(key)
}

// Add adds a value to the cache with the provided key.
// If the cache is full, the oldest entry will be removed.
// Add is not reported to the observer: it usually follows a missed Get of the same key.
func (c *LRUCache[K, V]) Add(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lruList.MoveToFront(elem)
		elem.Value = &cacheEntry[K, V]{key: key, value: value}
		return
	}
	c.addNew(key, value)
}

// GetOrAdd returns a value from the cache by the provided key.
// If the key does not exist, it adds a new value to the cache.
func (c *LRUCache[K, V]) GetOrAdd(key K, valueProvider func() V) (value V, exists bool) {
	c.observer.Insert(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	if value, exists = c.get(key); exists {
		return value, exists
	}
	value = valueProvider()
	c.addNew(key, value)
	return value, false
}

// Remove removes a value from the cache by the provided key.
func (c *LRUCache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.cache[key]
	if !ok {
		return false
	}

	c.lruList.Remove(elem)
	delete(c.cache, key)
	c.metricsCollector.SetAmount(len(c.cache))
	return true
}

// Purge clears the cache.
// Keep in mind that this method does not reset the cache size
// and does not reset Prometheus metrics except for the total number of entries.
// All removed entries will not be counted as evictions.
func (c *LRUCache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metricsCollector.SetAmount(0)
	c.cache = make(map[K]*list.Element)
	c.lruList.Init()
}

// Resize changes the cache size and returns the number of evicted entries.
// The observer is resized as well, so its percentage buckets follow the actual cache size.
func (c *LRUCache[K, V]) Resize(size int) (evicted int, err error) {
	if size <= 0 {
		return 0, fmt.Errorf("size must be greater than 0")
	}
	if err = c.observer.Resize(size); err != nil {
		return 0, fmt.Errorf("resize observer: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.maxEntries = size
	evicted = len(c.cache) - size
	if evicted <= 0 {
		return 0, nil
	}
	for i := 0; i < evicted; i++ {
		c.removeOldest()
	}
	c.metricsCollector.SetAmount(len(c.cache))
	c.metricsCollector.AddEvictions(evicted)
	return evicted, nil
}

// Len returns the number of items in the cache.
func (c *LRUCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// MaxEntries returns the current size of the cache.
func (c *LRUCache[K, V]) MaxEntries() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxEntries
}

func (c *LRUCache[K, V]) get(key K) (value V, ok bool) {
	elem, hit := c.cache[key]
	if !hit {
		c.metricsCollector.IncMisses()
		return value, false
	}
	c.lruList.MoveToFront(elem)
	c.metricsCollector.IncHits()
	return elem.Value.(*cacheEntry[K, V]).value, true
}

func (c *LRUCache[K, V]) addNew(key K, value V) {
	c.cache[key] = c.lruList.PushFront(&cacheEntry[K, V]{key: key, value: value})
	if len(c.cache) <= c.maxEntries {
		c.metricsCollector.SetAmount(len(c.cache))
		return
	}
	if c.removeOldest() {
		c.metricsCollector.AddEvictions(1)
	}
}

func (c *LRUCache[K, V]) removeOldest() bool {
	elem := c.lruList.Back()
	if elem == nil {
		return false
	}
	c.lruList.Remove(elem)
	delete(c.cache, elem.Value.(*cacheEntry[K, V]).key)
	return true
}

type disabledObserver[K comparable] struct{}

func (disabledObserver[K]) Insert(K)         {}
func (disabledObserver[K]) Resize(int) error { return nil }
