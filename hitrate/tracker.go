/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package hitrate

import (
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"github.com/acronis/go-cachemetrics/log"
)

// Default values for Options.
const (
	// DefaultBudgetMultiplier limits tracked keys to 5x of the cache capacity.
	DefaultBudgetMultiplier = 5

	// DefaultEntryCost is an estimated size of one tracked key in bytes
	// (key and token in two maps plus a tree node).
	DefaultEntryCost = 96
)

// Options represents options for the Tracker.
type Options struct {
	// BudgetMultiplier defines the maximum number of tracked keys as BudgetMultiplier * maxSize.
	// When the limit is exceeded, the least recently accessed keys are forgotten. Their next access
	// is still a hit, recorded in the last bucket since its stack distance is beyond the budget.
	// Zero means DefaultBudgetMultiplier.
	BudgetMultiplier int

	// EntryCost is the number of bytes one tracked key is accounted for in MemoryUsage.
	// Zero means DefaultEntryCost.
	EntryCost uint64

	// Logger is used for reporting resizes. Logging is disabled if it's nil.
	Logger log.FieldLogger
}

// Stats is a consistent snapshot of the tracker's state.
type Stats struct {
	MaxSize     int
	Tracked     int
	Hits        uint64
	Misses      uint64
	Evictions   uint64
	MemoryUsage uint64

	// SeenFilterSize is the number of bytes used for remembering keys that have ever been seen.
	SeenFilterSize uint64
	Buckets        []Bucket
}

// HitRatio returns the estimated hit ratio (0..1) of a cache with percent% of the configured capacity.
func (s Stats) HitRatio(percent int) float64 {
	if percent < 1 || percent > len(s.Buckets) {
		return 0
	}
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Buckets[percent-1].Count) / float64(total)
}

// Tracker observes accesses to a single named cache and estimates its hit rate at different capacities.
// It's safe for concurrent use. Trackers share no state with each other.
type Tracker[K comparable] struct {
	name   string
	logger log.FieldLogger

	mu      sync.Mutex
	maxSize int
	index   *recencyIndex[K]
	seen    *seenFilter[K]
	buckets bucketAggregator
	misses  uint64
	memory  memoryAccountant

	hits      atomic.Uint64
	evictions atomic.Uint64
}

// New creates a new Tracker for the cache with the given name and capacity (maximum number of entries).
func New[K comparable](name string, maxSize int) (*Tracker[K], error) {
	return NewWithOpts[K](name, maxSize, Options{})
}

// NewWithOpts is a more configurable version of New.
func NewWithOpts[K comparable](name string, maxSize int, opts Options) (*Tracker[K], error) {
	if err := checkCapacity(maxSize); err != nil {
		return nil, err
	}
	if opts.BudgetMultiplier < 0 {
		return nil, fmt.Errorf("budget multiplier must be greater or equal to 0, got %d", opts.BudgetMultiplier)
	}
	if opts.BudgetMultiplier == 0 {
		opts.BudgetMultiplier = DefaultBudgetMultiplier
	}
	if opts.EntryCost == 0 {
		opts.EntryCost = DefaultEntryCost
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	return &Tracker[K]{
		name:    name,
		logger:  opts.Logger.With(log.String("cache_name", name)),
		maxSize: maxSize,
		index:   newRecencyIndex[K](),
		seen:    newSeenFilter[K](maxSize),
		memory:  memoryAccountant{budgetMultiplier: opts.BudgetMultiplier, entryCost: opts.EntryCost},
	}, nil
}

// Name returns the name of the observed cache.
func (t *Tracker[K]) Name() string {
	return t.name
}

// Insert registers an access to the key.
// A key seen for the first time counts as a miss. Otherwise a hit is recorded in the bucket defined
// by the key's stack distance, or in the last bucket if the key was forgotten because of the memory budget.
func (t *Tracker[K]) Insert(key K) {
	t.mu.Lock()
	defer t.mu.Unlock()

	wasPresent, distance := t.index.touch(key)
	if wasPresent {
		t.buckets.recordHit(distance, t.maxSize)
		t.hits.Inc()
		return
	}

	if t.seen.testAndAdd(key) {
		t.buckets.recordHit(t.maxSize, t.maxSize)
		t.hits.Inc()
	} else {
		t.misses++
	}
	if excess := t.memory.excess(t.index.len(), t.maxSize); excess > 0 {
		t.evictions.Add(uint64(t.index.evictOldest(excess)))
	}
}

// Resize changes the capacity used for bucketing subsequent hits and for the memory budget.
// Already recorded hits are kept as is. Keys over the new budget are forgotten immediately.
// On error nothing is changed.
func (t *Tracker[K]) Resize(maxSize int) error {
	if err := checkCapacity(maxSize); err != nil {
		return err
	}

	t.mu.Lock()
	oldMaxSize := t.maxSize
	t.maxSize = maxSize
	evicted := t.index.evictOldest(t.memory.excess(t.index.len(), maxSize))
	t.evictions.Add(uint64(evicted))
	t.mu.Unlock()

	t.logger.Info("hit rate tracker resized",
		log.Int("old_max_size", oldMaxSize), log.Int("max_size", maxSize), log.Int("evicted", evicted))
	return nil
}

// Buckets returns the cumulative hit histogram ordered by percentage (1..100).
func (t *Tracker[K]) Buckets() []Bucket {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buckets.snapshot()
}

// MemoryUsage returns the estimated number of bytes used for tracking keys.
func (t *Tracker[K]) MemoryUsage() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.memory.usage(t.index.len())
}

// Misses returns the number of distinct keys seen for the first time.
func (t *Tracker[K]) Misses() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.misses
}

// Hits returns the total number of recorded hits.
func (t *Tracker[K]) Hits() uint64 {
	return t.hits.Load()
}

// Evictions returns the number of keys forgotten because of the memory budget.
func (t *Tracker[K]) Evictions() uint64 {
	return t.evictions.Load()
}

// MaxSize returns the current capacity.
func (t *Tracker[K]) MaxSize() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.maxSize
}

// Tracked returns the number of currently tracked keys.
func (t *Tracker[K]) Tracked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.index.len()
}

// Stats returns all counters taken under a single lock.
func (t *Tracker[K]) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	tracked := t.index.len()
	return Stats{
		MaxSize:        t.maxSize,
		Tracked:        tracked,
		Hits:           t.buckets.total(),
		Misses:         t.misses,
		Evictions:      t.evictions.Load(),
		MemoryUsage:    t.memory.usage(tracked),
		SeenFilterSize: t.seen.sizeBytes(),
		Buckets:        t.buckets.snapshot(),
	}
}
