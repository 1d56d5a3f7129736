/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"errors"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/acronis/go-cachemetrics/hitrate"
	"github.com/acronis/go-cachemetrics/testutil"
)

type User struct {
	Name string
}

func requireCacheMetrics(t *testing.T, pm *PrometheusMetrics, name string, amount, hits, misses, evictions int) {
	t.Helper()
	labels := prometheus.Labels{cacheNameLabel: name}
	testutil.RequireMetricValue(t, pm, "cache_entries_amount", labels, float64(amount))
	testutil.RequireMetricValue(t, pm, "cache_hits_total", labels, float64(hits))
	testutil.RequireMetricValue(t, pm, "cache_misses_total", labels, float64(misses))
	testutil.RequireMetricValue(t, pm, "cache_evictions_total", labels, float64(evictions))
}

func TestNew(t *testing.T) {
	_, err := New[string, User](0, nil)
	require.Error(t, err)

	cache, err := New[string, User](10, nil)
	require.NoError(t, err)
	require.Equal(t, 10, cache.MaxEntries())
	require.Equal(t, 0, cache.Len())
}

func TestLRUCache(t *testing.T) {
	t.Run("get not existing keys", func(t *testing.T) {
		pm := NewPrometheusMetrics()
		cache, err := New[string, User](10, pm.ForCache("users"))
		require.NoError(t, err)

		for _, key := range []string{"user:1", "user:2"} {
			_, found := cache.Get(key)
			require.False(t, found)
		}
		requireCacheMetrics(t, pm, "users", 0, 0, 2, 0)
	})

	t.Run("add entries and get them", func(t *testing.T) {
		pm := NewPrometheusMetrics()
		cache, err := New[string, User](10, pm.ForCache("users"))
		require.NoError(t, err)

		cache.Add("user:1", User{"Bob"})
		cache.Add("user:2", User{"John"})
		cache.Add("user:2", User{"Ivan"})
		require.Equal(t, 2, cache.Len())

		user, found := cache.Get("user:1")
		require.True(t, found)
		require.Equal(t, User{"Bob"}, user)
		user, found = cache.Get("user:2")
		require.True(t, found)
		require.Equal(t, User{"Ivan"}, user)
		requireCacheMetrics(t, pm, "users", 2, 2, 0, 0)
	})

	t.Run("oldest entries are evicted", func(t *testing.T) {
		pm := NewPrometheusMetrics()
		cache, err := New[string, User](2, pm.ForCache("users"))
		require.NoError(t, err)

		cache.Add("user:1", User{"Bob"})
		cache.Add("user:2", User{"John"})
		_, _ = cache.Get("user:1")
		cache.Add("user:3", User{"Ivan"})

		_, found := cache.Get("user:2")
		require.False(t, found)
		_, found = cache.Get("user:1")
		require.True(t, found)
		_, found = cache.Get("user:3")
		require.True(t, found)
		requireCacheMetrics(t, pm, "users", 2, 3, 1, 1)
	})

	t.Run("get or add", func(t *testing.T) {
		cache, err := New[string, User](10, nil)
		require.NoError(t, err)

		var calls int
		provider := func() User {
			calls++
			return User{"Bob"}
		}
		user, exists := cache.GetOrAdd("user:1", provider)
		require.False(t, exists)
		require.Equal(t, User{"Bob"}, user)
		user, exists = cache.GetOrAdd("user:1", provider)
		require.True(t, exists)
		require.Equal(t, User{"Bob"}, user)
		require.Equal(t, 1, calls)
	})

	t.Run("remove and purge", func(t *testing.T) {
		pm := NewPrometheusMetrics()
		cache, err := New[string, User](10, pm.ForCache("users"))
		require.NoError(t, err)

		cache.Add("user:1", User{"Bob"})
		cache.Add("user:2", User{"John"})
		require.True(t, cache.Remove("user:1"))
		require.False(t, cache.Remove("user:1"))
		require.Equal(t, 1, cache.Len())

		cache.Purge()
		require.Equal(t, 0, cache.Len())
		requireCacheMetrics(t, pm, "users", 0, 0, 0, 0)
	})

	t.Run("resize", func(t *testing.T) {
		pm := NewPrometheusMetrics()
		cache, err := New[int, int](10, pm.ForCache("numbers"))
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			cache.Add(i, i)
		}

		evicted, err := cache.Resize(4)
		require.NoError(t, err)
		require.Equal(t, 6, evicted)
		require.Equal(t, 4, cache.Len())
		require.Equal(t, 4, cache.MaxEntries())
		_, found := cache.Get(9)
		require.True(t, found)
		_, found = cache.Get(0)
		require.False(t, found)
		requireCacheMetrics(t, pm, "numbers", 4, 1, 1, 6)

		evicted, err = cache.Resize(20)
		require.NoError(t, err)
		require.Zero(t, evicted)

		_, err = cache.Resize(0)
		require.Error(t, err)
		require.Equal(t, 20, cache.MaxEntries())
	})
}

type failingObserver struct {
	inserted []string
}

func (o *failingObserver) Insert(key string) { o.inserted = append(o.inserted, key) }
func (o *failingObserver) Resize(int) error  { return errors.New("resize failed") }

func TestLRUCache_Observer(t *testing.T) {
	t.Run("lookups are observed, adds are not", func(t *testing.T) {
		observer := &failingObserver{}
		cache, err := NewWithOpts[string, User](10, nil, Options[string]{Observer: observer})
		require.NoError(t, err)

		_, _ = cache.Get("user:1")
		cache.Add("user:1", User{"Bob"})
		_, _ = cache.GetOrAdd("user:2", func() User { return User{"John"} })
		_, _ = cache.Get("user:1")
		require.Equal(t, []string{"user:1", "user:2", "user:1"}, observer.inserted)

		_, err = cache.Resize(5)
		require.Error(t, err)
		require.Equal(t, 10, cache.MaxEntries())
	})

	t.Run("tracked cache", func(t *testing.T) {
		registry := hitrate.NewRegistry(nil)
		cache, tracker, err := NewTracked[int, string]("numbers", 100, nil, registry, hitrate.Options{})
		require.NoError(t, err)
		require.Len(t, registry.Enumerate(), 1)

		for round := 0; round < 2; round++ {
			for i := 0; i < 50; i++ {
				cache.GetOrAdd(i, func() string { return strconv.Itoa(i) })
			}
		}

		// Every key of the second round had 49 other keys accessed in between.
		stats := tracker.Stats()
		require.Equal(t, uint64(50), stats.Misses)
		require.Equal(t, uint64(0), stats.Buckets[47].Count)
		require.Equal(t, uint64(50), stats.Buckets[48].Count)

		_, err = cache.Resize(50)
		require.NoError(t, err)
		require.Equal(t, 50, tracker.MaxSize())
	})

	t.Run("tracked cache with invalid size", func(t *testing.T) {
		registry := hitrate.NewRegistry(nil)
		_, _, err := NewTracked[int, string]("numbers", 0, nil, registry, hitrate.Options{})
		require.ErrorIs(t, err, hitrate.ErrInvalidCapacity)
		require.Empty(t, registry.Enumerate())
	})
}
