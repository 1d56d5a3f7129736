/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache_test

import (
	"fmt"
	"log"

	"github.com/acronis/go-cachemetrics/hitrate"
	"github.com/acronis/go-cachemetrics/lrucache"
)

func Example() {
	type User struct {
		ID   int
		Name string
	}

	// Make Prometheus metrics for caches. Call MustRegister to expose them.
	cacheMetrics := lrucache.NewPrometheusMetricsWithOpts(lrucache.PrometheusMetricsOpts{Namespace: "myservice"})

	// Make LRU cache for storing maximum 100 users and estimate its hit rate at smaller sizes.
	registry := hitrate.NewRegistry(nil)
	cache, tracker, err := lrucache.NewTracked[int, User](
		"users", 100, cacheMetrics.ForCache("users"), registry, hitrate.Options{})
	if err != nil {
		log.Fatal(err)
	}

	loadUser := func(id int) User {
		return User{ID: id, Name: fmt.Sprintf("user-%d", id)}
	}
	for round := 0; round < 3; round++ {
		for id := 1; id <= 20; id++ {
			cache.GetOrAdd(id, func() User { return loadUser(id) })
		}
	}

	if user, found := cache.Get(7); found {
		fmt.Printf("%d, %s\n", user.ID, user.Name)
	}

	stats := tracker.Stats()
	fmt.Printf("hit ratio with 10%% of size: %.2f\n", stats.HitRatio(10))
	fmt.Printf("hit ratio with 20%% of size: %.2f\n", stats.HitRatio(20))

	// Output:
	// 7, user-7
	// hit ratio with 10% of size: 0.00
	// hit ratio with 20% of size: 0.67
}
