/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package hitrate estimates, from a single pass over a cache access stream, the hit rate the cache
// would have at every percentage (1%..100%) of its configured capacity.
//
// For every access Tracker computes the LRU stack distance of the key (the number of distinct keys
// accessed since its previous access) and records a hit in the smallest percentage bucket whose
// hypothetical cache would still hold the key. The resulting cumulative histogram, the number of
// never-seen-before keys and the tracker's own memory footprint are exported to Prometheus by Collector.
package hitrate
