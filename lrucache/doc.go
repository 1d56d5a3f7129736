/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package lrucache provides in-memory cache with LRU eviction policy and Prometheus metrics.
// The cache can report its lookups to a hitrate.Tracker, which estimates the hit rate
// the same cache would have with a smaller size.
package lrucache
