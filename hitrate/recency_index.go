/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package hitrate

import "github.com/acronis/go-cachemetrics/internal/ostree"

// recencyIndex keeps the access order of tracked keys.
// Every access gets a new token from a monotonic clock, so the rank of a key's token
// among all tracked tokens is its LRU stack distance.
type recencyIndex[K comparable] struct {
	tokens map[K]uint64
	keys   map[uint64]K
	order  ostree.Tree
	clock  uint64
}

func newRecencyIndex[K comparable]() *recencyIndex[K] {
	return &recencyIndex[K]{
		tokens: make(map[K]uint64),
		keys:   make(map[uint64]K),
	}
}

// touch moves the key to the most recent position.
// For an already tracked key it returns true and the number of tracked keys accessed after it.
// An unknown key starts being tracked and -1 is returned as distance.
func (ri *recencyIndex[K]) touch(key K) (wasPresent bool, distance int) {
	ri.clock++
	now := ri.clock

	prev, ok := ri.tokens[key]
	if ok {
		distance = ri.order.CountGreater(prev)
		ri.order.Delete(prev)
		delete(ri.keys, prev)
	} else {
		distance = -1
	}

	ri.order.Insert(now)
	ri.tokens[key] = now
	ri.keys[now] = key
	return ok, distance
}

// evictOldest stops tracking up to n least recently touched keys and returns how many were removed.
func (ri *recencyIndex[K]) evictOldest(n int) int {
	evicted := 0
	for evicted < n {
		token, ok := ri.order.DeleteMin()
		if !ok {
			break
		}
		key := ri.keys[token]
		delete(ri.keys, token)
		delete(ri.tokens, key)
		evicted++
	}
	return evicted
}

func (ri *recencyIndex[K]) len() int {
	return len(ri.tokens)
}
