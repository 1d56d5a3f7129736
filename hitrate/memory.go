/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package hitrate

import "math"

// memoryAccountant bounds the number of tracked keys by a budget proportional to the capacity,
// so the footprint follows the size of the observed cache rather than the key cardinality.
type memoryAccountant struct {
	budgetMultiplier int
	entryCost        uint64
}

// budget saturates at math.MaxInt for capacities too large to be multiplied.
func (ma memoryAccountant) budget(capacity int) int {
	if capacity > math.MaxInt/ma.budgetMultiplier {
		return math.MaxInt
	}
	return ma.budgetMultiplier * capacity
}

// excess returns how many of the oldest tracked keys have to be evicted to fit into the budget.
func (ma memoryAccountant) excess(tracked, capacity int) int {
	if over := tracked - ma.budget(capacity); over > 0 {
		return over
	}
	return 0
}

func (ma memoryAccountant) usage(tracked int) uint64 {
	return uint64(tracked) * ma.entryCost
}
