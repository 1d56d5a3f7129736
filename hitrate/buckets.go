/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package hitrate

import "math/bits"

// BucketsNumber is the number of percentage buckets. Bucket i covers a cache of i% of the configured capacity.
const BucketsNumber = 100

// Bucket is a point of the cumulative hit histogram:
// Count hits would have happened if the cache had Percent% of its configured capacity.
type Bucket struct {
	Percent int
	Count   uint64
}

// bucketAggregator stores raw per-bucket hit counts and exposes them cumulatively.
type bucketAggregator struct {
	raw [BucketsNumber]uint64
}

// bucketPercent maps a stack distance to the smallest percentage of capacity that would have kept the key.
// Distances beyond capacity are folded into the last bucket.
func bucketPercent(distance, capacity int) int {
	if distance <= 0 {
		return 1
	}
	if distance >= capacity {
		return BucketsNumber
	}
	// ceil(distance*100/capacity) in 128 bits, the product doesn't fit into int for huge capacities.
	hi, lo := bits.Mul64(uint64(distance), BucketsNumber)
	lo, carry := bits.Add64(lo, uint64(capacity-1), 0)
	percent, _ := bits.Div64(hi+carry, lo, uint64(capacity))
	return int(percent)
}

func (ba *bucketAggregator) recordHit(distance, capacity int) {
	ba.raw[bucketPercent(distance, capacity)-1]++
}

func (ba *bucketAggregator) snapshot() []Bucket {
	buckets := make([]Bucket, BucketsNumber)
	var cumulative uint64
	for i, n := range ba.raw {
		cumulative += n
		buckets[i] = Bucket{Percent: i + 1, Count: cumulative}
	}
	return buckets
}

func (ba *bucketAggregator) total() uint64 {
	var sum uint64
	for _, n := range ba.raw {
		sum += n
	}
	return sum
}
