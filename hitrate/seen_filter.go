/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package hitrate

import (
	"encoding/binary"
	"hash/maphash"

	"github.com/bits-and-blooms/bloom/v3"
)

// Parameters of the filter of keys seen since the tracker's creation.
const (
	seenFilterCapacityPerEntry = 10
	seenFilterMinCapacity      = 1024
	seenFilterMaxCapacity      = 1 << 20
	seenFilterFalsePositive    = 1e-7
	seenFilterGrowth           = 2
	seenFilterTightening       = 0.5
)

// seenFilter remembers every key the tracker has ever seen, including keys forgotten by the recency index.
// It's a scalable Bloom filter: when the current stage is full a new, larger stage with a tighter
// false positive rate is appended, so the total false positive rate stays below 2*seenFilterFalsePositive.
// A false positive makes a first sighting count as a hit in the last bucket.
type seenFilter[K comparable] struct {
	seed     maphash.Seed
	stages   []*bloom.BloomFilter
	capacity uint
	fpRate   float64
	added    uint
}

func newSeenFilter[K comparable](maxSize int) *seenFilter[K] {
	capacity := uint(seenFilterMaxCapacity)
	if maxSize <= seenFilterMaxCapacity/seenFilterCapacityPerEntry {
		capacity = uint(maxSize * seenFilterCapacityPerEntry)
	}
	if capacity < seenFilterMinCapacity {
		capacity = seenFilterMinCapacity
	}
	sf := &seenFilter[K]{seed: maphash.MakeSeed(), capacity: capacity, fpRate: seenFilterFalsePositive}
	sf.stages = append(sf.stages, bloom.NewWithEstimates(sf.capacity, sf.fpRate))
	return sf
}

// testAndAdd reports whether the key has been added before and adds it.
func (sf *seenFilter[K]) testAndAdd(key K) bool {
	var data [8]byte
	binary.LittleEndian.PutUint64(data[:], maphash.Comparable(sf.seed, key))

	last := len(sf.stages) - 1
	for _, stage := range sf.stages[:last] {
		if stage.Test(data[:]) {
			return true
		}
	}
	if sf.stages[last].TestAndAdd(data[:]) {
		return true
	}

	sf.added++
	if sf.added >= sf.capacity {
		sf.capacity *= seenFilterGrowth
		sf.fpRate *= seenFilterTightening
		sf.added = 0
		sf.stages = append(sf.stages, bloom.NewWithEstimates(sf.capacity, sf.fpRate))
	}
	return false
}

// sizeBytes returns the number of bytes occupied by the filter's bit sets.
func (sf *seenFilter[K]) sizeBytes() uint64 {
	var bitsNum uint64
	for _, stage := range sf.stages {
		bitsNum += uint64(stage.Cap())
	}
	return bitsNum / 8
}
