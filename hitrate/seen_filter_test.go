/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package hitrate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeenFilter(t *testing.T) {
	t.Run("initial capacity follows cache size", func(t *testing.T) {
		require.Equal(t, uint(seenFilterMinCapacity), newSeenFilter[int](10).capacity)
		require.Equal(t, uint(10*5000), newSeenFilter[int](5000).capacity)
		require.Equal(t, uint(seenFilterMaxCapacity), newSeenFilter[int](1<<40).capacity)
	})

	t.Run("grows with new keys and never forgets", func(t *testing.T) {
		sf := newSeenFilter[string](1)
		initialSize := sf.sizeBytes()
		const keysNum = 5000
		for i := 0; i < keysNum; i++ {
			require.False(t, sf.testAndAdd(fmt.Sprintf("key-%d", i)), "key-%d", i)
		}
		// 1024 + 2048 keys fill the first two stages, the rest goes to the third one.
		require.Len(t, sf.stages, 3)
		require.Greater(t, sf.sizeBytes(), initialSize)

		for i := 0; i < keysNum; i++ {
			require.True(t, sf.testAndAdd(fmt.Sprintf("key-%d", i)), "key-%d", i)
		}
		require.Len(t, sf.stages, 3)
	})
}
