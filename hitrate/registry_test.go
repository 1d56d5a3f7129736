/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package hitrate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-cachemetrics/log/logtest"
)

func TestRegistry(t *testing.T) {
	logger := logtest.NewRecorder()
	registry := NewRegistry(logger)
	require.Empty(t, registry.Enumerate())

	users, err := CreateIn[string](registry, "users", 10, Options{})
	require.NoError(t, err)
	sessions, err := CreateIn[int](registry, "sessions", 20, Options{})
	require.NoError(t, err)
	_, found := logger.FindEntry("hit rate tracker with the same cache name is already registered, values will be summed")
	require.False(t, found)

	usersDup, err := CreateIn[string](registry, "users", 30, Options{})
	require.NoError(t, err)
	logEntry, found := logger.FindEntry("hit rate tracker with the same cache name is already registered, values will be summed")
	require.True(t, found)
	logField, found := logEntry.FindField("cache_name")
	require.True(t, found)
	require.Equal(t, "users", string(logField.Bytes))

	entries := registry.Enumerate()
	require.Len(t, entries, 3)
	require.Equal(t, RegistryEntry{Name: "users", Source: users}, entries[0])
	require.Equal(t, RegistryEntry{Name: "sessions", Source: sessions}, entries[1])
	require.Equal(t, RegistryEntry{Name: "users", Source: usersDup}, entries[2])

	// Enumerate returns a copy.
	entries[0] = RegistryEntry{}
	require.Equal(t, "users", registry.Enumerate()[0].Name)

	require.Equal(t, 1, registry.Unregister(users))
	require.Equal(t, 0, registry.Unregister(users))
	entries = registry.Enumerate()
	require.Len(t, entries, 2)
	require.Equal(t, "sessions", entries[0].Name)
	require.Equal(t, "users", entries[1].Name)

	_, err = CreateIn[string](registry, "invalid", 0, Options{})
	require.ErrorIs(t, err, ErrInvalidCapacity)
	require.Len(t, registry.Enumerate(), 2)
}

func TestCreate(t *testing.T) {
	tracker, err := Create[string]("default-registry-test", 10)
	require.NoError(t, err)
	defer DefaultRegistry.Unregister(tracker)

	var found bool
	for _, e := range DefaultRegistry.Enumerate() {
		if e.Source == Source(tracker) {
			found = true
			require.Equal(t, "default-registry-test", e.Name)
		}
	}
	require.True(t, found)
}
