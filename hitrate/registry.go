/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package hitrate

import (
	"sync"

	"github.com/acronis/go-cachemetrics/log"
)

// Source is a read-only view of a tracker used for exporting its state.
type Source interface {
	Name() string
	Stats() Stats
}

var _ Source = (*Tracker[string])(nil)

// RegistryEntry is a named source registered in Registry.
type RegistryEntry struct {
	Name   string
	Source Source
}

// Registry keeps references to trackers for enumeration at scrape time.
// It never touches the trackers' state itself.
//
// Registering the same name twice keeps both entries; Collector reports them as one series
// with summed values.
type Registry struct {
	logger  log.FieldLogger
	mu      sync.RWMutex
	entries []RegistryEntry
}

// DefaultRegistry is the process-wide registry used by Create.
var DefaultRegistry = NewRegistry(nil)

// NewRegistry creates a new empty Registry. Logger may be nil.
func NewRegistry(logger log.FieldLogger) *Registry {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	return &Registry{logger: logger}
}

// Register adds the source under the given name.
func (r *Registry) Register(name string, src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.Name == name {
			r.logger.Warn("hit rate tracker with the same cache name is already registered, values will be summed",
				log.String("cache_name", name))
			break
		}
	}
	r.entries = append(r.entries, RegistryEntry{Name: name, Source: src})
}

// Unregister removes all entries of the source and returns the number of removed entries.
func (r *Registry) Unregister(src Source) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.Source != src {
			kept = append(kept, e)
		}
	}
	removed := len(r.entries) - len(kept)
	for i := len(kept); i < len(r.entries); i++ {
		r.entries[i] = RegistryEntry{}
	}
	r.entries = kept
	return removed
}

// Enumerate returns a copy of all entries in registration order.
func (r *Registry) Enumerate() []RegistryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]RegistryEntry(nil), r.entries...)
}

// Create makes a new Tracker and registers it in DefaultRegistry.
func Create[K comparable](name string, maxSize int) (*Tracker[K], error) {
	return CreateIn[K](DefaultRegistry, name, maxSize, Options{})
}

// CreateIn makes a new Tracker with the given options and registers it in the registry.
func CreateIn[K comparable](registry *Registry, name string, maxSize int, opts Options) (*Tracker[K], error) {
	tracker, err := NewWithOpts[K](name, maxSize, opts)
	if err != nil {
		return nil, err
	}
	registry.Register(name, tracker)
	return tracker, nil
}
