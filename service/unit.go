/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package service runs the long-living parts of the process (metrics server, access log replay,
// periodic reports) as units with a common start/stop lifecycle.
package service

// Unit represents a service unit that can be started and stopped.
type Unit interface {
	// Start begins the unit's operation. It may return immediately or block for the unit's lifetime.
	// A fatal error is written to the channel; on success nothing is written.
	// The channel must not be used after Start has returned.
	Start(fatalErr chan<- error)

	// Stop halts the unit. It may be called even if Start has failed or was never called.
	Stop(gracefully bool) error
}

// MetricsRegisterer is an interface for objects that can register its own metrics.
type MetricsRegisterer interface {
	MustRegisterMetrics()
	UnregisterMetrics()
}
