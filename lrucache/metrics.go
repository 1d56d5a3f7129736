/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import "github.com/prometheus/client_golang/prometheus"

const cacheNameLabel = "cache_name"

// MetricsCollector represents a collector of metrics to analyze how (effectively or not) cache is used.
type MetricsCollector interface {
	// SetAmount sets the total number of entries in the cache.
	SetAmount(int)

	// IncHits increments the total number of successfully found keys in the cache.
	IncHits()

	// IncMisses increments the total number of not found keys in the cache.
	IncMisses()

	// AddEvictions increments the total number of evicted entries.
	AddEvictions(int)
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels
}

// PrometheusMetrics represents Prometheus metrics for a set of named caches.
// Series are labeled with "cache_name", the same label hitrate.Collector uses,
// so the actual hit ratio can be compared with the estimated one.
type PrometheusMetrics struct {
	EntriesAmount  *prometheus.GaugeVec
	HitsTotal      *prometheus.CounterVec
	MissesTotal    *prometheus.CounterVec
	EvictionsTotal *prometheus.CounterVec
}

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	labelNames := []string{cacheNameLabel}
	return &PrometheusMetrics{
		EntriesAmount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "cache_entries_amount",
			Help:        "Total number of entries in the cache.",
			ConstLabels: opts.ConstLabels,
		}, labelNames),
		HitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "cache_hits_total",
			Help:        "Number of successfully found keys in the cache.",
			ConstLabels: opts.ConstLabels,
		}, labelNames),
		MissesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "cache_misses_total",
			Help:        "Number of not found keys in cache.",
			ConstLabels: opts.ConstLabels,
		}, labelNames),
		EvictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "cache_evictions_total",
			Help:        "Number of evicted entries.",
			ConstLabels: opts.ConstLabels,
		}, labelNames),
	}
}

// ForCache returns a MetricsCollector writing series of the cache with the given name.
func (pm *PrometheusMetrics) ForCache(name string) MetricsCollector {
	return &cacheMetrics{
		entriesAmount: pm.EntriesAmount.WithLabelValues(name),
		hits:          pm.HitsTotal.WithLabelValues(name),
		misses:        pm.MissesTotal.WithLabelValues(name),
		evictions:     pm.EvictionsTotal.WithLabelValues(name),
	}
}

// Describe implements prometheus.Collector.
func (pm *PrometheusMetrics) Describe(ch chan<- *prometheus.Desc) {
	pm.EntriesAmount.Describe(ch)
	pm.HitsTotal.Describe(ch)
	pm.MissesTotal.Describe(ch)
	pm.EvictionsTotal.Describe(ch)
}

// Collect implements prometheus.Collector.
func (pm *PrometheusMetrics) Collect(ch chan<- prometheus.Metric) {
	pm.EntriesAmount.Collect(ch)
	pm.HitsTotal.Collect(ch)
	pm.MissesTotal.Collect(ch)
	pm.EvictionsTotal.Collect(ch)
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm)
}

type cacheMetrics struct {
	entriesAmount prometheus.Gauge
	hits          prometheus.Counter
	misses        prometheus.Counter
	evictions     prometheus.Counter
}

func (cm *cacheMetrics) SetAmount(amount int) { cm.entriesAmount.Set(float64(amount)) }
func (cm *cacheMetrics) IncHits()             { cm.hits.Inc() }
func (cm *cacheMetrics) IncMisses()           { cm.misses.Inc() }
func (cm *cacheMetrics) AddEvictions(n int)    { cm.evictions.Add(float64(n)) }

type disabledMetrics struct{}

func (disabledMetrics) SetAmount(int)    {}
func (disabledMetrics) IncHits()         {}
func (disabledMetrics) IncMisses()       {}
func (disabledMetrics) AddEvictions(int) {}

var disabledMetricsCollector = disabledMetrics{}
