/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package hitrate

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/acronis/go-cachemetrics/internal/libinfo"
)

const cacheNameLabel = "cache_name"

// CollectorOpts represents options for the Collector.
type CollectorOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels
}

// Collector exports the state of all trackers in a Registry as Prometheus metrics.
// Values are read at scrape time, so the collector is registered once and picks up
// trackers created later.
type Collector struct {
	registry *Registry

	hitCount    *prometheus.Desc
	memoryUsage *prometheus.Desc
	misses      *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a new Collector for the registry with default options.
func NewCollector(registry *Registry) *Collector {
	return NewCollectorWithOpts(registry, CollectorOpts{})
}

// NewCollectorWithOpts creates a new Collector for the registry with the provided options.
func NewCollectorWithOpts(registry *Registry, opts CollectorOpts) *Collector {
	constLabels := libinfo.AddPrometheusLibVersionLabel(opts.ConstLabels)
	return &Collector{
		registry: registry,
		hitCount: prometheus.NewDesc(
			prometheus.BuildFQName(opts.Namespace, "", "cache_metrics_hit_count_by_percentage_size"),
			"Number of hits the cache would have if its size were the given percentage of the configured maximum size.",
			[]string{cacheNameLabel}, constLabels,
		),
		memoryUsage: prometheus.NewDesc(
			prometheus.BuildFQName(opts.Namespace, "", "cache_metrics_memory_usage"),
			"Estimated number of bytes used for tracking cache keys.",
			[]string{cacheNameLabel}, constLabels,
		),
		misses: prometheus.NewDesc(
			prometheus.BuildFQName(opts.Namespace, "", "cache_metrics_misses_total"),
			"Number of never before seen keys.",
			[]string{cacheNameLabel}, constLabels,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hitCount
	ch <- c.memoryUsage
	ch <- c.misses
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, agg := range aggregateByName(c.registry.Enumerate()) {
		buckets := make(map[float64]uint64, len(agg.buckets))
		for i, count := range agg.buckets {
			buckets[float64(i+1)] = count
		}
		ch <- prometheus.MustNewConstHistogram(c.hitCount, agg.hits, 0, buckets, agg.name)
		ch <- prometheus.MustNewConstMetric(c.memoryUsage, prometheus.GaugeValue, float64(agg.memoryUsage), agg.name)
		ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(agg.misses), agg.name)
	}
}

// MustRegister does registration of the collector in Prometheus and panics if any error occurs.
func (c *Collector) MustRegister() {
	prometheus.MustRegister(c)
}

// Unregister cancels registration of the collector in Prometheus.
func (c *Collector) Unregister() {
	prometheus.Unregister(c)
}

type nameAggregate struct {
	name        string
	buckets     [BucketsNumber]uint64
	hits        uint64
	misses      uint64
	memoryUsage uint64
}

// aggregateByName sums stats of sources registered under the same name, keeping the order of first registration.
// A Prometheus registry rejects two series with identical labels, so duplicates can't be reported separately.
func aggregateByName(entries []RegistryEntry) []*nameAggregate {
	result := make([]*nameAggregate, 0, len(entries))
	byName := make(map[string]*nameAggregate, len(entries))
	for _, e := range entries {
		agg, ok := byName[e.Name]
		if !ok {
			agg = &nameAggregate{name: e.Name}
			byName[e.Name] = agg
			result = append(result, agg)
		}
		stats := e.Source.Stats()
		for i := 0; i < len(stats.Buckets) && i < BucketsNumber; i++ {
			agg.buckets[i] += stats.Buckets[i].Count
		}
		agg.hits += stats.Hits
		agg.misses += stats.Misses
		agg.memoryUsage += stats.MemoryUsage
	}
	return result
}
