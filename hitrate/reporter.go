/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package hitrate

import (
	"context"
	"fmt"

	"code.cloudfoundry.org/bytefmt"

	"github.com/acronis/go-cachemetrics/log"
)

// ReportPercentages are the capacity percentages included in every report.
var ReportPercentages = []int{25, 50, 75, 100}

// Reporter logs a summary of every tracker in a Registry.
// It implements service.Worker and is supposed to be wrapped with service.PeriodicWorker.
type Reporter struct {
	registry *Registry
	logger   log.FieldLogger
}

// NewReporter creates a new Reporter.
func NewReporter(registry *Registry, logger log.FieldLogger) *Reporter {
	return &Reporter{registry: registry, logger: logger}
}

// Run logs one entry per registered tracker.
func (r *Reporter) Run(ctx context.Context) error {
	for _, e := range r.registry.Enumerate() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		stats := e.Source.Stats()
		fields := []log.Field{
			log.String("cache_name", e.Name),
			log.Int("max_size", stats.MaxSize),
			log.Int("tracked", stats.Tracked),
			log.Uint64("hits", stats.Hits),
			log.Uint64("misses", stats.Misses),
			log.Uint64("evictions", stats.Evictions),
			log.String("memory_usage", bytefmt.ByteSize(stats.MemoryUsage)),
			log.String("seen_filter_size", bytefmt.ByteSize(stats.SeenFilterSize)),
		}
		for _, p := range ReportPercentages {
			fields = append(fields, log.Float64(fmt.Sprintf("hit_ratio_%d", p), stats.HitRatio(p)))
		}
		r.logger.Info("cache hit rate report", fields...)
	}
	return nil
}
