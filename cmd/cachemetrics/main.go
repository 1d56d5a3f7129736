/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Command cachemetrics replays cache access logs and exposes, as Prometheus metrics,
// the hit rate every cache would have at each percentage of its configured size.
package main

import (
	"context"
	"fmt"
	golog "log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"

	"github.com/acronis/go-cachemetrics/config"
	"github.com/acronis/go-cachemetrics/hitrate"
	"github.com/acronis/go-cachemetrics/log"
	"github.com/acronis/go-cachemetrics/metricsserver"
	"github.com/acronis/go-cachemetrics/replay"
	"github.com/acronis/go-cachemetrics/service"
)

const envVarsPrefix = "CACHEMETRICS"

func main() {
	configPath := pflag.StringP("config", "c", "config.yml", "path to the YAML configuration file")
	pflag.Parse()

	if err := runApp(*configPath); err != nil {
		golog.Fatal(err)
	}
}

func runApp(configPath string) error {
	cfg, err := loadAppConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, loggerClose := log.NewLogger(cfg.Log)
	defer loggerClose()

	registry := hitrate.NewRegistry(logger)
	trackers := make(map[string]*hitrate.Tracker[string], len(cfg.HitRate.Caches))
	for _, cacheCfg := range cfg.HitRate.Caches {
		tracker, trackerErr := hitrate.CreateIn[string](
			registry, cacheCfg.Name, cacheCfg.MaxSize, cfg.HitRate.TrackerOptions(logger))
		if trackerErr != nil {
			return fmt.Errorf("create hit rate tracker for cache %q: %w", cacheCfg.Name, trackerErr)
		}
		trackers[cacheCfg.Name] = tracker
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		hitrate.NewCollector(registry),
	)

	var serviceUnits []service.Unit

	replayWorkers, err := makeReplayWorkers(cfg.Replay, trackers, logger)
	if err != nil {
		return err
	}
	for _, w := range replayWorkers {
		serviceUnits = append(serviceUnits, service.NewWorkerUnit(w))
	}

	if cfg.HitRate.ReportInterval > 0 {
		reporter := service.NewPeriodicWorkerWithOpts(hitrate.NewReporter(registry, logger),
			cfg.HitRate.ReportInterval, logger, service.PeriodicWorkerOpts{InitialDelay: cfg.HitRate.ReportInterval})
		serviceUnits = append(serviceUnits, service.NewWorkerUnit(reporter))
	}

	if cfg.MetricsServer.Enabled {
		serviceUnits = append(serviceUnits, metricsserver.New(cfg.MetricsServer, logger, metricsserver.Opts{
			Gatherer:    promRegistry,
			HealthCheck: makeHealthCheck(replayWorkers),
		}))
	}

	return service.New(logger, service.NewCompositeUnit(serviceUnits...)).Start()
}

func makeReplayWorkers(
	cfg *replay.Config, trackers map[string]*hitrate.Tracker[string], logger log.FieldLogger,
) ([]*replay.Worker, error) {
	workers := make([]*replay.Worker, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		tracker, ok := trackers[src.Cache]
		if !ok {
			return nil, fmt.Errorf("access log %q refers to unknown cache %q", src.Path, src.Cache)
		}
		w, err := replay.NewWorker(src, tracker, replay.WorkerOpts{
			OpenRetryPolicy: cfg.OpenRetry.Policy(),
			Logger:          logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create replay worker for access log %q: %w", src.Path, err)
		}
		workers = append(workers, w)
	}
	return workers, nil
}

func makeHealthCheck(replayWorkers []*replay.Worker) metricsserver.HealthCheck {
	return func(_ context.Context) (metricsserver.HealthCheckResult, error) {
		result := make(metricsserver.HealthCheckResult, len(replayWorkers))
		for _, w := range replayWorkers {
			result["replay:"+w.Source().Path] = w.Healthy()
		}
		return result, nil
	}
}

func loadAppConfig(path string) (*AppConfig, error) {
	cfg := NewAppConfig()
	err := config.NewDefaultLoader(envVarsPrefix).LoadFromFile(
		path, config.DataTypeYAML, cfg.Log, cfg.HitRate, cfg.MetricsServer, cfg.Replay)
	return cfg, err
}

// AppConfig is the configuration of the cachemetrics service.
type AppConfig struct {
	Log           *log.Config
	HitRate       *hitrate.Config
	MetricsServer *metricsserver.Config
	Replay        *replay.Config
}

// NewAppConfig creates a new AppConfig with configs of all components.
func NewAppConfig() *AppConfig {
	return &AppConfig{
		Log:           log.NewConfig(),
		HitRate:       hitrate.NewConfig(),
		MetricsServer: metricsserver.NewConfig(),
		Replay:        replay.NewConfig(),
	}
}
