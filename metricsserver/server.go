/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package metricsserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/atomic"

	"github.com/acronis/go-cachemetrics/log"
	"github.com/acronis/go-cachemetrics/service"
)

// HealthCheckResult maps component names to their health.
type HealthCheckResult = map[string]bool

// HealthCheck returns health of the service components.
type HealthCheck = func(ctx context.Context) (HealthCheckResult, error)

type healthCheckResponseData struct {
	Components HealthCheckResult `json:"components"`
}

// Opts represents options for the metrics server.
type Opts struct {
	// Gatherer is a source of exposed metrics. prometheus.DefaultGatherer is used if it's nil.
	Gatherer prometheus.Gatherer

	// HealthCheck is called on GET /healthz. If it's nil, the service is always healthy.
	HealthCheck HealthCheck
}

// Server is an HTTP server exposing Prometheus metrics (including estimated cache hit rates),
// health-check and, optionally, pprof endpoints.
// It implements service.Unit interface.
type Server struct {
	URL        string
	HTTPServer *http.Server
	Logger     log.FieldLogger

	shutdownTimeout time.Duration
	httpServerDone  chan struct{}
	started         atomic.Bool
	stopOnce        sync.Once
}

var _ service.Unit = (*Server)(nil)

// New creates a new metrics server.
func New(cfg *Config, logger log.FieldLogger, opts Opts) *Server {
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.HealthCheck == nil {
		opts.HealthCheck = func(ctx context.Context) (HealthCheckResult, error) {
			return HealthCheckResult{}, nil
		}
	}
	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = DefaultMetricsPath
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer, requestLogging(logger))
	router.Method(http.MethodGet, metricsPath, promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	router.Method(http.MethodGet, "/healthz", newHealthCheckHandler(opts.HealthCheck, logger))
	if cfg.Pprof {
		router.Mount("/debug", chimiddleware.Profiler())
	}

	readHeaderTimeout := cfg.ReadHeaderTimeout
	if readHeaderTimeout == 0 {
		readHeaderTimeout = DefaultReadHeaderTimeout
	}
	httpServer := &http.Server{
		Addr:              cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return &Server{
		URL:             "http://" + httpServer.Addr,
		HTTPServer:      httpServer,
		Logger:          logger,
		shutdownTimeout: cfg.ShutdownTimeout,
		httpServerDone:  make(chan struct{}),
	}
}

// Start starts the metrics HTTP server in a blocking way. Supposed this methods will be called in a separate goroutine.
// If a fatal error occurs, it's sent into passed fatalError channel and should be processed outside.
func (s *Server) Start(fatalError chan<- error) {
	s.started.Store(true)
	defer close(s.httpServerDone)

	logger := s.Logger.With(log.String("address", s.HTTPServer.Addr))

	logger.Info("starting metrics HTTP server...")
	if err := s.HTTPServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			logger.Info("metrics HTTP server closed")
			return
		}
		logger.Error("metrics HTTP server error", log.Error(err))
		fatalError <- err
	}
}

// Stop stops the metrics HTTP server.
// Graceful stop waits for in-flight scrapes up to the configured shutdown timeout.
func (s *Server) Stop(gracefully bool) error {
	var err error
	s.stopOnce.Do(func() {
		if !s.started.Load() {
			err = s.HTTPServer.Close()
			return
		}
		if gracefully && s.shutdownTimeout > 0 {
			s.Logger.Info("shutting down metrics HTTP server...")
			ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			if err = s.HTTPServer.Shutdown(ctx); err == nil {
				<-s.httpServerDone
				return
			}
			s.Logger.Error("metrics HTTP server shutdown error, closing", log.Error(err))
		}
		s.Logger.Info("closing metrics HTTP server...")
		if closeErr := s.HTTPServer.Close(); closeErr != nil {
			s.Logger.Error("metrics HTTP server closing error", log.Error(closeErr))
			err = closeErr
			return
		}
		err = nil
		<-s.httpServerDone
	})
	return err
}

type healthCheckHandler struct {
	healthCheck HealthCheck
	logger      log.FieldLogger
}

func newHealthCheckHandler(healthCheck HealthCheck, logger log.FieldLogger) *healthCheckHandler {
	return &healthCheckHandler{healthCheck: healthCheck, logger: logger}
}

func (h *healthCheckHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	result, err := h.healthCheck(r.Context())
	if err != nil {
		h.logger.Error("error while checking health", log.Error(err))
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}

	respStatus := http.StatusOK
	for _, healthy := range result {
		if !healthy {
			respStatus = http.StatusServiceUnavailable
			break
		}
	}
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(respStatus)
	if err = json.NewEncoder(rw).Encode(healthCheckResponseData{Components: result}); err != nil {
		h.logger.Error("error while writing health-check response", log.Error(err))
	}
}
