/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package replay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/vasayxtx/go-glob"
	"go.uber.org/atomic"
	"golang.org/x/time/rate"

	"github.com/acronis/go-cachemetrics/log"
	"github.com/acronis/go-cachemetrics/retry"
)

const maxLineSize = 1024 * 1024

// Inserter receives replayed keys. *hitrate.Tracker[string] implements it.
type Inserter interface {
	Insert(key string)
}

// WorkerOpts represents options for the Worker.
type WorkerOpts struct {
	// OpenRetryPolicy is used while the access log doesn't exist. No retries are done if it's nil.
	OpenRetryPolicy retry.Policy

	// Logger is used for reporting progress. Logging is disabled if it's nil.
	Logger log.FieldLogger
}

// Worker reads an access log line by line and feeds keys into a hit rate tracker.
// It implements service.Worker.
type Worker struct {
	source      SourceConfig
	inserter    Inserter
	openPolicy  retry.Policy
	logger      log.FieldLogger
	limiter     *rate.Limiter
	acceptKey   func(key string) bool
	processed   atomic.Uint64
	skipped     atomic.Uint64
	fatalErr    atomic.Error
	replayedAll atomic.Bool
}

// NewWorker creates a new Worker for the source.
func NewWorker(source SourceConfig, inserter Inserter, opts WorkerOpts) (*Worker, error) {
	if err := source.validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	w := &Worker{
		source:     source,
		inserter:   inserter,
		openPolicy: opts.OpenRetryPolicy,
		logger:     opts.Logger.With(log.String("path", source.Path), log.String("cache_name", source.Cache)),
		acceptKey:  makeKeyFilter(source.IncludedKeys, source.ExcludedKeys),
	}
	if source.RateLimit > 0 {
		burst := source.Burst
		if burst == 0 {
			burst = 1
		}
		w.limiter = rate.NewLimiter(rate.Limit(source.RateLimit), burst)
	}
	return w, nil
}

// Run replays the access log until its end or until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	startTime := time.Now()
	completed, err := w.replay(ctx)
	if err != nil {
		w.fatalErr.Store(err)
		w.logger.Error("access log replay failed", log.Error(err),
			log.Uint64("processed", w.processed.Load()), log.Uint64("skipped", w.skipped.Load()))
		return err
	}
	if !completed {
		w.logger.Info("access log replay interrupted",
			log.Uint64("processed", w.processed.Load()), log.Uint64("skipped", w.skipped.Load()))
		return nil
	}
	w.replayedAll.Store(true)
	w.logger.Info("access log replayed",
		log.Uint64("processed", w.processed.Load()), log.Uint64("skipped", w.skipped.Load()),
		log.Duration("duration", time.Since(startTime)))
	return nil
}

func (w *Worker) replay(ctx context.Context) (completed bool, err error) {
	f, err := w.open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false, nil
		}
		return false, fmt.Errorf("open access log %q: %w", w.source.Path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			w.logger.Warn("error while closing access log", log.Error(closeErr))
		}
	}()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return false, nil
		}
		key := strings.TrimSpace(scanner.Text())
		if key == "" || strings.HasPrefix(key, "#") {
			continue
		}
		if !w.acceptKey(key) {
			w.skipped.Inc()
			continue
		}
		// Burst is at least 1, so Wait fails only when the context is done or its deadline is too close.
		if w.limiter != nil && w.limiter.Wait(ctx) != nil {
			return false, nil
		}
		w.inserter.Insert(key)
		w.processed.Inc()
	}
	if err = scanner.Err(); err != nil {
		return false, fmt.Errorf("read access log %q: %w", w.source.Path, err)
	}
	return true, nil
}

func (w *Worker) open(ctx context.Context) (*os.File, error) {
	if w.openPolicy == nil {
		return os.Open(w.source.Path)
	}
	var f *os.File
	isRetryable := func(err error) bool {
		return errors.Is(err, fs.ErrNotExist)
	}
	notify := func(err error, delay time.Duration) {
		w.logger.Warn("access log is not available yet, retrying", log.Error(err), log.Duration("delay", delay))
	}
	err := retry.DoWithRetry(ctx, w.openPolicy, isRetryable, notify, func(ctx context.Context) error {
		var openErr error
		f, openErr = os.Open(w.source.Path)
		return openErr
	})
	return f, err
}

// Processed returns the number of keys fed into the tracker.
func (w *Worker) Processed() uint64 {
	return w.processed.Load()
}

// Skipped returns the number of keys filtered out by included/excluded patterns.
func (w *Worker) Skipped() uint64 {
	return w.skipped.Load()
}

// Healthy returns false if the last Run failed.
func (w *Worker) Healthy() bool {
	return w.fatalErr.Load() == nil
}

// Done returns true if the whole access log has been replayed.
func (w *Worker) Done() bool {
	return w.replayedAll.Load()
}

// Source returns the configuration of the replayed access log.
func (w *Worker) Source() SourceConfig {
	return w.source
}

func makeKeyFilter(includedKeys, excludedKeys []string) func(key string) bool {
	compile := func(patterns []string) []func(s string) bool {
		compiled := make([]func(s string) bool, 0, len(patterns))
		for _, p := range patterns {
			compiled = append(compiled, glob.Compile(p))
		}
		return compiled
	}
	matchAny := func(matchers []func(s string) bool, key string) bool {
		for i := range matchers {
			if matchers[i](key) {
				return true
			}
		}
		return false
	}

	switch {
	case len(includedKeys) != 0:
		included := compile(includedKeys)
		return func(key string) bool { return matchAny(included, key) }
	case len(excludedKeys) != 0:
		excluded := compile(excludedKeys)
		return func(key string) bool { return !matchAny(excluded, key) }
	}
	return func(string) bool { return true }
}
