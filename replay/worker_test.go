/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package replay

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-cachemetrics/hitrate"
	"github.com/acronis/go-cachemetrics/log/logtest"
	"github.com/acronis/go-cachemetrics/retry"
)

type keysRecorder struct {
	mu   sync.Mutex
	keys []string
}

func (r *keysRecorder) Insert(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
}

func (r *keysRecorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

func writeAccessLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "access.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o600))
	return path
}

func TestWorker_Run(t *testing.T) {
	t.Run("replay all keys into tracker", func(t *testing.T) {
		path := writeAccessLog(t, "A", "B", "", "# comment", "A", "  C  ", "B")
		tracker, err := hitrate.New[string]("users", 10)
		require.NoError(t, err)
		logger := logtest.NewRecorder()

		worker, err := NewWorker(SourceConfig{Path: path, Cache: "users"}, tracker, WorkerOpts{Logger: logger})
		require.NoError(t, err)
		require.NoError(t, worker.Run(context.Background()))

		require.True(t, worker.Done())
		require.True(t, worker.Healthy())
		require.Equal(t, uint64(5), worker.Processed())
		require.Equal(t, uint64(0), worker.Skipped())
		require.Equal(t, uint64(3), tracker.Misses())
		require.Equal(t, uint64(1), tracker.Buckets()[9].Count)
		require.Equal(t, uint64(2), tracker.Buckets()[19].Count)

		logEntry, found := logger.FindEntry("access log replayed")
		require.True(t, found)
		logField, found := logEntry.FindField("processed")
		require.True(t, found)
		require.Equal(t, 5, int(logField.Int))
	})

	t.Run("included keys", func(t *testing.T) {
		path := writeAccessLog(t, "user:1", "post:1", "user:2", "session:1")
		recorder := &keysRecorder{}
		worker, err := NewWorker(SourceConfig{Path: path, Cache: "users", IncludedKeys: []string{"user:*"}}, recorder, WorkerOpts{})
		require.NoError(t, err)
		require.NoError(t, worker.Run(context.Background()))
		require.Equal(t, []string{"user:1", "user:2"}, recorder.Keys())
		require.Equal(t, uint64(2), worker.Skipped())
	})

	t.Run("excluded keys", func(t *testing.T) {
		path := writeAccessLog(t, "user:1", "post:1", "user:2", "session:1")
		recorder := &keysRecorder{}
		worker, err := NewWorker(SourceConfig{
			Path: path, Cache: "users", ExcludedKeys: []string{"user:*", "*:1"},
		}, recorder, WorkerOpts{})
		require.NoError(t, err)
		require.NoError(t, worker.Run(context.Background()))
		require.Empty(t, recorder.Keys())
		require.Equal(t, uint64(4), worker.Skipped())
	})

	t.Run("rate limit", func(t *testing.T) {
		path := writeAccessLog(t, "A", "B", "C", "D", "E", "F")
		recorder := &keysRecorder{}
		worker, err := NewWorker(SourceConfig{Path: path, Cache: "users", RateLimit: 50}, recorder, WorkerOpts{})
		require.NoError(t, err)
		startTime := time.Now()
		require.NoError(t, worker.Run(context.Background()))
		require.Len(t, recorder.Keys(), 6)
		require.GreaterOrEqual(t, time.Since(startTime), time.Millisecond*80)
	})

	t.Run("context canceled while rate limited", func(t *testing.T) {
		path := writeAccessLog(t, "A", "B", "C", "D")
		recorder := &keysRecorder{}
		worker, err := NewWorker(SourceConfig{Path: path, Cache: "users", RateLimit: 1}, recorder, WorkerOpts{})
		require.NoError(t, err)
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*100)
		defer cancel()
		require.NoError(t, worker.Run(ctx))
		require.Len(t, recorder.Keys(), 1)
		require.False(t, worker.Done())
		require.True(t, worker.Healthy())
	})

	t.Run("access log appears later", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "access.log")
		logger := logtest.NewRecorder()
		recorder := &keysRecorder{}
		worker, err := NewWorker(SourceConfig{Path: path, Cache: "users"}, recorder, WorkerOpts{
			OpenRetryPolicy: retry.ConstantBackoffPolicy{Interval: time.Millisecond * 10, MaxAttempts: 100},
			Logger:          logger,
		})
		require.NoError(t, err)

		go func() {
			time.Sleep(time.Millisecond * 50)
			tmpPath := path + ".tmp"
			if err := os.WriteFile(tmpPath, []byte("A\nB\n"), 0o600); err == nil {
				_ = os.Rename(tmpPath, path)
			}
		}()
		require.NoError(t, worker.Run(context.Background()))
		require.Equal(t, []string{"A", "B"}, recorder.Keys())
		_, found := logger.FindEntry("access log is not available yet, retrying")
		require.True(t, found)
	})

	t.Run("access log doesn't exist", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "access.log")
		worker, err := NewWorker(SourceConfig{Path: path, Cache: "users"}, &keysRecorder{}, WorkerOpts{
			OpenRetryPolicy: retry.ConstantBackoffPolicy{Interval: time.Millisecond, MaxAttempts: 2},
		})
		require.NoError(t, err)
		err = worker.Run(context.Background())
		require.ErrorIs(t, err, fs.ErrNotExist)
		require.False(t, worker.Healthy())
		require.False(t, worker.Done())
	})
}

func TestNewWorker(t *testing.T) {
	_, err := NewWorker(SourceConfig{Cache: "users"}, &keysRecorder{}, WorkerOpts{})
	require.EqualError(t, err, "path cannot be empty")

	_, err = NewWorker(SourceConfig{Path: "access.log", Cache: "users",
		IncludedKeys: []string{"a*"}, ExcludedKeys: []string{"b*"}}, &keysRecorder{}, WorkerOpts{})
	require.EqualError(t, err, "includedKeys and excludedKeys cannot be used together")
}
