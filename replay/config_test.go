/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package replay

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-cachemetrics/config"
	"github.com/acronis/go-cachemetrics/retry"
)

func TestConfig(t *testing.T) {
	load := func(cfgData string) (*Config, error) {
		cfg := NewConfig()
		err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(
			bytes.NewBufferString(cfgData), config.DataTypeYAML, cfg)
		return cfg, err
	}

	t.Run("default values", func(t *testing.T) {
		cfg, err := load("")
		require.NoError(t, err)
		require.Empty(t, cfg.Sources)
		require.Equal(t, retry.StrategyExponential, cfg.OpenRetry.Strategy)
		require.Equal(t, retry.DefaultMaxAttempts, cfg.OpenRetry.MaxAttempts)
	})

	t.Run("read values", func(t *testing.T) {
		cfgData := `
replay:
  sources:
    - path: /var/log/users.log
      cache: users
      includedKeys: ["user:*"]
      rateLimit: 1000
      burst: 10
    - path: /var/log/sessions.log
      cache: sessions
  openRetry:
    strategy: constant
    interval: 2s
`
		cfg, err := load(cfgData)
		require.NoError(t, err)
		require.Equal(t, []SourceConfig{
			{Path: "/var/log/users.log", Cache: "users", IncludedKeys: []string{"user:*"}, RateLimit: 1000, Burst: 10},
			{Path: "/var/log/sessions.log", Cache: "sessions"},
		}, cfg.Sources)
		require.Equal(t, retry.ConstantBackoffPolicy{Interval: 2 * time.Second, MaxAttempts: retry.DefaultMaxAttempts},
			cfg.OpenRetry.Policy())
	})

	t.Run("errors", func(t *testing.T) {
		_, err := load("replay:\n  sources:\n    - cache: users\n")
		require.EqualError(t, err, "replay.sources[0]: path cannot be empty")

		_, err = load("replay:\n  sources:\n    - path: a.log\n")
		require.EqualError(t, err, "replay.sources[0]: cache cannot be empty")

		_, err = load("replay:\n  sources:\n    - path: a.log\n      cache: users\n      rateLimit: -1\n")
		require.EqualError(t, err, "replay.sources[0]: rateLimit should be >= 0")

		_, err = load("replay:\n  openRetry:\n    maxAttempts: -1\n")
		require.EqualError(t, err, "replay.openRetry.maxAttempts: should be >= 0")
	})
}
