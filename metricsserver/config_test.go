/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package metricsserver

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-cachemetrics/config"
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
		wantCfg := NewDefaultConfig()
		require.Equal(t, wantCfg, cfg)
	})

	t.Run("read values", func(t *testing.T) {
		cfgData := `
metricsServer:
  enabled: false
  address: "127.0.0.1:8888"
  metricsPath: /prometheus
  pprof: true
  readHeaderTimeout: 2s
  shutdownTimeout: 1m
`
		cfg, err := load(cfgData)
		require.NoError(t, err)
		require.False(t, cfg.Enabled)
		require.Equal(t, "127.0.0.1:8888", cfg.Address)
		require.Equal(t, "/prometheus", cfg.MetricsPath)
		require.True(t, cfg.Pprof)
		require.Equal(t, 2*time.Second, cfg.ReadHeaderTimeout)
		require.Equal(t, time.Minute, cfg.ShutdownTimeout)
	})

	t.Run("invalid metrics path", func(t *testing.T) {
		_, err := load("metricsServer:\n  metricsPath: metrics\n")
		require.EqualError(t, err, `metricsServer.metricsPath: should start with "/"`)
	})
}
