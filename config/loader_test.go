/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testServerConfig struct {
	Address string
	Timeout time.Duration
}

func (c *testServerConfig) SetProviderDefaults(dp DataProvider) {
	dp.SetDefault("server.addr", ":80")
	dp.SetDefault("server.timeout", "5s")
}

func (c *testServerConfig) Set(dp DataProvider) error {
	var err error
	if c.Address, err = dp.GetString("server.addr"); err != nil {
		return err
	}
	c.Timeout, err = dp.GetDuration("server.timeout")
	return err
}

type testTrackerConfig struct {
	MaxSize   int
	EntryCost ByteSize
}

func (c *testTrackerConfig) KeyPrefix() string {
	return "tracker"
}

func (c *testTrackerConfig) SetProviderDefaults(dp DataProvider) {
	dp.SetDefault("entryCost", 96)
}

func (c *testTrackerConfig) Set(dp DataProvider) error {
	var err error
	if c.MaxSize, err = dp.GetInt("maxSize"); err != nil {
		return err
	}
	c.EntryCost, err = dp.GetByteSize("entryCost")
	return err
}

func TestLoader_LoadFromReader(t *testing.T) {
	t.Run("load config, use defaults", func(t *testing.T) {
		cfg := &testServerConfig{}
		err := NewLoader(NewViperAdapter()).LoadFromReader(bytes.NewBufferString(`{}`), DataTypeJSON, cfg)
		require.NoError(t, err)
		require.Equal(t, ":80", cfg.Address)
		require.Equal(t, 5*time.Second, cfg.Timeout)
	})

	t.Run("load config", func(t *testing.T) {
		cfg := &testServerConfig{}
		err := NewLoader(NewViperAdapter()).LoadFromReader(
			bytes.NewBufferString(`{"server":{"addr":":777","timeout":"1m"}}`), DataTypeJSON, cfg)
		require.NoError(t, err)
		require.Equal(t, ":777", cfg.Address)
		require.Equal(t, time.Minute, cfg.Timeout)
	})

	t.Run("load several configs, use key prefix", func(t *testing.T) {
		serverCfg := &testServerConfig{}
		trackerCfg := &testTrackerConfig{}
		yamlData := `
server:
  addr: ":9090"
tracker:
  maxSize: 1000
  entryCost: 1K
`
		err := NewLoader(NewViperAdapter()).LoadFromReader(
			bytes.NewBufferString(yamlData), DataTypeYAML, serverCfg, trackerCfg)
		require.NoError(t, err)
		require.Equal(t, ":9090", serverCfg.Address)
		require.Equal(t, 1000, trackerCfg.MaxSize)
		require.Equal(t, ByteSize(1024), trackerCfg.EntryCost)
	})

	t.Run("invalid value, error contains key", func(t *testing.T) {
		trackerCfg := &testTrackerConfig{}
		err := NewLoader(NewViperAdapter()).LoadFromReader(
			bytes.NewBufferString("tracker:\n  maxSize: many\n"), DataTypeYAML, trackerCfg)
		require.ErrorContains(t, err, "tracker.maxSize")
	})
}

func TestViperAdapter_GetByteSize(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    ByteSize
		wantErr bool
	}{
		{name: "not set", value: nil, want: 0},
		{name: "integer", value: 96, want: 96},
		{name: "numeric string", value: "128", want: 128},
		{name: "human-readable", value: "64K", want: 64 * 1024},
		{name: "k8s suffix", value: "2Mi", want: 2 * 1024 * 1024},
		{name: "negative", value: -1, wantErr: true},
		{name: "garbage", value: "lots", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			va := NewViperAdapter()
			if tt.value != nil {
				va.Set("size", tt.value)
			}
			got, err := va.GetByteSize("size")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
