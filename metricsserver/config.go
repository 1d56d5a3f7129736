/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package metricsserver

import (
	"fmt"
	"strings"
	"time"

	"github.com/acronis/go-cachemetrics/config"
)

const cfgDefaultKeyPrefix = "metricsServer"

const (
	cfgKeyEnabled           = "enabled"
	cfgKeyAddress           = "address"
	cfgKeyMetricsPath       = "metricsPath"
	cfgKeyPprof             = "pprof"
	cfgKeyReadHeaderTimeout = "readHeaderTimeout"
	cfgKeyShutdownTimeout   = "shutdownTimeout"
)

// Default values.
const (
	DefaultAddress           = ":9090"
	DefaultMetricsPath       = "/metrics"
	DefaultReadHeaderTimeout = time.Second * 5
	DefaultShutdownTimeout   = time.Second * 5
)

// Config represents a set of configuration parameters for the metrics server.
type Config struct {
	Enabled           bool          `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Address           string        `mapstructure:"address" yaml:"address" json:"address"`
	MetricsPath       string        `mapstructure:"metricsPath" yaml:"metricsPath" json:"metricsPath"`
	Pprof             bool          `mapstructure:"pprof" yaml:"pprof" json:"pprof"`
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout" yaml:"readHeaderTimeout" json:"readHeaderTimeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout" yaml:"shutdownTimeout" json:"shutdownTimeout"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return NewConfigWithKeyPrefix(cfgDefaultKeyPrefix)
}

// NewConfigWithKeyPrefix creates a new instance of the Config.
// Allows specifying key prefix which will be used for parsing configuration parameters.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	cfg := NewConfig()
	cfg.Enabled = true
	cfg.Address = DefaultAddress
	cfg.MetricsPath = DefaultMetricsPath
	cfg.ReadHeaderTimeout = DefaultReadHeaderTimeout
	cfg.ShutdownTimeout = DefaultShutdownTimeout
	return cfg
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the metrics server in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyEnabled, true)
	dp.SetDefault(cfgKeyAddress, DefaultAddress)
	dp.SetDefault(cfgKeyMetricsPath, DefaultMetricsPath)
	dp.SetDefault(cfgKeyPprof, false)
	dp.SetDefault(cfgKeyReadHeaderTimeout, DefaultReadHeaderTimeout)
	dp.SetDefault(cfgKeyShutdownTimeout, DefaultShutdownTimeout)
}

// Set sets metrics server configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error
	if c.Enabled, err = dp.GetBool(cfgKeyEnabled); err != nil {
		return err
	}
	if c.Address, err = dp.GetString(cfgKeyAddress); err != nil {
		return err
	}
	if c.MetricsPath, err = dp.GetString(cfgKeyMetricsPath); err != nil {
		return err
	}
	if !strings.HasPrefix(c.MetricsPath, "/") {
		return dp.WrapKeyErr(cfgKeyMetricsPath, fmt.Errorf("should start with %q", "/"))
	}
	if c.Pprof, err = dp.GetBool(cfgKeyPprof); err != nil {
		return err
	}
	if c.ReadHeaderTimeout, err = dp.GetDuration(cfgKeyReadHeaderTimeout); err != nil {
		return err
	}
	if c.ShutdownTimeout, err = dp.GetDuration(cfgKeyShutdownTimeout); err != nil {
		return err
	}
	return nil
}
