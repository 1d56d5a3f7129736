/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package replay

import (
	"fmt"

	"github.com/acronis/go-cachemetrics/config"
	"github.com/acronis/go-cachemetrics/retry"
)

const cfgDefaultKeyPrefix = "replay"

const (
	cfgKeySources   = "sources"
	cfgKeyOpenRetry = "openRetry"
)

// Config represents a set of configuration parameters for replaying access logs.
type Config struct {
	Sources   []SourceConfig `mapstructure:"sources" yaml:"sources" json:"sources"`
	OpenRetry retry.Config   `mapstructure:"openRetry" yaml:"openRetry" json:"openRetry"`

	keyPrefix string
}

// SourceConfig describes a single access log: a file with one cache key per line.
type SourceConfig struct {
	// Path is a path to the access log file.
	Path string `mapstructure:"path" yaml:"path" json:"path"`

	// Cache is a name of the hit rate tracker the keys are fed into.
	Cache string `mapstructure:"cache" yaml:"cache" json:"cache"`

	// IncludedKeys and ExcludedKeys are lists of glob patterns ("*" matches any sequence of characters).
	// Only one of them may be set.
	IncludedKeys []string `mapstructure:"includedKeys" yaml:"includedKeys" json:"includedKeys"`
	ExcludedKeys []string `mapstructure:"excludedKeys" yaml:"excludedKeys" json:"excludedKeys"`

	// RateLimit is the maximum number of keys replayed per second. Zero means no limit.
	RateLimit float64 `mapstructure:"rateLimit" yaml:"rateLimit" json:"rateLimit"`

	// Burst is the maximum number of keys replayed at once when RateLimit is set. Zero means 1.
	Burst int `mapstructure:"burst" yaml:"burst" json:"burst"`
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

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for replaying in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	c.OpenRetry.SetProviderDefaults(config.NewKeyPrefixedDataProvider(dp, cfgKeyOpenRetry))
}

// Set sets replaying configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var sources []SourceConfig
	if err := dp.UnmarshalKey(cfgKeySources, &sources); err != nil {
		return err
	}
	for i := range sources {
		if err := sources[i].validate(); err != nil {
			return dp.WrapKeyErr(fmt.Sprintf("%s[%d]", cfgKeySources, i), err)
		}
	}
	c.Sources = sources
	return c.OpenRetry.Set(config.NewKeyPrefixedDataProvider(dp, cfgKeyOpenRetry))
}

func (sc *SourceConfig) validate() error {
	if sc.Path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if sc.Cache == "" {
		return fmt.Errorf("cache cannot be empty")
	}
	if len(sc.IncludedKeys) != 0 && len(sc.ExcludedKeys) != 0 {
		return fmt.Errorf("includedKeys and excludedKeys cannot be used together")
	}
	if sc.RateLimit < 0 {
		return fmt.Errorf("rateLimit should be >= 0")
	}
	if sc.Burst < 0 {
		return fmt.Errorf("burst should be >= 0")
	}
	return nil
}
