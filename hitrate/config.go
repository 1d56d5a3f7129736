/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package hitrate

import (
	"fmt"
	"time"

	"github.com/acronis/go-cachemetrics/config"
	"github.com/acronis/go-cachemetrics/log"
)

const cfgDefaultKeyPrefix = "hitrate"

const (
	cfgKeyBudgetMultiplier = "budgetMultiplier"
	cfgKeyEntryCost        = "entryCost"
	cfgKeyReportInterval   = "reportInterval"
	cfgKeyCaches           = "caches"
)

// DefaultReportInterval is a default interval between logged hit rate reports.
const DefaultReportInterval = time.Minute

// Config represents a set of configuration parameters for hit rate tracking.
type Config struct {
	BudgetMultiplier int             `mapstructure:"budgetMultiplier" yaml:"budgetMultiplier" json:"budgetMultiplier"`
	EntryCost        config.ByteSize `mapstructure:"entryCost" yaml:"entryCost" json:"entryCost"`
	// ReportInterval is an interval between logged reports. Zero disables reporting.
	ReportInterval time.Duration `mapstructure:"reportInterval" yaml:"reportInterval" json:"reportInterval"`
	Caches         []CacheConfig `mapstructure:"caches" yaml:"caches" json:"caches"`

	keyPrefix string
}

// CacheConfig describes a single observed cache.
type CacheConfig struct {
	Name    string `mapstructure:"name" yaml:"name" json:"name"`
	MaxSize int    `mapstructure:"maxSize" yaml:"maxSize" json:"maxSize"`
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// ConfigOption is a type for functional options for the Config.
type ConfigOption func(*configOptions)

type configOptions struct {
	keyPrefix string
}

// WithKeyPrefix returns a ConfigOption that sets a key prefix for parsing configuration parameters.
func WithKeyPrefix(keyPrefix string) ConfigOption {
	return func(o *configOptions) {
		o.keyPrefix = keyPrefix
	}
}

// NewConfig creates a new instance of the Config.
func NewConfig(options ...ConfigOption) *Config {
	opts := configOptions{keyPrefix: cfgDefaultKeyPrefix}
	for _, opt := range options {
		opt(&opts)
	}
	return &Config{keyPrefix: opts.keyPrefix}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyBudgetMultiplier, DefaultBudgetMultiplier)
	dp.SetDefault(cfgKeyEntryCost, DefaultEntryCost)
	dp.SetDefault(cfgKeyReportInterval, DefaultReportInterval)
}

// Set sets hit rate tracking configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.BudgetMultiplier, err = dp.GetInt(cfgKeyBudgetMultiplier); err != nil {
		return err
	}
	if c.BudgetMultiplier < 1 {
		return dp.WrapKeyErr(cfgKeyBudgetMultiplier, fmt.Errorf("should be >= 1"))
	}

	if c.EntryCost, err = dp.GetByteSize(cfgKeyEntryCost); err != nil {
		return err
	}
	if c.EntryCost == 0 {
		return dp.WrapKeyErr(cfgKeyEntryCost, fmt.Errorf("should be > 0"))
	}

	if c.ReportInterval, err = dp.GetDuration(cfgKeyReportInterval); err != nil {
		return err
	}
	if c.ReportInterval < 0 {
		return dp.WrapKeyErr(cfgKeyReportInterval, fmt.Errorf("should be >= 0"))
	}

	var caches []CacheConfig
	if err = dp.UnmarshalKey(cfgKeyCaches, &caches); err != nil {
		return err
	}
	names := make(map[string]struct{}, len(caches))
	for i, cc := range caches {
		key := fmt.Sprintf("%s[%d]", cfgKeyCaches, i)
		if cc.Name == "" {
			return dp.WrapKeyErr(key+".name", fmt.Errorf("cannot be empty"))
		}
		if _, ok := names[cc.Name]; ok {
			return dp.WrapKeyErr(key+".name", fmt.Errorf("duplicate cache name %q", cc.Name))
		}
		names[cc.Name] = struct{}{}
		if err = checkCapacity(cc.MaxSize); err != nil {
			return dp.WrapKeyErr(key+".maxSize", err)
		}
	}
	c.Caches = caches
	return nil
}

// TrackerOptions returns Options for trackers built from this configuration.
func (c *Config) TrackerOptions(logger log.FieldLogger) Options {
	return Options{
		BudgetMultiplier: c.BudgetMultiplier,
		EntryCost:        uint64(c.EntryCost),
		Logger:           logger,
	}
}

// Cache returns the configuration of the cache with the given name.
func (c *Config) Cache(name string) (CacheConfig, bool) {
	for _, cc := range c.Caches {
		if cc.Name == name {
			return cc, true
		}
	}
	return CacheConfig{}, false
}
