/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package retry

import (
	"fmt"
	"strings"
	"time"

	"github.com/acronis/go-cachemetrics/config"
)

const (
	cfgKeyStrategy    = "strategy"
	cfgKeyInterval    = "interval"
	cfgKeyMaxInterval = "maxInterval"
	cfgKeyMaxAttempts = "maxAttempts"
)

// Strategy defines possible backoff strategies.
type Strategy string

// Backoff strategies.
const (
	StrategyExponential Strategy = "exponential"
	StrategyConstant    Strategy = "constant"
)

// Default values.
const (
	DefaultInterval    = time.Millisecond * 500
	DefaultMaxInterval = time.Second * 30
	DefaultMaxAttempts = 10
)

// Config represents a set of configuration parameters for retrying. It's supposed to be a part of other configs
// and loaded with a key prefixed data provider (see config.NewKeyPrefixedDataProvider).
type Config struct {
	Strategy    Strategy      `mapstructure:"strategy" yaml:"strategy" json:"strategy"`
	Interval    time.Duration `mapstructure:"interval" yaml:"interval" json:"interval"`
	MaxInterval time.Duration `mapstructure:"maxInterval" yaml:"maxInterval" json:"maxInterval"`
	MaxAttempts int           `mapstructure:"maxAttempts" yaml:"maxAttempts" json:"maxAttempts"`
}

var _ config.Config = (*Config)(nil)

// SetProviderDefaults sets default configuration values for retrying in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyStrategy, string(StrategyExponential))
	dp.SetDefault(cfgKeyInterval, DefaultInterval)
	dp.SetDefault(cfgKeyMaxInterval, DefaultMaxInterval)
	dp.SetDefault(cfgKeyMaxAttempts, DefaultMaxAttempts)
}

// Set sets retrying configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	strategy, err := dp.GetStringFromSet(cfgKeyStrategy, []string{string(StrategyExponential), string(StrategyConstant)}, true)
	if err != nil {
		return err
	}
	c.Strategy = Strategy(strings.ToLower(strategy))

	if c.Interval, err = dp.GetDuration(cfgKeyInterval); err != nil {
		return err
	}
	if c.Interval <= 0 {
		return dp.WrapKeyErr(cfgKeyInterval, fmt.Errorf("should be > 0"))
	}
	if c.MaxInterval, err = dp.GetDuration(cfgKeyMaxInterval); err != nil {
		return err
	}
	if c.MaxInterval < c.Interval {
		return dp.WrapKeyErr(cfgKeyMaxInterval, fmt.Errorf("should be >= %s", c.Interval))
	}
	if c.MaxAttempts, err = dp.GetInt(cfgKeyMaxAttempts); err != nil {
		return err
	}
	if c.MaxAttempts < 0 {
		return dp.WrapKeyErr(cfgKeyMaxAttempts, fmt.Errorf("should be >= 0"))
	}
	return nil
}

// Policy returns a retry policy built from the configuration.
func (c *Config) Policy() Policy {
	if c.Strategy == StrategyConstant {
		return ConstantBackoffPolicy{Interval: c.Interval, MaxAttempts: c.MaxAttempts}
	}
	return ExponentialBackoffPolicy{InitialInterval: c.Interval, MaxInterval: c.MaxInterval, MaxAttempts: c.MaxAttempts}
}
