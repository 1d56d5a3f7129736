/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package retry

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"

	"github.com/acronis/go-cachemetrics/config"
)

func TestDoWithRetry(t *testing.T) {
	errTemporary := errors.New("temporary")
	errPermanent := errors.New("permanent")

	t.Run("succeeds after retries", func(t *testing.T) {
		var calls, notifications int
		err := DoWithRetry(context.Background(), ConstantBackoffPolicy{Interval: time.Millisecond, MaxAttempts: 5}, nil,
			func(err error, _ time.Duration) { notifications++ },
			func(ctx context.Context) error {
				calls++
				if calls < 3 {
					return errTemporary
				}
				return nil
			})
		require.NoError(t, err)
		require.Equal(t, 3, calls)
		require.Equal(t, 2, notifications)
	})

	t.Run("max attempts exceeded", func(t *testing.T) {
		var calls int
		err := DoWithRetry(context.Background(), ExponentialBackoffPolicy{InitialInterval: time.Millisecond, MaxAttempts: 2}, nil, nil,
			func(ctx context.Context) error {
				calls++
				return errTemporary
			})
		require.ErrorIs(t, err, errTemporary)
		require.Equal(t, 3, calls)
	})

	t.Run("not retryable error", func(t *testing.T) {
		var calls int
		isRetryable := func(err error) bool { return errors.Is(err, errTemporary) }
		err := DoWithRetry(context.Background(), ConstantBackoffPolicy{Interval: time.Millisecond}, isRetryable, nil,
			func(ctx context.Context) error {
				calls++
				return errPermanent
			})
		require.ErrorIs(t, err, errPermanent)
		require.Equal(t, 1, calls)
	})

	t.Run("context canceled", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*50)
		defer cancel()
		err := DoWithRetry(ctx, ConstantBackoffPolicy{Interval: time.Millisecond * 10}, nil, nil,
			func(ctx context.Context) error {
				return errTemporary
			})
		require.Error(t, err)
		require.NotNil(t, ctx.Err())
	})
}

func TestExponentialBackoffPolicy(t *testing.T) {
	b := ExponentialBackoffPolicy{InitialInterval: time.Second, MaxInterval: time.Second * 2, Multiplier: 2}.NewBackOff()
	eb, ok := b.(*backoff.ExponentialBackOff)
	require.True(t, ok)
	require.Zero(t, eb.MaxElapsedTime)
	require.Equal(t, time.Second*2, eb.MaxInterval)
	for i := 0; i < 10; i++ {
		require.NotEqual(t, backoff.Stop, b.NextBackOff())
	}
}

func TestConfig(t *testing.T) {
	load := func(cfgData string) (*Config, error) {
		dp := config.NewViperAdapter()
		if err := dp.SetFromReader(bytes.NewBufferString(cfgData), config.DataTypeYAML); err != nil {
			return nil, err
		}
		prefixed := config.NewKeyPrefixedDataProvider(dp, "open.retry")
		cfg := &Config{}
		cfg.SetProviderDefaults(prefixed)
		return cfg, cfg.Set(prefixed)
	}

	t.Run("default values", func(t *testing.T) {
		cfg, err := load("")
		require.NoError(t, err)
		require.Equal(t, &Config{
			Strategy:    StrategyExponential,
			Interval:    DefaultInterval,
			MaxInterval: DefaultMaxInterval,
			MaxAttempts: DefaultMaxAttempts,
		}, cfg)
		require.Equal(t, ExponentialBackoffPolicy{
			InitialInterval: DefaultInterval, MaxInterval: DefaultMaxInterval, MaxAttempts: DefaultMaxAttempts,
		}, cfg.Policy())
	})

	t.Run("constant strategy", func(t *testing.T) {
		cfg, err := load("open:\n  retry:\n    strategy: Constant\n    interval: 1s\n    maxAttempts: 0\n")
		require.NoError(t, err)
		require.Equal(t, ConstantBackoffPolicy{Interval: time.Second}, cfg.Policy())
	})

	t.Run("errors", func(t *testing.T) {
		_, err := load("open:\n  retry:\n    strategy: linear\n")
		require.EqualError(t, err, `open.retry.strategy: unknown value "linear", should be one of [exponential constant]`)

		_, err = load("open:\n  retry:\n    interval: 0s\n")
		require.EqualError(t, err, "open.retry.interval: should be > 0")

		_, err = load("open:\n  retry:\n    interval: 1m\n")
		require.EqualError(t, err, "open.retry.maxInterval: should be >= 1m0s")

		_, err = load("open:\n  retry:\n    maxAttempts: -1\n")
		require.EqualError(t, err, "open.retry.maxAttempts: should be >= 0")
	})
}
