/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package retry runs operations that may fail temporarily (e.g. opening an access log that is not rotated in yet)
// with exponential or constant backoff.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// IsRetryable defines a func that can tell if error is retryable as opposed to persistent.
type IsRetryable func(error) bool

// RetryableFunc is function that does some work and can be potentially retried.
type RetryableFunc func(ctx context.Context) error

// Notify is called on every failed attempt that is going to be retried, with the error and the delay before retry.
type Notify = backoff.Notify

// Policy defines backoff strategy.
type Policy interface {
	NewBackOff() backoff.BackOff
}

// DoWithRetry executes fn with retry according to policy p and with respect to context ctx.
// IsRetryable defines which errors lead to retry attempt (can be nil for any error).
// Notify can be nil if no notifications required.
func DoWithRetry(ctx context.Context, p Policy, isRetryable IsRetryable, notify Notify, fn RetryableFunc) error {
	bctx := backoff.WithContext(p.NewBackOff(), ctx)
	op := func() error {
		err := fn(bctx.Context())
		if err != nil && isRetryable != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.RetryNotify(op, bctx, notify)
}

// ExponentialBackoffPolicy means repeat up to MaxAttempts times with exponentially growing delays.
type ExponentialBackoffPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration // zero means backoff.DefaultMaxInterval
	Multiplier      float64       // zero means backoff.DefaultMultiplier
	MaxAttempts     int           // zero means no limit
}

// NewBackOff implements retry.Policy.
// There is no limit on the total elapsed time, only on the number of attempts.
func (p ExponentialBackoffPolicy) NewBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	if p.Multiplier > 0 {
		eb.Multiplier = p.Multiplier
	}
	eb.MaxElapsedTime = 0
	return withMaxAttempts(eb, p.MaxAttempts)
}

// ConstantBackoffPolicy means repeat up to MaxAttempts times with constant interval delays.
type ConstantBackoffPolicy struct {
	Interval    time.Duration
	MaxAttempts int // zero means no limit
}

// NewBackOff implements retry.Policy.
func (p ConstantBackoffPolicy) NewBackOff() backoff.BackOff {
	return withMaxAttempts(backoff.NewConstantBackOff(p.Interval), p.MaxAttempts)
}

func withMaxAttempts(b backoff.BackOff, maxAttempts int) backoff.BackOff {
	if maxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(maxAttempts))
	}
	b.Reset()
	return b
}
