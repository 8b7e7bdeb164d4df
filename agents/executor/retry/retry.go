/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package retry runs model calls and webhook posts with capped exponential
// backoff.
package retry

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/chainguard-dev/clog"
)

// RetryConfig bounds how often and how long an operation is retried.
// A zero MaxRetries runs the operation once.
type RetryConfig struct {
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	// MaxJitter is the upper bound of the random delay added to each backoff.
	MaxJitter time.Duration
}

// Validate rejects negative fields.
func (c RetryConfig) Validate() error {
	var errs []error
	for name, v := range map[string]int64{
		"max retries":  int64(c.MaxRetries),
		"base backoff": int64(c.BaseBackoff),
		"max backoff":  int64(c.MaxBackoff),
		"max jitter":   int64(c.MaxJitter),
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s cannot be negative", name))
		}
	}
	return errors.Join(errs...)
}

// Backoff is the wait before retry number attempt+1, without jitter:
// BaseBackoff doubled per attempt and capped at MaxBackoff.
func (c RetryConfig) Backoff(attempt int) time.Duration {
	return min(c.BaseBackoff<<attempt, c.MaxBackoff)
}

func (c RetryConfig) jitter() time.Duration {
	if c.MaxJitter <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(c.MaxJitter)))
	if err != nil {
		return 0
	}
	return time.Duration(n.Int64())
}

// DefaultRetryConfig is used for model API calls, where quota errors take a
// while to clear.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  5,
		BaseBackoff: time.Second,
		MaxBackoff:  time.Minute,
		MaxJitter:   500 * time.Millisecond,
	}
}

// NotifyRetryConfig is used for worker notifications and result delivery:
// three attempts in total, waiting 1s then 2s, never more than 4s.
func NotifyRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  2,
		BaseBackoff: time.Second,
		MaxBackoff:  4 * time.Second,
	}
}

// Always treats every error as retryable.
func Always(err error) bool { return err != nil }

// RetryWithBackoff calls fn until it succeeds, returns an error isRetryable
// rejects, or cfg.MaxRetries retries are spent.
func RetryWithBackoff[T any](ctx context.Context, cfg RetryConfig, operation string, isRetryable func(error) bool, fn func() (T, error)) (T, error) {
	log := clog.FromContext(ctx).With("operation", operation)
	for attempt := 0; ; attempt++ {
		result, err := fn()
		switch {
		case err == nil:
			return result, nil
		case !isRetryable(err):
			return result, err
		case attempt >= cfg.MaxRetries:
			return result, fmt.Errorf("%s failed after %d retries: %w", operation, cfg.MaxRetries, err)
		}

		wait := cfg.Backoff(attempt) + cfg.jitter()
		log.With("attempt", attempt+1).
			With("max_retries", cfg.MaxRetries).
			With("backoff", wait).
			With("error", err.Error()).
			Warn("Transient failure, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
	}
}
