/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package retry_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"chainguard.dev/evalpanel/agents/executor/retry"
)

func fastConfig(maxRetries int) retry.RetryConfig {
	return retry.RetryConfig{
		MaxRetries:  maxRetries,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  5 * time.Millisecond,
		MaxJitter:   time.Millisecond,
	}
}

func TestRetryWithBackoff(t *testing.T) {
	transient := errors.New("503 overloaded")

	tests := []struct {
		name         string
		maxRetries   int
		failures     int32
		retryable    func(error) bool
		wantAttempts int32
		wantErr      bool
	}{{
		name:         "first try",
		maxRetries:   3,
		retryable:    retry.Always,
		wantAttempts: 1,
	}, {
		name:         "recovers",
		maxRetries:   3,
		failures:     2,
		retryable:    retry.Always,
		wantAttempts: 3,
	}, {
		name:         "exhausted",
		maxRetries:   2,
		failures:     10,
		retryable:    retry.Always,
		wantAttempts: 3,
		wantErr:      true,
	}, {
		name:         "not retryable",
		maxRetries:   3,
		failures:     10,
		retryable:    func(error) bool { return false },
		wantAttempts: 1,
		wantErr:      true,
	}, {
		name:         "zero retries",
		maxRetries:   0,
		failures:     10,
		retryable:    retry.Always,
		wantAttempts: 1,
		wantErr:      true,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			got, err := retry.RetryWithBackoff(context.Background(), fastConfig(tt.maxRetries), "op", tt.retryable, func() (string, error) {
				if attempts.Add(1) <= tt.failures {
					return "", transient
				}
				return "ok", nil
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("RetryWithBackoff() = %v, wanted error = %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, transient) {
				t.Errorf("RetryWithBackoff() = %v, wanted it to wrap %v", err, transient)
			}
			if !tt.wantErr && got != "ok" {
				t.Errorf("RetryWithBackoff() = %q, wanted = %q", got, "ok")
			}
			if n := attempts.Load(); n != tt.wantAttempts {
				t.Errorf("attempts = %d, wanted = %d", n, tt.wantAttempts)
			}
		})
	}
}

func TestRetryWithBackoffExhaustedMessage(t *testing.T) {
	_, err := retry.RetryWithBackoff(context.Background(), fastConfig(1), "deliver", retry.Always, func() (int, error) {
		return 0, errors.New("500")
	})
	if err == nil || !strings.HasPrefix(err.Error(), "deliver failed after 1 retries") {
		t.Errorf("RetryWithBackoff() = %v, wanted operation context", err)
	}
}

func TestRetryWithBackoffHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(5)
	cfg.BaseBackoff = time.Hour
	cfg.MaxBackoff = time.Hour

	_, err := retry.RetryWithBackoff(ctx, cfg, "op", retry.Always, func() (string, error) {
		cancel()
		return "", errors.New("429")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RetryWithBackoff() = %v, wanted %v", err, context.Canceled)
	}
}

func TestConfigs(t *testing.T) {
	if err := retry.DefaultRetryConfig().Validate(); err != nil {
		t.Errorf("DefaultRetryConfig().Validate() = %v", err)
	}

	n := retry.NotifyRetryConfig()
	if err := n.Validate(); err != nil {
		t.Errorf("NotifyRetryConfig().Validate() = %v", err)
	}
	if n.MaxRetries+1 != 3 {
		t.Errorf("notify attempts = %d, wanted = 3", n.MaxRetries+1)
	}
	if n.MaxBackoff != 4*time.Second {
		t.Errorf("notify MaxBackoff = %v, wanted = 4s", n.MaxBackoff)
	}

	bad := n
	bad.MaxRetries = -1
	if err := bad.Validate(); err == nil {
		t.Error("Validate() with negative retries succeeded, wanted error")
	}
}

func TestBackoff(t *testing.T) {
	cfg := retry.NotifyRetryConfig()
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{5, 4 * time.Second},
	}
	for _, tt := range tests {
		if got := cfg.Backoff(tt.attempt); got != tt.want {
			t.Errorf("Backoff(%d) = %v, wanted = %v", tt.attempt, got, tt.want)
		}
	}
}
