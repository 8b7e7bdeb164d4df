/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package claudeexecutor

import (
	"fmt"
	"strings"

	"chainguard.dev/evalpanel/agents/executor/retry"
	"chainguard.dev/evalpanel/agents/metrics"
)

// Option is a functional option for configuring the executor
type Option func(*Executor) error

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(e *Executor) error {
		if !strings.HasPrefix(model, "claude-") {
			return fmt.Errorf("model %q does not appear to be a Claude model (expected claude-* format)", model)
		}
		e.modelName = model
		return nil
	}
}

// WithMaxTokens sets the maximum tokens for responses
func WithMaxTokens(tokens int64) Option {
	return func(e *Executor) error {
		if tokens <= 0 {
			return fmt.Errorf("max tokens must be positive, got %d", tokens)
		}
		if tokens > 32000 {
			return fmt.Errorf("max tokens %d exceeds maximum of 32000", tokens)
		}
		e.maxTokens = tokens
		return nil
	}
}

// WithTemperature sets the sampling temperature, between 0 and 1.
func WithTemperature(temp float64) Option {
	return func(e *Executor) error {
		if temp < 0.0 || temp > 1.0 {
			return fmt.Errorf("temperature must be between 0.0 and 1.0, got %f", temp)
		}
		e.temperature = temp
		return nil
	}
}

// WithThinking enables extended thinking with the given token budget, which
// must be at least 1024 and below max tokens.
func WithThinking(budgetTokens int64) Option {
	return func(e *Executor) error {
		if budgetTokens < 1024 {
			return fmt.Errorf("thinking budget_tokens must be at least 1024, got %d", budgetTokens)
		}
		if budgetTokens >= e.maxTokens {
			return fmt.Errorf("thinking budget_tokens (%d) must be less than max_tokens (%d)", budgetTokens, e.maxTokens)
		}
		e.thinkingBudgetTokens = &budgetTokens
		return nil
	}
}

// WithAttributeEnricher replaces the metric attribute enricher.
func WithAttributeEnricher(enricher metrics.AttributeEnricher) Option {
	return func(e *Executor) error {
		e.genaiMetrics.SetAttributeEnricher(enricher)
		return nil
	}
}

// WithRetryConfig sets the retry policy for 429, 503, 504 and 529 responses.
func WithRetryConfig(cfg retry.RetryConfig) Option {
	return func(e *Executor) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		e.retryConfig = cfg
		return nil
	}
}

// WithResourceLabels adds labels to every token and tool call metric.
func WithResourceLabels(labels map[string]string) Option {
	return func(e *Executor) error {
		e.resourceLabels = labels
		return nil
	}
}
