/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package googleexecutor

import (
	"fmt"
	"strings"

	"chainguard.dev/evalpanel/agents/executor/retry"
	"chainguard.dev/evalpanel/agents/metrics"
)

// Option is a functional option for configuring an executor
type Option func(*Executor) error

// WithModel sets the model to use for generation
func WithModel(model string) Option {
	return func(e *Executor) error {
		if !strings.HasPrefix(model, "gemini-") {
			return fmt.Errorf("model %q does not appear to be a Gemini model (expected gemini-* format)", model)
		}
		e.model = model
		return nil
	}
}

// WithTemperature sets the temperature for generation. Gemini accepts 0 to 2.
func WithTemperature(temperature float32) Option {
	return func(e *Executor) error {
		if temperature < 0.0 || temperature > 2.0 {
			return fmt.Errorf("temperature must be between 0.0 and 2.0, got %f", temperature)
		}
		e.temperature = temperature
		return nil
	}
}

// WithMaxOutputTokens sets the maximum output tokens for generation
func WithMaxOutputTokens(tokens int32) Option {
	return func(e *Executor) error {
		if tokens <= 0 {
			return fmt.Errorf("max output tokens must be positive, got %d", tokens)
		}
		if tokens > 32768 {
			return fmt.Errorf("max output tokens %d exceeds maximum of 32768", tokens)
		}
		e.maxOutputTokens = tokens
		return nil
	}
}

// WithThinking enables thought output with the given budget.
func WithThinking(budgetTokens int32) Option {
	return func(e *Executor) error {
		if budgetTokens <= 0 {
			return fmt.Errorf("thinking budget must be positive, got %d", budgetTokens)
		}
		e.thinkingBudget = &budgetTokens
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

// WithRetryConfig sets the retry policy for quota and transient errors.
func WithRetryConfig(cfg retry.RetryConfig) Option {
	return func(e *Executor) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		e.retryConfig = cfg
		return nil
	}
}
