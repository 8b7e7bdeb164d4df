/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package claudeexecutor runs model conversations on the Anthropic Messages
// API, either directly or through Vertex AI.
package claudeexecutor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chainguard.dev/evalpanel/agents/agenttrace"
	"chainguard.dev/evalpanel/agents/executor"
	"chainguard.dev/evalpanel/agents/executor/retry"
	"chainguard.dev/evalpanel/agents/metrics"
	"chainguard.dev/evalpanel/agents/toolcall"
	"chainguard.dev/evalpanel/agents/toolcall/claudetool"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel/attribute"
)

// Executor implements executor.Interface on an Anthropic client.
type Executor struct {
	client               anthropic.Client
	modelName            string
	maxTokens            int64
	temperature          float64
	thinkingBudgetTokens *int64 // nil = disabled
	genaiMetrics         *metrics.GenAI
	retryConfig          retry.RetryConfig
	resourceLabels       map[string]string
}

var _ executor.Interface = (*Executor)(nil)

// New creates an Executor. The client carries authentication: an API key
// for the direct API or vertex.WithGoogleAuth for Vertex AI.
func New(client anthropic.Client, opts ...Option) (*Executor, error) {
	e := &Executor{
		client:       client,
		modelName:    "claude-sonnet-4-5-20250929",
		maxTokens:    8192,
		temperature:  0.1,
		genaiMetrics: metrics.NewGenAI(metrics.MeterName),
		retryConfig:  retry.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return e, nil
}

// Model implements executor.Interface.
func (e *Executor) Model() string { return e.modelName }

// Generate implements executor.Interface.
func (e *Executor) Generate(ctx context.Context, req *executor.Request) (text string, err error) {
	log := clog.FromContext(ctx).With("model", e.modelName)

	trace := agenttrace.StartTrace(ctx, req.Prompt)
	defer func() {
		trace.Complete(text, err)
	}()

	tools := toolcall.Index(req.Tools)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(e.modelName),
		MaxTokens: e.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Tools:       claudetool.Definitions(req.Tools),
		Temperature: anthropic.Float(e.temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if e.thinkingBudgetTokens != nil {
		// Extended thinking requires a temperature of 1.
		params.Temperature = anthropic.Float(1.0)
		params.Thinking = anthropic.ThinkingConfigParamUnion{
			OfEnabled: &anthropic.ThinkingConfigEnabledParam{
				BudgetTokens: *e.thinkingBudgetTokens,
			},
		}
	}

	log.With("prompt_length", len(req.Prompt)).
		With("tools", len(req.Tools)).
		Debug("Starting Claude conversation")

	for turn := 1; turn <= req.Turns(); turn++ {
		start := time.Now()
		message, err := retry.RetryWithBackoff(ctx, e.retryConfig, "create_message", retryable, func() (*anthropic.Message, error) {
			return e.client.Messages.New(ctx, params)
		})
		e.genaiMetrics.RecordRequest(ctx, e.modelName, time.Since(start), err)
		if err != nil {
			return "", fmt.Errorf("claude request: %w", err)
		}

		if message.Usage.InputTokens > 0 || message.Usage.OutputTokens > 0 {
			e.genaiMetrics.RecordTokens(ctx, e.modelName, message.Usage.InputTokens, message.Usage.OutputTokens, e.labels()...)
			trace.RecordTokenUsage(e.modelName, message.Usage.InputTokens, message.Usage.OutputTokens)
		}

		var texts []string
		var toolUses []anthropic.ToolUseBlock
		for _, content := range message.Content {
			switch content.Type {
			case "text":
				texts = append(texts, content.Text)
			case "tool_use":
				toolUses = append(toolUses, anthropic.ToolUseBlock{
					ID:    content.ID,
					Name:  content.Name,
					Input: content.Input,
				})
			case "thinking", "redacted_thinking":
				trace.Reasoning = append(trace.Reasoning, agenttrace.ReasoningContent{
					Thinking: content.Thinking,
				})
			}
		}

		if len(toolUses) == 0 {
			text = strings.TrimSpace(strings.Join(texts, "\n"))
			if text == "" {
				return "", executor.ErrNoContent
			}
			log.With("turns", turn).Debug("Claude conversation complete")
			return text, nil
		}

		params.Messages = append(params.Messages, message.ToParam())
		results := make([]anthropic.ContentBlockParamUnion, 0, len(toolUses))
		for _, use := range toolUses {
			e.genaiMetrics.RecordToolCall(ctx, e.modelName, use.Name, e.labels()...)

			var response map[string]any
			call, err := claudetool.Call(use)
			if err != nil {
				trace.BadToolCall(use.ID, use.Name, nil, err)
				response = map[string]any{"error": err.Error()}
			} else {
				response = toolcall.Invoke(ctx, tools, call, trace)
			}
			block, err := claudetool.Result(use.ID, response)
			if err != nil {
				return "", err
			}
			results = append(results, block)
		}
		params.Messages = append(params.Messages, anthropic.NewUserMessage(results...))
	}

	return "", fmt.Errorf("%w (%d turns)", executor.ErrMaxTurns, req.Turns())
}

func (e *Executor) labels() []attribute.KeyValue {
	if len(e.resourceLabels) == 0 {
		return nil
	}
	attrs := make([]attribute.KeyValue, 0, len(e.resourceLabels))
	for k, v := range e.resourceLabels {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}
