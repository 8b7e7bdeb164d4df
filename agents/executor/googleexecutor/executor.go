/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package googleexecutor runs model conversations on Gemini through the genai
// SDK.
package googleexecutor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chainguard.dev/evalpanel/agents/agenttrace"
	"chainguard.dev/evalpanel/agents/executor"
	"chainguard.dev/evalpanel/agents/executor/retry"
	"chainguard.dev/evalpanel/agents/metrics"
	"chainguard.dev/evalpanel/agents/toolcall"
	"chainguard.dev/evalpanel/agents/toolcall/googletool"
	"github.com/chainguard-dev/clog"
	"google.golang.org/genai"
)

// Executor implements executor.Interface on a genai client.
type Executor struct {
	client          *genai.Client
	model           string
	temperature     float32
	maxOutputTokens int32
	thinkingBudget  *int32 // nil = disabled
	genaiMetrics    *metrics.GenAI
	retryConfig     retry.RetryConfig
}

var _ executor.Interface = (*Executor)(nil)

// New creates an Executor.
func New(client *genai.Client, opts ...Option) (*Executor, error) {
	if client == nil {
		return nil, errors.New("client is required")
	}
	e := &Executor{
		client:          client,
		model:           "gemini-2.5-flash",
		temperature:     0.1,
		maxOutputTokens: 8192,
		genaiMetrics:    metrics.NewGenAI(metrics.MeterName),
		retryConfig:     retry.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return e, nil
}

// Model implements executor.Interface.
func (e *Executor) Model() string { return e.model }

// Generate implements executor.Interface.
func (e *Executor) Generate(ctx context.Context, req *executor.Request) (text string, err error) {
	log := clog.FromContext(ctx).With("model", e.model)

	trace := agenttrace.StartTrace(ctx, req.Prompt)
	defer func() {
		trace.Complete(text, err)
	}()

	tools := toolcall.Index(req.Tools)
	config := &genai.GenerateContentConfig{
		Temperature:     ptr(e.temperature),
		MaxOutputTokens: e.maxOutputTokens,
		Tools:           googletool.Declarations(req.Tools),
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if e.thinkingBudget != nil {
		config.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  e.thinkingBudget,
		}
	}

	history := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: req.Prompt}},
	}}

	for turn := 1; turn <= req.Turns(); turn++ {
		start := time.Now()
		response, err := retry.RetryWithBackoff(ctx, e.retryConfig, "generate_content", retryable, func() (*genai.GenerateContentResponse, error) {
			return e.client.Models.GenerateContent(ctx, e.model, history, config)
		})
		e.genaiMetrics.RecordRequest(ctx, e.model, time.Since(start), err)
		if err != nil {
			return "", fmt.Errorf("gemini request: %w", err)
		}
		if usage := response.UsageMetadata; usage != nil {
			e.genaiMetrics.RecordTokens(ctx, e.model, int64(usage.PromptTokenCount), int64(usage.CandidatesTokenCount))
			trace.RecordTokenUsage(e.model, int64(usage.PromptTokenCount), int64(usage.CandidatesTokenCount))
		}

		if len(response.Candidates) == 0 {
			return "", errors.New("no content generated - no candidates")
		}
		candidate := response.Candidates[0]

		if candidate.FinishReason == genai.FinishReasonMalformedFunctionCall {
			log.With("finish_message", candidate.FinishMessage).
				Warn("Model attempted a malformed function call, asking it to retry")
			history = append(history, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{{
					Text: fmt.Sprintf("The function call was malformed. Please try again using the available functions: %v", toolNames(req.Tools)),
				}},
			})
			continue
		}
		if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
			return "", executor.ErrNoContent
		}

		var texts []string
		var calls []*genai.FunctionCall
		for _, part := range candidate.Content.Parts {
			switch {
			case part.Thought:
				trace.Reasoning = append(trace.Reasoning, agenttrace.ReasoningContent{Thinking: part.Text})
			case part.FunctionCall != nil:
				calls = append(calls, part.FunctionCall)
			case part.Text != "":
				texts = append(texts, part.Text)
			}
		}

		if len(calls) == 0 {
			text = strings.TrimSpace(strings.Join(texts, "\n"))
			if text == "" {
				return "", executor.ErrNoContent
			}
			log.With("turns", turn).Debug("Gemini conversation complete")
			return text, nil
		}

		history = append(history, candidate.Content)
		responses := make([]*genai.Part, 0, len(calls))
		for _, fc := range calls {
			e.genaiMetrics.RecordToolCall(ctx, e.model, fc.Name)
			out := toolcall.Invoke(ctx, tools, googletool.Call(fc), trace)
			responses = append(responses, &genai.Part{FunctionResponse: googletool.Response(fc, out)})
		}
		history = append(history, &genai.Content{Role: "user", Parts: responses})
	}

	return "", fmt.Errorf("%w (%d turns)", executor.ErrMaxTurns, req.Turns())
}

func toolNames(tools []toolcall.Tool) []string {
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Def.Name)
	}
	return names
}

func ptr[T any](v T) *T {
	return &v
}
