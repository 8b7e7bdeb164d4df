/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// ReasoningContent is a thinking block returned by the model.
type ReasoningContent struct {
	Thinking string `json:"thinking"`
}

// ToolCall is one browser or research tool invocation made by a judge.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Params    map[string]any `json:"params"`
	Result    any            `json:"result"`
	Error     error          `json:"error,omitempty"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`

	mu    sync.Mutex
	trace *Trace
	span  oteltrace.Span
}

// Trace is one planner, research, judge or report call, from prompt to
// final text.
type Trace struct {
	ID          string             `json:"id"`
	InputPrompt string             `json:"input_prompt"`
	ExecContext ExecutionContext   `json:"exec_context,omitempty"`
	ToolCalls   []*ToolCall        `json:"tool_calls"`
	Reasoning   []ReasoningContent `json:"reasoning,omitempty"`
	Result      string             `json:"result"`
	Error       error              `json:"error,omitempty"`
	StartTime   time.Time          `json:"start_time"`
	EndTime     time.Time          `json:"end_time"`

	mu     sync.Mutex
	tracer Tracer
	ctx    context.Context
	span   oteltrace.Span
}

func newTrace(ctx context.Context, tracer Tracer, prompt string) *Trace {
	exec := GetExecutionContext(ctx)
	ctx, span := otelTracer().Start(ctx, "evalpanel.agent."+spanPhase(exec.Phase),
		oteltrace.WithAttributes(attribute.Int("agent.prompt_length", len(prompt))),
		oteltrace.WithAttributes(exec.spanAttributes()...))
	return &Trace{
		ID:          uuid.NewString(),
		InputPrompt: prompt,
		ExecContext: exec,
		ToolCalls:   []*ToolCall{},
		StartTime:   time.Now(),
		tracer:      tracer,
		ctx:         ctx,
		span:        span,
	}
}

func spanPhase(phase string) string {
	if phase == "" {
		return "call"
	}
	return phase
}

// StartToolCall opens a child span for a tool call. The call joins the
// trace when it completes.
func (t *Trace) StartToolCall(id, name string, params map[string]any) *ToolCall {
	_, span := otelTracer().Start(t.ctx, "evalpanel.tool."+name, oteltrace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("tool.id", id),
	))
	return &ToolCall{ID: id, Name: name, Params: params, StartTime: time.Now(), trace: t, span: span}
}

// BadToolCall records a call the model made with an unknown tool name or
// unusable arguments.
func (t *Trace) BadToolCall(id, name string, params map[string]any, err error) {
	tc := t.StartToolCall(id, name, params)
	tc.Complete(nil, err)
}

// RecordTokenUsage puts the model and its token counts on the trace span.
func (t *Trace) RecordTokenUsage(model string, inputTokens, outputTokens int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.span.SetAttributes(
		attribute.String("model", model),
		attribute.Int64("tokens.input", inputTokens),
		attribute.Int64("tokens.output", outputTokens),
		attribute.Int64("tokens.total", inputTokens+outputTokens),
	)
}

// Complete ends the tool call span and appends the call to its trace.
func (tc *ToolCall) Complete(result any, err error) {
	tc.mu.Lock()
	tc.Result, tc.Error, tc.EndTime = result, err, time.Now()
	tc.mu.Unlock()
	endSpan(tc.span, err)

	tc.trace.mu.Lock()
	defer tc.trace.mu.Unlock()
	tc.trace.ToolCalls = append(tc.trace.ToolCalls, tc)
}

// Duration is the time the tool call took, or has taken so far.
func (tc *ToolCall) Duration() time.Duration {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return elapsed(tc.StartTime, tc.EndTime)
}

// Complete ends the trace and hands it to the tracer.
func (t *Trace) Complete(result string, err error) {
	t.mu.Lock()
	t.Result, t.Error, t.EndTime = result, err, time.Now()
	t.mu.Unlock()
	endSpan(t.span, err)
	t.tracer.RecordTrace(t)
}

// Duration is the time the call took, or has taken so far.
func (t *Trace) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return elapsed(t.StartTime, t.EndTime)
}

// String renders the trace for debug logs.
func (t *Trace) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== %s trace %s", spanPhase(t.ExecContext.Phase), t.ID)
	if who := strings.Trim(t.ExecContext.Project+" / "+t.ExecContext.Judge, " /"); who != "" {
		fmt.Fprintf(&sb, " (%s)", who)
	}
	fmt.Fprintf(&sb, " ===\nPrompt: %q\nDuration: %v\n", truncate(t.InputPrompt, 200), elapsed(t.StartTime, t.EndTime))

	if len(t.Reasoning) > 0 {
		fmt.Fprintf(&sb, "\nReasoning (%d blocks):\n", len(t.Reasoning))
		for i, r := range t.Reasoning {
			fmt.Fprintf(&sb, "  [%d] %s\n", i+1, truncate(r.Thinking, 200))
		}
	}

	fmt.Fprintf(&sb, "\nTool calls (%d):\n", len(t.ToolCalls))
	for i, tc := range t.ToolCalls {
		fmt.Fprintf(&sb, "  [%d] %s %v (%s)\n", i+1, tc.Name, tc.Params, elapsed(tc.StartTime, tc.EndTime))
		switch {
		case tc.Error != nil:
			fmt.Fprintf(&sb, "      error: %v\n", tc.Error)
		case tc.Result != nil:
			fmt.Fprintf(&sb, "      result: %s\n", truncate(fmt.Sprint(tc.Result), 200))
		}
	}

	if t.Error != nil {
		fmt.Fprintf(&sb, "\nError: %v\n", t.Error)
	} else {
		fmt.Fprintf(&sb, "\nResult: %s\n", truncate(t.Result, 500))
	}
	return sb.String()
}

func endSpan(span oteltrace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func elapsed(start, end time.Time) time.Duration {
	if end.IsZero() {
		return time.Since(start)
	}
	return end.Sub(start)
}

func otelTracer() oteltrace.Tracer {
	return otel.Tracer("chainguard.dev/evalpanel/agents/agenttrace")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
