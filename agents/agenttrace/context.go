/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// ExecutionContext identifies which part of an evaluation run an agent call
// belongs to.
type ExecutionContext struct {
	RunID      string `json:"run_id,omitempty"`
	Phase      string `json:"phase,omitempty"`   // "plan", "research", "evaluate" or "report"
	Project    string `json:"project,omitempty"` // Project under evaluation, if any
	Judge      string `json:"judge,omitempty"`   // Judge persona, if any
	TurnNumber int    `json:"turn_number,omitempty"`
}

// EnrichAttributes adds execution context attributes to the provided base
// attributes. Only bounded labels are added: run and project names stay on
// spans, not metrics.
func (e ExecutionContext) EnrichAttributes(baseAttrs []attribute.KeyValue) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, len(baseAttrs), len(baseAttrs)+3)
	copy(attrs, baseAttrs)

	if e.Phase != "" {
		attrs = append(attrs, attribute.String("phase", e.Phase))
	}
	if e.Judge != "" {
		attrs = append(attrs, attribute.String("judge", e.Judge))
	}
	return append(attrs, attribute.Int("turn", e.TurnNumber))
}

// spanAttributes are the attributes recorded on the agent span.
func (e ExecutionContext) spanAttributes() []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for k, v := range map[string]string{
		"run_id":  e.RunID,
		"phase":   e.Phase,
		"project": e.Project,
		"judge":   e.Judge,
	} {
		if v != "" {
			attrs = append(attrs, attribute.String(k, v))
		}
	}
	return attrs
}

type contextKey struct{}

// WithExecutionContext adds execution context to the Go context
func WithExecutionContext(ctx context.Context, execCtx ExecutionContext) context.Context {
	return context.WithValue(ctx, contextKey{}, execCtx)
}

// GetExecutionContext retrieves execution context from the Go context
func GetExecutionContext(ctx context.Context) ExecutionContext {
	if execCtx, ok := ctx.Value(contextKey{}).(ExecutionContext); ok {
		return execCtx
	}
	return ExecutionContext{}
}

// Scope derives a context whose execution context has the non-empty fields of
// overlay applied on top of the current one.
func Scope(ctx context.Context, overlay ExecutionContext) context.Context {
	cur := GetExecutionContext(ctx)
	if overlay.RunID != "" {
		cur.RunID = overlay.RunID
	}
	if overlay.Phase != "" {
		cur.Phase = overlay.Phase
	}
	if overlay.Project != "" {
		cur.Project = overlay.Project
	}
	if overlay.Judge != "" {
		cur.Judge = overlay.Judge
	}
	if overlay.TurnNumber != 0 {
		cur.TurnNumber = overlay.TurnNumber
	}
	return WithExecutionContext(ctx, cur)
}
