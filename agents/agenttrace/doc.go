/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package agenttrace provides tracing infrastructure for AI agent interactions.

Every model call made during an evaluation run opens a [Trace]. Tool calls the
model makes within that call are recorded as [ToolCall] children, and each
trace is mirrored to an OpenTelemetry span.

An [ExecutionContext] carried on the Go context says which run, phase,
project and judge the call belongs to:

	ctx = agenttrace.Scope(ctx, agenttrace.ExecutionContext{
		Phase:   "evaluate",
		Project: "Alpha",
		Judge:   "ux_judge",
	})

Completed traces go to the [Tracer] installed with [WithTracer]. Without one,
traces are logged at debug level.

	ctx = agenttrace.WithTracer(ctx, agenttrace.ByCode(func(tr *agenttrace.Trace) {
		log.Printf("trace %s took %v", tr.ID, tr.Duration())
	}))
*/
package agenttrace
