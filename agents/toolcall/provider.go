/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import (
	"context"
	"fmt"

	"chainguard.dev/evalpanel/agents/agenttrace"
	"chainguard.dev/evalpanel/agents/toolcall/params"
	"github.com/chainguard-dev/clog"
)

// ToolProvider supplies tools for an agent call.
type ToolProvider interface {
	Tools() []Tool
}

// Index keys tools by name. Later tools win on duplicate names.
func Index(tools []Tool) map[string]Tool {
	out := make(map[string]Tool, len(tools))
	for _, t := range tools {
		out[t.Def.Name] = t
	}
	return out
}

// Invoke dispatches call to its handler. Unknown tools are recorded as bad
// tool calls and answered with an error the model can read.
func Invoke(ctx context.Context, tools map[string]Tool, call ToolCall, trace *agenttrace.Trace) map[string]any {
	tool, ok := tools[call.Name]
	if !ok {
		clog.FromContext(ctx).With("tool", call.Name).Warn("Unknown tool requested")
		err := fmt.Errorf("unknown tool: %q", call.Name)
		trace.BadToolCall(call.ID, call.Name, call.Args, err)
		return params.Error("%s", err)
	}
	return tool.Handler(ctx, call, trace)
}
