/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package claudetool converts provider-neutral tools to and from the
// Anthropic SDK's types.
package claudetool

import (
	"encoding/json"
	"fmt"

	"chainguard.dev/evalpanel/agents/toolcall"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
)

// Definition converts a tool definition to an Anthropic tool parameter.
func Definition(def toolcall.Definition) anthropic.ToolParam {
	properties := make(map[string]any, len(def.Parameters))
	for _, p := range def.Parameters {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		properties[p.Name] = prop
	}
	return anthropic.ToolParam{
		Name:        def.Name,
		Description: anthropic.String(def.Description),
		InputSchema: anthropic.ToolInputSchemaParam{
			Type:       constant.Object("object"),
			Properties: properties,
			Required:   def.RequiredNames(),
		},
	}
}

// Definitions converts tools to the union form the Messages API accepts.
func Definitions(tools []toolcall.Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		param := Definition(t.Def)
		out = append(out, anthropic.ToolUnionParam{OfTool: &param})
	}
	return out
}

// Call converts a tool use block to a provider-neutral call.
func Call(block anthropic.ToolUseBlock) (toolcall.ToolCall, error) {
	call := toolcall.ToolCall{ID: block.ID, Name: block.Name, Args: map[string]any{}}
	if len(block.Input) == 0 {
		return call, nil
	}
	if err := json.Unmarshal(block.Input, &call.Args); err != nil {
		return call, fmt.Errorf("parse input of tool %q: %w", block.Name, err)
	}
	if call.Args == nil {
		call.Args = map[string]any{}
	}
	return call, nil
}

// Result wraps a tool response as a tool_result content block.
func Result(toolUseID string, response map[string]any) (anthropic.ContentBlockParamUnion, error) {
	b, err := json.Marshal(response)
	if err != nil {
		return anthropic.ContentBlockParamUnion{}, fmt.Errorf("marshal tool result: %w", err)
	}
	return anthropic.ContentBlockParamUnion{
		OfToolResult: &anthropic.ToolResultBlockParam{
			ToolUseID: toolUseID,
			Content: []anthropic.ToolResultBlockParamContentUnion{{
				OfText: &anthropic.TextBlockParam{Text: string(b)},
			}},
		},
	}, nil
}
