/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package googletool converts provider-neutral tools to and from the genai
// SDK's types.
package googletool

import (
	"maps"

	"chainguard.dev/evalpanel/agents/toolcall"
	"google.golang.org/genai"
)

var schemaTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"integer": genai.TypeInteger,
	"number":  genai.TypeNumber,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
	"object":  genai.TypeObject,
}

// Declaration converts a tool definition to a Gemini function declaration.
func Declaration(def toolcall.Definition) *genai.FunctionDeclaration {
	properties := make(map[string]*genai.Schema, len(def.Parameters))
	for _, p := range def.Parameters {
		typ, ok := schemaTypes[p.Type]
		if !ok {
			typ = genai.TypeString
		}
		s := &genai.Schema{Type: typ, Description: p.Description, Enum: p.Enum}
		if typ == genai.TypeArray {
			s.Items = &genai.Schema{Type: genai.TypeString}
		}
		properties[p.Name] = s
	}
	return &genai.FunctionDeclaration{
		Name:        def.Name,
		Description: def.Description,
		Parameters: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: properties,
			Required:   def.RequiredNames(),
		},
	}
}

// Declarations converts tools to a single genai tool carrying every
// declaration, or nil when there are none.
func Declarations(tools []toolcall.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, Declaration(t.Def))
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// Call converts a Gemini function call to a provider-neutral call.
func Call(fc *genai.FunctionCall) toolcall.ToolCall {
	args := maps.Clone(fc.Args)
	if args == nil {
		args = map[string]any{}
	}
	return toolcall.ToolCall{ID: fc.ID, Name: fc.Name, Args: args}
}

// Response wraps a tool response for the function call it answers.
func Response(fc *genai.FunctionCall, response map[string]any) *genai.FunctionResponse {
	return &genai.FunctionResponse{ID: fc.ID, Name: fc.Name, Response: response}
}
