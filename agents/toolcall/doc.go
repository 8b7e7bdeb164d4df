/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package toolcall defines tools once, independent of the model provider.
//
// A [Tool] pairs a [Definition] with a handler that receives a [ToolCall] and
// returns the map sent back to the model. The claudetool and googletool
// subpackages convert definitions and calls to and from each SDK's types, so
// the browser tools a judge uses work unchanged on Claude and Gemini.
//
//	tool := toolcall.Tool{
//		Def: toolcall.Definition{
//			Name:        "navigateTo",
//			Description: "Open a URL in the browser session.",
//			Parameters: []toolcall.Parameter{
//				{Name: "url", Type: "string", Description: "Absolute URL", Required: true},
//			},
//		},
//		Handler: func(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace) map[string]any {
//			url, errResp := toolcall.Param[string](call, trace, "url")
//			if errResp != nil {
//				return errResp
//			}
//			...
//		},
//	}
package toolcall
