/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package executor defines the contract every model backend implements.
//
// A backend runs one conversation: a system prompt, a user prompt and an
// optional tool set. Tool calls are answered in a loop until the model
// replies with text or the turn budget runs out. The claudeexecutor and
// googleexecutor subpackages implement it on the Anthropic and genai SDKs.
package executor

import (
	"context"
	"errors"

	"chainguard.dev/evalpanel/agents/toolcall"
)

// ErrMaxTurns is returned when the model is still calling tools after the
// turn budget is spent.
var ErrMaxTurns = errors.New("model did not finish within its turn budget")

// ErrNoContent is returned when the model's final turn carries no text.
var ErrNoContent = errors.New("no text content in model response")

// Request is one model conversation.
type Request struct {
	System string
	Prompt string
	// MaxTurns bounds the number of model responses. Values below one mean a
	// single response.
	MaxTurns int
	Tools    []toolcall.Tool
}

// Turns is MaxTurns with the lower bound applied.
func (r *Request) Turns() int {
	return max(r.MaxTurns, 1)
}

// Interface is implemented by every model backend.
type Interface interface {
	// Generate runs the conversation and returns the model's final text.
	Generate(ctx context.Context, req *Request) (string, error)
	// Model names the model requests are sent to.
	Model() string
}

// Func adapts a function to Interface, for tests and scripted backends.
type Func func(ctx context.Context, req *Request) (string, error)

// Generate implements Interface.
func (f Func) Generate(ctx context.Context, req *Request) (string, error) { return f(ctx, req) }

// Model implements Interface.
func (Func) Model() string { return "func" }
