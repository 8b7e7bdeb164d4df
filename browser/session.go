/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package browser lets judges inspect a project's live page.
//
// A [Session] is one remote browsing context. Sessions are expensive to open,
// so a [Pool] lends a bounded number of them across judge runs. [Tools]
// exposes a session to a model as five tools: navigateTo, observePage,
// extractData, interact and takeScreenshot.
package browser

import "context"

// Observation is one thing a session sees on the current page.
type Observation struct {
	Description string `json:"description"`
	Selector    string `json:"selector,omitempty"`
}

// Session is a stateful browsing context. A session is used by one caller at
// a time.
type Session interface {
	// Navigate loads url as the current page.
	Navigate(ctx context.Context, url string) error
	// Observe describes the elements visible on the current page.
	Observe(ctx context.Context) ([]Observation, error)
	// Extract returns data from the current page matching a natural language
	// instruction.
	Extract(ctx context.Context, instruction string) (any, error)
	// Act performs a natural language action such as following a link.
	Act(ctx context.Context, instruction string) error
	// Screenshot captures the current page to path and returns the path
	// actually written.
	Screenshot(ctx context.Context, path string) (string, error)
	Close(ctx context.Context) error
}

// Factory opens a new session.
type Factory func(ctx context.Context) (Session, error)
