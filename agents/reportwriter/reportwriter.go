/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package reportwriter produces the per-project markdown reports and the
// run's rankings summary.
package reportwriter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/evalpanel/agents/agenttrace"
	"chainguard.dev/evalpanel/agents/executor"
	"chainguard.dev/evalpanel/agents/promptbuilder"
	"chainguard.dev/evalpanel/panel"
	"github.com/chainguard-dev/clog"
)

// ErrEmptyReport is returned when the model answers with no text.
var ErrEmptyReport = errors.New("empty report")

// Request is one project's report input.
type Request struct {
	Scores panel.ProjectScores
	Plan   *panel.Plan
}

// Interface writes a deep report for one project.
type Interface interface {
	Write(ctx context.Context, req *Request) (string, error)
}

type writer struct {
	exec executor.Interface
}

var _ Interface = (*writer)(nil)

// New returns a report writer backed by exec.
func New(exec executor.Interface) Interface {
	return &writer{exec: exec}
}

// Write implements Interface.
func (w *writer) Write(ctx context.Context, req *Request) (string, error) {
	ctx = agenttrace.Scope(ctx, agenttrace.ExecutionContext{Phase: "report", Project: req.Scores.ProjectName})
	prompt, err := promptbuilder.BuildFor(userPrompt, req)
	if err != nil {
		return "", fmt.Errorf("building prompt: %w", err)
	}

	clog.FromContext(ctx).With("project", req.Scores.ProjectName).Info("Writing report")
	text, err := w.exec.Generate(ctx, &executor.Request{
		System:   systemPrompt,
		Prompt:   prompt,
		MaxTurns: 1,
	})
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyReport
	}
	return text, nil
}

// Placeholder is the report saved for a project whose report failed.
func Placeholder(projectName string, err error) string {
	return fmt.Sprintf("# %s\n\nReport generation failed: %v", projectName, err)
}
