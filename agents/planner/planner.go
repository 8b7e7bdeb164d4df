/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package planner designs the judging panel for an evaluation scenario.
package planner

import (
	"context"
	"encoding/json"
	"fmt"

	"chainguard.dev/evalpanel/agents/agenttrace"
	"chainguard.dev/evalpanel/agents/executor"
	"chainguard.dev/evalpanel/agents/promptbuilder"
	"chainguard.dev/evalpanel/agents/result"
	"chainguard.dev/evalpanel/panel"
	"github.com/chainguard-dev/clog"
)

// Request carries the scenario to plan for.
type Request struct {
	// Context is the free-text document describing the evaluation.
	Context string
	// JudgeCount asks for exactly this many judges when positive.
	JudgeCount int
}

// Interface produces a judging plan.
type Interface interface {
	Plan(ctx context.Context, req *Request) (*panel.Plan, error)
}

type planner struct {
	exec executor.Interface
}

var _ Interface = (*planner)(nil)

// New returns a planner that asks exec for the plan.
func New(exec executor.Interface) Interface {
	return &planner{exec: exec}
}

// Plan implements Interface. The returned plan has been validated and every
// judge is tagged as auto-generated.
func (p *planner) Plan(ctx context.Context, req *Request) (*panel.Plan, error) {
	ctx = agenttrace.Scope(ctx, agenttrace.ExecutionContext{Phase: "plan"})
	log := clog.FromContext(ctx).With("model", p.exec.Model())

	system, err := req.system()
	if err != nil {
		return nil, fmt.Errorf("building system prompt: %w", err)
	}
	prompt, err := promptbuilder.BuildFor(userPrompt, req)
	if err != nil {
		return nil, fmt.Errorf("building prompt: %w", err)
	}

	log.Info("Generating judging plan")
	text, err := p.exec.Generate(ctx, &executor.Request{
		System:   system,
		Prompt:   prompt,
		MaxTurns: 1,
	})
	if err != nil {
		return nil, err
	}

	plan, err := Parse(text)
	if err != nil {
		return nil, err
	}
	if req.JudgeCount > 0 && len(plan.Judges) != req.JudgeCount {
		log.Warnf("Requested %d judges, planner produced %d", req.JudgeCount, len(plan.Judges))
	}
	log.With("judges", len(plan.Judges)).Info("Judging plan ready")
	return plan, nil
}

// Parse extracts a plan from model output and validates it.
func Parse(text string) (*panel.Plan, error) {
	obj, err := result.FirstObject(text)
	if err != nil {
		return nil, err
	}
	var plan panel.Plan
	if err := json.Unmarshal([]byte(obj), &plan); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	if plan.ScoreScale == (panel.ScoreScale{}) {
		plan.ScoreScale = panel.DefaultScoreScale
	}
	for i := range plan.Judges {
		plan.Judges[i].Source = panel.SourceAuto
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}
