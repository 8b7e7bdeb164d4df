/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/evalpanel/agents/planner"
	"chainguard.dev/evalpanel/agents/research"
	"chainguard.dev/evalpanel/checkpoint"
	"chainguard.dev/evalpanel/panel"
	"chainguard.dev/evalpanel/progress"
	"golang.org/x/sync/errgroup"
)

// plan loads the cached plan or generates and saves a new one.
func (o *Orchestrator) plan(ctx context.Context, in *Input) (*panel.Plan, error) {
	cached, err := o.deps.Checkpoints.LoadPlan(ctx)
	switch {
	case err == nil:
		o.emit(ctx, progress.Planning(fmt.Sprintf("Loaded cached plan: %d judges for %s", len(cached.Judges), cached.Scenario)))
		return cached, nil
	case !errors.Is(err, checkpoint.ErrNotFound):
		return nil, fmt.Errorf("plan: %w", err)
	}

	if len(in.CustomJudges) > 0 && o.deps.Researcher == nil {
		return nil, errors.New("plan: custom judges configured without a researcher")
	}
	o.emit(ctx, progress.Planning("Generating judging plan..."))

	var (
		auto     *panel.Plan
		personas []panel.JudgeSpec
	)
	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		auto, err = o.deps.Planner.Plan(egctx, &planner.Request{Context: in.Context, JudgeCount: in.JudgeCount})
		if err != nil {
			return fmt.Errorf("plan: %w", err)
		}
		return nil
	})
	if len(in.CustomJudges) > 0 {
		eg.Go(func() (err error) {
			personas, err = research.All(egctx, o.deps.Researcher, in.CustomJudges, func(name, message string) {
				o.emit(ctx, progress.Researching(name, message))
			})
			if err != nil {
				return fmt.Errorf("plan: %w", err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	plan := auto.WithPersonas(personas)
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	if !in.DryRun {
		if err := o.deps.Checkpoints.SavePlan(ctx, &plan); err != nil {
			return nil, fmt.Errorf("plan: %w", err)
		}
	}
	o.emit(ctx, progress.Planning(fmt.Sprintf("Plan ready: %d judges for %s", len(plan.Judges), plan.Scenario)))
	return &plan, nil
}
