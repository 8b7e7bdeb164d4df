/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package remote

import (
	"context"
	"fmt"
	"time"

	"chainguard.dev/evalpanel/agents/judge"
	"chainguard.dev/evalpanel/agents/planner"
	"chainguard.dev/evalpanel/agents/reportwriter"
	"chainguard.dev/evalpanel/agents/research"
	"chainguard.dev/evalpanel/concurrency"
	"chainguard.dev/evalpanel/panel"
	"github.com/chainguard-dev/clog"
)

// DefaultTaskTimeout bounds the wait for one task's notification.
const DefaultTaskTimeout = 300 * time.Second

// JudgeInput is the request file of a judge task. The evaluation context is
// read from the shared context input.
type JudgeInput struct {
	Project       panel.Project      `json:"project"`
	Spec          panel.JudgeSpec    `json:"spec"`
	ScaleGuidance string             `json:"scaleGuidance"`
	ReportConfig  panel.ReportConfig `json:"reportConfig"`
	Tracks        []string           `json:"tracks,omitempty"`
}

// PlannerInput is the request file of a planner task.
type PlannerInput struct {
	JudgeCount int `json:"judgeCount,omitempty"`
}

// ReportInput is the request file of a report task.
type ReportInput struct {
	Scores panel.ProjectScores `json:"scores"`
	Plan   *panel.Plan         `json:"plan"`
}

// Backend runs every capability as a remote task.
type Backend struct {
	volume     *Volume
	server     *Server
	dispatcher Dispatcher
	timeout    time.Duration
	// judges, when set, bounds judge tasks in flight.
	judges *concurrency.Semaphore
}

var (
	_ planner.Interface      = (*Backend)(nil)
	_ research.Interface     = (*Backend)(nil)
	_ judge.Interface        = (*Backend)(nil)
	_ reportwriter.Interface = (*Backend)(nil)
)

// BackendOption configures a Backend.
type BackendOption func(*Backend)

// WithTaskTimeout sets how long to wait for each task.
func WithTaskTimeout(d time.Duration) BackendOption {
	return func(b *Backend) { b.timeout = d }
}

// WithJudgeLimit admits at most n judge tasks at once. A task holds its slot
// from spawn until its notification arrives or the wait fails.
func WithJudgeLimit(n int) BackendOption {
	return func(b *Backend) { b.judges = concurrency.NewSemaphore(n) }
}

// NewBackend returns a Backend writing to volume, spawning through
// dispatcher and collecting notifications from server.
func NewBackend(volume *Volume, server *Server, dispatcher Dispatcher, opts ...BackendOption) *Backend {
	b := &Backend{
		volume:     volume,
		server:     server,
		dispatcher: dispatcher,
		timeout:    DefaultTaskTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Plan implements planner.Interface. The context travels through the shared
// context input rather than the request file.
func (b *Backend) Plan(ctx context.Context, req *planner.Request) (*panel.Plan, error) {
	t := b.task(TaskPlanner, "", "")
	if err := b.run(ctx, t, PlannerInput{JudgeCount: req.JudgeCount}); err != nil {
		return nil, err
	}
	var plan panel.Plan
	if err := b.volume.GetJSON(ctx, b.volume.OutputKey(TaskOutput(t)), &plan); err != nil {
		return nil, err
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("planner task: %w", err)
	}
	return &plan, nil
}

// Research implements research.Interface.
func (b *Backend) Research(ctx context.Context, input panel.CustomJudge) (*panel.JudgeSpec, error) {
	t := b.task(TaskResearch, "", input.Name)
	if err := b.run(ctx, t, input); err != nil {
		return nil, err
	}
	var spec panel.JudgeSpec
	if err := b.volume.GetJSON(ctx, b.volume.OutputKey(TaskOutput(t)), &spec); err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("research task %s: %w", input.Name, err)
	}
	return &spec, nil
}

// Judge implements judge.Interface. Browser sessions are opened by the
// worker, so req.Session and req.ScreenshotDir are ignored.
func (b *Backend) Judge(ctx context.Context, req *judge.Request) (*panel.JudgeResult, error) {
	t := b.task(TaskJudge, req.Project.Name, req.Spec.Name)
	if b.judges != nil {
		release, err := b.judges.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		defer release()
	}
	in := JudgeInput{
		Project:       req.Project,
		Spec:          req.Spec,
		ScaleGuidance: req.ScaleGuidance,
		ReportConfig:  req.ReportConfig,
		Tracks:        req.Tracks,
	}
	if err := b.run(ctx, t, in); err != nil {
		return nil, err
	}
	var res panel.JudgeResult
	if err := b.volume.GetJSON(ctx, b.volume.OutputKey(TaskOutput(t)), &res); err != nil {
		return nil, err
	}
	if err := res.Validate(); err != nil {
		return nil, fmt.Errorf("judge task %s: %w", t.ID(), err)
	}
	return &res, nil
}

// Write implements reportwriter.Interface.
func (b *Backend) Write(ctx context.Context, req *reportwriter.Request) (string, error) {
	t := b.task(TaskReport, req.Scores.ProjectName, "")
	if err := b.run(ctx, t, ReportInput{Scores: req.Scores, Plan: req.Plan}); err != nil {
		return "", err
	}
	out, err := b.volume.Get(ctx, b.volume.OutputKey(TaskOutput(t)))
	if err != nil {
		return "", fmt.Errorf("report task %s: %w", t.ID(), err)
	}
	return string(out), nil
}

func (b *Backend) task(typ TaskType, project, judgeName string) Task {
	return Task{Type: typ, RunID: b.volume.RunID(), Project: project, Judge: judgeName}
}

// run writes the request file, spawns the task and waits for its outcome.
func (b *Backend) run(ctx context.Context, t Task, input any) error {
	if err := b.volume.PutJSON(ctx, b.volume.InputKey(TaskInput(t)), input); err != nil {
		return err
	}
	pending := b.server.Expect(t)
	if err := b.dispatcher.Spawn(ctx, t); err != nil {
		b.server.forget(t.key())
		return err
	}
	clog.FromContext(ctx).With("task", t.ID()).Info("Spawned worker")

	n, err := pending.Wait(ctx, b.timeout)
	if err != nil {
		return err
	}
	if n.Status != StatusSuccess {
		msg := n.Error
		if msg == "" {
			msg = "unknown error"
		}
		return fmt.Errorf("%s task %s failed: %s", t.Type, t.ID(), msg)
	}
	return nil
}
