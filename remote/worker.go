/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package remote

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"chainguard.dev/evalpanel/agents/judge"
	"chainguard.dev/evalpanel/agents/planner"
	"chainguard.dev/evalpanel/agents/reportwriter"
	"chainguard.dev/evalpanel/agents/research"
	"chainguard.dev/evalpanel/panel"
	"chainguard.dev/evalpanel/progress"
	"chainguard.dev/evalpanel/scoring"
	"github.com/chainguard-dev/clog"
)

// Capabilities are the in-process implementations a worker runs. Only the
// one matching the task type is needed.
type Capabilities struct {
	Planner    planner.Interface
	Researcher research.Interface
	Judge      judge.Interface
	Reports    reportwriter.Interface
}

// Worker executes one remote task.
type Worker struct {
	Volume   *Volume
	Notifier *Notifier
	Capabilities
	// ScreenshotRoot is where judge screenshots are written.
	ScreenshotRoot string
}

// Run executes t, writes its output to the volume and notifies the
// coordinator. The notification is sent on failure too; the returned error
// is the task's own failure, joined with any notification failure.
func (w *Worker) Run(ctx context.Context, t Task) error {
	log := clog.FromContext(ctx).With("task", t.ID())
	outputKey := w.Volume.OutputKey(TaskOutput(t))

	runErr := w.execute(ctx, t, outputKey)
	note := Notification{Status: StatusSuccess, OutputPath: outputKey}
	if runErr != nil {
		log.Errorf("Task failed: %v", runErr)
		note = Notification{Status: StatusFailed, Error: runErr.Error()}
	}
	if err := w.Notifier.Notify(ctx, t, note); err != nil {
		return errors.Join(runErr, fmt.Errorf("notify: %w", err))
	}
	return runErr
}

func (w *Worker) execute(ctx context.Context, t Task, outputKey string) error {
	inputKey := w.Volume.InputKey(TaskInput(t))
	switch t.Type {
	case TaskPlanner:
		if w.Planner == nil {
			return errors.New("no planner configured")
		}
		var in PlannerInput
		if err := w.Volume.GetJSON(ctx, inputKey, &in); err != nil {
			return err
		}
		evalContext, err := w.Volume.Context(ctx)
		if err != nil {
			return err
		}
		w.Notifier.Publish(ctx, progress.Planning("Planner worker started"))
		plan, err := w.Planner.Plan(ctx, &planner.Request{Context: evalContext, JudgeCount: in.JudgeCount})
		if err != nil {
			return err
		}
		return w.Volume.PutJSON(ctx, outputKey, plan)

	case TaskResearch:
		if w.Researcher == nil {
			return errors.New("no researcher configured")
		}
		var in panel.CustomJudge
		if err := w.Volume.GetJSON(ctx, inputKey, &in); err != nil {
			return err
		}
		w.Notifier.Publish(ctx, progress.Researching(in.Name, "Researching "+in.Name+"..."))
		spec, err := w.Researcher.Research(ctx, in)
		if err != nil {
			return err
		}
		w.Notifier.Publish(ctx, progress.Researching(in.Name, "Completed research on "+in.Name))
		return w.Volume.PutJSON(ctx, outputKey, spec)

	case TaskJudge:
		if w.Judge == nil {
			return errors.New("no judge configured")
		}
		var in JudgeInput
		if err := w.Volume.GetJSON(ctx, inputKey, &in); err != nil {
			return err
		}
		evalContext, err := w.Volume.Context(ctx)
		if err != nil {
			return err
		}
		w.Notifier.Publish(ctx, progress.JudgeStarted(in.Project.Name, in.Spec.Name))
		res, err := w.Judge.Judge(ctx, &judge.Request{
			Project:       in.Project,
			Spec:          in.Spec,
			Context:       evalContext,
			ScaleGuidance: in.ScaleGuidance,
			ReportConfig:  in.ReportConfig,
			Tracks:        in.Tracks,
			ScreenshotDir: filepath.Join(w.ScreenshotRoot, "screenshots", panel.Slug(in.Project.Name)),
		})
		if err != nil {
			w.Notifier.Publish(ctx, progress.JudgeFailed(in.Project.Name, in.Spec.Name, err))
			return err
		}
		w.Notifier.Publish(ctx, progress.JudgeCompleted(in.Project.Name, in.Spec.Name, scoring.OverallScore(res.Scores)))
		return w.Volume.PutJSON(ctx, outputKey, res)

	case TaskReport:
		if w.Reports == nil {
			return errors.New("no report writer configured")
		}
		var in ReportInput
		if err := w.Volume.GetJSON(ctx, inputKey, &in); err != nil {
			return err
		}
		w.Notifier.Publish(ctx, progress.Reporting(in.Scores.ProjectName))
		report, err := w.Reports.Write(ctx, &reportwriter.Request{Scores: in.Scores, Plan: in.Plan})
		if err != nil {
			return err
		}
		return w.Volume.Put(ctx, outputKey, []byte(report))

	default:
		return fmt.Errorf("unknown task type: %s", t.Type)
	}
}
