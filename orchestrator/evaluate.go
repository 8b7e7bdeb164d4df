/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"chainguard.dev/evalpanel/agents/judge"
	"chainguard.dev/evalpanel/browser"
	"chainguard.dev/evalpanel/concurrency"
	"chainguard.dev/evalpanel/panel"
	"chainguard.dev/evalpanel/progress"
	"chainguard.dev/evalpanel/scoring"
	"github.com/chainguard-dev/clog"
)

// evaluate runs the panel over every project without a checkpoint and
// returns each project's judge results.
func (o *Orchestrator) evaluate(ctx context.Context, plan *panel.Plan, scenario string, projects []panel.Project) (map[string][]panel.JudgeResult, error) {
	existing, err := o.deps.Checkpoints.LoadAll(ctx, projectNames(projects))
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	// browsers admits browser judges run-wide, across every project in
	// flight. With a pool, holding a pooled session is the admission.
	g := gates{browsers: concurrency.NewSemaphore(o.concurrency.MaxConcurrentBrowsers)}
	if browserJudges, _ := plan.BrowserJudges(); len(browserJudges) > 0 && o.deps.Browsers != nil {
		g.pool = browser.NewPool(o.concurrency.MaxConcurrentBrowsers, o.deps.Browsers)
		defer func() {
			if err := g.pool.CloseAll(context.WithoutCancel(ctx)); err != nil {
				clog.FromContext(ctx).Warnf("Closing browser sessions: %v", err)
			}
		}()
	}

	type indexed struct {
		index   int
		project panel.Project
	}
	items := make([]indexed, len(projects))
	for i, p := range projects {
		items[i] = indexed{index: i + 1, project: p}
	}

	var mu sync.Mutex
	all := make(map[string][]panel.JudgeResult, len(projects))
	sem := concurrency.NewSemaphore(o.concurrency.MaxConcurrentProjects)
	settled := concurrency.Map(ctx, sem, items, func(ctx context.Context, it indexed) (struct{}, error) {
		name := it.project.Name
		o.emit(ctx, progress.Evaluating(name, it.index, len(projects)))
		if cached, ok := existing[name]; ok {
			clog.FromContext(ctx).With("project", name).Info("Using checkpointed results")
			mu.Lock()
			all[name] = cached
			mu.Unlock()
			return struct{}{}, nil
		}

		results := o.evaluateProject(ctx, plan, scenario, it.project, g)
		if err := o.deps.Checkpoints.SaveProjectResult(ctx, name, results); err != nil {
			return struct{}{}, fmt.Errorf("evaluate %s: %w", name, err)
		}
		mu.Lock()
		all[name] = results
		mu.Unlock()
		return struct{}{}, nil
	})

	var errs []error
	for _, r := range settled {
		errs = append(errs, r.Err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return all, nil
}

// gates are the run-wide admission controls shared by all projects.
type gates struct {
	pool     *browser.Pool
	browsers *concurrency.Semaphore
}

// evaluateProject runs every judge against one project. Failed judges are
// reported and left out. Browser judges come first in the result.
func (o *Orchestrator) evaluateProject(ctx context.Context, plan *panel.Plan, scenario string, project panel.Project, g gates) []panel.JudgeResult {
	screenshotDir := filepath.Join(o.screenshotRoot, "screenshots", panel.Slug(project.Name))
	browserJudges, textJudges := plan.BrowserJudges()

	run := func(ctx context.Context, spec panel.JudgeSpec, session browser.Session) (*panel.JudgeResult, error) {
		o.emit(ctx, progress.JudgeStarted(project.Name, spec.Name))
		res, err := o.deps.Judge.Judge(ctx, &judge.Request{
			Project:       project,
			Spec:          spec,
			Context:       scenario,
			ScaleGuidance: plan.ScaleGuidance,
			ReportConfig:  plan.ReportConfig,
			Tracks:        plan.Tracks,
			ScreenshotDir: screenshotDir,
			Session:       session,
		})
		if err != nil {
			clog.FromContext(ctx).With("project", project.Name, "judge", spec.Name).Warnf("Judge failed: %v", err)
			o.emit(ctx, progress.JudgeFailed(project.Name, spec.Name, err))
			return nil, err
		}
		o.emit(ctx, progress.JudgeCompleted(project.Name, spec.Name, scoring.OverallScore(res.Scores)))
		return res, nil
	}

	// Text judges are not bounded here; the project semaphore and the model
	// client bound them.
	textSem := concurrency.NewSemaphore(len(textJudges))
	textDone := make(chan []concurrency.Result[*panel.JudgeResult], 1)
	go func() {
		textDone <- concurrency.Map(ctx, textSem, textJudges, func(ctx context.Context, spec panel.JudgeSpec) (*panel.JudgeResult, error) {
			return run(ctx, spec, nil)
		})
	}()

	var out []panel.JudgeResult
	switch {
	case len(browserJudges) == 0:
	case g.pool != nil && project.URL != "":
		out = o.pooledBrowserJudges(ctx, project, browserJudges, g.pool, run)
	default:
		for _, r := range concurrency.Map(ctx, g.browsers, browserJudges, func(ctx context.Context, spec panel.JudgeSpec) (*panel.JudgeResult, error) {
			return run(ctx, spec, nil)
		}) {
			if r.Err == nil {
				out = append(out, *r.Value)
			}
		}
	}

	for _, r := range <-textDone {
		if r.Err == nil {
			out = append(out, *r.Value)
		}
	}
	if out == nil {
		out = []panel.JudgeResult{}
	}
	return out
}

// pooledBrowserJudges runs the browser judges one after another on a single
// pooled session.
func (o *Orchestrator) pooledBrowserJudges(ctx context.Context, project panel.Project, specs []panel.JudgeSpec, pool *browser.Pool,
	run func(context.Context, panel.JudgeSpec, browser.Session) (*panel.JudgeResult, error)) []panel.JudgeResult {
	session, release, err := pool.Acquire(ctx)
	if err != nil {
		err = fmt.Errorf("acquiring browser session: %w", err)
		for _, spec := range specs {
			o.emit(ctx, progress.JudgeFailed(project.Name, spec.Name, err))
		}
		clog.FromContext(ctx).With("project", project.Name).Warnf("Skipping browser judges: %v", err)
		return nil
	}
	defer release()

	var out []panel.JudgeResult
	for _, spec := range specs {
		if res, err := run(ctx, spec, session); err == nil {
			out = append(out, *res)
		}
	}
	return out
}
