/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package orchestrator runs an evaluation from scenario to results.
//
// A run moves through five phases. PLAN loads the cached judging plan or
// generates one, researching persona judges alongside. EVALUATE runs every
// judge against every project that has no checkpoint yet. COMPUTE derives
// normalized and composite scores and looks for outliers. REPORT writes a
// deep report per project. PERSIST writes results.json, rankings.md and the
// reports to the output store.
//
// Judge failures only shorten a project's panel and report failures become
// placeholder reports. Anything else aborts the run with an error naming the
// phase; checkpoints written before the failure remain for the next run.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/evalpanel/agents/judge"
	"chainguard.dev/evalpanel/agents/planner"
	"chainguard.dev/evalpanel/agents/reportwriter"
	"chainguard.dev/evalpanel/agents/research"
	"chainguard.dev/evalpanel/browser"
	"chainguard.dev/evalpanel/checkpoint"
	"chainguard.dev/evalpanel/panel"
	"chainguard.dev/evalpanel/progress"
	"chainguard.dev/evalpanel/scoring"
)

// ErrProjectNotFound is returned when the project filter matches nothing.
var ErrProjectNotFound = errors.New("project not found in input")

// Deps are the collaborators of a run.
type Deps struct {
	Planner planner.Interface
	// Researcher is required only when the input names custom judges.
	Researcher research.Interface
	Judge      judge.Interface
	Reports    reportwriter.Interface

	Checkpoints *checkpoint.Checkpoints
	// Output receives results.json, rankings.md and reports/<slug>.md.
	Output checkpoint.Store

	// Browsers, when set, backs a pool of shared browser sessions for
	// browser judges. Otherwise browser judges open their own sessions, if
	// the judge runner can, behind one run-wide MaxConcurrentBrowsers gate.
	Browsers browser.Factory

	// Progress receives the event stream. Nil discards it.
	Progress progress.Publisher
}

// Concurrency bounds the fan-out of a run.
type Concurrency struct {
	MaxConcurrentBrowsers int
	MaxConcurrentAPICalls int
	MaxConcurrentProjects int
}

// DefaultConcurrency matches the configuration defaults.
var DefaultConcurrency = Concurrency{
	MaxConcurrentBrowsers: 5,
	MaxConcurrentAPICalls: 10,
	MaxConcurrentProjects: 3,
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency overrides DefaultConcurrency.
func WithConcurrency(c Concurrency) Option {
	return func(o *Orchestrator) { o.concurrency = c }
}

// WithOutlierConfig overrides scoring.DefaultOutlierConfig.
func WithOutlierConfig(c scoring.OutlierConfig) Option {
	return func(o *Orchestrator) { o.outliers = c }
}

// WithScreenshotRoot sets the local directory under which each project gets
// a screenshots/<slug> directory.
func WithScreenshotRoot(dir string) Option {
	return func(o *Orchestrator) { o.screenshotRoot = dir }
}

// WithOutputLabel sets how the output location is named in the completion
// message.
func WithOutputLabel(label string) Option {
	return func(o *Orchestrator) { o.outputLabel = label }
}

// Orchestrator runs evaluations.
type Orchestrator struct {
	deps           Deps
	concurrency    Concurrency
	outliers       scoring.OutlierConfig
	screenshotRoot string
	outputLabel    string
}

// New returns an Orchestrator.
func New(deps Deps, opts ...Option) *Orchestrator {
	if deps.Progress == nil {
		deps.Progress = progress.Discard
	}
	o := &Orchestrator{
		deps:           deps,
		concurrency:    DefaultConcurrency,
		outliers:       scoring.DefaultOutlierConfig(),
		screenshotRoot: ".",
		outputLabel:    "output",
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Input is what one run evaluates.
type Input struct {
	// Context is the scenario document.
	Context      string
	Projects     []panel.Project
	CustomJudges []panel.CustomJudge
	// JudgeCount asks the planner for exactly this many auto judges.
	JudgeCount int
	// JudgeWeights boosts judges in the composite score. Missing judges
	// weigh 1.
	JudgeWeights map[string]float64
	// Project restricts the run to the project with this name.
	Project string
	// DryRun stops after the plan is ready and skips saving it.
	DryRun bool
}

// Reports are the written reports of a run.
type Reports struct {
	// Deep maps project name to its markdown report.
	Deep    map[string]string
	Summary string
}

// Results is everything a run produced. Only Plan is set for a dry run.
type Results struct {
	Plan           *panel.Plan
	ProjectResults map[string][]panel.JudgeResult
	ProjectScores  []panel.ProjectScores
	Rankings       []panel.ProjectScores
	Outliers       scoring.Analysis
	Reports        Reports
}

// Run executes the phases in order.
func (o *Orchestrator) Run(ctx context.Context, in *Input) (*Results, error) {
	projects, err := selectProjects(in.Projects, in.Project)
	if err != nil {
		return nil, err
	}

	plan, err := o.plan(ctx, in)
	if err != nil {
		return nil, err
	}
	if in.DryRun {
		return &Results{Plan: plan}, nil
	}

	results, err := o.evaluate(ctx, plan, in.Context, projects)
	if err != nil {
		return nil, err
	}

	o.emit(ctx, progress.Computing("Computing scores and detecting outliers..."))
	scores := ComputeScores(projects, results, in.JudgeWeights)
	rankings := Rank(scores)
	outliers := scoring.DetectOutliers(scores, o.outliers)

	deep, err := o.report(ctx, plan, rankings)
	if err != nil {
		return nil, err
	}
	res := &Results{
		Plan:           plan,
		ProjectResults: results,
		ProjectScores:  scores,
		Rankings:       rankings,
		Outliers:       outliers,
		Reports: Reports{
			Deep:    deep,
			Summary: reportwriter.RankingsSummary(rankings, plan, outliers),
		},
	}

	if err := o.persist(ctx, res); err != nil {
		return nil, err
	}
	o.emit(ctx, progress.Complete(fmt.Sprintf("Evaluation complete. Results in %s/", o.outputLabel)))
	return res, nil
}

func selectProjects(projects []panel.Project, name string) ([]panel.Project, error) {
	if name == "" {
		return projects, nil
	}
	for _, p := range projects {
		if p.Name == name {
			return []panel.Project{p}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrProjectNotFound, name)
}

func (o *Orchestrator) emit(ctx context.Context, e progress.Event) {
	o.deps.Progress.Publish(ctx, e)
}

func projectNames(projects []panel.Project) []string {
	names := make([]string, len(projects))
	for i, p := range projects {
		names[i] = p.Name
	}
	return names
}
