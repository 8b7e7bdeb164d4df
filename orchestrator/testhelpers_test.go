/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"chainguard.dev/evalpanel/agents/judge"
	"chainguard.dev/evalpanel/agents/planner"
	"chainguard.dev/evalpanel/agents/reportwriter"
	"chainguard.dev/evalpanel/browser"
	"chainguard.dev/evalpanel/checkpoint"
	"chainguard.dev/evalpanel/checkpoint/memstore"
	"chainguard.dev/evalpanel/panel"
	"chainguard.dev/evalpanel/progress"
)

func spec(name string, needsBrowser bool, source panel.Source) panel.JudgeSpec {
	return panel.JudgeSpec{
		Name:         name,
		Role:         name + " reviewer",
		SystemPrompt: "You are " + name,
		ScoringCategories: []panel.ScoringCategory{
			{Category: "Quality", Description: "How good it is", Weight: 0.5},
			{Category: "Impact", Description: "Who it helps", Weight: 0.5},
		},
		NeedsBrowser: needsBrowser,
		Source:       source,
	}
}

func testPlan(judges ...panel.JudgeSpec) *panel.Plan {
	return &panel.Plan{
		Scenario:      "Spring Hackathon",
		ScoreScale:    panel.DefaultScoreScale,
		ScaleGuidance: "5 is average",
		Judges:        judges,
		ReportConfig:  panel.ReportConfig{FeedbackTone: panel.ToneEncouraging},
	}
}

func testProjects(n int) []panel.Project {
	out := make([]panel.Project, n)
	for i := range out {
		out[i] = panel.Project{
			Name:  fmt.Sprintf("Project %d", i+1),
			URL:   fmt.Sprintf("https://p%d.test", i+1),
			Pitch: "A project",
		}
	}
	return out
}

type fakePlanner struct {
	plan  *panel.Plan
	err   error
	calls atomic.Int32
}

func (f *fakePlanner) Plan(context.Context, *planner.Request) (*panel.Plan, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	p := *f.plan
	return &p, nil
}

type fakeResearcher struct {
	calls atomic.Int32
}

func (f *fakeResearcher) Research(_ context.Context, in panel.CustomJudge) (*panel.JudgeSpec, error) {
	f.calls.Add(1)
	s := spec(in.Name, in.NeedsBrowser, panel.SourcePersona)
	return &s, nil
}

// fakeJudge scores project i (1-based, from its name) at i plus a per-judge
// offset, so higher numbered projects always rank higher.
type fakeJudge struct {
	offsets map[string]float64
	fail    map[string]bool // "<project>/<judge>"

	// delay holds each call open so overlapping calls can be observed.
	delay    time.Duration
	browsers gauge
	projects gauge

	calls    atomic.Int32
	mu       sync.Mutex
	sessions map[string]browser.Session
}

func (f *fakeJudge) Judge(_ context.Context, req *judge.Request) (*panel.JudgeResult, error) {
	f.calls.Add(1)
	if req.Spec.NeedsBrowser {
		defer f.browsers.enter("")()
	}
	defer f.projects.enter(req.Project.Name)()
	time.Sleep(f.delay)
	key := req.Project.Name + "/" + req.Spec.Name
	f.mu.Lock()
	if f.sessions == nil {
		f.sessions = make(map[string]browser.Session)
	}
	f.sessions[key] = req.Session
	f.mu.Unlock()
	if f.fail[key] {
		return nil, errors.New("judge exploded")
	}
	var i int
	if _, err := fmt.Sscanf(req.Project.Name, "Project %d", &i); err != nil {
		return nil, err
	}
	score := min(float64(i)+f.offsets[req.Spec.Name], 10)
	return &panel.JudgeResult{
		ProjectName: req.Project.Name,
		JudgeName:   req.Spec.Name,
		Scores: []panel.CategoryScore{
			{Category: "Quality", Score: score, Weight: 0.5, Reasoning: "ok"},
			{Category: "Impact", Score: score, Weight: 0.5, Reasoning: "ok"},
		},
		Feedback:           panel.Feedback{Strengths: []string{}, Weaknesses: []string{}, Suggestions: []string{}, Summary: "fine"},
		ResourceAccessible: panel.FullyAccessible,
	}, nil
}

type fakeReports struct {
	fail     map[string]bool
	delay    time.Duration
	inFlight gauge
	calls    atomic.Int32
}

func (f *fakeReports) Write(_ context.Context, req *reportwriter.Request) (string, error) {
	f.calls.Add(1)
	defer f.inFlight.enter("")()
	time.Sleep(f.delay)
	if f.fail[req.Scores.ProjectName] {
		return "", errors.New("rate limited")
	}
	return fmt.Sprintf("# %s\n\nComposite %.1f", req.Scores.ProjectName, req.Scores.CompositeScore), nil
}

// gauge records the highest number of distinct keys active at once. Calls
// entering with the same key count once.
type gauge struct {
	mu     sync.Mutex
	active map[string]int
	peak   int
	seq    int
}

func (g *gauge) enter(key string) (exit func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active == nil {
		g.active = make(map[string]int)
	}
	if key == "" {
		// Unkeyed entries are all distinct.
		g.seq++
		key = fmt.Sprintf("#%d", g.seq)
	}
	g.active[key]++
	g.peak = max(g.peak, len(g.active))
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.active[key]--; g.active[key] == 0 {
			delete(g.active, key)
		}
	}
}

func (g *gauge) max() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.peak
}

type recorder struct {
	mu     sync.Mutex
	events []progress.Event
}

func (r *recorder) Publish(_ context.Context, e progress.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) ofType(t progress.Type) []progress.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []progress.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	planner  *fakePlanner
	research *fakeResearcher
	judge    *fakeJudge
	reports  *fakeReports
	store    *memstore.Store
	output   *memstore.Store
	events   *recorder
	// checkpoints replaces store as the checkpoint backend when set.
	checkpoints checkpoint.Store
}

func newFixture(plan *panel.Plan) *fixture {
	return &fixture{
		planner:  &fakePlanner{plan: plan},
		research: &fakeResearcher{},
		judge:    &fakeJudge{offsets: map[string]float64{}},
		reports:  &fakeReports{},
		store:    memstore.New(),
		output:   memstore.New(),
		events:   &recorder{},
	}
}

func (f *fixture) orchestrator(opts ...Option) *Orchestrator {
	var store checkpoint.Store = f.store
	if f.checkpoints != nil {
		store = f.checkpoints
	}
	return New(Deps{
		Planner:     f.planner,
		Researcher:  f.research,
		Judge:       f.judge,
		Reports:     f.reports,
		Checkpoints: checkpoint.New(store),
		Output:      f.output,
		Progress:    f.events,
	}, opts...)
}

// readOnlyStore serves reads from a memstore and fails every write.
type readOnlyStore struct {
	*memstore.Store
}

func (readOnlyStore) Put(context.Context, string, []byte) error {
	return errors.New("read-only file system")
}

type fakeSession struct {
	closed atomic.Bool
}

func (f *fakeSession) Navigate(context.Context, string) error                    { return nil }
func (f *fakeSession) Observe(context.Context) ([]browser.Observation, error)    { return nil, nil }
func (f *fakeSession) Extract(context.Context, string) (any, error)              { return nil, nil }
func (f *fakeSession) Act(context.Context, string) error                         { return nil }
func (f *fakeSession) Screenshot(_ context.Context, path string) (string, error) { return path, nil }
func (f *fakeSession) Close(context.Context) error {
	f.closed.Store(true)
	return nil
}
