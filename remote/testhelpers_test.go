/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package remote

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"chainguard.dev/evalpanel/agents/executor/retry"
	"chainguard.dev/evalpanel/agents/judge"
	"chainguard.dev/evalpanel/agents/planner"
	"chainguard.dev/evalpanel/agents/reportwriter"
	"chainguard.dev/evalpanel/checkpoint/memstore"
	"chainguard.dev/evalpanel/panel"
	"chainguard.dev/evalpanel/progress"
	"github.com/gin-gonic/gin"
)

const testKey = "test-hmac-key"

var fastRetry = retry.RetryConfig{MaxRetries: 2, BaseBackoff: time.Millisecond, MaxBackoff: 4 * time.Millisecond}

func init() {
	gin.SetMode(gin.TestMode)
}

func testSpec(name string) panel.JudgeSpec {
	return panel.JudgeSpec{
		Name:         name,
		Role:         name + " reviewer",
		SystemPrompt: "You are " + name,
		ScoringCategories: []panel.ScoringCategory{
			{Category: "Quality", Description: "How good it is", Weight: 1},
		},
		Source: panel.SourceAuto,
	}
}

func testPlan() *panel.Plan {
	return &panel.Plan{
		Scenario:      "Spring Hackathon",
		ScoreScale:    panel.DefaultScoreScale,
		ScaleGuidance: "5 is average",
		Judges:        []panel.JudgeSpec{testSpec("tech")},
		ReportConfig:  panel.ReportConfig{FeedbackTone: panel.ToneBalanced},
	}
}

func testResult(project, judgeName string, score float64) *panel.JudgeResult {
	return &panel.JudgeResult{
		ProjectName: project,
		JudgeName:   judgeName,
		Scores:      []panel.CategoryScore{{Category: "Quality", Score: score, Weight: 1, Reasoning: "solid"}},
		Feedback: panel.Feedback{
			Strengths:   []string{"clear"},
			Weaknesses:  []string{},
			Suggestions: []string{},
			Summary:     "Good",
		},
		FeedbackSignal: panel.FeedbackSignal{
			ImprovementPriorities: []panel.ImprovementPriority{},
			KeyDifferentiators:    []string{},
			DealBreakers:          []string{},
		},
		ResourceAccessible: panel.FullyAccessible,
	}
}

type fakePlanner struct{ gotContext string }

func (f *fakePlanner) Plan(_ context.Context, req *planner.Request) (*panel.Plan, error) {
	f.gotContext = req.Context
	return testPlan(), nil
}

type fakeResearcher struct{}

func (fakeResearcher) Research(_ context.Context, in panel.CustomJudge) (*panel.JudgeSpec, error) {
	s := testSpec(in.Name)
	s.Source = panel.SourcePersona
	return &s, nil
}

type fakeJudge struct{ fail bool }

func (f fakeJudge) Judge(_ context.Context, req *judge.Request) (*panel.JudgeResult, error) {
	if f.fail {
		return nil, errors.New("model unavailable")
	}
	return testResult(req.Project.Name, req.Spec.Name, 7), nil
}

type fakeReports struct{}

func (fakeReports) Write(_ context.Context, req *reportwriter.Request) (string, error) {
	return "# " + req.Scores.ProjectName, nil
}

// recorder collects published progress events.
type recorder struct {
	mu     sync.Mutex
	events []progress.Event
}

func (r *recorder) Publish(_ context.Context, e progress.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []progress.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]progress.Event(nil), r.events...)
}

// inProcess dispatches tasks to a worker goroutine.
type inProcess struct {
	worker *Worker
	spawn  error
}

func (d *inProcess) Spawn(_ context.Context, t Task) error {
	if d.spawn != nil {
		return d.spawn
	}
	go d.worker.Run(context.Background(), t) //nolint:errcheck
	return nil
}

type harness struct {
	volume     *Volume
	server     *Server
	events     *recorder
	dispatcher *inProcess
	backend    *Backend
	planner    *fakePlanner
}

func newHarness(t *testing.T, caps Capabilities) *harness {
	t.Helper()
	events := &recorder{}
	server := NewServer(testKey, events)
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	volume := NewVolume(memstore.New(), "run-1")
	fp := &fakePlanner{}
	if caps.Planner == nil {
		caps.Planner = fp
	}
	worker := &Worker{
		Volume:         volume,
		Notifier:       NewNotifier(srv.URL, testKey, "run-1", WithNotifierRetry(fastRetry)),
		Capabilities:   caps,
		ScreenshotRoot: t.TempDir(),
	}
	d := &inProcess{worker: worker}
	return &harness{
		volume:     volume,
		server:     server,
		events:     events,
		dispatcher: d,
		backend:    NewBackend(volume, server, d, WithTaskTimeout(5*time.Second)),
		planner:    fp,
	}
}

// gauged wraps a dispatcher and tracks how many tasks are running at once.
type gauged struct {
	next  *inProcess
	delay time.Duration

	mu       sync.Mutex
	inFlight int
	peak     int
}

func (d *gauged) Spawn(_ context.Context, t Task) error {
	d.mu.Lock()
	d.inFlight++
	d.peak = max(d.peak, d.inFlight)
	d.mu.Unlock()
	go func() {
		time.Sleep(d.delay)
		d.mu.Lock()
		d.inFlight--
		d.mu.Unlock()
		d.next.worker.Run(context.Background(), t) //nolint:errcheck
	}()
	return nil
}

func (d *gauged) maxInFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.peak
}
