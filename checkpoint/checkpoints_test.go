/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checkpoint_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"chainguard.dev/evalpanel/checkpoint"
	"chainguard.dev/evalpanel/checkpoint/memstore"
	"chainguard.dev/evalpanel/panel"
	"github.com/google/go-cmp/cmp"
)

func result(project, judge string, score float64) panel.JudgeResult {
	return panel.JudgeResult{
		ProjectName: project,
		JudgeName:   judge,
		Scores:      []panel.CategoryScore{{Category: "Overall", Score: score, Weight: 1, Reasoning: "ok"}},
		Feedback: panel.Feedback{
			Strengths: []string{}, Weaknesses: []string{}, Suggestions: []string{}, Summary: "fine",
		},
		FeedbackSignal: panel.FeedbackSignal{
			ImprovementPriorities: []panel.ImprovementPriority{}, KeyDifferentiators: []string{}, DealBreakers: []string{},
		},
		ResourceAccessible: panel.FullyAccessible,
	}
}

func TestKeys(t *testing.T) {
	c := checkpoint.New(memstore.New())
	tests := []struct {
		got, want string
	}{
		{c.PlanKey(), "checkpoints/_plan.json"},
		{c.ProjectKey("My App: v2"), "checkpoints/My_App__v2.json"},
		{c.ReportKey("My App: v2"), "checkpoints/_report_My_App__v2.json"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("key = %q, wanted = %q", tt.got, tt.want)
		}
	}
	if got, want := checkpoint.NewWithPrefix(memstore.New(), "run-1/checkpoints").PlanKey(), "run-1/checkpoints/_plan.json"; got != want {
		t.Errorf("PlanKey() = %q, wanted = %q", got, want)
	}
}

func TestPlanRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := checkpoint.New(memstore.New())

	if _, err := c.LoadPlan(ctx); !errors.Is(err, checkpoint.ErrNotFound) {
		t.Fatalf("LoadPlan() on empty store = %v, wanted = %v", err, checkpoint.ErrNotFound)
	}

	plan := &panel.Plan{
		Scenario:      "Hackathon",
		ScoreScale:    panel.DefaultScoreScale,
		ScaleGuidance: "10 is best",
		Judges:        []panel.JudgeSpec{{Name: "ux", Role: "UX", Source: panel.SourceAuto}},
		ReportConfig:  panel.ReportConfig{FeedbackTone: panel.ToneBalanced},
	}
	if err := c.SavePlan(ctx, plan); err != nil {
		t.Fatalf("SavePlan() = %v", err)
	}
	got, err := c.LoadPlan(ctx)
	if err != nil {
		t.Fatalf("LoadPlan() = %v", err)
	}
	if diff := cmp.Diff(plan, got); diff != "" {
		t.Errorf("LoadPlan() (-want +got):\n%s", diff)
	}
}

func TestProjectResults(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	c := checkpoint.New(store)

	alpha := []panel.JudgeResult{result("Alpha", "a", 7), result("Alpha", "b", 8)}
	if err := c.SaveProjectResult(ctx, "Alpha", alpha); err != nil {
		t.Fatalf("SaveProjectResult() = %v", err)
	}
	if err := c.SaveProjectResult(ctx, "Beta", nil); err != nil {
		t.Fatalf("SaveProjectResult() = %v", err)
	}

	got, err := c.LoadAll(ctx, []string{"Alpha", "Beta", "Gamma"})
	if err != nil {
		t.Fatalf("LoadAll() = %v", err)
	}
	want := map[string][]panel.JudgeResult{
		"Alpha": alpha,
		"Beta":  {},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadAll() (-want +got):\n%s", diff)
	}

	raw, err := store.Get(ctx, c.ProjectKey("Beta"))
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	if !strings.Contains(string(raw), `"results": []`) {
		t.Errorf("empty project checkpoint = %s, wanted an empty results list", raw)
	}
}

func TestSlugCollisionIsNotLoaded(t *testing.T) {
	ctx := context.Background()
	c := checkpoint.New(memstore.New())
	if c.ProjectKey("A B") != c.ProjectKey("A_B") {
		t.Fatalf("ProjectKey(%q) = %s, wanted = %s", "A B", c.ProjectKey("A B"), c.ProjectKey("A_B"))
	}
	if err := c.SaveProjectResult(ctx, "A B", []panel.JudgeResult{result("A B", "a", 7)}); err != nil {
		t.Fatalf("SaveProjectResult() = %v", err)
	}
	if err := c.SaveReport(ctx, "A B", "# A B"); err != nil {
		t.Fatalf("SaveReport() = %v", err)
	}

	results, err := c.LoadAll(ctx, []string{"A_B"})
	if err != nil {
		t.Fatalf("LoadAll() = %v", err)
	}
	if diff := cmp.Diff(map[string][]panel.JudgeResult{}, results); diff != "" {
		t.Errorf("LoadAll() (-want +got):\n%s", diff)
	}
	reports, err := c.LoadAllReports(ctx, []string{"A_B", "A B"})
	if err != nil {
		t.Fatalf("LoadAllReports() = %v", err)
	}
	if diff := cmp.Diff(map[string]string{"A B": "# A B"}, reports); diff != "" {
		t.Errorf("LoadAllReports() (-want +got):\n%s", diff)
	}
}

func TestReports(t *testing.T) {
	ctx := context.Background()
	c := checkpoint.New(memstore.New())
	if err := c.SaveReport(ctx, "Alpha", "# Alpha\n\nGreat."); err != nil {
		t.Fatalf("SaveReport() = %v", err)
	}
	got, err := c.LoadAllReports(ctx, []string{"Alpha", "Beta"})
	if err != nil {
		t.Fatalf("LoadAllReports() = %v", err)
	}
	if diff := cmp.Diff(map[string]string{"Alpha": "# Alpha\n\nGreat."}, got); diff != "" {
		t.Errorf("LoadAllReports() (-want +got):\n%s", diff)
	}
}

type failingStore struct{ memstore.Store }

func (*failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func TestLoadAllPropagatesErrors(t *testing.T) {
	c := checkpoint.New(&failingStore{})
	if _, err := c.LoadAll(context.Background(), []string{"Alpha"}); err == nil || errors.Is(err, checkpoint.ErrNotFound) {
		t.Errorf("LoadAll() = %v, wanted a read error", err)
	}
}

func TestPrefix(t *testing.T) {
	ctx := context.Background()
	base := memstore.New()
	s := checkpoint.Prefix(base, "run-1/outputs")

	if err := s.Put(ctx, "results.json", []byte("{}")); err != nil {
		t.Fatalf("Put() = %v", err)
	}
	if diff := cmp.Diff([]string{"run-1/outputs/results.json"}, base.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	ok, err := s.Has(ctx, "results.json")
	if err != nil || !ok {
		t.Errorf("Has() = %v, %v, wanted = true, nil", ok, err)
	}
	if _, err := s.Get(ctx, "missing.json"); !errors.Is(err, checkpoint.ErrNotFound) {
		t.Errorf("Get(missing) = %v, wanted = %v", err, checkpoint.ErrNotFound)
	}
	if got := checkpoint.Prefix(base, ""); got != checkpoint.Store(base) {
		t.Errorf("Prefix(\"\") = %v, wanted the store itself", got)
	}
}
