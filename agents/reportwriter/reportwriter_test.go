/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package reportwriter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"chainguard.dev/evalpanel/agents/executor"
	"chainguard.dev/evalpanel/panel"
	"chainguard.dev/evalpanel/scoring"
)

var plan = &panel.Plan{
	Scenario:      "Spring Hackathon",
	ScoreScale:    panel.DefaultScoreScale,
	ScaleGuidance: "5 is average",
	Judges: []panel.JudgeSpec{
		{Name: "tech", Role: "Engineer"},
		{Name: "design", Role: "Designer"},
	},
}

var scores = panel.ProjectScores{
	ProjectName: "Acme",
	JudgeResults: []panel.JudgeResult{
		{ProjectName: "Acme", JudgeName: "tech", Feedback: panel.Feedback{Summary: "fast & small"}},
		{ProjectName: "Acme", JudgeName: "design", Feedback: panel.Feedback{Summary: "pretty"}},
	},
	OverallScores:    map[string]float64{"tech": 8, "design": 6.25},
	NormalizedScores: map[string]float64{"tech": 7},
	CompositeScore:   7.26,
}

func TestWrite(t *testing.T) {
	var got *executor.Request
	exec := executor.Func(func(_ context.Context, req *executor.Request) (string, error) {
		got = req
		return "\n# Acme\n\nGreat.\n", nil
	})

	report, err := New(exec).Write(context.Background(), &Request{Scores: scores, Plan: plan})
	if err != nil {
		t.Fatalf("Write() = %v", err)
	}
	if want := "# Acme\n\nGreat."; report != want {
		t.Errorf("Write() = %q, wanted = %q", report, want)
	}
	if got.System != systemPrompt || got.MaxTurns != 1 {
		t.Errorf("request = %q/%d, wanted the report system prompt and 1 turn", got.System, got.MaxTurns)
	}
	for _, want := range []string{
		"Project: Acme",
		"Composite Score: 7.3 / 10",
		"Scenario: Spring Hackathon",
		"fast &amp; small",
		"\n\n---\n\n",
		"- design: 6.2 (normalized: N/A)\n- tech: 8.0 (normalized: 7.0)",
	} {
		if !strings.Contains(got.Prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestWriteErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		text    string
		err     error
		wantErr error
	}{
		{name: "executor failure", err: boom, wantErr: boom},
		{name: "blank output", text: "  \n", wantErr: ErrEmptyReport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := executor.Func(func(context.Context, *executor.Request) (string, error) {
				return tt.text, tt.err
			})
			if _, err := New(exec).Write(context.Background(), &Request{Scores: scores, Plan: plan}); !errors.Is(err, tt.wantErr) {
				t.Errorf("Write() = %v, wanted = %v", err, tt.wantErr)
			}
		})
	}
}

func TestPlaceholder(t *testing.T) {
	got := Placeholder("Acme", errors.New("rate limited"))
	if want := "# Acme\n\nReport generation failed: rate limited"; got != want {
		t.Errorf("Placeholder() = %q, wanted = %q", got, want)
	}
}

func TestRankingsSummary(t *testing.T) {
	rankings := []panel.ProjectScores{
		scores,
		{ProjectName: "Empty", OverallScores: map[string]float64{}, CompositeScore: 0},
	}
	analysis := scoring.Analysis{
		GlobalOutliers:      []scoring.GlobalOutlier{{ProjectName: "Acme", CompositeScore: 7.26, Percentile: 100}},
		DimensionalOutliers: []scoring.DimensionalOutlier{{ProjectName: "Acme", Dimension: "tech > Speed", Score: 9.5, ZScore: 2.34}},
		Recommended: []scoring.RecommendedOutlier{{
			ProjectName:     "Acme",
			SelectionReason: "Top composite score: 7.3",
			OutlierTypes:    []scoring.OutlierType{scoring.OutlierGlobal, scoring.OutlierDimensional},
		}},
	}

	got := RankingsSummary(rankings, plan, analysis)
	for _, want := range []string{
		"# Spring Hackathon — Evaluation Results\n",
		"## Overall Rankings",
		"Weakest In",
		"tech (8.0)",
		"design (6.2)",
		"N/A",
		"### Global Outliers\n- **Acme**: composite 7.3 (100th percentile)",
		"### Dimensional Outliers\n- **Acme**: tech > Speed = 9.5 (2.3 SD above mean)",
		"### Recommended Set\n- **Acme** [global, dimensional]: Top composite score: 7.3",
		"- **Judges:** tech (Engineer), design (Designer)",
		"- **Scale:** 1-10",
		"- **Normalization:** Z-score with rescaling",
		"- **Score guidance:** 5 is average",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
	if strings.Index(got, "Acme") > strings.Index(got, "Empty") {
		t.Error("rankings out of order")
	}
	if strings.Contains(got, noOutliers) {
		t.Error("summary claims no outliers")
	}
}

func TestRankingsSummaryNoOutliers(t *testing.T) {
	got := RankingsSummary(nil, plan, scoring.Analysis{NoOutliersDetected: true})
	if !strings.Contains(got, "## Outlier Analysis\n\n"+noOutliers) {
		t.Errorf("summary missing the no-outliers note:\n%s", got)
	}
}

func TestExtremes(t *testing.T) {
	hi, lo, ok := extremes(map[string]float64{"b": 5, "a": 5, "c": 9})
	if !ok || hi != "c" || lo != "a" {
		t.Errorf("extremes() = %q, %q, %v, wanted = c, a, true", hi, lo, ok)
	}
	if _, _, ok := extremes(nil); ok {
		t.Error("extremes(nil) ok = true, wanted = false")
	}
}
