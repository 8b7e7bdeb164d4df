/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package planner_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"chainguard.dev/evalpanel/agents/executor"
	"chainguard.dev/evalpanel/agents/planner"
	"chainguard.dev/evalpanel/agents/result"
	"chainguard.dev/evalpanel/panel"
	"github.com/google/go-cmp/cmp"
)

const planJSON = `{
  "scenario": "Weekend hackathon",
  "scoreScale": {"min": 1, "max": 10},
  "scaleGuidance": "10 is production ready",
  "judges": [{
    "name": "innovation_judge",
    "role": "Novelty",
    "systemPrompt": "You judge novelty.",
    "scoringCategories": [
      {"category": "Originality", "description": "new idea", "weight": 0.6},
      {"category": "Ambition", "description": "scope", "weight": 0.4}
    ],
    "needsBrowser": false,
    "source": "persona"
  }, {
    "name": "ux_judge",
    "role": "UX",
    "systemPrompt": "You judge UX.",
    "scoringCategories": [
      {"category": "Usability", "description": "easy", "weight": 1}
    ],
    "needsBrowser": true,
    "source": "auto"
  }],
  "reportConfig": {"feedbackTone": "encouraging", "includeScreenshots": true, "includeTrackRecommendations": false}
}`

func TestPlan(t *testing.T) {
	var got *executor.Request
	exec := executor.Func(func(_ context.Context, req *executor.Request) (string, error) {
		got = req
		return "Here is the panel:\n```json\n" + planJSON + "\n```", nil
	})

	plan, err := planner.New(exec).Plan(context.Background(), &planner.Request{
		Context:    "Build <anything> in 48h & ship",
		JudgeCount: 2,
	})
	if err != nil {
		t.Fatalf("Plan() = %v", err)
	}

	if got.MaxTurns != 1 {
		t.Errorf("MaxTurns = %d, wanted = 1", got.MaxTurns)
	}
	if !strings.Contains(got.System, "Create exactly 2 judges") {
		t.Errorf("system prompt does not request 2 judges:\n%s", got.System)
	}
	if !strings.Contains(got.System, `"scoringCategories"`) {
		t.Errorf("system prompt does not embed the plan schema:\n%s", got.System)
	}
	if !strings.Contains(got.Prompt, "Build &lt;anything&gt; in 48h &amp; ship") {
		t.Errorf("prompt does not carry the escaped context:\n%s", got.Prompt)
	}

	var names []string
	for _, j := range plan.Judges {
		names = append(names, j.Name)
		if j.Source != panel.SourceAuto {
			t.Errorf("judge %s source = %q, wanted = %q", j.Name, j.Source, panel.SourceAuto)
		}
	}
	if diff := cmp.Diff([]string{"innovation_judge", "ux_judge"}, names); diff != "" {
		t.Errorf("judges (-want +got):\n%s", diff)
	}
	if plan.ReportConfig.FeedbackTone != panel.ToneEncouraging {
		t.Errorf("FeedbackTone = %q, wanted = %q", plan.ReportConfig.FeedbackTone, panel.ToneEncouraging)
	}
}

func TestPlanDefaultJudgeCount(t *testing.T) {
	exec := executor.Func(func(_ context.Context, req *executor.Request) (string, error) {
		if !strings.Contains(req.System, "Create 2-5 judges") {
			t.Errorf("system prompt does not ask for 2-5 judges:\n%s", req.System)
		}
		return planJSON, nil
	})
	if _, err := planner.New(exec).Plan(context.Background(), &planner.Request{Context: "x"}); err != nil {
		t.Fatalf("Plan() = %v", err)
	}
}

func TestPlanErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		reply   string
		err     error
		wantErr error
	}{{
		name:    "executor failure",
		err:     boom,
		wantErr: boom,
	}, {
		name:    "no json",
		reply:   "I cannot help with that.",
		wantErr: result.ErrNoJSON,
	}, {
		name:    "invalid plan",
		reply:   `{"scenario": "x", "judges": [], "reportConfig": {"feedbackTone": "encouraging"}}`,
		wantErr: panel.ErrInvalid,
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := executor.Func(func(context.Context, *executor.Request) (string, error) {
				return tt.reply, tt.err
			})
			_, err := planner.New(exec).Plan(context.Background(), &planner.Request{Context: "x"})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Plan() = %v, wanted = %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDefaultsScale(t *testing.T) {
	in := strings.Replace(planJSON, `"scoreScale": {"min": 1, "max": 10},`, "", 1)
	plan, err := planner.Parse(in)
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if plan.ScoreScale != panel.DefaultScoreScale {
		t.Errorf("ScoreScale = %v, wanted = %v", plan.ScoreScale, panel.DefaultScoreScale)
	}
}
