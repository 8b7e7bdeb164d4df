/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"context"
	"sync"

	"chainguard.dev/evalpanel/browser"
	"chainguard.dev/evalpanel/panel"
)

const validResult = `Here is my evaluation:
{
  "projectName": "whatever the model thinks",
  "judgeName": "someone else",
  "scores": [
    {"category": "Design", "score": 8, "weight": 0.6, "reasoning": "Clean layout"},
    {"category": "Impact", "score": 6, "weight": 0.4, "reasoning": "Narrow audience"}
  ],
  "feedback": {
    "strengths": ["Polished UI"],
    "weaknesses": ["No onboarding"],
    "suggestions": ["Add a tutorial"],
    "summary": "Solid start."
  },
  "feedbackSignal": {
    "improvementPriorities": [
      {"area": "Onboarding", "impact": "high", "currentState": "None", "targetState": "Guided tour"}
    ],
    "keyDifferentiators": ["Offline mode"],
    "dealBreakers": []
  },
  "resourceAccessible": "fully_accessible"
}`

var (
	project = panel.Project{
		Name:  "Acme Notes",
		URL:   "https://acme.test",
		Pitch: "Notes for teams & families",
	}
	textJudge = panel.JudgeSpec{
		Name:         "product",
		Role:         "Product reviewer",
		SystemPrompt: "You review products.",
		ScoringCategories: []panel.ScoringCategory{
			{Category: "Design", Description: "Visual quality", Weight: 0.6},
			{Category: "Impact", Description: "Who it helps", Weight: 0.4},
		},
		Source: panel.SourceAuto,
	}
	browserJudge = func() panel.JudgeSpec {
		j := textJudge
		j.Name = "ux"
		j.NeedsBrowser = true
		return j
	}()
)

type fakeSession struct {
	mu     sync.Mutex
	url    string
	closed int
}

var _ browser.Session = (*fakeSession)(nil)

func (f *fakeSession) Navigate(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.url = url
	return nil
}

func (f *fakeSession) Observe(context.Context) ([]browser.Observation, error) {
	return []browser.Observation{{Description: "Sign up button"}}, nil
}

func (f *fakeSession) Extract(context.Context, string) (any, error) { return map[string]any{}, nil }

func (f *fakeSession) Act(context.Context, string) error { return nil }

func (f *fakeSession) Screenshot(_ context.Context, path string) (string, error) {
	return path + ".png", nil
}

func (f *fakeSession) Close(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}
