/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package panel

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks a project loaded from input.
func (p *Project) Validate() error {
	if p.Name == "" {
		return invalid("project name is required")
	}
	if p.Pitch == "" {
		return invalid("project %q: pitch is required", p.Name)
	}
	if p.URL != "" {
		u, err := url.Parse(p.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return invalid("project %q: url %q is not absolute", p.Name, p.URL)
		}
	}
	return nil
}

// Validate checks a custom judge input.
func (c *CustomJudge) Validate() error {
	if c.Name == "" {
		return invalid("custom judge name is required")
	}
	if c.Context == "" {
		return invalid("custom judge %q: context is required", c.Name)
	}
	return nil
}

func (sc *ScoringCategory) validate() error {
	if sc.Category == "" {
		return invalid("category name is required")
	}
	if !(sc.Weight > 0) {
		return invalid("category %q: weight must be positive, got %v", sc.Category, sc.Weight)
	}
	return nil
}

// Validate checks the shape of a judge spec.
func (js *JudgeSpec) Validate() error {
	if js.Name == "" {
		return invalid("judge name is required")
	}
	if js.Role == "" {
		return invalid("judge %q: role is required", js.Name)
	}
	if js.SystemPrompt == "" {
		return invalid("judge %q: systemPrompt is required", js.Name)
	}
	if len(js.ScoringCategories) == 0 {
		return invalid("judge %q: at least one scoring category is required", js.Name)
	}
	for i := range js.ScoringCategories {
		if err := js.ScoringCategories[i].validate(); err != nil {
			return fmt.Errorf("judge %q: %w", js.Name, err)
		}
	}
	switch js.Source {
	case SourceAuto, SourcePersona:
	default:
		return invalid("judge %q: source must be %q or %q, got %q", js.Name, SourceAuto, SourcePersona, js.Source)
	}
	return nil
}

// Validate checks the shape of a report config.
func (rc *ReportConfig) Validate() error {
	switch rc.FeedbackTone {
	case ToneEncouraging, ToneBalanced, ToneCritical:
		return nil
	default:
		return invalid("feedbackTone %q is not one of encouraging, balanced, critical", rc.FeedbackTone)
	}
}

// Validate checks the plan and its judges. Judge names must be unique.
func (p *Plan) Validate() error {
	if p.Scenario == "" {
		return invalid("plan scenario is required")
	}
	if p.ScoreScale != DefaultScoreScale {
		return invalid("plan score scale must be %d-%d, got %d-%d",
			DefaultScoreScale.Min, DefaultScoreScale.Max, p.ScoreScale.Min, p.ScoreScale.Max)
	}
	if len(p.Judges) == 0 {
		return invalid("plan has no judges")
	}
	seen := make(map[string]struct{}, len(p.Judges))
	for i := range p.Judges {
		if err := p.Judges[i].Validate(); err != nil {
			return err
		}
		if _, dup := seen[p.Judges[i].Name]; dup {
			return invalid("duplicate judge name %q", p.Judges[i].Name)
		}
		seen[p.Judges[i].Name] = struct{}{}
	}
	return p.ReportConfig.Validate()
}

// Validate checks a judge result. Scores must lie in [1, 10].
func (jr *JudgeResult) Validate() error {
	if jr.ProjectName == "" {
		return invalid("judge result: projectName is required")
	}
	if jr.JudgeName == "" {
		return invalid("judge result: judgeName is required")
	}
	if len(jr.Scores) == 0 {
		return invalid("judge result %s/%s: no scores", jr.ProjectName, jr.JudgeName)
	}
	for _, s := range jr.Scores {
		if s.Category == "" {
			return invalid("judge result %s/%s: score without category", jr.ProjectName, jr.JudgeName)
		}
		if s.Score < float64(DefaultScoreScale.Min) || s.Score > float64(DefaultScoreScale.Max) {
			return invalid("judge result %s/%s: %s score %v outside %d-%d",
				jr.ProjectName, jr.JudgeName, s.Category, s.Score, DefaultScoreScale.Min, DefaultScoreScale.Max)
		}
		if !(s.Weight > 0) {
			return invalid("judge result %s/%s: %s weight must be positive", jr.ProjectName, jr.JudgeName, s.Category)
		}
	}
	if jr.Feedback.Strengths == nil || jr.Feedback.Weaknesses == nil || jr.Feedback.Suggestions == nil {
		return invalid("judge result %s/%s: feedback lists are required", jr.ProjectName, jr.JudgeName)
	}
	for _, ip := range jr.FeedbackSignal.ImprovementPriorities {
		switch ip.Impact {
		case ImpactHigh, ImpactMedium, ImpactLow:
		default:
			return invalid("judge result %s/%s: impact %q", jr.ProjectName, jr.JudgeName, ip.Impact)
		}
	}
	switch jr.ResourceAccessible {
	case FullyAccessible, PartiallyAccessible, Inaccessible:
	default:
		return invalid("judge result %s/%s: resourceAccessible %q", jr.ProjectName, jr.JudgeName, jr.ResourceAccessible)
	}
	for _, tr := range jr.TrackRecommendations {
		switch tr.Fit {
		case FitStrong, FitModerate, FitWeak:
		default:
			return invalid("judge result %s/%s: track fit %q", jr.ProjectName, jr.JudgeName, tr.Fit)
		}
	}
	return nil
}
