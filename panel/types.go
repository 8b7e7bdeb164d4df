/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package panel

// Project is one evaluable submission. Name is the unique key.
type Project struct {
	Name  string `json:"name" yaml:"name"`
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`
	Idea  string `json:"idea,omitempty" yaml:"idea,omitempty"`
	Pitch string `json:"pitch" yaml:"pitch"`
}

// CustomJudge names a real person to research into a persona judge.
type CustomJudge struct {
	Name         string `json:"name" yaml:"name"`
	Context      string `json:"context" yaml:"context"`
	NeedsBrowser bool   `json:"needsBrowser" yaml:"needsBrowser"`
}

// ScoringCategory is one weighted rubric line of a judge.
type ScoringCategory struct {
	Category    string  `json:"category" jsonschema:"required"`
	Description string  `json:"description" jsonschema:"required"`
	Weight      float64 `json:"weight" jsonschema:"required,exclusiveMinimum=0"`
}

// Source records where a judge came from.
type Source string

const (
	// SourceAuto marks judges generated by the planner from the scenario text.
	SourceAuto Source = "auto"
	// SourcePersona marks judges researched from a named person.
	SourcePersona Source = "persona"
)

// JudgeSpec describes one judge of the panel.
type JudgeSpec struct {
	Name              string            `json:"name" jsonschema:"required"`
	Role              string            `json:"role" jsonschema:"required"`
	SystemPrompt      string            `json:"systemPrompt" jsonschema:"required"`
	ScoringCategories []ScoringCategory `json:"scoringCategories" jsonschema:"required"`
	NeedsBrowser      bool              `json:"needsBrowser"`
	Source            Source            `json:"source" jsonschema:"required,enum=auto,enum=persona"`
}

// ScoreScale is fixed at 1..10.
type ScoreScale struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DefaultScoreScale is the only scale the panel supports.
var DefaultScoreScale = ScoreScale{Min: 1, Max: 10}

// Tone is the feedback register used by judges and the report writer.
type Tone string

const (
	ToneEncouraging Tone = "encouraging"
	ToneBalanced    Tone = "balanced"
	ToneCritical    Tone = "critical"
)

// ReportConfig controls report generation.
type ReportConfig struct {
	FeedbackTone                Tone `json:"feedbackTone" jsonschema:"required,enum=encouraging,enum=balanced,enum=critical"`
	IncludeScreenshots          bool `json:"includeScreenshots"`
	IncludeTrackRecommendations bool `json:"includeTrackRecommendations"`
}

// Plan is the judging plan for one run.
type Plan struct {
	Scenario      string       `json:"scenario" jsonschema:"required"`
	ScoreScale    ScoreScale   `json:"scoreScale" jsonschema:"required"`
	ScaleGuidance string       `json:"scaleGuidance" jsonschema:"required"`
	Judges        []JudgeSpec  `json:"judges" jsonschema:"required"`
	Tracks        []string     `json:"tracks,omitempty"`
	ReportConfig  ReportConfig `json:"reportConfig" jsonschema:"required"`
}

// CategoryScore is one judge's score for one category of one project.
type CategoryScore struct {
	Category  string  `json:"category" jsonschema:"required"`
	Score     float64 `json:"score" jsonschema:"required,minimum=1,maximum=10"`
	Weight    float64 `json:"weight" jsonschema:"required,exclusiveMinimum=0"`
	Reasoning string  `json:"reasoning" jsonschema:"required"`
}

// Feedback is the prose part of a judge result.
type Feedback struct {
	Strengths   []string `json:"strengths" jsonschema:"required"`
	Weaknesses  []string `json:"weaknesses" jsonschema:"required"`
	Suggestions []string `json:"suggestions" jsonschema:"required"`
	Summary     string   `json:"summary" jsonschema:"required"`
}

// Impact ranks an improvement priority.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// ImprovementPriority is one area the project should work on.
type ImprovementPriority struct {
	Area         string `json:"area" jsonschema:"required"`
	Impact       Impact `json:"impact" jsonschema:"required,enum=high,enum=medium,enum=low"`
	CurrentState string `json:"currentState" jsonschema:"required"`
	TargetState  string `json:"targetState" jsonschema:"required"`
}

// FeedbackSignal is the structured, machine-usable part of the feedback.
type FeedbackSignal struct {
	ImprovementPriorities []ImprovementPriority `json:"improvementPriorities" jsonschema:"required"`
	KeyDifferentiators    []string              `json:"keyDifferentiators" jsonschema:"required"`
	DealBreakers          []string              `json:"dealBreakers" jsonschema:"required"`
}

// Fit grades how well a project matches a track.
type Fit string

const (
	FitStrong   Fit = "strong"
	FitModerate Fit = "moderate"
	FitWeak     Fit = "weak"
)

// TrackRecommendation suggests a prize track for a project.
type TrackRecommendation struct {
	Track     string `json:"track" jsonschema:"required"`
	Fit       Fit    `json:"fit" jsonschema:"required,enum=strong,enum=moderate,enum=weak"`
	Reasoning string `json:"reasoning" jsonschema:"required"`
}

// Accessibility is whether the judge could reach the project's live resource.
type Accessibility string

const (
	FullyAccessible     Accessibility = "fully_accessible"
	PartiallyAccessible Accessibility = "partially_accessible"
	Inaccessible        Accessibility = "inaccessible"
)

// JudgeResult is one judge's evaluation of one project. It is never mutated
// after it has been checkpointed.
type JudgeResult struct {
	ProjectName          string                `json:"projectName" jsonschema:"required"`
	JudgeName            string                `json:"judgeName" jsonschema:"required"`
	Scores               []CategoryScore       `json:"scores" jsonschema:"required"`
	Feedback             Feedback              `json:"feedback" jsonschema:"required"`
	FeedbackSignal       FeedbackSignal        `json:"feedbackSignal" jsonschema:"required"`
	ResourceAccessible   Accessibility         `json:"resourceAccessible" jsonschema:"required,enum=fully_accessible,enum=partially_accessible,enum=inaccessible"`
	ResourceNotes        string                `json:"resourceNotes,omitempty"`
	TrackRecommendations []TrackRecommendation `json:"trackRecommendations,omitempty"`
	Screenshots          []string              `json:"screenshots,omitempty"`
}

// ProjectScores is derived from a project's judge results on every run.
type ProjectScores struct {
	ProjectName      string             `json:"projectName"`
	JudgeResults     []JudgeResult      `json:"judgeResults"`
	OverallScores    map[string]float64 `json:"overallScores"`
	NormalizedScores map[string]float64 `json:"normalizedScores"`
	CompositeScore   float64            `json:"compositeScore"`
}

// Ranking is the results.json view of a ProjectScores.
type Ranking struct {
	ProjectName      string             `json:"projectName"`
	CompositeScore   float64            `json:"compositeScore"`
	OverallScores    map[string]float64 `json:"overallScores"`
	NormalizedScores map[string]float64 `json:"normalizedScores"`
}

// Ranking drops the judge results.
func (ps ProjectScores) Ranking() Ranking {
	return Ranking{
		ProjectName:      ps.ProjectName,
		CompositeScore:   ps.CompositeScore,
		OverallScores:    ps.OverallScores,
		NormalizedScores: ps.NormalizedScores,
	}
}
