/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package progress

import "fmt"

// Type tags an Event.
type Type string

const (
	TypePlanning       Type = "planning"
	TypeResearching    Type = "researching"
	TypeEvaluating     Type = "evaluating"
	TypeJudgeStarted   Type = "judge_started"
	TypeJudgeCompleted Type = "judge_completed"
	TypeJudgeFailed    Type = "judge_failed"
	TypeComputing      Type = "computing"
	TypeReporting      Type = "reporting"
	TypeComplete       Type = "complete"
)

// Event is one progress notification. Which fields are set depends on Type.
type Event struct {
	Type          Type     `json:"type"`
	Message       string   `json:"message,omitempty"`
	ProjectName   string   `json:"projectName,omitempty"`
	JudgeName     string   `json:"judgeName,omitempty"`
	ProjectIndex  int      `json:"projectIndex,omitempty"`
	TotalProjects int      `json:"totalProjects,omitempty"`
	OverallScore  *float64 `json:"overallScore,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// Planning reports plan generation or a cached plan load.
func Planning(message string) Event {
	return Event{Type: TypePlanning, Message: message}
}

// Researching reports progress researching a custom judge persona.
func Researching(judgeName, message string) Event {
	return Event{Type: TypeResearching, JudgeName: judgeName, Message: message}
}

// Evaluating marks the start of a project. index is 1-based.
func Evaluating(projectName string, index, total int) Event {
	return Event{Type: TypeEvaluating, ProjectName: projectName, ProjectIndex: index, TotalProjects: total}
}

// JudgeStarted marks one judge beginning work on a project.
func JudgeStarted(projectName, judgeName string) Event {
	return Event{Type: TypeJudgeStarted, ProjectName: projectName, JudgeName: judgeName}
}

// JudgeCompleted carries the judge's weighted overall score.
func JudgeCompleted(projectName, judgeName string, overallScore float64) Event {
	return Event{Type: TypeJudgeCompleted, ProjectName: projectName, JudgeName: judgeName, OverallScore: &overallScore}
}

// JudgeFailed records why a judge produced no result. err must be non-nil.
func JudgeFailed(projectName, judgeName string, err error) Event {
	return Event{Type: TypeJudgeFailed, ProjectName: projectName, JudgeName: judgeName, Error: err.Error()}
}

// Computing reports score normalization and ranking.
func Computing(message string) Event {
	return Event{Type: TypeComputing, Message: message}
}

// Reporting names the project whose report is being written. The cached
// report summary reuses the field for its message.
func Reporting(projectName string) Event {
	return Event{Type: TypeReporting, ProjectName: projectName}
}

// Complete is the final event of a successful run.
func Complete(message string) Event {
	return Event{Type: TypeComplete, Message: message}
}

// String renders the event for logs.
func (e Event) String() string {
	switch e.Type {
	case TypeEvaluating:
		return fmt.Sprintf("[%d/%d] Evaluating %s", e.ProjectIndex, e.TotalProjects, e.ProjectName)
	case TypeJudgeStarted:
		return fmt.Sprintf("%s: %s started", e.ProjectName, e.JudgeName)
	case TypeJudgeCompleted:
		score := 0.0
		if e.OverallScore != nil {
			score = *e.OverallScore
		}
		return fmt.Sprintf("%s: %s scored %.1f", e.ProjectName, e.JudgeName, score)
	case TypeJudgeFailed:
		return fmt.Sprintf("%s: %s failed: %s", e.ProjectName, e.JudgeName, e.Error)
	case TypeResearching:
		return fmt.Sprintf("%s: %s", e.JudgeName, e.Message)
	case TypeReporting:
		return "Writing report: " + e.ProjectName
	default:
		return e.Message
	}
}
