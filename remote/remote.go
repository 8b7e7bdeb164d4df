/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package remote runs the planner, research, judge and report capabilities
// as isolated worker tasks.
//
// The coordinating process writes each task's input to a shared [Volume],
// spawns a worker through a [Dispatcher] and blocks until the worker posts a
// signed notification to the [Server] webhook. The worker writes its output
// back to the volume before notifying. [Backend] wraps the whole exchange
// behind the same interfaces the orchestrator uses for in-process calls.
package remote

import (
	"errors"
	"fmt"

	"chainguard.dev/evalpanel/panel"
)

// ErrTaskTimeout is returned when no notification arrives in time.
var ErrTaskTimeout = errors.New("webhook timeout")

// TaskType names the capability a worker runs.
type TaskType string

const (
	TaskPlanner  TaskType = "planner"
	TaskResearch TaskType = "research"
	TaskJudge    TaskType = "judge"
	TaskReport   TaskType = "report"
)

// ParseTaskType validates s.
func ParseTaskType(s string) (TaskType, error) {
	switch t := TaskType(s); t {
	case TaskPlanner, TaskResearch, TaskJudge, TaskReport:
		return t, nil
	default:
		return "", fmt.Errorf("unknown task type: %s", s)
	}
}

// Status is the outcome reported by a worker.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Notification is the signed body a worker posts when its task ends.
type Notification struct {
	Status     Status `json:"status"`
	OutputPath string `json:"outputPath"`
	Error      string `json:"error,omitempty"`
}

// Task is one unit of remote work.
type Task struct {
	Type  TaskType
	RunID string
	// Project and Judge select the unit for research, judge and report
	// tasks. Research uses Judge only; report uses Project only.
	Project string
	Judge   string
}

// ID identifies the task within its run. It is a single URL path segment.
func (t Task) ID() string {
	switch t.Type {
	case TaskResearch:
		return "research-" + panel.Slug(t.Judge)
	case TaskJudge:
		return "judge-" + panel.Slug(t.Project) + "-" + panel.Slug(t.Judge)
	case TaskReport:
		return "report-" + panel.Slug(t.Project)
	default:
		return string(t.Type)
	}
}

func (t Task) key() string {
	return waitKey(t.RunID, t.Type, t.ID())
}

func waitKey(runID string, taskType TaskType, taskID string) string {
	return runID + "/" + string(taskType) + "/" + taskID
}
