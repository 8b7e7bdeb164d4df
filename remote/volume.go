/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"chainguard.dev/evalpanel/checkpoint"
	"chainguard.dev/evalpanel/panel"
)

// Input and output names within a run.
const (
	ContextInput  = "context.md"
	ProjectsInput = "projects.json"
	ConfigInput   = "config.json"
	PlanOutput    = "plan.json"
)

// WorkerConfig is the per-run configuration workers read from the volume.
type WorkerConfig struct {
	PlannerModel  string `json:"plannerModel"`
	ResearchModel string `json:"researchModel"`
	JudgeModel    string `json:"judgeModel"`
	ReportModel   string `json:"reportModel"`
	// JudgeTimeoutMs bounds each judge run. Zero keeps the runner default.
	JudgeTimeoutMs int `json:"judgeTimeoutMs,omitempty"`
}

// Volume is the shared storage of one run, laid out as
// <runId>/inputs, <runId>/outputs and <runId>/checkpoints.
type Volume struct {
	store checkpoint.Store
	runID string
}

// NewVolume returns the volume of runID within store.
func NewVolume(store checkpoint.Store, runID string) *Volume {
	return &Volume{store: store, runID: runID}
}

// RunID is the run the volume belongs to.
func (v *Volume) RunID() string { return v.runID }

// InputKey is the store key of an input.
func (v *Volume) InputKey(name string) string {
	return path.Join(v.runID, "inputs", name)
}

// OutputKey is the store key of an output.
func (v *Volume) OutputKey(name string) string {
	return path.Join(v.runID, "outputs", name)
}

// Checkpoints returns the run's checkpoints.
func (v *Volume) Checkpoints() *checkpoint.Checkpoints {
	return checkpoint.NewWithPrefix(v.store, path.Join(v.runID, "checkpoints"))
}

// Outputs returns a store rooted at the run's outputs, where the final
// results are written.
func (v *Volume) Outputs() checkpoint.Store {
	return checkpoint.Prefix(v.store, path.Join(v.runID, "outputs"))
}

// TaskInput names the request file of a task.
func TaskInput(t Task) string {
	return path.Join("tasks", t.ID()+".json")
}

// TaskOutput names the result file of a task.
func TaskOutput(t Task) string {
	switch t.Type {
	case TaskResearch:
		return path.Join("personas", panel.Slug(t.Judge)+".json")
	case TaskJudge:
		return path.Join("scores", panel.Slug(t.Project), panel.Slug(t.Judge)+".json")
	case TaskReport:
		return path.Join("reports", panel.Slug(t.Project)+".md")
	default:
		return PlanOutput
	}
}

// WriteInputs writes the inputs shared by every task of the run.
func (v *Volume) WriteInputs(ctx context.Context, evalContext string, projects []panel.Project, cfg WorkerConfig) error {
	if err := v.store.Put(ctx, v.InputKey(ContextInput), []byte(evalContext)); err != nil {
		return fmt.Errorf("volume: writing context: %w", err)
	}
	if err := v.PutJSON(ctx, v.InputKey(ProjectsInput), projects); err != nil {
		return err
	}
	return v.PutJSON(ctx, v.InputKey(ConfigInput), cfg)
}

// Context reads the evaluation context.
func (v *Volume) Context(ctx context.Context) (string, error) {
	b, err := v.store.Get(ctx, v.InputKey(ContextInput))
	if err != nil {
		return "", fmt.Errorf("volume: reading context: %w", err)
	}
	return string(b), nil
}

// Config reads the worker configuration.
func (v *Volume) Config(ctx context.Context) (WorkerConfig, error) {
	var cfg WorkerConfig
	err := v.GetJSON(ctx, v.InputKey(ConfigInput), &cfg)
	return cfg, err
}

// PutJSON writes v as indented JSON.
func (v *Volume) PutJSON(ctx context.Context, key string, value any) error {
	b, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("volume: encoding %s: %w", key, err)
	}
	if err := v.store.Put(ctx, key, b); err != nil {
		return fmt.Errorf("volume: writing %s: %w", key, err)
	}
	return nil
}

// GetJSON decodes the JSON stored at key into value.
func (v *Volume) GetJSON(ctx context.Context, key string, value any) error {
	b, err := v.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("volume: reading %s: %w", key, err)
	}
	if err := json.Unmarshal(b, value); err != nil {
		return fmt.Errorf("volume: decoding %s: %w", key, err)
	}
	return nil
}

// Get reads the raw value at key.
func (v *Volume) Get(ctx context.Context, key string) ([]byte, error) {
	return v.store.Get(ctx, key)
}

// Put writes a raw value at key.
func (v *Volume) Put(ctx context.Context, key string, value []byte) error {
	return v.store.Put(ctx, key, value)
}
