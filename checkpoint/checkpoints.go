/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"chainguard.dev/evalpanel/panel"
	"github.com/chainguard-dev/clog"
)

const (
	// DefaultPrefix is where checkpoints live relative to the output root.
	DefaultPrefix = "checkpoints"

	planKey      = "_plan.json"
	reportPrefix = "_report_"
)

// ProjectRecord is the checkpoint of one project's judge panel.
type ProjectRecord struct {
	ProjectName string              `json:"projectName"`
	Results     []panel.JudgeResult `json:"results"`
}

// ReportRecord is the checkpoint of one project's report.
type ReportRecord struct {
	ProjectName string `json:"projectName"`
	Report      string `json:"report"`
}

// Checkpoints reads and writes run checkpoints in a Store.
type Checkpoints struct {
	store  Store
	prefix string
}

// New returns Checkpoints under DefaultPrefix of store.
func New(store Store) *Checkpoints {
	return NewWithPrefix(store, DefaultPrefix)
}

// NewWithPrefix returns Checkpoints under prefix of store.
func NewWithPrefix(store Store, prefix string) *Checkpoints {
	return &Checkpoints{store: store, prefix: prefix}
}

// PlanKey is the store key of the plan checkpoint.
func (c *Checkpoints) PlanKey() string {
	return path.Join(c.prefix, planKey)
}

// ProjectKey is the store key of a project's judge results.
func (c *Checkpoints) ProjectKey(projectName string) string {
	return path.Join(c.prefix, panel.Slug(projectName)+".json")
}

// ReportKey is the store key of a project's report.
func (c *Checkpoints) ReportKey(projectName string) string {
	return path.Join(c.prefix, reportPrefix+panel.Slug(projectName)+".json")
}

// SavePlan writes the plan checkpoint.
func (c *Checkpoints) SavePlan(ctx context.Context, plan *panel.Plan) error {
	return c.put(ctx, c.PlanKey(), plan)
}

// LoadPlan reads the plan checkpoint. It returns ErrNotFound when no plan has
// been saved.
func (c *Checkpoints) LoadPlan(ctx context.Context) (*panel.Plan, error) {
	var plan panel.Plan
	if err := c.get(ctx, c.PlanKey(), &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// SaveProjectResult writes the results of every judge that completed for a
// project. A project whose judges all failed is still checkpointed, with no
// results.
func (c *Checkpoints) SaveProjectResult(ctx context.Context, projectName string, results []panel.JudgeResult) error {
	if results == nil {
		results = []panel.JudgeResult{}
	}
	return c.put(ctx, c.ProjectKey(projectName), &ProjectRecord{
		ProjectName: projectName,
		Results:     results,
	})
}

// LoadAll returns the checkpointed results of the named projects. Projects
// without a checkpoint are absent from the map, as are projects whose slug
// collides with a checkpoint saved for a different name.
func (c *Checkpoints) LoadAll(ctx context.Context, projectNames []string) (map[string][]panel.JudgeResult, error) {
	out := make(map[string][]panel.JudgeResult, len(projectNames))
	for _, name := range projectNames {
		var rec ProjectRecord
		switch err := c.get(ctx, c.ProjectKey(name), &rec); {
		case errors.Is(err, ErrNotFound):
			continue
		case err != nil:
			return nil, err
		}
		if !c.owns(ctx, c.ProjectKey(name), name, rec.ProjectName) {
			continue
		}
		out[name] = rec.Results
	}
	return out, nil
}

// SaveReport writes a project's report checkpoint.
func (c *Checkpoints) SaveReport(ctx context.Context, projectName, report string) error {
	return c.put(ctx, c.ReportKey(projectName), &ReportRecord{
		ProjectName: projectName,
		Report:      report,
	})
}

// LoadAllReports returns the checkpointed reports of the named projects.
// Projects without a report of their own are absent from the map.
func (c *Checkpoints) LoadAllReports(ctx context.Context, projectNames []string) (map[string]string, error) {
	out := make(map[string]string, len(projectNames))
	for _, name := range projectNames {
		var rec ReportRecord
		switch err := c.get(ctx, c.ReportKey(name), &rec); {
		case errors.Is(err, ErrNotFound):
			continue
		case err != nil:
			return nil, err
		}
		if !c.owns(ctx, c.ReportKey(name), name, rec.ProjectName) {
			continue
		}
		out[name] = rec.Report
	}
	return out, nil
}

// owns reports whether the record at key was saved for name. Distinct names
// can share a slug, and so a key.
func (c *Checkpoints) owns(ctx context.Context, key, name, saved string) bool {
	if saved == name {
		return true
	}
	clog.FromContext(ctx).With("key", key).Warnf("Ignoring checkpoint saved for %q while loading %q", saved, name)
	return false
}

func (c *Checkpoints) put(ctx context.Context, key string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("checkpoint: encoding %s: %w", key, err)
	}
	if err := c.store.Put(ctx, key, b); err != nil {
		return fmt.Errorf("checkpoint: writing %s: %w", key, err)
	}
	return nil
}

func (c *Checkpoints) get(ctx context.Context, key string, v any) error {
	b, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("checkpoint: reading %s: %w", key, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("checkpoint: decoding %s: %w", key, err)
	}
	return nil
}
