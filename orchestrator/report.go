/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"chainguard.dev/evalpanel/agents/reportwriter"
	"chainguard.dev/evalpanel/concurrency"
	"chainguard.dev/evalpanel/panel"
	"chainguard.dev/evalpanel/progress"
	"chainguard.dev/evalpanel/scoring"
	"github.com/chainguard-dev/clog"
)

// Output keys.
const (
	ResultsKey  = "results.json"
	RankingsKey = "rankings.md"
	ReportsDir  = "reports"
)

// ReportKey is the output key of a project's report.
func ReportKey(projectName string) string {
	return path.Join(ReportsDir, panel.Slug(projectName)+".md")
}

// report returns a report for every ranked project, reusing checkpointed
// ones. A failed report becomes a placeholder.
func (o *Orchestrator) report(ctx context.Context, plan *panel.Plan, rankings []panel.ProjectScores) (map[string]string, error) {
	names := make([]string, len(rankings))
	for i, ps := range rankings {
		names[i] = ps.ProjectName
	}
	cached, err := o.deps.Checkpoints.LoadAllReports(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}

	deep := make(map[string]string, len(rankings))
	var missing []panel.ProjectScores
	for _, ps := range rankings {
		if r, ok := cached[ps.ProjectName]; ok {
			deep[ps.ProjectName] = r
		} else {
			missing = append(missing, ps)
		}
	}
	if len(cached) > 0 && len(missing) < len(rankings) {
		o.emit(ctx, progress.Reporting(fmt.Sprintf("Loaded %d cached reports, %d remaining", len(cached), len(missing))))
	}

	sem := concurrency.NewSemaphore(o.concurrency.MaxConcurrentAPICalls)
	written := concurrency.Map(ctx, sem, missing, func(ctx context.Context, ps panel.ProjectScores) (string, error) {
		o.emit(ctx, progress.Reporting(ps.ProjectName))
		report, err := o.deps.Reports.Write(ctx, &reportwriter.Request{Scores: ps, Plan: plan})
		if err != nil {
			return "", err
		}
		if err := o.deps.Checkpoints.SaveReport(ctx, ps.ProjectName, report); err != nil {
			return "", err
		}
		return report, nil
	})
	for i, r := range written {
		name := missing[i].ProjectName
		if r.Err != nil {
			clog.FromContext(ctx).With("project", name).Warnf("Report failed: %v", r.Err)
			deep[name] = reportwriter.Placeholder(name, r.Err)
			continue
		}
		deep[name] = r.Value
	}
	return deep, nil
}

// resultsFile is the shape of results.json.
type resultsFile struct {
	Plan     *panel.Plan      `json:"plan"`
	Rankings []panel.Ranking  `json:"rankings"`
	Outliers scoring.Analysis `json:"outliers"`
}

// persist writes the run's outputs.
func (o *Orchestrator) persist(ctx context.Context, res *Results) error {
	rankings := make([]panel.Ranking, len(res.Rankings))
	for i, ps := range res.Rankings {
		rankings[i] = ps.Ranking()
	}
	b, err := json.MarshalIndent(resultsFile{Plan: res.Plan, Rankings: rankings, Outliers: res.Outliers}, "", "  ")
	if err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	if err := o.deps.Output.Put(ctx, ResultsKey, b); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	if err := o.deps.Output.Put(ctx, RankingsKey, []byte(res.Reports.Summary)); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	for _, ps := range res.Rankings {
		report, ok := res.Reports.Deep[ps.ProjectName]
		if !ok {
			continue
		}
		if err := o.deps.Output.Put(ctx, ReportKey(ps.ProjectName), []byte(report)); err != nil {
			return fmt.Errorf("persist: %w", err)
		}
	}
	return nil
}
