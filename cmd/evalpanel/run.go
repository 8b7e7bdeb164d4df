/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chainguard.dev/evalpanel/agents/judge"
	"chainguard.dev/evalpanel/agents/llm"
	"chainguard.dev/evalpanel/agents/metrics"
	"chainguard.dev/evalpanel/agents/planner"
	"chainguard.dev/evalpanel/agents/reportwriter"
	"chainguard.dev/evalpanel/agents/research"
	"chainguard.dev/evalpanel/agents/toolcall"
	"chainguard.dev/evalpanel/browser"
	"chainguard.dev/evalpanel/browser/httpsession"
	"chainguard.dev/evalpanel/checkpoint"
	"chainguard.dev/evalpanel/checkpoint/filestore"
	"chainguard.dev/evalpanel/checkpoint/storeurl"
	"chainguard.dev/evalpanel/config"
	"chainguard.dev/evalpanel/delivery"
	"chainguard.dev/evalpanel/orchestrator"
	"chainguard.dev/evalpanel/panel"
	"chainguard.dev/evalpanel/progress"
	"chainguard.dev/evalpanel/telemetry"
	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// subscriberBuffer is the event buffer of each progress subscriber.
const subscriberBuffer = 256

func run(ctx context.Context, out io.Writer, f flags) error {
	env, err := config.LoadEnv(ctx, f.envFile)
	if err != nil {
		return err
	}
	if err := env.ResolveProject(ctx); err != nil {
		return err
	}
	file, err := config.Load(f.config)
	if err != nil {
		return err
	}
	if f.judgeCount > 0 {
		file.JudgeCount = f.judgeCount
	}
	evalContext, err := file.LoadContext()
	if err != nil {
		return err
	}
	projects, err := file.LoadProjects()
	if err != nil {
		return err
	}

	shutdown, err := telemetry.SetupMeter(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.WithoutCancel(ctx)) }()
	telemetry.Serve(ctx, env.MetricsPort)

	bus := progress.NewBus()
	bus.CountDrops()
	defer bus.Close()
	defer bus.Attach(subscriberBuffer, progress.LogHandler(ctx))()
	defer bus.Attach(subscriberBuffer, progress.MetricsHandler())()

	remoteMode := file.Remote != nil && !f.local
	runID, err := runIDFor(file, remoteMode, f.resume)
	if err != nil {
		return err
	}
	ctx = clog.WithLogger(ctx, clog.FromContext(ctx).With("run_id", runID))

	var hook *delivery.Client
	if file.DeliveryWebhook != nil && !f.dryRun {
		hook = delivery.New(*file.DeliveryWebhook)
		defer bus.Attach(subscriberBuffer, hook.Forwarder(ctx, runID))()
	}

	provider := llm.Provider{
		ProjectID:       env.ProjectID,
		Region:          env.Region,
		AnthropicAPIKey: env.AnthropicAPIKey,
		Enricher:        metrics.ExecutionEnricher,
	}

	var deps orchestrator.Deps
	if remoteMode {
		rd, cleanup, err := remoteDeps(ctx, env, file, runID, evalContext, projects)
		if err != nil {
			return err
		}
		defer cleanup()
		deps = rd
	} else {
		ld, cleanup, err := localDeps(ctx, provider, file)
		if err != nil {
			return err
		}
		defer cleanup()
		deps = ld
	}
	deps.Output = filestore.New(file.OutputDir)
	deps.Progress = bus

	o := orchestrator.New(deps, file.OrchestratorOptions()...)
	res, err := o.Run(ctx, &orchestrator.Input{
		Context:      evalContext,
		Projects:     projects,
		CustomJudges: file.CustomJudges,
		JudgeCount:   file.JudgeCount,
		JudgeWeights: file.JudgeWeights,
		Project:      f.project,
		DryRun:       f.dryRun,
	})
	if err != nil {
		return err
	}

	if f.dryRun {
		printPlan(out, res.Plan, projects)
		return nil
	}
	printResults(out, file.OutputDir, res)

	if hook != nil {
		if err := hook.Deliver(ctx, delivery.NewPayload(runID, res, time.Now())); err != nil {
			clog.FromContext(ctx).Errorf("Delivery webhook failed: %v", err)
		}
	}
	return nil
}

// localDeps builds in-process capabilities.
func localDeps(ctx context.Context, provider llm.Provider, file *config.File) (orchestrator.Deps, func(), error) {
	models := file.Models
	plannerExec, err := provider.New(ctx, models.Planner)
	if err != nil {
		return orchestrator.Deps{}, nil, fmt.Errorf("planner model: %w", err)
	}
	researchExec, err := provider.New(ctx, models.Research)
	if err != nil {
		return orchestrator.Deps{}, nil, fmt.Errorf("research model: %w", err)
	}
	judgeExec, err := provider.New(ctx, models.Judges)
	if err != nil {
		return orchestrator.Deps{}, nil, fmt.Errorf("judge model: %w", err)
	}
	reportExec, err := provider.New(ctx, models.ReportWriter)
	if err != nil {
		return orchestrator.Deps{}, nil, fmt.Errorf("report model: %w", err)
	}

	store, closeStore, err := storeurl.Open(ctx, file.CheckpointLocation())
	if err != nil {
		return orchestrator.Deps{}, nil, fmt.Errorf("checkpoints: %w", err)
	}
	cleanup := func() {
		if err := closeStore(); err != nil {
			clog.FromContext(ctx).Warnf("Closing checkpoint store: %v", err)
		}
	}

	browsers := httpsession.Factory()
	return orchestrator.Deps{
		Planner:     planner.New(plannerExec),
		Researcher:  research.New(researchExec, research.WithTools(researchTools(browsers, file.OutputDir))),
		Judge:       judge.New(judgeExec, judge.WithTimeout(file.JudgeTimeout()), judge.WithSessionFactory(browsers)),
		Reports:     reportwriter.New(reportExec),
		Checkpoints: checkpoint.NewWithPrefix(store, ""),
		Browsers:    browsers,
	}, cleanup, nil
}

// researchTools lets persona research browse the web with its own session.
func researchTools(browsers browser.Factory, outputDir string) research.ToolFactory {
	return func(ctx context.Context) ([]toolcall.Tool, func(), error) {
		session, err := browsers(ctx)
		if err != nil {
			return nil, nil, err
		}
		tools, _ := browser.Tools(session, filepath.Join(outputDir, "screenshots", "research"))
		return tools, func() {
			if err := session.Close(context.WithoutCancel(ctx)); err != nil {
				clog.FromContext(ctx).Warnf("Closing research session: %v", err)
			}
		}, nil
	}
}

// runIDFile records the last remote run so --resume can find its volume.
const runIDFile = ".run-id"

func runIDFor(file *config.File, remoteMode, resume bool) (string, error) {
	path := filepath.Join(file.OutputDir, runIDFile)
	if remoteMode && resume {
		b, err := os.ReadFile(path)
		if err == nil && strings.TrimSpace(string(b)) != "" {
			return strings.TrimSpace(string(b)), nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	id := uuid.NewString()
	if !remoteMode {
		return id, nil
	}
	if err := os.MkdirAll(file.OutputDir, 0o755); err != nil {
		return "", err
	}
	return id, os.WriteFile(path, []byte(id+"\n"), 0o644)
}

func printPlan(w io.Writer, plan *panel.Plan, projects []panel.Project) {
	fmt.Fprintf(w, "Scenario: %s\n", plan.Scenario)
	fmt.Fprintf(w, "Judges (%d):\n", len(plan.Judges))
	browserJudges := 0
	for _, j := range plan.Judges {
		mode := "[text]"
		if j.NeedsBrowser {
			mode = "[browser]"
			browserJudges++
		}
		fmt.Fprintf(w, "  - %s (%s) [%s] %s\n", j.Name, j.Role, j.Source, mode)
		for _, c := range j.ScoringCategories {
			fmt.Fprintf(w, "    * %s (weight: %v)\n", c.Category, c.Weight)
		}
	}
	fmt.Fprintf(w, "\nProjects: %d\n", len(projects))
	fmt.Fprintf(w, "Estimated agent calls: %d\n", len(projects)*len(plan.Judges)+len(projects))
	fmt.Fprintf(w, "Browser sessions: %d\n", len(projects)*browserJudges)
}

func printResults(w io.Writer, outputDir string, res *orchestrator.Results) {
	fmt.Fprintf(w, "\nResults written to %s/\n", outputDir)
	fmt.Fprintln(w, "  - results.json (scores and outlier analysis)")
	fmt.Fprintln(w, "  - rankings.md (summary report)")
	fmt.Fprintln(w, "  - reports/ (per-project deep reports)")
	if res.Outliers.NoOutliersDetected {
		return
	}
	fmt.Fprintln(w, "\nOutliers detected:")
	for _, o := range res.Outliers.Recommended {
		types := make([]string, len(o.OutlierTypes))
		for i, t := range o.OutlierTypes {
			types[i] = string(t)
		}
		fmt.Fprintf(w, "  * %s [%s]\n", o.ProjectName, strings.Join(types, ", "))
	}
}
