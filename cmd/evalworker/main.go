/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Command evalworker runs a single planner, research, judge or report task
// for a remote evalpanel run and reports back over the signed webhook.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
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
	"chainguard.dev/evalpanel/checkpoint/storeurl"
	"chainguard.dev/evalpanel/config"
	"chainguard.dev/evalpanel/remote"
	"github.com/chainguard-dev/clog"
	_ "github.com/chainguard-dev/clog/gcp/init"
	"github.com/spf13/cobra"
)

type flags struct {
	task       string
	runID      string
	volume     string
	webhookURL string
	project    string
	judge      string
	envFile    string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		clog.FatalContextf(ctx, "evalworker: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "evalworker",
		Short:         "Run one remote evalpanel task",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.task, "task", "", "task type: planner, research, judge or report")
	cmd.Flags().StringVar(&f.runID, "run-id", "", "run the task belongs to")
	cmd.Flags().StringVar(&f.volume, "volume", "", "shared volume location (directory, gs:// or redis://)")
	cmd.Flags().StringVar(&f.webhookURL, "webhook-url", "", "coordinator webhook base URL")
	cmd.Flags().StringVar(&f.project, "project", "", "project name for judge and report tasks")
	cmd.Flags().StringVar(&f.judge, "judge", "", "judge name for research and judge tasks")
	cmd.Flags().StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	for _, name := range []string{"task", "run-id", "volume", "webhook-url"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func run(ctx context.Context, f flags) error {
	taskType, err := remote.ParseTaskType(f.task)
	if err != nil {
		return err
	}
	task := remote.Task{Type: taskType, RunID: f.runID, Project: f.project, Judge: f.judge}
	ctx = clog.WithLogger(ctx, clog.FromContext(ctx).With("run_id", f.runID, "task", task.ID()))

	env, err := config.LoadEnv(ctx, f.envFile)
	if err != nil {
		return err
	}
	if env.HMACKey == "" {
		return fmt.Errorf("%s is required", remote.HMACKeyEnv)
	}
	if err := env.ResolveProject(ctx); err != nil {
		return err
	}

	store, closeStore, err := storeurl.Open(ctx, f.volume)
	if err != nil {
		return fmt.Errorf("volume: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			clog.FromContext(ctx).Warnf("Closing volume: %v", err)
		}
	}()

	volume := remote.NewVolume(store, f.runID)
	cfg, err := volume.Config(ctx)
	if err != nil {
		return fmt.Errorf("reading worker config: %w", err)
	}

	provider := llm.Provider{
		ProjectID:       env.ProjectID,
		Region:          env.Region,
		AnthropicAPIKey: env.AnthropicAPIKey,
		Enricher:        metrics.ExecutionEnricher,
	}
	caps, err := capabilities(ctx, provider, taskType, cfg, store)
	if err != nil {
		return err
	}

	w := &remote.Worker{
		Volume:         volume,
		Notifier:       remote.NewNotifier(f.webhookURL, env.HMACKey, f.runID),
		Capabilities:   caps,
		ScreenshotRoot: filepath.Join(os.TempDir(), "evalpanel", f.runID, "screenshots"),
	}
	return w.Run(ctx, task)
}

// capabilities builds only the agent the task needs.
func capabilities(ctx context.Context, provider llm.Provider, t remote.TaskType, cfg remote.WorkerConfig, store checkpoint.Store) (remote.Capabilities, error) {
	var caps remote.Capabilities
	switch t {
	case remote.TaskPlanner:
		exec, err := provider.New(ctx, cfg.PlannerModel)
		if err != nil {
			return caps, err
		}
		caps.Planner = planner.New(exec)
	case remote.TaskResearch:
		exec, err := provider.New(ctx, cfg.ResearchModel)
		if err != nil {
			return caps, err
		}
		caps.Researcher = research.New(exec,
			research.WithCache(checkpoint.Prefix(store, research.DefaultCacheDir)),
			research.WithTools(researchTools(httpsession.Factory())))
	case remote.TaskJudge:
		exec, err := provider.New(ctx, cfg.JudgeModel)
		if err != nil {
			return caps, err
		}
		opts := []judge.Option{judge.WithSessionFactory(httpsession.Factory())}
		if cfg.JudgeTimeoutMs > 0 {
			opts = append(opts, judge.WithTimeout(time.Duration(cfg.JudgeTimeoutMs)*time.Millisecond))
		}
		caps.Judge = judge.New(exec, opts...)
	case remote.TaskReport:
		exec, err := provider.New(ctx, cfg.ReportModel)
		if err != nil {
			return caps, err
		}
		caps.Reports = reportwriter.New(exec)
	default:
		return caps, errors.New("unsupported task type: " + string(t))
	}
	return caps, nil
}

func researchTools(browsers browser.Factory) research.ToolFactory {
	return func(ctx context.Context) ([]toolcall.Tool, func(), error) {
		session, err := browsers(ctx)
		if err != nil {
			return nil, nil, err
		}
		tools, _ := browser.Tools(session, filepath.Join(os.TempDir(), "evalpanel", "research"))
		return tools, func() {
			if err := session.Close(context.WithoutCancel(ctx)); err != nil {
				clog.FromContext(ctx).Warnf("Closing research session: %v", err)
			}
		}, nil
	}
}
