/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Command evalpanel evaluates a set of projects with a generated panel of
// judges and writes rankings and per-project reports.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/chainguard-dev/clog"
	_ "github.com/chainguard-dev/clog/gcp/init"
	"github.com/spf13/cobra"
)

type flags struct {
	config     string
	envFile    string
	dryRun     bool
	resume     bool
	local      bool
	project    string
	judgeCount int
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		clog.FatalContextf(ctx, "evalpanel: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "evalpanel",
		Short:         "Evaluate projects with a dynamically generated judge panel",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), f)
		},
	}
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "path to the run file (YAML or JSON)")
	cmd.Flags().StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "show the judging plan without evaluating")
	cmd.Flags().BoolVar(&f.resume, "resume", false, "resume the last remote run instead of starting a new one")
	cmd.Flags().BoolVar(&f.local, "local", false, "run every capability in process even if remote is configured")
	cmd.Flags().StringVarP(&f.project, "project", "p", "", "evaluate a single project by name")
	cmd.Flags().IntVar(&f.judgeCount, "judge-count", 0, "ask the planner for exactly this many judges")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
