/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"fmt"
	"net"
	"strings"

	"chainguard.dev/evalpanel/checkpoint/storeurl"
	"chainguard.dev/evalpanel/config"
	"chainguard.dev/evalpanel/orchestrator"
	"chainguard.dev/evalpanel/panel"
	"chainguard.dev/evalpanel/progress"
	"chainguard.dev/evalpanel/remote"
	"github.com/chainguard-dev/clog"
)

// remoteDeps runs every capability as a worker task. Worker progress is only
// logged: the orchestrator publishes the judge lifecycle itself.
func remoteDeps(ctx context.Context, env *config.Env, file *config.File, runID, evalContext string, projects []panel.Project) (orchestrator.Deps, func(), error) {
	rc := file.Remote
	log := clog.FromContext(ctx)

	store, closeStore, err := storeurl.Open(ctx, rc.Volume)
	if err != nil {
		return orchestrator.Deps{}, nil, fmt.Errorf("volume: %w", err)
	}
	ctx, cancel := context.WithCancel(ctx)
	cleanup := func() {
		cancel()
		if err := closeStore(); err != nil {
			log.Warnf("Closing volume: %v", err)
		}
	}

	key := env.HMACKey
	if key == "" {
		key = remote.NewKey()
	}
	workerLog := progress.LogHandler(clog.WithLogger(ctx, log.With("source", "worker")))
	server := remote.NewServer(key, progress.PublisherFunc(func(_ context.Context, e progress.Event) { workerLog(e) }))

	ln, err := net.Listen("tcp", env.WebhookAddr)
	if err != nil {
		cleanup()
		return orchestrator.Deps{}, nil, fmt.Errorf("webhook listener: %w", err)
	}
	go func() {
		if err := server.Serve(ctx, ln); err != nil {
			log.Errorf("Webhook server: %v", err)
		}
	}()

	ep := remote.Endpoint{
		Volume:     rc.Volume,
		WebhookURL: rc.WebhookURL,
		Key:        key,
	}
	if ep.WebhookURL == "" {
		ep.WebhookURL = "http://" + localAddr(ln.Addr())
	}
	log.With("webhook", ep.WebhookURL).Info("Listening for worker callbacks")

	var dispatcher remote.Dispatcher
	switch rc.Dispatcher {
	case config.DispatcherCloudRun:
		d, err := remote.NewCloudRunDispatcher(ctx, rc.Job, ep)
		if err != nil {
			cleanup()
			return orchestrator.Deps{}, nil, err
		}
		dispatcher = d
	default:
		dispatcher = &remote.ExecDispatcher{Binary: rc.WorkerBinary, Endpoint: ep}
	}

	volume := remote.NewVolume(store, runID)
	if err := volume.WriteInputs(ctx, evalContext, projects, remote.WorkerConfig{
		PlannerModel:   file.Models.Planner,
		ResearchModel:  file.Models.Research,
		JudgeModel:     file.Models.Judges,
		ReportModel:    file.Models.ReportWriter,
		JudgeTimeoutMs: file.Concurrency.JudgeTimeoutMs,
	}); err != nil {
		cleanup()
		return orchestrator.Deps{}, nil, err
	}

	backend := remote.NewBackend(volume, server, dispatcher,
		remote.WithTaskTimeout(rc.TaskTimeout()),
		remote.WithJudgeLimit(file.Concurrency.MaxConcurrentAPICalls))
	return orchestrator.Deps{
		Planner:     backend,
		Researcher:  backend,
		Judge:       backend,
		Reports:     backend,
		Checkpoints: volume.Checkpoints(),
	}, cleanup, nil
}

// localAddr turns a wildcard listen address into one a local worker can
// dial.
func localAddr(addr net.Addr) string {
	s := addr.String()
	if host, port, err := net.SplitHostPort(s); err == nil && (host == "" || host == "::" || strings.HasPrefix(host, "0.0.0.0")) {
		return net.JoinHostPort("localhost", port)
	}
	return s
}
