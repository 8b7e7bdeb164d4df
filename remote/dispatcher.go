/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package remote

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/chainguard-dev/clog"
	run "google.golang.org/api/run/v2"
)

// Dispatcher starts a worker for a task. Spawn returns once the worker has
// been started; the outcome arrives through the webhook.
type Dispatcher interface {
	Spawn(ctx context.Context, t Task) error
}

// Endpoint is what every worker of a run needs to find its inputs and
// report back.
type Endpoint struct {
	// Volume is the store location of the run volume as seen by workers.
	Volume     string
	WebhookURL string
	Key        string
}

// Args builds the evalworker command line of t.
func Args(t Task, ep Endpoint) []string {
	args := []string{
		"--task", string(t.Type),
		"--run-id", t.RunID,
		"--volume", ep.Volume,
		"--webhook-url", ep.WebhookURL,
	}
	if t.Project != "" {
		args = append(args, "--project", t.Project)
	}
	if t.Judge != "" {
		args = append(args, "--judge", t.Judge)
	}
	return args
}

// ExecDispatcher runs each task as a local evalworker subprocess.
type ExecDispatcher struct {
	// Binary is the evalworker executable.
	Binary   string
	Endpoint Endpoint
}

var _ Dispatcher = (*ExecDispatcher)(nil)

// Spawn implements Dispatcher.
func (d *ExecDispatcher) Spawn(ctx context.Context, t Task) error {
	cmd := exec.CommandContext(ctx, d.Binary, Args(t, d.Endpoint)...)
	cmd.Env = append(os.Environ(), HMACKeyEnv+"="+d.Endpoint.Key)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn %s: %w", t.ID(), err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			clog.FromContext(ctx).With("task", t.ID()).Warnf("Worker exited: %v", err)
		}
	}()
	return nil
}

// CloudRunDispatcher runs each task as an execution of a Cloud Run job whose
// container is the evalworker image.
type CloudRunDispatcher struct {
	Service *run.Service
	// Job is projects/<project>/locations/<region>/jobs/<job>.
	Job      string
	Endpoint Endpoint
}

var _ Dispatcher = (*CloudRunDispatcher)(nil)

// NewCloudRunDispatcher returns a dispatcher for job using Application
// Default Credentials.
func NewCloudRunDispatcher(ctx context.Context, job string, ep Endpoint) (*CloudRunDispatcher, error) {
	svc, err := run.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating cloud run client: %w", err)
	}
	return &CloudRunDispatcher{Service: svc, Job: job, Endpoint: ep}, nil
}

// Spawn implements Dispatcher.
func (d *CloudRunDispatcher) Spawn(ctx context.Context, t Task) error {
	req := &run.GoogleCloudRunV2RunJobRequest{
		Overrides: &run.GoogleCloudRunV2Overrides{
			TaskCount: 1,
			ContainerOverrides: []*run.GoogleCloudRunV2ContainerOverride{{
				Args: Args(t, d.Endpoint),
				Env: []*run.GoogleCloudRunV2EnvVar{{
					Name:  HMACKeyEnv,
					Value: d.Endpoint.Key,
				}},
			}},
		},
	}
	op, err := d.Service.Projects.Locations.Jobs.Run(d.Job, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("spawn %s: %w", t.ID(), err)
	}
	clog.FromContext(ctx).With("task", t.ID(), "operation", op.Name).Info("Started Cloud Run execution")
	return nil
}
