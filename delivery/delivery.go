/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package delivery posts a finished run, and optionally its progress, to an
// operator-configured webhook.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"chainguard.dev/evalpanel/agents/executor/retry"
	"chainguard.dev/evalpanel/orchestrator"
	"chainguard.dev/evalpanel/panel"
	"chainguard.dev/evalpanel/progress"
	"chainguard.dev/evalpanel/scoring"
	"github.com/chainguard-dev/clog"
)

// Config addresses the webhook.
type Config struct {
	URL     string            `json:"url" yaml:"url"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// Reports carries the written reports.
type Reports struct {
	DeepReports map[string]string `json:"deepReports"`
	Summary     string            `json:"summary"`
}

// Metadata describes the run.
type Metadata struct {
	Scenario     string    `json:"scenario"`
	ProjectCount int       `json:"projectCount"`
	JudgeCount   int       `json:"judgeCount"`
	CompletedAt  time.Time `json:"completedAt"`
}

// Payload is the final delivery body.
type Payload struct {
	RunID    string           `json:"runId"`
	Rankings []panel.Ranking  `json:"rankings"`
	Outliers scoring.Analysis `json:"outliers"`
	Reports  Reports          `json:"reports"`
	Metadata Metadata         `json:"metadata"`
}

// ProgressPayload wraps one forwarded progress event.
type ProgressPayload struct {
	RunID string         `json:"runId"`
	Type  string         `json:"type"`
	Event progress.Event `json:"event"`
}

// NewPayload builds the delivery body of a finished run.
func NewPayload(runID string, res *orchestrator.Results, completedAt time.Time) Payload {
	rankings := make([]panel.Ranking, len(res.Rankings))
	for i, ps := range res.Rankings {
		rankings[i] = ps.Ranking()
	}
	return Payload{
		RunID:    runID,
		Rankings: rankings,
		Outliers: res.Outliers,
		Reports: Reports{
			DeepReports: res.Reports.Deep,
			Summary:     res.Reports.Summary,
		},
		Metadata: Metadata{
			Scenario:     res.Plan.Scenario,
			ProjectCount: len(res.Rankings),
			JudgeCount:   len(res.Plan.Judges),
			CompletedAt:  completedAt.UTC(),
		},
	}
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetryConfig overrides retry.NotifyRetryConfig for Deliver.
func WithRetryConfig(cfg retry.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// Client posts to one webhook.
type Client struct {
	cfg   Config
	http  *http.Client
	retry retry.RetryConfig
}

// New returns a Client for cfg.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: 30 * time.Second},
		retry: retry.NotifyRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Deliver posts the final payload, retrying failed attempts with backoff.
func (c *Client) Deliver(ctx context.Context, p Payload) error {
	_, err := retry.RetryWithBackoff(ctx, c.retry, "delivery webhook", retry.Always, func() (struct{}, error) {
		return struct{}{}, c.post(ctx, p)
	})
	return err
}

// Forward posts one progress event. Failures are logged and dropped.
func (c *Client) Forward(ctx context.Context, runID string, e progress.Event) {
	if err := c.post(ctx, ProgressPayload{RunID: runID, Type: "progress", Event: e}); err != nil {
		clog.FromContext(ctx).With("event", string(e.Type)).Warnf("Progress delivery failed: %v", err)
	}
}

// Forwarder returns a progress handler that forwards every event of runID,
// suitable for progress.Bus.Attach.
func (c *Client) Forwarder(ctx context.Context, runID string) func(progress.Event) {
	return func(e progress.Event) { c.Forward(ctx, runID, e) }
}

func (c *Client) post(ctx context.Context, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}
