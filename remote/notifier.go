/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chainguard.dev/evalpanel/agents/executor/retry"
	"chainguard.dev/evalpanel/progress"
	"github.com/chainguard-dev/clog"
)

// Notifier posts signed bodies from a worker to the coordinator's webhook.
type Notifier struct {
	baseURL string
	key     string
	runID   string
	http    *http.Client
	retry   retry.RetryConfig
}

var _ progress.Publisher = (*Notifier)(nil)

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithNotifierHTTPClient sets the HTTP client.
func WithNotifierHTTPClient(hc *http.Client) NotifierOption {
	return func(n *Notifier) { n.http = hc }
}

// WithNotifierRetry overrides retry.NotifyRetryConfig.
func WithNotifierRetry(cfg retry.RetryConfig) NotifierOption {
	return func(n *Notifier) { n.retry = cfg }
}

// NewNotifier returns a Notifier posting to baseURL for runID.
func NewNotifier(baseURL, key, runID string, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		key:     key,
		runID:   runID,
		http:    &http.Client{Timeout: 30 * time.Second},
		retry:   retry.NotifyRetryConfig(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify posts the task's notification, retrying with backoff.
func (n *Notifier) Notify(ctx context.Context, t Task, note Notification) error {
	sig, err := Sign(n.key, note)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/webhook/%s/%s/%s", n.baseURL, n.runID, t.Type, t.ID())
	_, err = retry.RetryWithBackoff(ctx, n.retry, "task notification", retry.Always, func() (struct{}, error) {
		return struct{}{}, n.post(ctx, url, signedNotification{Notification: note, HMAC: sig})
	})
	return err
}

// Publish implements progress.Publisher. Events are posted once; failures
// are logged and dropped.
func (n *Notifier) Publish(ctx context.Context, e progress.Event) {
	msg := ProgressMessage{Type: "progress", Event: e}
	sig, err := Sign(n.key, msg)
	if err == nil {
		url := fmt.Sprintf("%s/webhook/%s/progress/event", n.baseURL, n.runID)
		err = n.post(ctx, url, signedProgress{ProgressMessage: msg, HMAC: sig})
	}
	if err != nil {
		clog.FromContext(ctx).With("event", string(e.Type)).Warnf("Progress post failed: %v", err)
	}
}

func (n *Notifier) post(ctx context.Context, url string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.http.Do(req)
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
