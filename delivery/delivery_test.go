/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package delivery

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"chainguard.dev/evalpanel/agents/executor/retry"
	"chainguard.dev/evalpanel/orchestrator"
	"chainguard.dev/evalpanel/panel"
	"chainguard.dev/evalpanel/progress"
	"chainguard.dev/evalpanel/scoring"
	"github.com/stretchr/testify/require"
)

var fastRetry = retry.RetryConfig{MaxRetries: 2, BaseBackoff: time.Millisecond, MaxBackoff: 4 * time.Millisecond}

func TestNewPayload(t *testing.T) {
	res := &orchestrator.Results{
		Plan: &panel.Plan{Scenario: "TreeHacks 2026", Judges: []panel.JudgeSpec{{Name: "a"}, {Name: "b"}}},
		Rankings: []panel.ProjectScores{{
			ProjectName:    "HealthBot",
			CompositeScore: 8.5,
			JudgeResults:   []panel.JudgeResult{{JudgeName: "a"}},
		}},
		Outliers: scoring.Analysis{NoOutliersDetected: true},
		Reports: orchestrator.Reports{
			Deep:    map[string]string{"HealthBot": "# Report"},
			Summary: "# Summary",
		},
	}
	at := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

	p := NewPayload("run-123", res, at)
	require.Equal(t, "run-123", p.RunID)
	require.Equal(t, "TreeHacks 2026", p.Metadata.Scenario)
	require.Equal(t, 1, p.Metadata.ProjectCount)
	require.Equal(t, 2, p.Metadata.JudgeCount)
	require.Equal(t, "# Summary", p.Reports.Summary)

	b, err := json.Marshal(p)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	require.Equal(t, "2026-02-14T12:00:00Z", got["metadata"].(map[string]any)["completedAt"])
	ranking := got["rankings"].([]any)[0].(map[string]any)
	require.NotContains(t, ranking, "judgeResults")
	require.Equal(t, "# Report", got["reports"].(map[string]any)["deepReports"].(map[string]any)["HealthBot"])
}

func TestDeliverRetries(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, Headers: map[string]string{"Authorization": "Bearer s3cret"}}, WithRetryConfig(fastRetry))
	require.NoError(t, c.Deliver(context.Background(), Payload{RunID: "r"}))
	require.EqualValues(t, 3, attempts.Load())
}

func TestDeliverGivesUp(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := New(Config{URL: srv.URL}, WithRetryConfig(fastRetry)).Deliver(context.Background(), Payload{RunID: "r"})
	require.ErrorContains(t, err, "delivery webhook failed after 2 retries")
	require.EqualValues(t, 3, attempts.Load())
}

func TestForward(t *testing.T) {
	var mu sync.Mutex
	var bodies []ProgressPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		var p ProgressPayload
		if err := json.Unmarshal(b, &p); err != nil {
			t.Errorf("Unmarshal() = %v", err)
		}
		mu.Lock()
		bodies = append(bodies, p)
		mu.Unlock()
	}))
	defer srv.Close()

	forward := New(Config{URL: srv.URL}).Forwarder(context.Background(), "run-123")
	forward(progress.Evaluating("HealthBot", 3, 47))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 1)
	require.Equal(t, "run-123", bodies[0].RunID)
	require.Equal(t, "progress", bodies[0].Type)
	require.Equal(t, progress.Evaluating("HealthBot", 3, 47), bodies[0].Event)
}

func TestForwardIsBestEffort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	srv.Close()

	// Must neither panic nor block on an unreachable webhook.
	New(Config{URL: srv.URL}).Forward(context.Background(), "r", progress.Complete("done"))
}
