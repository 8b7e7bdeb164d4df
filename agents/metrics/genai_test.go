/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics_test

import (
	"context"
	"testing"
	"time"

	"chainguard.dev/evalpanel/agents/agenttrace"
	"chainguard.dev/evalpanel/agents/metrics"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() = %v", err)
	}
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestGenAIRecordsWithExecutionContext(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m := metrics.NewGenAIWithProvider(mp, metrics.MeterName)

	ctx := agenttrace.WithExecutionContext(context.Background(), agenttrace.ExecutionContext{
		Phase: "evaluate",
		Judge: "ux",
	})
	m.RecordTokens(ctx, "claude-sonnet", 100, 20)
	m.RecordToolCall(ctx, "claude-sonnet", "navigateTo")
	m.RecordRequest(ctx, "claude-sonnet", 2*time.Second, nil)

	data := collect(t, reader)

	prompt, ok := data["genai.token.prompt"].(metricdata.Sum[int64])
	if !ok || len(prompt.DataPoints) != 1 {
		t.Fatalf("genai.token.prompt = %#v, wanted one data point", data["genai.token.prompt"])
	}
	dp := prompt.DataPoints[0]
	if dp.Value != 100 {
		t.Errorf("prompt tokens = %d, wanted = 100", dp.Value)
	}
	if v, ok := dp.Attributes.Value("judge"); !ok || v.AsString() != "ux" {
		t.Errorf("judge attribute = %v, wanted = ux", v.AsString())
	}
	if v, ok := dp.Attributes.Value("phase"); !ok || v.AsString() != "evaluate" {
		t.Errorf("phase attribute = %v, wanted = evaluate", v.AsString())
	}

	calls, ok := data["genai.tool.calls"].(metricdata.Sum[int64])
	if !ok || len(calls.DataPoints) != 1 || calls.DataPoints[0].Value != 1 {
		t.Errorf("genai.tool.calls = %#v, wanted a single call", data["genai.tool.calls"])
	}

	if _, ok := data["genai.request.duration"].(metricdata.Histogram[float64]); !ok {
		t.Errorf("genai.request.duration = %#v, wanted a histogram", data["genai.request.duration"])
	}
}
