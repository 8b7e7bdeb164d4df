/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package googleexecutor_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"chainguard.dev/evalpanel/agents/agenttrace"
	"chainguard.dev/evalpanel/agents/executor"
	"chainguard.dev/evalpanel/agents/executor/googleexecutor"
	"chainguard.dev/evalpanel/agents/toolcall"
	"google.golang.org/genai"
)

type fakeGemini struct {
	mu        sync.Mutex
	responses []map[string]any
	paths     []string
	bodies    []map[string]any
}

func (f *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	var req map[string]any
	_ = json.Unmarshal(body, &req)
	f.paths = append(f.paths, r.URL.Path)
	f.bodies = append(f.bodies, req)

	if len(f.responses) == 0 {
		http.Error(w, `{"error":{"code":400,"message":"no more responses","status":"INVALID_ARGUMENT"}}`, http.StatusBadRequest)
		return
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func candidate(parts ...map[string]any) map[string]any {
	return map[string]any{
		"candidates": []any{map[string]any{
			"content":      map[string]any{"role": "model", "parts": parts},
			"finishReason": "STOP",
		}},
		"usageMetadata": map[string]any{"promptTokenCount": 12, "candidatesTokenCount": 4},
	}
}

func newExecutor(t *testing.T, fake *fakeGemini) *googleexecutor.Executor {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL},
	})
	if err != nil {
		t.Fatalf("NewClient() = %v", err)
	}
	e, err := googleexecutor.New(client, googleexecutor.WithModel("gemini-2.5-pro"))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	return e
}

func testContext() context.Context {
	return agenttrace.WithTracer(context.Background(), agenttrace.ByCode())
}

func TestGenerateText(t *testing.T) {
	fake := &fakeGemini{responses: []map[string]any{candidate(map[string]any{"text": "hello back"})}}
	e := newExecutor(t, fake)

	got, err := e.Generate(testContext(), &executor.Request{System: "be kind", Prompt: "hello"})
	if err != nil {
		t.Fatalf("Generate() = %v", err)
	}
	if got != "hello back" {
		t.Errorf("Generate() = %q, wanted = %q", got, "hello back")
	}
	if len(fake.paths) != 1 || !strings.Contains(fake.paths[0], "gemini-2.5-pro:generateContent") {
		t.Errorf("paths = %v, wanted one generateContent call", fake.paths)
	}
	if _, ok := fake.bodies[0]["systemInstruction"]; !ok {
		t.Error("system instruction was not sent")
	}
}

func TestGenerateRunsTools(t *testing.T) {
	fake := &fakeGemini{responses: []map[string]any{
		candidate(map[string]any{"functionCall": map[string]any{"name": "lookup", "args": map[string]any{"key": "b"}}}),
		candidate(map[string]any{"text": "found it"}),
	}}
	e := newExecutor(t, fake)

	var calls int
	tool := toolcall.Tool{
		Def: toolcall.Definition{Name: "lookup", Parameters: []toolcall.Parameter{{Name: "key", Type: "string", Required: true}}},
		Handler: func(context.Context, toolcall.ToolCall, *agenttrace.Trace) map[string]any {
			calls++
			return map[string]any{"value": 1}
		},
	}

	got, err := e.Generate(testContext(), &executor.Request{Prompt: "find b", MaxTurns: 2, Tools: []toolcall.Tool{tool}})
	if err != nil {
		t.Fatalf("Generate() = %v", err)
	}
	if got != "found it" || calls != 1 {
		t.Errorf("Generate() = %q with %d tool calls, wanted %q with 1", got, calls, "found it")
	}
	if contents, _ := fake.bodies[1]["contents"].([]any); len(contents) != 3 {
		t.Errorf("second request contents = %d, wanted = 3", len(contents))
	}
}

func TestGenerateMaxTurns(t *testing.T) {
	call := map[string]any{"functionCall": map[string]any{"name": "lookup", "args": map[string]any{}}}
	fake := &fakeGemini{responses: []map[string]any{candidate(call)}}
	e := newExecutor(t, fake)

	if _, err := e.Generate(testContext(), &executor.Request{Prompt: "x", MaxTurns: 1}); !errors.Is(err, executor.ErrMaxTurns) {
		t.Errorf("Generate() = %v, wanted %v", err, executor.ErrMaxTurns)
	}
}

func TestNewValidates(t *testing.T) {
	if _, err := googleexecutor.New(nil); err == nil {
		t.Error("New(nil) succeeded, wanted error")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: "k", Backend: genai.BackendGeminiAPI})
	if err != nil {
		t.Fatalf("NewClient() = %v", err)
	}
	if _, err := googleexecutor.New(client, googleexecutor.WithModel("claude-sonnet-4-5")); err == nil {
		t.Error("New() with a Claude model succeeded, wanted error")
	}
	if _, err := googleexecutor.New(client, googleexecutor.WithTemperature(3)); err == nil {
		t.Error("New() with temperature 3 succeeded, wanted error")
	}
}
