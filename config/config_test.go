/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chainguard.dev/evalpanel/orchestrator"
	"chainguard.dev/evalpanel/panel"
	"github.com/google/go-cmp/cmp"
)

func TestParseDefaults(t *testing.T) {
	f, err := Parse([]byte(`
context: ./context.md
projects: ./projects.csv
output_dir: ./output
`))
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	want := Default()
	want.Context = "./context.md"
	want.Projects = ProjectSource{Path: "./projects.csv"}
	want.OutputDir = "./output"
	if diff := cmp.Diff(want, f); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
	if got, wanted := f.JudgeTimeout(), 180*time.Second; got != wanted {
		t.Errorf("JudgeTimeout() = %v, wanted = %v", got, wanted)
	}
	if got, wanted := f.CheckpointLocation(), filepath.Join("./output", "checkpoints"); got != wanted {
		t.Errorf("CheckpointLocation() = %q, wanted = %q", got, wanted)
	}
}

func TestParsePartialOverrides(t *testing.T) {
	// JSON is a subset of YAML, so original JSON run files load unchanged.
	f, err := Parse([]byte(`{
  "context": "ctx.md",
  "projects": [{"name": "HealthBot", "url": "https://health.test", "pitch": "Care"}],
  "custom_judges": [{"name": "Ada Lovelace", "context": "Mathematician", "needsBrowser": true}],
  "output_dir": "out",
  "concurrency": {"maxConcurrentBrowsers": 2},
  "models": {"judges": "gemini-2.5-pro"},
  "outlierConfig": {"maxRecommended": 3},
  "judgeWeights": {"Ada Lovelace": 2},
  "deliveryWebhook": {"url": "https://hooks.test/eval", "headers": {"Authorization": "Bearer x"}}
}`))
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if got, wanted := f.Concurrency.MaxConcurrentBrowsers, 2; got != wanted {
		t.Errorf("MaxConcurrentBrowsers = %d, wanted = %d", got, wanted)
	}
	if got, wanted := f.Concurrency.MaxConcurrentAPICalls, 10; got != wanted {
		t.Errorf("MaxConcurrentAPICalls = %d, wanted = %d", got, wanted)
	}
	if got, wanted := f.Models.Judges, "gemini-2.5-pro"; got != wanted {
		t.Errorf("Models.Judges = %q, wanted = %q", got, wanted)
	}
	if got, wanted := f.Models.ReportWriter, "claude-opus-4-6"; got != wanted {
		t.Errorf("Models.ReportWriter = %q, wanted = %q", got, wanted)
	}
	if got, wanted := f.OutlierConfig.MaxRecommended, 3; got != wanted {
		t.Errorf("MaxRecommended = %d, wanted = %d", got, wanted)
	}
	if got, wanted := f.OutlierConfig.GlobalThreshold, 1.5; got != wanted {
		t.Errorf("GlobalThreshold = %v, wanted = %v", got, wanted)
	}
	if diff := cmp.Diff([]panel.CustomJudge{{Name: "Ada Lovelace", Context: "Mathematician", NeedsBrowser: true}}, f.CustomJudges); diff != "" {
		t.Errorf("CustomJudges mismatch (-want +got):\n%s", diff)
	}
	if got, wanted := f.DeliveryWebhook.Headers["Authorization"], "Bearer x"; got != wanted {
		t.Errorf("delivery header = %q, wanted = %q", got, wanted)
	}
	projects, err := f.LoadProjects()
	if err != nil {
		t.Fatalf("LoadProjects() = %v", err)
	}
	if got, wanted := len(projects), 1; got != wanted {
		t.Errorf("len(projects) = %d, wanted = %d", got, wanted)
	}
}

func TestParseRemoteDefaults(t *testing.T) {
	f, err := Parse([]byte(`
context: c.md
projects: p.json
output_dir: out
remote:
  volume: gs://evals/runs
`))
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	want := &Remote{
		Volume:        "gs://evals/runs",
		Dispatcher:    DispatcherExec,
		WorkerBinary:  "evalworker",
		TaskTimeoutMs: 300_000,
	}
	if diff := cmp.Diff(want, f.Remote); diff != "" {
		t.Errorf("Remote mismatch (-want +got):\n%s", diff)
	}
	if got, wanted := f.Remote.TaskTimeout(), 5*time.Minute; got != wanted {
		t.Errorf("TaskTimeout() = %v, wanted = %v", got, wanted)
	}
}

func TestParseInvalid(t *testing.T) {
	base := "context: c.md\nprojects: p.csv\noutput_dir: out\n"
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing context", "projects: p.csv\noutput_dir: out\n", "context is required"},
		{"missing projects", "context: c.md\noutput_dir: out\n", "projects is required"},
		{"missing output", "context: c.md\nprojects: p.csv\n", "output_dir is required"},
		{"zero concurrency", base + "concurrency:\n  maxConcurrentProjects: -1\n", "concurrency.maxConcurrentProjects must be positive"},
		{"bad percentile", base + "outlierConfig:\n  minQualityPercentile: 120\n", "outlierConfig"},
		{"bad model", base + "models:\n  planner: gpt-4o\n", "models.planner: unsupported model"},
		{"negative weight", base + "judgeWeights:\n  tech: -1\n", "judgeWeights.tech must not be negative"},
		{"bad webhook", base + "deliveryWebhook:\n  url: ftp://x\n", "deliveryWebhook.url"},
		{"bad custom judge", base + "custom_judges:\n  - name: Ada\n", "custom_judges[0]"},
		{"bad dispatcher", base + "remote:\n  volume: v\n  dispatcher: modal\n", "remote.dispatcher must be exec or cloudrun"},
		{"cloudrun without job", base + "remote:\n  volume: v\n  dispatcher: cloudrun\n  webhookUrl: https://x.test\n", "remote.job is required"},
		{"projects object", "context: c.md\nprojects: {a: b}\noutput_dir: out\n", "projects must be a path or a list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse() = %v, wanted error containing %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eval.yaml")
	if err := os.WriteFile(path, []byte("context: c.md\nprojects: p.csv\noutput_dir: out\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Errorf("Load() = %v", err)
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load(missing) = nil error")
	}
}

func TestOrchestratorOptions(t *testing.T) {
	f := Default()
	f.OutputDir = "out"
	f.Concurrency.MaxConcurrentProjects = 7
	o := orchestrator.New(orchestrator.Deps{}, f.OrchestratorOptions()...)
	if o == nil {
		t.Fatal("New() = nil")
	}
	if got, wanted := len(f.OrchestratorOptions()), 4; got != wanted {
		t.Errorf("len(OrchestratorOptions()) = %d, wanted = %d", got, wanted)
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("WEBHOOK_ADDR=:9999\nGOOGLE_CLOUD_REGION=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// Unset, restored by t.Setenv's cleanup after godotenv populates it.
	t.Setenv("WEBHOOK_ADDR", "")
	os.Unsetenv("WEBHOOK_ADDR")
	t.Setenv("GOOGLE_CLOUD_REGION", "from-env")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "my-project")
	t.Setenv("METRICS_PORT", "")
	os.Unsetenv("METRICS_PORT")

	env, err := LoadEnv(context.Background(), envFile)
	if err != nil {
		t.Fatalf("LoadEnv() = %v", err)
	}
	want := Env{
		ProjectID:   "my-project",
		Region:      "from-env",
		WebhookAddr: ":9999",
		MetricsPort: 2112,
	}
	want.AnthropicAPIKey = env.AnthropicAPIKey
	want.HMACKey = env.HMACKey
	if diff := cmp.Diff(want, *env); diff != "" {
		t.Errorf("LoadEnv() mismatch (-want +got):\n%s", diff)
	}
	if err := env.ResolveProject(context.Background()); err != nil {
		t.Errorf("ResolveProject() = %v", err)
	}
}

func TestLoadEnvMissingFile(t *testing.T) {
	if _, err := LoadEnv(context.Background(), filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("LoadEnv() = %v", err)
	}
}
