/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package config loads an evaluation run file and the process environment.
//
// The run file is YAML or JSON. Every block is optional except context,
// projects and output_dir; omitted fields keep their defaults, so a file may
// override a single concurrency limit without restating the others.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"chainguard.dev/evalpanel/agents/llm"
	"chainguard.dev/evalpanel/delivery"
	"chainguard.dev/evalpanel/orchestrator"
	"chainguard.dev/evalpanel/panel"
	"chainguard.dev/evalpanel/scoring"
	"gopkg.in/yaml.v3"
)

// Concurrency bounds the fan-out of a run.
type Concurrency struct {
	MaxConcurrentBrowsers int `yaml:"maxConcurrentBrowsers"`
	MaxConcurrentAPICalls int `yaml:"maxConcurrentApiCalls"`
	MaxConcurrentProjects int `yaml:"maxConcurrentProjects"`
	JudgeTimeoutMs        int `yaml:"judgeTimeoutMs"`
}

// Models names the model of each capability.
type Models struct {
	Planner      string `yaml:"planner"`
	Research     string `yaml:"research"`
	Judges       string `yaml:"judges"`
	ReportWriter string `yaml:"reportWriter"`
}

// Dispatcher kinds.
const (
	DispatcherExec     = "exec"
	DispatcherCloudRun = "cloudrun"
)

// Remote configures distributed execution. Runs are local when it is absent.
type Remote struct {
	// Volume is the store location workers share, e.g. gs://bucket/evals.
	Volume string `yaml:"volume"`
	// Dispatcher is exec or cloudrun.
	Dispatcher string `yaml:"dispatcher"`
	// WorkerBinary is the evalworker executable of the exec dispatcher.
	WorkerBinary string `yaml:"workerBinary"`
	// Job is the Cloud Run job of the cloudrun dispatcher, as
	// projects/<project>/locations/<region>/jobs/<job>.
	Job string `yaml:"job"`
	// WebhookURL is the address workers post notifications to.
	WebhookURL    string `yaml:"webhookUrl"`
	TaskTimeoutMs int    `yaml:"taskTimeoutMs"`
}

// File is an evaluation run file.
type File struct {
	// Context is the path of the scenario document.
	Context      string              `yaml:"context"`
	Projects     ProjectSource       `yaml:"projects"`
	CustomJudges []panel.CustomJudge `yaml:"custom_judges"`
	OutputDir    string              `yaml:"output_dir"`
	// Checkpoints is a store location for checkpoints. It defaults to
	// <output_dir>/checkpoints.
	Checkpoints     string                `yaml:"checkpoints"`
	OutlierConfig   scoring.OutlierConfig `yaml:"outlierConfig"`
	Concurrency     Concurrency           `yaml:"concurrency"`
	Models          Models                `yaml:"models"`
	JudgeWeights    map[string]float64    `yaml:"judgeWeights"`
	JudgeCount      int                   `yaml:"judgeCount"`
	DeliveryWebhook *delivery.Config      `yaml:"deliveryWebhook"`
	Remote          *Remote               `yaml:"remote"`
}

// Default returns a File holding every default.
func Default() *File {
	return &File{
		OutlierConfig: scoring.DefaultOutlierConfig(),
		Concurrency: Concurrency{
			MaxConcurrentBrowsers: 5,
			MaxConcurrentAPICalls: 10,
			MaxConcurrentProjects: 3,
			JudgeTimeoutMs:        180_000,
		},
		Models: Models{
			Planner:      "claude-sonnet-4-5-20250929",
			Research:     "claude-sonnet-4-5-20250929",
			Judges:       "claude-sonnet-4-5-20250929",
			ReportWriter: "claude-opus-4-6",
		},
	}
}

func defaultRemote() *Remote {
	return &Remote{
		Dispatcher:    DispatcherExec,
		WorkerBinary:  "evalworker",
		TaskTimeoutMs: 300_000,
	}
}

// Load reads and validates the run file at path.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	f, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates a run file.
func Parse(b []byte) (*File, error) {
	f := Default()
	if err := yaml.Unmarshal(b, f); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// UnmarshalYAML fills fields the file omits with their defaults.
func (r *Remote) UnmarshalYAML(node *yaml.Node) error {
	type plain Remote
	p := plain(*defaultRemote())
	if err := node.Decode(&p); err != nil {
		return err
	}
	*r = Remote(p)
	return nil
}

// Validate checks the file.
func (f *File) Validate() error {
	var errs []error
	if f.Context == "" {
		errs = append(errs, errors.New("context is required"))
	}
	if f.Projects.Path == "" && len(f.Projects.Inline) == 0 {
		errs = append(errs, errors.New("projects is required"))
	}
	if f.OutputDir == "" {
		errs = append(errs, errors.New("output_dir is required"))
	}
	for i := range f.CustomJudges {
		if err := f.CustomJudges[i].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("custom_judges[%d]: %w", i, err))
		}
	}
	if err := f.OutlierConfig.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("outlierConfig: %w", err))
	}
	c := f.Concurrency
	for name, v := range map[string]int{
		"maxConcurrentBrowsers": c.MaxConcurrentBrowsers,
		"maxConcurrentApiCalls": c.MaxConcurrentAPICalls,
		"maxConcurrentProjects": c.MaxConcurrentProjects,
		"judgeTimeoutMs":        c.JudgeTimeoutMs,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("concurrency.%s must be positive, got %d", name, v))
		}
	}
	for name, model := range map[string]string{
		"planner":      f.Models.Planner,
		"research":     f.Models.Research,
		"judges":       f.Models.Judges,
		"reportWriter": f.Models.ReportWriter,
	} {
		if _, err := llm.FamilyOf(model); err != nil {
			errs = append(errs, fmt.Errorf("models.%s: %w", name, err))
		}
	}
	for judgeName, w := range f.JudgeWeights {
		if w < 0 {
			errs = append(errs, fmt.Errorf("judgeWeights.%s must not be negative", judgeName))
		}
	}
	if f.JudgeCount < 0 {
		errs = append(errs, fmt.Errorf("judgeCount must not be negative, got %d", f.JudgeCount))
	}
	if f.DeliveryWebhook != nil {
		if err := validURL(f.DeliveryWebhook.URL); err != nil {
			errs = append(errs, fmt.Errorf("deliveryWebhook.url: %w", err))
		}
	}
	if f.Remote != nil {
		errs = append(errs, f.Remote.validate()...)
	}
	return errors.Join(errs...)
}

func (r *Remote) validate() []error {
	var errs []error
	if r.Volume == "" {
		errs = append(errs, errors.New("remote.volume is required"))
	}
	switch r.Dispatcher {
	case DispatcherExec:
		if r.WorkerBinary == "" {
			errs = append(errs, errors.New("remote.workerBinary is required"))
		}
	case DispatcherCloudRun:
		if r.Job == "" {
			errs = append(errs, errors.New("remote.job is required for the cloudrun dispatcher"))
		}
		if r.WebhookURL == "" {
			errs = append(errs, errors.New("remote.webhookUrl is required for the cloudrun dispatcher"))
		}
	default:
		errs = append(errs, fmt.Errorf("remote.dispatcher must be %s or %s, got %q", DispatcherExec, DispatcherCloudRun, r.Dispatcher))
	}
	if r.WebhookURL != "" {
		if err := validURL(r.WebhookURL); err != nil {
			errs = append(errs, fmt.Errorf("remote.webhookUrl: %w", err))
		}
	}
	if r.TaskTimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("remote.taskTimeoutMs must be positive, got %d", r.TaskTimeoutMs))
	}
	return errs
}

func validURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an http(s) URL", s)
	}
	return nil
}

// JudgeTimeout is the per-judge-run timeout.
func (f *File) JudgeTimeout() time.Duration {
	return time.Duration(f.Concurrency.JudgeTimeoutMs) * time.Millisecond
}

// TaskTimeout is how long a remote task may run.
func (r *Remote) TaskTimeout() time.Duration {
	return time.Duration(r.TaskTimeoutMs) * time.Millisecond
}

// CheckpointLocation is the store location of checkpoints.
func (f *File) CheckpointLocation() string {
	if f.Checkpoints != "" {
		return f.Checkpoints
	}
	return filepath.Join(f.OutputDir, "checkpoints")
}

// OrchestratorOptions converts the file's settings.
func (f *File) OrchestratorOptions() []orchestrator.Option {
	return []orchestrator.Option{
		orchestrator.WithConcurrency(orchestrator.Concurrency{
			MaxConcurrentBrowsers: f.Concurrency.MaxConcurrentBrowsers,
			MaxConcurrentAPICalls: f.Concurrency.MaxConcurrentAPICalls,
			MaxConcurrentProjects: f.Concurrency.MaxConcurrentProjects,
		}),
		orchestrator.WithOutlierConfig(f.OutlierConfig),
		orchestrator.WithScreenshotRoot(f.OutputDir),
		orchestrator.WithOutputLabel(f.OutputDir),
	}
}
