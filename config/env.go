/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"cloud.google.com/go/compute/metadata"
	"github.com/chainguard-dev/clog"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/oauth2/google"
)

// Env is the process environment of the binaries.
type Env struct {
	// ProjectID and Region address Vertex AI. ProjectID is detected when
	// unset.
	ProjectID string `env:"GOOGLE_CLOUD_PROJECT"`
	Region    string `env:"GOOGLE_CLOUD_REGION,default=us-east5"`
	// AnthropicAPIKey sends Claude models to the direct API instead of
	// Vertex AI.
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`

	// WebhookAddr is where the coordinator listens for worker callbacks.
	WebhookAddr string `env:"WEBHOOK_ADDR,default=:8787"`
	// HMACKey signs worker callbacks. Coordinators generate one per run
	// when unset; workers require it.
	HMACKey string `env:"WEBHOOK_HMAC_KEY"`

	MetricsPort int `env:"METRICS_PORT,default=2112"`
}

// LoadEnv loads envFile, when it exists, into the environment and then
// processes Env. Variables already set win over the file.
func LoadEnv(ctx context.Context, envFile string) (*Env, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}
	var env Env
	if err := envconfig.Process(ctx, &env); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	return &env, nil
}

// ResolveProject fills ProjectID from the environment's Google credentials
// when it is unset. A direct Anthropic key makes the project optional.
func (e *Env) ResolveProject(ctx context.Context) error {
	if e.ProjectID != "" {
		return nil
	}
	id, err := DetectProjectID(ctx)
	if err != nil {
		if e.AnthropicAPIKey != "" {
			return nil
		}
		return err
	}
	clog.FromContext(ctx).With("project_id", id).Info("Detected Google Cloud project")
	e.ProjectID = id
	return nil
}

// DetectProjectID finds the Google Cloud project from the metadata server
// or Application Default Credentials.
func DetectProjectID(ctx context.Context) (string, error) {
	if metadata.OnGCE() {
		if id, err := metadata.ProjectIDWithContext(ctx); err == nil && id != "" {
			return id, nil
		}
	}
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err == nil && creds.ProjectID != "" {
		return creds.ProjectID, nil
	}
	return "", errors.New("unable to detect Google Cloud project; set GOOGLE_CLOUD_PROJECT")
}
