/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package llm builds model backends from a model name.
//
// Claude models are served by claudeexecutor and Gemini models by
// googleexecutor. Both are reached through Vertex AI unless an Anthropic API
// key is configured, in which case Claude models go to the direct API.
package llm

import (
	"context"
	"fmt"
	"strings"

	"chainguard.dev/evalpanel/agents/executor"
	"chainguard.dev/evalpanel/agents/executor/claudeexecutor"
	"chainguard.dev/evalpanel/agents/executor/googleexecutor"
	"chainguard.dev/evalpanel/agents/metrics"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/vertex"
	"google.golang.org/genai"
)

// Family is the provider family a model name belongs to.
type Family string

const (
	FamilyClaude Family = "claude"
	FamilyGemini Family = "gemini"
)

// FamilyOf classifies a model name by its prefix.
func FamilyOf(model string) (Family, error) {
	lower := strings.ToLower(model)
	switch {
	case strings.HasPrefix(lower, "claude-"):
		return FamilyClaude, nil
	case strings.HasPrefix(lower, "gemini-"):
		return FamilyGemini, nil
	default:
		return "", fmt.Errorf("unsupported model: %s (expected claude-* or gemini-*)", model)
	}
}

// Provider holds what is needed to reach the model APIs.
type Provider struct {
	// ProjectID and Region address Vertex AI.
	ProjectID string
	Region    string
	// AnthropicAPIKey, when set, sends Claude models to the direct API.
	AnthropicAPIKey string
	// Enricher labels token and tool metrics. Nil keeps the executor default.
	Enricher metrics.AttributeEnricher
	// MaxTokens overrides the Claude response budget when positive.
	MaxTokens int64
}

// New returns a backend for model.
func (p Provider) New(ctx context.Context, model string) (executor.Interface, error) {
	family, err := FamilyOf(model)
	if err != nil {
		return nil, err
	}
	switch family {
	case FamilyClaude:
		if p.AnthropicAPIKey != "" {
			return p.claude(anthropic.NewClient(option.WithAPIKey(p.AnthropicAPIKey)), model)
		}
		if err := p.requireVertex(); err != nil {
			return nil, err
		}
		return p.claude(anthropic.NewClient(vertex.WithGoogleAuth(ctx, p.Region, p.ProjectID)), model)
	default:
		if err := p.requireVertex(); err != nil {
			return nil, err
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			Project:  p.ProjectID,
			Location: p.Region,
			Backend:  genai.BackendVertexAI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create genai client: %w", err)
		}
		return p.gemini(client, model)
	}
}

// NewVertex returns a Vertex AI backend for model.
func NewVertex(ctx context.Context, projectID, region, model string, enricher metrics.AttributeEnricher) (executor.Interface, error) {
	return Provider{ProjectID: projectID, Region: region, Enricher: enricher}.New(ctx, model)
}

// NewAnthropic returns a direct Anthropic API backend for a Claude model.
func NewAnthropic(apiKey, model string, enricher metrics.AttributeEnricher) (executor.Interface, error) {
	family, err := FamilyOf(model)
	if err != nil {
		return nil, err
	}
	if family != FamilyClaude {
		return nil, fmt.Errorf("model %s is not served by the Anthropic API", model)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	p := Provider{AnthropicAPIKey: apiKey, Enricher: enricher}
	return p.claude(anthropic.NewClient(option.WithAPIKey(apiKey)), model)
}

func (p Provider) requireVertex() error {
	if p.ProjectID == "" || p.Region == "" {
		return fmt.Errorf("vertex AI project and region are required")
	}
	return nil
}

func (p Provider) claude(client anthropic.Client, model string) (executor.Interface, error) {
	opts := []claudeexecutor.Option{claudeexecutor.WithModel(model)}
	if p.MaxTokens > 0 {
		opts = append(opts, claudeexecutor.WithMaxTokens(p.MaxTokens))
	}
	if p.Enricher != nil {
		opts = append(opts, claudeexecutor.WithAttributeEnricher(p.Enricher))
	}
	e, err := claudeexecutor.New(client, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create claude executor: %w", err)
	}
	return e, nil
}

func (p Provider) gemini(client *genai.Client, model string) (executor.Interface, error) {
	opts := []googleexecutor.Option{googleexecutor.WithModel(model)}
	if p.Enricher != nil {
		opts = append(opts, googleexecutor.WithAttributeEnricher(p.Enricher))
	}
	e, err := googleexecutor.New(client, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini executor: %w", err)
	}
	return e, nil
}
