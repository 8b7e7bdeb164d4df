/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package research turns named real people into persona judges.
//
// Research is expensive, so every persona is cached under a key derived from
// the person's name and context. A rerun with the same custom judges reuses
// the cached specs without calling the model.
package research

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"chainguard.dev/evalpanel/agents/agenttrace"
	"chainguard.dev/evalpanel/agents/executor"
	"chainguard.dev/evalpanel/agents/promptbuilder"
	"chainguard.dev/evalpanel/agents/result"
	"chainguard.dev/evalpanel/agents/toolcall"
	"chainguard.dev/evalpanel/checkpoint"
	"chainguard.dev/evalpanel/checkpoint/filestore"
	"chainguard.dev/evalpanel/panel"
	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"
)

// DefaultCacheDir is where personas are cached when no store is configured.
const DefaultCacheDir = ".cache/personas"

// maxTurns bounds the research conversation.
const maxTurns = 10

// Interface researches one persona judge.
type Interface interface {
	Research(ctx context.Context, input panel.CustomJudge) (*panel.JudgeSpec, error)
}

// ToolFactory provides the tools of one research conversation and a func to
// release them.
type ToolFactory func(ctx context.Context) ([]toolcall.Tool, func(), error)

// Researcher implements Interface on a model backend.
type Researcher struct {
	exec  executor.Interface
	cache checkpoint.Store
	tools ToolFactory
}

var _ Interface = (*Researcher)(nil)

// Option configures a Researcher.
type Option func(*Researcher)

// WithCache stores personas in s instead of DefaultCacheDir.
func WithCache(s checkpoint.Store) Option {
	return func(r *Researcher) { r.cache = s }
}

// WithTools gives each research conversation the tools made by f.
func WithTools(f ToolFactory) Option {
	return func(r *Researcher) { r.tools = f }
}

// New returns a Researcher.
func New(exec executor.Interface, opts ...Option) *Researcher {
	r := &Researcher{
		exec:  exec,
		cache: filestore.New(DefaultCacheDir),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var whitespace = regexp.MustCompile(`\s+`)

// CacheKey names the cache entry of a custom judge:
// <lowercased name, whitespace as dashes>-<first 16 hex of sha256(name:context)>.json.
func CacheKey(input panel.CustomJudge) string {
	sum := sha256.Sum256([]byte(input.Name + ":" + input.Context))
	name := whitespace.ReplaceAllString(strings.ToLower(input.Name), "-")
	return name + "-" + hex.EncodeToString(sum[:])[:16] + ".json"
}

// Research implements Interface.
func (r *Researcher) Research(ctx context.Context, input panel.CustomJudge) (*panel.JudgeSpec, error) {
	ctx = agenttrace.Scope(ctx, agenttrace.ExecutionContext{Phase: "research", Judge: input.Name})
	log := clog.FromContext(ctx).With("persona", input.Name)

	if spec, ok := r.cached(ctx, input); ok {
		log.Info("Using cached persona")
		return spec, nil
	}

	req, err := r.request(ctx, input)
	if err != nil {
		return nil, err
	}
	if req.release != nil {
		defer req.release()
	}

	text, err := r.exec.Generate(ctx, &req.Request)
	if err != nil {
		return nil, fmt.Errorf("research %s: %w", input.Name, err)
	}

	spec, err := parseSpec(text)
	if errors.Is(err, errUnparseable) {
		log.Warn("Research answer held no parseable persona, asking for extraction")
		prompt, perr := buildExtract(text)
		if perr != nil {
			return nil, perr
		}
		retry, gerr := r.exec.Generate(ctx, &executor.Request{Prompt: prompt, MaxTurns: 1})
		if gerr != nil {
			return nil, fmt.Errorf("research %s: %w", input.Name, gerr)
		}
		spec, err = parseSpec(retry)
	}
	if errors.Is(err, errUnparseable) {
		return nil, fmt.Errorf("failed to extract JSON from research for %s: %w", input.Name, err)
	}
	if err != nil {
		return nil, fmt.Errorf("research %s: %w", input.Name, err)
	}

	spec.NeedsBrowser = input.NeedsBrowser
	spec.Source = panel.SourcePersona
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("research %s: %w", input.Name, err)
	}

	if err := r.store(ctx, input, spec); err != nil {
		// The persona is usable even if caching failed.
		log.Warnf("Failed to cache persona: %v", err)
	}
	return spec, nil
}

type researchRequest struct {
	executor.Request
	release func()
}

func (r *Researcher) request(ctx context.Context, input panel.CustomJudge) (*researchRequest, error) {
	system, err := buildSystem()
	if err != nil {
		return nil, err
	}
	prompt, err := promptbuilder.BuildFor(userPrompt, request{input: input})
	if err != nil {
		return nil, err
	}
	req := &researchRequest{Request: executor.Request{
		System:   system,
		Prompt:   prompt,
		MaxTurns: maxTurns,
	}}
	if r.tools != nil {
		tools, release, err := r.tools(ctx)
		if err != nil {
			return nil, fmt.Errorf("research %s: tools: %w", input.Name, err)
		}
		req.Tools, req.release = tools, release
	}
	return req, nil
}

func (r *Researcher) cached(ctx context.Context, input panel.CustomJudge) (*panel.JudgeSpec, bool) {
	b, err := r.cache.Get(ctx, CacheKey(input))
	if err != nil {
		return nil, false
	}
	var spec panel.JudgeSpec
	if err := json.Unmarshal(b, &spec); err != nil {
		return nil, false
	}
	if err := spec.Validate(); err != nil {
		return nil, false
	}
	return &spec, true
}

func (r *Researcher) store(ctx context.Context, input panel.CustomJudge, spec *panel.JudgeSpec) error {
	b, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return err
	}
	return r.cache.Put(ctx, CacheKey(input), b)
}

var errUnparseable = errors.New("no parseable JSON object")

var fence = regexp.MustCompile("```(?:json)?\n?")

// parseSpec reads the persona object that follows the marker, or the
// outermost object of the whole answer when the marker is missing.
func parseSpec(text string) (*panel.JudgeSpec, error) {
	_, obj, err := result.AfterMarker(text, jsonMarker)
	if err != nil {
		return nil, errUnparseable
	}
	for _, candidate := range []string{obj, fence.ReplaceAllString(obj, "")} {
		var spec panel.JudgeSpec
		if err := json.Unmarshal([]byte(candidate), &spec); err == nil {
			return &spec, nil
		}
	}
	return nil, errUnparseable
}

// All researches every input concurrently and returns the personas in input
// order. onProgress, when set, is told when each research starts and ends.
// Any failure fails the whole set.
func All(ctx context.Context, r Interface, inputs []panel.CustomJudge, onProgress func(name, message string)) ([]panel.JudgeSpec, error) {
	specs := make([]panel.JudgeSpec, len(inputs))
	eg, ctx := errgroup.WithContext(ctx)
	for i, input := range inputs {
		eg.Go(func() error {
			if onProgress != nil {
				onProgress(input.Name, "Researching "+input.Name+"...")
			}
			spec, err := r.Research(ctx, input)
			if err != nil {
				return err
			}
			specs[i] = *spec
			if onProgress != nil {
				onProgress(input.Name, "Completed research on "+input.Name)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return specs, nil
}
