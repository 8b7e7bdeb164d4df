/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package judge runs one judge of the panel against one project.
//
// Judges that need a browser get the [browser.Tools] over either a session
// borrowed from the caller or one the runner opens and closes itself. The
// model's answer must contain a single JSON object which is validated as a
// [panel.JudgeResult].
package judge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chainguard.dev/evalpanel/agents/agenttrace"
	"chainguard.dev/evalpanel/agents/executor"
	"chainguard.dev/evalpanel/agents/result"
	"chainguard.dev/evalpanel/agents/toolcall"
	"chainguard.dev/evalpanel/browser"
	"chainguard.dev/evalpanel/panel"
	"github.com/chainguard-dev/clog"
)

// DefaultTimeout bounds a single judge run.
const DefaultTimeout = 180 * time.Second

// ErrTimeout is returned when a judge run exceeds its timeout.
var ErrTimeout = errors.New("judge timed out")

// Request is one (project, judge) evaluation.
type Request struct {
	Project       panel.Project
	Spec          panel.JudgeSpec
	Context       string
	ScaleGuidance string
	ReportConfig  panel.ReportConfig
	Tracks        []string
	// ScreenshotDir receives screenshots taken during the run.
	ScreenshotDir string
	// Session is a borrowed browser session. The runner never closes it.
	Session browser.Session
}

// Interface evaluates one project with one judge.
type Interface interface {
	Judge(ctx context.Context, req *Request) (*panel.JudgeResult, error)
}

// MaxTurns is the turn budget for a judge.
func MaxTurns(needsBrowser bool) int {
	if needsBrowser {
		return 8
	}
	return 2
}

// ShouldCreateSession reports whether a judge opens (and so owns) its own
// browser session.
func ShouldCreateSession(needsBrowser, hasURL, hasExternal bool) bool {
	return needsBrowser && hasURL && !hasExternal
}

// Option configures a runner.
type Option func(*runner)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(r *runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithSessionFactory lets the runner open browser sessions for judges that
// were not handed one. Without it such judges evaluate from the pitch.
func WithSessionFactory(f browser.Factory) Option {
	return func(r *runner) { r.sessions = f }
}

type runner struct {
	exec     executor.Interface
	timeout  time.Duration
	sessions browser.Factory
}

var _ Interface = (*runner)(nil)

// New returns a judge runner backed by exec.
func New(exec executor.Interface, opts ...Option) Interface {
	r := &runner{exec: exec, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Judge implements Interface.
func (r *runner) Judge(ctx context.Context, req *Request) (*panel.JudgeResult, error) {
	ctx = agenttrace.Scope(ctx, agenttrace.ExecutionContext{
		Phase:   "judge",
		Project: req.Project.Name,
		Judge:   req.Spec.Name,
	})
	log := clog.FromContext(ctx).With("project", req.Project.Name, "judge", req.Spec.Name)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	session := req.Session
	hasURL := req.Project.URL != ""
	if ShouldCreateSession(req.Spec.NeedsBrowser, hasURL, session != nil) {
		if r.sessions == nil {
			log.Warn("No browser available, judging from the pitch")
		} else {
			s, err := r.sessions(ctx)
			if err != nil {
				return nil, fmt.Errorf("opening browser session: %w", err)
			}
			session = s
			defer func() {
				if err := s.Close(context.WithoutCancel(ctx)); err != nil {
					log.Warnf("Failed to close browser session: %v", err)
				}
			}()
		}
	}

	browsing := session != nil && req.Spec.NeedsBrowser && hasURL
	var (
		tools []toolcall.Tool
		shots *browser.Screenshots
	)
	if browsing {
		tools, shots = browser.Tools(session, req.ScreenshotDir)
	}

	prompt, err := buildPrompt(req, browsing)
	if err != nil {
		return nil, fmt.Errorf("building prompt: %w", err)
	}

	start := time.Now()
	log.With("browsing", browsing).Info("Judging project")
	text, err := r.exec.Generate(ctx, &executor.Request{
		System:   req.Spec.SystemPrompt,
		Prompt:   prompt,
		MaxTurns: MaxTurns(req.Spec.NeedsBrowser),
		Tools:    tools,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %v: %w", ErrTimeout, r.timeout, err)
		}
		return nil, err
	}

	res, err := Parse(text, req.Project.Name, req.Spec.Name)
	if err != nil {
		return nil, err
	}
	if shots != nil && len(res.Screenshots) == 0 {
		res.Screenshots = shots.Paths()
	}
	log.With("duration", time.Since(start)).Info("Judge completed")
	return res, nil
}

// Parse extracts a judge result from model output. The project and judge
// names are taken from the caller, not the model.
func Parse(text, projectName, judgeName string) (*panel.JudgeResult, error) {
	obj, err := result.FirstObject(text)
	if err != nil {
		return nil, err
	}
	var res panel.JudgeResult
	if err := json.Unmarshal([]byte(obj), &res); err != nil {
		return nil, fmt.Errorf("parsing judge result: %w", err)
	}
	res.ProjectName = projectName
	res.JudgeName = judgeName
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return &res, nil
}
