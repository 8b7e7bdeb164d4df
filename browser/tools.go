/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"chainguard.dev/evalpanel/agents/agenttrace"
	"chainguard.dev/evalpanel/agents/toolcall"
	"chainguard.dev/evalpanel/agents/toolcall/params"
)

// Tool names.
const (
	ToolNavigate   = "navigateTo"
	ToolObserve    = "observePage"
	ToolExtract    = "extractData"
	ToolInteract   = "interact"
	ToolScreenshot = "takeScreenshot"
)

// Screenshots records the screenshots taken through one tool set.
type Screenshots struct {
	dir   string
	mu    sync.Mutex
	paths []string
}

// Paths lists the files written so far.
func (s *Screenshots) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

func (s *Screenshots) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filepath.Join(s.dir, fmt.Sprintf("screenshot-%d", len(s.paths)+1))
}

func (s *Screenshots) add(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, path)
}

// Tools exposes session to a model. Screenshots are written to screenshotDir
// as screenshot-1, screenshot-2 and so on, with the extension chosen by the
// session.
func Tools(session Session, screenshotDir string) ([]toolcall.Tool, *Screenshots) {
	shots := &Screenshots{dir: screenshotDir}
	return []toolcall.Tool{{
		Def: toolcall.Definition{
			Name:        ToolNavigate,
			Description: "Navigate the browser to a URL",
			Parameters: []toolcall.Parameter{{
				Name: "url", Type: "string", Description: "Absolute http or https URL", Required: true,
			}},
		},
		Handler: func(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace) map[string]any {
			url, errResp := toolcall.Param[string](call, trace, "url")
			if errResp != nil {
				return errResp
			}
			tc := trace.StartToolCall(call.ID, call.Name, call.Args)
			if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
				err := fmt.Errorf("url must be http or https: %q", url)
				tc.Complete(nil, err)
				return params.Error("%s", err)
			}
			if err := session.Navigate(ctx, url); err != nil {
				tc.Complete(nil, err)
				return params.Error("navigation failed: %s", err)
			}
			out := map[string]any{"result": "Navigated to " + url}
			tc.Complete(out, nil)
			return out
		},
	}, {
		Def: toolcall.Definition{
			Name:        ToolObserve,
			Description: "Observe and describe what is visible on the current web page",
		},
		Handler: func(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace) map[string]any {
			tc := trace.StartToolCall(call.ID, call.Name, call.Args)
			obs, err := session.Observe(ctx)
			if err != nil {
				tc.Complete(nil, err)
				return params.Error("observe failed: %s", err)
			}
			lines := make([]string, 0, len(obs))
			for _, o := range obs {
				lines = append(lines, "- "+o.Description)
			}
			text := strings.Join(lines, "\n")
			if text == "" {
				text = "Empty page or no observable elements."
			}
			out := map[string]any{"result": text}
			tc.Complete(out, nil)
			return out
		},
	}, {
		Def: toolcall.Definition{
			Name:        ToolExtract,
			Description: "Extract structured data from the current page using a natural language instruction",
			Parameters: []toolcall.Parameter{{
				Name: "instruction", Type: "string", Description: "What to extract", Required: true,
			}},
		},
		Handler: func(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace) map[string]any {
			instruction, errResp := toolcall.Param[string](call, trace, "instruction")
			if errResp != nil {
				return errResp
			}
			tc := trace.StartToolCall(call.ID, call.Name, call.Args)
			data, err := session.Extract(ctx, instruction)
			if err != nil {
				tc.Complete(nil, err)
				return params.Error("extract failed: %s", err)
			}
			b, err := json.MarshalIndent(data, "", "  ")
			if err != nil {
				tc.Complete(nil, err)
				return params.Error("extract failed: %s", err)
			}
			out := map[string]any{"result": string(b)}
			tc.Complete(out, nil)
			return out
		},
	}, {
		Def: toolcall.Definition{
			Name:        ToolInteract,
			Description: "Interact with the page: click buttons, fill forms, scroll, etc. using natural language",
			Parameters: []toolcall.Parameter{{
				Name: "instruction", Type: "string", Description: "The action to perform", Required: true,
			}},
		},
		Handler: func(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace) map[string]any {
			instruction, errResp := toolcall.Param[string](call, trace, "instruction")
			if errResp != nil {
				return errResp
			}
			tc := trace.StartToolCall(call.ID, call.Name, call.Args)
			if err := session.Act(ctx, instruction); err != nil {
				tc.Complete(nil, err)
				return params.Error("interaction failed: %s", err)
			}
			out := map[string]any{"result": "Performed: " + instruction}
			tc.Complete(out, nil)
			return out
		},
	}, {
		Def: toolcall.Definition{
			Name:        ToolScreenshot,
			Description: "Take a screenshot of the current page",
		},
		Handler: func(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace) map[string]any {
			tc := trace.StartToolCall(call.ID, call.Name, call.Args)
			if err := os.MkdirAll(screenshotDir, 0o755); err != nil {
				tc.Complete(nil, err)
				return params.Error("screenshot failed: %s", err)
			}
			path, err := session.Screenshot(ctx, shots.next())
			if err != nil {
				tc.Complete(nil, err)
				return params.Error("screenshot failed: %s", err)
			}
			shots.add(path)
			out := map[string]any{"result": "Screenshot saved to " + path}
			tc.Complete(out, nil)
			return out
		},
	}}, shots
}
