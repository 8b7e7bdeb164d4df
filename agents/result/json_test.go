/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package result_test

import (
	"errors"
	"testing"

	"chainguard.dev/evalpanel/agents/result"
	"github.com/google/go-cmp/cmp"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{{
		name: "fenced block with prose",
		in:   "Here you go:\n```json\n{\"a\": 1}\n```\nThanks.",
		want: `{"a": 1}`,
	}, {
		name: "indented fence",
		in:   "  ```json\n{\"a\": 1}\n  ```",
		want: `{"a": 1}`,
	}, {
		name: "bare fence",
		in:   "```\n{\"a\": 1}\n```",
		want: `{"a": 1}`,
	}, {
		name: "plain json",
		in:   "  {\"a\": 1}  ",
		want: `{"a": 1}`,
	}, {
		name: "empty block",
		in:   "```json\n```",
		want: "",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := result.ExtractJSON(tt.in); got != tt.want {
				t.Errorf("ExtractJSON() = %q, wanted = %q", got, tt.want)
			}
		})
	}
}

func TestFirstObject(t *testing.T) {
	got, err := result.FirstObject(`Sure! {"a": {"b": 2}} hope this helps`)
	if err != nil {
		t.Fatalf("FirstObject() = %v", err)
	}
	if want := `{"a": {"b": 2}}`; got != want {
		t.Errorf("FirstObject() = %q, wanted = %q", got, want)
	}

	for _, in := range []string{"", "no braces here", "} backwards {"} {
		if _, err := result.FirstObject(in); !errors.Is(err, result.ErrNoJSON) {
			t.Errorf("FirstObject(%q) = %v, wanted %v", in, err, result.ErrNoJSON)
		}
	}
}

func TestAfterMarker(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		wantBefore string
		wantObject string
		wantErr    error
	}{{
		name:       "report then summary",
		in:         "# Report\n\nGreat work.\n---JSON---\n{\"score\": 8}",
		wantBefore: "# Report\n\nGreat work.",
		wantObject: `{"score": 8}`,
	}, {
		name:       "no marker",
		in:         `prefix {"score": 8}`,
		wantObject: `{"score": 8}`,
	}, {
		name:       "marker without object",
		in:         "# Report\n---JSON---\nnothing",
		wantBefore: "# Report",
		wantErr:    result.ErrNoJSON,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, object, err := result.AfterMarker(tt.in, "---JSON---")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("AfterMarker() error = %v, wanted = %v", err, tt.wantErr)
			}
			if before != tt.wantBefore {
				t.Errorf("before = %q, wanted = %q", before, tt.wantBefore)
			}
			if object != tt.wantObject {
				t.Errorf("object = %q, wanted = %q", object, tt.wantObject)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	type payload struct {
		Name  string   `json:"name"`
		Tags  []string `json:"tags"`
		Score float64  `json:"score"`
	}

	tests := []struct {
		name    string
		in      string
		want    payload
		wantErr bool
	}{{
		name: "fenced",
		in:   "```json\n{\"name\": \"x\", \"tags\": [\"a\"], \"score\": 7.5}\n```",
		want: payload{Name: "x", Tags: []string{"a"}, Score: 7.5},
	}, {
		name: "embedded in prose",
		in:   `The result is {"name": "y", "score": 3} as requested.`,
		want: payload{Name: "y", Score: 3},
	}, {
		name:    "malformed",
		in:      "```json\n{name: x}\n```",
		wantErr: true,
	}, {
		name:    "nothing",
		in:      "I cannot help with that.",
		wantErr: true,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := result.Extract[payload](tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Extract() = %v, wanted error = %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Extract() (-want +got):\n%s", diff)
			}
		})
	}
}
