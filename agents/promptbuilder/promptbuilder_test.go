/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder_test

import (
	"maps"
	"slices"
	"strings"
	"testing"

	"chainguard.dev/evalpanel/agents/promptbuilder"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestNewPrompt(t *testing.T) {
	tests := []struct {
		name    string
		build   func() (*promptbuilder.Prompt, error)
		want    []string
		wantErr bool
	}{{
		name:  "no bindings",
		build: func() (*promptbuilder.Prompt, error) { return promptbuilder.NewPrompt(`plain text`) },
		want:  []string{},
	}, {
		name:  "repeated binding",
		build: func() (*promptbuilder.Prompt, error) { return promptbuilder.NewPrompt(`{{a}} and {{ a }} and {{b_2}}`) },
		want:  []string{"a", "b_2"},
	}, {
		name:    "unclosed",
		build:   func() (*promptbuilder.Prompt, error) { return promptbuilder.NewPrompt(`hello {{name`) },
		wantErr: true,
	}, {
		name:    "hyphen",
		build:   func() (*promptbuilder.Prompt, error) { return promptbuilder.NewPrompt(`{{test-case}}`) },
		wantErr: true,
	}, {
		name:    "empty",
		build:   func() (*promptbuilder.Prompt, error) { return promptbuilder.NewPrompt(`{{}}`) },
		wantErr: true,
	}, {
		name:    "leading digit",
		build:   func() (*promptbuilder.Prompt, error) { return promptbuilder.NewPrompt(`{{1st}}`) },
		wantErr: true,
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.build()
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewPrompt() error = %v, wanted error = %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			got := slices.Sorted(maps.Keys(p.GetBindings()))
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("GetBindings() (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	p := promptbuilder.MustNewPrompt(`<pitch>{{pitch}}</pitch>
{{tone}}
{{scores}}`)
	p = p.MustBindText("pitch", "a <b>bold</b> & {{tone}} idea\nline two")
	p = p.MustBindStringLiteral("tone", "encouraging")
	p = p.MustBindJSON("scores", map[string]int{"ux": 7})

	got, err := p.Build()
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	want := `<pitch>a &lt;b&gt;bold&lt;/b&gt; &amp; {{tone}} idea
line two</pitch>
encouraging
{
  "ux": 7
}`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build() (-want +got):\n%s", diff)
	}
}

func TestBindErrors(t *testing.T) {
	p := promptbuilder.MustNewPrompt(`{{a}} {{b}}`)

	if _, err := p.BindText("missing", "x"); err == nil {
		t.Error("BindText(missing) succeeded, wanted error")
	}
	bound := p.MustBindText("a", "x")
	if _, err := bound.BindText("a", "y"); err == nil {
		t.Error("rebinding succeeded, wanted error")
	}
	if _, err := bound.Build(); err == nil || !strings.Contains(err.Error(), "unbound placeholder: b") {
		t.Errorf("Build() = %v, wanted unbound placeholder error", err)
	}
	// The original is untouched by binding.
	if _, err := p.BindText("a", "z"); err != nil {
		t.Errorf("BindText() on original = %v", err)
	}
}

func TestBindYAMLAndXML(t *testing.T) {
	type item struct {
		Name string `xml:"name" yaml:"name"`
	}
	p := promptbuilder.MustNewPrompt(`{{y}}|{{x}}`).
		MustBindYAML("y", item{Name: "alpha"}).
		MustBindXML("x", item{Name: "beta"})
	got, err := p.Build()
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	want := "name: alpha\n|<item>\n  <name>beta</name>\n</item>"
	if got != want {
		t.Errorf("Build() = %q, wanted = %q", got, want)
	}
}

type greeting struct {
	who string
}

func (g greeting) Bind(p *promptbuilder.Prompt) (*promptbuilder.Prompt, error) {
	return p.BindText("who", g.who)
}

func TestBuildFor(t *testing.T) {
	tmpl := promptbuilder.MustNewPrompt(`Hello {{who}}`)
	got, err := promptbuilder.BuildFor(tmpl, greeting{who: "panel"})
	if err != nil {
		t.Fatalf("BuildFor() = %v", err)
	}
	if want := "Hello panel"; got != want {
		t.Errorf("BuildFor() = %q, wanted = %q", got, want)
	}

	plain := promptbuilder.MustNewPrompt(`static`)
	got, err = promptbuilder.BuildFor(plain, promptbuilder.Noop{})
	if err != nil {
		t.Fatalf("BuildFor(Noop) = %v", err)
	}
	if got != "static" {
		t.Errorf("BuildFor(Noop) = %q, wanted = %q", got, "static")
	}
}

func TestMustPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustBindText() on unknown placeholder did not panic")
		}
	}()
	promptbuilder.MustNewPrompt(`{{a}}`).MustBindText("b", "x")
}
