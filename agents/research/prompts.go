/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package research

import (
	"encoding/json"
	"strconv"

	"chainguard.dev/evalpanel/agents/promptbuilder"
	"chainguard.dev/evalpanel/agents/schema"
	"chainguard.dev/evalpanel/panel"
)

// jsonMarker precedes the persona object in a research answer.
const jsonMarker = "---JSON---"

var specSchema = json.RawMessage(schema.MustDocument[panel.JudgeSpec]())

var systemPrompt = promptbuilder.MustNewPrompt(`You are a deep research agent. Given a person's name and context, research them thoroughly and build a detailed judge persona specification.

Use the available tools to find:
- Their professional background and expertise
- Published opinions, blog posts, talks and interviews
- Investment thesis or evaluation criteria they have expressed
- What they value and what they criticize
- Their communication style and personality

Then synthesize a judge specification matching this schema:
{{schema}}

- name is an identifier like "persona_firstname_lastname".
- systemPrompt makes a model behave like this person when evaluating: their background, what they care about, how they would judge, their tone and the specific things they would look for.
- Create 3-5 scoring categories reflecting what this person would actually care about. Weights sum to 1.0.
- source is "persona".

Output the JSON object at the end of your response, after a line containing just "---JSON---".`)

var userPrompt = promptbuilder.MustNewPrompt(`Research this person and build a judge persona:

<name>{{name}}</name>
<context>
{{context}}
</context>
<needs_browser>{{needs_browser}}</needs_browser>

Research thoroughly, then output the judge specification JSON.`)

var extractPrompt = promptbuilder.MustNewPrompt(`Extract the JudgeSpec JSON object from this text. Output ONLY valid JSON, nothing else:

{{text}}`)

type request struct {
	input panel.CustomJudge
}

// Bind implements promptbuilder.Bindable.
func (r request) Bind(p *promptbuilder.Prompt) (*promptbuilder.Prompt, error) {
	p, err := p.BindText("name", r.input.Name)
	if err != nil {
		return nil, err
	}
	if p, err = p.BindText("context", r.input.Context); err != nil {
		return nil, err
	}
	return p.BindText("needs_browser", strconv.FormatBool(r.input.NeedsBrowser))
}

func buildSystem() (string, error) {
	p, err := systemPrompt.BindJSON("schema", specSchema)
	if err != nil {
		return "", err
	}
	return p.Build()
}

func buildExtract(text string) (string, error) {
	p, err := extractPrompt.BindText("text", text)
	if err != nil {
		return "", err
	}
	return p.Build()
}
