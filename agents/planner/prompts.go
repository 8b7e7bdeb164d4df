/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package planner

import (
	"encoding/json"
	"fmt"

	"chainguard.dev/evalpanel/agents/promptbuilder"
	"chainguard.dev/evalpanel/agents/schema"
	"chainguard.dev/evalpanel/panel"
)

var planSchema = json.RawMessage(schema.MustDocument[panel.Plan]())

var systemPrompt = promptbuilder.MustNewPrompt(`You are an expert evaluation designer. Given a context document describing an evaluation scenario (hackathon, startup pitch, research review, and so on) you design the judging panel for it.

Your output MUST be a single JSON object matching this schema:
{{schema}}

Guidelines:
- {{judge_count}}
- Each judge has 3-5 scoring categories.
- Category weights within a judge sum to 1.0.
- Set needsBrowser to true for judges that must see the live demo or website, false for judges that only need the pitch and context.
- Set source to "auto" on every judge.
- scoreScale is always {"min": 1, "max": 10}. scaleGuidance explains what each score range means in this scenario.
- Choose feedbackTone from the scenario: encouraging for hackathons, critical for investor review, balanced otherwise.
- Include tracks only if the context defines them.
- Each judge's systemPrompt is detailed: the persona, what to look for, how to score and the feedback tone.

Output ONLY valid JSON. No markdown, no explanation.`)

var userPrompt = promptbuilder.MustNewPrompt(`Here is the evaluation context document:

<context>
{{context}}
</context>

Design the judging panel for this evaluation. Output ONLY valid JSON.`)

func judgeCountGuideline(n int) string {
	if n > 0 {
		return fmt.Sprintf("Create exactly %d judges with distinct, non-overlapping focuses.", n)
	}
	return "Create 2-5 judges with distinct, non-overlapping focuses."
}

// Bind implements promptbuilder.Bindable for the user prompt.
func (r *Request) Bind(prompt *promptbuilder.Prompt) (*promptbuilder.Prompt, error) {
	return prompt.BindText("context", r.Context)
}

func (r *Request) system() (string, error) {
	p, err := systemPrompt.BindJSON("schema", planSchema)
	if err != nil {
		return "", err
	}
	if p, err = p.BindText("judge_count", judgeCountGuideline(r.JudgeCount)); err != nil {
		return "", err
	}
	return p.Build()
}
