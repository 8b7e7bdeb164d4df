/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"encoding/json"
	"fmt"
	"strings"

	"chainguard.dev/evalpanel/agents/promptbuilder"
	"chainguard.dev/evalpanel/agents/schema"
	"chainguard.dev/evalpanel/panel"
)

var resultSchema = json.RawMessage(schema.MustDocument[panel.JudgeResult]())

var userPrompt = promptbuilder.MustNewPrompt(`You are evaluating the following project:

<project>
<name>{{name}}</name>
<demo_url>{{url}}</demo_url>
<idea>{{idea}}</idea>
<pitch>{{pitch}}</pitch>
</project>

<evaluation_context>
{{context}}
</evaluation_context>

Your scoring categories:
{{categories}}

Scale (1-10):
{{scale_guidance}}

Feedback tone: {{tone}}

Instructions:
1. {{approach}}
2. Score each category from 1-10 with detailed reasoning.
3. Provide structured feedback: strengths, weaknesses, and actionable suggestions.
4. Identify improvement priorities, key differentiators, and any deal breakers.{{tracks}}

Output ONLY valid JSON matching this schema:
{{schema}}

Set projectName to "{{name}}" and judgeName to "{{judge}}". Use the category names listed above.`)

const (
	browseApproach = "Use the browser tools to navigate to the demo URL and thoroughly explore the project. Take screenshots of key pages."
	textApproach   = "Evaluate based on the pitch text and context provided."
	noURL          = "No demo URL provided"
	noIdea         = "Not provided"
)

func categoryList(cats []panel.ScoringCategory) string {
	lines := make([]string, 0, len(cats))
	for _, c := range cats {
		lines = append(lines, fmt.Sprintf("- %s (weight: %v): %s", c.Category, c.Weight, c.Description))
	}
	return strings.Join(lines, "\n")
}

func buildPrompt(req *Request, browsing bool) (string, error) {
	url := req.Project.URL
	if url == "" {
		url = noURL
	}
	idea := req.Project.Idea
	if idea == "" {
		idea = noIdea
	}
	var tracks string
	if req.ReportConfig.IncludeTrackRecommendations && len(req.Tracks) > 0 {
		tracks = "\n5. Recommend the best-fitting tracks with fit strong, moderate or weak. Tracks: " + strings.Join(req.Tracks, ", ")
	}

	p := userPrompt
	var err error
	for _, b := range []struct{ name, value string }{
		{"name", req.Project.Name},
		{"url", url},
		{"idea", idea},
		{"pitch", req.Project.Pitch},
		{"context", req.Context},
		{"categories", categoryList(req.Spec.ScoringCategories)},
		{"scale_guidance", req.ScaleGuidance},
		{"tone", string(req.ReportConfig.FeedbackTone)},
		{"tracks", tracks},
		{"judge", req.Spec.Name},
	} {
		if p, err = p.BindText(b.name, b.value); err != nil {
			return "", err
		}
	}
	if browsing {
		p, err = p.BindStringLiteral("approach", browseApproach)
	} else {
		p, err = p.BindStringLiteral("approach", textApproach)
	}
	if err != nil {
		return "", err
	}
	if p, err = p.BindJSON("schema", resultSchema); err != nil {
		return "", err
	}
	return p.Build()
}
