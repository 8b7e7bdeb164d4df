/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package reportwriter

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"chainguard.dev/evalpanel/agents/promptbuilder"
)

const systemPrompt = `You are an expert report writer producing deep-research-style evaluation reports. Write thorough, well-structured markdown reports with tables, analysis, and clear verdicts.

Your reports should be comprehensive and insightful: not just a summary of scores, but a genuine analysis of the submission's strengths, weaknesses, and potential.`

var userPrompt = promptbuilder.MustNewPrompt(`Write a deep evaluation report for this project.

Project: {{project}}
Composite Score: {{composite}} / 10
Scenario: {{scenario}}

<judge_results>
{{judge_results}}
</judge_results>

Overall scores by judge:
{{overall}}

Write the report in this structure:
1. Executive Summary (2-3 paragraphs with composite score and verdict)
2. Score Overview (table: Judge | Role | Overall | Top Category | Lowest Category)
3. Detailed Judge Evaluations (for each judge: scores table, strengths, weaknesses, suggestions)
4. Cross-Judge Analysis (where judges agreed, diverged, and what it means)
5. Track/Prize Recommendations (if applicable)
6. Final Verdict

Output ONLY the markdown report.`)

// Bind implements promptbuilder.Bindable.
func (r *Request) Bind(p *promptbuilder.Prompt) (*promptbuilder.Prompt, error) {
	results := make([]string, 0, len(r.Scores.JudgeResults))
	for _, jr := range r.Scores.JudgeResults {
		b, err := json.MarshalIndent(jr, "", "  ")
		if err != nil {
			return nil, err
		}
		results = append(results, string(b))
	}

	var overall []string
	for _, judge := range slices.Sorted(maps.Keys(r.Scores.OverallScores)) {
		norm := "N/A"
		if v, ok := r.Scores.NormalizedScores[judge]; ok {
			norm = fmt.Sprintf("%.1f", v)
		}
		overall = append(overall, fmt.Sprintf("- %s: %.1f (normalized: %s)", judge, r.Scores.OverallScores[judge], norm))
	}

	var err error
	for _, b := range []struct{ name, value string }{
		{"project", r.Scores.ProjectName},
		{"composite", fmt.Sprintf("%.1f", r.Scores.CompositeScore)},
		{"scenario", r.Plan.Scenario},
		{"judge_results", strings.Join(results, "\n\n---\n\n")},
		{"overall", strings.Join(overall, "\n")},
	} {
		if p, err = p.BindText(b.name, b.value); err != nil {
			return nil, err
		}
	}
	return p, nil
}
