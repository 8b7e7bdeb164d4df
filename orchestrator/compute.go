/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package orchestrator

import (
	"cmp"
	"slices"

	"chainguard.dev/evalpanel/panel"
	"chainguard.dev/evalpanel/scoring"
)

// ComputeScores derives every project's scores. Each judge's raw overall
// scores are normalized across the projects it scored, taken in project
// order. Projects without results get empty score maps.
func ComputeScores(projects []panel.Project, results map[string][]panel.JudgeResult, judgeWeights map[string]float64) []panel.ProjectScores {
	type slot struct {
		judge string
		index int
	}

	raw := make(map[string][]float64)
	slots := make(map[string][]slot, len(projects))
	for _, p := range projects {
		for _, r := range results[p.Name] {
			slots[p.Name] = append(slots[p.Name], slot{judge: r.JudgeName, index: len(raw[r.JudgeName])})
			raw[r.JudgeName] = append(raw[r.JudgeName], scoring.OverallScore(r.Scores))
		}
	}
	normalized := scoring.Normalize(raw)

	out := make([]panel.ProjectScores, 0, len(projects))
	for _, p := range projects {
		ps := panel.ProjectScores{
			ProjectName:      p.Name,
			JudgeResults:     results[p.Name],
			OverallScores:    make(map[string]float64),
			NormalizedScores: make(map[string]float64),
		}
		if ps.JudgeResults == nil {
			ps.JudgeResults = []panel.JudgeResult{}
		}
		for _, s := range slots[p.Name] {
			ps.OverallScores[s.judge] = raw[s.judge][s.index]
			ps.NormalizedScores[s.judge] = normalized[s.judge][s.index]
		}
		ps.CompositeScore = scoring.CompositeScore(ps.NormalizedScores, judgeWeights)
		out = append(out, ps)
	}
	return out
}

// Rank orders projects by composite score, highest first. Ties keep input
// order.
func Rank(scores []panel.ProjectScores) []panel.ProjectScores {
	ranked := slices.Clone(scores)
	slices.SortStableFunc(ranked, func(a, b panel.ProjectScores) int {
		return cmp.Compare(b.CompositeScore, a.CompositeScore)
	})
	return ranked
}
