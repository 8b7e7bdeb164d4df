/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package scoring

const (
	midpoint = 5.5
	spread   = 1.5
	floor    = 1
	ceiling  = 10
)

// Normalize rescales each judge's scores independently to z-scores centered
// on the middle of the scale: clamp(5.5 + z*1.5, 1, 10). A judge with fewer
// than two scores, or with no spread, passes through unchanged. The input is
// not modified.
func Normalize(judgeScores map[string][]float64) map[string][]float64 {
	out := make(map[string][]float64, len(judgeScores))
	for judge, scores := range judgeScores {
		out[judge] = NormalizeSeries(scores)
	}
	return out
}

// NormalizeSeries normalizes one judge's scores.
func NormalizeSeries(scores []float64) []float64 {
	out := make([]float64, len(scores))
	copy(out, scores)
	if len(scores) <= 1 {
		return out
	}
	sd := StdDev(scores)
	if sd == 0 {
		return out
	}
	m := Mean(scores)
	for i, s := range scores {
		z := (s - m) / sd
		out[i] = min(ceiling, max(floor, midpoint+z*spread))
	}
	return out
}
