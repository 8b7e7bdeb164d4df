/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package scoring

import (
	"math"

	"chainguard.dev/evalpanel/panel"
)

// OverallScore is the weighted mean of a judge's category scores. A judge that
// produced no categories scores 0.
func OverallScore(scores []panel.CategoryScore) float64 {
	var sum, weights float64
	for _, s := range scores {
		sum += s.Score * s.Weight
		weights += s.Weight
	}
	if weights == 0 {
		return 0
	}
	return sum / weights
}

// CompositeScore is the weighted mean of normalized per-judge scores. Judges
// missing from judgeWeights (or all judges, when it is nil) weigh 1.
func CompositeScore(normalized map[string]float64, judgeWeights map[string]float64) float64 {
	var sum, weights float64
	for judge, score := range normalized {
		w, ok := judgeWeights[judge]
		if !ok {
			w = 1
		}
		sum += score * w
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return sum / weights
}

// Mean is the arithmetic mean, 0 for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev is the population standard deviation, 0 for fewer than two values.
func StdDev(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	m := Mean(values)
	var sq float64
	for _, v := range values {
		sq += (v - m) * (v - m)
	}
	return math.Sqrt(sq / float64(len(values)))
}
