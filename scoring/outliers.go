/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package scoring

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"chainguard.dev/evalpanel/panel"
)

// minDistinctiveness is the cutoff above which a scoring profile counts as
// unique.
const minDistinctiveness = 0.1

// OutlierConfig tunes outlier detection.
type OutlierConfig struct {
	GlobalThreshold      float64 `json:"globalThreshold" yaml:"globalThreshold"`
	DimensionalThreshold float64 `json:"dimensionalThreshold" yaml:"dimensionalThreshold"`
	MinQualityPercentile float64 `json:"minQualityPercentile" yaml:"minQualityPercentile"`
	MaxRecommended       int     `json:"maxRecommended" yaml:"maxRecommended"`
	// DiversityWeight is accepted for compatibility with existing run files;
	// no detector reads it.
	DiversityWeight float64 `json:"diversityWeight" yaml:"diversityWeight"`
}

// DefaultOutlierConfig returns the default thresholds.
func DefaultOutlierConfig() OutlierConfig {
	return OutlierConfig{
		GlobalThreshold:      1.5,
		DimensionalThreshold: 2.0,
		MinQualityPercentile: 50,
		MaxRecommended:       10,
		DiversityWeight:      0.3,
	}
}

// Validate checks the configured ranges.
func (c OutlierConfig) Validate() error {
	if c.MinQualityPercentile < 0 || c.MinQualityPercentile > 100 {
		return fmt.Errorf("minQualityPercentile must be within [0, 100], got %v", c.MinQualityPercentile)
	}
	if c.MaxRecommended <= 0 {
		return fmt.Errorf("maxRecommended must be positive, got %d", c.MaxRecommended)
	}
	if c.DiversityWeight < 0 || c.DiversityWeight > 1 {
		return fmt.Errorf("diversityWeight must be within [0, 1], got %v", c.DiversityWeight)
	}
	return nil
}

// GlobalOutlier is a project whose composite score spikes above its peers.
type GlobalOutlier struct {
	ProjectName    string  `json:"projectName"`
	CompositeScore float64 `json:"compositeScore"`
	Percentile     float64 `json:"percentile"`
}

// DimensionalOutlier is a project that spikes on one judge's category.
type DimensionalOutlier struct {
	ProjectName string  `json:"projectName"`
	Dimension   string  `json:"dimension"`
	Score       float64 `json:"score"`
	ZScore      float64 `json:"zScore"`
}

// UniqueProfile is a strong project whose score shape differs from its peers.
type UniqueProfile struct {
	ProjectName     string  `json:"projectName"`
	Distinctiveness float64 `json:"distinctiveness"`
	Description     string  `json:"description"`
}

// OutlierType tags why a project was recommended.
type OutlierType string

const (
	OutlierGlobal      OutlierType = "global"
	OutlierDimensional OutlierType = "dimensional"
	OutlierUnique      OutlierType = "unique"
)

// RecommendedOutlier is one entry of the merged recommended set.
type RecommendedOutlier struct {
	ProjectName     string        `json:"projectName"`
	SelectionReason string        `json:"selectionReason"`
	OutlierTypes    []OutlierType `json:"outlierTypes"`
}

// Patterns is reserved for cross-outlier themes and is currently always empty.
type Patterns struct {
	CommonStrengths        []string `json:"commonStrengths"`
	CommonWeaknesses       []string `json:"commonWeaknesses"`
	DifferentiatingFactors []string `json:"differentiatingFactors"`
}

// Analysis is the full outlier report for a run.
type Analysis struct {
	GlobalOutliers      []GlobalOutlier      `json:"globalOutliers"`
	DimensionalOutliers []DimensionalOutlier `json:"dimensionalOutliers"`
	UniqueProfiles      []UniqueProfile      `json:"uniqueProfiles"`
	Recommended         []RecommendedOutlier `json:"recommended"`
	Patterns            Patterns             `json:"patterns"`
	NoOutliersDetected  bool                 `json:"noOutliersDetected"`
}

// CosineSimilarity of two equal-length vectors. Mismatched, empty or
// zero-norm vectors have similarity 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	denom := math.Sqrt(na) * math.Sqrt(nb)
	if denom == 0 {
		return 0
	}
	return dot / denom
}

// DetectGlobalOutliers returns projects whose composite score exceeds
// mean + GlobalThreshold*stddev, highest first. No variance means no outliers.
func DetectGlobalOutliers(projects []panel.ProjectScores, cfg OutlierConfig) []GlobalOutlier {
	scores := make([]float64, len(projects))
	for i, p := range projects {
		scores[i] = p.CompositeScore
	}
	out := []GlobalOutlier{}
	sd := StdDev(scores)
	if sd == 0 {
		return out
	}
	threshold := Mean(scores) + cfg.GlobalThreshold*sd
	for _, p := range projects {
		if p.CompositeScore <= threshold {
			continue
		}
		atOrBelow := 0
		for _, s := range scores {
			if s <= p.CompositeScore {
				atOrBelow++
			}
		}
		out = append(out, GlobalOutlier{
			ProjectName:    p.ProjectName,
			CompositeScore: p.CompositeScore,
			Percentile:     float64(atOrBelow) / float64(len(scores)) * 100,
		})
	}
	slices.SortStableFunc(out, func(a, b GlobalOutlier) int {
		return cmp.Compare(b.CompositeScore, a.CompositeScore)
	})
	return out
}

// dimension holds one (judge, category) column of the score matrix in the
// order projects were first seen.
type dimension struct {
	key      string
	projects []string
	scores   map[string]float64
}

func collectDimensions(projects []panel.ProjectScores, key func(judge, category string) string) []*dimension {
	var dims []*dimension
	byKey := make(map[string]*dimension)
	for _, p := range projects {
		for _, r := range p.JudgeResults {
			for _, s := range r.Scores {
				k := key(r.JudgeName, s.Category)
				d, ok := byKey[k]
				if !ok {
					d = &dimension{key: k, scores: make(map[string]float64)}
					byKey[k] = d
					dims = append(dims, d)
				}
				if _, seen := d.scores[p.ProjectName]; !seen {
					d.projects = append(d.projects, p.ProjectName)
				}
				d.scores[p.ProjectName] = s.Score
			}
		}
	}
	return dims
}

// DetectDimensionalOutliers flags projects whose z-score on a single
// "judge > category" dimension exceeds DimensionalThreshold, highest first.
func DetectDimensionalOutliers(projects []panel.ProjectScores, cfg OutlierConfig) []DimensionalOutlier {
	out := []DimensionalOutlier{}
	dims := collectDimensions(projects, func(judge, category string) string {
		return judge + " > " + category
	})
	for _, d := range dims {
		values := make([]float64, 0, len(d.projects))
		for _, name := range d.projects {
			values = append(values, d.scores[name])
		}
		sd := StdDev(values)
		if sd == 0 {
			continue
		}
		m := Mean(values)
		for _, name := range d.projects {
			score := d.scores[name]
			if z := (score - m) / sd; z > cfg.DimensionalThreshold {
				out = append(out, DimensionalOutlier{ProjectName: name, Dimension: d.key, Score: score, ZScore: z})
			}
		}
	}
	slices.SortStableFunc(out, func(a, b DimensionalOutlier) int {
		return cmp.Compare(b.ZScore, a.ZScore)
	})
	return out
}

// DetectUniqueProfiles looks among projects at or above the
// MinQualityPercentile of composite scores for those whose per-dimension score
// vector points away from the group's centroid.
func DetectUniqueProfiles(projects []panel.ProjectScores, cfg OutlierConfig) []UniqueProfile {
	out := []UniqueProfile{}

	sorted := slices.Clone(projects)
	slices.SortStableFunc(sorted, func(a, b panel.ProjectScores) int {
		return cmp.Compare(a.CompositeScore, b.CompositeScore)
	})
	cutoff := int(math.Floor(float64(len(sorted)) * cfg.MinQualityPercentile / 100))
	cutoff = min(max(cutoff, 0), len(sorted))
	qualified := sorted[cutoff:]
	if len(qualified) < 2 {
		return out
	}

	dims := collectDimensions(projects, func(judge, category string) string {
		return judge + ":" + category
	})
	slices.SortFunc(dims, func(a, b *dimension) int { return strings.Compare(a.key, b.key) })

	vectors := make([][]float64, len(qualified))
	centroid := make([]float64, len(dims))
	for i, p := range qualified {
		vec := make([]float64, len(dims))
		for j, d := range dims {
			vec[j] = d.scores[p.ProjectName]
			centroid[j] += vec[j]
		}
		vectors[i] = vec
	}
	for j := range centroid {
		centroid[j] /= float64(len(qualified))
	}

	for i, p := range qualified {
		distinct := 1 - CosineSimilarity(vectors[i], centroid)
		if distinct <= minDistinctiveness {
			continue
		}
		out = append(out, UniqueProfile{
			ProjectName:     p.ProjectName,
			Distinctiveness: distinct,
			Description:     describeProfile(dims, vectors[i], centroid),
		})
	}
	slices.SortStableFunc(out, func(a, b UniqueProfile) int {
		return cmp.Compare(b.Distinctiveness, a.Distinctiveness)
	})
	return out
}

// describeProfile names the dimension where the project sits furthest above
// the centroid.
func describeProfile(dims []*dimension, vec, centroid []float64) string {
	best, bestDelta := -1, 0.0
	for j := range vec {
		if delta := vec[j] - centroid[j]; delta > bestDelta {
			best, bestDelta = j, delta
		}
	}
	if best < 0 {
		return ""
	}
	return fmt.Sprintf("Strongest relative to peers in %s (+%.1f)", dims[best].key, bestDelta)
}

// BuildRecommendedSet merges the three outlier lists, deduplicating by project
// name and accumulating tags and reasons, then truncates to MaxRecommended.
func BuildRecommendedSet(global []GlobalOutlier, dimensional []DimensionalOutlier, unique []UniqueProfile, cfg OutlierConfig) []RecommendedOutlier {
	out := []RecommendedOutlier{}
	index := make(map[string]int)
	add := func(name, reason string, kind OutlierType) {
		if i, ok := index[name]; ok {
			out[i].OutlierTypes = append(out[i].OutlierTypes, kind)
			out[i].SelectionReason += "; " + reason
			return
		}
		index[name] = len(out)
		out = append(out, RecommendedOutlier{ProjectName: name, SelectionReason: reason, OutlierTypes: []OutlierType{kind}})
	}
	for _, o := range global {
		add(o.ProjectName, fmt.Sprintf("Top composite score: %.1f", o.CompositeScore), OutlierGlobal)
	}
	for _, o := range dimensional {
		add(o.ProjectName, fmt.Sprintf("Spike in %s: %s", o.Dimension, FormatNumber(o.Score)), OutlierDimensional)
	}
	for _, o := range unique {
		add(o.ProjectName, fmt.Sprintf("Unique scoring profile (distinctiveness: %.2f)", o.Distinctiveness), OutlierUnique)
	}
	if cfg.MaxRecommended >= 0 && len(out) > cfg.MaxRecommended {
		out = out[:cfg.MaxRecommended]
	}
	return out
}

// DetectOutliers runs every detector over projects, which must be in project
// order and carry their judge results.
func DetectOutliers(projects []panel.ProjectScores, cfg OutlierConfig) Analysis {
	global := DetectGlobalOutliers(projects, cfg)
	dimensional := DetectDimensionalOutliers(projects, cfg)
	unique := DetectUniqueProfiles(projects, cfg)
	recommended := BuildRecommendedSet(global, dimensional, unique, cfg)
	return Analysis{
		GlobalOutliers:      global,
		DimensionalOutliers: dimensional,
		UniqueProfiles:      unique,
		Recommended:         recommended,
		Patterns: Patterns{
			CommonStrengths:        []string{},
			CommonWeaknesses:       []string{},
			DifferentiatingFactors: []string{},
		},
		NoOutliersDetected: len(recommended) == 0,
	}
}

// FormatNumber renders a score the shortest way that round-trips, so 9 prints
// as "9" and 8.5 as "8.5".
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
