/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package reportwriter

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"chainguard.dev/evalpanel/panel"
	"chainguard.dev/evalpanel/scoring"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

const noOutliers = "No strong outliers detected. Projects are within normal scoring range."

// RankingsSummary renders rankings.md. Rankings are expected in rank order.
func RankingsSummary(rankings []panel.ProjectScores, plan *panel.Plan, outliers scoring.Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s — Evaluation Results\n\n", plan.Scenario)

	b.WriteString("## Overall Rankings\n\n")
	b.WriteString(rankingsTable(rankings))
	b.WriteString("\n## Outlier Analysis\n\n")
	b.WriteString(outlierSection(outliers))
	b.WriteString("\n\n## Methodology\n\n")

	judges := make([]string, 0, len(plan.Judges))
	for _, j := range plan.Judges {
		judges = append(judges, fmt.Sprintf("%s (%s)", j.Name, j.Role))
	}
	fmt.Fprintf(&b, "- **Judges:** %s\n", strings.Join(judges, ", "))
	fmt.Fprintf(&b, "- **Scale:** %d-%d\n", plan.ScoreScale.Min, plan.ScoreScale.Max)
	b.WriteString("- **Normalization:** Z-score with rescaling\n")
	fmt.Fprintf(&b, "- **Score guidance:** %s\n", plan.ScaleGuidance)
	return b.String()
}

func rankingsTable(rankings []panel.ProjectScores) string {
	var buf bytes.Buffer
	table := newTable([]string{"Rank", "Project", "Composite", "Best In", "Weakest In"}, &buf)
	for i, p := range rankings {
		best, worst := "N/A", "N/A"
		if hi, lo, ok := extremes(p.OverallScores); ok {
			best = fmt.Sprintf("%s (%.1f)", hi, p.OverallScores[hi])
			worst = fmt.Sprintf("%s (%.1f)", lo, p.OverallScores[lo])
		}
		_ = table.Append([]string{
			strconv.Itoa(i + 1),
			p.ProjectName,
			fmt.Sprintf("%.1f", p.CompositeScore),
			best,
			worst,
		})
	}
	_ = table.Render()
	return buf.String()
}

// extremes returns the judges with the highest and lowest scores. Ties go to
// the judge whose name sorts first.
func extremes(scores map[string]float64) (hi, lo string, ok bool) {
	for _, name := range slices.Sorted(maps.Keys(scores)) {
		if !ok {
			hi, lo, ok = name, name, true
			continue
		}
		if scores[name] > scores[hi] {
			hi = name
		}
		if scores[name] < scores[lo] {
			lo = name
		}
	}
	return hi, lo, ok
}

func outlierSection(a scoring.Analysis) string {
	if a.NoOutliersDetected {
		return noOutliers
	}
	var sections []string
	if len(a.GlobalOutliers) > 0 {
		lines := []string{"### Global Outliers"}
		for _, o := range a.GlobalOutliers {
			lines = append(lines, fmt.Sprintf("- **%s**: composite %.1f (%.0fth percentile)", o.ProjectName, o.CompositeScore, o.Percentile))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	if len(a.DimensionalOutliers) > 0 {
		lines := []string{"### Dimensional Outliers"}
		for _, o := range a.DimensionalOutliers {
			lines = append(lines, fmt.Sprintf("- **%s**: %s = %s (%.1f SD above mean)", o.ProjectName, o.Dimension, scoring.FormatNumber(o.Score), o.ZScore))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	if len(a.Recommended) > 0 {
		lines := []string{"### Recommended Set"}
		for _, o := range a.Recommended {
			types := make([]string, 0, len(o.OutlierTypes))
			for _, t := range o.OutlierTypes {
				types = append(types, string(t))
			}
			lines = append(lines, fmt.Sprintf("- **%s** [%s]: %s", o.ProjectName, strings.Join(types, ", "), o.SelectionReason))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	return strings.Join(sections, "\n\n")
}

// newTable returns a markdown table writer.
func newTable(headers []string, w io.Writer) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{
				Left:   tw.On,
				Top:    tw.Off,
				Right:  tw.On,
				Bottom: tw.Off,
			},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}
