/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package progress

import (
	"context"

	"github.com/chainguard-dev/clog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LogHandler logs each event with the logger carried by ctx.
func LogHandler(ctx context.Context) func(Event) {
	log := clog.FromContext(ctx)
	return func(e Event) {
		l := log.With("event", string(e.Type))
		if e.ProjectName != "" {
			l = l.With("project", e.ProjectName)
		}
		if e.JudgeName != "" {
			l = l.With("judge", e.JudgeName)
		}
		if e.Type == TypeJudgeFailed {
			l.Warn(e.String())
			return
		}
		l.Info(e.String())
	}
}

var (
	judgeRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evalpanel_judge_runs_total",
			Help: "Judge runs by outcome",
		},
		[]string{"outcome"},
	)

	projectsEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "evalpanel_projects_evaluated_total",
			Help: "Projects whose evaluation started, including ones restored from checkpoints",
		},
	)

	judgeScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "evalpanel_judge_overall_score",
			Help: "Most recent overall score reported by each judge (1-10)",
		},
		[]string{"judge"},
	)

	eventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "evalpanel_progress_events_dropped_total",
			Help: "Progress events a subscriber missed because its buffer was full",
		},
	)
)

// MetricsHandler feeds the Prometheus collectors from events.
func MetricsHandler() func(Event) {
	started := judgeRuns.WithLabelValues("started")
	completed := judgeRuns.WithLabelValues("completed")
	failed := judgeRuns.WithLabelValues("failed")
	return func(e Event) {
		switch e.Type {
		case TypeEvaluating:
			projectsEvaluated.Inc()
		case TypeJudgeStarted:
			started.Inc()
		case TypeJudgeCompleted:
			completed.Inc()
			if e.OverallScore != nil {
				judgeScore.WithLabelValues(e.JudgeName).Set(*e.OverallScore)
			}
		case TypeJudgeFailed:
			failed.Inc()
		}
	}
}

// CountDrops makes the bus report dropped events to Prometheus.
func (b *Bus) CountDrops() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onDrop = eventsDropped.Inc
}
