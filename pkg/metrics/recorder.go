// Package metrics records planning runs as Prometheus metrics.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/coverage"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/optimizer"
)

// Run outcomes used as the outcome label of shiftwise_plan_runs_total
const (
	OutcomeFeasible   = "feasible"
	OutcomeInfeasible = "infeasible"
	OutcomeError      = "error"
)

var priorities = []model.Priority{model.PriorityLow, model.PriorityMedium, model.PriorityHigh, model.PriorityCritical}

// Recorder exposes planning metrics. A nil *Recorder discards every observation.
type Recorder struct {
	runs          *prometheus.CounterVec
	solveDuration prometheus.Histogram
	coverage      prometheus.Gauge
	gaps          *prometheus.GaugeVec
	moves         *prometheus.CounterVec
}

// NewRecorder registers the planning metrics on reg. If reg is nil, the
// default registerer is used. Collectors that are already registered are reused.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shiftwise_plan_runs_total",
		Help: "Total number of planning runs by outcome",
	}, []string{"outcome"})
	solveDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shiftwise_solve_duration_seconds",
		Help:    "Time spent in the greedy solver",
		Buckets: prometheus.DefBuckets,
	})
	coverageGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "shiftwise_coverage_percentage",
		Help: "Coverage percentage of the last plan",
	})
	gaps := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "shiftwise_gaps",
		Help: "Coverage gaps of the last plan by criticality",
	}, []string{"criticality"})
	moves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shiftwise_optimizer_moves_total",
		Help: "Accepted optimizer moves by kind",
	}, []string{"move"})

	var err error
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if solveDuration, err = register(reg, solveDuration); err != nil {
		return nil, err
	}
	if coverageGauge, err = register(reg, coverageGauge); err != nil {
		return nil, err
	}
	if gaps, err = register(reg, gaps); err != nil {
		return nil, err
	}
	if moves, err = register(reg, moves); err != nil {
		return nil, err
	}

	return &Recorder{
		runs:          runs,
		solveDuration: solveDuration,
		coverage:      coverageGauge,
		gaps:          gaps,
		moves:         moves,
	}, nil
}

// register adds c to reg, returning the existing collector when one with the
// same descriptor is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(C)
			if !ok {
				return c, fmt.Errorf("failed to reuse collector: unexpected type %T", are.ExistingCollector)
			}
			return existing, nil
		}
		return c, fmt.Errorf("failed to register collector: %w", err)
	}
	return c, nil
}

// RecordRun counts a finished planning run
func (r *Recorder) RecordRun(outcome string) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(outcome).Inc()
}

// ObserveSolve records the solver's execution time
func (r *Recorder) ObserveSolve(d time.Duration) {
	if r == nil {
		return
	}
	r.solveDuration.Observe(d.Seconds())
}

// RecordCoverage sets the coverage gauge and the gap count per criticality.
// Criticalities without gaps are reset to zero.
func (r *Recorder) RecordCoverage(report coverage.Report) {
	if r == nil {
		return
	}
	r.coverage.Set(report.CoveragePercentage)

	counts := make(map[model.Priority]int, len(priorities))
	for _, g := range report.Gaps {
		counts[g.Criticality]++
	}
	for _, p := range priorities {
		r.gaps.WithLabelValues(string(p)).Set(float64(counts[p]))
	}
}

// RecordOptimizer counts the moves accepted by one optimization run
func (r *Recorder) RecordOptimizer(stats optimizer.Stats) {
	if r == nil {
		return
	}
	r.moves.WithLabelValues("swap").Add(float64(stats.Swaps))
	r.moves.WithLabelValues("replacement").Add(float64(stats.Replacements))
}

// WriteTextfile writes every metric gathered by g to path in the text
// exposition format, for pickup by a node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
