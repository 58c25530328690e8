// Package planner chains the solver, optimizer and coverage analyzer into one
// planning run over a scheduling problem.
package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/constraints"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/coverage"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/optimizer"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/scoring"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/solver"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/metrics"
)

// DefaultMaxIterations bounds the optimizer when Options leaves it unset
const DefaultMaxIterations = 50

// Options configure a pipeline
type Options struct {
	Solver solver.Options

	// MaxIterations bounds optimizer passes. Zero uses DefaultMaxIterations;
	// a negative value skips optimization.
	MaxIterations int
}

// Plan is the outcome of one pipeline run
type Plan struct {
	ID             string                      `json:"id"`
	CreatedAt      time.Time                   `json:"createdAt"`
	Solution       *solver.Result              `json:"solution"`
	Assignments    []model.Assignment          `json:"assignments"`
	Violations     []model.ConstraintViolation `json:"violations"`
	Coverage       coverage.Report             `json:"coverage"`
	Impact         coverage.ImpactAnalysis     `json:"impact"`
	AggregateScore float64                     `json:"aggregateScore"`
	OptimizerStats optimizer.Stats             `json:"optimizerStats"`
}

// Feasible reports whether the plan has no blocking violation
func (p *Plan) Feasible() bool {
	return constraints.CountBlocking(p.Violations) == 0
}

// Pipeline runs solve, optimize and analyze. It keeps no state between runs
// and can be shared by concurrent callers.
type Pipeline struct {
	opts     Options
	logger   *zap.Logger
	recorder *metrics.Recorder
}

// NewPipeline creates a pipeline. A nil recorder disables metrics.
func NewPipeline(opts Options, logger *zap.Logger, recorder *metrics.Recorder) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxIterations == 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	return &Pipeline{opts: opts, logger: logger, recorder: recorder}
}

// Run plans the problem. The problem is not modified.
func (p *Pipeline) Run(ctx context.Context, problem *model.SchedulingProblem) (*Plan, error) {
	plan, err := p.run(ctx, problem)
	if err != nil {
		p.recorder.RecordRun(metrics.OutcomeError)
		return nil, err
	}
	if plan.Feasible() {
		p.recorder.RecordRun(metrics.OutcomeFeasible)
	} else {
		p.recorder.RecordRun(metrics.OutcomeInfeasible)
	}
	return plan, nil
}

func (p *Pipeline) run(ctx context.Context, problem *model.SchedulingProblem) (*Plan, error) {
	// Step 1: Validate the snapshot and build the rule set and scorer it asks for
	if err := problem.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate problem: %w", err)
	}
	manager, err := constraints.NewManager(problem.Constraints)
	if err != nil {
		return nil, fmt.Errorf("failed to build constraint manager: %w", err)
	}
	scorer := scoring.NewScorer(scoring.WeightsFromObjectives(problem.Objectives))

	// Step 2: Build the initial assignment set
	solution, err := solver.NewGreedySolver(manager, scorer, p.logger, p.opts.Solver).Solve(ctx, problem)
	if err != nil {
		return nil, fmt.Errorf("failed to solve problem: %w", err)
	}
	p.recorder.ObserveSolve(solution.ExecutionTime)

	// Step 3: Refine it with local search
	assignments := solution.Assignments
	var stats optimizer.Stats
	if p.opts.MaxIterations > 0 {
		assignments, stats, err = optimizer.NewService(manager, scorer, p.logger).
			Optimize(ctx, solution.Assignments, problem, p.opts.MaxIterations)
		if err != nil {
			return nil, fmt.Errorf("failed to optimize assignments: %w", err)
		}
		p.recorder.RecordOptimizer(stats)
	} else {
		score := scoring.AggregateScore(assignments, len(problem.Demands))
		stats = optimizer.Stats{InitialScore: score, FinalScore: score}
	}

	// Step 4: Validate the final set and analyze its coverage
	ix := model.NewIndex(problem)
	violations := manager.ValidateAssignments(assignments, ix)
	report := coverage.NewAnalyzer(manager, p.logger).CalculateCoverageAnalysis(problem, assignments)
	p.recorder.RecordCoverage(report)

	plan := &Plan{
		ID:             uuid.New().String(),
		CreatedAt:      time.Now().UTC(),
		Solution:       solution,
		Assignments:    assignments,
		Violations:     violations,
		Coverage:       report,
		Impact:         coverage.AnalyzeImpact(report.Gaps, report.TotalDemands),
		AggregateScore: scoring.AggregateScore(assignments, len(problem.Demands)),
		OptimizerStats: stats,
	}

	p.logger.Info("Plan generated",
		zap.String("plan_id", plan.ID),
		zap.Int("assignments", len(plan.Assignments)),
		zap.Int("violations", len(plan.Violations)),
		zap.Int("gaps", len(report.Gaps)),
		zap.Float64("coverage", report.CoveragePercentage),
		zap.String("risk", string(report.RiskLevel)),
		zap.Float64("score", plan.AggregateScore))

	return plan, nil
}
