// Package simulation answers what-if questions by planning a problem with and
// without a scenario's modifications and comparing the outcomes.
package simulation

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/coverage"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/planner"
)

// HighRiskThreshold is the risk increase above which a scenario is flagged
const HighRiskThreshold = 40.0

// Result compares the baseline and modified plans of one scenario
type Result struct {
	ScenarioName      string                  `json:"scenarioName"`
	OriginalCoverage  coverage.Report         `json:"originalCoverage"`
	SimulatedCoverage coverage.Report         `json:"simulatedCoverage"`
	CoverageChange    float64                 `json:"coverageChange"`
	ImpactAnalysis    coverage.ImpactAnalysis `json:"impactAnalysis"`
	Recommendations   []string                `json:"recommendations"`
}

// Comparison is the outcome of CompareScenarios
type Comparison struct {
	ScenarioA   *Result `json:"scenarioA"`
	ScenarioB   *Result `json:"scenarioB"`
	Recommended string  `json:"recommended"`
	Reason      string  `json:"reason"`
}

// Planner runs a full planning pipeline
type Planner interface {
	Run(ctx context.Context, problem *model.SchedulingProblem) (*planner.Plan, error)
}

// Service runs what-if simulations
type Service struct {
	planner Planner
	logger  *zap.Logger
}

// NewService creates a simulation service. A nil logger discards output.
func NewService(p Planner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{planner: p, logger: logger}
}

// SimulateScenario plans the problem as is and with the scenario applied.
// Both runs are independent and execute concurrently. Any failure discards
// both results and is returned wrapped once.
func (s *Service) SimulateScenario(ctx context.Context, problem *model.SchedulingProblem, scenario WhatIfScenario) (*Result, error) {
	result, err := s.simulate(ctx, problem, scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to simulate scenario: %w", err)
	}
	return result, nil
}

func (s *Service) simulate(ctx context.Context, problem *model.SchedulingProblem, scenario WhatIfScenario) (*Result, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	modified, err := scenario.Apply(problem)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Simulating scenario",
		zap.String("scenario", scenario.Name),
		zap.Int("modifications", len(scenario.Modifications)))

	var baseline, simulated *planner.Plan
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		plan, err := s.planner.Run(gctx, problem)
		if err != nil {
			return fmt.Errorf("baseline run: %w", err)
		}
		baseline = plan
		return nil
	})
	g.Go(func() error {
		plan, err := s.planner.Run(gctx, modified)
		if err != nil {
			return fmt.Errorf("modified run: %w", err)
		}
		simulated = plan
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		ScenarioName:      scenario.Name,
		OriginalCoverage:  baseline.Coverage,
		SimulatedCoverage: simulated.Coverage,
		CoverageChange:    simulated.Coverage.CoveragePercentage - baseline.Coverage.CoveragePercentage,
		ImpactAnalysis:    simulated.Impact,
	}
	result.Recommendations = recommendations(result)

	s.logger.Info("Scenario simulated",
		zap.String("scenario", scenario.Name),
		zap.Float64("original_coverage", baseline.Coverage.CoveragePercentage),
		zap.Float64("simulated_coverage", simulated.Coverage.CoveragePercentage),
		zap.Float64("risk_increase", result.ImpactAnalysis.RiskIncrease))

	return result, nil
}

// recommendations renders the fixed advice templates that apply to a result
func recommendations(r *Result) []string {
	var recs []string

	if r.ImpactAnalysis.RiskIncrease > HighRiskThreshold {
		recs = append(recs, "High risk scenario: arrange contingency staffing before these changes take effect")
	}
	switch {
	case r.CoverageChange < 0:
		recs = append(recs, fmt.Sprintf("Coverage drops by %.1f points; review the recommended actions for the affected stations", -r.CoverageChange))
	case r.CoverageChange > 0:
		recs = append(recs, fmt.Sprintf("Coverage improves by %.1f points", r.CoverageChange))
	default:
		recs = append(recs, "Coverage is unchanged by this scenario")
	}

	newCritical := 0
	for _, g := range r.SimulatedCoverage.Gaps {
		if g.Criticality == model.PriorityCritical && !hasGap(r.OriginalCoverage.Gaps, g.DemandID) {
			newCritical++
		}
	}
	if newCritical > 0 {
		recs = append(recs, fmt.Sprintf("%d critical demand(s) lose cover; escalate to operations management", newCritical))
	}
	if r.SimulatedCoverage.RiskLevel == coverage.RiskCritical && r.OriginalCoverage.RiskLevel != coverage.RiskCritical {
		recs = append(recs, "Plan risk becomes CRITICAL under this scenario")
	}
	for _, a := range r.ImpactAnalysis.RecommendedActions {
		if a.EstimatedCost > 0 {
			recs = append(recs, fmt.Sprintf("%s (estimated cost $%.0f)", a.Description, a.EstimatedCost))
		}
	}
	return recs
}

func hasGap(gaps []coverage.CoverageGap, demandID string) bool {
	for _, g := range gaps {
		if g.DemandID == demandID {
			return true
		}
	}
	return false
}

// CompareScenarios simulates a and b concurrently and recommends the one
// with the higher simulated coverage. Ties go to the lower risk increase,
// then to a.
func (s *Service) CompareScenarios(ctx context.Context, problem *model.SchedulingProblem, a, b WhatIfScenario) (*Comparison, error) {
	var ra, rb *Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.SimulateScenario(gctx, problem, a)
		ra = r
		return err
	})
	g.Go(func() error {
		r, err := s.SimulateScenario(gctx, problem, b)
		rb = r
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := &Comparison{ScenarioA: ra, ScenarioB: rb}
	covA, covB := ra.SimulatedCoverage.CoveragePercentage, rb.SimulatedCoverage.CoveragePercentage
	riskA, riskB := ra.ImpactAnalysis.RiskIncrease, rb.ImpactAnalysis.RiskIncrease
	switch {
	case covA > covB:
		c.Recommended = ra.ScenarioName
		c.Reason = fmt.Sprintf("%s reaches %.1f%% coverage against %.1f%% for %s", ra.ScenarioName, covA, covB, rb.ScenarioName)
	case covB > covA:
		c.Recommended = rb.ScenarioName
		c.Reason = fmt.Sprintf("%s reaches %.1f%% coverage against %.1f%% for %s", rb.ScenarioName, covB, covA, ra.ScenarioName)
	case riskB < riskA:
		c.Recommended = rb.ScenarioName
		c.Reason = fmt.Sprintf("Both reach %.1f%% coverage; %s carries the lower risk increase (%.0f against %.0f)", covA, rb.ScenarioName, riskB, riskA)
	default:
		c.Recommended = ra.ScenarioName
		c.Reason = fmt.Sprintf("Both reach %.1f%% coverage with comparable risk; keeping %s", covA, ra.ScenarioName)
	}

	s.logger.Info("Scenarios compared",
		zap.String("scenario_a", ra.ScenarioName),
		zap.String("scenario_b", rb.ScenarioName),
		zap.String("recommended", c.Recommended))

	return c, nil
}
