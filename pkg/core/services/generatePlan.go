package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/planner"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/db"
)

// PlanRunner runs a planning pipeline over a problem
type PlanRunner interface {
	Run(ctx context.Context, problem *model.SchedulingProblem) (*planner.Plan, error)
}

// GeneratePlanStore defines the database operations needed for generating a plan
type GeneratePlanStore interface {
	InsertPlan(ctx context.Context, records *db.PlanRecords) error
}

// GeneratePlanResult contains the planning outcome
type GeneratePlanResult struct {
	Plan  *planner.Plan
	Saved bool
}

// GeneratePlan runs the pipeline over a problem and stores the proposal.
// If dryRun is true, the plan is not saved to the database.
// If forceCommit is true, the plan is saved even if it has blocking violations.
// A nil store behaves like a dry run.
func GeneratePlan(
	ctx context.Context,
	database GeneratePlanStore,
	problem *model.SchedulingProblem,
	pipeline PlanRunner,
	logger *zap.Logger,
	dryRun bool,
	forceCommit bool,
) (*GeneratePlanResult, error) {
	logger.Debug("Starting generatePlan",
		zap.Int("demands", len(problem.Demands)),
		zap.Int("employees", len(problem.Employees)),
		zap.Bool("dry_run", dryRun),
		zap.Bool("force_commit", forceCommit))

	// Step 1: Run the planning pipeline
	plan, err := pipeline.Run(ctx, problem)
	if err != nil {
		return nil, fmt.Errorf("failed to run planning pipeline: %w", err)
	}

	logger.Info("Plan generated",
		zap.String("plan_id", plan.ID),
		zap.Int("assignments", len(plan.Assignments)),
		zap.Int("gaps", len(plan.Coverage.Gaps)),
		zap.Float64("coverage", plan.Coverage.CoveragePercentage),
		zap.Bool("feasible", plan.Feasible()))

	// Step 2: Save the plan if it is feasible or forced
	feasible := plan.Feasible()
	shouldSave := !dryRun && database != nil && (feasible || forceCommit)

	if shouldSave {
		logger.Info("Saving plan to database",
			zap.Bool("feasible", feasible),
			zap.Bool("forced", forceCommit && !feasible))
		records := toPlanRecords(plan, problem, forceCommit && !feasible, logger)
		if err := database.InsertPlan(ctx, records); err != nil {
			return nil, fmt.Errorf("failed to save plan: %w", err)
		}
		logger.Info("Plan saved", zap.Int("assignments", len(records.Assignments)))
	} else if dryRun || database == nil {
		logger.Info("Dry run mode - plan not saved")
	} else {
		logger.Warn("Plan has blocking violations - not saving to database (use forceCommit to save anyway)",
			zap.Int("violations", len(plan.Violations)))
	}

	return &GeneratePlanResult{Plan: plan, Saved: shouldSave}, nil
}

// toPlanRecords flattens a plan into database records. Assignments whose
// demand is missing from the problem are skipped.
func toPlanRecords(plan *planner.Plan, problem *model.SchedulingProblem, forced bool, logger *zap.Logger) *db.PlanRecords {
	ix := model.NewIndex(problem)
	records := &db.PlanRecords{
		Plan: db.Plan{
			ID:                 plan.ID,
			CreatedAt:          plan.CreatedAt,
			HorizonStart:       problem.Context.DateRange.Start,
			HorizonEnd:         problem.Context.DateRange.End,
			AggregateScore:     plan.AggregateScore,
			CoveragePercentage: plan.Coverage.CoveragePercentage,
			RiskLevel:          string(plan.Coverage.RiskLevel),
			Feasible:           plan.Feasible(),
			Forced:             forced,
		},
	}

	for _, a := range plan.Assignments {
		demand, ok := ix.Demand(a.DemandID)
		if !ok {
			logger.Warn("Skipping assignment for unknown demand",
				zap.String("assignment_id", a.ID),
				zap.String("demand_id", a.DemandID))
			continue
		}
		records.Assignments = append(records.Assignments, db.Assignment{
			ID:              a.ID,
			PlanID:          plan.ID,
			DemandID:        a.DemandID,
			EmployeeID:      a.EmployeeID,
			Date:            demand.Date,
			StationID:       demand.StationID,
			ShiftTemplateID: demand.ShiftTemplateID,
			Status:          string(a.Status),
			Score:           a.Score,
			Explanation:     a.Explanation,
			CreatedBy:       a.CreatedBy,
			CreatedAt:       a.CreatedAt,
		})
	}

	for _, g := range plan.Coverage.Gaps {
		records.Gaps = append(records.Gaps, db.Gap{
			ID:          fmt.Sprintf("%s-%s", plan.ID, g.DemandID),
			PlanID:      plan.ID,
			DemandID:    g.DemandID,
			StationName: g.StationName,
			Date:        g.Date,
			ShiftTime:   g.ShiftTime,
			Criticality: string(g.Criticality),
			Shortfall:   g.Shortfall,
			Reason:      g.Reason,
		})
	}

	for i, v := range plan.Violations {
		records.Violations = append(records.Violations, db.Violation{
			ID:           fmt.Sprintf("%s-v%d", plan.ID, i+1),
			PlanID:       plan.ID,
			ConstraintID: string(v.ConstraintID),
			Severity:     string(v.Severity),
			Message:      v.Message,
			EmployeeID:   v.EmployeeID,
			DemandID:     v.DemandID,
			Date:         v.Date,
		})
	}

	return records
}
