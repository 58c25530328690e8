package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/clients/sheetsclient"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/db"
)

// PublishPlanStore defines the database operations needed for publishing a plan
type PublishPlanStore interface {
	GetPlans(ctx context.Context) ([]db.Plan, error)
	GetPlan(ctx context.Context, id string) (*db.Plan, error)
	GetAssignments(ctx context.Context, planID string) ([]db.Assignment, error)
	GetGaps(ctx context.Context, planID string) ([]db.Gap, error)
}

// PlanPublisher writes a plan to a spreadsheet
type PlanPublisher interface {
	PublishPlan(ctx context.Context, spreadsheetID string, plan *sheetsclient.PublishedPlan) error
}

// PublishPlan reads a stored plan and publishes it to Google Sheets.
// If planID is empty, it defaults to the latest plan.
func PublishPlan(
	ctx context.Context,
	database PublishPlanStore,
	publisher PlanPublisher,
	spreadsheetID string,
	planID string,
	logger *zap.Logger,
) (*sheetsclient.PublishedPlan, error) {
	logger.Debug("Starting publishPlan", zap.String("plan_id", planID))

	// Step 1: Fetch the target plan
	plan, err := resolvePlan(ctx, database, planID)
	if err != nil {
		return nil, err
	}
	logger.Debug("Publishing plan",
		zap.String("plan_id", plan.ID),
		zap.String("start", plan.HorizonStart),
		zap.String("end", plan.HorizonEnd))

	// Step 2: Fetch assignments and gaps
	assignments, err := database.GetAssignments(ctx, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignments: %w", err)
	}
	gaps, err := database.GetGaps(ctx, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gaps: %w", err)
	}
	logger.Debug("Fetched plan records",
		zap.Int("assignments", len(assignments)),
		zap.Int("gaps", len(gaps)))

	// Step 3: Build the published plan
	published := &sheetsclient.PublishedPlan{
		PlanID:             plan.ID,
		StartDate:          plan.HorizonStart,
		EndDate:            plan.HorizonEnd,
		CoveragePercentage: plan.CoveragePercentage,
		RiskLevel:          plan.RiskLevel,
	}
	for _, a := range assignments {
		if a.Status == string(model.StatusRejected) {
			continue
		}
		published.Assignments = append(published.Assignments, sheetsclient.PublishedAssignmentRow{
			Date:     a.Date,
			Shift:    a.ShiftTemplateID,
			Station:  a.StationID,
			Employee: a.EmployeeID,
			Score:    a.Score,
			Status:   a.Status,
		})
	}
	for _, g := range gaps {
		published.Gaps = append(published.Gaps, sheetsclient.PublishedGapRow{
			Date:        g.Date,
			Shift:       g.ShiftTime,
			Station:     g.StationName,
			Criticality: g.Criticality,
			Shortfall:   g.Shortfall,
			Reason:      g.Reason,
		})
	}

	// Step 4: Publish
	if err := publisher.PublishPlan(ctx, spreadsheetID, published); err != nil {
		return nil, fmt.Errorf("failed to publish plan: %w", err)
	}

	logger.Info("Plan published",
		zap.String("plan_id", plan.ID),
		zap.Int("assignments", len(published.Assignments)),
		zap.Int("gaps", len(published.Gaps)))

	return published, nil
}

// resolvePlan returns the plan with the given id, or the latest plan when id is empty
func resolvePlan(ctx context.Context, database PublishPlanStore, planID string) (*db.Plan, error) {
	if planID != "" {
		plan, err := database.GetPlan(ctx, planID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch plan: %w", err)
		}
		return plan, nil
	}

	plans, err := database.GetPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch plans: %w", err)
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("no plans found - please generate a plan first")
	}

	latest := plans[0]
	for _, p := range plans[1:] {
		if p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	return &latest, nil
}
