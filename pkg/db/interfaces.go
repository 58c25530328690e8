package db

import "context"

// PlanReader defines read access to stored plans
type PlanReader interface {
	GetPlans(ctx context.Context) ([]Plan, error)
	GetPlan(ctx context.Context, id string) (*Plan, error)
	GetAssignments(ctx context.Context, planID string) ([]Assignment, error)
	GetGaps(ctx context.Context, planID string) ([]Gap, error)
	GetViolations(ctx context.Context, planID string) ([]Violation, error)
}

// PlanStore defines the interface for plan database operations.
// InsertPlan writes the plan and all child records atomically.
type PlanStore interface {
	PlanReader
	InsertPlan(ctx context.Context, records *PlanRecords) error
}
