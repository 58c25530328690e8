package services

import (
	"context"
	"fmt"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/clients/sheetsclient"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/planner"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/db"
)

// mockPlanStore is an in-memory plan store
type mockPlanStore struct {
	plans       []db.Plan
	assignments []db.Assignment
	gaps        []db.Gap
	inserted    []*db.PlanRecords

	insertErr    error
	getPlansErr  error
	getAssignErr error
	getGapsErr   error
}

func (m *mockPlanStore) InsertPlan(ctx context.Context, records *db.PlanRecords) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, records)
	return nil
}

func (m *mockPlanStore) GetPlans(ctx context.Context) ([]db.Plan, error) {
	if m.getPlansErr != nil {
		return nil, m.getPlansErr
	}
	return m.plans, nil
}

func (m *mockPlanStore) GetPlan(ctx context.Context, id string) (*db.Plan, error) {
	for _, p := range m.plans {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("plan %s: %w", id, db.ErrPlanNotFound)
}

func (m *mockPlanStore) GetAssignments(ctx context.Context, planID string) ([]db.Assignment, error) {
	if m.getAssignErr != nil {
		return nil, m.getAssignErr
	}
	var out []db.Assignment
	for _, a := range m.assignments {
		if a.PlanID == planID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockPlanStore) GetGaps(ctx context.Context, planID string) ([]db.Gap, error) {
	if m.getGapsErr != nil {
		return nil, m.getGapsErr
	}
	var out []db.Gap
	for _, g := range m.gaps {
		if g.PlanID == planID {
			out = append(out, g)
		}
	}
	return out, nil
}

// mockPublisher captures the published plan
type mockPublisher struct {
	published     *sheetsclient.PublishedPlan
	spreadsheetID string
	err           error
}

func (m *mockPublisher) PublishPlan(ctx context.Context, spreadsheetID string, plan *sheetsclient.PublishedPlan) error {
	if m.err != nil {
		return m.err
	}
	m.spreadsheetID = spreadsheetID
	m.published = plan
	return nil
}

// fakeRunner returns a fixed plan or error
type fakeRunner struct {
	plan *planner.Plan
	err  error
}

func (f *fakeRunner) Run(ctx context.Context, problem *model.SchedulingProblem) (*planner.Plan, error) {
	return f.plan, f.err
}
