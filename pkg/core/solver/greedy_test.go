package solver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/constraints"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
	mt "github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model/modeltest"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/scoring"
)

func newSolver(opts Options) *GreedySolver {
	return NewGreedySolver(constraints.DefaultManager(), scoring.NewScorer(scoring.DefaultWeights()), zap.NewNop(), opts)
}

func dock() *mt.Builder {
	return mt.NewProblem().
		Skill("forklift").
		Station("s1", "Loading Dock", model.PriorityHigh, mt.Mandatory("forklift", 2))
}

func byDemand(assignments []model.Assignment) map[string][]string {
	out := make(map[string][]string)
	for _, a := range assignments {
		out[a.DemandID] = append(out[a.DemandID], a.EmployeeID)
	}
	return out
}

func TestSolve_PriorityFirst(t *testing.T) {
	p := dock().
		Employee("e1").Holds("e1", "forklift", 3).
		Demand("low", "2024-01-01", "s1", mt.Early, 1, model.PriorityLow).
		Demand("critical", "2024-01-02", "s1", mt.Early, 1, model.PriorityCritical).
		Build()

	result, err := newSolver(Options{}).Solve(context.Background(), p)
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, result.Assignments, 1)
	assert.Equal(t, "critical", result.Assignments[0].DemandID)
	assert.Equal(t, model.StatusProposed, result.Assignments[0].Status)
	assert.NotEmpty(t, result.Assignments[0].Explanation)
	assert.Equal(t, CreatedBy, result.Assignments[0].CreatedBy)
}

func TestSolve_TieGoesToFirstEmployee(t *testing.T) {
	p := dock().
		Employee("e1").Employee("e2").
		Holds("e1", "forklift", 3).Holds("e2", "forklift", 3).
		Demand("d1", "2024-01-01", "s1", mt.Early, 1, model.PriorityHigh).
		Build()

	result, err := newSolver(Options{}).Solve(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, result.Assignments, 1)
	assert.Equal(t, "e1", result.Assignments[0].EmployeeID)
}

func TestSolve_PicksHighestScore(t *testing.T) {
	p := dock().
		Employee("e1").Employee("e2", mt.Prefers("s1")).
		Holds("e1", "forklift", 2).Holds("e2", "forklift", 4).
		Demand("d1", "2024-01-01", "s1", mt.Early, 1, model.PriorityHigh).
		Build()

	result, err := newSolver(Options{}).Solve(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, result.Assignments, 1)
	assert.Equal(t, "e2", result.Assignments[0].EmployeeID)
	assert.Equal(t, 2, result.Iterations)
}

func TestSolve_FiltersUnavailableCandidates(t *testing.T) {
	p := dock().
		Employee("inactive", mt.Inactive).Holds("inactive", "forklift", 5).
		Employee("absent").Holds("absent", "forklift", 5).
		Employee("expired").HoldsUntil("expired", "forklift", 5, "2023-06-30").
		Employee("junior").Holds("junior", "forklift", 1).
		Employee("ok").Holds("ok", "forklift", 2).
		Absence("absent", "VACATION", "2023-12-30", "2024-01-05").
		Demand("d1", "2024-01-01", "s1", mt.Early, 1, model.PriorityHigh).
		Build()

	result, err := newSolver(Options{}).Solve(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, result.Assignments, 1)
	assert.Equal(t, "ok", result.Assignments[0].EmployeeID)
	assert.Equal(t, 1, result.Iterations)
}

func TestSolve_RetriesNextBestOnBlockingViolation(t *testing.T) {
	p := dock().
		Employee("e1", mt.Prefers("s1")).Employee("e2").
		Holds("e1", "forklift", 5).Holds("e2", "forklift", 2).
		Demand("booked", "2024-01-01", "s1", mt.Early, 1, model.PriorityHigh).
		Demand("d2", "2024-01-01", "s1", mt.Early, 1, model.PriorityHigh).
		Existing(mt.Assignment("old", "booked", "e1", 90)).
		Build()

	result, err := newSolver(Options{}).Solve(context.Background(), p)
	require.NoError(t, err)

	// "booked" is already covered; e1 scores best for d2 but would be double booked
	assert.Equal(t, map[string][]string{"d2": {"e2"}}, byDemand(result.Assignments))
	assert.Zero(t, constraints.CountBlocking(result.Violations))
}

func TestSolve_FillsRequiredCount(t *testing.T) {
	p := dock().
		Employee("e1").Employee("e2").Employee("e3").
		Holds("e1", "forklift", 3).Holds("e2", "forklift", 3).Holds("e3", "forklift", 3).
		Demand("d1", "2024-01-01", "s1", mt.Early, 2, model.PriorityHigh).
		Demand("d2", "2024-01-01", "s1", mt.Late, 2, model.PriorityMedium).
		Build()

	result, err := newSolver(Options{}).Solve(context.Background(), p)
	require.NoError(t, err)

	got := byDemand(result.Assignments)
	assert.Equal(t, []string{"e1", "e2"}, got["d1"])
	assert.Equal(t, []string{"e3"}, got["d2"], "each employee is used once per solve")
}

func TestSolve_StableAssignmentIDs(t *testing.T) {
	p := dock().
		Employee("e1").Employee("e2").
		Holds("e1", "forklift", 3).Holds("e2", "forklift", 3).
		Demand("d1", "2024-01-01", "s1", mt.Early, 2, model.PriorityHigh).
		Build()

	first, err := newSolver(Options{}).Solve(context.Background(), p)
	require.NoError(t, err)
	second, err := newSolver(Options{}).Solve(context.Background(), p)
	require.NoError(t, err)

	require.Len(t, first.Assignments, 2)
	require.Len(t, second.Assignments, 2)
	assert.Equal(t, model.SlotAssignmentID("d1", 0), first.Assignments[0].ID)
	assert.Equal(t, model.SlotAssignmentID("d1", 1), first.Assignments[1].ID)
	assert.NotEqual(t, first.Assignments[0].ID, first.Assignments[1].ID)
	for i := range first.Assignments {
		assert.Equal(t, first.Assignments[i].ID, second.Assignments[i].ID, "re-planning the same problem keeps ids")
	}
}

func TestSolve_AllowMultipleAssignments(t *testing.T) {
	p := dock().
		Employee("e1").Holds("e1", "forklift", 3).
		Demand("d1", "2024-01-01", "s1", mt.Early, 1, model.PriorityHigh).
		Demand("d2", "2024-01-02", "s1", mt.Early, 1, model.PriorityHigh).
		Demand("d3", "2024-01-02", "s1", mt.Late, 1, model.PriorityHigh).
		Build()

	result, err := newSolver(Options{AllowMultipleAssignments: true}).Solve(context.Background(), p)
	require.NoError(t, err)

	// d3 follows d2 without the 11h rest and pushes the day to 16h
	assert.Equal(t, map[string][]string{"d1": {"e1"}, "d2": {"e1"}}, byDemand(result.Assignments))
}

func TestSolve_GapsAreNotFailures(t *testing.T) {
	p := dock().
		Employee("e1").Holds("e1", "forklift", 1).
		Demand("d1", "2024-01-01", "s1", mt.Early, 1, model.PriorityHigh).
		Demand("d2", "2024-01-01", "ghost-station", mt.Early, 1, model.PriorityHigh).
		Demand("d3", "2024-01-01", "s1", "ghost-template", 1, model.PriorityHigh).
		Build()

	result, err := newSolver(Options{}).Solve(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Assignments)
	assert.Equal(t, 0.0, result.Score)
}

func TestSolve_Soundness(t *testing.T) {
	b := dock().Skill("first-aid").
		Station("s2", "First Aid Room", model.PriorityCritical, mt.Mandatory("first-aid", 1))
	for _, id := range []string{"e1", "e2", "e3", "e4", "e5"} {
		b.Employee(id).Holds(id, "forklift", 2)
	}
	b.Holds("e2", "first-aid", 2).Holds("e4", "first-aid", 1).
		Absence("e4", "SICK", "2024-01-02", "2024-01-02")
	for _, date := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
		b.Demand("dock-"+date, date, "s1", mt.Early, 1, model.PriorityMedium)
		b.Demand("aid-"+date, date, "s2", mt.Late, 1, model.PriorityCritical)
	}
	p := b.Build()
	ix := model.NewIndex(p)
	manager := constraints.DefaultManager()

	result, err := newSolver(Options{AllowMultipleAssignments: true}).Solve(context.Background(), p)
	require.NoError(t, err)
	require.NotEmpty(t, result.Assignments)

	violations := manager.ValidateAssignments(result.Assignments, ix)
	for _, a := range result.Assignments {
		assert.Empty(t, constraints.Blocking(constraints.ForAssignment(violations, a)), "assignment %s", a.ID)
	}
}

func TestSolve_Cancelled(t *testing.T) {
	p := dock().
		Employee("e1").Holds("e1", "forklift", 3).
		Demand("d1", "2024-01-01", "s1", mt.Early, 1, model.PriorityHigh).
		Build()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newSolver(Options{}).Solve(ctx, p)
	assert.ErrorIs(t, err, context.Canceled)
}
