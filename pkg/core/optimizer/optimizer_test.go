package optimizer

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
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/solver"
)

func newService() *Service {
	return NewService(constraints.DefaultManager(), scoring.NewScorer(scoring.DefaultWeights()), zap.NewNop())
}

// Both stations need "general" at level 1; every employee holds it at level 1
// and scores 67 without a preference, 82 with one.
func twoStations() *mt.Builder {
	return mt.NewProblem().
		Skill("general").
		Station("s1", "Assembly", model.PriorityHigh, mt.Mandatory("general", 1)).
		Station("s2", "Packing", model.PriorityHigh, mt.Mandatory("general", 1)).
		Demand("d1", "2024-01-01", "s1", mt.Early, 1, model.PriorityHigh).
		Demand("d2", "2024-01-01", "s2", mt.Early, 1, model.PriorityHigh)
}

func employeeAt(assignments []model.Assignment, demandID string) string {
	for _, a := range assignments {
		if a.DemandID == demandID {
			return a.EmployeeID
		}
	}
	return ""
}

func TestOptimize_SingleAssignmentUnchanged(t *testing.T) {
	p := twoStations().Employee("e1").Holds("e1", "general", 1).Build()
	input := []model.Assignment{mt.Assignment("a1", "d1", "e1", 67)}

	out, err := newService().OptimizeAssignments(context.Background(), input, p, 10)
	require.NoError(t, err)
	assert.Equal(t, input, out)
}

func TestOptimize_ZeroIterationsUnchanged(t *testing.T) {
	p := twoStations().
		Employee("e1", mt.Prefers("s2")).Employee("e2", mt.Prefers("s1")).
		Holds("e1", "general", 1).Holds("e2", "general", 1).
		Build()
	input := []model.Assignment{mt.Assignment("a1", "d1", "e1", 67), mt.Assignment("a2", "d2", "e2", 67)}

	out, stats, err := newService().Optimize(context.Background(), input, p, 0)
	require.NoError(t, err)
	assert.Equal(t, input, out)
	assert.Zero(t, stats.Passes)
	assert.Equal(t, stats.InitialScore, stats.FinalScore)
}

func TestOptimize_SwapImproves(t *testing.T) {
	p := twoStations().
		Employee("e1", mt.Prefers("s2")).Employee("e2", mt.Prefers("s1")).
		Holds("e1", "general", 1).Holds("e2", "general", 1).
		Build()
	input := []model.Assignment{mt.Assignment("a1", "d1", "e1", 67), mt.Assignment("a2", "d2", "e2", 67)}

	out, stats, err := newService().Optimize(context.Background(), input, p, 10)
	require.NoError(t, err)

	assert.Equal(t, "e2", employeeAt(out, "d1"))
	assert.Equal(t, "e1", employeeAt(out, "d2"))
	assert.Equal(t, "a1", out[0].ID, "ids survive a swap")
	assert.InDelta(t, 82, out[0].Score, 1e-9)
	assert.Equal(t, MovedBy, out[0].UpdatedBy)
	assert.Equal(t, MovedBy, out[1].UpdatedBy)
	assert.Equal(t, 1, stats.Swaps)
	assert.Equal(t, 1, stats.Passes)
	assert.Greater(t, stats.FinalScore, stats.InitialScore)

	// Input is not mutated
	assert.Equal(t, "e1", input[0].EmployeeID)
}

func TestOptimize_ReplacementWithUnassignedEmployee(t *testing.T) {
	p := twoStations().
		Employee("e1").Employee("e2").Employee("e3", mt.Prefers("s1")).
		Holds("e1", "general", 1).Holds("e2", "general", 1).Holds("e3", "general", 1).
		Build()
	input := []model.Assignment{mt.Assignment("a1", "d1", "e1", 67), mt.Assignment("a2", "d2", "e2", 67)}

	out, stats, err := newService().Optimize(context.Background(), input, p, 10)
	require.NoError(t, err)

	assert.Equal(t, "e3", employeeAt(out, "d1"))
	assert.Equal(t, "e2", employeeAt(out, "d2"))
	assert.Equal(t, 1, stats.Replacements)
	assert.Equal(t, MovedBy, out[0].UpdatedBy)
	assert.Empty(t, out[1].UpdatedBy, "unmoved assignments keep no updater")
	assert.Zero(t, stats.Swaps)
}

func TestOptimize_SkipsUnqualifiedAndAbsentReplacements(t *testing.T) {
	p := twoStations().
		Employee("e1").Employee("e2").
		Employee("absent", mt.Prefers("s1")).Employee("unskilled", mt.Prefers("s1")).
		Holds("e1", "general", 1).Holds("e2", "general", 1).Holds("absent", "general", 1).
		Absence("absent", "SICK", "2024-01-01", "2024-01-01").
		Build()
	input := []model.Assignment{mt.Assignment("a1", "d1", "e1", 67), mt.Assignment("a2", "d2", "e2", 67)}

	out, err := newService().OptimizeAssignments(context.Background(), input, p, 10)
	require.NoError(t, err)
	assert.Equal(t, input, out)
}

func TestOptimize_ConfirmedAssignmentsDoNotMove(t *testing.T) {
	p := twoStations().
		Employee("e1", mt.Prefers("s2")).Employee("e2", mt.Prefers("s1")).
		Holds("e1", "general", 1).Holds("e2", "general", 1).
		Build()
	confirmed, err := mt.Assignment("a1", "d1", "e1", 67).Confirm()
	require.NoError(t, err)
	input := []model.Assignment{confirmed, mt.Assignment("a2", "d2", "e2", 67)}

	out, err := newService().OptimizeAssignments(context.Background(), input, p, 10)
	require.NoError(t, err)
	assert.Equal(t, "e1", employeeAt(out, "d1"))
	assert.Equal(t, "e2", employeeAt(out, "d2"))
}

func TestOptimize_NonRegression(t *testing.T) {
	b := mt.NewProblem().
		Skill("general").Skill("forklift").
		Station("s1", "Assembly", model.PriorityHigh, mt.Mandatory("general", 1), mt.Optional("forklift", 2)).
		Station("s2", "Dock", model.PriorityCritical, mt.Mandatory("forklift", 1)).
		Station("s3", "Packing", model.PriorityLow, mt.Optional("general", 1))
	employees := []struct {
		id     string
		prefer string
		skills map[string]int
	}{
		{"e1", "s3", map[string]int{"general": 1, "forklift": 3}},
		{"e2", "s2", map[string]int{"general": 3}},
		{"e3", "s1", map[string]int{"general": 2, "forklift": 1}},
		{"e4", "s1", map[string]int{"forklift": 2}},
		{"e5", "", map[string]int{"general": 1}},
	}
	for _, e := range employees {
		b.Employee(e.id, mt.Prefers(e.prefer))
		for skill, level := range e.skills {
			b.Holds(e.id, skill, level)
		}
	}
	for i, date := range []string{"2024-01-01", "2024-01-02"} {
		b.Demand("asm"+date, date, "s1", mt.Early, 1, model.PriorityHigh)
		b.Demand("dock"+date, date, "s2", mt.Late, 1, model.PriorityCritical)
		if i == 0 {
			b.Demand("pack"+date, date, "s3", mt.Early, 1, model.PriorityLow)
		}
	}
	p := b.Build()
	ix := model.NewIndex(p)
	manager := constraints.DefaultManager()
	scorer := scoring.NewScorer(scoring.DefaultWeights())

	initial, err := solver.NewGreedySolver(manager, scorer, zap.NewNop(), solver.Options{AllowMultipleAssignments: true}).
		Solve(context.Background(), p)
	require.NoError(t, err)

	initialScore := scoring.AggregateScore(initial.Assignments, len(p.Demands))
	initialBlocking := constraints.CountBlocking(manager.ValidateAssignments(initial.Assignments, ix))

	svc := NewService(manager, scorer, zap.NewNop())
	for maxIterations := 0; maxIterations <= 5; maxIterations++ {
		out, err := svc.OptimizeAssignments(context.Background(), initial.Assignments, p, maxIterations)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, scoring.AggregateScore(out, len(p.Demands)), initialScore-1e-9, "maxIterations=%d", maxIterations)
		assert.LessOrEqual(t, constraints.CountBlocking(manager.ValidateAssignments(out, ix)), initialBlocking, "maxIterations=%d", maxIterations)
		assert.Len(t, out, len(initial.Assignments))
	}
}

func TestOptimize_Cancelled(t *testing.T) {
	p := twoStations().
		Employee("e1", mt.Prefers("s2")).Employee("e2", mt.Prefers("s1")).
		Holds("e1", "general", 1).Holds("e2", "general", 1).
		Build()
	input := []model.Assignment{mt.Assignment("a1", "d1", "e1", 67), mt.Assignment("a2", "d2", "e2", 67)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := newService().OptimizeAssignments(ctx, input, p, 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, input, out)
}
