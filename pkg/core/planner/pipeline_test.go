package planner

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/coverage"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
	mt "github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model/modeltest"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/metrics"
)

func warehouse() *mt.Builder {
	return mt.NewProblem().
		Skill("forklift").Skill("welding").
		Station("dock", "Loading Dock", model.PriorityHigh, mt.Mandatory("forklift", 2)).
		Station("weld", "Welding Bay", model.PriorityCritical, mt.Mandatory("welding", 3)).
		Employee("alice").Holds("alice", "forklift", 3).
		Employee("bob").Holds("bob", "welding", 4).
		Employee("carol").Holds("carol", "forklift", 2).Holds("carol", "welding", 3)
}

func TestPipeline_RunCoversAllDemands(t *testing.T) {
	p := warehouse().
		Demand("dock-mon", "2024-01-01", "dock", mt.Early, 1, model.PriorityHigh).
		Demand("weld-mon", "2024-01-01", "weld", mt.Early, 1, model.PriorityCritical).
		Demand("dock-tue", "2024-01-02", "dock", mt.Early, 1, model.PriorityHigh).
		Build()

	plan, err := NewPipeline(Options{}, zap.NewNop(), nil).Run(context.Background(), p)
	require.NoError(t, err)

	assert.NotEmpty(t, plan.ID)
	assert.True(t, plan.Feasible())
	assert.Len(t, plan.Assignments, 3)
	assert.Equal(t, 100.0, plan.Coverage.CoveragePercentage)
	assert.Equal(t, coverage.RiskLow, plan.Coverage.RiskLevel)
	assert.Empty(t, plan.Impact.AffectedStations)
	assert.GreaterOrEqual(t, plan.AggregateScore, plan.Solution.Score-1e-9)
	assert.Equal(t, plan.OptimizerStats.FinalScore, plan.AggregateScore)
}

func TestPipeline_ReportsGaps(t *testing.T) {
	p := warehouse().
		Absence("bob", "SICK", "2024-01-01", "2024-01-01").
		Absence("carol", "VACATION", "2024-01-01", "2024-01-01").
		Demand("weld-mon", "2024-01-01", "weld", mt.Early, 1, model.PriorityCritical).
		Demand("dock-mon", "2024-01-01", "dock", mt.Early, 1, model.PriorityHigh).
		Build()

	plan, err := NewPipeline(Options{}, zap.NewNop(), nil).Run(context.Background(), p)
	require.NoError(t, err)

	require.Len(t, plan.Coverage.Gaps, 1)
	gap := plan.Coverage.Gaps[0]
	assert.Equal(t, "weld-mon", gap.DemandID)
	assert.Equal(t, coverage.CauseAllAbsent, gap.Cause)
	assert.Equal(t, coverage.RiskCritical, plan.Coverage.RiskLevel)
	assert.Equal(t, []string{"Welding Bay"}, plan.Impact.AffectedStations)
	assert.InDelta(t, -50, plan.Impact.CoverageChange, 1e-9)
}

func TestPipeline_InvalidProblem(t *testing.T) {
	p := warehouse().
		Demand("dock-mon", "2024-01-01", "dock", mt.Early, 0, model.PriorityHigh).
		Build()

	_, err := NewPipeline(Options{}, zap.NewNop(), nil).Run(context.Background(), p)
	require.Error(t, err)
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "failed to validate problem")
}

func TestPipeline_UnknownConstraintKind(t *testing.T) {
	p := warehouse().
		Constraint(model.ConstraintSpec{Kind: "overtime_ban"}).
		Demand("dock-mon", "2024-01-01", "dock", mt.Early, 1, model.PriorityHigh).
		Build()

	_, err := NewPipeline(Options{}, zap.NewNop(), nil).Run(context.Background(), p)
	assert.Error(t, err)
}

func TestPipeline_SkipsOptimizationWhenNegative(t *testing.T) {
	p := warehouse().
		Demand("dock-mon", "2024-01-01", "dock", mt.Early, 1, model.PriorityHigh).
		Demand("dock-tue", "2024-01-02", "dock", mt.Early, 1, model.PriorityHigh).
		Build()

	plan, err := NewPipeline(Options{MaxIterations: -1}, zap.NewNop(), nil).Run(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, plan.Solution.Assignments, plan.Assignments)
	assert.Zero(t, plan.OptimizerStats.Passes)
}

func TestPipeline_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := metrics.NewRecorder(reg)
	require.NoError(t, err)

	p := warehouse().
		Demand("dock-mon", "2024-01-01", "dock", mt.Early, 1, model.PriorityHigh).
		Build()
	pipeline := NewPipeline(Options{}, zap.NewNop(), rec)

	_, err = pipeline.Run(context.Background(), p)
	require.NoError(t, err)

	bad := warehouse().Demand("x", "not-a-date", "dock", mt.Early, 1, model.PriorityHigh).Build()
	_, err = pipeline.Run(context.Background(), bad)
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["shiftwise_plan_runs_total"])
	assert.True(t, names["shiftwise_coverage_percentage"])
	assert.True(t, names["shiftwise_solve_duration_seconds"])
	runs, err := testutil.GatherAndCount(reg, "shiftwise_plan_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 2, runs)
}

func TestPipeline_Cancelled(t *testing.T) {
	p := warehouse().
		Demand("dock-mon", "2024-01-01", "dock", mt.Early, 1, model.PriorityHigh).
		Build()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(Options{}, zap.NewNop(), nil).Run(ctx, p)
	assert.ErrorIs(t, err, context.Canceled)
}
