package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
	mt "github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model/modeltest"
)

func scoringProblem() *mt.Builder {
	return mt.NewProblem().
		Skill("forklift").
		Skill("first-aid").
		Station("s1", "Loading Dock", model.PriorityHigh, mt.Mandatory("forklift", 2), mt.Optional("first-aid", 1)).
		Station("s2", "Packing", model.PriorityLow, mt.Optional("first-aid", 1)).
		Employee("e1").
		Employee("e2", mt.Prefers("s1")).
		Employee("e3", mt.Inactive).
		Holds("e1", "forklift", 3).
		Holds("e1", "first-aid", 1).
		Holds("e2", "forklift", 5).
		Holds("e2", "first-aid", 3).
		Holds("e3", "forklift", 5).
		Demand("d1", "2024-01-03", "s1", mt.Early, 1, model.PriorityHigh).
		Demand("d0", "2024-01-01", "s1", mt.Early, 1, model.PriorityHigh).
		Demand("d2", "2024-01-02", "s1", mt.Early, 1, model.PriorityHigh)
}

func TestScore_Breakdown(t *testing.T) {
	p := scoringProblem().Build()
	ix := model.NewIndex(p)
	s := NewScorer(DefaultWeights())
	e1, _ := ix.Employee("e1")
	d1, _ := ix.Demand("d1")

	b := s.Breakdown(e1, d1, ix, nil)
	// forklift: 0.9 x 2, first-aid: 0.8 x 1, over weight 3
	assert.InDelta(t, 2.6/3, b.SkillMatch, 1e-9)
	assert.Equal(t, 1.0, b.Availability)
	assert.Equal(t, 1.0, b.Fairness)
	assert.Equal(t, 0.0, b.Preference)
	assert.Equal(t, 0.0, b.Continuity)
	assert.InDelta(t, 2.6/3*40+20+15, b.Total, 1e-9)
}

func TestScore_PreferenceAndCap(t *testing.T) {
	p := scoringProblem().Build()
	ix := model.NewIndex(p)
	s := NewScorer(DefaultWeights())
	e2, _ := ix.Employee("e2")
	d1, _ := ix.Demand("d1")

	b := s.Breakdown(e2, d1, ix, nil)
	assert.Equal(t, 1.0, b.SkillMatch, "credit is capped at 1 per skill")
	assert.Equal(t, 1.0, b.Preference)
	assert.InDelta(t, 90.0, b.Total, 1e-9)
}

func TestScore_UnavailableEmployees(t *testing.T) {
	p := scoringProblem().Absence("e2", "SICK", "2024-01-03", "2024-01-03").Build()
	ix := model.NewIndex(p)
	s := NewScorer(DefaultWeights())
	d1, _ := ix.Demand("d1")

	e2, _ := ix.Employee("e2")
	assert.Equal(t, 0.0, s.Breakdown(e2, d1, ix, nil).Availability)

	e3, _ := ix.Employee("e3")
	assert.Equal(t, 0.0, s.Breakdown(e3, d1, ix, nil).Availability)
}

func TestScore_FairnessAndContinuityUseWorkingSet(t *testing.T) {
	p := scoringProblem().Build()
	ix := model.NewIndex(p)
	s := NewScorer(DefaultWeights())
	e1, _ := ix.Employee("e1")
	d1, _ := ix.Demand("d1")

	working := []model.Assignment{
		mt.Assignment("a0", "d0", "e1", 80),
		mt.Assignment("a2", "d2", "e1", 80),
		mt.Assignment("a1", "d1", "e1", 80),
	}
	b := s.Breakdown(e1, d1, ix, working)
	// Two other 8h shifts that week, the assignment to d1 itself is excluded
	assert.InDelta(t, 1-16.0/40, b.Fairness, 1e-9)
	assert.InDelta(t, 0.4, b.Continuity, 1e-9)
}

func TestScore_Deterministic(t *testing.T) {
	p := scoringProblem().Build()
	ix := model.NewIndex(p)
	s := NewScorer(DefaultWeights())
	e1, _ := ix.Employee("e1")
	d1, _ := ix.Demand("d1")

	first := s.Score(e1, d1, ix, nil)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, s.Score(e1, d1, ix, nil))
	}
}

func TestScore_StationWithoutRequirementsAndUnknownStation(t *testing.T) {
	p := scoringProblem().Build()
	p.Context.Stations = append(p.Context.Stations, model.Station{ID: "open", Name: "Open", Priority: model.PriorityLow})
	ix := model.NewIndex(p)
	e1, _ := ix.Employee("e1")

	assert.Equal(t, 1.0, SkillMatch(e1, model.ShiftDemand{StationID: "open", Date: "2024-01-01"}, ix))
	assert.Equal(t, 0.0, SkillMatch(e1, model.ShiftDemand{StationID: "ghost", Date: "2024-01-01"}, ix))
}

func TestWeightsFromObjectives(t *testing.T) {
	w := WeightsFromObjectives(nil)
	assert.Equal(t, DefaultWeights(), w)

	w = WeightsFromObjectives([]model.Objective{{Kind: model.ObjectiveFairness, Weight: 65}})
	total := w.SkillMatch + w.Availability + w.Fairness + w.Preference + w.Continuity
	assert.InDelta(t, 100, total, 1e-9)
	assert.InDelta(t, 40*100.0/150, w.SkillMatch, 1e-9)
	assert.InDelta(t, 65*100.0/150, w.Fairness, 1e-9)
}

func TestAggregateScore(t *testing.T) {
	assignments := []model.Assignment{
		mt.Assignment("a1", "d1", "e1", 80),
		mt.Assignment("a2", "d2", "e2", 60),
		mt.Assignment("a3", "d3", "e3", 90).Reject(),
	}

	assert.InDelta(t, 70+20*2.0/4, AggregateScore(assignments, 4), 1e-9)
	assert.InDelta(t, 70, AggregateScore(assignments, 0), 1e-9)
	assert.Equal(t, 0.0, AggregateScore(nil, 3))
}
