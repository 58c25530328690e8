package scoring

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
)

// Default factor weights. They sum to 100 so a perfect candidate scores 100.
const (
	WeightSkillMatch   = 40.0
	WeightAvailability = 20.0
	WeightFairness     = 15.0
	WeightPreference   = 15.0
	WeightContinuity   = 10.0
)

const (
	// FairnessBaselineHours is the weekly load at which fairness credit reaches zero
	FairnessBaselineHours = 40.0

	// CoverageBonus is the aggregate score bonus for full coverage
	CoverageBonus = 20.0

	baseSkillCredit     = 0.8
	skillCreditPerLevel = 0.1
	continuityPerShift  = 0.2
	preferredShiftValue = 0.5
)

// Weights of each scoring factor
type Weights struct {
	SkillMatch   float64
	Availability float64
	Fairness     float64
	Preference   float64
	Continuity   float64
}

// DefaultWeights returns the standard factor weights
func DefaultWeights() Weights {
	return Weights{
		SkillMatch:   WeightSkillMatch,
		Availability: WeightAvailability,
		Fairness:     WeightFairness,
		Preference:   WeightPreference,
		Continuity:   WeightContinuity,
	}
}

// WeightsFromObjectives overrides the default weights with problem objectives
// and rescales them to sum to 100.
func WeightsFromObjectives(objectives []model.Objective) Weights {
	w := DefaultWeights()
	if len(objectives) == 0 {
		return w
	}
	for _, o := range objectives {
		switch o.Kind {
		case model.ObjectiveSkillMatch:
			w.SkillMatch = o.Weight
		case model.ObjectiveAvailability:
			w.Availability = o.Weight
		case model.ObjectiveFairness:
			w.Fairness = o.Weight
		case model.ObjectivePreference:
			w.Preference = o.Weight
		case model.ObjectiveContinuity:
			w.Continuity = o.Weight
		}
	}
	total := w.SkillMatch + w.Availability + w.Fairness + w.Preference + w.Continuity
	if total <= 0 {
		return DefaultWeights()
	}
	scale := 100 / total
	return Weights{
		SkillMatch:   w.SkillMatch * scale,
		Availability: w.Availability * scale,
		Fairness:     w.Fairness * scale,
		Preference:   w.Preference * scale,
		Continuity:   w.Continuity * scale,
	}
}

// Breakdown holds each factor's credit in [0,1] and the weighted total
type Breakdown struct {
	SkillMatch   float64
	Availability float64
	Fairness     float64
	Preference   float64
	Continuity   float64
	Total        float64
}

// Scorer rates how suitable an employee is for a demand. It is stateless and
// deterministic for identical inputs.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer with the given weights
func NewScorer(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

// Weights returns the scorer's factor weights
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score returns the suitability of employee for demand in [0,100]. working
// holds assignments already made in the current plan; they count towards
// workload alongside the problem's existing assignments.
func (s *Scorer) Score(employee model.Employee, demand model.ShiftDemand, ix *model.Index, working []model.Assignment) float64 {
	return s.Breakdown(employee, demand, ix, working).Total
}

// Breakdown returns per-factor credit for the pair
func (s *Scorer) Breakdown(employee model.Employee, demand model.ShiftDemand, ix *model.Index, working []model.Assignment) Breakdown {
	b := Breakdown{
		SkillMatch:   SkillMatch(employee, demand, ix),
		Availability: Availability(employee, demand, ix),
		Fairness:     Fairness(employee, demand, ix, working),
		Preference:   Preference(employee, demand),
		Continuity:   Continuity(employee, demand, ix, working),
	}
	total := b.SkillMatch*s.weights.SkillMatch +
		b.Availability*s.weights.Availability +
		b.Fairness*s.weights.Fairness +
		b.Preference*s.weights.Preference +
		b.Continuity*s.weights.Continuity
	b.Total = clamp(total, 0, 100)
	return b
}

// SkillMatch averages per-skill credit over the station's required skills.
// Meeting the minimum earns 0.8, each extra level 0.1, capped at 1. Mandatory
// skills count double.
func SkillMatch(employee model.Employee, demand model.ShiftDemand, ix *model.Index) float64 {
	station, ok := ix.Station(demand.StationID)
	if !ok {
		return 0
	}
	if len(station.RequiredSkills) == 0 {
		return 1
	}

	var credit, weight float64
	for _, rs := range station.RequiredSkills {
		w := 1.0
		if rs.Mandatory {
			w = 2
		}
		weight += w

		level, held := ix.SkillLevel(employee.ID, rs.SkillID, demand.Date)
		if !held || level < rs.MinLevel {
			continue
		}
		credit += w * math.Min(1, baseSkillCredit+skillCreditPerLevel*float64(level-rs.MinLevel))
	}
	return credit / weight
}

// Availability is 1 unless the employee is inactive, absent or unqualified
func Availability(employee model.Employee, demand model.ShiftDemand, ix *model.Index) float64 {
	if !employee.Active || ix.IsAbsent(employee.ID, demand.Date) || !ix.Qualifies(employee.ID, demand) {
		return 0
	}
	return 1
}

// Fairness favours employees with a light week: 1 - WeekHours/40, clamped
func Fairness(employee model.Employee, demand model.ShiftDemand, ix *model.Index, working []model.Assignment) float64 {
	hours := WeekHours(employee.ID, demand, ix, working)
	return clamp(1-hours/FairnessBaselineHours, 0, 1)
}

// Preference is 1 for a preferred station, 0.5 for only a preferred shift
func Preference(employee model.Employee, demand model.ShiftDemand) float64 {
	switch {
	case employee.PrefersStation(demand.StationID):
		return 1
	case employee.PrefersShift(demand.ShiftTemplateID):
		return preferredShiftValue
	default:
		return 0
	}
}

// Continuity grows by 0.2 per prior assignment of the employee at the station
func Continuity(employee model.Employee, demand model.ShiftDemand, ix *model.Index, working []model.Assignment) float64 {
	count := 0
	for _, a := range allAssignments(ix, working) {
		if a.EmployeeID != employee.ID || a.DemandID == demand.ID {
			continue
		}
		d, ok := ix.Demand(a.DemandID)
		if ok && d.StationID == demand.StationID {
			count++
		}
	}
	return math.Min(1, continuityPerShift*float64(count))
}

// WeekHours sums the employee's hours in the ISO week of demand, excluding
// any assignment to demand itself.
func WeekHours(employeeID string, demand model.ShiftDemand, ix *model.Index, working []model.Assignment) float64 {
	week, ok := isoWeek(demand.Date)
	if !ok {
		return 0
	}
	var hours float64
	for _, a := range allAssignments(ix, working) {
		if a.EmployeeID != employeeID || a.DemandID == demand.ID {
			continue
		}
		d, ok := ix.Demand(a.DemandID)
		if !ok {
			continue
		}
		if w, ok := isoWeek(d.Date); ok && w == week {
			hours += ix.DemandHours(d)
		}
	}
	return hours
}

// AggregateScore is the optimizer objective: mean assignment score plus a
// coverage bonus of 20 x assignments/demands.
func AggregateScore(assignments []model.Assignment, demandCount int) float64 {
	active := model.ActiveAssignments(assignments)
	if len(active) == 0 {
		return 0
	}
	scores := make([]float64, len(active))
	for i, a := range active {
		scores[i] = a.Score
	}
	mean := stat.Mean(scores, nil)
	if demandCount <= 0 {
		return mean
	}
	return mean + CoverageBonus*float64(len(active))/float64(demandCount)
}

// allAssignments merges working assignments with existing ones not superseded by id
func allAssignments(ix *model.Index, working []model.Assignment) []model.Assignment {
	existing := ix.ExistingActive()
	if len(working) == 0 {
		return existing
	}
	ids := make(map[string]bool, len(working))
	out := make([]model.Assignment, 0, len(working)+len(existing))
	for _, a := range working {
		if a.IsActive() {
			ids[a.ID] = true
			out = append(out, a)
		}
	}
	for _, a := range existing {
		if !ids[a.ID] {
			out = append(out, a)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
