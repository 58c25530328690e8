package explanation

import (
	"fmt"
	"sort"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/constraints"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/scoring"
)

// BuildContext gathers the explanation context for assignment a within plan.
// Every other employee not already on the demand is scored as an alternative
// against the plan without a; the topN best are kept.
func BuildContext(ix *model.Index, scorer *scoring.Scorer, manager *constraints.Manager, a model.Assignment, plan []model.Assignment, topN int) (Context, error) {
	demand, ok := ix.Demand(a.DemandID)
	if !ok {
		return Context{}, fmt.Errorf("demand %s: %w", a.DemandID, model.ErrNotFound)
	}
	employee, ok := ix.Employee(a.EmployeeID)
	if !ok {
		return Context{}, fmt.Errorf("employee %s: %w", a.EmployeeID, model.ErrNotFound)
	}
	if topN <= 0 {
		topN = MaxAlternatives
	}

	c := Context{
		Assignment:  a,
		Employee:    employee,
		Demand:      demand,
		StationName: ix.StationName(demand.StationID),
		ShiftLabel:  ix.ShiftLabel(demand),
		HeldSkills:  make(map[string]int),
	}
	if station, ok := ix.Station(demand.StationID); ok {
		c.RequiredSkills = station.RequiredSkills
		for _, rs := range station.RequiredSkills {
			if level, held := ix.SkillLevel(employee.ID, rs.SkillID, demand.Date); held {
				c.HeldSkills[rs.SkillID] = level
			}
		}
	}

	withA := plan
	if !containsID(plan, a.ID) {
		withA = append(append([]model.Assignment(nil), plan...), a)
	}
	c.Violations = constraints.ForAssignment(manager.ValidateAssignments(withA, ix), a)

	others := make([]model.Assignment, 0, len(plan))
	onDemand := map[string]bool{employee.ID: true}
	for _, p := range plan {
		if p.ID == a.ID {
			continue
		}
		others = append(others, p)
		if p.IsActive() && p.DemandID == demand.ID {
			onDemand[p.EmployeeID] = true
		}
	}
	c.WeekHours = scoring.WeekHours(employee.ID, demand, ix, others)
	c.PriorShiftsAtStation = priorShifts(ix, others, employee.ID, demand)

	var candidates []Candidate
	for _, e := range ix.Problem().Employees {
		if onDemand[e.ID] {
			continue
		}
		candidates = append(candidates, candidateFor(ix, scorer, manager, a, e, demand, others))
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Employee.ID < candidates[j].Employee.ID
	})

	c.CandidatesConsidered = len(candidates)
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	c.Alternatives = candidates
	return c, nil
}

func candidateFor(ix *model.Index, scorer *scoring.Scorer, manager *constraints.Manager, a model.Assignment, e model.Employee, demand model.ShiftDemand, others []model.Assignment) Candidate {
	cand := Candidate{
		Employee: e,
		Score:    scorer.Score(e, demand, ix, others),
	}

	switch {
	case !e.Active:
		cand.Unavailable, cand.UnavailableReason = true, "employee is inactive"
	case ix.IsAbsent(e.ID, demand.Date):
		absence, _ := ix.AbsenceOn(e.ID, demand.Date)
		cand.Unavailable, cand.UnavailableReason = true, fmt.Sprintf("absent (%s) on %s", absence.Type, demand.Date)
	default:
		if station, ok := ix.Station(demand.StationID); ok {
			if missing := ix.MissingMandatorySkills(e.ID, station, demand.Date); len(missing) > 0 {
				cand.Unavailable = true
				cand.UnavailableReason = fmt.Sprintf("lacks mandatory skill %s at level %d", missing[0].SkillID, missing[0].MinLevel)
			}
		}
	}

	trial := a
	trial.EmployeeID = e.ID
	trial.Status = model.StatusProposed
	set := append(append(make([]model.Assignment, 0, len(others)+1), others...), trial)
	cand.Violations = constraints.Blocking(constraints.ForAssignment(manager.ValidateAssignments(set, ix), trial))
	return cand
}

// priorShifts counts the employee's other active assignments at the demand's station
func priorShifts(ix *model.Index, others []model.Assignment, employeeID string, demand model.ShiftDemand) int {
	seen := make(map[string]bool)
	count := 0
	for _, set := range [][]model.Assignment{others, ix.ExistingActive()} {
		for _, a := range set {
			if seen[a.ID] || !a.IsActive() || a.EmployeeID != employeeID || a.DemandID == demand.ID {
				continue
			}
			seen[a.ID] = true
			if d, ok := ix.Demand(a.DemandID); ok && d.StationID == demand.StationID {
				count++
			}
		}
	}
	return count
}

func containsID(assignments []model.Assignment, id string) bool {
	for _, a := range assignments {
		if a.ID == id {
			return true
		}
	}
	return false
}
