package model

import "time"

// Index provides read-only lookups over a SchedulingProblem. Missing ids
// return ok=false so callers can degrade instead of failing.
type Index struct {
	problem        *SchedulingProblem
	employees      map[string]Employee
	stations       map[string]Station
	templates      map[string]ShiftTemplate
	demands        map[string]ShiftDemand
	skills         map[string]Skill
	employeeSkills map[string][]EmployeeSkill
	absences       map[string][]Absence
}

// NewIndex builds lookup tables for the problem. Only approved absences are indexed.
func NewIndex(p *SchedulingProblem) *Index {
	ix := &Index{
		problem:        p,
		employees:      make(map[string]Employee, len(p.Employees)),
		stations:       make(map[string]Station, len(p.Context.Stations)),
		templates:      make(map[string]ShiftTemplate, len(p.Context.ShiftTemplates)),
		demands:        make(map[string]ShiftDemand, len(p.Demands)+len(p.Context.HistoricalDemands)),
		skills:         make(map[string]Skill, len(p.Context.Skills)),
		employeeSkills: make(map[string][]EmployeeSkill),
		absences:       make(map[string][]Absence),
	}
	for _, e := range p.Employees {
		ix.employees[e.ID] = e
	}
	for _, s := range p.Context.Stations {
		ix.stations[s.ID] = s
	}
	for _, t := range p.Context.ShiftTemplates {
		ix.templates[t.ID] = t
	}
	// Historical demands resolve existing assignments outside the horizon
	for _, d := range p.Context.HistoricalDemands {
		ix.demands[d.ID] = d
	}
	for _, d := range p.Demands {
		ix.demands[d.ID] = d
	}
	for _, s := range p.Context.Skills {
		ix.skills[s.ID] = s
	}
	for _, es := range p.Context.EmployeeSkills {
		ix.employeeSkills[es.EmployeeID] = append(ix.employeeSkills[es.EmployeeID], es)
	}
	for _, a := range p.Context.Absences {
		if a.Approved {
			ix.absences[a.EmployeeID] = append(ix.absences[a.EmployeeID], a)
		}
	}
	return ix
}

// Problem returns the indexed problem
func (ix *Index) Problem() *SchedulingProblem { return ix.problem }

// ExistingActive returns the problem's existing assignments that are not rejected
func (ix *Index) ExistingActive() []Assignment {
	return ActiveAssignments(ix.problem.Context.ExistingAssignments)
}

// ExistingCount returns how many active existing assignments cover the demand
func (ix *Index) ExistingCount(demandID string) int {
	n := 0
	for _, a := range ix.problem.Context.ExistingAssignments {
		if a.IsActive() && a.DemandID == demandID {
			n++
		}
	}
	return n
}

func (ix *Index) Employee(id string) (Employee, bool) {
	e, ok := ix.employees[id]
	return e, ok
}

func (ix *Index) Station(id string) (Station, bool) {
	s, ok := ix.stations[id]
	return s, ok
}

func (ix *Index) Template(id string) (ShiftTemplate, bool) {
	t, ok := ix.templates[id]
	return t, ok
}

func (ix *Index) Demand(id string) (ShiftDemand, bool) {
	d, ok := ix.demands[id]
	return d, ok
}

func (ix *Index) Skill(id string) (Skill, bool) {
	s, ok := ix.skills[id]
	return s, ok
}

// StationName returns the station's name, or "Unknown Station" for dangling ids
func (ix *Index) StationName(stationID string) string {
	if s, ok := ix.stations[stationID]; ok && s.Name != "" {
		return s.Name
	}
	return UnknownStation
}

// UnknownStation is the placeholder name used for dangling station ids
const UnknownStation = "Unknown Station"

// SkillLevel returns the highest unexpired level the employee holds on date
func (ix *Index) SkillLevel(employeeID, skillID, date string) (int, bool) {
	best, found := 0, false
	for _, es := range ix.employeeSkills[employeeID] {
		if es.SkillID != skillID || !es.IsValidOn(date) {
			continue
		}
		if !found || es.Level > best {
			best, found = es.Level, true
		}
	}
	return best, found
}

// MissingMandatorySkills lists the mandatory skills of the station the employee
// does not hold at the minimum level on date.
func (ix *Index) MissingMandatorySkills(employeeID string, station Station, date string) []RequiredSkill {
	var missing []RequiredSkill
	for _, rs := range station.RequiredSkills {
		if !rs.Mandatory {
			continue
		}
		level, ok := ix.SkillLevel(employeeID, rs.SkillID, date)
		if !ok || level < rs.MinLevel {
			missing = append(missing, rs)
		}
	}
	return missing
}

// Qualifies reports whether the employee meets every mandatory skill for the demand
func (ix *Index) Qualifies(employeeID string, demand ShiftDemand) bool {
	station, ok := ix.stations[demand.StationID]
	if !ok {
		return false
	}
	return len(ix.MissingMandatorySkills(employeeID, station, demand.Date)) == 0
}

// AbsenceOn returns the approved absence covering date, if any
func (ix *Index) AbsenceOn(employeeID, date string) (Absence, bool) {
	for _, a := range ix.absences[employeeID] {
		if a.Covers(date) {
			return a, true
		}
	}
	return Absence{}, false
}

// IsAbsent reports whether an approved absence covers date
func (ix *Index) IsAbsent(employeeID, date string) bool {
	_, ok := ix.AbsenceOn(employeeID, date)
	return ok
}

// ShiftWindow returns the demand's start and end instants
func (ix *Index) ShiftWindow(d ShiftDemand) (time.Time, time.Time, bool) {
	t, ok := ix.templates[d.ShiftTemplateID]
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	start, end, err := t.Window(d.Date)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// DemandHours returns the paid hours of the demand's shift
func (ix *Index) DemandHours(d ShiftDemand) float64 {
	t, ok := ix.templates[d.ShiftTemplateID]
	if !ok {
		return 0
	}
	return t.DurationHours()
}

// ShiftLabel renders the demand's shift as "YYYY-MM-DD HH:MM-HH:MM"
func (ix *Index) ShiftLabel(d ShiftDemand) string {
	t, ok := ix.templates[d.ShiftTemplateID]
	if !ok {
		return d.Date
	}
	return d.Date + " " + t.Label()
}

// Conflicts reports whether two active assignments put the same employee
// on overlapping shift windows.
func (ix *Index) Conflicts(a, b Assignment) bool {
	if a.ID == b.ID || a.EmployeeID != b.EmployeeID || !a.IsActive() || !b.IsActive() {
		return false
	}
	if a.DemandID == b.DemandID {
		return true
	}
	da, okA := ix.demands[a.DemandID]
	db, okB := ix.demands[b.DemandID]
	if !okA || !okB {
		return false
	}
	startA, endA, okA := ix.ShiftWindow(da)
	startB, endB, okB := ix.ShiftWindow(db)
	if !okA || !okB {
		return false
	}
	return startA.Before(endB) && startB.Before(endA)
}
