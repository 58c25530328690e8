// Package modeltest builds scheduling problems for tests.
package modeltest

import (
	"fmt"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
)

// Template ids registered by NewProblem
const (
	Early = "early"
	Late  = "late"
	Night = "night"
)

// Builder accumulates entities into a SchedulingProblem
type Builder struct {
	p model.SchedulingProblem
}

// NewProblem returns a builder for a one-week horizon starting Monday 2024-01-01
// with early (06:00-14:00), late (14:00-22:00) and night (22:00-06:00) templates.
func NewProblem() *Builder {
	return &Builder{p: model.SchedulingProblem{
		Context: model.ProblemContext{
			DateRange: model.DateRange{Start: "2024-01-01", End: "2024-01-07"},
			ShiftTemplates: []model.ShiftTemplate{
				{ID: Early, Name: "Early", StartTime: "06:00", EndTime: "14:00"},
				{ID: Late, Name: "Late", StartTime: "14:00", EndTime: "22:00"},
				{ID: Night, Name: "Night", StartTime: "22:00", EndTime: "06:00"},
			},
		},
	}}
}

// Skill registers a skill with a 1-5 level scale
func (b *Builder) Skill(id string) *Builder {
	b.p.Context.Skills = append(b.p.Context.Skills, model.Skill{ID: id, Name: id, LevelScale: 5, Category: "general"})
	return b
}

// Station registers a station requiring the given skills
func (b *Builder) Station(id, name string, priority model.Priority, skills ...model.RequiredSkill) *Builder {
	b.p.Context.Stations = append(b.p.Context.Stations, model.Station{
		ID:             id,
		Name:           name,
		Priority:       priority,
		RequiredSkills: skills,
	})
	return b
}

// Mandatory is a shorthand for a mandatory required skill
func Mandatory(skillID string, minLevel int) model.RequiredSkill {
	return model.RequiredSkill{SkillID: skillID, MinLevel: minLevel, Count: 1, Mandatory: true}
}

// Optional is a shorthand for an optional required skill
func Optional(skillID string, minLevel int) model.RequiredSkill {
	return model.RequiredSkill{SkillID: skillID, MinLevel: minLevel, Count: 1}
}

// Employee registers an active full-time employee; opts can adjust it
func (b *Builder) Employee(id string, opts ...func(*model.Employee)) *Builder {
	e := model.Employee{
		ID:             id,
		Name:           "Employee " + id,
		Active:         true,
		ContractType:   "full_time",
		WeeklyHours:    40,
		MaxHoursPerDay: 10,
		MinRestHours:   11,
	}
	for _, opt := range opts {
		opt(&e)
	}
	b.p.Employees = append(b.p.Employees, e)
	return b
}

// Inactive marks an employee inactive
func Inactive(e *model.Employee) { e.Active = false }

// Prefers sets an employee's preferred stations
func Prefers(stationIDs ...string) func(*model.Employee) {
	return func(e *model.Employee) { e.Preferences.PreferredStations = stationIDs }
}

// Holds gives an employee a skill at a level
func (b *Builder) Holds(employeeID, skillID string, level int) *Builder {
	b.p.Context.EmployeeSkills = append(b.p.Context.EmployeeSkills, model.EmployeeSkill{
		EmployeeID: employeeID,
		SkillID:    skillID,
		Level:      level,
	})
	return b
}

// HoldsUntil gives an employee a skill that expires on expiresOn
func (b *Builder) HoldsUntil(employeeID, skillID string, level int, expiresOn string) *Builder {
	b.p.Context.EmployeeSkills = append(b.p.Context.EmployeeSkills, model.EmployeeSkill{
		EmployeeID: employeeID,
		SkillID:    skillID,
		Level:      level,
		ExpiresOn:  expiresOn,
	})
	return b
}

// Demand registers a demand
func (b *Builder) Demand(id, date, stationID, templateID string, count int, priority model.Priority) *Builder {
	b.p.Demands = append(b.p.Demands, model.ShiftDemand{
		ID:              id,
		Date:            date,
		StationID:       stationID,
		ShiftTemplateID: templateID,
		RequiredCount:   count,
		Priority:        priority,
	})
	return b
}

// Absence registers an approved absence
func (b *Builder) Absence(employeeID, absenceType, from, to string) *Builder {
	b.p.Context.Absences = append(b.p.Context.Absences, model.Absence{
		ID:         fmt.Sprintf("abs-%s-%s", employeeID, from),
		EmployeeID: employeeID,
		Type:       absenceType,
		StartDate:  from,
		EndDate:    to,
		Approved:   true,
	})
	return b
}

// Constraint adds a constraint spec
func (b *Builder) Constraint(spec model.ConstraintSpec) *Builder {
	b.p.Constraints = append(b.p.Constraints, spec)
	return b
}

// Existing adds an existing assignment to the context
func (b *Builder) Existing(a model.Assignment) *Builder {
	b.p.Context.ExistingAssignments = append(b.p.Context.ExistingAssignments, a)
	return b
}

// Build returns the assembled problem
func (b *Builder) Build() *model.SchedulingProblem {
	p := b.p
	return &p
}

// Assignment builds a PROPOSED assignment and panics on invalid input
func Assignment(id, demandID, employeeID string, score float64) model.Assignment {
	a, err := model.NewAssignment(model.AssignmentParams{
		ID:          id,
		DemandID:    demandID,
		EmployeeID:  employeeID,
		Score:       score,
		Explanation: "fixture assignment",
		CreatedBy:   "test",
	})
	if err != nil {
		panic(err)
	}
	return a
}
