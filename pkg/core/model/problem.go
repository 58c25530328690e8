package model

import "slices"

// Severity of a constraint violation. Error and critical violations block a
// candidate set; warnings are only reported.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// IsBlocking reports whether the severity rejects a candidate set
func (s Severity) IsBlocking() bool {
	return s == SeverityError || s == SeverityCritical
}

// ConstraintKind identifies a scheduling rule
type ConstraintKind string

const (
	ConstraintSkillMatching      ConstraintKind = "skill_matching"
	ConstraintAbsenceConflict    ConstraintKind = "absence_conflict"
	ConstraintDoubleBooking      ConstraintKind = "double_booking"
	ConstraintMaxHoursPerDay     ConstraintKind = "max_hours_per_day"
	ConstraintMaxHoursPerWeek    ConstraintKind = "max_hours_per_week"
	ConstraintMinRest            ConstraintKind = "min_rest"
	ConstraintMaxConsecutiveDays ConstraintKind = "max_consecutive_days"
	ConstraintWorkloadFairness   ConstraintKind = "workload_fairness"
)

// ConstraintKinds lists every known kind in evaluation order
var ConstraintKinds = []ConstraintKind{
	ConstraintSkillMatching,
	ConstraintAbsenceConflict,
	ConstraintDoubleBooking,
	ConstraintMaxHoursPerDay,
	ConstraintMaxHoursPerWeek,
	ConstraintMinRest,
	ConstraintMaxConsecutiveDays,
	ConstraintWorkloadFairness,
}

// IsKnown reports whether the kind is one of ConstraintKinds
func (k ConstraintKind) IsKnown() bool {
	return slices.Contains(ConstraintKinds, k)
}

// ConstraintViolation is a reported rule breach. It is a value, not an error.
type ConstraintViolation struct {
	ConstraintID ConstraintKind `yaml:"constraintId" json:"constraintId"`
	Severity     Severity       `yaml:"severity" json:"severity"`
	Message      string         `yaml:"message" json:"message"`
	EmployeeID   string         `yaml:"employeeId,omitempty" json:"employeeId,omitempty"`
	DemandID     string         `yaml:"demandId,omitempty" json:"demandId,omitempty"`
	Date         string         `yaml:"date,omitempty" json:"date,omitempty"`
}

// IsBlocking reports whether the violation rejects a candidate set
func (v ConstraintViolation) IsBlocking() bool {
	return v.Severity.IsBlocking()
}

// ConstraintSpec configures one rule of a problem. Severity overrides the
// rule's default; Params carries numeric thresholds such as maxWeeklyHours.
type ConstraintSpec struct {
	Kind     ConstraintKind     `yaml:"kind" json:"kind" validate:"required"`
	Disabled bool               `yaml:"disabled,omitempty" json:"disabled,omitempty"`
	Severity Severity           `yaml:"severity,omitempty" json:"severity,omitempty" validate:"omitempty,oneof=warning error critical"`
	Params   map[string]float64 `yaml:"params,omitempty" json:"params,omitempty"`
}

// ObjectiveKind names a scoring factor that a problem can re-weight
type ObjectiveKind string

const (
	ObjectiveSkillMatch   ObjectiveKind = "maximize_skill_match"
	ObjectiveAvailability ObjectiveKind = "maximize_availability"
	ObjectiveFairness     ObjectiveKind = "balance_workload"
	ObjectivePreference   ObjectiveKind = "respect_preferences"
	ObjectiveContinuity   ObjectiveKind = "maximize_continuity"
)

// Objective sets the weight of one scoring factor
type Objective struct {
	Kind   ObjectiveKind `yaml:"kind" json:"kind" validate:"required,oneof=maximize_skill_match maximize_availability balance_workload respect_preferences maximize_continuity"`
	Weight float64       `yaml:"weight" json:"weight" validate:"gte=0"`
}

// ProblemContext carries the reference data a problem is solved against
type ProblemContext struct {
	DateRange           DateRange       `yaml:"dateRange" json:"dateRange"`
	ExistingAssignments []Assignment    `yaml:"existingAssignments,omitempty" json:"existingAssignments,omitempty"`
	HistoricalDemands   []ShiftDemand   `yaml:"historicalDemands,omitempty" json:"historicalDemands,omitempty" validate:"dive"`
	Absences            []Absence       `yaml:"absences,omitempty" json:"absences,omitempty" validate:"dive"`
	EmployeeSkills      []EmployeeSkill `yaml:"employeeSkills,omitempty" json:"employeeSkills,omitempty" validate:"dive"`
	Stations            []Station       `yaml:"stations" json:"stations" validate:"dive"`
	ShiftTemplates      []ShiftTemplate `yaml:"shiftTemplates" json:"shiftTemplates" validate:"dive"`
	Skills              []Skill         `yaml:"skills,omitempty" json:"skills,omitempty" validate:"dive"`
}

// SchedulingProblem is the read-only snapshot the core plans against
type SchedulingProblem struct {
	Demands     []ShiftDemand    `yaml:"demands" json:"demands" validate:"dive"`
	Employees   []Employee       `yaml:"employees" json:"employees" validate:"dive"`
	Constraints []ConstraintSpec `yaml:"constraints,omitempty" json:"constraints,omitempty" validate:"dive"`
	Objectives  []Objective      `yaml:"objectives,omitempty" json:"objectives,omitempty" validate:"dive"`
	Context     ProblemContext   `yaml:"context" json:"context"`
}

// Validate checks struct tags, station invariants and constraint kinds
func (p *SchedulingProblem) Validate() error {
	if err := ValidateStruct("problem", "", p); err != nil {
		return err
	}
	for _, s := range p.Context.Stations {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	for _, c := range p.Constraints {
		if !c.Kind.IsKnown() {
			return &ValidationError{Entity: "constraint", ID: string(c.Kind), Field: "kind", Message: "is not a known constraint"}
		}
	}
	return nil
}

// Clone returns a deep copy that can be modified without touching p
func (p *SchedulingProblem) Clone() *SchedulingProblem {
	c := &SchedulingProblem{
		Demands:     slices.Clone(p.Demands),
		Employees:   make([]Employee, len(p.Employees)),
		Constraints: make([]ConstraintSpec, len(p.Constraints)),
		Objectives:  slices.Clone(p.Objectives),
		Context: ProblemContext{
			DateRange:           p.Context.DateRange,
			ExistingAssignments: slices.Clone(p.Context.ExistingAssignments),
			HistoricalDemands:   slices.Clone(p.Context.HistoricalDemands),
			Absences:            slices.Clone(p.Context.Absences),
			EmployeeSkills:      slices.Clone(p.Context.EmployeeSkills),
			Stations:            make([]Station, len(p.Context.Stations)),
			ShiftTemplates:      make([]ShiftTemplate, len(p.Context.ShiftTemplates)),
			Skills:              slices.Clone(p.Context.Skills),
		},
	}
	for i, e := range p.Employees {
		e.Preferences.PreferredStations = slices.Clone(e.Preferences.PreferredStations)
		e.Preferences.PreferredShifts = slices.Clone(e.Preferences.PreferredShifts)
		c.Employees[i] = e
	}
	for i, cs := range p.Constraints {
		if cs.Params != nil {
			params := make(map[string]float64, len(cs.Params))
			for k, v := range cs.Params {
				params[k] = v
			}
			cs.Params = params
		}
		c.Constraints[i] = cs
	}
	for i, s := range p.Context.Stations {
		s.RequiredSkills = slices.Clone(s.RequiredSkills)
		c.Context.Stations[i] = s
	}
	for i, t := range p.Context.ShiftTemplates {
		t.Breaks = slices.Clone(t.Breaks)
		c.Context.ShiftTemplates[i] = t
	}
	return c
}
