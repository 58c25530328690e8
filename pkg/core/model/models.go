package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the layout used for every date string in a scheduling problem
const DateLayout = "2006-01-02"

// Defaults applied when an employee leaves a limit unset
const (
	DefaultWeeklyHours    = 40.0
	DefaultMaxHoursPerDay = 10.0
	DefaultMinRestHours   = 11.0
)

// Priority is the criticality tier of a station, demand or gap
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// Weight returns the numeric rank of the priority (LOW=1 .. CRITICAL=4).
// Unknown priorities rank below LOW.
func (p Priority) Weight() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityCritical:
		return 4
	default:
		return 0
	}
}

// ParsePriority converts a case-insensitive string into a Priority
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if p.Weight() == 0 {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}

// Preferences holds an employee's soft scheduling wishes
type Preferences struct {
	PreferredStations  []string `yaml:"preferredStations,omitempty" json:"preferredStations,omitempty"`
	PreferredShifts    []string `yaml:"preferredShifts,omitempty" json:"preferredShifts,omitempty"`
	MaxConsecutiveDays int      `yaml:"maxConsecutiveDays,omitempty" json:"maxConsecutiveDays,omitempty" validate:"min=0"`
}

// Employee is read-only to the planning core
type Employee struct {
	ID             string      `yaml:"id" json:"id" validate:"required"`
	Name           string      `yaml:"name" json:"name"`
	Active         bool        `yaml:"active" json:"active"`
	ContractType   string      `yaml:"contractType,omitempty" json:"contractType,omitempty"`
	WeeklyHours    float64     `yaml:"weeklyHours,omitempty" json:"weeklyHours,omitempty" validate:"min=0"`
	MaxHoursPerDay float64     `yaml:"maxHoursPerDay,omitempty" json:"maxHoursPerDay,omitempty" validate:"min=0,max=24"`
	MinRestHours   float64     `yaml:"minRestHours,omitempty" json:"minRestHours,omitempty" validate:"min=0,max=24"`
	Team           string      `yaml:"team,omitempty" json:"team,omitempty"`
	Preferences    Preferences `yaml:"preferences,omitempty" json:"preferences,omitempty"`
}

// ContractHours returns the contracted weekly hours, defaulting to 40
func (e Employee) ContractHours() float64 {
	if e.WeeklyHours <= 0 {
		return DefaultWeeklyHours
	}
	return e.WeeklyHours
}

// DailyLimit returns the maximum hours the employee may work on one date
func (e Employee) DailyLimit() float64 {
	if e.MaxHoursPerDay <= 0 {
		return DefaultMaxHoursPerDay
	}
	return e.MaxHoursPerDay
}

// RestHours returns the minimum rest between two shifts
func (e Employee) RestHours() float64 {
	if e.MinRestHours <= 0 {
		return DefaultMinRestHours
	}
	return e.MinRestHours
}

// PrefersStation reports whether stationID is in the employee's preferred stations
func (e Employee) PrefersStation(stationID string) bool {
	for _, s := range e.Preferences.PreferredStations {
		if s == stationID {
			return true
		}
	}
	return false
}

// PrefersShift reports whether templateID is in the employee's preferred shifts
func (e Employee) PrefersShift(templateID string) bool {
	for _, s := range e.Preferences.PreferredShifts {
		if s == templateID {
			return true
		}
	}
	return false
}

// Skill is a qualification an employee can hold at a level up to LevelScale
type Skill struct {
	ID         string `yaml:"id" json:"id" validate:"required"`
	Name       string `yaml:"name,omitempty" json:"name,omitempty"`
	LevelScale int    `yaml:"levelScale" json:"levelScale" validate:"min=1"`
	Category   string `yaml:"category,omitempty" json:"category,omitempty"`
}

// EmployeeSkill links an employee to a skill. ExpiresOn is optional; a link
// past its expiry date is treated as if it did not exist.
type EmployeeSkill struct {
	EmployeeID string `yaml:"employeeId" json:"employeeId" validate:"required"`
	SkillID    string `yaml:"skillId" json:"skillId" validate:"required"`
	Level      int    `yaml:"level" json:"level" validate:"min=1"`
	ExpiresOn  string `yaml:"expiresOn,omitempty" json:"expiresOn,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// IsValidOn reports whether the link is unexpired on the given date
func (s EmployeeSkill) IsValidOn(date string) bool {
	return s.ExpiresOn == "" || date <= s.ExpiresOn
}

// RequiredSkill is one skill requirement of a station
type RequiredSkill struct {
	SkillID   string `yaml:"skillId" json:"skillId" validate:"required"`
	MinLevel  int    `yaml:"minLevel" json:"minLevel" validate:"min=1"`
	Count     int    `yaml:"count,omitempty" json:"count,omitempty" validate:"min=0"`
	Mandatory bool   `yaml:"mandatory" json:"mandatory"`
}

// Station is a place where demands are staffed
type Station struct {
	ID             string          `yaml:"id" json:"id" validate:"required"`
	Name           string          `yaml:"name" json:"name"`
	Priority       Priority        `yaml:"priority" json:"priority" validate:"oneof=LOW MEDIUM HIGH CRITICAL"`
	RequiredSkills []RequiredSkill `yaml:"requiredSkills" json:"requiredSkills" validate:"dive"`
}

// Validate checks the station invariants: at least one required skill, no
// duplicate skill ids, and at least one mandatory skill on CRITICAL stations.
func (s Station) Validate() error {
	if len(s.RequiredSkills) == 0 {
		return &ValidationError{Entity: "station", ID: s.ID, Field: "requiredSkills", Message: "at least one required skill is needed"}
	}
	seen := make(map[string]bool, len(s.RequiredSkills))
	hasMandatory := false
	for _, rs := range s.RequiredSkills {
		if seen[rs.SkillID] {
			return &ValidationError{Entity: "station", ID: s.ID, Field: "requiredSkills", Message: fmt.Sprintf("duplicate skill %q", rs.SkillID)}
		}
		seen[rs.SkillID] = true
		if rs.Mandatory {
			hasMandatory = true
		}
	}
	if s.Priority == PriorityCritical && !hasMandatory {
		return &ValidationError{Entity: "station", ID: s.ID, Field: "requiredSkills", Message: "critical stations need at least one mandatory skill"}
	}
	return nil
}

// BreakRule is an unpaid break inside a shift
type BreakRule struct {
	DurationMinutes int `yaml:"durationMinutes" json:"durationMinutes" validate:"min=0"`
}

// ShiftTemplate describes a shift's clock times. EndTime before or equal to
// StartTime means the shift ends on the following day.
type ShiftTemplate struct {
	ID        string      `yaml:"id" json:"id" validate:"required"`
	Name      string      `yaml:"name,omitempty" json:"name,omitempty"`
	StartTime string      `yaml:"startTime" json:"startTime" validate:"required,datetime=15:04"`
	EndTime   string      `yaml:"endTime" json:"endTime" validate:"required,datetime=15:04"`
	Breaks    []BreakRule `yaml:"breaks,omitempty" json:"breaks,omitempty" validate:"dive"`
}

// Window returns the start and end instants of the shift on the given date
func (t ShiftTemplate) Window(date string) (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayout+" 15:04", date+" "+t.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid shift start %q on %s: %w", t.StartTime, date, err)
	}
	end, err := time.Parse(DateLayout+" 15:04", date+" "+t.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid shift end %q on %s: %w", t.EndTime, date, err)
	}
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}
	return start, end, nil
}

// DurationHours returns the paid length of the shift, breaks excluded
func (t ShiftTemplate) DurationHours() float64 {
	start, end, err := t.Window("2000-01-01")
	if err != nil {
		return 0
	}
	worked := end.Sub(start)
	for _, b := range t.Breaks {
		worked -= time.Duration(b.DurationMinutes) * time.Minute
	}
	if worked < 0 {
		return 0
	}
	return worked.Hours()
}

// Label renders the template as "HH:MM-HH:MM"
func (t ShiftTemplate) Label() string {
	return t.StartTime + "-" + t.EndTime
}

// ShiftDemand asks for RequiredCount employees at a station during a shift on a date
type ShiftDemand struct {
	ID              string   `yaml:"id" json:"id" validate:"required"`
	Date            string   `yaml:"date" json:"date" validate:"required,datetime=2006-01-02"`
	StationID       string   `yaml:"stationId" json:"stationId" validate:"required"`
	ShiftTemplateID string   `yaml:"shiftTemplateId" json:"shiftTemplateId" validate:"required"`
	RequiredCount   int      `yaml:"requiredCount" json:"requiredCount" validate:"min=1"`
	Priority        Priority `yaml:"priority" json:"priority" validate:"oneof=LOW MEDIUM HIGH CRITICAL"`
}

// Absence makes an employee unavailable between StartDate and EndDate inclusive
// once it is approved.
type Absence struct {
	ID         string `yaml:"id,omitempty" json:"id,omitempty"`
	EmployeeID string `yaml:"employeeId" json:"employeeId" validate:"required"`
	Type       string `yaml:"type" json:"type"`
	StartDate  string `yaml:"startDate" json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate    string `yaml:"endDate" json:"endDate" validate:"required,datetime=2006-01-02"`
	Approved   bool   `yaml:"approved" json:"approved"`
}

// Covers reports whether the absence spans the given date
func (a Absence) Covers(date string) bool {
	return a.StartDate <= date && date <= a.EndDate
}

// DateRange bounds the planning horizon (inclusive)
type DateRange struct {
	Start string `yaml:"start" json:"start" validate:"required,datetime=2006-01-02"`
	End   string `yaml:"end" json:"end" validate:"required,datetime=2006-01-02"`
}

// Contains reports whether date lies inside the range
func (r DateRange) Contains(date string) bool {
	return r.Start <= date && date <= r.End
}
