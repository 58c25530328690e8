package simulation

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
)

var ErrUnknownModification = errors.New("unknown modification type")

// ModificationType names a what-if change to a scheduling problem
type ModificationType string

const (
	AddAbsence         ModificationType = "add_absence"
	RemoveAbsence      ModificationType = "remove_absence"
	ChangeDemand       ModificationType = "change_demand"
	AddDemand          ModificationType = "add_demand"
	RemoveDemand       ModificationType = "remove_demand"
	DeactivateEmployee ModificationType = "deactivate_employee"
)

// DefaultAbsenceType is used by add_absence when no type parameter is given
const DefaultAbsenceType = "SICK"

// Modification is one change applied to the modified run of a scenario.
// EntityID names the employee (add_absence, deactivate_employee), absence
// (remove_absence) or demand (change_demand, add_demand, remove_demand).
type Modification struct {
	Type       ModificationType `yaml:"type" json:"type" validate:"required,oneof=add_absence remove_absence change_demand add_demand remove_demand deactivate_employee"`
	EntityID   string           `yaml:"entityId" json:"entityId" validate:"required"`
	Parameters map[string]any   `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// WhatIfScenario is a named list of modifications. BaseDate is the default
// date for modifications that do not name one.
type WhatIfScenario struct {
	Name          string         `yaml:"name" json:"name" validate:"required"`
	BaseDate      string         `yaml:"baseDate,omitempty" json:"baseDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Modifications []Modification `yaml:"modifications" json:"modifications" validate:"dive"`
}

// Validate checks the scenario's struct tags
func (s WhatIfScenario) Validate() error {
	return model.ValidateStruct("scenario", s.Name, s)
}

// Apply returns a copy of problem with the scenario's modifications applied in order
func (s WhatIfScenario) Apply(problem *model.SchedulingProblem) (*model.SchedulingProblem, error) {
	modified := problem.Clone()
	for i, m := range s.Modifications {
		if err := s.apply(modified, m, i); err != nil {
			return nil, fmt.Errorf("failed to apply modification %d (%s %s): %w", i, m.Type, m.EntityID, err)
		}
	}
	return modified, nil
}

func (s WhatIfScenario) apply(p *model.SchedulingProblem, m Modification, n int) error {
	switch m.Type {
	case AddAbsence:
		if !slices.ContainsFunc(p.Employees, func(e model.Employee) bool { return e.ID == m.EntityID }) {
			return fmt.Errorf("employee %s: %w", m.EntityID, model.ErrNotFound)
		}
		start := m.stringParam("startDate", s.BaseDate)
		if start == "" {
			return fmt.Errorf("startDate is required without a scenario baseDate")
		}
		p.Context.Absences = append(p.Context.Absences, model.Absence{
			ID:         fmt.Sprintf("%s-absence-%d", s.Name, n),
			EmployeeID: m.EntityID,
			Type:       m.stringParam("type", DefaultAbsenceType),
			StartDate:  start,
			EndDate:    m.stringParam("endDate", start),
			Approved:   true,
		})

	case RemoveAbsence:
		// entityId names the absence, or for absences without an id, the
		// employee whose absence starts on startDate
		if i := slices.IndexFunc(p.Context.Absences, func(a model.Absence) bool { return a.ID != "" && a.ID == m.EntityID }); i >= 0 {
			p.Context.Absences = slices.Delete(p.Context.Absences, i, i+1)
			break
		}
		start := m.stringParam("startDate", s.BaseDate)
		before := len(p.Context.Absences)
		if start != "" {
			p.Context.Absences = slices.DeleteFunc(p.Context.Absences, func(a model.Absence) bool {
				return a.EmployeeID == m.EntityID && a.StartDate == start
			})
		}
		if len(p.Context.Absences) == before {
			return fmt.Errorf("absence %s: %w", m.EntityID, model.ErrNotFound)
		}

	case ChangeDemand:
		i := slices.IndexFunc(p.Demands, func(d model.ShiftDemand) bool { return d.ID == m.EntityID })
		if i < 0 {
			return fmt.Errorf("demand %s: %w", m.EntityID, model.ErrNotFound)
		}
		d := &p.Demands[i]
		count, err := m.intParam("requiredCount", d.RequiredCount)
		if err != nil {
			return err
		}
		d.RequiredCount = count
		if err := m.priorityParam(&d.Priority); err != nil {
			return err
		}
		d.Date = m.stringParam("date", d.Date)
		d.StationID = m.stringParam("stationId", d.StationID)
		d.ShiftTemplateID = m.stringParam("shiftTemplateId", d.ShiftTemplateID)

	case AddDemand:
		if slices.ContainsFunc(p.Demands, func(d model.ShiftDemand) bool { return d.ID == m.EntityID }) {
			return fmt.Errorf("demand %s already exists", m.EntityID)
		}
		count, err := m.intParam("requiredCount", 1)
		if err != nil {
			return err
		}
		d := model.ShiftDemand{
			ID:              m.EntityID,
			Date:            m.stringParam("date", s.BaseDate),
			StationID:       m.stringParam("stationId", ""),
			ShiftTemplateID: m.stringParam("shiftTemplateId", ""),
			RequiredCount:   count,
			Priority:        model.PriorityMedium,
		}
		if err := m.priorityParam(&d.Priority); err != nil {
			return err
		}
		p.Demands = append(p.Demands, d)

	case RemoveDemand:
		i := slices.IndexFunc(p.Demands, func(d model.ShiftDemand) bool { return d.ID == m.EntityID })
		if i < 0 {
			return fmt.Errorf("demand %s: %w", m.EntityID, model.ErrNotFound)
		}
		p.Demands = slices.Delete(p.Demands, i, i+1)

	case DeactivateEmployee:
		i := slices.IndexFunc(p.Employees, func(e model.Employee) bool { return e.ID == m.EntityID })
		if i < 0 {
			return fmt.Errorf("employee %s: %w", m.EntityID, model.ErrNotFound)
		}
		p.Employees[i].Active = false

	default:
		return fmt.Errorf("%w: %q", ErrUnknownModification, m.Type)
	}
	return nil
}

func (m Modification) stringParam(key, fallback string) string {
	v, ok := m.Parameters[key]
	if !ok || v == nil {
		return fallback
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// intParam accepts YAML integers, JSON numbers and numeric strings
func (m Modification) intParam(key string, fallback int) (int, error) {
	v, ok := m.Parameters[key]
	if !ok || v == nil {
		return fallback, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("parameter %s must be a whole number, got %v", key, n)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("parameter %s: %w", key, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("parameter %s must be a number, got %T", key, v)
	}
}

func (m Modification) priorityParam(dst *model.Priority) error {
	raw := m.stringParam("priority", "")
	if raw == "" {
		return nil
	}
	p, err := model.ParsePriority(raw)
	if err != nil {
		return err
	}
	*dst = p
	return nil
}
