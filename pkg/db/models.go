package db

import (
	"errors"
	"time"
)

var ErrPlanNotFound = errors.New("plan not found")

// Plan represents a stored plan proposal
type Plan struct {
	ID                 string
	CreatedAt          time.Time
	HorizonStart       string
	HorizonEnd         string
	AggregateScore     float64
	CoveragePercentage float64
	RiskLevel          string
	Feasible           bool
	Forced             bool
}

// Assignment represents a stored assignment of a plan
type Assignment struct {
	ID              string
	PlanID          string
	DemandID        string
	EmployeeID      string
	Date            string
	StationID       string
	ShiftTemplateID string
	Status          string
	Score           float64
	Explanation     string
	CreatedBy       string
	CreatedAt       time.Time
}

// Gap represents a stored coverage gap of a plan
type Gap struct {
	ID          string
	PlanID      string
	DemandID    string
	StationName string
	Date        string
	ShiftTime   string
	Criticality string
	Shortfall   int
	Reason      string
}

// Violation represents a stored constraint violation of a plan
type Violation struct {
	ID           string
	PlanID       string
	ConstraintID string
	Severity     string
	Message      string
	EmployeeID   string
	DemandID     string
	Date         string
}

// PlanRecords groups a plan with its child records for a single insert
type PlanRecords struct {
	Plan        Plan
	Assignments []Assignment
	Gaps        []Gap
	Violations  []Violation
}
