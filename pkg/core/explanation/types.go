package explanation

import "github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"

// RejectionKind says why an alternative candidate lost to the chosen one
type RejectionKind string

const (
	RejectedViolation   RejectionKind = "constraint_violation"
	RejectedUnavailable RejectionKind = "unavailable"
	RejectedScoreGap    RejectionKind = "lower_score"
)

// KeyConstraints are always reported, as satisfied when not violated
var KeyConstraints = []model.ConstraintKind{
	model.ConstraintSkillMatching,
	model.ConstraintAbsenceConflict,
	model.ConstraintMaxHoursPerDay,
	model.ConstraintMinRest,
}

// ReasoningStep is one stage of the decision narrative
type ReasoningStep struct {
	Step        int      `json:"step"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Factors     []string `json:"factors"`
}

// AlternativeExplanation says why another candidate was not chosen
type AlternativeExplanation struct {
	EmployeeID   string        `json:"employeeId"`
	EmployeeName string        `json:"employeeName"`
	Score        float64       `json:"score"`
	Rejection    RejectionKind `json:"rejection"`
	Reason       string        `json:"reason"`
}

// ConstraintExplanation reports the state of one constraint for the assignment
type ConstraintExplanation struct {
	ConstraintID model.ConstraintKind `json:"constraintId"`
	Satisfied    bool                 `json:"satisfied"`
	Severity     model.Severity       `json:"severity,omitempty"`
	Message      string               `json:"message"`
}

// ScoreBreakdown splits an assignment score into factor points. The factors
// are re-estimated from the explanation context and need not add up to Total,
// which is the stored assignment score.
type ScoreBreakdown struct {
	Total        float64 `json:"total"`
	SkillMatch   float64 `json:"skillMatch"`
	Availability float64 `json:"availability"`
	Fairness     float64 `json:"fairness"`
	Preferences  float64 `json:"preferences"`
	Continuity   float64 `json:"continuity"`
}

// AssignmentExplanation is the full account of why an assignment was made
type AssignmentExplanation struct {
	AssignmentID string                   `json:"assignmentId"`
	Reasoning    []ReasoningStep          `json:"reasoning"`
	Alternatives []AlternativeExplanation `json:"alternatives"`
	Constraints  []ConstraintExplanation  `json:"constraints"`
	Score        ScoreBreakdown           `json:"score"`
}

// Candidate is an employee that could have taken the demand instead
type Candidate struct {
	Employee model.Employee
	Score    float64

	// Unavailable is set with a reason when the candidate is inactive,
	// absent or lacks a mandatory skill.
	Unavailable       bool
	UnavailableReason string

	// Violations are the blocking violations the candidate would cause
	Violations []model.ConstraintViolation
}

// Context is everything the engine needs to explain one assignment
type Context struct {
	Assignment  model.Assignment
	Employee    model.Employee
	Demand      model.ShiftDemand
	StationName string
	ShiftLabel  string

	RequiredSkills []model.RequiredSkill
	// HeldSkills maps skill id to the employee's unexpired level on the demand date
	HeldSkills map[string]int

	// Violations involving the assignment
	Violations []model.ConstraintViolation

	// Alternatives ordered by score, best first
	Alternatives         []Candidate
	CandidatesConsidered int

	WeekHours            float64
	PriorShiftsAtStation int
}
