package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// AssignmentStatus is the lifecycle state of an assignment
type AssignmentStatus string

const (
	StatusProposed  AssignmentStatus = "PROPOSED"
	StatusConfirmed AssignmentStatus = "CONFIRMED"
	StatusRejected  AssignmentStatus = "REJECTED"
)

const (
	// MinConfirmScore is the lowest score an assignment can be confirmed with
	MinConfirmScore = 30.0

	// ExplainedScoreThreshold is the score below which an explanation is required
	ExplainedScoreThreshold = 50.0

	// MinExplanationLength is the minimum length of a required explanation
	MinExplanationLength = 10
)

var ErrIllegalTransition = errors.New("illegal assignment status transition")

var validate = newValidator()

// newValidator reports fields by their json name when they have one
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Assignment pairs one employee with one demand. Values are immutable:
// transitions return a new Assignment.
type Assignment struct {
	ID          string           `yaml:"id" json:"id"`
	DemandID    string           `yaml:"demandId" json:"demandId"`
	EmployeeID  string           `yaml:"employeeId" json:"employeeId"`
	Status      AssignmentStatus `yaml:"status" json:"status"`
	Score       float64          `yaml:"score" json:"score"`
	Explanation string           `yaml:"explanation,omitempty" json:"explanation,omitempty"`
	CreatedAt   time.Time        `yaml:"createdAt" json:"createdAt"`
	CreatedBy   string           `yaml:"createdBy,omitempty" json:"createdBy,omitempty"`
	UpdatedAt   time.Time        `yaml:"updatedAt" json:"updatedAt"`
	UpdatedBy   string           `yaml:"updatedBy,omitempty" json:"updatedBy,omitempty"`
}

// assignmentNamespace seeds name-based assignment ids
var assignmentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("shiftwise/assignment"))

// SlotAssignmentID returns the stable id of the slot-th assignment made for a
// demand, so that planning the same problem twice yields the same ids.
func SlotAssignmentID(demandID string, slot int) string {
	return uuid.NewSHA1(assignmentNamespace, []byte(fmt.Sprintf("%s/%d", demandID, slot))).String()
}

// AssignmentParams are the inputs to NewAssignment. ID, Status and CreatedAt
// are filled in when left empty.
type AssignmentParams struct {
	ID          string
	DemandID    string           `validate:"required"`
	EmployeeID  string           `validate:"required"`
	Status      AssignmentStatus `validate:"omitempty,oneof=PROPOSED CONFIRMED REJECTED"`
	Score       float64          `validate:"gte=0,lte=100"`
	Explanation string
	CreatedBy   string
	CreatedAt   time.Time
}

// NewAssignment builds a validated Assignment
func NewAssignment(p AssignmentParams) (Assignment, error) {
	if p.Status == "" {
		p.Status = StatusProposed
	}
	if err := validate.Struct(p); err != nil {
		return Assignment{}, fromValidatorError("assignment", p.ID, err)
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	a := Assignment{
		ID:          p.ID,
		DemandID:    p.DemandID,
		EmployeeID:  p.EmployeeID,
		Status:      p.Status,
		Score:       p.Score,
		Explanation: p.Explanation,
		CreatedAt:   p.CreatedAt,
		CreatedBy:   p.CreatedBy,
		UpdatedAt:   p.CreatedAt,
	}
	if err := a.Validate(); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

// Validate checks the score and status invariants of an assignment
func (a Assignment) Validate() error {
	if a.Score < 0 || a.Score > 100 {
		return &ValidationError{Entity: "assignment", ID: a.ID, Field: "score", Message: fmt.Sprintf("must be between 0 and 100, got %.2f", a.Score)}
	}
	if a.Score < ExplainedScoreThreshold && len(a.Explanation) < MinExplanationLength {
		return &ValidationError{Entity: "assignment", ID: a.ID, Field: "explanation", Message: fmt.Sprintf("scores below %.0f need an explanation of at least %d characters", ExplainedScoreThreshold, MinExplanationLength)}
	}
	if a.Status == StatusConfirmed && a.Score < MinConfirmScore {
		return &ValidationError{Entity: "assignment", ID: a.ID, Field: "status", Message: fmt.Sprintf("confirmed assignments need a score of at least %.0f", MinConfirmScore)}
	}
	return nil
}

// IsActive reports whether the assignment still occupies the employee
func (a Assignment) IsActive() bool {
	return a.Status != StatusRejected
}

// Confirm returns a CONFIRMED copy of the assignment
func (a Assignment) Confirm() (Assignment, error) {
	if a.Status == StatusRejected {
		return Assignment{}, fmt.Errorf("cannot confirm assignment %s: %w", a.ID, ErrIllegalTransition)
	}
	next := a
	next.Status = StatusConfirmed
	next.UpdatedAt = time.Now().UTC()
	if err := next.Validate(); err != nil {
		return Assignment{}, err
	}
	return next, nil
}

// Reject returns a REJECTED copy of the assignment
func (a Assignment) Reject() Assignment {
	next := a
	next.Status = StatusRejected
	next.UpdatedAt = time.Now().UTC()
	return next
}

// Reassign returns a copy of a PROPOSED assignment moved to another employee
// by the given author. The id, demand and creator are kept.
func (a Assignment) Reassign(employeeID string, score float64, explanation, by string) (Assignment, error) {
	if a.Status != StatusProposed {
		return Assignment{}, fmt.Errorf("cannot reassign %s assignment %s: %w", a.Status, a.ID, ErrIllegalTransition)
	}
	if employeeID == "" {
		return Assignment{}, &ValidationError{Entity: "assignment", ID: a.ID, Field: "employeeId", Message: "is required"}
	}
	next := a
	next.EmployeeID = employeeID
	next.Score = score
	next.Explanation = explanation
	next.UpdatedAt = time.Now().UTC()
	next.UpdatedBy = by
	if err := next.Validate(); err != nil {
		return Assignment{}, err
	}
	return next, nil
}

// ActiveAssignments filters out rejected assignments
func ActiveAssignments(assignments []Assignment) []Assignment {
	active := make([]Assignment, 0, len(assignments))
	for _, a := range assignments {
		if a.IsActive() {
			active = append(active, a)
		}
	}
	return active
}
