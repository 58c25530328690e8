package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/constraints"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
	mt "github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model/modeltest"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/db"
)

func TestMigrations_Ordered(t *testing.T) {
	files, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001_create_plans.sql", files[0])
	assert.IsIncreasing(t, files)
}

func TestAssignmentCopyRows(t *testing.T) {
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	rows, err := assignmentCopyRows([]db.Assignment{{
		ID: "a1", PlanID: "p1", DemandID: "d1", EmployeeID: "e1", Date: "2024-01-02",
		StationID: "s1", ShiftTemplateID: "early", Status: "PROPOSED", Score: 82.5,
		CreatedBy: "greedy-solver", CreatedAt: created,
	}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), rows[0][4])
	assert.Nil(t, rows[0][9], "empty explanation is stored as NULL")
	assert.Equal(t, created, rows[0][11])
}

func TestGapCopyRows_InvalidDate(t *testing.T) {
	_, err := gapCopyRows([]db.Gap{{ID: "g1", Date: "02/01/2024"}})
	assert.ErrorContains(t, err, "invalid date for gap g1")
}

func TestViolationCopyRows_OptionalFields(t *testing.T) {
	rows, err := violationCopyRows([]db.Violation{
		{ID: "v1", ConstraintID: "min-rest", Severity: "ERROR", Message: "rest", EmployeeID: "e1", Date: "2024-01-02"},
		{ID: "v2", ConstraintID: "skill", Severity: "WARNING", Message: "skill"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	employeeID, ok := rows[0][5].(*string)
	require.True(t, ok)
	assert.Equal(t, "e1", *employeeID)
	assert.NotNil(t, rows[0][7])

	assert.Nil(t, rows[1][5])
	assert.Nil(t, rows[1][6])
	assert.Nil(t, rows[1][7])
}

func TestViolationCopyRows_WeeklyHoursViolation(t *testing.T) {
	// A 4h contract and one 8h shift gives a weekly hours warning on a feasible plan
	p := mt.NewProblem().
		Skill("forklift").
		Station("s1", "Loading Dock", model.PriorityHigh, mt.Mandatory("forklift", 1)).
		Employee("e1", func(e *model.Employee) { e.WeeklyHours = 4 }).
		Holds("e1", "forklift", 2).
		Demand("d1", "2024-01-03", "s1", mt.Early, 1, model.PriorityHigh).
		Build()
	violations := constraints.DefaultManager().ValidateAssignments(
		[]model.Assignment{mt.Assignment("a1", "d1", "e1", 90)}, model.NewIndex(p))
	require.Len(t, violations, 1)
	require.Equal(t, model.ConstraintMaxHoursPerWeek, violations[0].ConstraintID)
	require.False(t, violations[0].IsBlocking())

	v := violations[0]
	rows, err := violationCopyRows([]db.Violation{{
		ID: "p1-v1", PlanID: "p1", ConstraintID: string(v.ConstraintID), Severity: string(v.Severity),
		Message: v.Message, EmployeeID: v.EmployeeID, DemandID: v.DemandID, Date: v.Date,
	}})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	date, ok := rows[0][7].(*time.Time)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), *date)
}
