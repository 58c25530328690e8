package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/db"
)

const dateLayout = "2006-01-02"

// GetPlans retrieves all stored plans, newest first
func (d *DB) GetPlans(ctx context.Context) ([]db.Plan, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, created_at, horizon_start, horizon_end, aggregate_score, coverage_percentage, risk_level, feasible, forced
		FROM plan
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []db.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plans: %w", err)
	}

	return plans, nil
}

// GetPlan retrieves a single plan by id
func (d *DB) GetPlan(ctx context.Context, id string) (*db.Plan, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, created_at, horizon_start, horizon_end, aggregate_score, coverage_percentage, risk_level, feasible, forced
		FROM plan
		WHERE id = $1
	`, id)
	p, err := scanPlan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("plan %s: %w", id, db.ErrPlanNotFound)
	}
	return p, err
}

func scanPlan(row pgx.Row) (*db.Plan, error) {
	var p db.Plan
	var start, end time.Time
	if err := row.Scan(&p.ID, &p.CreatedAt, &start, &end, &p.AggregateScore, &p.CoveragePercentage, &p.RiskLevel, &p.Feasible, &p.Forced); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan plan: %w", err)
	}
	p.HorizonStart = start.Format(dateLayout)
	p.HorizonEnd = end.Format(dateLayout)
	return &p, nil
}

// GetAssignments retrieves the assignments of a plan ordered by date
func (d *DB) GetAssignments(ctx context.Context, planID string) ([]db.Assignment, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, plan_id, demand_id, employee_id, shift_date, station_id, shift_template_id, status, score, explanation, created_by, created_at
		FROM plan_assignment
		WHERE plan_id = $1
		ORDER BY shift_date, station_id, id
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []db.Assignment
	for rows.Next() {
		var a db.Assignment
		var date time.Time
		var explanation *string
		if err := rows.Scan(&a.ID, &a.PlanID, &a.DemandID, &a.EmployeeID, &date, &a.StationID, &a.ShiftTemplateID, &a.Status, &a.Score, &explanation, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.Date = date.Format(dateLayout)
		if explanation != nil {
			a.Explanation = *explanation
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}

	return assignments, nil
}

// GetGaps retrieves the coverage gaps of a plan
func (d *DB) GetGaps(ctx context.Context, planID string) ([]db.Gap, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, plan_id, demand_id, station_name, shift_date, shift_time, criticality, shortfall, reason
		FROM coverage_gap
		WHERE plan_id = $1
		ORDER BY id
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query gaps: %w", err)
	}
	defer rows.Close()

	var gaps []db.Gap
	for rows.Next() {
		var g db.Gap
		var date time.Time
		if err := rows.Scan(&g.ID, &g.PlanID, &g.DemandID, &g.StationName, &date, &g.ShiftTime, &g.Criticality, &g.Shortfall, &g.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan gap: %w", err)
		}
		g.Date = date.Format(dateLayout)
		gaps = append(gaps, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating gaps: %w", err)
	}

	return gaps, nil
}

// GetViolations retrieves the constraint violations of a plan
func (d *DB) GetViolations(ctx context.Context, planID string) ([]db.Violation, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, plan_id, constraint_id, severity, message, employee_id, demand_id, violation_date
		FROM constraint_violation
		WHERE plan_id = $1
		ORDER BY id
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query violations: %w", err)
	}
	defer rows.Close()

	var violations []db.Violation
	for rows.Next() {
		var v db.Violation
		var employeeID, demandID *string
		var date *time.Time
		if err := rows.Scan(&v.ID, &v.PlanID, &v.ConstraintID, &v.Severity, &v.Message, &employeeID, &demandID, &date); err != nil {
			return nil, fmt.Errorf("failed to scan violation: %w", err)
		}
		if employeeID != nil {
			v.EmployeeID = *employeeID
		}
		if demandID != nil {
			v.DemandID = *demandID
		}
		if date != nil {
			v.Date = date.Format(dateLayout)
		}
		violations = append(violations, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating violations: %w", err)
	}

	return violations, nil
}

// InsertPlan writes a plan and its child records in one transaction.
// Child rows are bulk loaded with COPY.
func (d *DB) InsertPlan(ctx context.Context, records *db.PlanRecords) error {
	p := records.Plan
	start, err := parseDate(p.HorizonStart)
	if err != nil {
		return fmt.Errorf("invalid horizon start: %w", err)
	}
	end, err := parseDate(p.HorizonEnd)
	if err != nil {
		return fmt.Errorf("invalid horizon end: %w", err)
	}

	assignmentRows, err := assignmentCopyRows(records.Assignments)
	if err != nil {
		return err
	}
	gapRows, err := gapCopyRows(records.Gaps)
	if err != nil {
		return err
	}
	violationRows, err := violationCopyRows(records.Violations)
	if err != nil {
		return err
	}

	err = pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO plan (id, created_at, horizon_start, horizon_end, aggregate_score, coverage_percentage, risk_level, feasible, forced)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, p.ID, p.CreatedAt, start, end, p.AggregateScore, p.CoveragePercentage, p.RiskLevel, p.Feasible, p.Forced)
		if err != nil {
			return fmt.Errorf("failed to insert plan: %w", err)
		}

		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"plan_assignment"},
			[]string{"id", "plan_id", "demand_id", "employee_id", "shift_date", "station_id", "shift_template_id", "status", "score", "explanation", "created_by", "created_at"},
			pgx.CopyFromRows(assignmentRows)); err != nil {
			return fmt.Errorf("failed to insert assignments: %w", err)
		}

		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"coverage_gap"},
			[]string{"id", "plan_id", "demand_id", "station_name", "shift_date", "shift_time", "criticality", "shortfall", "reason"},
			pgx.CopyFromRows(gapRows)); err != nil {
			return fmt.Errorf("failed to insert gaps: %w", err)
		}

		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"constraint_violation"},
			[]string{"id", "plan_id", "constraint_id", "severity", "message", "employee_id", "demand_id", "violation_date"},
			pgx.CopyFromRows(violationRows)); err != nil {
			return fmt.Errorf("failed to insert violations: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	d.logger.Debug("Inserted plan",
		zap.String("plan_id", p.ID),
		zap.Int("assignments", len(records.Assignments)),
		zap.Int("gaps", len(records.Gaps)),
		zap.Int("violations", len(records.Violations)))
	return nil
}

func assignmentCopyRows(assignments []db.Assignment) ([][]any, error) {
	rows := make([][]any, 0, len(assignments))
	for _, a := range assignments {
		date, err := parseDate(a.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid date for assignment %s: %w", a.ID, err)
		}
		rows = append(rows, []any{a.ID, a.PlanID, a.DemandID, a.EmployeeID, date, a.StationID, a.ShiftTemplateID, a.Status, a.Score, nullable(a.Explanation), a.CreatedBy, a.CreatedAt})
	}
	return rows, nil
}

func gapCopyRows(gaps []db.Gap) ([][]any, error) {
	rows := make([][]any, 0, len(gaps))
	for _, g := range gaps {
		date, err := parseDate(g.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid date for gap %s: %w", g.ID, err)
		}
		rows = append(rows, []any{g.ID, g.PlanID, g.DemandID, g.StationName, date, g.ShiftTime, g.Criticality, int32(g.Shortfall), g.Reason})
	}
	return rows, nil
}

func violationCopyRows(violations []db.Violation) ([][]any, error) {
	rows := make([][]any, 0, len(violations))
	for _, v := range violations {
		var date *time.Time
		if v.Date != "" {
			t, err := parseDate(v.Date)
			if err != nil {
				return nil, fmt.Errorf("invalid date for violation %s: %w", v.ID, err)
			}
			date = &t
		}
		rows = append(rows, []any{v.ID, v.PlanID, v.ConstraintID, v.Severity, v.Message, nullable(v.EmployeeID), nullable(v.DemandID), date})
	}
	return rows, nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
