package sheetsclient

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/sheets/v4"
)

// PublishedAssignmentRow represents a single assignment row in the published plan
type PublishedAssignmentRow struct {
	Date     string // Format: "2006-01-02"
	Shift    string
	Station  string
	Employee string
	Score    float64
	Status   string
}

// PublishedGapRow represents a single unfilled demand in the published plan
type PublishedGapRow struct {
	Date        string
	Shift       string
	Station     string
	Criticality string
	Shortfall   int
	Reason      string
}

// PublishedPlan represents the complete published plan data
type PublishedPlan struct {
	PlanID             string
	StartDate          string // Format: "2006-01-02"
	EndDate            string // Format: "2006-01-02"
	CoveragePercentage float64
	RiskLevel          string
	Assignments        []PublishedAssignmentRow
	Gaps               []PublishedGapRow
}

// PublishPlan publishes a plan proposal to Google Sheets.
// The tab is titled after the plan horizon, e.g. "Plan Mon Jan 01 2024 - Sun Jan 07 2024".
// A missing tab is created; an existing tab is cleared and overwritten.
func (c *Client) PublishPlan(ctx context.Context, spreadsheetID string, plan *PublishedPlan) error {
	tabTitle, err := generateTabTitle(plan.StartDate, plan.EndDate)
	if err != nil {
		return fmt.Errorf("failed to generate tab title: %w", err)
	}

	exists, err := c.hasSheet(ctx, spreadsheetID, tabTitle)
	if err != nil {
		return err
	}

	if exists {
		_, err = c.service.Spreadsheets.Values.Clear(spreadsheetID, tabTitle, &sheets.ClearValuesRequest{}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to clear existing tab: %w", err)
		}
	} else {
		if _, err := c.CreateSheet(ctx, spreadsheetID, tabTitle); err != nil {
			return fmt.Errorf("failed to create tab: %w", err)
		}
	}

	valueRange := &sheets.ValueRange{
		Values: buildPlanValues(plan),
	}

	_, err = c.service.Spreadsheets.Values.Update(
		spreadsheetID,
		fmt.Sprintf("%s!A1", tabTitle),
		valueRange,
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write plan to tab: %w", err)
	}

	return nil
}

// generateTabTitle creates a tab title in the format "Plan Mon Jan 01 2024 - Sun Jan 07 2024"
func generateTabTitle(startDate, endDate string) (string, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return "", fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return "", fmt.Errorf("invalid end date: %w", err)
	}
	if end.Before(start) {
		return "", fmt.Errorf("end date %s is before start date %s", endDate, startDate)
	}

	return fmt.Sprintf("Plan %s - %s",
		start.Format("Mon Jan 02 2006"),
		end.Format("Mon Jan 02 2006"),
	), nil
}

// buildPlanValues lays out a summary row, the assignment table, a blank row
// and the gap table
func buildPlanValues(plan *PublishedPlan) [][]interface{} {
	rows := [][]interface{}{
		{"Plan", plan.PlanID, "Coverage", fmt.Sprintf("%.1f%%", plan.CoveragePercentage), "Risk", plan.RiskLevel},
		{},
		{"Date", "Shift", "Station", "Employee", "Score", "Status"},
	}
	for _, a := range plan.Assignments {
		rows = append(rows, []interface{}{a.Date, a.Shift, a.Station, a.Employee, a.Score, a.Status})
	}

	if len(plan.Gaps) == 0 {
		return rows
	}

	rows = append(rows,
		[]interface{}{},
		[]interface{}{"Date", "Shift", "Station", "Criticality", "Shortfall", "Reason"},
	)
	for _, g := range plan.Gaps {
		rows = append(rows, []interface{}{g.Date, g.Shift, g.Station, g.Criticality, g.Shortfall, g.Reason})
	}
	return rows
}
