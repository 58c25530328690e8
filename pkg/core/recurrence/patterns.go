// Package recurrence expands recurring demand patterns into dated demands.
package recurrence

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
)

// DemandPattern asks for staff on every date matched by an RFC 5545 RRULE,
// e.g. "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR". Without a DTSTART the rule is
// anchored at the start of the expansion range.
type DemandPattern struct {
	ID              string         `yaml:"id" json:"id" validate:"required"`
	StationID       string         `yaml:"stationId" json:"stationId" validate:"required"`
	ShiftTemplateID string         `yaml:"shiftTemplateId" json:"shiftTemplateId" validate:"required"`
	RRule           string         `yaml:"rrule" json:"rrule" validate:"required"`
	RequiredCount   int            `yaml:"requiredCount" json:"requiredCount" validate:"min=1"`
	Priority        model.Priority `yaml:"priority" json:"priority" validate:"oneof=LOW MEDIUM HIGH CRITICAL"`
}

// DemandID returns the deterministic id of the pattern's demand on date
func (p DemandPattern) DemandID(date string) string {
	return p.ID + "-" + date
}

// Validate checks the struct tags and the RRULE syntax
func (p DemandPattern) Validate() error {
	if err := model.ValidateStruct("demandPattern", p.ID, p); err != nil {
		return err
	}
	if _, err := rrule.StrToROption(p.RRule); err != nil {
		return &model.ValidationError{Entity: "demandPattern", ID: p.ID, Field: "rrule", Message: err.Error()}
	}
	return nil
}

// Dates returns the dates in r matched by the pattern, in order
func (p DemandPattern) Dates(r model.DateRange) ([]string, error) {
	start, err := time.Parse(model.DateLayout, r.Start)
	if err != nil {
		return nil, fmt.Errorf("invalid range start %q: %w", r.Start, err)
	}
	end, err := time.Parse(model.DateLayout, r.End)
	if err != nil {
		return nil, fmt.Errorf("invalid range end %q: %w", r.End, err)
	}
	if end.Before(start) {
		return nil, nil
	}

	opt, err := rrule.StrToROption(p.RRule)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rrule for pattern %s: %w", p.ID, err)
	}
	if opt.Dtstart.IsZero() {
		opt.Dtstart = start
	}
	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build rrule for pattern %s: %w", p.ID, err)
	}

	// Include every occurrence on the last day, whatever its time of day
	occurrences := rule.Between(start, end.Add(24*time.Hour-time.Nanosecond), true)
	dates := make([]string, 0, len(occurrences))
	seen := make(map[string]bool, len(occurrences))
	for _, o := range occurrences {
		d := o.Format(model.DateLayout)
		if !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	return dates, nil
}

// Expand turns patterns into demands over r. Patterns are expanded in order
// and each pattern's demands are sorted by date.
func Expand(patterns []DemandPattern, r model.DateRange) ([]model.ShiftDemand, error) {
	var demands []model.ShiftDemand
	for _, p := range patterns {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		dates, err := p.Dates(r)
		if err != nil {
			return nil, err
		}
		for _, date := range dates {
			demands = append(demands, model.ShiftDemand{
				ID:              p.DemandID(date),
				Date:            date,
				StationID:       p.StationID,
				ShiftTemplateID: p.ShiftTemplateID,
				RequiredCount:   p.RequiredCount,
				Priority:        p.Priority,
			})
		}
	}
	return demands, nil
}
