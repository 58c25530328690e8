// Package explanation turns an assignment and its runner-up candidates into a
// human readable account of the decision.
package explanation

import (
	"fmt"
	"math"
	"strings"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
)

// MaxAlternatives caps the alternatives explained per assignment
const MaxAlternatives = 5

// Factor points used by the score estimate
const (
	skillPoints        = 40.0
	availabilityPoints = 20.0
	fairnessPoints     = 15.0
	preferencePoints   = 15.0
	continuityPoints   = 10.0
	fairnessBaseline   = 40.0
)

var satisfiedMessages = map[model.ConstraintKind]string{
	model.ConstraintSkillMatching:   "Holds every mandatory skill at the required level",
	model.ConstraintAbsenceConflict: "No approved absence on the shift date",
	model.ConstraintMaxHoursPerDay:  "Stays within the daily hour limit",
	model.ConstraintMinRest:         "Keeps the minimum rest between shifts",
}

// Engine explains assignments. It is stateless.
type Engine struct {
	maxAlternatives int
}

// NewEngine creates an engine explaining at most maxAlternatives alternatives.
// Values outside 1..MaxAlternatives use MaxAlternatives.
func NewEngine(maxAlternatives int) *Engine {
	if maxAlternatives <= 0 || maxAlternatives > MaxAlternatives {
		maxAlternatives = MaxAlternatives
	}
	return &Engine{maxAlternatives: maxAlternatives}
}

// GenerateExplanation builds the reasoning chain, alternative and constraint
// explanations and score breakdown for the context's assignment.
func (en *Engine) GenerateExplanation(c Context) (*AssignmentExplanation, error) {
	if c.Assignment.ID == "" {
		return nil, &model.ValidationError{Entity: "explanation", Field: "assignment", Message: "is required"}
	}
	if c.Employee.ID != c.Assignment.EmployeeID {
		return nil, &model.ValidationError{Entity: "explanation", ID: c.Assignment.ID, Field: "employee", Message: fmt.Sprintf("must be the assigned employee %s, got %q", c.Assignment.EmployeeID, c.Employee.ID)}
	}

	alternatives := c.Alternatives
	if len(alternatives) > en.maxAlternatives {
		alternatives = alternatives[:en.maxAlternatives]
	}

	exp := &AssignmentExplanation{
		AssignmentID: c.Assignment.ID,
		Reasoning:    reasoning(c, alternatives),
		Alternatives: make([]AlternativeExplanation, 0, len(alternatives)),
		Constraints:  constraintExplanations(c),
		Score:        estimateScore(c),
	}
	for _, alt := range alternatives {
		exp.Alternatives = append(exp.Alternatives, explainAlternative(c, alt))
	}
	return exp, nil
}

func reasoning(c Context, alternatives []Candidate) []ReasoningStep {
	var required []string
	for _, rs := range c.RequiredSkills {
		kind := "optional"
		if rs.Mandatory {
			kind = "mandatory"
		}
		required = append(required, fmt.Sprintf("%s level %d (%s)", rs.SkillID, rs.MinLevel, kind))
	}

	available := 0
	var ranked []string
	for _, alt := range c.Alternatives {
		if !alt.Unavailable && len(alt.Violations) == 0 {
			available++
		}
	}
	for _, alt := range alternatives {
		ranked = append(ranked, fmt.Sprintf("%s: %.1f", displayName(alt.Employee), alt.Score))
	}

	var skills []string
	for _, rs := range c.RequiredSkills {
		level, ok := c.HeldSkills[rs.SkillID]
		switch {
		case !ok:
			skills = append(skills, fmt.Sprintf("%s: not held (needs %d)", rs.SkillID, rs.MinLevel))
		case level < rs.MinLevel:
			skills = append(skills, fmt.Sprintf("%s: level %d below the required %d", rs.SkillID, level, rs.MinLevel))
		default:
			skills = append(skills, fmt.Sprintf("%s: level %d meets the required %d", rs.SkillID, level, rs.MinLevel))
		}
	}

	blocking := 0
	var violations []string
	for _, v := range c.Violations {
		if v.IsBlocking() {
			blocking++
		}
		violations = append(violations, fmt.Sprintf("%s (%s): %s", v.ConstraintID, v.Severity, v.Message))
	}
	validation := "No constraint violations were found"
	if len(c.Violations) > 0 {
		validation = fmt.Sprintf("%d violation(s) found, %d blocking", len(c.Violations), blocking)
	}

	decision := []string{fmt.Sprintf("Stored score %.1f", c.Assignment.Score)}
	if c.Assignment.Explanation != "" {
		decision = append(decision, c.Assignment.Explanation)
	}
	if len(c.Alternatives) > 0 {
		best := c.Alternatives[0]
		decision = append(decision, fmt.Sprintf("Best alternative %s scored %.1f", displayName(best.Employee), best.Score))
	}

	return []ReasoningStep{
		{
			Step:        1,
			Title:       "Demand analysis",
			Description: fmt.Sprintf("Demand %s at %s on %s needs %d employee(s) with %s priority", c.Demand.ID, c.StationName, c.ShiftLabel, c.Demand.RequiredCount, c.Demand.Priority),
			Factors:     required,
		},
		{
			Step:        2,
			Title:       "Candidate evaluation",
			Description: fmt.Sprintf("%d other candidate(s) were considered and %d could have taken the shift", c.CandidatesConsidered, available),
			Factors:     ranked,
		},
		{
			Step:        3,
			Title:       "Skill assessment",
			Description: fmt.Sprintf("%s was checked against %d required skill(s)", displayName(c.Employee), len(c.RequiredSkills)),
			Factors:     skills,
		},
		{
			Step:        4,
			Title:       "Constraint validation",
			Description: validation,
			Factors:     violations,
		},
		{
			Step:        5,
			Title:       "Final decision",
			Description: fmt.Sprintf("%s was assigned with a score of %.1f", displayName(c.Employee), c.Assignment.Score),
			Factors:     decision,
		},
	}
}

// explainAlternative picks the first applicable rejection: a violation the
// candidate would cause, then unavailability, then the score gap.
func explainAlternative(c Context, alt Candidate) AlternativeExplanation {
	out := AlternativeExplanation{
		EmployeeID:   alt.Employee.ID,
		EmployeeName: displayName(alt.Employee),
		Score:        alt.Score,
	}
	switch {
	case len(alt.Violations) > 0:
		v := alt.Violations[0]
		out.Rejection = RejectedViolation
		out.Reason = fmt.Sprintf("Would violate %s: %s", v.ConstraintID, v.Message)
	case alt.Unavailable:
		out.Rejection = RejectedUnavailable
		out.Reason = "Unavailable: " + alt.UnavailableReason
	default:
		out.Rejection = RejectedScoreGap
		gap := c.Assignment.Score - alt.Score
		if gap > 0 {
			out.Reason = fmt.Sprintf("Scored %.1f, %.1f points below %s", alt.Score, gap, displayName(c.Employee))
		} else {
			out.Reason = fmt.Sprintf("Scored %.1f against %.1f for %s but was ranked after them", alt.Score, c.Assignment.Score, displayName(c.Employee))
		}
	}
	return out
}

var severityRank = map[model.Severity]int{
	model.SeverityWarning:  1,
	model.SeverityError:    2,
	model.SeverityCritical: 3,
}

// constraintExplanations reports each violated constraint once, with its most
// severe severity and every message, then the key constraints that held.
func constraintExplanations(c Context) []ConstraintExplanation {
	pos := make(map[model.ConstraintKind]int)
	messages := make(map[model.ConstraintKind][]string)
	out := make([]ConstraintExplanation, 0, len(c.Violations)+len(KeyConstraints))
	for _, v := range c.Violations {
		i, seen := pos[v.ConstraintID]
		if !seen {
			i = len(out)
			pos[v.ConstraintID] = i
			out = append(out, ConstraintExplanation{ConstraintID: v.ConstraintID, Severity: v.Severity})
		}
		if severityRank[v.Severity] > severityRank[out[i].Severity] {
			out[i].Severity = v.Severity
		}
		messages[v.ConstraintID] = append(messages[v.ConstraintID], v.Message)
	}
	for i := range out {
		out[i].Message = strings.Join(messages[out[i].ConstraintID], "; ")
	}
	for _, kind := range KeyConstraints {
		if _, violated := pos[kind]; violated {
			continue
		}
		out = append(out, ConstraintExplanation{
			ConstraintID: kind,
			Satisfied:    true,
			Message:      satisfiedMessages[kind],
		})
	}
	return out
}

// estimateScore re-derives factor points from the context alone
func estimateScore(c Context) ScoreBreakdown {
	b := ScoreBreakdown{Total: c.Assignment.Score}

	if len(c.RequiredSkills) == 0 {
		b.SkillMatch = skillPoints
	} else {
		met := 0
		for _, rs := range c.RequiredSkills {
			if level, ok := c.HeldSkills[rs.SkillID]; ok && level >= rs.MinLevel {
				met++
			}
		}
		b.SkillMatch = skillPoints * float64(met) / float64(len(c.RequiredSkills))
	}

	b.Availability = availabilityPoints
	for _, v := range c.Violations {
		if v.ConstraintID == model.ConstraintAbsenceConflict || (v.ConstraintID == model.ConstraintSkillMatching && v.IsBlocking()) {
			b.Availability = 0
			break
		}
	}
	if !c.Employee.Active {
		b.Availability = 0
	}

	b.Fairness = fairnessPoints * math.Max(0, math.Min(1, 1-c.WeekHours/fairnessBaseline))

	switch {
	case c.Employee.PrefersStation(c.Demand.StationID):
		b.Preferences = preferencePoints
	case c.Employee.PrefersShift(c.Demand.ShiftTemplateID):
		b.Preferences = preferencePoints / 2
	}

	b.Continuity = continuityPoints * math.Min(1, 0.2*float64(c.PriorShiftsAtStation))

	b.SkillMatch = round1(b.SkillMatch)
	b.Fairness = round1(b.Fairness)
	b.Preferences = round1(b.Preferences)
	b.Continuity = round1(b.Continuity)
	return b
}

func displayName(e model.Employee) string {
	if name := strings.TrimSpace(e.Name); name != "" {
		return name
	}
	return e.ID
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
