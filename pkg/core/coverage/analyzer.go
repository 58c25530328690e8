package coverage

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/constraints"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
)

// Risk weights per gap in AnalyzeImpact
const (
	riskWeightCritical = 0.4
	riskWeightHigh     = 0.2
	riskWeightAny      = 0.1
)

// Analyzer detects coverage gaps and grades their risk
type Analyzer struct {
	manager *constraints.Manager
	logger  *zap.Logger
}

// NewAnalyzer creates an analyzer. The manager is used to probe whether
// workload or hour limits keep qualified staff off a demand.
func NewAnalyzer(manager *constraints.Manager, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{manager: manager, logger: logger}
}

// IdentifyGaps returns one gap per demand with fewer active assignments than
// required, ordered by criticality, then station name, date and demand id.
// Existing assignments in the problem context count as cover. Identical
// inputs give identical output.
func (an *Analyzer) IdentifyGaps(problem *model.SchedulingProblem, assignments []model.Assignment) []CoverageGap {
	ix := model.NewIndex(problem)
	active := withExisting(ix, model.ActiveAssignments(assignments))

	assigned := make(map[string]int, len(problem.Demands))
	for _, a := range active {
		assigned[a.DemandID]++
	}

	var gaps []CoverageGap
	for _, d := range problem.Demands {
		count := assigned[d.ID]
		if count >= d.RequiredCount {
			continue
		}
		cause, reason := an.probe(ix, d, active)
		gap := CoverageGap{
			DemandID:    d.ID,
			StationID:   d.StationID,
			StationName: ix.StationName(d.StationID),
			Date:        d.Date,
			ShiftTime:   ix.ShiftLabel(d),
			Criticality: d.Priority,
			Required:    d.RequiredCount,
			Assigned:    count,
			Shortfall:   d.RequiredCount - count,
			Cause:       cause,
			Reason:      reason,
		}
		gap.SuggestedActions = suggestActions(gap)
		gaps = append(gaps, gap)
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		a, b := gaps[i], gaps[j]
		if a.Criticality.Weight() != b.Criticality.Weight() {
			return a.Criticality.Weight() > b.Criticality.Weight()
		}
		if a.StationName != b.StationName {
			return a.StationName < b.StationName
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.DemandID < b.DemandID
	})

	an.logger.Debug("Identified coverage gaps",
		zap.Int("demands", len(problem.Demands)),
		zap.Int("gaps", len(gaps)))
	return gaps
}

// probe finds the first applicable reason a demand is short: no active staff,
// no qualified staff, all qualified staff absent, then workload/hour limits.
func (an *Analyzer) probe(ix *model.Index, d model.ShiftDemand, active []model.Assignment) (Cause, string) {
	var activeEmployees []model.Employee
	for _, e := range ix.Problem().Employees {
		if e.Active {
			activeEmployees = append(activeEmployees, e)
		}
	}
	if len(activeEmployees) == 0 {
		return CauseNoEmployees, "No employees available: the snapshot has no active employees"
	}

	station, ok := ix.Station(d.StationID)
	if !ok {
		return CauseNoQualified, fmt.Sprintf("No employees with the required skills: station %s is unknown", d.StationID)
	}
	var qualified []model.Employee
	for _, e := range activeEmployees {
		if len(ix.MissingMandatorySkills(e.ID, station, d.Date)) == 0 {
			qualified = append(qualified, e)
		}
	}
	if len(qualified) == 0 {
		return CauseNoQualified, fmt.Sprintf("No employees with the required skills for %s", ix.StationName(d.StationID))
	}

	var available []model.Employee
	for _, e := range qualified {
		if !ix.IsAbsent(e.ID, d.Date) {
			available = append(available, e)
		}
	}
	if len(available) == 0 {
		return CauseAllAbsent, fmt.Sprintf("All %d qualified employees are absent on %s", len(qualified), d.Date)
	}

	blocked, committed := 0, 0
	for _, e := range available {
		if onDemand(active, e.ID, d.ID) {
			continue
		}
		if an.blockedByLimits(ix, d, e, active) {
			blocked++
		} else {
			committed++
		}
	}
	if blocked > 0 && committed == 0 {
		return CauseWorkload, fmt.Sprintf("%d qualified employees are at their workload or hour limits", blocked)
	}
	return CauseInsufficient, fmt.Sprintf("Insufficient qualified staff: %d qualified employees available, %d committed to other demands", len(available), committed)
}

// blockedByLimits reports whether assigning e to d would add a blocking violation
func (an *Analyzer) blockedByLimits(ix *model.Index, d model.ShiftDemand, e model.Employee, active []model.Assignment) bool {
	probe, err := model.NewAssignment(model.AssignmentParams{
		DemandID:    d.ID,
		EmployeeID:  e.ID,
		Score:       100,
		Explanation: "coverage probe",
	})
	if err != nil {
		return false
	}
	trial := append(append(make([]model.Assignment, 0, len(active)+1), active...), probe)
	for _, v := range constraints.ForAssignment(an.manager.ValidateAssignments(trial, ix), probe) {
		if v.IsBlocking() {
			return true
		}
	}
	return false
}

// withExisting appends existing assignments not already present by id
func withExisting(ix *model.Index, active []model.Assignment) []model.Assignment {
	ids := make(map[string]bool, len(active))
	for _, a := range active {
		ids[a.ID] = true
	}
	out := slices.Clone(active)
	for _, a := range ix.ExistingActive() {
		if !ids[a.ID] {
			out = append(out, a)
		}
	}
	return out
}

func onDemand(assignments []model.Assignment, employeeID, demandID string) bool {
	for _, a := range assignments {
		if a.EmployeeID == employeeID && a.DemandID == demandID {
			return true
		}
	}
	return false
}

// suggestActions ranks remediations for a gap; CRITICAL gaps lead with an escalation
func suggestActions(g CoverageGap) []SuggestedAction {
	var actions []SuggestedAction
	if g.Criticality == model.PriorityCritical {
		actions = append(actions, SuggestedAction{
			Kind:        ActionEscalation,
			Description: fmt.Sprintf("Escalate: critical station %s is short %d on %s", g.StationName, g.Shortfall, g.ShiftTime),
		})
	}

	training := SuggestedAction{Kind: ActionTraining, Description: fmt.Sprintf("Train or certify staff for the skills required at %s", g.StationName)}
	overtime := SuggestedAction{Kind: ActionOvertime, Description: fmt.Sprintf("Offer overtime to qualified staff for %s", g.ShiftTime)}
	tempHire := SuggestedAction{Kind: ActionTempHire, Description: fmt.Sprintf("Hire %d temporary worker(s) for %s", g.Shortfall, g.StationName)}
	reschedule := SuggestedAction{Kind: ActionReschedule, Description: fmt.Sprintf("Move the %s demand at %s to a better staffed shift", g.Date, g.StationName)}

	switch g.Cause {
	case CauseNoEmployees:
		actions = append(actions, tempHire, reschedule)
	case CauseNoQualified:
		actions = append(actions, training, tempHire, reschedule)
	case CauseAllAbsent:
		actions = append(actions, tempHire, reschedule, training)
	case CauseWorkload:
		actions = append(actions, overtime, reschedule, tempHire)
	default:
		actions = append(actions, overtime, tempHire, reschedule)
	}
	return actions
}

// CalculateCoverageAnalysis builds the coverage report for a plan
func (an *Analyzer) CalculateCoverageAnalysis(problem *model.SchedulingProblem, assignments []model.Assignment) Report {
	gaps := an.IdentifyGaps(problem, assignments)
	return ReportFromGaps(len(problem.Demands), gaps)
}

// ReportFromGaps grades coverage from the demand total and its gaps
func ReportFromGaps(total int, gaps []CoverageGap) Report {
	r := Report{
		TotalDemands:   total,
		CoveredDemands: max(total-len(gaps), 0),
		Gaps:           gaps,
	}
	if total > 0 {
		r.CoveragePercentage = float64(r.CoveredDemands) / float64(total) * 100
	}
	r.RiskLevel = riskLevel(r.CoveragePercentage, gaps)
	return r
}

func riskLevel(coverage float64, gaps []CoverageGap) RiskLevel {
	if len(gaps) == 0 {
		return RiskLow
	}
	for _, g := range gaps {
		if g.Criticality == model.PriorityCritical {
			return RiskCritical
		}
	}
	switch {
	case coverage >= 100:
		return RiskLow
	case coverage >= 90:
		return RiskMedium
	case coverage >= 75:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// AnalyzeImpact describes what a set of gaps means for the plan and what to do about it
func AnalyzeImpact(gaps []CoverageGap, totalDemands int) ImpactAnalysis {
	impact := ImpactAnalysis{
		AffectedStations:   []string{},
		RecommendedActions: []RecommendedAction{},
	}
	if totalDemands > 0 {
		impact.CoverageChange = -float64(len(gaps)) / float64(totalDemands) * 100
	}

	seen := make(map[string]bool)
	critical, high := 0, 0
	for _, g := range gaps {
		if !seen[g.StationName] {
			seen[g.StationName] = true
			impact.AffectedStations = append(impact.AffectedStations, g.StationName)
		}
		switch g.Criticality {
		case model.PriorityCritical:
			critical++
		case model.PriorityHigh:
			high++
		}
	}
	impact.RiskIncrease = math.Min(100, 100*(riskWeightCritical*float64(critical)+riskWeightHigh*float64(high)+riskWeightAny*float64(len(gaps))))
	impact.RecommendedActions = recommendActions(gaps)
	return impact
}

// recommendActions merges the gaps' suggestions into one entry per kind
func recommendActions(gaps []CoverageGap) []RecommendedAction {
	byKind := make(map[ActionKind]*RecommendedAction)
	stations := make(map[ActionKind][]string)
	var order []ActionKind

	for _, g := range gaps {
		for _, s := range g.SuggestedActions {
			ra, ok := byKind[s.Kind]
			if !ok {
				ra = &RecommendedAction{Kind: s.Kind, Priority: g.Criticality}
				byKind[s.Kind] = ra
				order = append(order, s.Kind)
			}
			if g.Criticality.Weight() > ra.Priority.Weight() {
				ra.Priority = g.Criticality
			}
			ra.Positions += g.Shortfall
			ra.DemandIDs = append(ra.DemandIDs, g.DemandID)
			if !slices.Contains(stations[s.Kind], g.StationName) {
				stations[s.Kind] = append(stations[s.Kind], g.StationName)
			}
		}
	}

	actions := make([]RecommendedAction, 0, len(order))
	for _, kind := range order {
		ra := byKind[kind]
		where := strings.Join(stations[kind], ", ")
		switch kind {
		case ActionTempHire:
			ra.EstimatedCost = TempHireCostPerPosition * float64(ra.Positions)
			ra.Description = fmt.Sprintf("Hire temporary staff for %d position(s) at %s", ra.Positions, where)
		case ActionOvertime:
			ra.EstimatedCost = OvertimeHourlyRate * OvertimeHoursPerShift * float64(ra.Positions)
			ra.Description = fmt.Sprintf("Schedule overtime for %d employee(s) at %s", ra.Positions, where)
		case ActionTraining:
			ra.Description = fmt.Sprintf("Cross-train staff for %s", where)
		case ActionReschedule:
			ra.Description = fmt.Sprintf("Reschedule %d demand(s) at %s", len(ra.DemandIDs), where)
		case ActionEscalation:
			ra.Description = fmt.Sprintf("Escalate %d critical gap(s) at %s to management", len(ra.DemandIDs), where)
		}
		actions = append(actions, *ra)
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Priority.Weight() > actions[j].Priority.Weight()
	})
	return actions
}
