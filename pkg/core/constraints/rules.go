package constraints

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
)

// Parameter names understood by the rules
const (
	ParamMaxHoursPerDay     = "maxHoursPerDay"
	ParamMaxWeeklyHours     = "maxWeeklyHours"
	ParamMinRestHours       = "minRestHours"
	ParamMaxConsecutiveDays = "maxConsecutiveDays"
	ParamMaxVariation       = "maxVariation"
)

// Defaults for rule parameters
const (
	DefaultMaxWeeklyHours     = 48.0
	DefaultMaxConsecutiveDays = 6.0
	DefaultMaxVariation       = 0.5
)

type checkFunc func(r Rule, set *workingSet) []model.ConstraintViolation

// Rule is one constraint kind bound to its severity, parameters and check.
// Rules can only be built through NewRule.
type Rule struct {
	Kind        model.ConstraintKind
	Severity    model.Severity
	Description string
	params      map[string]float64
	check       checkFunc
}

// NewRule builds the rule for a spec, applying any severity override
func NewRule(spec model.ConstraintSpec) (Rule, error) {
	var r Rule
	switch spec.Kind {
	case model.ConstraintSkillMatching:
		r = Rule{Severity: model.SeverityCritical, Description: "Employee holds every mandatory skill at the minimum level", check: checkSkillMatching}
	case model.ConstraintAbsenceConflict:
		r = Rule{Severity: model.SeverityError, Description: "Employee has no approved absence on the shift date", check: checkAbsenceConflict}
	case model.ConstraintDoubleBooking:
		r = Rule{Severity: model.SeverityCritical, Description: "Employee is not booked on overlapping shifts", check: checkDoubleBooking}
	case model.ConstraintMaxHoursPerDay:
		r = Rule{Severity: model.SeverityError, Description: "Daily working hours stay within the employee's limit", check: checkMaxHoursPerDay}
	case model.ConstraintMaxHoursPerWeek:
		r = Rule{Severity: model.SeverityError, Description: "Weekly working hours stay within the legal cap", check: checkMaxHoursPerWeek}
	case model.ConstraintMinRest:
		r = Rule{Severity: model.SeverityError, Description: "Minimum rest between consecutive shifts is respected", check: checkMinRest}
	case model.ConstraintMaxConsecutiveDays:
		r = Rule{Severity: model.SeverityWarning, Description: "Consecutive working days stay within the employee's preference", check: checkMaxConsecutiveDays}
	case model.ConstraintWorkloadFairness:
		r = Rule{Severity: model.SeverityWarning, Description: "Working hours are spread evenly across employees", check: checkWorkloadFairness}
	default:
		return Rule{}, fmt.Errorf("unknown constraint kind %q", spec.Kind)
	}

	r.Kind = spec.Kind
	r.params = spec.Params
	if spec.Severity != "" {
		r.Severity = spec.Severity
	}
	return r, nil
}

func (r Rule) param(name string, def float64) float64 {
	if v, ok := r.params[name]; ok && v > 0 {
		return v
	}
	return def
}

func (r Rule) violation(severity model.Severity, employeeID, demandID, date, format string, args ...any) model.ConstraintViolation {
	return model.ConstraintViolation{
		ConstraintID: r.Kind,
		Severity:     severity,
		Message:      fmt.Sprintf(format, args...),
		EmployeeID:   employeeID,
		DemandID:     demandID,
		Date:         date,
	}
}

// shift is an assignment resolved against its demand and template
type shift struct {
	assignment model.Assignment
	demand     model.ShiftDemand
	start, end time.Time
	hours      float64
	candidate  bool
}

// workingSet is the per-validation view shared by all rules
type workingSet struct {
	ix         *model.Index
	candidates []model.Assignment
	byEmployee map[string][]shift
	employees  []string
}

func newWorkingSet(assignments []model.Assignment, ix *model.Index) *workingSet {
	set := &workingSet{
		ix:         ix,
		candidates: model.ActiveAssignments(assignments),
		byEmployee: make(map[string][]shift),
	}

	candidateIDs := make(map[string]bool, len(set.candidates))
	for _, a := range set.candidates {
		candidateIDs[a.ID] = true
		set.add(a, true)
	}
	for _, a := range ix.ExistingActive() {
		if candidateIDs[a.ID] {
			continue
		}
		set.add(a, false)
	}

	for _, shifts := range set.byEmployee {
		sort.SliceStable(shifts, func(i, j int) bool {
			return shifts[i].start.Before(shifts[j].start)
		})
	}
	return set
}

func (s *workingSet) add(a model.Assignment, candidate bool) {
	d, ok := s.ix.Demand(a.DemandID)
	if !ok {
		return
	}
	start, end, ok := s.ix.ShiftWindow(d)
	if !ok {
		return
	}
	if _, seen := s.byEmployee[a.EmployeeID]; !seen {
		s.employees = append(s.employees, a.EmployeeID)
	}
	s.byEmployee[a.EmployeeID] = append(s.byEmployee[a.EmployeeID], shift{
		assignment: a,
		demand:     d,
		start:      start,
		end:        end,
		hours:      s.ix.DemandHours(d),
		candidate:  candidate,
	})
}

func checkSkillMatching(r Rule, set *workingSet) []model.ConstraintViolation {
	var out []model.ConstraintViolation
	for _, a := range set.candidates {
		demand, ok := set.ix.Demand(a.DemandID)
		if !ok {
			out = append(out, r.violation(r.Severity, a.EmployeeID, a.DemandID, "",
				"Assignment %s references unknown demand %s", a.ID, a.DemandID))
			continue
		}
		employee, ok := set.ix.Employee(a.EmployeeID)
		if !ok {
			out = append(out, r.violation(r.Severity, a.EmployeeID, a.DemandID, demand.Date,
				"Assignment %s references unknown employee %s", a.ID, a.EmployeeID))
			continue
		}
		if !employee.Active {
			out = append(out, r.violation(r.Severity, a.EmployeeID, a.DemandID, demand.Date,
				"Employee %s is not active", a.EmployeeID))
			continue
		}
		station, ok := set.ix.Station(demand.StationID)
		if !ok {
			out = append(out, r.violation(r.Severity, a.EmployeeID, a.DemandID, demand.Date,
				"Demand %s references unknown station %s", demand.ID, demand.StationID))
			continue
		}
		for _, rs := range set.ix.MissingMandatorySkills(a.EmployeeID, station, demand.Date) {
			level, held := set.ix.SkillLevel(a.EmployeeID, rs.SkillID, demand.Date)
			if !held {
				out = append(out, r.violation(r.Severity, a.EmployeeID, a.DemandID, demand.Date,
					"Employee %s does not hold mandatory skill %s", a.EmployeeID, rs.SkillID))
				continue
			}
			out = append(out, r.violation(r.Severity, a.EmployeeID, a.DemandID, demand.Date,
				"Employee %s holds skill %s at level %d, %d required", a.EmployeeID, rs.SkillID, level, rs.MinLevel))
		}
	}
	return out
}

func checkAbsenceConflict(r Rule, set *workingSet) []model.ConstraintViolation {
	var out []model.ConstraintViolation
	for _, a := range set.candidates {
		demand, ok := set.ix.Demand(a.DemandID)
		if !ok {
			continue
		}
		if absence, absent := set.ix.AbsenceOn(a.EmployeeID, demand.Date); absent {
			out = append(out, r.violation(r.Severity, a.EmployeeID, a.DemandID, demand.Date,
				"Employee %s has an approved %s absence on %s", a.EmployeeID, absenceType(absence), demand.Date))
		}
	}
	return out
}

func absenceType(a model.Absence) string {
	if a.Type == "" {
		return "leave"
	}
	return a.Type
}

func checkDoubleBooking(r Rule, set *workingSet) []model.ConstraintViolation {
	var out []model.ConstraintViolation
	for _, employeeID := range set.employees {
		shifts := set.byEmployee[employeeID]
		for i := 0; i < len(shifts); i++ {
			for j := i + 1; j < len(shifts); j++ {
				a, b := shifts[i], shifts[j]
				if !a.candidate && !b.candidate {
					continue
				}
				sameDemand := a.demand.ID == b.demand.ID
				if !sameDemand && !(a.start.Before(b.end) && b.start.Before(a.end)) {
					continue
				}
				reported := b
				if !b.candidate {
					reported = a
				}
				out = append(out, r.violation(r.Severity, employeeID, reported.demand.ID, reported.demand.Date,
					"Employee %s is double booked on demands %s and %s", employeeID, a.demand.ID, b.demand.ID))
			}
		}
	}
	return out
}

func checkMaxHoursPerDay(r Rule, set *workingSet) []model.ConstraintViolation {
	var out []model.ConstraintViolation
	for _, employeeID := range set.employees {
		employee, ok := set.ix.Employee(employeeID)
		if !ok {
			continue
		}
		limit := employee.DailyLimit()
		if capHours := r.param(ParamMaxHoursPerDay, 0); capHours > 0 && capHours < limit {
			limit = capHours
		}

		for _, g := range groupShifts(set.byEmployee[employeeID], func(s shift) string { return s.demand.Date }) {
			if !g.hasCandidate || g.hours <= limit {
				continue
			}
			out = append(out, r.violation(r.Severity, employeeID, "", g.key,
				"Employee %s works %.1fh on %s, limit is %.1fh", employeeID, g.hours, g.key, limit))
		}
	}
	return out
}

func checkMaxHoursPerWeek(r Rule, set *workingSet) []model.ConstraintViolation {
	var out []model.ConstraintViolation
	legalCap := r.param(ParamMaxWeeklyHours, DefaultMaxWeeklyHours)
	for _, employeeID := range set.employees {
		employee, ok := set.ix.Employee(employeeID)
		if !ok {
			continue
		}

		for _, g := range groupShifts(set.byEmployee[employeeID], func(s shift) string { return isoWeek(s.start) }) {
			if !g.hasCandidate {
				continue
			}
			switch {
			case g.hours > legalCap:
				out = append(out, r.violation(r.Severity, employeeID, "", g.firstDate,
					"Employee %s works %.1fh in week %s, legal cap is %.1fh", employeeID, g.hours, g.key, legalCap))
			case g.hours > employee.ContractHours():
				out = append(out, r.violation(model.SeverityWarning, employeeID, "", g.firstDate,
					"Employee %s works %.1fh in week %s, above %.1fh contract hours", employeeID, g.hours, g.key, employee.ContractHours()))
			}
		}
	}
	return out
}

func checkMinRest(r Rule, set *workingSet) []model.ConstraintViolation {
	var out []model.ConstraintViolation
	for _, employeeID := range set.employees {
		employee, ok := set.ix.Employee(employeeID)
		if !ok {
			continue
		}
		rest := employee.RestHours()
		if floor := r.param(ParamMinRestHours, 0); floor > rest {
			rest = floor
		}

		shifts := set.byEmployee[employeeID]
		for i := 1; i < len(shifts); i++ {
			prev, next := shifts[i-1], shifts[i]
			if !prev.candidate && !next.candidate {
				continue
			}
			gap := next.start.Sub(prev.end)
			// Overlaps are reported as double booking
			if gap < 0 || gap.Hours() >= rest {
				continue
			}
			reported := next
			if !next.candidate {
				reported = prev
			}
			out = append(out, r.violation(r.Severity, employeeID, reported.demand.ID, reported.demand.Date,
				"Employee %s rests %.1fh between demands %s and %s, minimum is %.1fh",
				employeeID, gap.Hours(), prev.demand.ID, next.demand.ID, rest))
		}
	}
	return out
}

func checkMaxConsecutiveDays(r Rule, set *workingSet) []model.ConstraintViolation {
	var out []model.ConstraintViolation
	for _, employeeID := range set.employees {
		employee, ok := set.ix.Employee(employeeID)
		if !ok {
			continue
		}
		limit := employee.Preferences.MaxConsecutiveDays
		if limit <= 0 {
			limit = int(r.param(ParamMaxConsecutiveDays, DefaultMaxConsecutiveDays))
		}

		days := make(map[string]bool)
		for _, s := range set.byEmployee[employeeID] {
			days[s.demand.Date] = days[s.demand.Date] || s.candidate
		}
		dates := make([]string, 0, len(days))
		for d := range days {
			dates = append(dates, d)
		}
		sort.Strings(dates)

		runStart, runLen, runHasCandidate := 0, 0, false
		flush := func(end int) {
			if runLen > limit && runHasCandidate {
				out = append(out, r.violation(r.Severity, employeeID, "", dates[runStart],
					"Employee %s works %d consecutive days from %s to %s, preference is %d",
					employeeID, runLen, dates[runStart], dates[end], limit))
			}
		}
		for i, d := range dates {
			if i > 0 && !nextDay(dates[i-1], d) {
				flush(i - 1)
				runStart, runLen, runHasCandidate = i, 0, false
			}
			runLen++
			runHasCandidate = runHasCandidate || days[d]
		}
		if len(dates) > 0 {
			flush(len(dates) - 1)
		}
	}
	return out
}

func checkWorkloadFairness(r Rule, set *workingSet) []model.ConstraintViolation {
	var hours []float64
	for _, employeeID := range set.employees {
		total, hasCandidate := 0.0, false
		for _, s := range set.byEmployee[employeeID] {
			total += s.hours
			hasCandidate = hasCandidate || s.candidate
		}
		if hasCandidate {
			hours = append(hours, total)
		}
	}
	if len(hours) < 2 {
		return nil
	}

	mean, std := stat.PopMeanStdDev(hours, nil)
	if mean <= 0 {
		return nil
	}
	maxVariation := r.param(ParamMaxVariation, DefaultMaxVariation)
	if cv := std / mean; cv > maxVariation {
		return []model.ConstraintViolation{r.violation(r.Severity, "", "", "",
			"Workload imbalance: hours vary by %.0f%% of the mean %.1fh, limit is %.0f%%", cv*100, mean, maxVariation*100)}
	}
	return nil
}

type shiftGroup struct {
	key          string
	firstDate    string
	hours        float64
	hasCandidate bool
}

// groupShifts sums hours per key, preserving first-seen key order. Shifts
// arrive sorted by start, so firstDate is the earliest date in the group.
func groupShifts(shifts []shift, key func(shift) string) []shiftGroup {
	var groups []shiftGroup
	pos := make(map[string]int)
	for _, s := range shifts {
		k := key(s)
		i, ok := pos[k]
		if !ok {
			i = len(groups)
			pos[k] = i
			groups = append(groups, shiftGroup{key: k, firstDate: s.demand.Date})
		}
		groups[i].hours += s.hours
		groups[i].hasCandidate = groups[i].hasCandidate || s.candidate
	}
	return groups
}

func isoWeek(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func nextDay(prev, next string) bool {
	p, err := time.Parse(model.DateLayout, prev)
	if err != nil {
		return false
	}
	return p.AddDate(0, 0, 1).Format(model.DateLayout) == next
}
