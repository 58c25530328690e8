package constraints

import (
	"fmt"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
)

// Manager validates assignment sets against an ordered list of rules.
// It holds no state besides the rules and is safe for concurrent use.
type Manager struct {
	rules []Rule
}

// NewManager builds a manager from the given specs. An empty spec list
// enables every rule with its default severity and parameters. Specs for the
// same kind override the default in place; disabled specs remove the rule.
func NewManager(specs []model.ConstraintSpec) (*Manager, error) {
	configured := make(map[model.ConstraintKind]model.ConstraintSpec, len(specs))
	for _, spec := range specs {
		if !spec.Kind.IsKnown() {
			return nil, fmt.Errorf("unknown constraint kind %q", spec.Kind)
		}
		configured[spec.Kind] = spec
	}

	rules := make([]Rule, 0, len(model.ConstraintKinds))
	for _, kind := range model.ConstraintKinds {
		spec, ok := configured[kind]
		if !ok {
			spec = model.ConstraintSpec{Kind: kind}
		}
		if spec.Disabled {
			continue
		}
		rule, err := NewRule(spec)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return &Manager{rules: rules}, nil
}

// DefaultManager returns a manager running every rule with defaults
func DefaultManager() *Manager {
	m, err := NewManager(nil)
	if err != nil {
		// Defaults are always valid
		panic(err)
	}
	return m
}

// Rules returns the active rules in evaluation order
func (m *Manager) Rules() []Rule {
	return append([]Rule(nil), m.rules...)
}

// ValidateAssignments runs every rule against the whole candidate set.
// Existing assignments from the problem context count towards aggregate
// limits, but only violations involving a candidate assignment are returned.
func (m *Manager) ValidateAssignments(assignments []model.Assignment, ix *model.Index) []model.ConstraintViolation {
	set := newWorkingSet(assignments, ix)

	var violations []model.ConstraintViolation
	for _, rule := range m.rules {
		violations = append(violations, rule.check(rule, set)...)
	}
	return violations
}

// IsFeasible reports whether the candidate set has no blocking violation
func (m *Manager) IsFeasible(assignments []model.Assignment, ix *model.Index) bool {
	return CountBlocking(m.ValidateAssignments(assignments, ix)) == 0
}

// CountBlocking counts violations with error or critical severity
func CountBlocking(violations []model.ConstraintViolation) int {
	n := 0
	for _, v := range violations {
		if v.IsBlocking() {
			n++
		}
	}
	return n
}

// Blocking filters the blocking violations
func Blocking(violations []model.ConstraintViolation) []model.ConstraintViolation {
	var out []model.ConstraintViolation
	for _, v := range violations {
		if v.IsBlocking() {
			out = append(out, v)
		}
	}
	return out
}

// ForAssignment returns the violations that name the assignment's employee and demand,
// plus the aggregate ones naming only its employee.
func ForAssignment(violations []model.ConstraintViolation, a model.Assignment) []model.ConstraintViolation {
	var out []model.ConstraintViolation
	for _, v := range violations {
		if v.EmployeeID != a.EmployeeID {
			continue
		}
		if v.DemandID == "" || v.DemandID == a.DemandID {
			out = append(out, v)
		}
	}
	return out
}
