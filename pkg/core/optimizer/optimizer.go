package optimizer

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/constraints"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/scoring"
)

// MovedBy is the audit author stamped on assignments the optimizer moves
const MovedBy = "optimizer"

// improvementEpsilon guards strict improvement against float noise
const improvementEpsilon = 1e-9

// Stats summarises one optimization run
type Stats struct {
	Passes       int     `json:"passes"`
	Swaps        int     `json:"swaps"`
	Replacements int     `json:"replacements"`
	InitialScore float64 `json:"initialScore"`
	FinalScore   float64 `json:"finalScore"`
}

// Service refines an assignment set with first-improvement local search.
// The search within one call is sequential: every accepted move is validated
// against the updated set before the next attempt.
type Service struct {
	manager *constraints.Manager
	scorer  *scoring.Scorer
	logger  *zap.Logger
}

// NewService creates an optimizer. A nil logger discards output.
func NewService(manager *constraints.Manager, scorer *scoring.Scorer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{manager: manager, scorer: scorer, logger: logger}
}

// OptimizeAssignments returns an improved copy of assignments
func (s *Service) OptimizeAssignments(ctx context.Context, assignments []model.Assignment, problem *model.SchedulingProblem, maxIterations int) ([]model.Assignment, error) {
	out, _, err := s.Optimize(ctx, assignments, problem, maxIterations)
	return out, err
}

// search is the state of one optimization run
type search struct {
	ix          *model.Index
	demandCount int
	current     []model.Assignment
	blocking    int
	score       float64
}

// Optimize runs at most maxIterations passes. Each pass commits the first
// improving pairwise swap, or failing that the first improving replacement
// with an unassigned employee, and stops when a pass finds neither. Fewer
// than two assignments or maxIterations <= 0 return the input unchanged.
// On cancellation the best set found so far is returned with the error.
func (s *Service) Optimize(ctx context.Context, assignments []model.Assignment, problem *model.SchedulingProblem, maxIterations int) ([]model.Assignment, Stats, error) {
	if len(assignments) < 2 || maxIterations <= 0 {
		score := scoring.AggregateScore(assignments, len(problem.Demands))
		return assignments, Stats{InitialScore: score, FinalScore: score}, nil
	}

	ix := model.NewIndex(problem)
	current := slices.Clone(assignments)
	st := &search{
		ix:          ix,
		demandCount: len(problem.Demands),
		current:     current,
		blocking:    constraints.CountBlocking(s.manager.ValidateAssignments(current, ix)),
		score:       scoring.AggregateScore(current, len(problem.Demands)),
	}
	stats := Stats{InitialScore: st.score}

	s.logger.Debug("Starting optimization",
		zap.Int("assignments", len(current)),
		zap.Int("max_iterations", maxIterations),
		zap.Float64("score", st.score),
		zap.Int("blocking", st.blocking))

	for pass := 0; pass < maxIterations; pass++ {
		if err := ctx.Err(); err != nil {
			stats.FinalScore = st.score
			return st.current, stats, fmt.Errorf("optimization cancelled: %w", err)
		}

		improved, err := s.trySwap(st)
		if err != nil {
			return nil, stats, err
		}
		if improved {
			stats.Swaps++
		} else {
			improved, err = s.tryReplacement(st)
			if err != nil {
				return nil, stats, err
			}
			if improved {
				stats.Replacements++
			}
		}
		if !improved {
			break
		}
		stats.Passes++
	}

	stats.FinalScore = st.score
	s.logger.Info("Optimization completed",
		zap.Int("passes", stats.Passes),
		zap.Int("swaps", stats.Swaps),
		zap.Int("replacements", stats.Replacements),
		zap.Float64("initial_score", stats.InitialScore),
		zap.Float64("final_score", stats.FinalScore))

	return st.current, stats, nil
}

// trySwap commits the first pairwise employee swap that keeps the blocking
// count and strictly raises the aggregate score.
func (s *Service) trySwap(st *search) (bool, error) {
	for i := 0; i < len(st.current); i++ {
		for j := i + 1; j < len(st.current); j++ {
			a, b := st.current[i], st.current[j]
			if !movable(a) || !movable(b) || a.EmployeeID == b.EmployeeID || a.DemandID == b.DemandID {
				continue
			}
			demandA, okA := st.ix.Demand(a.DemandID)
			demandB, okB := st.ix.Demand(b.DemandID)
			if !okA || !okB || !s.eligible(st.ix, b.EmployeeID, demandA) || !s.eligible(st.ix, a.EmployeeID, demandB) {
				continue
			}

			trial := slices.Clone(st.current)
			trial[i].EmployeeID = b.EmployeeID
			trial[j].EmployeeID = a.EmployeeID

			movedA, err := s.rescore(st.ix, a, b.EmployeeID, demandA, trial, fmt.Sprintf("Swapped with assignment %s to raise the plan score", b.ID))
			if err != nil {
				return false, err
			}
			movedB, err := s.rescore(st.ix, b, a.EmployeeID, demandB, trial, fmt.Sprintf("Swapped with assignment %s to raise the plan score", a.ID))
			if err != nil {
				return false, err
			}
			trial[i], trial[j] = movedA, movedB

			if s.accept(st, trial) {
				s.logger.Debug("Accepted swap",
					zap.String("first", a.ID),
					zap.String("second", b.ID),
					zap.Float64("score", st.score))
				return true, nil
			}
		}
	}
	return false, nil
}

// tryReplacement commits the first substitution of an assignment's employee
// by an unassigned qualified employee that strictly raises the aggregate score.
func (s *Service) tryReplacement(st *search) (bool, error) {
	assigned := make(map[string]bool, len(st.current))
	for _, a := range st.current {
		if a.IsActive() {
			assigned[a.EmployeeID] = true
		}
	}

	for i, a := range st.current {
		if !movable(a) {
			continue
		}
		demand, ok := st.ix.Demand(a.DemandID)
		if !ok {
			continue
		}
		for _, e := range st.ix.Problem().Employees {
			if assigned[e.ID] || !s.eligible(st.ix, e.ID, demand) {
				continue
			}

			trial := slices.Clone(st.current)
			trial[i].EmployeeID = e.ID
			score := s.scorer.Score(e, demand, st.ix, trial)
			// Same assignment count, so only a higher score can raise the aggregate
			if score <= a.Score+improvementEpsilon {
				continue
			}
			moved, err := a.Reassign(e.ID, score, fmt.Sprintf("Replaced %s with unassigned %s to raise the plan score", a.EmployeeID, e.ID), MovedBy)
			if err != nil {
				return false, fmt.Errorf("failed to reassign %s: %w", a.ID, err)
			}
			trial[i] = moved

			if s.accept(st, trial) {
				s.logger.Debug("Accepted replacement",
					zap.String("assignment_id", a.ID),
					zap.String("from", a.EmployeeID),
					zap.String("to", e.ID),
					zap.Float64("score", st.score))
				return true, nil
			}
		}
	}
	return false, nil
}

// accept validates the whole trial set and commits it when the blocking
// count does not rise and the aggregate score strictly improves.
func (s *Service) accept(st *search, trial []model.Assignment) bool {
	score := scoring.AggregateScore(trial, st.demandCount)
	if score <= st.score+improvementEpsilon {
		return false
	}
	blocking := constraints.CountBlocking(s.manager.ValidateAssignments(trial, st.ix))
	if blocking > st.blocking {
		return false
	}
	st.current, st.blocking, st.score = trial, blocking, score
	return true
}

func (s *Service) rescore(ix *model.Index, a model.Assignment, employeeID string, demand model.ShiftDemand, trial []model.Assignment, explanation string) (model.Assignment, error) {
	e, ok := ix.Employee(employeeID)
	if !ok {
		return model.Assignment{}, fmt.Errorf("failed to rescore %s: employee %s: %w", a.ID, employeeID, model.ErrNotFound)
	}
	moved, err := a.Reassign(employeeID, s.scorer.Score(e, demand, ix, trial), explanation, MovedBy)
	if err != nil {
		return model.Assignment{}, fmt.Errorf("failed to reassign %s: %w", a.ID, err)
	}
	return moved, nil
}

// eligible is a cheap pre-check that prunes moves full validation would reject
func (s *Service) eligible(ix *model.Index, employeeID string, demand model.ShiftDemand) bool {
	e, ok := ix.Employee(employeeID)
	if !ok || !e.Active {
		return false
	}
	return ix.Qualifies(employeeID, demand) && !ix.IsAbsent(employeeID, demand.Date)
}

// movable reports whether the optimizer may change the assignment
func movable(a model.Assignment) bool {
	return a.Status == model.StatusProposed
}
