package solver

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/constraints"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/scoring"
)

// CreatedBy is the audit author stamped on solver assignments
const CreatedBy = "greedy-solver"

// Options tune the greedy solver
type Options struct {
	// AllowMultipleAssignments lets one employee fill several demands in a solve.
	// Hour and rest limits are then left to the constraint rules.
	AllowMultipleAssignments bool

	// CreatedBy overrides the audit author of new assignments
	CreatedBy string
}

// Result is the outcome of one solve. Unfilled demands are gaps, not failures.
type Result struct {
	Success       bool                        `json:"success"`
	Assignments   []model.Assignment          `json:"assignments"`
	Violations    []model.ConstraintViolation `json:"violations"`
	Score         float64                     `json:"score"`
	ExecutionTime time.Duration               `json:"executionTime"`
	Iterations    int                         `json:"iterations"`
}

// GreedySolver fills demands in priority order with the best scoring feasible candidate
type GreedySolver struct {
	manager *constraints.Manager
	scorer  *scoring.Scorer
	logger  *zap.Logger
	opts    Options
}

// NewGreedySolver creates a solver. A nil logger discards output.
func NewGreedySolver(manager *constraints.Manager, scorer *scoring.Scorer, logger *zap.Logger, opts Options) *GreedySolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.CreatedBy == "" {
		opts.CreatedBy = CreatedBy
	}
	return &GreedySolver{manager: manager, scorer: scorer, logger: logger, opts: opts}
}

type pairKey struct {
	employeeID string
	demandID   string
}

type candidate struct {
	employee model.Employee
	score    float64
}

// solveState holds the working collections of a single solve
type solveState struct {
	ix         *model.Index
	working    []model.Assignment
	blocking   int
	used       map[string]bool
	infeasible map[pairKey]bool
	iterations int
}

// Solve builds an initial assignment set for the problem
func (s *GreedySolver) Solve(ctx context.Context, problem *model.SchedulingProblem) (*Result, error) {
	start := time.Now()
	s.logger.Debug("Starting greedy solve",
		zap.Int("demands", len(problem.Demands)),
		zap.Int("employees", len(problem.Employees)))

	state := &solveState{
		ix:         model.NewIndex(problem),
		used:       make(map[string]bool),
		infeasible: make(map[pairKey]bool),
	}

	// Step 1: Order demands by priority, keeping input order for ties
	demands := slices.Clone(problem.Demands)
	sort.SliceStable(demands, func(i, j int) bool {
		return demands[i].Priority.Weight() > demands[j].Priority.Weight()
	})

	// Step 2: Fill each demand up to its required count
	for _, demand := range demands {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("solve cancelled: %w", err)
		}
		if err := s.fillDemand(state, demand); err != nil {
			return nil, err
		}
	}

	violations := s.manager.ValidateAssignments(state.working, state.ix)
	result := &Result{
		Success:       true,
		Assignments:   state.working,
		Violations:    violations,
		Score:         scoring.AggregateScore(state.working, len(problem.Demands)),
		ExecutionTime: time.Since(start),
		Iterations:    state.iterations,
	}

	s.logger.Info("Greedy solve completed",
		zap.Int("assignments", len(result.Assignments)),
		zap.Int("violations", len(result.Violations)),
		zap.Int("iterations", result.Iterations),
		zap.Float64("score", result.Score),
		zap.Duration("duration", result.ExecutionTime))

	return result, nil
}

func (s *GreedySolver) fillDemand(state *solveState, demand model.ShiftDemand) error {
	station, ok := state.ix.Station(demand.StationID)
	if !ok {
		s.logger.Warn("Demand references unknown station, leaving unfilled",
			zap.String("demand_id", demand.ID),
			zap.String("station_id", demand.StationID))
		return nil
	}
	if _, ok := state.ix.Template(demand.ShiftTemplateID); !ok {
		s.logger.Warn("Demand references unknown shift template, leaving unfilled",
			zap.String("demand_id", demand.ID),
			zap.String("shift_template_id", demand.ShiftTemplateID))
		return nil
	}

	needed := demand.RequiredCount - state.ix.ExistingCount(demand.ID)
	for slot := 0; slot < needed; slot++ {
		ranked := s.rankCandidates(state, demand)
		assigned, err := s.assignBest(state, demand, station, slot, ranked)
		if err != nil {
			return err
		}
		if !assigned {
			s.logger.Debug("No feasible candidate, demand left short",
				zap.String("demand_id", demand.ID),
				zap.Int("filled", slot),
				zap.Int("needed", needed))
			return nil
		}
	}
	return nil
}

// rankCandidates scores the candidate pool, best first. Ties keep the
// employee order of the problem.
func (s *GreedySolver) rankCandidates(state *solveState, demand model.ShiftDemand) []candidate {
	var ranked []candidate
	for _, e := range state.ix.Problem().Employees {
		if !s.isCandidate(state, e, demand) {
			continue
		}
		state.iterations++
		ranked = append(ranked, candidate{
			employee: e,
			score:    s.scorer.Score(e, demand, state.ix, state.working),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	return ranked
}

func (s *GreedySolver) isCandidate(state *solveState, e model.Employee, demand model.ShiftDemand) bool {
	if !e.Active {
		return false
	}
	if state.infeasible[pairKey{employeeID: e.ID, demandID: demand.ID}] {
		return false
	}
	if s.opts.AllowMultipleAssignments {
		for _, a := range state.working {
			if a.EmployeeID == e.ID && a.DemandID == demand.ID {
				return false
			}
		}
	} else if state.used[e.ID] {
		return false
	}
	return state.ix.Qualifies(e.ID, demand) && !state.ix.IsAbsent(e.ID, demand.Date)
}

// assignBest tries candidates in rank order, keeping the first one whose
// addition does not add a blocking violation to the working set.
func (s *GreedySolver) assignBest(state *solveState, demand model.ShiftDemand, station model.Station, slot int, ranked []candidate) (bool, error) {
	for _, c := range ranked {
		a, err := model.NewAssignment(model.AssignmentParams{
			ID:          model.SlotAssignmentID(demand.ID, slot),
			DemandID:    demand.ID,
			EmployeeID:  c.employee.ID,
			Score:       c.score,
			Explanation: selectionExplanation(c, demand, station, len(ranked)),
			CreatedBy:   s.opts.CreatedBy,
		})
		if err != nil {
			return false, fmt.Errorf("failed to build assignment for demand %s: %w", demand.ID, err)
		}

		trial := append(slices.Clip(state.working), a)
		blocking := constraints.CountBlocking(s.manager.ValidateAssignments(trial, state.ix))
		if blocking > state.blocking {
			state.infeasible[pairKey{employeeID: c.employee.ID, demandID: demand.ID}] = true
			s.logger.Debug("Candidate rejected by constraints",
				zap.String("demand_id", demand.ID),
				zap.String("employee_id", c.employee.ID),
				zap.Int("blocking", blocking))
			continue
		}

		state.working = trial
		state.blocking = blocking
		state.used[c.employee.ID] = true
		s.logger.Debug("Assigned employee",
			zap.String("demand_id", demand.ID),
			zap.String("employee_id", c.employee.ID),
			zap.Float64("score", c.score))
		return true, nil
	}
	return false, nil
}

func selectionExplanation(c candidate, demand model.ShiftDemand, station model.Station, poolSize int) string {
	return fmt.Sprintf("Selected %s for %s (%s priority) on %s: best feasible score %.1f among %d candidates",
		displayName(c.employee), stationLabel(station), demand.Priority, demand.Date, c.score, poolSize)
}

func displayName(e model.Employee) string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}

func stationLabel(s model.Station) string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}
