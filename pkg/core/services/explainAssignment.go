package services

import (
	"fmt"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/constraints"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/explanation"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/planner"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/scoring"
)

// ExplainAssignment explains why an assignment of a plan was made, listing up
// to topN alternatives. The rules and weights are rebuilt from the problem.
func ExplainAssignment(problem *model.SchedulingProblem, plan *planner.Plan, assignmentID string, topN int) (*explanation.AssignmentExplanation, error) {
	var target *model.Assignment
	for i := range plan.Assignments {
		if plan.Assignments[i].ID == assignmentID {
			target = &plan.Assignments[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("assignment %s: %w", assignmentID, model.ErrNotFound)
	}

	manager, err := constraints.NewManager(problem.Constraints)
	if err != nil {
		return nil, fmt.Errorf("failed to build constraint manager: %w", err)
	}
	scorer := scoring.NewScorer(scoring.WeightsFromObjectives(problem.Objectives))

	c, err := explanation.BuildContext(model.NewIndex(problem), scorer, manager, *target, plan.Assignments, topN)
	if err != nil {
		return nil, fmt.Errorf("failed to build explanation context: %w", err)
	}

	result, err := explanation.NewEngine(topN).GenerateExplanation(c)
	if err != nil {
		return nil, fmt.Errorf("failed to generate explanation: %w", err)
	}
	return result, nil
}
