package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/simulation"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/snapshot"
)

// SimulateCmd creates the simulate command
func SimulateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "simulate <problem> <scenario>",
		Short: "Simulate a what-if scenario against a problem snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Debug("simulate command",
				zap.String("problem", args[0]),
				zap.String("scenario", args[1]))

			problem, err := app.loadProblem(args[0])
			if err != nil {
				return err
			}
			scenario, err := snapshot.LoadScenario(args[1])
			if err != nil {
				return err
			}

			result, err := simulation.NewService(app.Pipeline, app.Logger).SimulateScenario(app.Ctx, problem, scenario)
			if err != nil {
				return fmt.Errorf("simulation failed: %w", err)
			}

			return app.writeJSON(result)
		},
	}
}

// CompareCmd creates the compare command
func CompareCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <problem> <scenario-a> <scenario-b>",
		Short: "Compare two what-if scenarios and recommend one",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Debug("compare command",
				zap.String("problem", args[0]),
				zap.String("scenario_a", args[1]),
				zap.String("scenario_b", args[2]))

			problem, err := app.loadProblem(args[0])
			if err != nil {
				return err
			}
			a, err := snapshot.LoadScenario(args[1])
			if err != nil {
				return err
			}
			b, err := snapshot.LoadScenario(args[2])
			if err != nil {
				return err
			}

			comparison, err := simulation.NewService(app.Pipeline, app.Logger).CompareScenarios(app.Ctx, problem, a, b)
			if err != nil {
				return fmt.Errorf("comparison failed: %w", err)
			}

			return app.writeJSON(comparison)
		},
	}
}
