package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/coverage"
)

// gapsOutput is the JSON shape of the gaps command
type gapsOutput struct {
	Coverage coverage.Report         `json:"coverage"`
	Impact   coverage.ImpactAnalysis `json:"impact"`
}

// GapsCmd creates the gaps command
func GapsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "gaps <problem>",
		Short: "Report coverage gaps and recommended actions for a problem snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Debug("gaps command", zap.String("problem", args[0]))

			problem, err := app.loadProblem(args[0])
			if err != nil {
				return err
			}

			plan, err := app.Pipeline.Run(app.Ctx, problem)
			if err != nil {
				return fmt.Errorf("coverage analysis failed: %w", err)
			}

			return app.writeJSON(gapsOutput{Coverage: plan.Coverage, Impact: plan.Impact})
		},
	}
}
