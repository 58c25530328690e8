package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/planner"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/services"
)

// planOutput is the JSON shape of the plan command
type planOutput struct {
	Plan     *planner.Plan `json:"plan"`
	Feasible bool          `json:"feasible"`
	Saved    bool          `json:"saved"`
}

// PlanCmd creates the plan command
func PlanCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <problem>",
		Short: "Generate a plan proposal for a problem snapshot",
		Long:  "Solve, optimize and analyze a problem file, and store the proposal when a database is configured",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			forceCommit, _ := cmd.Flags().GetBool("force-commit")

			app.Logger.Debug("plan command",
				zap.String("problem", args[0]),
				zap.Bool("dry_run", dryRun),
				zap.Bool("force_commit", forceCommit))

			problem, err := app.loadProblem(args[0])
			if err != nil {
				return err
			}

			var store services.GeneratePlanStore
			if app.Database != nil {
				store = app.Database
			}

			result, err := services.GeneratePlan(app.Ctx, store, problem, app.Pipeline, app.Logger, dryRun, forceCommit)
			if err != nil {
				return fmt.Errorf("planning failed: %w", err)
			}

			return app.writeJSON(planOutput{
				Plan:     result.Plan,
				Feasible: result.Plan.Feasible(),
				Saved:    result.Saved,
			})
		},
	}

	cmd.Flags().Bool("dry-run", false, "Run without saving to database")
	cmd.Flags().Bool("force-commit", false, "Save the plan even if it has blocking violations")

	return cmd
}
