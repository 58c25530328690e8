package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/services"
)

// ExplainCmd creates the explain command
func ExplainCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <problem> <assignment-id>",
		Short: "Explain why an assignment was made and which alternatives were rejected",
		Long:  "Plan the problem without saving, then explain the assignment with the given id. Use --list to print the assignment ids of the plan.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, _ := cmd.Flags().GetBool("list")
			top, _ := cmd.Flags().GetInt("top")
			if top <= 0 {
				top = app.Cfg.Explanation.Alternatives
			}

			app.Logger.Debug("explain command",
				zap.Strings("args", args),
				zap.Int("top", top),
				zap.Bool("list", list))

			if !list && len(args) != 2 {
				return fmt.Errorf("an assignment id is required unless --list is set")
			}

			problem, err := app.loadProblem(args[0])
			if err != nil {
				return err
			}

			plan, err := app.Pipeline.Run(app.Ctx, problem)
			if err != nil {
				return fmt.Errorf("planning failed: %w", err)
			}

			if list {
				return app.writeJSON(plan.Assignments)
			}

			explanation, err := services.ExplainAssignment(problem, plan, args[1], top)
			if err != nil {
				return fmt.Errorf("explanation failed: %w", err)
			}

			return app.writeJSON(explanation)
		},
	}

	cmd.Flags().Int("top", 0, "Number of alternatives to explain (defaults to the configured value)")
	cmd.Flags().Bool("list", false, "List the assignments of the plan instead of explaining one")

	return cmd
}
