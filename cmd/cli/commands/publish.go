package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/services"
)

// PublishCmd creates the publish command
func PublishCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish [plan-id]",
		Short: "Publish a stored plan to the plan spreadsheet (defaults to the latest plan)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var planID string
			if len(args) > 0 {
				planID = args[0]
			}
			app.Logger.Debug("publish command", zap.String("plan_id", planID))

			if app.Database == nil {
				return fmt.Errorf("publishing needs a database: set database.url in the config")
			}
			if app.Cfg.Sheets.SpreadsheetID == "" || app.NewPublisher == nil {
				return fmt.Errorf("publishing needs sheets.spreadsheetID and sheets.credentialsFile in the config")
			}

			publisher, err := app.NewPublisher(app.Ctx)
			if err != nil {
				return fmt.Errorf("failed to create sheets client: %w", err)
			}

			published, err := services.PublishPlan(app.Ctx, app.Database, publisher, app.Cfg.Sheets.SpreadsheetID, planID, app.Logger)
			if err != nil {
				return err
			}

			return app.writeJSON(published)
		},
	}
}
