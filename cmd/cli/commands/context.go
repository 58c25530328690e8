package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/internal/config"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/planner"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/services"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/db"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/snapshot"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Pipeline *planner.Pipeline
	Logger   *zap.Logger
	Ctx      context.Context
	Out      io.Writer

	// Database is nil when no database URL is configured
	Database db.PlanStore

	// NewPublisher builds the sheets publisher on first use so that commands
	// which never publish do not need credentials
	NewPublisher func(ctx context.Context) (services.PlanPublisher, error)
}

// loadProblem reads a problem file and adds the configured demand patterns
func (app *AppContext) loadProblem(path string) (*model.SchedulingProblem, error) {
	problem, err := snapshot.LoadProblem(path)
	if err != nil {
		return nil, err
	}
	if len(app.Cfg.DemandPatterns) > 0 {
		if err := snapshot.ApplyPatterns(problem, app.Cfg.DemandPatterns); err != nil {
			return nil, fmt.Errorf("failed to apply configured demand patterns: %w", err)
		}
	}
	app.Logger.Debug("Problem loaded",
		zap.String("path", path),
		zap.Int("demands", len(problem.Demands)),
		zap.Int("employees", len(problem.Employees)))
	return problem, nil
}

// writeJSON prints v as indented JSON
func (app *AppContext) writeJSON(v any) error {
	enc := json.NewEncoder(app.Out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
