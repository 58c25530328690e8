package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/cmd/cli/commands"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/internal/config"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/clients/sheetsclient"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/planner"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/services"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/solver"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/metrics"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/postgres"
	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/utils/logging"
)

var (
	env        string
	configPath string
	app        = &commands.AppContext{Ctx: context.Background(), Out: os.Stdout}
	registry   = prometheus.NewRegistry()
	database   *postgres.DB
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shiftwise",
		Short: "Shiftwise - plan shift assignments for a workforce",
		Long:  `A CLI tool for generating shift plans, analyzing coverage gaps, simulating what-if scenarios and explaining assignments.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			shutdown()
		},
		SilenceUsage: true,
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "shiftwise.yaml", "Path to the YAML or JSON config file")
	rootCmd.MarkPersistentFlagRequired("env")

	// Add all commands
	rootCmd.AddCommand(commands.PlanCmd(app))
	rootCmd.AddCommand(commands.GapsCmd(app))
	rootCmd.AddCommand(commands.SimulateCmd(app))
	rootCmd.AddCommand(commands.CompareCmd(app))
	rootCmd.AddCommand(commands.ExplainCmd(app))
	rootCmd.AddCommand(commands.PublishCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up config, logger, metrics, pipeline and database
func initApp() error {
	// Load .env files, most specific first; godotenv never overrides set variables
	for _, f := range []string{fmt.Sprintf(".env.%s", env), ".env"} {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	// Load configuration
	cfg, err := config.LoadFromPath(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Environment == "" {
		cfg.Environment = env
	}
	app.Cfg = cfg

	// Initialize logger
	app.Logger, err = logging.InitLogger(env, cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger.Info("Starting application",
		zap.String("environment", env),
		zap.String("config", configPath))

	// Initialize metrics and pipeline
	recorder, err := metrics.NewRecorder(registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	app.Pipeline = planner.NewPipeline(planner.Options{
		Solver:        solver.Options{AllowMultipleAssignments: cfg.Solver.AllowMultipleAssignments},
		MaxIterations: cfg.Optimizer.MaxIterations,
	}, app.Logger, recorder)

	// Initialize database
	if cfg.Database.URL == "" {
		app.Logger.Warn("No database configured - plans will not be saved")
	} else {
		app.Logger.Info("Connecting to database")
		database, err = postgres.NewDB(app.Ctx, cfg.Database.URL, app.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.RunMigrations(app.Ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		app.Database = database
		app.Logger.Info("Database initialized successfully")
	}

	// Sheets client is created on demand
	app.NewPublisher = func(ctx context.Context) (services.PlanPublisher, error) {
		credentials, err := os.ReadFile(cfg.Sheets.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		client, err := sheetsclient.NewClient(ctx, credentials)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	return nil
}

// shutdown writes the metrics textfile and releases resources
func shutdown() {
	if app.Cfg != nil && app.Cfg.Metrics.TextfilePath != "" {
		if err := metrics.WriteTextfile(app.Cfg.Metrics.TextfilePath, registry); err != nil && app.Logger != nil {
			app.Logger.Warn("Failed to write metrics textfile", zap.Error(err))
		}
	}
	if database != nil {
		database.Close()
	}
	if app.Logger != nil {
		app.Logger.Sync()
	}
}
