package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
	"github.com/xkilldash9x/eventmodel-cli/internal/observability"
	"github.com/xkilldash9x/eventmodel-cli/internal/oracle"
	"github.com/xkilldash9x/eventmodel-cli/internal/pipeline"
	"github.com/xkilldash9x/eventmodel-cli/internal/reporting"
	"github.com/xkilldash9x/eventmodel-cli/internal/store"
	"github.com/xkilldash9x/eventmodel-cli/internal/taskstore"
)

// newModelCmd creates and configures the `model` command.
func newModelCmd() *cobra.Command {
	modelCmd := &cobra.Command{
		Use:   "model",
		Short: "Runs the full pipeline and produces an event model",
		Long: `Builds a domain model from one of three inputs: a task tree exported to a
JSON file (--tasks), a project stored in the task database (--project-id), or
a free-form description (--description). The assembled model is validated,
repaired if needed, and written in the requested format.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their corresponding Viper keys so command-line
			// flags correctly override the config file and environment.
			if err := viper.BindPFlag("pipeline.batch_size", cmd.Flags().Lookup("batch-size")); err != nil {
				return err
			}
			if err := viper.BindPFlag("pipeline.max_validation_attempts", cmd.Flags().Lookup("repair-attempts")); err != nil {
				return err
			}
			if err := viper.BindPFlag("pipeline.parallel_batches", cmd.Flags().Lookup("parallel")); err != nil {
				return err
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Use the context passed from main.go (signal-aware).
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := appConfig

			// Re-apply the flag overrides bound in PreRunE.
			if err := viper.UnmarshalKey("pipeline", &cfg.Pipeline); err != nil {
				return fmt.Errorf("failed to apply pipeline flag overrides: %w", err)
			}

			tasksFile, _ := cmd.Flags().GetString("tasks")
			projectID, _ := cmd.Flags().GetString("project-id")
			description, _ := cmd.Flags().GetString("description")
			output, _ := cmd.Flags().GetString("output")
			format, _ := cmd.Flags().GetString("format")

			modes := 0
			for _, set := range []bool{tasksFile != "", projectID != "", description != ""} {
				if set {
					modes++
				}
			}
			if modes != 1 {
				return fmt.Errorf("exactly one of --tasks, --project-id or --description is required")
			}

			router, err := oracle.NewRouterFromConfig(cfg.Oracle, logger)
			if err != nil {
				return fmt.Errorf("failed to create oracle client: %w", err)
			}
			defer router.Close()

			p := pipeline.New(router, cfg.Pipeline, pipeline.NewLogSink(logger), logger)

			var (
				model  *schemas.EventModel
				result schemas.ValidationResult
			)
			switch {
			case description != "":
				model, result, err = p.RunFromDescription(ctx, description)
			case tasksFile != "":
				var source *taskstore.FileSource
				source, err = taskstore.NewFileSource(tasksFile)
				if err != nil {
					return err
				}
				model, result, err = p.Run(ctx, source)
			default:
				if cfg.Database.URL == "" {
					return fmt.Errorf("--project-id requires database.url to be configured")
				}
				var pool *pgxpool.Pool
				pool, err = pgxpool.New(ctx, cfg.Database.URL)
				if err != nil {
					return fmt.Errorf("failed to connect to database: %w", err)
				}
				defer pool.Close()

				var source *taskstore.PostgresSource
				source, err = taskstore.NewPostgresSource(ctx, pool, projectID, logger)
				if err != nil {
					return err
				}
				model, result, err = p.Run(ctx, source)
			}
			if err != nil {
				return err
			}

			run := pipeline.NewRun(projectID, model, result)
			persistRun(ctx, cfg.Database.URL, run, logger)

			reporter, err := reporting.New(format, output)
			if err != nil {
				return err
			}
			defer reporter.Close()
			if err := reporter.Write(run); err != nil {
				return err
			}

			if !result.Valid {
				logger.Warn("Model completed with residual validation errors",
					zap.Int("errors", len(result.Errors())))
			}
			return nil
		},
	}

	modelCmd.Flags().String("tasks", "", "path to a JSON task tree export")
	modelCmd.Flags().String("project-id", "", "project ID to load from the task database")
	modelCmd.Flags().String("description", "", "free-form project description (single-call mode)")
	modelCmd.Flags().StringP("output", "o", "", "output path (default stdout)")
	modelCmd.Flags().StringP("format", "f", "json", "output format: json or markdown")
	modelCmd.Flags().Int("batch-size", 0, "tasks per extraction batch (overrides config)")
	modelCmd.Flags().Int("repair-attempts", 0, "validation attempt budget (overrides config)")
	modelCmd.Flags().Bool("parallel", false, "extract batches concurrently")

	return modelCmd
}

// persistRun saves the run when a database is configured. Persistence is
// fire-and-forget: a failure is logged but never fails the command.
func persistRun(ctx context.Context, databaseURL string, run *schemas.ModelRun, logger *zap.Logger) {
	if databaseURL == "" {
		return
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Warn("Failed to connect to database; run not persisted", zap.Error(err))
		return
	}
	defer pool.Close()

	s, err := store.New(ctx, pool, logger)
	if err != nil {
		logger.Warn("Failed to open run store; run not persisted", zap.Error(err))
		return
	}
	if err := s.EnsureSchema(ctx); err != nil {
		logger.Warn("Failed to ensure run schema; run not persisted", zap.Error(err))
		return
	}
	if err := s.SaveRun(ctx, run); err != nil {
		logger.Warn("Failed to persist run", zap.Error(err))
	}
}
