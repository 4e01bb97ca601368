package cmd

import (
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
	"github.com/xkilldash9x/eventmodel-cli/internal/observability"
	"github.com/xkilldash9x/eventmodel-cli/internal/pipeline"
	"github.com/xkilldash9x/eventmodel-cli/internal/reporting"
	"github.com/xkilldash9x/eventmodel-cli/internal/store"
	"github.com/xkilldash9x/eventmodel-cli/internal/validation"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// newReportCmd creates and configures the `report` command.
func newReportCmd() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Re-validates a saved model and renders a report",
		Long: `Loads a previously produced model, either from a JSON file (--input) or
from the run store (--run-id), runs validation offline without any oracle
calls, and writes the report in the requested format.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := appConfig

			input, _ := cmd.Flags().GetString("input")
			runID, _ := cmd.Flags().GetString("run-id")
			output, _ := cmd.Flags().GetString("output")
			format, _ := cmd.Flags().GetString("format")

			if (input == "") == (runID == "") {
				return fmt.Errorf("exactly one of --input or --run-id is required")
			}

			var run *schemas.ModelRun
			if input != "" {
				data, err := os.ReadFile(input)
				if err != nil {
					return fmt.Errorf("failed to read model file: %w", err)
				}
				var model schemas.EventModel
				if err := json.Unmarshal(data, &model); err != nil {
					return fmt.Errorf("failed to parse model file %q: %w", input, err)
				}
				run = pipeline.NewRun("", &model, validation.Validate(&model))
			} else {
				if cfg.Database.URL == "" {
					return fmt.Errorf("--run-id requires database.url to be configured")
				}
				pool, err := pgxpool.New(ctx, cfg.Database.URL)
				if err != nil {
					return fmt.Errorf("failed to connect to database: %w", err)
				}
				defer pool.Close()

				s, err := store.New(ctx, pool, logger)
				if err != nil {
					return err
				}
				run, err = s.GetRun(ctx, runID)
				if err != nil {
					return err
				}
				// Validation rules may have changed since the run was saved.
				run.Validation = validation.Validate(run.Model)
			}

			logger.Info("Model re-validated",
				zap.Bool("valid", run.Validation.Valid),
				zap.Int("issues", len(run.Validation.Issues)))

			reporter, err := reporting.New(format, output)
			if err != nil {
				return err
			}
			defer reporter.Close()
			return reporter.Write(run)
		},
	}

	reportCmd.Flags().String("input", "", "path to a model JSON file")
	reportCmd.Flags().String("run-id", "", "run ID to load from the run store")
	reportCmd.Flags().StringP("output", "o", "", "output path (default stdout)")
	reportCmd.Flags().StringP("format", "f", "markdown", "output format: json or markdown")

	return reportCmd
}
