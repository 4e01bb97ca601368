// Package pipeline wires the extraction, enrichment, validation and repair
// stages into one sequential run. Stages execute strictly in order; each
// oracle-backed stage degrades to an empty or unchanged result on failure, so
// the only errors a run can return are task-source failures and context
// cancellation.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
	"github.com/xkilldash9x/eventmodel-cli/internal/config"
	"github.com/xkilldash9x/eventmodel-cli/internal/extraction"
	"github.com/xkilldash9x/eventmodel-cli/internal/narrative"
	"github.com/xkilldash9x/eventmodel-cli/internal/repair"
	"github.com/xkilldash9x/eventmodel-cli/internal/wireframe"
)

// Pipeline runs the full model-building sequence over one task source.
type Pipeline struct {
	extractor  *extraction.Extractor
	grouper    *narrative.Grouper
	generator  *wireframe.Generator
	controller *repair.Controller
	sink       schemas.ProgressSink
	logger     *zap.Logger
}

// New assembles a pipeline from the oracle client and configuration. A nil
// sink disables progress reporting.
func New(oracle schemas.OracleClient, cfg config.PipelineConfig, sink schemas.ProgressSink, logger *zap.Logger) *Pipeline {
	if sink == nil {
		sink = NopSink{}
	}
	return &Pipeline{
		extractor:  extraction.NewExtractor(oracle, cfg, logger),
		grouper:    narrative.NewGrouper(oracle, cfg, logger),
		generator:  wireframe.NewGenerator(oracle, logger),
		controller: repair.NewController(oracle, cfg, logger),
		sink:       sink,
		logger:     logger.Named("pipeline"),
	}
}

// Run builds a model from the tasks in the source and returns it with its
// final validation result.
func (p *Pipeline) Run(ctx context.Context, source schemas.TaskSource) (*schemas.EventModel, schemas.ValidationResult, error) {
	projectContext, err := source.ProjectContext(ctx)
	if err != nil {
		return nil, schemas.ValidationResult{}, fmt.Errorf("reading project context: %w", err)
	}
	tasks, err := source.Tasks(ctx)
	if err != nil {
		return nil, schemas.ValidationResult{}, fmt.Errorf("reading tasks: %w", err)
	}

	started := time.Now()
	p.logger.Info("Pipeline starting", zap.Int("tasks", len(tasks)))

	model, batches, err := p.extractor.ExtractFromTasks(ctx, projectContext, tasks)
	if err != nil {
		return nil, schemas.ValidationResult{}, err
	}
	model = extraction.Dedup(model)
	p.sink.StageCompleted(ctx, schemas.StageExtraction, model.Counts())

	if batches > 1 {
		if err := ctx.Err(); err != nil {
			return nil, schemas.ValidationResult{}, err
		}
		model = p.extractor.Consolidate(ctx, model, tasks)
		p.sink.StageCompleted(ctx, schemas.StageConsolidation, model.Counts())
	}

	return p.enrich(ctx, model, started)
}

// RunFromDescription builds a model from a single free-form description.
func (p *Pipeline) RunFromDescription(ctx context.Context, description string) (*schemas.EventModel, schemas.ValidationResult, error) {
	started := time.Now()
	p.logger.Info("Pipeline starting from description")

	model, err := p.extractor.ExtractFromDescription(ctx, description)
	if err != nil {
		return nil, schemas.ValidationResult{}, err
	}
	model = extraction.Dedup(model)
	p.sink.StageCompleted(ctx, schemas.StageExtraction, model.Counts())

	return p.enrich(ctx, model, started)
}

// enrich runs the post-extraction stages shared by both entry points.
func (p *Pipeline) enrich(ctx context.Context, model *schemas.EventModel, started time.Time) (*schemas.EventModel, schemas.ValidationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, schemas.ValidationResult{}, err
	}
	model.Swimlanes = p.grouper.AssignSwimlanes(ctx, model)
	p.sink.StageCompleted(ctx, schemas.StageSwimlanes, model.Counts())

	if err := ctx.Err(); err != nil {
		return nil, schemas.ValidationResult{}, err
	}
	model.Chapters = p.grouper.GenerateChapters(ctx, model, model.Swimlanes)
	p.sink.StageCompleted(ctx, schemas.StageChapters, model.Counts())

	if err := ctx.Err(); err != nil {
		return nil, schemas.ValidationResult{}, err
	}
	model.Wireframes, model.DataFlow = p.generator.Generate(ctx, model)
	p.sink.StageCompleted(ctx, schemas.StageWireframes, model.Counts())

	if err := ctx.Err(); err != nil {
		return nil, schemas.ValidationResult{}, err
	}
	model, result := p.controller.Run(ctx, model)
	p.sink.StageCompleted(ctx, schemas.StageValidation, model.Counts())
	p.sink.StageCompleted(ctx, schemas.StageRepair, model.Counts())

	p.logger.Info("Pipeline finished",
		zap.Bool("valid", result.Valid),
		zap.Int("issues", len(result.Issues)),
		zap.Duration("elapsed", time.Since(started)))
	return model, result, nil
}

// NewRun packages a finished pipeline result for persistence.
func NewRun(projectID string, model *schemas.EventModel, result schemas.ValidationResult) *schemas.ModelRun {
	return &schemas.ModelRun{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		Model:      model,
		Validation: result,
		CreatedAt:  time.Now().UTC(),
	}
}
