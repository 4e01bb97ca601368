package extraction

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
	"github.com/xkilldash9x/eventmodel-cli/internal/config"
	"github.com/xkilldash9x/eventmodel-cli/internal/llmutil"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// extractionTemperature keeps extraction output as deterministic as the
// oracle allows.
const extractionTemperature = 0.2

// fiveCollections is the JSON shape every extraction and consolidation call
// returns: the five core collections and nothing else.
type fiveCollections struct {
	Events           []schemas.DomainEvent     `json:"events"`
	Commands         []schemas.Command         `json:"commands"`
	ReadModels       []schemas.ReadModel       `json:"read_models"`
	UserInteractions []schemas.UserInteraction `json:"user_interactions"`
	Automations      []schemas.Automation      `json:"automations"`
}

// Extractor turns task descriptions into domain entities, one oracle call per
// batch. Oracle and parse failures degrade to empty batch results; the only
// error an extraction returns is context cancellation.
type Extractor struct {
	oracle schemas.OracleClient
	cfg    config.PipelineConfig
	logger *zap.Logger
}

// NewExtractor creates an extractor over the given oracle client.
func NewExtractor(oracle schemas.OracleClient, cfg config.PipelineConfig, logger *zap.Logger) *Extractor {
	return &Extractor{
		oracle: oracle,
		cfg:    cfg,
		logger: logger.Named("extractor"),
	}
}

// ExtractFromTasks runs batched extraction over the task list and returns the
// concatenated (not yet deduplicated) model along with the number of batches
// processed. Batch order is preserved in the output regardless of the
// concurrency mode, so downstream dedup stays deterministic.
func (e *Extractor) ExtractFromTasks(ctx context.Context, projectDescription string, tasks []schemas.TaskNode) (*schemas.EventModel, int, error) {
	batches := SplitBatches(tasks, e.cfg.BatchSize)
	e.logger.Info("Starting batched extraction",
		zap.Int("tasks", len(tasks)),
		zap.Int("batches", len(batches)),
		zap.Bool("parallel", e.cfg.ParallelBatches))

	results := make([]fiveCollections, len(batches))

	if e.cfg.ParallelBatches && len(batches) > 1 {
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(e.cfg.BatchConcurrency)
		for i, batch := range batches {
			i, batch := i, batch
			group.Go(func() error {
				if err := groupCtx.Err(); err != nil {
					return err
				}
				results[i] = e.extractBatch(groupCtx, projectDescription, batch, i)
				return nil
			})
		}
		// The only error a worker returns is context cancellation.
		if err := group.Wait(); err != nil {
			return nil, 0, err
		}
	} else {
		for i, batch := range batches {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
			results[i] = e.extractBatch(ctx, projectDescription, batch, i)
		}
	}

	model := schemas.NewEventModel()
	for _, result := range results {
		appendCollections(model, result)
	}

	e.logger.Info("Batched extraction complete",
		zap.Int("events", len(model.Events)),
		zap.Int("commands", len(model.Commands)),
		zap.Int("read_models", len(model.ReadModels)))
	return model, len(batches), nil
}

// ExtractFromDescription is the single-call, description-only mode used when
// no task decomposition exists yet.
func (e *Extractor) ExtractFromDescription(ctx context.Context, description string) (*schemas.EventModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	model := schemas.NewEventModel()
	result, ok := e.callOracle(ctx, buildDescriptionPrompt(description))
	if !ok {
		e.logger.Warn("Description-only extraction failed; returning empty model")
		return model, nil
	}
	appendCollections(model, result)
	return model, nil
}

// extractBatch performs one oracle call for one batch. Failures of any kind
// produce an empty result so a single bad batch degrades the model instead of
// aborting the run.
func (e *Extractor) extractBatch(ctx context.Context, projectDescription string, batch []schemas.TaskNode, index int) fiveCollections {
	result, ok := e.callOracle(ctx, buildBatchPrompt(projectDescription, batch))
	if !ok {
		e.logger.Warn("Batch extraction failed; continuing with empty batch result", zap.Int("batch", index))
		return fiveCollections{}
	}

	e.logger.Debug("Batch extracted",
		zap.Int("batch", index),
		zap.Int("events", len(result.Events)),
		zap.Int("commands", len(result.Commands)))
	return result
}

// callOracle issues one powerful-tier generation and parses the response.
func (e *Extractor) callOracle(ctx context.Context, userPrompt string) (fiveCollections, bool) {
	response, err := e.oracle.Generate(ctx, schemas.GenerationRequest{
		Messages: []schemas.ChatMessage{
			{Role: schemas.RoleSystem, Content: extractionSystemPrompt},
			{Role: schemas.RoleUser, Content: userPrompt},
		},
		Tier: schemas.TierPowerful,
		Options: schemas.GenerationOptions{
			Temperature:     extractionTemperature,
			ForceJSONFormat: true,
		},
	})
	if err != nil {
		e.logger.Warn("Oracle call failed", zap.Error(err))
		return fiveCollections{}, false
	}

	parsed, err := llmutil.Parse[fiveCollections](response)
	if err != nil {
		e.logger.Warn("Failed to parse extraction response", zap.Error(err))
		return fiveCollections{}, false
	}
	return *parsed, true
}

// appendCollections concatenates a batch result onto the model.
func appendCollections(model *schemas.EventModel, result fiveCollections) {
	model.Events = append(model.Events, result.Events...)
	model.Commands = append(model.Commands, result.Commands...)
	model.ReadModels = append(model.ReadModels, result.ReadModels...)
	model.UserInteractions = append(model.UserInteractions, result.UserInteractions...)
	model.Automations = append(model.Automations, result.Automations...)
}

// marshalModel renders a model for prompt embedding. Marshal failures cannot
// happen for these types; the fallback keeps the call sites simple.
func marshalModel(model *schemas.EventModel) string {
	b, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
