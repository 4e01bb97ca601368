package extraction

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
	"github.com/xkilldash9x/eventmodel-cli/internal/llmutil"
)

// Consolidate issues one final oracle pass across the union of all batches to
// close cross-batch gaps. Callers invoke it only when more than one batch was
// processed. Any failure returns the input model unchanged; consolidation
// never loses data.
func (e *Extractor) Consolidate(ctx context.Context, model *schemas.EventModel, tasks []schemas.TaskNode) *schemas.EventModel {
	if err := ctx.Err(); err != nil {
		return model
	}

	response, err := e.oracle.Generate(ctx, schemas.GenerationRequest{
		Messages: []schemas.ChatMessage{
			{Role: schemas.RoleSystem, Content: consolidationSystemPrompt},
			{Role: schemas.RoleUser, Content: buildConsolidationPrompt(model, tasks)},
		},
		Tier: schemas.TierPowerful,
		Options: schemas.GenerationOptions{
			Temperature:     extractionTemperature,
			ForceJSONFormat: true,
		},
	})
	if err != nil {
		e.logger.Warn("Consolidation oracle call failed; keeping pre-consolidation model", zap.Error(err))
		return model
	}

	parsed, err := llmutil.Parse[fiveCollections](response)
	if err != nil {
		e.logger.Warn("Failed to parse consolidation response; keeping pre-consolidation model", zap.Error(err))
		return model
	}

	// A consolidation that drops the entire event set is treated as a failed
	// response, not an instruction to empty the model.
	if len(parsed.Events) == 0 && len(model.Events) > 0 {
		e.logger.Warn("Consolidation returned no events; keeping pre-consolidation model")
		return model
	}

	consolidated := schemas.NewEventModel()
	appendCollections(consolidated, *parsed)

	e.logger.Info("Consolidation complete",
		zap.Int("events", len(consolidated.Events)),
		zap.Int("commands", len(consolidated.Commands)),
		zap.Int("read_models", len(consolidated.ReadModels)))
	return consolidated
}
