// Package repair runs the bounded correction loop over a validated model. The
// controller alternates validation and oracle-assisted repair until the model
// is valid or the attempt budget is exhausted; it never raises, and the final
// validation result is always attached to the outcome.
package repair

import (
	"context"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
	"github.com/xkilldash9x/eventmodel-cli/internal/config"
	"github.com/xkilldash9x/eventmodel-cli/internal/llmutil"
	"github.com/xkilldash9x/eventmodel-cli/internal/validation"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// state of the repair loop. Transitions: Validating -> Done when valid or
// attempts exhausted, Validating -> Repairing -> Validating otherwise.
type state int

const (
	stateValidating state = iota
	stateRepairing
	stateDone
)

const repairSystemPrompt = `You are an Event Modeling expert repairing a domain model that failed
validation. You will receive the full model as JSON and a list of structural
errors, each with suggested fixes.

Apply the smallest set of changes that resolves every error. Do not invent
unrelated entities and do not drop entities that are not involved in an error.

Return ONLY the complete corrected model as a JSON object with the keys
"events", "commands", "read_models", "user_interactions", "automations",
"swimlanes", "chapters", "wireframes" and "data_flow".`

// Controller drives the validate/repair state machine.
type Controller struct {
	oracle      schemas.OracleClient
	maxAttempts int
	logger      *zap.Logger
}

// NewController creates a controller bounded by cfg.MaxValidationAttempts.
func NewController(oracle schemas.OracleClient, cfg config.PipelineConfig, logger *zap.Logger) *Controller {
	return &Controller{
		oracle:      oracle,
		maxAttempts: cfg.MaxValidationAttempts,
		logger:      logger.Named("repair_controller"),
	}
}

// Run validates the model and, while errors remain and attempts are left,
// asks the oracle for a corrected model. For a budget of N validation
// attempts, at most N-1 repair calls are made. The returned model is the last
// one produced (the input model if every repair failed to parse) together
// with the result of its final validation.
func (c *Controller) Run(ctx context.Context, model *schemas.EventModel) (*schemas.EventModel, schemas.ValidationResult) {
	current := model
	var result schemas.ValidationResult

	st := stateValidating
	for attempt := 1; st != stateDone; attempt++ {
		result = validation.Validate(current)
		if result.Valid {
			c.logger.Info("Model is valid", zap.Int("attempt", attempt))
			st = stateDone
			continue
		}
		if attempt >= c.maxAttempts {
			c.logger.Warn("Attempt budget exhausted; proceeding with residual errors",
				zap.Int("attempts", attempt),
				zap.Int("errors", len(result.Errors())))
			st = stateDone
			continue
		}
		if err := ctx.Err(); err != nil {
			c.logger.Warn("Repair loop cancelled", zap.Error(err))
			st = stateDone
			continue
		}

		st = stateRepairing
		c.logger.Info("Repairing model",
			zap.Int("attempt", attempt),
			zap.Int("errors", len(result.Errors())))
		if repaired := c.repair(ctx, current, result.Errors()); repaired != nil {
			current = repaired
		}
		st = stateValidating
	}

	return current, result
}

// repair issues one oracle call for a corrected model. A nil return means the
// call or parse failed and the caller should keep the prior model.
func (c *Controller) repair(ctx context.Context, model *schemas.EventModel, errors []schemas.ValidationIssue) *schemas.EventModel {
	response, err := c.oracle.Generate(ctx, schemas.GenerationRequest{
		Messages: []schemas.ChatMessage{
			{Role: schemas.RoleSystem, Content: repairSystemPrompt},
			{Role: schemas.RoleUser, Content: buildRepairPrompt(model, errors)},
		},
		Tier:    schemas.TierPowerful,
		Options: schemas.GenerationOptions{Temperature: 0.2, ForceJSONFormat: true},
	})
	if err != nil {
		c.logger.Warn("Repair oracle call failed; keeping prior model", zap.Error(err))
		return nil
	}

	repaired, err := llmutil.Parse[schemas.EventModel](response)
	if err != nil {
		c.logger.Warn("Failed to parse repaired model; keeping prior model", zap.Error(err))
		return nil
	}
	return repaired
}

// buildRepairPrompt serializes the model and lists every error with its
// category-specific fix menu.
func buildRepairPrompt(model *schemas.EventModel, errors []schemas.ValidationIssue) string {
	var b strings.Builder
	b.WriteString("Current model:\n")
	payload, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		payload = []byte("{}")
	}
	b.Write(payload)

	b.WriteString("\n\nValidation errors to fix:\n")
	for i, e := range errors {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, e.Category, e.Message)
		for _, fix := range suggestedFixes(e) {
			fmt.Fprintf(&b, "   - %s\n", fix)
		}
	}
	b.WriteString("\nReturn the complete corrected model.")
	return b.String()
}

// suggestedFixes returns the fix menu for one error, keyed by its category.
func suggestedFixes(e schemas.ValidationIssue) []string {
	switch e.Category {
	case schemas.CategoryCompleteness:
		return []string{
			"add the missing entities inferred from the rest of the model",
		}
	case schemas.CategoryMapping:
		if missing, ok := e.Details["missing_event"].(string); ok {
			return []string{
				fmt.Sprintf("add an event named %q", missing),
				"redirect the command to an existing event",
			}
		}
		return []string{
			"add a triggered event describing the command's outcome",
			"remove the command if it has no observable effect",
		}
	case schemas.CategoryReadModels:
		return []string{
			"add read models projecting the most important events",
		}
	case schemas.CategoryInteractions:
		return []string{
			"point the interaction at an existing command or read model",
			"add the missing command or read model",
		}
	case schemas.CategoryAutomations:
		return []string{
			"point the automation at existing events",
			"add the missing trigger or result events",
			"remove the automation if it serves no purpose",
		}
	case schemas.CategoryBalance:
		return []string{
			"add commands for the write-side operations implied by the read models",
		}
	case schemas.CategoryOrphaned:
		return []string{
			"add a command or automation that produces the event",
			"reclassify the event as an integration event if it arrives from outside",
			"remove the event if nothing produces it",
		}
	case schemas.CategoryFlow:
		return []string{
			"add automations that react to the dead-end events",
		}
	case schemas.CategoryChapters:
		return []string{
			"add automations connecting events across chapters",
			"merge chapters that describe the same workflow",
		}
	case schemas.CategorySwimlanes:
		return []string{
			"fix the swimlane references to use existing entity names",
			"rebalance the swimlane assignments",
		}
	}
	return []string{"adjust the model so the error no longer applies"}
}
