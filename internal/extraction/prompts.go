package extraction

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
)

// extractionSystemPrompt carries the fixed taxonomy of the five entity kinds
// with worked examples. It is embedded in every extraction oracle call so the
// model always answers against the same contract.
const extractionSystemPrompt = `You are a domain modeling expert practicing Event Modeling.
From the provided project and task descriptions, extract a structured domain model.

Return ONLY a JSON object with exactly these keys:

{
  "events": [
    {
      "name": "OrderPlaced",
      "kind": "user_action",
      "description": "A customer completed checkout and placed an order.",
      "actor": "Customer",
      "affected_entity": "Order",
      "source_task_id": "<id of the task this was derived from>",
      "triggers": ["PaymentRequested"]
    }
  ],
  "commands": [
    {
      "name": "PlaceOrder",
      "description": "Submit the current cart as an order.",
      "parameters": ["cart_id", "payment_method"],
      "triggers_events": ["OrderPlaced"],
      "affects_entities": ["Order", "Cart"]
    }
  ],
  "read_models": [
    {
      "name": "OrderSummary",
      "description": "What the customer sees after placing an order.",
      "fields": ["order_id", "total", "status"],
      "data_source": ["OrderPlaced", "PaymentConfirmed"]
    }
  ],
  "user_interactions": [
    {
      "action": "Click 'Place order' on the checkout screen",
      "triggers_command": "PlaceOrder",
      "viewed_read_model": "OrderSummary"
    }
  ],
  "automations": [
    {
      "name": "PaymentProcessor",
      "description": "Charges the customer once an order is placed.",
      "trigger_event": "OrderPlaced",
      "result_events": ["PaymentConfirmed", "PaymentFailed"]
    }
  ]
}

Rules:
- Event names are past-tense facts (OrderPlaced, not PlaceOrder).
- Event "kind" is one of: user_action, system_event, integration, state_change.
- Command names are imperative (PlaceOrder, not OrderPlaced).
- Every command triggers at least one event, and every referenced event must
  appear in "events".
- Every automation has a trigger_event and at least one result_event.
- Set source_task_id to the id of the task a fact was derived from.
- Do not invent functionality that is not implied by the input.`

// consolidationSystemPrompt asks the oracle to close gaps across batches.
const consolidationSystemPrompt = `You are a domain modeling expert practicing Event Modeling.
You are given a domain model that was extracted in independent batches, plus a
sample of the original task descriptions. Batch boundaries may have introduced
gaps: commands referencing events that were never extracted, events no command
produces, missing read models or automations implied by the tasks.

Return the corrected, COMPLETE model as a JSON object with the keys "events",
"commands", "read_models", "user_interactions" and "automations", using the
same entry shapes as the input model. Keep everything that is already
consistent; add or fix only what global coherence requires.`

// buildBatchPrompt renders the user prompt for one extraction batch.
func buildBatchPrompt(projectDescription string, batch []schemas.TaskNode) string {
	var b strings.Builder
	b.WriteString("Project description:\n")
	b.WriteString(projectDescription)
	b.WriteString("\n\nTasks in this batch:\n")
	for _, task := range batch {
		fmt.Fprintf(&b, "- [%s] %s\n", task.ID, task.Description)
		if task.ImplementationDetails != "" {
			fmt.Fprintf(&b, "  implementation notes: %s\n", task.ImplementationDetails)
		}
	}
	b.WriteString("\nExtract the domain model for these tasks.")
	return b.String()
}

// buildDescriptionPrompt renders the user prompt for description-only mode,
// used before task decomposition exists.
func buildDescriptionPrompt(description string) string {
	var b strings.Builder
	b.WriteString("Project description:\n")
	b.WriteString(description)
	b.WriteString("\n\nNo task breakdown exists yet. Extract the domain model from the description alone; leave source_task_id empty.")
	return b.String()
}

// buildConsolidationPrompt summarizes the current model and a bounded sample
// of task descriptions (first 10 and last 10) for the consolidation call.
func buildConsolidationPrompt(model *schemas.EventModel, tasks []schemas.TaskNode) string {
	var b strings.Builder

	counts := model.Counts()
	fmt.Fprintf(&b, "Current model: %d events, %d commands, %d read models, %d user interactions, %d automations.\n\n",
		counts.Events, counts.Commands, counts.ReadModels, counts.UserInteractions, counts.Automations)

	b.WriteString("Sample of task descriptions:\n")
	for _, task := range sampleTasks(tasks, 10) {
		fmt.Fprintf(&b, "- %s\n", task.Description)
	}

	b.WriteString("\nCurrent model JSON:\n")
	b.WriteString(marshalModel(model))
	b.WriteString("\n\nReturn the corrected, complete model.")
	return b.String()
}

// sampleTasks returns the first n and last n tasks; short lists pass through.
func sampleTasks(tasks []schemas.TaskNode, n int) []schemas.TaskNode {
	if len(tasks) <= 2*n {
		return tasks
	}
	out := make([]schemas.TaskNode, 0, 2*n)
	out = append(out, tasks[:n]...)
	out = append(out, tasks[len(tasks)-n:]...)
	return out
}
