package extraction

import "github.com/xkilldash9x/eventmodel-cli/api/schemas"

// mergedSourceTasksKey is the metadata key collecting the source task ids of
// duplicate events dropped during dedup.
const mergedSourceTasksKey = "merged_source_tasks"

// Dedup merges duplicate entities across batches. Pure and deterministic for
// a fixed input order: the first occurrence always wins, so earlier batches
// take precedence. Identity keys: events, commands, read models and
// automations by name; user interactions by (action, triggers_command).
// Running Dedup on its own output is a no-op.
func Dedup(model *schemas.EventModel) *schemas.EventModel {
	out := schemas.NewEventModel()

	seenEvents := make(map[string]int, len(model.Events))
	for _, event := range model.Events {
		if keptIdx, ok := seenEvents[event.Name]; ok {
			mergeEventProvenance(&out.Events[keptIdx], event)
			continue
		}
		seenEvents[event.Name] = len(out.Events)
		out.Events = append(out.Events, event)
	}

	seenCommands := make(map[string]bool, len(model.Commands))
	for _, command := range model.Commands {
		if seenCommands[command.Name] {
			continue
		}
		seenCommands[command.Name] = true
		out.Commands = append(out.Commands, command)
	}

	seenReadModels := make(map[string]bool, len(model.ReadModels))
	for _, readModel := range model.ReadModels {
		if seenReadModels[readModel.Name] {
			continue
		}
		seenReadModels[readModel.Name] = true
		out.ReadModels = append(out.ReadModels, readModel)
	}

	seenAutomations := make(map[string]bool, len(model.Automations))
	for _, automation := range model.Automations {
		if seenAutomations[automation.Name] {
			continue
		}
		seenAutomations[automation.Name] = true
		out.Automations = append(out.Automations, automation)
	}

	type interactionKey struct{ action, command string }
	seenInteractions := make(map[interactionKey]bool, len(model.UserInteractions))
	for _, interaction := range model.UserInteractions {
		key := interactionKey{interaction.Action, interaction.TriggersCommand}
		if seenInteractions[key] {
			continue
		}
		seenInteractions[key] = true
		out.UserInteractions = append(out.UserInteractions, interaction)
	}

	// Enrichment collections pass through untouched; dedup runs before any
	// of them are populated.
	out.Swimlanes = append(out.Swimlanes, model.Swimlanes...)
	out.Chapters = append(out.Chapters, model.Chapters...)
	out.Wireframes = append(out.Wireframes, model.Wireframes...)
	out.DataFlow = append(out.DataFlow, model.DataFlow...)

	return out
}

// mergeEventProvenance folds a dropped duplicate's source task id into the
// kept event's metadata. The kept event's metadata map is copied before the
// first write so the input model is never mutated.
func mergeEventProvenance(kept *schemas.DomainEvent, dropped schemas.DomainEvent) {
	if dropped.SourceTaskID == "" || dropped.SourceTaskID == kept.SourceTaskID {
		return
	}

	metadata := make(map[string]interface{}, len(kept.Metadata)+1)
	for k, v := range kept.Metadata {
		metadata[k] = v
	}

	var merged []string
	switch existing := metadata[mergedSourceTasksKey].(type) {
	case []string:
		merged = append(merged, existing...)
	case []interface{}:
		// Metadata that round-tripped through JSON decodes as []interface{}.
		for _, v := range existing {
			if s, ok := v.(string); ok {
				merged = append(merged, s)
			}
		}
	}

	for _, id := range merged {
		if id == dropped.SourceTaskID {
			kept.Metadata = metadata
			return
		}
	}
	metadata[mergedSourceTasksKey] = append(merged, dropped.SourceTaskID)
	kept.Metadata = metadata
}
