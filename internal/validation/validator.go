// Package validation checks an assembled event model against structural and
// stylistic rules. Validation is pure and deterministic: it never calls the
// oracle and never mutates the model. A model is valid iff no rule produced an
// error-severity issue.
package validation

import (
	"fmt"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
)

// Swimlane count bounds outside of which the partition is flagged.
const (
	minSwimlanes = 2
	maxSwimlanes = 10
)

// Validate runs every rule group over the model and returns the combined
// result.
func Validate(model *schemas.EventModel) schemas.ValidationResult {
	var issues []schemas.ValidationIssue

	issues = append(issues, checkCompleteness(model)...)
	issues = append(issues, checkCommandMappings(model)...)
	issues = append(issues, checkNaming(model)...)
	issues = append(issues, checkReadModelCoverage(model)...)
	issues = append(issues, checkInteractions(model)...)
	issues = append(issues, checkAutomations(model)...)
	issues = append(issues, checkBalance(model)...)
	issues = append(issues, checkOrphanedEvents(model)...)
	issues = append(issues, checkEventFlow(model)...)
	issues = append(issues, checkChapterConnectivity(model)...)
	issues = append(issues, checkSwimlanes(model)...)

	result := schemas.ValidationResult{Valid: true, Issues: issues}
	for _, issue := range issues {
		if issue.Severity == schemas.SeverityError {
			result.Valid = false
			break
		}
	}
	return result
}

func issue(severity schemas.Severity, category schemas.IssueCategory, message string, details map[string]interface{}) schemas.ValidationIssue {
	return schemas.ValidationIssue{
		Severity: severity,
		Category: category,
		Message:  message,
		Details:  details,
	}
}

// checkCompleteness requires at least one event and one command.
func checkCompleteness(model *schemas.EventModel) []schemas.ValidationIssue {
	var issues []schemas.ValidationIssue
	if len(model.Events) == 0 {
		issues = append(issues, issue(schemas.SeverityError, schemas.CategoryCompleteness,
			"model contains no events", nil))
	}
	if len(model.Commands) == 0 {
		issues = append(issues, issue(schemas.SeverityError, schemas.CategoryCompleteness,
			"model contains no commands", nil))
	}
	return issues
}

// checkCommandMappings requires every command to trigger at least one event,
// and every triggered event to exist.
func checkCommandMappings(model *schemas.EventModel) []schemas.ValidationIssue {
	var issues []schemas.ValidationIssue
	events := model.EventNames()
	for _, cmd := range model.Commands {
		if len(cmd.TriggersEvents) == 0 {
			issues = append(issues, issue(schemas.SeverityError, schemas.CategoryMapping,
				fmt.Sprintf("command %q triggers no events", cmd.Name),
				map[string]interface{}{"command": cmd.Name}))
			continue
		}
		for _, name := range cmd.TriggersEvents {
			if !events[name] {
				issues = append(issues, issue(schemas.SeverityError, schemas.CategoryMapping,
					fmt.Sprintf("command %q triggers unknown event %q", cmd.Name, name),
					map[string]interface{}{"command": cmd.Name, "missing_event": name}))
			}
		}
	}
	return issues
}

// checkNaming applies the past-tense and imperative-verb heuristics.
func checkNaming(model *schemas.EventModel) []schemas.ValidationIssue {
	var issues []schemas.ValidationIssue
	for _, event := range model.Events {
		if !looksPastTense(event.Name) {
			issues = append(issues, issue(schemas.SeverityWarning, schemas.CategoryNaming,
				fmt.Sprintf("event %q does not read as a past-tense fact", event.Name),
				map[string]interface{}{"event": event.Name}))
		}
	}
	for _, cmd := range model.Commands {
		if !looksImperative(cmd.Name) {
			issues = append(issues, issue(schemas.SeverityWarning, schemas.CategoryNaming,
				fmt.Sprintf("command %q does not start with an imperative verb", cmd.Name),
				map[string]interface{}{"command": cmd.Name}))
		}
	}
	return issues
}

// checkReadModelCoverage flags models whose query side lags behind the
// command side. A model with no read models at all is always flagged; with
// five or more commands it becomes an error because no outcome is observable.
func checkReadModelCoverage(model *schemas.EventModel) []schemas.ValidationIssue {
	commands := len(model.Commands)
	if len(model.ReadModels) > 0 {
		return nil
	}
	severity := schemas.SeverityWarning
	if commands >= 5 {
		severity = schemas.SeverityError
	}
	return []schemas.ValidationIssue{issue(severity, schemas.CategoryReadModels,
		fmt.Sprintf("%d commands but no read models", commands),
		map[string]interface{}{"commands": commands})}
}

// checkInteractions requires every user interaction to reference existing
// commands and read models.
func checkInteractions(model *schemas.EventModel) []schemas.ValidationIssue {
	var issues []schemas.ValidationIssue
	commands := model.CommandNames()
	readModels := model.ReadModelNames()
	for _, ui := range model.UserInteractions {
		if !commands[ui.TriggersCommand] {
			issues = append(issues, issue(schemas.SeverityError, schemas.CategoryInteractions,
				fmt.Sprintf("interaction %q triggers unknown command %q", ui.Action, ui.TriggersCommand),
				map[string]interface{}{"interaction": ui.Action, "missing_command": ui.TriggersCommand}))
		}
		if ui.ViewedReadModel != "" && !readModels[ui.ViewedReadModel] {
			issues = append(issues, issue(schemas.SeverityError, schemas.CategoryInteractions,
				fmt.Sprintf("interaction %q views unknown read model %q", ui.Action, ui.ViewedReadModel),
				map[string]interface{}{"interaction": ui.Action, "missing_read_model": ui.ViewedReadModel}))
		}
	}
	return issues
}

// checkAutomations requires every automation to consume an existing trigger
// event and produce at least one existing result event.
func checkAutomations(model *schemas.EventModel) []schemas.ValidationIssue {
	var issues []schemas.ValidationIssue
	events := model.EventNames()
	for _, auto := range model.Automations {
		if !events[auto.TriggerEvent] {
			issues = append(issues, issue(schemas.SeverityError, schemas.CategoryAutomations,
				fmt.Sprintf("automation %q triggers on unknown event %q", auto.Name, auto.TriggerEvent),
				map[string]interface{}{"automation": auto.Name, "missing_event": auto.TriggerEvent}))
		}
		if len(auto.ResultEvents) == 0 {
			issues = append(issues, issue(schemas.SeverityError, schemas.CategoryAutomations,
				fmt.Sprintf("automation %q produces no result events", auto.Name),
				map[string]interface{}{"automation": auto.Name}))
			continue
		}
		for _, name := range auto.ResultEvents {
			if !events[name] {
				issues = append(issues, issue(schemas.SeverityError, schemas.CategoryAutomations,
					fmt.Sprintf("automation %q produces unknown event %q", auto.Name, name),
					map[string]interface{}{"automation": auto.Name, "missing_event": name}))
			}
		}
	}
	return issues
}

// checkBalance flags lopsided models: a single command surrounded by many
// other slices, or read models far outnumbering commands.
func checkBalance(model *schemas.EventModel) []schemas.ValidationIssue {
	var issues []schemas.ValidationIssue
	commands := len(model.Commands)
	otherSlices := len(model.ReadModels) + len(model.Automations)
	if commands == 1 && otherSlices > 1 {
		issues = append(issues, issue(schemas.SeverityError, schemas.CategoryBalance,
			fmt.Sprintf("only 1 command against %d other slices; the write side is underspecified", otherSlices),
			map[string]interface{}{"commands": commands, "other_slices": otherSlices}))
	}
	if commands > 0 && len(model.ReadModels) > 2*commands {
		issues = append(issues, issue(schemas.SeverityWarning, schemas.CategoryBalance,
			fmt.Sprintf("%d read models against %d commands", len(model.ReadModels), commands),
			map[string]interface{}{"commands": commands, "read_models": len(model.ReadModels)}))
	}
	return issues
}

// checkOrphanedEvents requires every non-integration event to be produced by
// some command or automation. Integration events arrive from outside and are
// exempt.
func checkOrphanedEvents(model *schemas.EventModel) []schemas.ValidationIssue {
	produced := make(map[string]bool)
	for _, cmd := range model.Commands {
		for _, name := range cmd.TriggersEvents {
			produced[name] = true
		}
	}
	for _, auto := range model.Automations {
		for _, name := range auto.ResultEvents {
			produced[name] = true
		}
	}

	var issues []schemas.ValidationIssue
	for _, event := range model.Events {
		if event.Kind == schemas.EventKindIntegration {
			continue
		}
		if !produced[event.Name] {
			issues = append(issues, issue(schemas.SeverityError, schemas.CategoryOrphaned,
				fmt.Sprintf("event %q is never produced by a command or automation", event.Name),
				map[string]interface{}{"event": event.Name}))
		}
	}
	return issues
}

// checkEventFlow measures how many events are dead ends, i.e. never consumed
// as an automation trigger.
func checkEventFlow(model *schemas.EventModel) []schemas.ValidationIssue {
	if len(model.Events) == 0 {
		return nil
	}
	consumed := make(map[string]bool, len(model.Automations))
	for _, auto := range model.Automations {
		consumed[auto.TriggerEvent] = true
	}
	deadEnds := 0
	for _, event := range model.Events {
		if !consumed[event.Name] {
			deadEnds++
		}
	}

	var issues []schemas.ValidationIssue
	ratio := float64(deadEnds) / float64(len(model.Events))
	if len(model.Automations) > 0 && ratio > 0.5 {
		issues = append(issues, issue(schemas.SeverityError, schemas.CategoryFlow,
			fmt.Sprintf("%d of %d events are dead ends; the model has almost no onward flow", deadEnds, len(model.Events)),
			map[string]interface{}{"dead_ends": deadEnds, "events": len(model.Events)}))
	}
	if deadEnds > 3 && len(model.Automations) < 2 {
		issues = append(issues, issue(schemas.SeverityWarning, schemas.CategoryFlow,
			fmt.Sprintf("%d dead-end events with only %d automations", deadEnds, len(model.Automations)),
			map[string]interface{}{"dead_ends": deadEnds, "automations": len(model.Automations)}))
	}
	return issues
}

// checkChapterConnectivity requires workflows to feed into each other: an
// automation whose trigger lives in one chapter and whose results live in
// another counts as a cross-chapter connection.
func checkChapterConnectivity(model *schemas.EventModel) []schemas.ValidationIssue {
	if len(model.Chapters) <= 1 {
		return nil
	}

	// Map each event name to the chapters whose slices mention it.
	eventChapters := make(map[string]map[string]bool)
	record := func(event, chapter string) {
		if eventChapters[event] == nil {
			eventChapters[event] = make(map[string]bool)
		}
		eventChapters[event][chapter] = true
	}
	for _, chapter := range model.Chapters {
		for _, slice := range chapter.Slices {
			for _, name := range slice.Events {
				record(name, chapter.Name)
			}
			for _, name := range slice.SourceEvents {
				record(name, chapter.Name)
			}
		}
	}

	connections := make(map[[2]string]bool)
	for _, auto := range model.Automations {
		for from := range eventChapters[auto.TriggerEvent] {
			for _, result := range auto.ResultEvents {
				for to := range eventChapters[result] {
					if from != to {
						connections[[2]string{from, to}] = true
					}
				}
			}
		}
	}

	var issues []schemas.ValidationIssue
	switch {
	case len(connections) == 0 && len(model.Chapters) > 2:
		issues = append(issues, issue(schemas.SeverityError, schemas.CategoryChapters,
			fmt.Sprintf("%d chapters with no cross-chapter connections; the workflows are isolated islands", len(model.Chapters)),
			map[string]interface{}{"chapters": len(model.Chapters)}))
	case len(connections) < len(model.Chapters)-1:
		issues = append(issues, issue(schemas.SeverityWarning, schemas.CategoryChapters,
			fmt.Sprintf("only %d cross-chapter connections for %d chapters", len(connections), len(model.Chapters)),
			map[string]interface{}{"chapters": len(model.Chapters), "connections": len(connections)}))
	}
	return issues
}

// checkSwimlanes verifies referential integrity of the swimlane partition and
// flags lanes or categories that suggest the grouping went wrong.
func checkSwimlanes(model *schemas.EventModel) []schemas.ValidationIssue {
	if len(model.Swimlanes) == 0 {
		return nil
	}

	var issues []schemas.ValidationIssue
	events := model.EventNames()
	commands := model.CommandNames()
	readModels := model.ReadModelNames()
	automations := model.AutomationNames()

	assignedEvents := make(map[string]bool)
	assignedCommands := make(map[string]bool)
	assignedReadModels := make(map[string]bool)
	assignedAutomations := make(map[string]bool)

	checkRefs := func(lane string, kind string, refs []string, known map[string]bool, assigned map[string]bool) {
		for _, name := range refs {
			if !known[name] {
				issues = append(issues, issue(schemas.SeverityError, schemas.CategorySwimlanes,
					fmt.Sprintf("swimlane %q references unknown %s %q", lane, kind, name),
					map[string]interface{}{"swimlane": lane, "kind": kind, "missing": name}))
				continue
			}
			assigned[name] = true
		}
	}

	for _, lane := range model.Swimlanes {
		checkRefs(lane.Name, "event", lane.Events, events, assignedEvents)
		checkRefs(lane.Name, "command", lane.Commands, commands, assignedCommands)
		checkRefs(lane.Name, "read model", lane.ReadModels, readModels, assignedReadModels)
		checkRefs(lane.Name, "automation", lane.Automations, automations, assignedAutomations)

		if len(lane.Events) == 0 {
			issues = append(issues, issue(schemas.SeverityWarning, schemas.CategorySwimlanes,
				fmt.Sprintf("swimlane %q contains no events", lane.Name),
				map[string]interface{}{"swimlane": lane.Name}))
		}
		if len(lane.Commands) == 0 && len(lane.Automations) == 0 {
			issues = append(issues, issue(schemas.SeverityWarning, schemas.CategorySwimlanes,
				fmt.Sprintf("swimlane %q contains no commands or automations", lane.Name),
				map[string]interface{}{"swimlane": lane.Name}))
		}
	}

	checkCoverage := func(kind string, total int, assigned map[string]bool) {
		if total == 0 {
			return
		}
		unassigned := total - len(assigned)
		if float64(unassigned)/float64(total) > 0.2 {
			issues = append(issues, issue(schemas.SeverityInfo, schemas.CategorySwimlanes,
				fmt.Sprintf("%d of %d %ss are not assigned to any swimlane", unassigned, total, kind),
				map[string]interface{}{"kind": kind, "unassigned": unassigned, "total": total}))
		}
	}
	checkCoverage("event", len(model.Events), assignedEvents)
	checkCoverage("command", len(model.Commands), assignedCommands)
	checkCoverage("read model", len(model.ReadModels), assignedReadModels)
	checkCoverage("automation", len(model.Automations), assignedAutomations)

	switch {
	case len(model.Swimlanes) < minSwimlanes:
		issues = append(issues, issue(schemas.SeverityInfo, schemas.CategorySwimlanes,
			fmt.Sprintf("only %d swimlane; the model was not meaningfully partitioned", len(model.Swimlanes)),
			map[string]interface{}{"swimlanes": len(model.Swimlanes)}))
	case len(model.Swimlanes) > maxSwimlanes:
		issues = append(issues, issue(schemas.SeverityWarning, schemas.CategorySwimlanes,
			fmt.Sprintf("%d swimlanes; the partition is likely too fine-grained", len(model.Swimlanes)),
			map[string]interface{}{"swimlanes": len(model.Swimlanes)}))
	}
	return issues
}
