package narrative

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const swimlaneSystemPrompt = `You are a domain modeling expert practicing Event Modeling.
Group the given entities into swimlanes by business capability.

Return ONLY a JSON object of this shape:

{
  "swimlanes": [
    {
      "name": "Cart Management",
      "description": "Everything about assembling a cart.",
      "events": ["ItemAdded", "CartCreated"],
      "commands": ["AddItem", "CreateCart"],
      "read_models": ["CartView"],
      "automations": []
    }
  ]
}

Rules:
- Aim for 3 to 8 swimlanes.
- Use ONLY entity names that appear in the input; never invent names.
- Every entity should land in exactly one swimlane.`

const chapterSystemPrompt = `You are a domain modeling expert practicing Event Modeling.
Arrange the given model into narrative chapters. Each chapter is one workflow
made of slices; each slice is one of three shapes and carries Given/When/Then
scenarios.

Return ONLY a JSON object of this shape:

{
  "chapters": [
    {
      "name": "Shopping",
      "description": "A customer assembles and submits a cart.",
      "slices": [
        {
          "type": "state_change",
          "command": "AddItem",
          "events": ["ItemAdded"],
          "gwt_scenarios": [
            {
              "name": "Item added to open cart",
              "given": ["CartCreated"],
              "when": "AddItem",
              "then": ["ItemAdded"]
            }
          ]
        },
        {
          "type": "state_view",
          "read_model": "CartView",
          "source_events": ["ItemAdded"],
          "gwt_scenarios": [
            {"name": "Cart shows items", "given": ["ItemAdded"], "then": ["CartView lists the item"]}
          ]
        },
        {"type": "automation", "automation": "Restocker"}
      ]
    }
  ]
}

Rules:
- Chapters follow the order a user would experience the workflows.
- state_view scenarios omit "when" (Given/Then form).
- Use ONLY command, event, read model and automation names from the input.`

// buildSwimlanePrompt renders a compact textual summary of all entities; the
// full model JSON is deliberately not sent in this pass.
func buildSwimlanePrompt(model *schemas.EventModel) string {
	var b strings.Builder

	writeSection := func(label string, names []string) {
		fmt.Fprintf(&b, "%s (%d):\n", label, len(names))
		for _, name := range names {
			fmt.Fprintf(&b, "- %s\n", name)
		}
		b.WriteString("\n")
	}

	writeSection("Events", eventNames(model))
	writeSection("Commands", commandNames(model))
	writeSection("Read models", readModelNames(model))
	writeSection("Automations", automationNames(model))

	b.WriteString("Group these entities into swimlanes.")
	return b.String()
}

// buildChapterPrompt embeds the whole model for the single-call chapter pass.
func buildChapterPrompt(model *schemas.EventModel) string {
	var b strings.Builder
	b.WriteString("Full model:\n")
	b.WriteString(marshalForPrompt(model))
	b.WriteString("\n\nProduce the chapters for this model.")
	return b.String()
}

// buildSwimlaneChapterPrompt embeds only one swimlane's slice of the model,
// used when the model is too large for a single chapter call.
func buildSwimlaneChapterPrompt(model *schemas.EventModel, lane schemas.Swimlane) string {
	subset := modelSubset(model, lane)
	var b strings.Builder
	fmt.Fprintf(&b, "Swimlane %q: %s\n\n", lane.Name, lane.Description)
	b.WriteString("Entities in this swimlane:\n")
	b.WriteString(marshalForPrompt(subset))
	b.WriteString("\n\nProduce the chapters for this swimlane only.")
	return b.String()
}

// modelSubset projects the five core collections onto one swimlane's members.
func modelSubset(model *schemas.EventModel, lane schemas.Swimlane) *schemas.EventModel {
	subset := schemas.NewEventModel()

	inLane := func(names []string) map[string]bool {
		set := make(map[string]bool, len(names))
		for _, n := range names {
			set[n] = true
		}
		return set
	}
	events, commands, readModels, automations := inLane(lane.Events), inLane(lane.Commands), inLane(lane.ReadModels), inLane(lane.Automations)

	for _, e := range model.Events {
		if events[e.Name] {
			subset.Events = append(subset.Events, e)
		}
	}
	for _, c := range model.Commands {
		if commands[c.Name] {
			subset.Commands = append(subset.Commands, c)
		}
	}
	for _, rm := range model.ReadModels {
		if readModels[rm.Name] {
			subset.ReadModels = append(subset.ReadModels, rm)
		}
	}
	for _, a := range model.Automations {
		if automations[a.Name] {
			subset.Automations = append(subset.Automations, a)
		}
	}
	return subset
}

func marshalForPrompt(model *schemas.EventModel) string {
	b, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

func eventNames(model *schemas.EventModel) []string {
	out := make([]string, len(model.Events))
	for i, e := range model.Events {
		out[i] = e.Name
	}
	return out
}

func commandNames(model *schemas.EventModel) []string {
	out := make([]string, len(model.Commands))
	for i, c := range model.Commands {
		out[i] = c.Name
	}
	return out
}

func readModelNames(model *schemas.EventModel) []string {
	out := make([]string, len(model.ReadModels))
	for i, rm := range model.ReadModels {
		out[i] = rm.Name
	}
	return out
}

func automationNames(model *schemas.EventModel) []string {
	out := make([]string, len(model.Automations))
	for i, a := range model.Automations {
		out[i] = a.Name
	}
	return out
}
