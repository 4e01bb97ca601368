package validation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
)

// cartModel is a minimal well-formed model: two events produced by one
// command.
func cartModel() *schemas.EventModel {
	model := schemas.NewEventModel()
	model.Events = append(model.Events,
		schemas.DomainEvent{Name: "ItemAdded", Kind: schemas.EventKindUserAction},
		schemas.DomainEvent{Name: "CartCreated", Kind: schemas.EventKindStateChange},
	)
	model.Commands = append(model.Commands,
		schemas.Command{Name: "AddItem", TriggersEvents: []string{"CartCreated", "ItemAdded"}},
	)
	return model
}

func byCategory(result schemas.ValidationResult, category schemas.IssueCategory) []schemas.ValidationIssue {
	var out []schemas.ValidationIssue
	for _, issue := range result.Issues {
		if issue.Category == category {
			out = append(out, issue)
		}
	}
	return out
}

func TestValidateWellFormedModel(t *testing.T) {
	result := Validate(cartModel())

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors())

	// The only acceptable issue is the missing-read-model warning.
	require.Len(t, result.Issues, 1)
	assert.Equal(t, schemas.CategoryReadModels, result.Issues[0].Category)
	assert.Equal(t, schemas.SeverityWarning, result.Issues[0].Severity)
}

func TestValidateEmptyTriggersIsExactlyOneMappingError(t *testing.T) {
	model := cartModel()
	model.Commands[0].TriggersEvents = nil

	result := Validate(model)

	assert.False(t, result.Valid)
	mapping := byCategory(result, schemas.CategoryMapping)
	require.Len(t, mapping, 1)
	assert.Equal(t, schemas.SeverityError, mapping[0].Severity)
	assert.Equal(t, "AddItem", mapping[0].Details["command"])
}

func TestValidateUnknownTriggeredEvent(t *testing.T) {
	model := cartModel()
	model.Commands[0].TriggersEvents = append(model.Commands[0].TriggersEvents, "ShipOrder")

	result := Validate(model)

	assert.False(t, result.Valid)
	mapping := byCategory(result, schemas.CategoryMapping)
	require.Len(t, mapping, 1)
	assert.Equal(t, schemas.SeverityError, mapping[0].Severity)
	assert.Equal(t, "ShipOrder", mapping[0].Details["missing_event"])
}

func TestValidateOrphanDetection(t *testing.T) {
	cases := []struct {
		kind        schemas.EventKind
		wantOrphans int
	}{
		{schemas.EventKindSystem, 1},
		{schemas.EventKindUserAction, 1},
		{schemas.EventKindIntegration, 0},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			model := cartModel()
			model.Events = append(model.Events,
				schemas.DomainEvent{Name: "InvoiceGenerated", Kind: tc.kind})

			result := Validate(model)

			orphans := byCategory(result, schemas.CategoryOrphaned)
			require.Len(t, orphans, tc.wantOrphans)
			if tc.wantOrphans > 0 {
				assert.Equal(t, schemas.SeverityError, orphans[0].Severity)
				assert.Equal(t, "InvoiceGenerated", orphans[0].Details["event"])
			}
		})
	}
}

func TestValidateEmptyModel(t *testing.T) {
	result := Validate(schemas.NewEventModel())

	assert.False(t, result.Valid)
	completeness := byCategory(result, schemas.CategoryCompleteness)
	require.Len(t, completeness, 2)
	for _, issue := range completeness {
		assert.Equal(t, schemas.SeverityError, issue.Severity)
	}
}

func TestValidateReadModelCoverage(t *testing.T) {
	model := cartModel()
	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("UpdateThing%d", i)
		model.Commands = append(model.Commands,
			schemas.Command{Name: name, TriggersEvents: []string{"ItemAdded"}})
	}

	result := Validate(model)

	coverage := byCategory(result, schemas.CategoryReadModels)
	require.Len(t, coverage, 1)
	assert.Equal(t, schemas.SeverityError, coverage[0].Severity)

	model.ReadModels = append(model.ReadModels, schemas.ReadModel{Name: "CartView"})
	assert.Empty(t, byCategory(Validate(model), schemas.CategoryReadModels))
}

func TestValidateNamingHeuristics(t *testing.T) {
	model := cartModel()
	model.Events = append(model.Events,
		schemas.DomainEvent{Name: "ProcessOrder", Kind: schemas.EventKindSystem})
	model.Commands = append(model.Commands,
		schemas.Command{Name: "OrderStuff", TriggersEvents: []string{"ProcessOrder"}})

	result := Validate(model)

	naming := byCategory(result, schemas.CategoryNaming)
	require.Len(t, naming, 2)
	assert.Equal(t, "ProcessOrder", naming[0].Details["event"])
	assert.Equal(t, "OrderStuff", naming[1].Details["command"])
	for _, issue := range naming {
		assert.Equal(t, schemas.SeverityWarning, issue.Severity)
	}
}

func TestValidateInteractionIntegrity(t *testing.T) {
	model := cartModel()
	model.UserInteractions = append(model.UserInteractions,
		schemas.UserInteraction{Action: "Click add", TriggersCommand: "AddItem"},
		schemas.UserInteraction{Action: "Click ghost", TriggersCommand: "NoSuchCommand", ViewedReadModel: "NoSuchView"},
	)

	result := Validate(model)

	interactions := byCategory(result, schemas.CategoryInteractions)
	require.Len(t, interactions, 2)
	assert.Equal(t, "NoSuchCommand", interactions[0].Details["missing_command"])
	assert.Equal(t, "NoSuchView", interactions[1].Details["missing_read_model"])
}

func TestValidateAutomationValidity(t *testing.T) {
	model := cartModel()
	model.Automations = append(model.Automations,
		schemas.Automation{Name: "GhostTrigger", TriggerEvent: "NoSuchEvent", ResultEvents: []string{"ItemAdded"}},
		schemas.Automation{Name: "NoResults", TriggerEvent: "ItemAdded"},
		schemas.Automation{Name: "GhostResult", TriggerEvent: "CartCreated", ResultEvents: []string{"NoSuchEvent"}},
	)

	result := Validate(model)

	autos := byCategory(result, schemas.CategoryAutomations)
	require.Len(t, autos, 3)
	for _, issue := range autos {
		assert.Equal(t, schemas.SeverityError, issue.Severity)
	}
	assert.Equal(t, "NoSuchEvent", autos[0].Details["missing_event"])
	assert.Equal(t, "NoResults", autos[1].Details["automation"])
	assert.Equal(t, "NoSuchEvent", autos[2].Details["missing_event"])
}

func TestValidateSliceBalance(t *testing.T) {
	model := cartModel()
	model.ReadModels = append(model.ReadModels,
		schemas.ReadModel{Name: "CartView"},
		schemas.ReadModel{Name: "CartHistory"},
		schemas.ReadModel{Name: "CartTotals"},
	)

	result := Validate(model)

	balance := byCategory(result, schemas.CategoryBalance)
	require.Len(t, balance, 2)
	assert.Equal(t, schemas.SeverityError, balance[0].Severity)
	assert.Equal(t, schemas.SeverityWarning, balance[1].Severity)
}

func TestValidateEventFlow(t *testing.T) {
	t.Run("high dead-end ratio with automations is an error", func(t *testing.T) {
		model := cartModel()
		model.Events = append(model.Events,
			schemas.DomainEvent{Name: "OrderPlaced", Kind: schemas.EventKindUserAction},
			schemas.DomainEvent{Name: "OrderShipped", Kind: schemas.EventKindSystem},
		)
		model.Commands[0].TriggersEvents = []string{"CartCreated", "ItemAdded", "OrderPlaced", "OrderShipped"}
		model.Automations = append(model.Automations,
			schemas.Automation{Name: "ShipOnOrder", TriggerEvent: "OrderPlaced", ResultEvents: []string{"OrderShipped"}})

		result := Validate(model)

		flow := byCategory(result, schemas.CategoryFlow)
		require.Len(t, flow, 1)
		assert.Equal(t, schemas.SeverityError, flow[0].Severity)
	})

	t.Run("no automations never yields the ratio error", func(t *testing.T) {
		result := Validate(cartModel())
		assert.Empty(t, byCategory(result, schemas.CategoryFlow))
	})

	t.Run("many dead ends with few automations is a warning", func(t *testing.T) {
		model := cartModel()
		var names []string
		for i := 0; i < 4; i++ {
			name := fmt.Sprintf("ThingChanged%d", i)
			model.Events = append(model.Events,
				schemas.DomainEvent{Name: name, Kind: schemas.EventKindSystem})
			names = append(names, name)
		}
		model.Commands[0].TriggersEvents = append(model.Commands[0].TriggersEvents, names...)

		result := Validate(model)

		flow := byCategory(result, schemas.CategoryFlow)
		require.Len(t, flow, 1)
		assert.Equal(t, schemas.SeverityWarning, flow[0].Severity)
	})
}

func chapterWithEvents(name string, events ...string) schemas.Chapter {
	return schemas.Chapter{
		Name: name,
		Slices: []schemas.Slice{
			{Type: schemas.SliceStateChange, Name: name, Events: events},
		},
	}
}

func TestValidateChapterConnectivity(t *testing.T) {
	t.Run("isolated chapters are an error", func(t *testing.T) {
		model := cartModel()
		model.Chapters = append(model.Chapters,
			chapterWithEvents("Shopping", "ItemAdded"),
			chapterWithEvents("Checkout", "CartCreated"),
			chapterWithEvents("Fulfillment"),
		)

		result := Validate(model)

		chapters := byCategory(result, schemas.CategoryChapters)
		require.Len(t, chapters, 1)
		assert.Equal(t, schemas.SeverityError, chapters[0].Severity)
	})

	t.Run("connected chapters pass", func(t *testing.T) {
		model := cartModel()
		model.Chapters = append(model.Chapters,
			chapterWithEvents("Shopping", "ItemAdded"),
			chapterWithEvents("Checkout", "CartCreated"),
		)
		model.Automations = append(model.Automations,
			schemas.Automation{Name: "CartInitializer", TriggerEvent: "ItemAdded", ResultEvents: []string{"CartCreated"}})

		result := Validate(model)

		assert.Empty(t, byCategory(result, schemas.CategoryChapters))
	})

	t.Run("sparse connections are a warning", func(t *testing.T) {
		model := cartModel()
		model.Chapters = append(model.Chapters,
			chapterWithEvents("Shopping", "ItemAdded"),
			chapterWithEvents("Checkout", "CartCreated"),
		)

		result := Validate(model)

		chapters := byCategory(result, schemas.CategoryChapters)
		require.Len(t, chapters, 1)
		assert.Equal(t, schemas.SeverityWarning, chapters[0].Severity)
	})

	t.Run("single chapter is exempt", func(t *testing.T) {
		model := cartModel()
		model.Chapters = append(model.Chapters, chapterWithEvents("Shopping", "ItemAdded"))
		assert.Empty(t, byCategory(Validate(model), schemas.CategoryChapters))
	})
}

func TestValidateSwimlaneIntegrity(t *testing.T) {
	t.Run("unknown references are errors", func(t *testing.T) {
		model := cartModel()
		model.Swimlanes = append(model.Swimlanes,
			schemas.Swimlane{Name: "Shopping", Events: []string{"ItemAdded", "NoSuchEvent"}, Commands: []string{"AddItem"}},
			schemas.Swimlane{Name: "Checkout", Events: []string{"CartCreated"}, Commands: []string{"AddItem"}},
		)

		result := Validate(model)

		var errors []schemas.ValidationIssue
		for _, issue := range byCategory(result, schemas.CategorySwimlanes) {
			if issue.Severity == schemas.SeverityError {
				errors = append(errors, issue)
			}
		}
		require.Len(t, errors, 1)
		assert.Equal(t, "NoSuchEvent", errors[0].Details["missing"])
	})

	t.Run("empty lanes and single-lane partition are flagged", func(t *testing.T) {
		model := cartModel()
		model.Swimlanes = append(model.Swimlanes, schemas.Swimlane{Name: "Everything"})

		result := Validate(model)

		lanes := byCategory(result, schemas.CategorySwimlanes)
		var severities []schemas.Severity
		for _, issue := range lanes {
			severities = append(severities, issue.Severity)
		}
		// No events, no commands or automations, unassigned events and
		// commands, single lane.
		assert.Contains(t, severities, schemas.SeverityWarning)
		assert.Contains(t, severities, schemas.SeverityInfo)
	})

	t.Run("absent swimlanes are exempt", func(t *testing.T) {
		assert.Empty(t, byCategory(Validate(cartModel()), schemas.CategorySwimlanes))
	})
}
