// Package narrative enriches an extracted model with swimlanes, chapters and
// Given/When/Then scenarios. Both phases are oracle-assisted with layered
// fallbacks: structured parsing first, a best-effort heuristic over prose
// reasoning second, and a synthesized structure last, so the stage always
// produces something downstream stages can use.
package narrative

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
	"github.com/xkilldash9x/eventmodel-cli/internal/config"
	"github.com/xkilldash9x/eventmodel-cli/internal/llmutil"
)

// fallbackSwimlaneName is the single bucket used when every strategy fails.
const fallbackSwimlaneName = "Main"

// otherSwimlaneName collects entities the prose heuristic could not place.
const otherSwimlaneName = "Other"

// Grouper runs the two-phase narrative enrichment.
type Grouper struct {
	oracle schemas.OracleClient
	cfg    config.PipelineConfig
	logger *zap.Logger
}

// NewGrouper creates a grouper over the given oracle client.
func NewGrouper(oracle schemas.OracleClient, cfg config.PipelineConfig, logger *zap.Logger) *Grouper {
	return &Grouper{
		oracle: oracle,
		cfg:    cfg,
		logger: logger.Named("grouper"),
	}
}

type swimlaneResponse struct {
	Swimlanes []schemas.Swimlane `json:"swimlanes"`
}

// AssignSwimlanes groups the model's entities into business-capability
// swimlanes. Never returns an empty result for a non-empty model: on oracle
// or parse failure it degrades through the prose heuristic down to a single
// "Main" swimlane holding everything.
func (g *Grouper) AssignSwimlanes(ctx context.Context, model *schemas.EventModel) []schemas.Swimlane {
	response, err := g.oracle.Generate(ctx, schemas.GenerationRequest{
		Messages: []schemas.ChatMessage{
			{Role: schemas.RoleSystem, Content: swimlaneSystemPrompt},
			{Role: schemas.RoleUser, Content: buildSwimlanePrompt(model)},
		},
		Tier:    schemas.TierFast,
		Options: schemas.GenerationOptions{Temperature: 0.3, ForceJSONFormat: true},
	})
	if err != nil {
		g.logger.Warn("Swimlane oracle call failed; synthesizing a single swimlane", zap.Error(err))
		return []schemas.Swimlane{singleSwimlane(model)}
	}

	// Structured strategies: direct parse plus embedded/fenced JSON inside a
	// longer reasoning text are both covered by the parser's strategy chain.
	if parsed, err := llmutil.Parse[swimlaneResponse](response); err == nil && len(parsed.Swimlanes) > 0 {
		return parsed.Swimlanes
	}

	// Best-effort heuristic: the response is prose reasoning that may still
	// contain "Name - Category" assignments.
	if looksLikeProse(response) {
		if lanes, ok := swimlanesFromProse(response, model); ok {
			g.logger.Warn("Swimlane response was prose; recovered groups heuristically",
				zap.Int("swimlanes", len(lanes)))
			return lanes
		}
	}

	g.logger.Warn("Swimlane response unusable; synthesizing a single swimlane")
	return []schemas.Swimlane{singleSwimlane(model)}
}

// discourseMarkers are openings typical of free-form model reasoning rather
// than a JSON answer.
var discourseMarkers = []string{
	"okay", "ok,", "alright", "sure", "let's", "let me", "first", "looking",
	"i ", "i'", "we ", "to ", "the ", "so ", "here", "based on",
}

// looksLikeProse reports whether the text starts like natural-language
// reasoning instead of a structured answer.
func looksLikeProse(text string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(text))
	if trimmed == "" || strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return false
	}
	for _, marker := range discourseMarkers {
		if strings.HasPrefix(trimmed, marker) {
			return true
		}
	}
	return false
}

// assignmentPattern matches one `Name - Category` assignment per line, with
// optional list bullets and quoting around the entity name.
var assignmentPattern = regexp.MustCompile(`(?m)^\s*(?:[-*\d.]+\s*)?"?([A-Za-z][A-Za-z0-9_]*)"?\s*[-–—:]\s*(.+?)\s*$`)

// swimlanesFromProse extracts "Name - Category" pairs from reasoning text and
// buckets entities by category. This is a documented approximation: it only
// accepts names that exist in the model, and anything unmatched lands in an
// "Other" bucket. Returns false when no assignment was recovered at all.
func swimlanesFromProse(text string, model *schemas.EventModel) ([]schemas.Swimlane, bool) {
	events := model.EventNames()
	commands := model.CommandNames()
	readModels := model.ReadModelNames()
	automations := model.AutomationNames()

	type bucket struct {
		lane  schemas.Swimlane
		index int
	}
	buckets := make(map[string]*bucket)
	order := []string{}
	assigned := make(map[string]bool)

	addTo := func(category, name string) {
		b, ok := buckets[category]
		if !ok {
			b = &bucket{lane: schemas.Swimlane{Name: category}}
			buckets[category] = b
			order = append(order, category)
		}
		switch {
		case events[name]:
			b.lane.Events = append(b.lane.Events, name)
		case commands[name]:
			b.lane.Commands = append(b.lane.Commands, name)
		case readModels[name]:
			b.lane.ReadModels = append(b.lane.ReadModels, name)
		case automations[name]:
			b.lane.Automations = append(b.lane.Automations, name)
		default:
			return
		}
		assigned[name] = true
	}

	matched := false
	for _, m := range assignmentPattern.FindAllStringSubmatch(text, -1) {
		name := m[1]
		category := strings.Trim(strings.TrimSpace(m[2]), `".`)
		if category == "" {
			continue
		}
		if !events[name] && !commands[name] && !readModels[name] && !automations[name] {
			continue
		}
		matched = true
		addTo(category, name)
	}
	if !matched {
		return nil, false
	}

	// Everything the heuristic missed goes into "Other".
	other := schemas.Swimlane{Name: otherSwimlaneName, Description: "Entities not matched by any category"}
	for _, e := range model.Events {
		if !assigned[e.Name] {
			other.Events = append(other.Events, e.Name)
		}
	}
	for _, c := range model.Commands {
		if !assigned[c.Name] {
			other.Commands = append(other.Commands, c.Name)
		}
	}
	for _, rm := range model.ReadModels {
		if !assigned[rm.Name] {
			other.ReadModels = append(other.ReadModels, rm.Name)
		}
	}
	for _, a := range model.Automations {
		if !assigned[a.Name] {
			other.Automations = append(other.Automations, a.Name)
		}
	}

	lanes := make([]schemas.Swimlane, 0, len(order)+1)
	for _, category := range order {
		lanes = append(lanes, buckets[category].lane)
	}
	if len(other.Events)+len(other.Commands)+len(other.ReadModels)+len(other.Automations) > 0 {
		lanes = append(lanes, other)
	}
	return lanes, true
}

// singleSwimlane returns the last-resort structure: one lane with everything.
func singleSwimlane(model *schemas.EventModel) schemas.Swimlane {
	return schemas.Swimlane{
		Name:        fallbackSwimlaneName,
		Description: "All entities (swimlane grouping unavailable)",
		Events:      eventNames(model),
		Commands:    commandNames(model),
		ReadModels:  readModelNames(model),
		Automations: automationNames(model),
	}
}
