package narrative

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
	"github.com/xkilldash9x/eventmodel-cli/internal/llmutil"
)

type chapterResponse struct {
	Chapters []schemas.Chapter `json:"chapters"`
}

// GenerateChapters produces the narrative chapters with example scenarios.
// Small models (commands + read models within the configured threshold) go in
// one whole-model call; larger models are batched per swimlane, with chapter
// names prefixed by the swimlane name. Failed calls fall back to chapters
// synthesized from swimlane membership with fixed scenario templates.
func (g *Grouper) GenerateChapters(ctx context.Context, model *schemas.EventModel, lanes []schemas.Swimlane) []schemas.Chapter {
	if len(model.Commands)+len(model.ReadModels) <= g.cfg.ChapterBatchThreshold {
		if chapters, ok := g.chapterCall(ctx, buildChapterPrompt(model)); ok {
			return chapters
		}
		g.logger.Warn("Whole-model chapter call failed; synthesizing chapters from swimlanes")
		return synthesizeChapters(model, lanes)
	}

	var chapters []schemas.Chapter
	for _, lane := range lanes {
		if err := ctx.Err(); err != nil {
			break
		}
		laneChapters, ok := g.chapterCall(ctx, buildSwimlaneChapterPrompt(model, lane))
		if !ok {
			g.logger.Warn("Chapter call failed for swimlane; synthesizing it", zap.String("swimlane", lane.Name))
			chapters = append(chapters, synthesizeChapter(model, lane))
			continue
		}
		for _, chapter := range laneChapters {
			chapter.Name = fmt.Sprintf("%s: %s", lane.Name, chapter.Name)
			chapters = append(chapters, chapter)
		}
	}
	if len(chapters) == 0 {
		return synthesizeChapters(model, lanes)
	}
	return chapters
}

// chapterCall issues one chapter-generation oracle call.
func (g *Grouper) chapterCall(ctx context.Context, userPrompt string) ([]schemas.Chapter, bool) {
	response, err := g.oracle.Generate(ctx, schemas.GenerationRequest{
		Messages: []schemas.ChatMessage{
			{Role: schemas.RoleSystem, Content: chapterSystemPrompt},
			{Role: schemas.RoleUser, Content: userPrompt},
		},
		Tier:    schemas.TierPowerful,
		Options: schemas.GenerationOptions{Temperature: 0.3, ForceJSONFormat: true},
	})
	if err != nil {
		g.logger.Warn("Chapter oracle call failed", zap.Error(err))
		return nil, false
	}

	parsed, err := llmutil.Parse[chapterResponse](response)
	if err != nil || len(parsed.Chapters) == 0 {
		return nil, false
	}
	return parsed.Chapters, true
}

// synthesizeChapters builds one chapter per swimlane from fixed templates.
func synthesizeChapters(model *schemas.EventModel, lanes []schemas.Swimlane) []schemas.Chapter {
	chapters := make([]schemas.Chapter, 0, len(lanes))
	for _, lane := range lanes {
		chapters = append(chapters, synthesizeChapter(model, lane))
	}
	return chapters
}

// synthesizeChapter derives a chapter directly from swimlane membership:
// one state-change slice per command (happy path plus one failure path), one
// state-view slice per read model (two fixed scenarios), one automation slice
// per automation.
func synthesizeChapter(model *schemas.EventModel, lane schemas.Swimlane) schemas.Chapter {
	commandsByName := make(map[string]schemas.Command, len(model.Commands))
	for _, c := range model.Commands {
		commandsByName[c.Name] = c
	}
	readModelsByName := make(map[string]schemas.ReadModel, len(model.ReadModels))
	for _, rm := range model.ReadModels {
		readModelsByName[rm.Name] = rm
	}

	chapter := schemas.Chapter{
		Name:        lane.Name,
		Description: fmt.Sprintf("Workflows of the %s capability", lane.Name),
	}

	for _, name := range lane.Commands {
		command, ok := commandsByName[name]
		if !ok {
			continue
		}
		chapter.Slices = append(chapter.Slices, schemas.Slice{
			Type:      schemas.SliceStateChange,
			Name:      command.Name,
			Command:   command.Name,
			Events:    command.TriggersEvents,
			Scenarios: commandScenarios(command),
		})
	}

	for _, name := range lane.ReadModels {
		readModel, ok := readModelsByName[name]
		if !ok {
			continue
		}
		chapter.Slices = append(chapter.Slices, schemas.Slice{
			Type:         schemas.SliceStateView,
			Name:         readModel.Name,
			ReadModel:    readModel.Name,
			SourceEvents: readModel.DataSource,
			Scenarios:    readModelScenarios(readModel),
		})
	}

	for _, name := range lane.Automations {
		chapter.Slices = append(chapter.Slices, schemas.Slice{
			Type:       schemas.SliceAutomation,
			Name:       name,
			Automation: name,
		})
	}

	return chapter
}

// commandScenarios renders the fixed happy-path and failure-path templates.
func commandScenarios(command schemas.Command) []schemas.Scenario {
	then := make([]string, 0, len(command.TriggersEvents))
	then = append(then, command.TriggersEvents...)
	if len(then) == 0 {
		then = []string{"no event is recorded"}
	}
	return []schemas.Scenario{
		{
			Name:  fmt.Sprintf("%s succeeds", command.Name),
			Given: []string{"the system is in a valid state"},
			When:  command.Name,
			Then:  then,
		},
		{
			Name:  fmt.Sprintf("%s is rejected", command.Name),
			Given: []string{"the request is invalid"},
			When:  command.Name,
			Then:  []string{"the command is rejected", "no events are recorded"},
		},
	}
}

// readModelScenarios renders the two fixed state-view templates.
func readModelScenarios(readModel schemas.ReadModel) []schemas.Scenario {
	given := make([]string, 0, len(readModel.DataSource))
	given = append(given, readModel.DataSource...)
	if len(given) == 0 {
		given = []string{"relevant events have occurred"}
	}
	return []schemas.Scenario{
		{
			Name:  fmt.Sprintf("%s reflects the latest state", readModel.Name),
			Given: given,
			Then:  []string{fmt.Sprintf("%s shows the projected data", readModel.Name)},
		},
		{
			Name:  fmt.Sprintf("%s before any activity", readModel.Name),
			Given: []string{"no events have occurred"},
			Then:  []string{fmt.Sprintf("%s is empty", readModel.Name)},
		},
	}
}
