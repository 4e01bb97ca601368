package extraction

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
	"github.com/xkilldash9x/eventmodel-cli/internal/config"
)

// fakeOracle is a scripted schemas.OracleClient. Responses are served in call
// order unless a respond function is installed.
type fakeOracle struct {
	mu        sync.Mutex
	calls     []schemas.GenerationRequest
	responses []string
	err       error
	respond   func(req schemas.GenerationRequest) (string, error)
}

func (f *fakeOracle) Generate(_ context.Context, req schemas.GenerationRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)

	if f.respond != nil {
		return f.respond(req)
	}
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", fmt.Errorf("fakeOracle: no scripted response left")
	}
	response := f.responses[0]
	f.responses = f.responses[1:]
	return response, nil
}

func (f *fakeOracle) Close() error { return nil }

func (f *fakeOracle) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		BatchSize:             2,
		MaxValidationAttempts: 3,
		ChapterBatchThreshold: 30,
		BatchConcurrency:      4,
	}
}

func makeTasks(n int) []schemas.TaskNode {
	tasks := make([]schemas.TaskNode, n)
	for i := range tasks {
		tasks[i] = schemas.TaskNode{
			ID:          fmt.Sprintf("task-%d", i),
			ParentID:    "root",
			Description: fmt.Sprintf("Task number %d", i),
			IsAtomic:    true,
		}
	}
	return tasks
}

func batchResponse(eventName, commandName string) string {
	return fmt.Sprintf(`{
		"events": [{"name": %q, "kind": "system_event"}],
		"commands": [{"name": %q, "triggers_events": [%q]}],
		"read_models": [],
		"user_interactions": [],
		"automations": []
	}`, eventName, commandName, eventName)
}

func TestExtractFromTasksSequential(t *testing.T) {
	t.Parallel()
	oracle := &fakeOracle{responses: []string{
		batchResponse("ItemAdded", "AddItem"),
		batchResponse("CartCreated", "CreateCart"),
	}}
	extractor := NewExtractor(oracle, testPipelineConfig(), zap.NewNop())

	model, batches, err := extractor.ExtractFromTasks(context.Background(), "A shopping cart service", makeTasks(4))
	require.NoError(t, err)
	assert.Equal(t, 2, batches)
	assert.Equal(t, 2, oracle.callCount(), "one oracle call per batch")

	require.Len(t, model.Events, 2)
	assert.Equal(t, "ItemAdded", model.Events[0].Name, "first batch result comes first")
	assert.Equal(t, "CartCreated", model.Events[1].Name)
	require.Len(t, model.Commands, 2)
}

func TestExtractFromTasksEmbedsTaskDetails(t *testing.T) {
	t.Parallel()
	oracle := &fakeOracle{responses: []string{batchResponse("E", "C")}}
	extractor := NewExtractor(oracle, testPipelineConfig(), zap.NewNop())

	tasks := []schemas.TaskNode{{
		ID:                    "task-42",
		Description:           "Support gift cards",
		ImplementationDetails: "Balance lives in the payments service",
	}}
	_, _, err := extractor.ExtractFromTasks(context.Background(), "A web shop", tasks)
	require.NoError(t, err)

	require.Len(t, oracle.calls, 1)
	require.Len(t, oracle.calls[0].Messages, 2)
	assert.Equal(t, schemas.RoleSystem, oracle.calls[0].Messages[0].Role)
	userPrompt := oracle.calls[0].Messages[1].Content
	assert.Contains(t, userPrompt, "A web shop")
	assert.Contains(t, userPrompt, "task-42")
	assert.Contains(t, userPrompt, "Support gift cards")
	assert.Contains(t, userPrompt, "Balance lives in the payments service")
	assert.Equal(t, schemas.TierPowerful, oracle.calls[0].Tier)
	assert.True(t, oracle.calls[0].Options.ForceJSONFormat)
}

func TestExtractFromTasksToleratesBadBatch(t *testing.T) {
	t.Parallel()
	oracle := &fakeOracle{responses: []string{
		"I am sorry, I cannot help with that.",
		batchResponse("CartCreated", "CreateCart"),
	}}
	extractor := NewExtractor(oracle, testPipelineConfig(), zap.NewNop())

	model, batches, err := extractor.ExtractFromTasks(context.Background(), "proj", makeTasks(4))
	require.NoError(t, err, "a failed batch must not abort the run")
	assert.Equal(t, 2, batches)
	require.Len(t, model.Events, 1, "only the good batch contributes")
	assert.Equal(t, "CartCreated", model.Events[0].Name)
}

func TestExtractFromTasksParallelPreservesOrder(t *testing.T) {
	t.Parallel()
	oracle := &fakeOracle{respond: func(req schemas.GenerationRequest) (string, error) {
		// Derive the response from the batch content so completion order
		// cannot matter.
		prompt := req.Messages[1].Content
		switch {
		case strings.Contains(prompt, "[task-0]"):
			return batchResponse("FirstBatchEvent", "FirstCmd"), nil
		case strings.Contains(prompt, "[task-2]"):
			return batchResponse("SecondBatchEvent", "SecondCmd"), nil
		default:
			return batchResponse("ThirdBatchEvent", "ThirdCmd"), nil
		}
	}}

	cfg := testPipelineConfig()
	cfg.ParallelBatches = true
	extractor := NewExtractor(oracle, cfg, zap.NewNop())

	for i := 0; i < 5; i++ {
		model, batches, err := extractor.ExtractFromTasks(context.Background(), "proj", makeTasks(6))
		require.NoError(t, err)
		assert.Equal(t, 3, batches)
		require.Len(t, model.Events, 3)
		assert.Equal(t, "FirstBatchEvent", model.Events[0].Name)
		assert.Equal(t, "SecondBatchEvent", model.Events[1].Name)
		assert.Equal(t, "ThirdBatchEvent", model.Events[2].Name)
	}
}

func TestExtractFromTasksCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	oracle := &fakeOracle{responses: []string{batchResponse("E", "C")}}
	extractor := NewExtractor(oracle, testPipelineConfig(), zap.NewNop())

	_, _, err := extractor.ExtractFromTasks(ctx, "proj", makeTasks(4))
	require.ErrorIs(t, err, context.Canceled)
}

func TestExtractFromDescription(t *testing.T) {
	t.Parallel()
	oracle := &fakeOracle{responses: []string{batchResponse("AccountOpened", "OpenAccount")}}
	extractor := NewExtractor(oracle, testPipelineConfig(), zap.NewNop())

	model, err := extractor.ExtractFromDescription(context.Background(), "A banking app")
	require.NoError(t, err)
	assert.Equal(t, 1, oracle.callCount(), "description-only mode is a single call")
	require.Len(t, model.Events, 1)
	assert.Equal(t, "AccountOpened", model.Events[0].Name)
	assert.Contains(t, oracle.calls[0].Messages[1].Content, "A banking app")
}

func TestExtractFromDescriptionFailureYieldsEmptyModel(t *testing.T) {
	t.Parallel()
	oracle := &fakeOracle{err: fmt.Errorf("network unreachable")}
	extractor := NewExtractor(oracle, testPipelineConfig(), zap.NewNop())

	model, err := extractor.ExtractFromDescription(context.Background(), "anything")
	require.NoError(t, err, "oracle failure degrades to an empty model")
	assert.Empty(t, model.Events)
	assert.Empty(t, model.Commands)
}
