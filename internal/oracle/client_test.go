package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
	"github.com/xkilldash9x/eventmodel-cli/internal/config"
)

func testOracleConfig(endpoint string) config.OracleConfig {
	return config.OracleConfig{
		Endpoint:        endpoint,
		APIKey:          "test-key",
		FastModel:       "fast-model",
		PowerfulModel:   "powerful-model",
		Temperature:     0.2,
		MaxTokens:       1024,
		APITimeout:      5 * time.Second,
		MaxElapsedRetry: 2 * time.Second,
	}
}

func testRequest() schemas.GenerationRequest {
	return schemas.GenerationRequest{
		Messages: []schemas.ChatMessage{
			{Role: schemas.RoleSystem, Content: "You extract domain models."},
			{Role: schemas.RoleUser, Content: "Extract from: users add items to carts."},
		},
		Options: schemas.GenerationOptions{Temperature: 0.2},
	}
}

func envelopeBody(content string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}, "finish_reason": "stop"},
		},
		"usage": map[string]int{"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16},
	})
	return string(b)
}

func TestClientGenerate(t *testing.T) {
	t.Parallel()
	var gotPayload chatRequestPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(envelopeBody(`{"events": []}`)))
	}))
	defer server.Close()

	client, err := NewClient(testOracleConfig(server.URL), "powerful-model", zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	text, err := client.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, `{"events": []}`, text)

	assert.Equal(t, "powerful-model", gotPayload.Model)
	require.Len(t, gotPayload.Messages, 2)
	assert.Equal(t, schemas.RoleSystem, gotPayload.Messages[0].Role)
	assert.Equal(t, 1024, gotPayload.MaxTokens, "config default must backfill the token limit")
}

func TestClientRetriesTransientErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(envelopeBody("recovered")))
	}))
	defer server.Close()

	client, err := NewClient(testOracleConfig(server.URL), "fast-model", zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	text, err := client.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestClientDoesNotRetryPermanentErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client, err := NewClient(testOracleConfig(server.URL), "fast-model", zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Generate(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, int32(1), calls.Load(), "a 400 must not be retried")
}

func TestClientReasoningFallbackOverWire(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "", "reasoning": "{\"commands\": []}"}, "finish_reason": "stop"}]}`))
	}))
	defer server.Close()

	client, err := NewClient(testOracleConfig(server.URL), "fast-model", zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	text, err := client.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, `{"commands": []}`, text)
}

func TestClientRejectsEmptyRequest(t *testing.T) {
	t.Parallel()
	client, err := NewClient(testOracleConfig("http://localhost:1"), "m", zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Generate(context.Background(), schemas.GenerationRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no messages")
}

func TestClientForceJSONFormat(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload chatRequestPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.NotNil(t, payload.ResponseFormat)
		assert.Equal(t, "json_object", payload.ResponseFormat.Type)
		_, _ = w.Write([]byte(envelopeBody("{}")))
	}))
	defer server.Close()

	client, err := NewClient(testOracleConfig(server.URL), "m", zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	req := testRequest()
	req.Options.ForceJSONFormat = true
	_, err = client.Generate(context.Background(), req)
	require.NoError(t, err)
}
