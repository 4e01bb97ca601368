package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
	"github.com/xkilldash9x/eventmodel-cli/internal/config"
)

// Client implements schemas.OracleClient against an OpenAI-compatible chat
// completions endpoint. Transient failures are retried with exponential
// backoff; permanent failures (bad request, auth) abort immediately.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	cfg        config.OracleConfig
}

var _ schemas.OracleClient = (*Client)(nil)

// chatRequestPayload is the wire form of a generation request.
type chatRequestPayload struct {
	Model          string                `json:"model"`
	Messages       []schemas.ChatMessage `json:"messages"`
	Temperature    float64               `json:"temperature"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat       `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// NewClient initializes a client for one concrete model.
func NewClient(cfg config.OracleConfig, model string, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("oracle endpoint is required")
	}
	if model == "" {
		return nil, fmt.Errorf("oracle model name is required")
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}

	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    model,
		cfg:      cfg,
		limiter:  limiter,
		httpClient: &http.Client{
			Timeout: cfg.APITimeout,
		},
		logger: logger.Named("oracle_client").With(zap.String("model", model)),
	}, nil
}

// Generate sends the request and returns the normalized response text.
func (c *Client) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("generation request has no messages")
	}

	payload := chatRequestPayload{
		Model:       c.model,
		Messages:    req.Messages,
		Temperature: req.Options.Temperature,
		MaxTokens:   req.Options.MaxTokens,
	}
	if payload.MaxTokens == 0 {
		payload.MaxTokens = c.cfg.MaxTokens
	}
	if req.Options.ForceJSONFormat {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.cfg.MaxElapsedRetry
	if b.MaxElapsedTime == 0 {
		b.MaxElapsedTime = 2 * time.Minute
	}
	b.MaxInterval = 30 * time.Second

	var answer Answer

	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limiter wait aborted: %w", err))
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		startTime := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		duration := time.Since(startTime)

		if err != nil {
			c.logger.Warn("Network error during oracle request, retrying...", zap.Error(err))
			return fmt.Errorf("failed to execute HTTP request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return c.handleAPIError(resp.StatusCode, respBody)
		}

		answer = ParseAnswer(respBody)
		if answer.Text == "" {
			return backoff.Permanent(fmt.Errorf("oracle returned an empty response"))
		}

		c.logger.Info("Oracle generation complete",
			zap.Duration("duration", duration),
			zap.Bool("truncated", answer.Truncated),
			zap.Bool("from_reasoning", answer.FromReasoning),
			zap.Int("prompt_tokens", answer.Usage.PromptTokens),
			zap.Int("completion_tokens", answer.Usage.CompletionTokens),
		)
		return nil
	}

	if err = backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", err
	}

	if answer.Truncated {
		// Not fatal: the downstream parse fallbacks handle cut-off JSON.
		c.logger.Warn("Oracle output was truncated (finish_reason=length)")
	}
	return answer.Text, nil
}

// Close releases client resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) handleAPIError(statusCode int, body []byte) error {
	c.logger.Error("Oracle API returned error status", zap.Int("status", statusCode), zap.ByteString("response", body))
	err := fmt.Errorf("oracle API error: status %d, body: %s", statusCode, string(body))

	switch statusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout:
		return err // Transient, retry.
	default:
		return backoff.Permanent(err)
	}
}
