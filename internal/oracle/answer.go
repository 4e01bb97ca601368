package oracle

import "encoding/json"

// Answer is the normalized result of one oracle call. The wire shape varies
// (structured chat-completions envelope or a raw string); every response is
// funneled through ParseAnswer before any JSON-extraction strategy runs, so
// call sites never branch on the provider's framing.
type Answer struct {
	// Text is the usable response text after normalization.
	Text string
	// Truncated is set when the provider reports it cut the output short
	// (finish_reason "length"). Truncated JSON usually fails to parse;
	// callers fall back per component.
	Truncated bool
	// FromReasoning is set when the primary content field was empty and the
	// text was recovered from the secondary reasoning field.
	FromReasoning bool
	// Usage carries token accounting when the envelope provides it.
	Usage Usage
}

// Usage is the token accounting block of a structured envelope.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// envelope mirrors the OpenAI-compatible chat completions response body.
// Some provider configurations place the real answer in message.reasoning
// and leave content empty.
type envelope struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			Reasoning string `json:"reasoning"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// ParseAnswer normalizes a raw response body into an Answer. Order of
// attempts: structured envelope with at least one choice, then a bare JSON
// string literal, then the body taken verbatim.
func ParseAnswer(body []byte) Answer {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Choices) > 0 {
		choice := env.Choices[0]
		answer := Answer{
			Text:      choice.Message.Content,
			Truncated: choice.FinishReason == "length",
			Usage:     env.Usage,
		}
		if answer.Text == "" && choice.Message.Reasoning != "" {
			answer.Text = choice.Message.Reasoning
			answer.FromReasoning = true
		}
		return answer
	}

	var raw string
	if err := json.Unmarshal(body, &raw); err == nil {
		return Answer{Text: raw}
	}

	return Answer{Text: string(body)}
}
