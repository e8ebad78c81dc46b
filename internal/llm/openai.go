package llm

import (
	"context"
	"errors"
	"net/http"

	"github.com/personachat/personachat/internal/prompt"
	"github.com/sashabaranov/go-openai"
)

// Generator produces a reply for an assembled prompt. The network call is
// the only side effect; implementations hold no mutable state.
type Generator interface {
	Generate(ctx context.Context, p prompt.Prompt) (string, error)
}

// OpenAIClient talks to an OpenAI-compatible chat completions API. A
// custom base URL supports self-hosted compatible servers.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a client for the given endpoint and model.
func NewOpenAIClient(baseURL, apiKey, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Generate sends the prompt and returns the model's reply. Failures are
// returned as *GenerationError.
func (c *OpenAIClient) Generate(ctx context.Context, p prompt.Prompt) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(p.History)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: p.System(),
	})
	for _, m := range p.History {
		role := openai.ChatMessageRoleUser
		if m.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: p.UserMessage,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", &GenerationError{Kind: KindUnavailable, Err: errors.New("no choices returned")}
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps transport and API errors onto the error taxonomy.
func classify(err error) *GenerationError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &GenerationError{Kind: KindTimeout, Err: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return &GenerationError{Kind: KindRateLimited, Err: err}
		case apiErr.HTTPStatusCode == http.StatusRequestTimeout:
			return &GenerationError{Kind: KindTimeout, Err: err}
		case apiErr.HTTPStatusCode >= http.StatusInternalServerError:
			return &GenerationError{Kind: KindUnavailable, Err: err}
		default:
			// Auth failures and malformed requests are not retryable
			return &GenerationError{Kind: KindInvalidRequest, Err: err}
		}
	}

	// Anything else is a transport-level failure
	return &GenerationError{Kind: KindUnavailable, Err: err}
}
