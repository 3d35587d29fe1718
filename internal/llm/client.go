// Package llm wraps the external generation service behind a retrying
// client. Generation is a collaborator here, not core state.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// GenerationError reports a generation call that failed after exhausting
// its retry budget. It stops the narrative loop for that operation only;
// persisted state is untouched because merges happen after generation.
type GenerationError struct {
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Request describes one generation call.
type Request struct {
	Prompt      string
	System      string
	Temperature float32
	MaxTokens   int
}

// Client is a chat-completion client with exponential backoff retries.
type Client struct {
	client     *openai.Client
	model      string
	maxRetries int
	logger     *slog.Logger
}

// NewClient creates a client against an OpenAI-compatible endpoint.
func NewClient(baseURL, apiKey, model string, maxRetries int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Generate runs one completion, retrying transient failures with
// exponential backoff. Exhausted retries surface as *GenerationError.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	messages := []openai.ChatCompletionMessage{}
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleSystem, Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: req.Prompt,
	})

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			c.logger.Warn("generation retry", "attempt", attempt+1, "backoff", backoff, "err", lastErr)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		})
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("no completion returned")
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", &GenerationError{Attempts: c.maxRetries, Err: lastErr}
}
