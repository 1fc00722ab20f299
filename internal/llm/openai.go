package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIChat completes prompts through an OpenAI-compatible chat API.
type OpenAIChat struct {
	client *openai.Client
	model  string
}

// NewOpenAIChat creates a client. An empty baseURL uses the public API.
func NewOpenAIChat(apiKey, baseURL, model string) *OpenAIChat {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIChat{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Model returns the configured model name.
func (c *OpenAIChat) Model() string { return c.model }

// Complete sends prompt as a single user message.
func (c *OpenAIChat) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: opts.MaxTokens,
	}
	if t, ok := opts.Temperature.Get(); ok {
		req.Temperature = float32(t)
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &StatusError{Provider: "openai", Code: apiErr.HTTPStatusCode, Body: apiErr.Message}
		}
		return "", fmt.Errorf("openai chat request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai chat: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
