package engine

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIBackend adapts any OpenAI-compatible chat completion endpoint
// (OpenAI itself, OpenRouter, a local Ollama server) to the Backend
// interface.
type OpenAIBackend struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewOpenAIBackend(baseURL, apiKey, model string, temperature float32) *OpenAIBackend {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIBackend{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: temperature,
	}
}

func (b *OpenAIBackend) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       b.model,
		Temperature: b.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from completion endpoint")
	}
	return resp.Choices[0].Message.Content, nil
}
