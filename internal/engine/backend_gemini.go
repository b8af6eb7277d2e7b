package engine

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiBackend adapts the Gemini API to the Backend interface.
type GeminiBackend struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiBackend(ctx context.Context, apiKey, model string) (*GeminiBackend, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiBackend{
		client: client,
		model:  client.GenerativeModel(model),
	}, nil
}

func (b *GeminiBackend) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := b.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content returned from Gemini")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response type from Gemini")
	}
	return string(text), nil
}

func (b *GeminiBackend) Close() {
	b.client.Close()
}
