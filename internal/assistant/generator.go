// Package assistant talks to the hosted language model behind the chat
// assistant and the per-calculation tips.
package assistant

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-1.5-pro-latest"

// Generator produces a text completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenAIConfig holds configuration for the Gemini generator.
type GenAIConfig struct {
	APIKey string
	Model  string
	// Temperature is passed through when non-zero.
	Temperature float32
}

// GenAIGenerator is a Generator backed by the Gemini API.
type GenAIGenerator struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGenAIGenerator creates a Gemini client.
func NewGenAIGenerator(ctx context.Context, cfg GenAIConfig) (*GenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("assistant API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	var gc *genai.GenerateContentConfig
	if cfg.Temperature > 0 {
		gc = &genai.GenerateContentConfig{Temperature: genai.Ptr(cfg.Temperature)}
	}

	return &GenAIGenerator{client: client, model: model, config: gc}, nil
}

// Model returns the configured model name.
func (g *GenAIGenerator) Model() string {
	return g.model
}

// Generate sends prompt as a single user turn and returns the reply text.
func (g *GenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, g.config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

var _ Generator = (*GenAIGenerator)(nil)
