package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/rl1809/voice-pos/internal/common/logger"
	"github.com/rl1809/voice-pos/internal/port"
)

// GenAIGenerator renders prompts with a Gemini model.
type GenAIGenerator struct {
	client *genai.Client
	model  string
	logger logger.Logger
}

func NewGenAIGenerator(ctx context.Context, apiKey, model string, log logger.Logger) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIGenerator{
		client: client,
		model:  model,
		logger: log.With(map[string]interface{}{"component": "genai-generator", "model": model}),
	}, nil
}

func (g *GenAIGenerator) Generate(ctx context.Context, prompt string) string {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		g.logger.Warn("generation failed", map[string]interface{}{"error": err.Error()})
		return fmt.Sprintf("%s %v", port.GenerationErrorPrefix, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return port.GenerationErrorPrefix + " empty response"
	}
	return text
}
