package llm

import (
	"context"
	"fmt"

	"github.com/rl1809/voice-pos/internal/common/config"
	"github.com/rl1809/voice-pos/internal/common/logger"
	"github.com/rl1809/voice-pos/internal/port"
)

// NewGenerator builds the configured generator. Provider "none" returns nil,
// which makes the narrator fall back to template text.
func NewGenerator(ctx context.Context, cfg config.GeneratorConfig, log logger.Logger) (port.Generator, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "ollama":
		return NewOllamaGenerator(cfg.Ollama.Endpoint, cfg.Ollama.Model, log), nil
	case "genai":
		g, err := NewGenAIGenerator(ctx, cfg.GenAI.APIKey, cfg.GenAI.Model, log)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unsupported generator provider: %s", cfg.Provider)
	}
}
