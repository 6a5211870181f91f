// Package retrieval implements catalog similarity search: embedders that turn
// text into vectors and an in-memory cosine index over the catalog.
package retrieval

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rl1809/voice-pos/internal/common/config"
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Name() string
}

// NewEmbedder builds the embedder named by cfg.Provider.
func NewEmbedder(ctx context.Context, cfg config.RetrievalConfig) (Embedder, error) {
	switch cfg.Provider {
	case "", "trigram":
		return NewTrigramEmbedder(0), nil
	case "ollama":
		return NewOllamaEmbedder(cfg.Ollama.Endpoint, cfg.Ollama.Model, 30*time.Second), nil
	case "genai":
		e, err := NewGenAIEmbedder(ctx, cfg.GenAI.APIKey, cfg.GenAI.Model, cfg.GenAI.TaskType)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unsupported retrieval provider: %s", cfg.Provider)
	}
}

// CosineSimilarity returns the cosine of the angle between a and b, 0 when
// either has zero magnitude.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same length: %d != %d", len(a), len(b))
	}

	var dot, aMag, bMag float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		aMag += float64(a[i]) * float64(a[i])
		bMag += float64(b[i]) * float64(b[i])
	}
	if aMag == 0 || bMag == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(aMag) * math.Sqrt(bMag)), nil
}
