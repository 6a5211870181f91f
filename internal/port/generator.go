package port

import (
	"context"
	"strings"
)

// GenerationErrorPrefix marks a Generate result that is an error report
// rather than model output.
const GenerationErrorPrefix = "[LLM Error]"

type Generator interface {
	// Generate renders a prompt to text. Failures come back as text starting
	// with GenerationErrorPrefix, never as an error value.
	Generate(ctx context.Context, prompt string) string
}

func IsGenerationFailure(text string) bool {
	return strings.HasPrefix(text, GenerationErrorPrefix)
}
