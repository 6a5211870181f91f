package port

import (
	"context"

	"github.com/rl1809/voice-pos/internal/core/domain"
)

type Retriever interface {
	// Search returns up to k matches ordered by descending score, empty if nothing is indexed
	Search(ctx context.Context, query string, k int) ([]domain.Match, error)
}
