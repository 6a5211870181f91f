package port

import (
	"context"

	"github.com/rl1809/voice-pos/internal/core/domain"
)

type CatalogRepository interface {
	// LoadCatalog returns every catalog item in display order
	LoadCatalog(ctx context.Context) ([]domain.CatalogItem, error)
}

type CheckpointRepository interface {
	// SaveCheckpoint atomically persists cart and stock levels together
	SaveCheckpoint(ctx context.Context, cp domain.Checkpoint) error

	// LoadCheckpoint returns the last checkpoint for the session, nil if none exists
	LoadCheckpoint(ctx context.Context, sessionID string) (*domain.Checkpoint, error)
}
