package port

import (
	"context"

	"github.com/rl1809/voice-pos/internal/core/domain"
)

type EventSink interface {
	Publish(ctx context.Context, event domain.Event) error
}
