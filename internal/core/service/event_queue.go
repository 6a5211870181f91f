package service

import (
	"context"

	"github.com/rl1809/voice-pos/internal/core/domain"
)

// EventQueue is a buffered EventSink drained by a background worker.
type EventQueue struct {
	events chan domain.Event
}

func NewEventQueue(size int) *EventQueue {
	return &EventQueue{events: make(chan domain.Event, size)}
}

// Publish blocks while the queue is full, until ctx is done.
func (q *EventQueue) Publish(ctx context.Context, ev domain.Event) error {
	select {
	case q.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *EventQueue) Events() <-chan domain.Event {
	return q.events
}

func (q *EventQueue) Close() {
	close(q.events)
}
