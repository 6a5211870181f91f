package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	apperrors "github.com/rl1809/voice-pos/internal/common/errors"
	"github.com/rl1809/voice-pos/internal/common/logger"
	"github.com/rl1809/voice-pos/internal/common/metrics"
	"github.com/rl1809/voice-pos/internal/core/domain"
	"github.com/rl1809/voice-pos/internal/port"
)

// Narrator turns engine events into confirmation and receipt text. Its
// output is informational only.
type Narrator struct {
	generator port.Generator
	timeout   time.Duration
	logger    logger.Logger
}

// NewNarrator builds a narrator. A nil generator yields plain template text.
func NewNarrator(generator port.Generator, timeout time.Duration, log logger.Logger) *Narrator {
	return &Narrator{
		generator: generator,
		timeout:   timeout,
		logger:    log.With(map[string]interface{}{"component": "narrator"}),
	}
}

// Prompt builds the generation prompt for ev. Unrecognised commands get no prompt.
func Prompt(ev domain.Event) string {
	switch ev.Type {
	case domain.EventItemAdded:
		return fmt.Sprintf("You are a POS assistant. Added %d %s. Cart now: %s.", ev.Quantity, ev.Name, FormatCart(ev.Cart))
	case domain.EventItemRemoved:
		return fmt.Sprintf("You are a POS assistant. Removed %d %s. Cart now: %s.", ev.Quantity, ev.Name, FormatCart(ev.Cart))
	case domain.EventCheckout:
		return fmt.Sprintf(
			"You are a POS assistant. Perform checkout. Cart: %s. Total: %.2f. Provide a short receipt-style summary.",
			FormatCart(ev.Cart), ev.Total,
		)
	default:
		return ""
	}
}

func fallbackText(ev domain.Event) string {
	switch ev.Type {
	case domain.EventItemAdded:
		return fmt.Sprintf("Added %d %s. Cart now: %s.", ev.Quantity, ev.Name, FormatCart(ev.Cart))
	case domain.EventItemRemoved:
		return fmt.Sprintf("Removed %d %s. Cart now: %s.", ev.Quantity, ev.Name, FormatCart(ev.Cart))
	case domain.EventCheckout:
		return fmt.Sprintf("Checkout. Cart: %s. Total: %.2f.", FormatCart(ev.Cart), ev.Total)
	default:
		return msgUnrecognized
	}
}

// Render returns the text for ev. A generation failure is returned as the
// generator's error text together with a GENERATION_FAILED error.
func (n *Narrator) Render(ctx context.Context, ev domain.Event) (string, error) {
	prompt := Prompt(ev)
	if prompt == "" || n.generator == nil {
		return fallbackText(ev), nil
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	text := n.generator.Generate(ctx, prompt)
	if port.IsGenerationFailure(text) {
		metrics.GenerationFailures.Inc()
		n.logger.Warn("confirmation generation failed", map[string]interface{}{
			"eventId": ev.ID,
			"type":    ev.Type,
			"detail":  text,
		})
		return text, apperrors.NewGenerationError(text)
	}
	return text, nil
}

// Run drains events until the channel is closed, rendering each one and
// handing the text to emit.
func (n *Narrator) Run(ctx context.Context, events <-chan domain.Event, emit func(domain.Event, string)) {
	for ev := range events {
		text, _ := n.Render(ctx, ev)
		emit(ev, text)
	}
}

// WriterSink renders events synchronously to w.
type WriterSink struct {
	narrator *Narrator
	w        io.Writer
}

func NewWriterSink(narrator *Narrator, w io.Writer) *WriterSink {
	return &WriterSink{narrator: narrator, w: w}
}

func (s *WriterSink) Publish(ctx context.Context, ev domain.Event) error {
	text, _ := s.narrator.Render(ctx, ev)
	_, err := fmt.Fprintln(s.w, text)
	return err
}

// FormatCart renders a cart snapshot with sorted keys, e.g. {apple: 2, kiwi: 1}.
func FormatCart(cart map[string]int) string {
	keys := make([]string, 0, len(cart))
	for k := range cart {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d", k, cart[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
