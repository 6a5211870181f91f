package service

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	apperrors "github.com/rl1809/voice-pos/internal/common/errors"
	"github.com/rl1809/voice-pos/internal/common/logger"
	"github.com/rl1809/voice-pos/internal/core/domain"
)

func TestPrompt(t *testing.T) {
	cart := map[string]int{"kiwi": 1, "apple": 2}

	assert.Equal(t,
		"You are a POS assistant. Added 2 Apple. Cart now: {apple: 2, kiwi: 1}.",
		Prompt(domain.Event{Type: domain.EventItemAdded, Name: "Apple", Quantity: 2, Cart: cart}))
	assert.Equal(t,
		"You are a POS assistant. Removed 1 Kiwi. Cart now: {apple: 2, kiwi: 1}.",
		Prompt(domain.Event{Type: domain.EventItemRemoved, Name: "Kiwi", Quantity: 1, Cart: cart}))
	assert.Equal(t,
		"You are a POS assistant. Perform checkout. Cart: {apple: 2, kiwi: 1}. Total: 3.50. Provide a short receipt-style summary.",
		Prompt(domain.Event{Type: domain.EventCheckout, Cart: cart, Total: 3.5}))
	assert.Empty(t, Prompt(domain.Event{Type: domain.EventUnrecognized}))
}

func TestFormatCart(t *testing.T) {
	assert.Equal(t, "{}", FormatCart(nil))
	assert.Equal(t, "{apple: 2, kiwi: 1}", FormatCart(map[string]int{"kiwi": 1, "apple": 2}))
}

func TestNarrator_RenderWithoutGenerator(t *testing.T) {
	n := NewNarrator(nil, 0, logger.NewNoOpLogger())

	text, err := n.Render(context.Background(), domain.Event{
		Type: domain.EventItemAdded, Name: "Apple", Quantity: 2, Cart: map[string]int{"apple": 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "Added 2 Apple. Cart now: {apple: 2}.", text)

	text, err = n.Render(context.Background(), domain.Event{Type: domain.EventUnrecognized})
	require.NoError(t, err)
	assert.Equal(t, msgUnrecognized, text)
}

func TestNarrator_RenderUsesGenerator(t *testing.T) {
	gen := &stubGenerator{reply: "Two apples, coming right up."}
	n := NewNarrator(gen, time.Second, logger.NewTestLogger(t))

	text, err := n.Render(context.Background(), domain.Event{
		Type: domain.EventCheckout, Cart: map[string]int{"apple": 2}, Total: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, "Two apples, coming right up.", text)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Perform checkout")
}

func TestNarrator_GenerationFailure(t *testing.T) {
	gen := &stubGenerator{reply: "[LLM Error] connection refused"}
	n := NewNarrator(gen, 0, logger.NewNoOpLogger())

	text, err := n.Render(context.Background(), domain.Event{Type: domain.EventItemAdded, Name: "Apple", Quantity: 1})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeGenerationFailed, apperrors.CodeOf(err))
	assert.True(t, strings.HasPrefix(text, "[LLM Error]"))
}

func TestNarrator_UnrecognizedSkipsGenerator(t *testing.T) {
	gen := &stubGenerator{reply: "should not be used"}
	n := NewNarrator(gen, 0, logger.NewNoOpLogger())

	text, err := n.Render(context.Background(), domain.Event{Type: domain.EventUnrecognized})

	require.NoError(t, err)
	assert.Equal(t, msgUnrecognized, text)
	assert.Empty(t, gen.prompts)
}

func TestNarrator_RunDrainsQueue(t *testing.T) {
	defer goleak.VerifyNone(t)

	queue := NewEventQueue(4)
	n := NewNarrator(nil, 0, logger.NewNoOpLogger())

	var (
		mu    sync.Mutex
		texts []string
		wg    sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		n.Run(context.Background(), queue.Events(), func(ev domain.Event, text string) {
			mu.Lock()
			texts = append(texts, text)
			mu.Unlock()
		})
	}()

	ctx := context.Background()
	require.NoError(t, queue.Publish(ctx, domain.Event{Type: domain.EventItemAdded, Name: "Apple", Quantity: 1, Cart: map[string]int{"apple": 1}}))
	require.NoError(t, queue.Publish(ctx, domain.Event{Type: domain.EventCheckout, Cart: map[string]int{"apple": 1}, Total: 1}))
	queue.Close()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"Added 1 Apple. Cart now: {apple: 1}.",
		"Checkout. Cart: {apple: 1}. Total: 1.00.",
	}, texts)
}

func TestEventQueue_PublishHonoursContext(t *testing.T) {
	queue := NewEventQueue(1)
	require.NoError(t, queue.Publish(context.Background(), domain.Event{Type: domain.EventCheckout}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := queue.Publish(ctx, domain.Event{Type: domain.EventCheckout})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(NewNarrator(nil, 0, logger.NewNoOpLogger()), &buf)

	env := newTestEnv(t, groceries(), WithEventSink(sink))
	env.handle(t, "add two apples")
	env.handle(t, "checkout")

	assert.Equal(t,
		"Added 2 Apple. Cart now: {apple: 2}.\nCheckout. Cart: {apple: 2}. Total: 2.00.\n",
		buf.String())
}
