package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/rl1809/voice-pos/internal/core/domain"
)

// keywordRetriever scores an item 0.9 when the query contains its key.
type keywordRetriever struct {
	items []domain.CatalogItem
	err   error
	calls int
}

func (r *keywordRetriever) Search(ctx context.Context, query string, k int) ([]domain.Match, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.Match
	for _, it := range r.items {
		if strings.Contains(query, it.Key) {
			out = append(out, domain.Match{Item: it, Score: 0.9})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// fixedRetriever always returns the same results.
type fixedRetriever struct {
	results []domain.Match
	lastK   int
}

func (r *fixedRetriever) Search(ctx context.Context, query string, k int) ([]domain.Match, error) {
	r.lastK = k
	return r.results, nil
}

// slowRetriever blocks until the context is done.
type slowRetriever struct{}

func (slowRetriever) Search(ctx context.Context, query string, k int) ([]domain.Match, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// Mock CheckpointRepository
type memCheckpoints struct {
	mu      sync.Mutex
	saved   []domain.Checkpoint
	stored  *domain.Checkpoint
	loadErr error
	saveErr error
}

func (m *memCheckpoints) SaveCheckpoint(ctx context.Context, cp domain.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, cp)
	m.stored = &cp
	return nil
}

func (m *memCheckpoints) LoadCheckpoint(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.stored, nil
}

func (m *memCheckpoints) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *recordingSink) Publish(ctx context.Context, ev domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) types() []domain.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.EventType, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Type
	}
	return out
}

// Mock IdempotencyGuard
type memGuard struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (g *memGuard) SetIdempotency(ctx context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	if g.seen == nil {
		g.seen = make(map[string]bool)
	}
	if g.seen[key] {
		return false, nil
	}
	g.seen[key] = true
	return true, nil
}

func (g *memGuard) ReleaseIdempotency(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, key)
	return nil
}

type stubGenerator struct {
	reply   string
	prompts []string
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) string {
	g.prompts = append(g.prompts, prompt)
	return g.reply
}

var errBoom = errors.New("boom")
