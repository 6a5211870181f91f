package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/rl1809/voice-pos/internal/common/logger"
	"github.com/rl1809/voice-pos/internal/core/domain"
)

// Index is an in-memory vector index over catalog items. It is built once at
// startup and read-only afterwards, so Search is safe for concurrent use.
type Index struct {
	embedder Embedder
	items    []domain.CatalogItem
	vectors  [][]float32
	logger   logger.Logger
}

// BuildIndex embeds every item's SearchText. A failure here is fatal for the
// caller: without an index nothing can be resolved.
func BuildIndex(ctx context.Context, embedder Embedder, items []domain.CatalogItem, log logger.Logger) (*Index, error) {
	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.SearchText()
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("build index with %s: %w", embedder.Name(), err)
	}
	if len(vectors) != len(items) {
		return nil, fmt.Errorf("build index with %s: got %d vectors for %d items", embedder.Name(), len(vectors), len(items))
	}

	idx := &Index{
		embedder: embedder,
		items:    append([]domain.CatalogItem(nil), items...),
		vectors:  vectors,
		logger:   log.With(map[string]interface{}{"component": "index", "embedder": embedder.Name()}),
	}
	idx.logger.Info("catalog index built", map[string]interface{}{"items": len(items)})
	return idx, nil
}

func (x *Index) Len() int {
	return len(x.items)
}

// Search returns up to k items ordered by descending cosine similarity.
func (x *Index) Search(ctx context.Context, query string, k int) ([]domain.Match, error) {
	if len(x.items) == 0 || k <= 0 {
		return nil, nil
	}

	q, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches := make([]domain.Match, 0, len(x.items))
	for i, vec := range x.vectors {
		score, err := CosineSimilarity(q, vec)
		if err != nil {
			x.logger.Warn("skipping vector", map[string]interface{}{"sku": x.items[i].Key, "error": err.Error()})
			continue
		}
		matches = append(matches, domain.Match{Item: x.items[i], Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}
