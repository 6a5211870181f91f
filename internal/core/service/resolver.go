package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rl1809/voice-pos/internal/common/logger"
	"github.com/rl1809/voice-pos/internal/common/metrics"
	"github.com/rl1809/voice-pos/internal/core/domain"
	"github.com/rl1809/voice-pos/internal/port"
)

const DefaultTopK = 3

// ResolverOptions tunes the semantic resolver. MinScore 0 accepts any top
// match with a positive score.
type ResolverOptions struct {
	TopK     int
	MinScore float64
	Timeout  time.Duration
}

// Resolver binds a free-text item phrase to one catalog entry.
type Resolver struct {
	retriever port.Retriever
	opts      ResolverOptions
	logger    logger.Logger
}

func NewResolver(retriever port.Retriever, opts ResolverOptions, log logger.Logger) *Resolver {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	return &Resolver{
		retriever: retriever,
		opts:      opts,
		logger:    log.With(map[string]interface{}{"component": "resolver"}),
	}
}

// Resolve returns the highest scoring match, or nil on a miss. Retriever
// errors and timeouts count as misses.
func (r *Resolver) Resolve(ctx context.Context, phrase string) *domain.Match {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return nil
	}

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	results, err := r.retriever.Search(ctx, phrase, r.opts.TopK)
	if err != nil {
		fields := map[string]interface{}{"phrase": phrase, "error": err.Error()}
		if errors.Is(err, context.DeadlineExceeded) {
			r.logger.Warn("retrieval timed out", fields)
		} else {
			r.logger.Error("retrieval failed", fields)
		}
		return nil
	}
	if len(results) == 0 {
		r.logger.Debug("no candidates", map[string]interface{}{"phrase": phrase})
		return nil
	}

	best := results[0]
	metrics.ResolverScore.Observe(best.Score)

	if best.Score <= 0 {
		r.logger.Info("top candidate has no confidence", map[string]interface{}{
			"phrase": phrase,
			"sku":    best.Item.Key,
		})
		return nil
	}
	if r.opts.MinScore > 0 && best.Score < r.opts.MinScore {
		r.logger.Info("top candidate below threshold", map[string]interface{}{
			"phrase":   phrase,
			"sku":      best.Item.Key,
			"score":    best.Score,
			"minScore": r.opts.MinScore,
		})
		return nil
	}

	r.logger.Debug("phrase resolved", map[string]interface{}{
		"phrase": phrase,
		"sku":    best.Item.Key,
		"score":  best.Score,
	})
	return &best
}
