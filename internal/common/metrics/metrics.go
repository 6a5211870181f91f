package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UtterancesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_utterances_total",
			Help: "Total number of utterances handled, by classified intent",
		},
		[]string{"intent"},
	)

	ClauseOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_clause_outcomes_total",
			Help: "Total number of parsed clauses, by reconciliation status",
		},
		[]string{"intent", "status"},
	)

	ResolverScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pos_resolver_top_score",
			Help:    "Similarity score of the top catalog match per resolved phrase",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	CheckpointFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pos_checkpoint_failures_total",
			Help: "Total number of failed cart/inventory checkpoint writes",
		},
	)

	GenerationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pos_generation_failures_total",
			Help: "Total number of confirmation texts that came back as an error",
		},
	)

	UtteranceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pos_utterance_duration_seconds",
			Help: "Duration of utterance processing in seconds",
		},
		[]string{"intent"},
	)
)
