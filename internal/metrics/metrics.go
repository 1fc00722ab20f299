// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// queriesTotal counts scored intents.
	// Labels: mode (specific, location, config, overview, comparison, debug)
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reposcope",
		Subsystem: "retrieval",
		Name:      "queries_total",
		Help:      "Scored intents by query mode",
	}, []string{"mode"})

	// groundingTotal counts grounding assessments.
	// Labels: reason (no_chunks, low_score, missing_anchor, ok)
	groundingTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reposcope",
		Subsystem: "retrieval",
		Name:      "grounding_total",
		Help:      "Grounding assessments by reason",
	}, []string{"reason"})

	// rerankCacheTotal counts rerank cache lookups.
	// Labels: result (hit, miss)
	rerankCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reposcope",
		Subsystem: "retrieval",
		Name:      "rerank_cache_total",
		Help:      "Rerank cache lookups by result",
	}, []string{"result"})

	// providerCallsTotal counts completion calls.
	// Labels: provider (ollama, openai), status (ok, error)
	providerCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reposcope",
		Subsystem: "provider",
		Name:      "calls_total",
		Help:      "Completion calls by provider and status",
	}, []string{"provider", "status"})

	providerLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "reposcope",
		Subsystem: "provider",
		Name:      "latency_seconds",
		Help:      "Completion call latency",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"provider"})

	filteredLinesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "reposcope",
		Subsystem: "explain",
		Name:      "filtered_lines_total",
		Help:      "Explanation lines removed by the grounding filter",
	})

	indexedFilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reposcope",
		Subsystem: "index",
		Name:      "files_total",
		Help:      "Files seen by the indexer by outcome",
	}, []string{"outcome"})
)

// RecordQuery records one scored intent.
func RecordQuery(mode string) {
	queriesTotal.WithLabelValues(mode).Inc()
}

// RecordGrounding records the reason of one grounding assessment.
func RecordGrounding(reason string) {
	groundingTotal.WithLabelValues(reason).Inc()
}

// RecordRerankCache records a rerank cache lookup.
func RecordRerankCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	rerankCacheTotal.WithLabelValues(result).Inc()
}

// RecordProviderCall records one completion call and its latency.
func RecordProviderCall(provider string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	providerCallsTotal.WithLabelValues(provider, status).Inc()
	providerLatencySeconds.WithLabelValues(provider).Observe(d.Seconds())
}

// RecordFilteredLines adds n lines removed by the grounding filter.
func RecordFilteredLines(n int) {
	if n > 0 {
		filteredLinesTotal.Add(float64(n))
	}
}

// RecordIndexedFile records a file outcome: indexed, reused, skipped or failed.
func RecordIndexedFile(outcome string) {
	indexedFilesTotal.WithLabelValues(outcome).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
