// Package metrics exposes Prometheus collectors for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gin-gonic/gin"
)

var (
	// DocumentsIngested counts finished ingestions by outcome
	// (indexed, failed).
	DocumentsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lexguard",
		Name:      "documents_ingested_total",
		Help:      "Number of document ingestions by outcome.",
	}, []string{"outcome"})

	// FragmentsIndexed counts fragments written to the vector index.
	FragmentsIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lexguard",
		Name:      "fragments_indexed_total",
		Help:      "Number of fragments upserted into the vector index.",
	})

	// Queries counts chat queries by outcome (answered, fallback, failed).
	Queries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lexguard",
		Name:      "queries_total",
		Help:      "Number of chat queries by outcome.",
	}, []string{"outcome"})

	// QueryDuration observes end-to-end chat query latency.
	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "lexguard",
		Name:      "query_duration_seconds",
		Help:      "End-to-end chat query latency.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Handler returns the Prometheus scrape endpoint as a gin handler.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
