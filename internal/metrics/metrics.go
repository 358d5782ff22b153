// Package metrics exposes the Prometheus counters/histograms
// observability needs across the ingestion pipeline and Q&A engine,
// grounded in cmd/metrics-server's prometheus/client_golang usage
// (legal_ai_metrics_requests_total / legal_ai_metrics_startup_timestamp),
// generalized here into one registry of domain metrics instead of a
// standalone exporter's self-metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds every metric a clausecompass process may record.
// Binaries construct one at startup and pass it to their components.
type Registry struct {
	IngestStageDuration   *prometheus.HistogramVec
	DocumentsProcessed    *prometheus.CounterVec
	CacheHits             prometheus.Counter
	CacheMisses           prometheus.Counter
	RetrievalLatency      prometheus.Histogram
	QALatency             prometheus.Histogram
	LLMBatchFailures      prometheus.Counter
	EmbeddingPersistFails prometheus.Counter
}

// New constructs and registers a Registry against reg. Pass
// prometheus.NewRegistry() for an isolated registry (tests, multiple
// binaries in one process) or prometheus.DefaultRegisterer for the
// process-wide default used by promhttp.Handler().
func New(reg prometheus.Registerer) *Registry {
	r := &Registry{
		IngestStageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clausecompass_ingest_stage_duration_seconds",
			Help:    "Duration of each ingestion pipeline stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		DocumentsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clausecompass_documents_processed_total",
			Help: "Documents that finished ingestion, by terminal status.",
		}, []string{"status"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clausecompass_clause_cache_hits_total",
			Help: "Clause cache lookups that hit.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clausecompass_clause_cache_misses_total",
			Help: "Clause cache lookups that missed.",
		}),
		RetrievalLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "clausecompass_retrieval_latency_seconds",
			Help:    "Latency of C11 similarity search.",
			Buckets: prometheus.DefBuckets,
		}),
		QALatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "clausecompass_qa_latency_seconds",
			Help:    "End-to-end latency of a C13 question.",
			Buckets: prometheus.DefBuckets,
		}),
		LLMBatchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clausecompass_llm_batch_failures_total",
			Help: "LLM summarization batches that fell back to per-clause defaults.",
		}),
		EmbeddingPersistFails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clausecompass_embedding_persist_failures_total",
			Help: "Embedding chunks that failed to persist.",
		}),
	}

	reg.MustRegister(
		r.IngestStageDuration, r.DocumentsProcessed, r.CacheHits, r.CacheMisses,
		r.RetrievalLatency, r.QALatency, r.LLMBatchFailures, r.EmbeddingPersistFails,
	)
	return r
}
