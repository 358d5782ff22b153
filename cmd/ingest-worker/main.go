// Command ingest-worker is the background queue consumer driving C9: it
// blocks on the ingest job queue and runs the full twelve-stage pipeline
// for each document, grounded in legal-gateway/worker.go's BLPOP main
// loop.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"clausecompass/internal/classify"
	"clausecompass/internal/config"
	"clausecompass/internal/embedding"
	"clausecompass/internal/extract"
	"clausecompass/internal/ingest"
	"clausecompass/internal/llm"
	"clausecompass/internal/logging"
	"clausecompass/internal/metrics"
	"clausecompass/internal/observability/tracing"
	"clausecompass/internal/redact"
	"clausecompass/internal/store"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New("ingest-worker", cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	shutdownTracing, err := tracing.Init(ctx, "ingest-worker")
	if err != nil {
		logger.Warn("tracing disabled: failed to init exporter", zap.Error(err))
	} else {
		defer shutdownTracing(context.Background())
	}

	st, err := store.Open(ctx, cfg.DatabaseURL, cfg.EmbeddingDim, logger)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}

	redisOpt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("failed to parse redis url", zap.Error(err))
	}
	rdb := redis.NewClient(redisOpt)
	defer rdb.Close()

	llmClient := llm.NewOllamaClient(cfg.LLMEndpoint, cfg.LLMModel)
	embedder := llm.NewOllamaEmbedder(cfg.EmbeddingEndpoint, cfg.EmbeddingModel)

	reg := metrics.New(prometheus.DefaultRegisterer)
	startMetricsServer(logger)

	batcher := llm.New(llmClient, logger, cfg.MaxClausesPerBatch, cfg.MaxPromptTokens, cfg.MaxOutputTokens)
	batcher.SetMetrics(reg)
	indexer := embedding.New(embedder, st, logger, embedding.DefaultBatchSize, cfg.StoreBatchChunkSize)
	indexer.SetMetrics(reg)

	orchestrator := ingest.New(
		extract.New(nil),
		redact.New(nil, cfg.DLPEnabled),
		classify.New(embedder),
		batcher,
		indexer,
		st, logger,
		extract.Limits{MaxBytes: cfg.MaxFileSizeBytes(), MaxPages: cfg.MaxPages},
		cfg.StoreBatchChunkSize, true,
	)

	logger.Info("ingest-worker ready, waiting for jobs")
	for {
		if ctx.Err() != nil {
			return
		}

		job, err := ingest.Dequeue(ctx, rdb)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("dequeue failed, retrying", zap.Error(err))
			continue
		}

		logger.Info("processing document", zap.String("document_id", job.DocumentID), zap.String("filename", job.Filename))
		start := time.Now()
		result, err := orchestrator.Ingest(ctx, job.DocumentID, job.Data, job.Filename, job.MIME, job.SessionID)
		if err != nil {
			logger.Error("ingestion failed", zap.String("document_id", job.DocumentID), zap.Error(err))
			reg.DocumentsProcessed.WithLabelValues(string(store.StatusFailed)).Inc()
			continue
		}
		reg.IngestStageDuration.WithLabelValues("pipeline").Observe(time.Since(start).Seconds())
		reg.DocumentsProcessed.WithLabelValues(string(result.Status)).Inc()
		logger.Info("ingestion finished", zap.String("document_id", job.DocumentID), zap.String("status", string(result.Status)))
	}
}

// startMetricsServer exposes the worker's Prometheus registry on its own
// HTTP listener, since the worker otherwise has no HTTP surface. Grounded
// in the teacher's standalone metrics-server/main.go minimal exporter,
// inlined here rather than kept as a separate binary process.
func startMetricsServer(logger *zap.Logger) {
	addr := getenvDefault("METRICS_ADDR", ":9109")
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	go func() {
		logger.Info("metrics server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
