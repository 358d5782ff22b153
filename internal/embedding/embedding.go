// Package embedding implements C8 (spec.md §4.8): batch dense-vector
// generation for clauses and chunked persistence through the document
// store. Grounded in legal-gateway/worker.go's embedding generation call,
// generalized to a batch interface and wired to the store's chunked
// batch-update instead of a single-row insert.
package embedding

import (
	"context"
	"strconv"
	"strings"

	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"clausecompass/internal/llm"
	"clausecompass/internal/metrics"
	"clausecompass/internal/store"
)

// DefaultBatchSize is the default number of texts sent to the embedding
// provider per call (spec.md §4.8: "default 50-100 texts").
const DefaultBatchSize = 75

// ClauseText is the minimal view of a clause Index needs: the id and the
// text to embed (summary, falling back to original_text).
type ClauseText struct {
	ClauseID string
	Text     string
}

// EmbeddingPersistError reports that one or more persistence chunks failed
// after every other chunk was attempted (spec.md §4.8).
type EmbeddingPersistError struct {
	FailingIndices []int
	Err            error
}

func (e *EmbeddingPersistError) Error() string {
	return "embedding: persistence failed for clauses at indices " + itoaSlice(e.FailingIndices) + ": " + e.Err.Error()
}
func (e *EmbeddingPersistError) Unwrap() error { return e.Err }

// Indexer generates embeddings for a batch of clauses and persists them.
type Indexer struct {
	embedder  llm.Embedder
	store     *store.Store
	logger    *zap.Logger
	batchSize int
	chunkSize int
	metrics   *metrics.Registry
}

// SetMetrics attaches a metrics registry; nil is a valid no-op default.
func (idx *Indexer) SetMetrics(reg *metrics.Registry) { idx.metrics = reg }

// New constructs an Indexer. batchSize bounds provider calls; chunkSize
// bounds per-transaction store writes (store.DefaultBatchChunkSize if 0).
func New(embedder llm.Embedder, st *store.Store, logger *zap.Logger, batchSize, chunkSize int) *Indexer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if chunkSize <= 0 {
		chunkSize = store.DefaultBatchChunkSize
	}
	return &Indexer{embedder: embedder, store: st, logger: logger, batchSize: batchSize, chunkSize: chunkSize}
}

// Index generates and persists embeddings for the given clauses. Clauses
// whose embedding fails to generate are skipped (left null in the store,
// per spec.md §4.8 — "the clause remains queryable otherwise") rather than
// aborting the batch. A non-nil error is only ever an *EmbeddingPersistError*
// reporting a store-side chunk failure.
func (idx *Indexer) Index(ctx context.Context, clauses []ClauseText) error {
	updates := generateUpdates(ctx, idx.embedder, clauses, idx.batchSize, idx.logger)
	if len(updates) == 0 {
		return nil
	}

	_, err := idx.store.UpdateClauseEmbeddings(ctx, updates, idx.chunkSize)
	if err == nil {
		return nil
	}
	if idx.metrics != nil {
		idx.metrics.EmbeddingPersistFails.Inc()
	}

	var chunkErr *store.ChunkTooLargeError
	if ok := asChunkTooLarge(err, &chunkErr); ok {
		return &EmbeddingPersistError{FailingIndices: chunkErr.FailingIndices, Err: chunkErr.Err}
	}
	return &EmbeddingPersistError{Err: err}
}

// generateUpdates embeds each clause in batches, skipping (not failing)
// any clause whose embedding call errors.
func generateUpdates(ctx context.Context, embedder llm.Embedder, clauses []ClauseText, batchSize int, logger *zap.Logger) []store.EmbeddingUpdate {
	updates := make([]store.EmbeddingUpdate, 0, len(clauses))

	for start := 0; start < len(clauses); start += batchSize {
		end := start + batchSize
		if end > len(clauses) {
			end = len(clauses)
		}

		for _, c := range clauses[start:end] {
			vec, err := embedder.Embed(ctx, c.Text)
			if err != nil {
				if logger != nil {
					logger.Warn("embedding generation failed, leaving clause embedding null",
						zap.String("clause_id", c.ClauseID), zap.Error(err))
				}
				continue
			}
			updates = append(updates, store.EmbeddingUpdate{
				ClauseID:  c.ClauseID,
				Embedding: pgvector.NewVector(vec),
			})
		}
	}
	return updates
}

func asChunkTooLarge(err error, target **store.ChunkTooLargeError) bool {
	if e, ok := err.(*store.ChunkTooLargeError); ok {
		*target = e
		return true
	}
	return false
}

func itoaSlice(indices []int) string {
	parts := make([]string, len(indices))
	for i, v := range indices {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
