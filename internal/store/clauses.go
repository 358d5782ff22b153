package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"clausecompass/internal/xerrors"
)

// DefaultBatchChunkSize is the conservative per-transaction write limit
// spec.md §5/§9 assigns the store (assumed 500 writes/10MiB ceiling;
// working value 50).
const DefaultBatchChunkSize = 50

// ChunkTooLargeError reports the failing indices of a chunked write,
// surfaced as EmbeddingPersistError by C8 (spec.md §4.8).
type ChunkTooLargeError struct {
	FailingIndices []int
	Err            error
}

func (e *ChunkTooLargeError) Error() string {
	return fmt.Sprintf("store: chunk write failed at indices %v: %v", e.FailingIndices, e.Err)
}
func (e *ChunkTooLargeError) Unwrap() error { return e.Err }

// CreateClauses persists clauses for a document in chunks of at most
// chunkSize (default DefaultBatchChunkSize), one transaction per chunk.
// Returns the persisted clause ids in order. A failing chunk does not abort
// already-committed chunks; its failing indices (relative to the full
// input slice) are reported via ChunkTooLargeError after all other chunks
// have been attempted, matching spec.md §4.8's "report failing indices,
// raise after all other chunks complete" contract.
func (s *Store) CreateClauses(ctx context.Context, clauses []*Clause, chunkSize int) ([]string, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultBatchChunkSize
	}

	ids := make([]string, 0, len(clauses))
	var failingIndices []int
	var firstErr error

	for start := 0; start < len(clauses); start += chunkSize {
		end := start + chunkSize
		if end > len(clauses) {
			end = len(clauses)
		}
		chunk := clauses[start:end]

		if err := s.writeClauseChunk(ctx, chunk); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			for i := start; i < end; i++ {
				failingIndices = append(failingIndices, i)
			}
			continue
		}
		for _, c := range chunk {
			ids = append(ids, c.ID)
		}
	}

	if firstErr != nil {
		return ids, &ChunkTooLargeError{FailingIndices: failingIndices, Err: firstErr}
	}
	return ids, nil
}

func (s *Store) writeClauseChunk(ctx context.Context, chunk []*Clause) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, c := range chunk {
		readability, _ := json.Marshal(c.Readability)
		keywords, _ := json.Marshal(c.DetectedKeywords)
		factors, _ := json.Marshal(c.RiskFactors)

		batch.Queue(`
			INSERT INTO clauses (id, document_id, clause_order, original_text, summary, category,
				risk_level, risk_score, needs_review, readability, negotiation_tip, confidence,
				embedding, detected_keywords, risk_factors, processing_method)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
			ON CONFLICT (id) DO UPDATE SET
				summary = EXCLUDED.summary, category = EXCLUDED.category,
				risk_level = EXCLUDED.risk_level, risk_score = EXCLUDED.risk_score,
				needs_review = EXCLUDED.needs_review, readability = EXCLUDED.readability,
				negotiation_tip = EXCLUDED.negotiation_tip, confidence = EXCLUDED.confidence,
				embedding = EXCLUDED.embedding, detected_keywords = EXCLUDED.detected_keywords,
				risk_factors = EXCLUDED.risk_factors, processing_method = EXCLUDED.processing_method
		`, c.ID, c.DocumentID, c.Order, c.OriginalText, c.Summary, c.Category,
			c.RiskLevel, c.RiskScore, c.NeedsReview, readability, c.NegotiationTip, c.Confidence,
			c.Embedding, keywords, factors, c.ProcessingMethod)
	}

	br := tx.SendBatch(ctx, batch)
	for range chunk {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	if err := br.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpdateClauseEmbedding sets a clause's embedding vector in place, used by
// C8's batch indexer and C13's lazy backfill path.
func (s *Store) UpdateClauseEmbedding(ctx context.Context, clauseID string, embedding pgvector.Vector) error {
	tag, err := s.db.Exec(ctx, `UPDATE clauses SET embedding = $1 WHERE id = $2`, embedding, clauseID)
	if err != nil {
		return xerrors.New(xerrors.DependencyFailure, "store.UpdateClauseEmbedding", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.New(xerrors.NotFound, "store.UpdateClauseEmbedding", nil)
	}
	return nil
}

// EmbeddingUpdate pairs a clause id with its newly generated embedding.
type EmbeddingUpdate struct {
	ClauseID  string
	Embedding pgvector.Vector
}

// UpdateClauseEmbeddings persists a batch of embedding vectors in chunks of
// at most chunkSize (default DefaultBatchChunkSize) per transaction, the
// "chunked batch-update" C8 (spec.md §4.8) requires. A failing chunk does
// not abort already-committed chunks; failing indices (relative to the
// input slice) are aggregated into a ChunkTooLargeError raised after every
// chunk has been attempted.
func (s *Store) UpdateClauseEmbeddings(ctx context.Context, updates []EmbeddingUpdate, chunkSize int) ([]string, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultBatchChunkSize
	}

	var updated []string
	var failingIndices []int
	var firstErr error

	for start := 0; start < len(updates); start += chunkSize {
		end := start + chunkSize
		if end > len(updates) {
			end = len(updates)
		}
		chunk := updates[start:end]

		if err := s.writeEmbeddingChunk(ctx, chunk); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			for i := start; i < end; i++ {
				failingIndices = append(failingIndices, i)
			}
			continue
		}
		for _, u := range chunk {
			updated = append(updated, u.ClauseID)
		}
	}

	if firstErr != nil {
		return updated, &ChunkTooLargeError{FailingIndices: failingIndices, Err: firstErr}
	}
	return updated, nil
}

func (s *Store) writeEmbeddingChunk(ctx context.Context, chunk []EmbeddingUpdate) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, u := range chunk {
		batch.Queue(`UPDATE clauses SET embedding = $1 WHERE id = $2`, u.Embedding, u.ClauseID)
	}

	br := tx.SendBatch(ctx, batch)
	for range chunk {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	if err := br.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetClausesByDocument returns a document's clauses ordered 1..N.
func (s *Store) GetClausesByDocument(ctx context.Context, documentID string) ([]*Clause, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, document_id, clause_order, original_text, summary, category, risk_level,
			risk_score, needs_review, readability, negotiation_tip, confidence, embedding,
			detected_keywords, risk_factors, processing_method
		FROM clauses WHERE document_id = $1 ORDER BY clause_order ASC
	`, documentID)
	if err != nil {
		return nil, xerrors.New(xerrors.DependencyFailure, "store.GetClausesByDocument", err)
	}
	defer rows.Close()

	var out []*Clause
	for rows.Next() {
		c := &Clause{}
		var readabilityRaw, keywordsRaw, factorsRaw []byte
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Order, &c.OriginalText, &c.Summary, &c.Category,
			&c.RiskLevel, &c.RiskScore, &c.NeedsReview, &readabilityRaw, &c.NegotiationTip, &c.Confidence,
			&c.Embedding, &keywordsRaw, &factorsRaw, &c.ProcessingMethod); err != nil {
			return nil, xerrors.New(xerrors.DependencyFailure, "store.GetClausesByDocument", err)
		}
		_ = json.Unmarshal(readabilityRaw, &c.Readability)
		_ = json.Unmarshal(keywordsRaw, &c.DetectedKeywords)
		_ = json.Unmarshal(factorsRaw, &c.RiskFactors)
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetClause fetches a single clause within a document, 404ing otherwise.
func (s *Store) GetClause(ctx context.Context, documentID, clauseID string) (*Clause, error) {
	clauses, err := s.GetClausesByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	for _, c := range clauses {
		if c.ID == clauseID {
			return c, nil
		}
	}
	return nil, xerrors.New(xerrors.NotFound, "store.GetClause", nil)
}
