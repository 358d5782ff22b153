package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Store is the document-store client: a pooled Postgres connection plus the
// pgvector extension for clause embeddings, grounded in the teacher's
// sse-rag-service/go-inference-service schema-init pattern and generalized
// to the full Document/Clause/ChatSession/Message/QAHistory model.
type Store struct {
	db     *pgxpool.Pool
	logger *zap.Logger
	dim    int
}

// Open connects to Postgres and ensures the schema exists. dim is the fixed
// clause-embedding dimension D (spec.md §3 invariant 2).
func Open(ctx context.Context, databaseURL string, dim int, logger *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	s := &Store{db: pool, logger: logger, dim: dim}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() { s.db.Close() }

func (s *Store) initSchema(ctx context.Context) error {
	schema := fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;

		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			byte_size BIGINT NOT NULL,
			page_count INTEGER NOT NULL DEFAULT 0,
			language TEXT NOT NULL DEFAULT '',
			masked BOOLEAN NOT NULL DEFAULT FALSE,
			session_id TEXT,
			status TEXT NOT NULL,
			stages_completed JSONB NOT NULL DEFAULT '[]',
			error TEXT,
			failed_at_stage INTEGER,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			processed_at TIMESTAMPTZ,
			pii_summary JSONB NOT NULL DEFAULT '{}',
			processing_statistics JSONB,
			baseline_readability JSONB,
			document_risk_profile JSONB,
			document_readability JSONB,
			embeddings_generated_ok BOOLEAN NOT NULL DEFAULT FALSE
		);

		CREATE TABLE IF NOT EXISTS clauses (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			clause_order INTEGER NOT NULL,
			original_text TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT 'Other',
			risk_level TEXT NOT NULL DEFAULT 'low',
			risk_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			needs_review BOOLEAN NOT NULL DEFAULT FALSE,
			readability JSONB NOT NULL DEFAULT '{}',
			negotiation_tip TEXT,
			confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			embedding vector(%d),
			detected_keywords JSONB NOT NULL DEFAULT '[]',
			risk_factors JSONB NOT NULL DEFAULT '[]',
			processing_method TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_clauses_document_id ON clauses(document_id);
		CREATE INDEX IF NOT EXISTS idx_clauses_document_order ON clauses(document_id, clause_order);
		CREATE INDEX IF NOT EXISTS idx_clauses_embedding_hnsw ON clauses
			USING hnsw (embedding vector_cosine_ops) WITH (m = 16, ef_construction = 64);

		CREATE TABLE IF NOT EXISTS chat_sessions (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			selected_documents JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_activity TIMESTAMPTZ NOT NULL DEFAULT now(),
			archived BOOLEAN NOT NULL DEFAULT FALSE,
			summary TEXT
		);

		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			sources JSONB NOT NULL DEFAULT '[]',
			metadata JSONB NOT NULL DEFAULT '{}',
			timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_messages_session_id ON messages(session_id, timestamp);

		CREATE TABLE IF NOT EXISTS qa_history (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			citations JSONB NOT NULL DEFAULT '[]',
			confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			session_id TEXT,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS negotiations (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			clause_id TEXT NOT NULL,
			category TEXT NOT NULL,
			risk_score DOUBLE PRECISION NOT NULL,
			summary TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`, s.dim)

	_, err := s.db.Exec(ctx, schema)
	return err
}
