package store

import (
	"context"
	"encoding/json"

	"clausecompass/internal/xerrors"
)

// CreateQAHistory persists an immutable Q&A history record (spec.md §3),
// written as background work after a question is answered (spec.md
// §4.13 step 11).
func (s *Store) CreateQAHistory(ctx context.Context, rec *QAHistoryRecord) error {
	citations, _ := json.Marshal(rec.Citations)
	_, err := s.db.Exec(ctx, `
		INSERT INTO qa_history (id, document_id, question, answer, citations, confidence, session_id, timestamp)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, rec.ID, rec.DocumentID, rec.Question, rec.Answer, citations, rec.Confidence, rec.SessionID, rec.Timestamp)
	if err != nil {
		return xerrors.New(xerrors.DependencyFailure, "store.CreateQAHistory", err)
	}
	return nil
}

// ListQAHistory returns prior Q&A records for a document, most recent first.
func (s *Store) ListQAHistory(ctx context.Context, documentID string, limit int) ([]*QAHistoryRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, document_id, question, answer, citations, confidence, session_id, timestamp
		FROM qa_history WHERE document_id = $1 ORDER BY timestamp DESC LIMIT $2
	`, documentID, limit)
	if err != nil {
		return nil, xerrors.New(xerrors.DependencyFailure, "store.ListQAHistory", err)
	}
	defer rows.Close()

	var out []*QAHistoryRecord
	for rows.Next() {
		r := &QAHistoryRecord{}
		var citationsRaw []byte
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.Question, &r.Answer, &citationsRaw, &r.Confidence, &r.SessionID, &r.Timestamp); err != nil {
			return nil, xerrors.New(xerrors.DependencyFailure, "store.ListQAHistory", err)
		}
		_ = json.Unmarshal(citationsRaw, &r.Citations)
		out = append(out, r)
	}
	return out, rows.Err()
}
