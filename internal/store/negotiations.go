package store

import (
	"context"

	"clausecompass/internal/xerrors"
)

// CreateNegotiations persists the derived negotiations projection (one row
// per clause flagged needs_review=true), written by C9 stage 11 alongside
// the document risk profile. Supplements spec.md §6's persisted-state
// layout, which names `negotiations/{negotiation_id}` without a component
// contract.
func (s *Store) CreateNegotiations(ctx context.Context, negotiations []*Negotiation) error {
	for _, n := range negotiations {
		_, err := s.db.Exec(ctx, `
			INSERT INTO negotiations (id, document_id, clause_id, category, risk_score, summary, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (id) DO NOTHING
		`, n.ID, n.DocumentID, n.ClauseID, n.Category, n.RiskScore, n.Summary, n.CreatedAt)
		if err != nil {
			return xerrors.New(xerrors.DependencyFailure, "store.CreateNegotiations", err)
		}
	}
	return nil
}

// ListNegotiations returns a document's negotiations, sorted client-side by
// created_at to avoid a composite index (spec.md §6).
func (s *Store) ListNegotiations(ctx context.Context, documentID string) ([]*Negotiation, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, document_id, clause_id, category, risk_score, summary, created_at
		FROM negotiations WHERE document_id = $1
	`, documentID)
	if err != nil {
		return nil, xerrors.New(xerrors.DependencyFailure, "store.ListNegotiations", err)
	}
	defer rows.Close()

	var out []*Negotiation
	for rows.Next() {
		n := &Negotiation{}
		if err := rows.Scan(&n.ID, &n.DocumentID, &n.ClauseID, &n.Category, &n.RiskScore, &n.Summary, &n.CreatedAt); err != nil {
			return nil, xerrors.New(xerrors.DependencyFailure, "store.ListNegotiations", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.New(xerrors.DependencyFailure, "store.ListNegotiations", err)
	}

	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.Before(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}
