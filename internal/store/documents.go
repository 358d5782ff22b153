package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"clausecompass/internal/xerrors"
)

// CreateDocument inserts a new Document in the processing state. Per
// spec.md §4.9, the Orchestrator must call this before enqueuing ingestion
// work so that status queries never race an absent row.
func (s *Store) CreateDocument(ctx context.Context, doc *Document) error {
	piiSummary, _ := json.Marshal(doc.PIISummary)
	stages, _ := json.Marshal(doc.StagesCompleted)

	_, err := s.db.Exec(ctx, `
		INSERT INTO documents (id, filename, byte_size, page_count, language, masked, session_id,
			status, stages_completed, created_at, updated_at, pii_summary)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10,$11)
	`, doc.ID, doc.Filename, doc.ByteSize, doc.PageCount, doc.Language, doc.Masked, doc.SessionID,
		doc.Status, stages, doc.CreatedAt, piiSummary)
	if err != nil {
		return xerrors.New(xerrors.DependencyFailure, "store.CreateDocument", err)
	}
	return nil
}

// GetDocument fetches a Document by id.
func (s *Store) GetDocument(ctx context.Context, id string) (*Document, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, filename, byte_size, page_count, language, masked, session_id,
			status, stages_completed, error, failed_at_stage, created_at, updated_at, processed_at,
			pii_summary, processing_statistics, baseline_readability, document_risk_profile,
			document_readability, embeddings_generated_ok
		FROM documents WHERE id = $1
	`, id)

	var d Document
	var stagesRaw, piiRaw []byte
	var statsRaw, baselineRaw, riskRaw, readabilityRaw []byte
	if err := row.Scan(&d.ID, &d.Filename, &d.ByteSize, &d.PageCount, &d.Language, &d.Masked, &d.SessionID,
		&d.Status, &stagesRaw, &d.Error, &d.FailedAtStage, &d.CreatedAt, &d.UpdatedAt, &d.ProcessedAt,
		&piiRaw, &statsRaw, &baselineRaw, &riskRaw, &readabilityRaw, &d.EmbeddingsGeneratedOK); err != nil {
		if err == pgx.ErrNoRows {
			return nil, xerrors.New(xerrors.NotFound, "store.GetDocument", err)
		}
		return nil, xerrors.New(xerrors.DependencyFailure, "store.GetDocument", err)
	}

	_ = json.Unmarshal(stagesRaw, &d.StagesCompleted)
	_ = json.Unmarshal(piiRaw, &d.PIISummary)
	if statsRaw != nil {
		d.ProcessingStatistics = &ProcessingStatistics{}
		_ = json.Unmarshal(statsRaw, d.ProcessingStatistics)
	}
	if baselineRaw != nil {
		d.BaselineReadability = &ReadabilityMetrics{}
		_ = json.Unmarshal(baselineRaw, d.BaselineReadability)
	}
	if riskRaw != nil {
		d.DocumentRiskProfile = &DocumentRiskProfile{}
		_ = json.Unmarshal(riskRaw, d.DocumentRiskProfile)
	}
	if readabilityRaw != nil {
		d.DocumentReadability = &DocumentReadabilityAnalysis{}
		_ = json.Unmarshal(readabilityRaw, d.DocumentReadability)
	}
	return &d, nil
}

// DocumentPatch carries the fields an ingestion stage may update in a
// single compare-then-update transition.
type DocumentPatch struct {
	PageCount               *int
	StagesCompleted         []string
	Error                   *string
	FailedAtStage           *int
	PIISummary              PIISummary
	Masked                  *bool
	BaselineReadability     *ReadabilityMetrics
	ProcessingStatistics    *ProcessingStatistics
	DocumentRiskProfile     *DocumentRiskProfile
	DocumentReadability     *DocumentReadabilityAnalysis
	EmbeddingsGeneratedOK   *bool
}

// UpdateDocumentStatus performs the linearizable compare-then-update
// transition spec.md §4.9 requires: the row is only updated if it is
// currently in fromStatus (or fromStatus is empty, meaning "any"). An
// update targeting a missing document fails with DocumentNotFound
// (xerrors.NotFound), per spec.md §4.9.
func (s *Store) UpdateDocumentStatus(ctx context.Context, id string, fromStatus, toStatus DocumentStatus, patch DocumentPatch) error {
	now := time.Now()

	var processedAt any
	if toStatus == StatusCompleted || toStatus == StatusFailed {
		processedAt = now
	}

	args := []any{toStatus, now, processedAt, id}
	setClauses := "status = $1, updated_at = $2, processed_at = COALESCE(processed_at, $3)"
	n := len(args)

	addSet := func(col string, val any) {
		n++
		setClauses += ", " + col + " = $" + strconv.Itoa(n)
		args = append(args, val)
	}

	if patch.PageCount != nil {
		addSet("page_count", *patch.PageCount)
	}
	if patch.StagesCompleted != nil {
		b, _ := json.Marshal(patch.StagesCompleted)
		addSet("stages_completed", b)
	}
	if patch.Error != nil {
		addSet("error", *patch.Error)
	}
	if patch.FailedAtStage != nil {
		addSet("failed_at_stage", *patch.FailedAtStage)
	}
	if patch.PIISummary != nil {
		b, _ := json.Marshal(patch.PIISummary)
		addSet("pii_summary", b)
	}
	if patch.Masked != nil {
		addSet("masked", *patch.Masked)
	}
	if patch.BaselineReadability != nil {
		b, _ := json.Marshal(patch.BaselineReadability)
		addSet("baseline_readability", b)
	}
	if patch.ProcessingStatistics != nil {
		b, _ := json.Marshal(patch.ProcessingStatistics)
		addSet("processing_statistics", b)
	}
	if patch.DocumentRiskProfile != nil {
		b, _ := json.Marshal(patch.DocumentRiskProfile)
		addSet("document_risk_profile", b)
	}
	if patch.DocumentReadability != nil {
		b, _ := json.Marshal(patch.DocumentReadability)
		addSet("document_readability", b)
	}
	if patch.EmbeddingsGeneratedOK != nil {
		addSet("embeddings_generated_ok", *patch.EmbeddingsGeneratedOK)
	}

	query := "UPDATE documents SET " + setClauses + " WHERE id = $4"
	if fromStatus != "" {
		n++
		query += " AND status = $" + strconv.Itoa(n)
		args = append(args, fromStatus)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return xerrors.New(xerrors.DependencyFailure, "store.UpdateDocumentStatus", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetDocument(ctx, id); xerrors.Is(err, xerrors.NotFound) {
			return xerrors.New(xerrors.NotFound, "store.UpdateDocumentStatus", err)
		}
		return xerrors.New(xerrors.Conflict, "store.UpdateDocumentStatus", nil)
	}
	return nil
}
