// Package ingest implements C9, the ingestion orchestrator (spec.md §4.9):
// the twelve-stage pipeline that turns raw document bytes into persisted,
// scored, embedded clauses, with fatal/non-fatal failure handling and
// idempotent status transitions. Grounded in the original service's
// document_orchestrator.py, whose stage sequence and metadata shapes this
// mirrors, re-expressed with the store's compare-then-update transitions
// and an errgroup barrier for the concurrent risk/readability stage.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"clausecompass/internal/classify"
	"clausecompass/internal/embedding"
	"clausecompass/internal/extract"
	"clausecompass/internal/llm"
	"clausecompass/internal/readability"
	"clausecompass/internal/redact"
	"clausecompass/internal/risk"
	"clausecompass/internal/segment"
	"clausecompass/internal/store"
	"clausecompass/internal/xerrors"
)

// Stage names appended to a document's stages_completed list on success,
// named for the sequence in spec.md §4.9.
const (
	StageExtract             = "extract"
	StageRedact              = "redact"
	StageSegment             = "segment"
	StageClassify            = "classify"
	StageReadabilityBaseline = "readability-baseline"
	StageSummarize           = "summarize"
	StageRiskFuse            = "risk-fuse"
	StageReadabilityCompare  = "readability-compare"
	StagePersistClauses      = "persist-clauses"
	StageEmbed               = "embed"
	StageEmbedFailed         = "embeddings_generation_failed"
	StageAggregate           = "aggregate"
)

// Result is what Ingest returns to its caller (spec.md §4.9's ingest
// contract).
type Result struct {
	Status          store.DocumentStatus
	StagesCompleted []string
	Errors          []string
	Statistics      *store.ProcessingStatistics
}

// Orchestrator wires C1–C8 into the stage pipeline and persists through
// the document store.
type Orchestrator struct {
	extractor  *extract.Extractor
	redactor   *redact.Redactor
	classifier *classify.Classifier
	batcher    *llm.Batcher
	indexer    *embedding.Indexer
	store      *store.Store
	logger     *zap.Logger

	limits              extract.Limits
	chunkSize           int
	includeNegotiation  bool
}

// New constructs an Orchestrator.
func New(extractor *extract.Extractor, redactor *redact.Redactor, classifier *classify.Classifier,
	batcher *llm.Batcher, indexer *embedding.Indexer, st *store.Store, logger *zap.Logger,
	limits extract.Limits, chunkSize int, includeNegotiation bool) *Orchestrator {
	return &Orchestrator{
		extractor: extractor, redactor: redactor, classifier: classifier,
		batcher: batcher, indexer: indexer, store: st, logger: logger,
		limits: limits, chunkSize: chunkSize, includeNegotiation: includeNegotiation,
	}
}

// Ingest runs the full pipeline for one document. The document record is
// created in the processing state before any stage runs, so a status
// query never races an absent row (spec.md §4.9).
func (o *Orchestrator) Ingest(ctx context.Context, id string, data []byte, filename, mime string, sessionID *string) (*Result, error) {
	now := time.Now()
	doc := &store.Document{
		ID: id, Filename: filename, SessionID: sessionID,
		Status: store.StatusProcessing, CreatedAt: now, UpdatedAt: now,
	}
	if err := o.store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	res := &Result{Status: store.StatusProcessing}

	// Stage 1: extract
	extracted, err := o.extractor.Extract(data, filename, mime, o.limits)
	if err != nil {
		return o.fail(ctx, id, res, 1, err)
	}
	res.StagesCompleted = append(res.StagesCompleted, StageExtract)

	// Stage 2: redact
	redactedText, matches, piiSummary := o.redactor.Redact(extracted.Text)
	redactedResult := o.redactPages(extracted, redactedText, matches)
	res.StagesCompleted = append(res.StagesCompleted, StageRedact)

	// Stage 3: segment
	candidates := segment.Segment(redactedResult)

	// Stage 4: classify
	classified := o.classifier.Classify(ctx, candidates)
	res.StagesCompleted = append(res.StagesCompleted, StageSegment, StageClassify)

	if len(classified) == 0 {
		return o.fail(ctx, id, res, 4, xerrors.New(xerrors.InputValidation, "ingest.Ingest", fmt.Errorf("document %s produced no clause candidates after extraction", id)))
	}

	// Stage 5: readability baseline, over the whole redacted document
	baseline := readability.Score(redactedText, redactedText)
	baselineMetrics := &store.ReadabilityMetrics{OriginalGrade: baseline.OriginalGrade, FleschScore: baseline.FleschScore}
	res.StagesCompleted = append(res.StagesCompleted, StageReadabilityBaseline)

	pageCount := extracted.PageCount
	patch := store.DocumentPatch{
		PageCount: &pageCount, StagesCompleted: res.StagesCompleted,
		PIISummary: store.PIISummary(piiSummary), BaselineReadability: baselineMetrics,
	}
	if len(matches) > 0 {
		masked := true
		patch.Masked = &masked
	}
	if err := o.store.UpdateDocumentStatus(ctx, id, store.StatusProcessing, store.StatusProcessing, patch); err != nil {
		return o.fail(ctx, id, res, 5, err)
	}

	// Stage 6: LLM batch summarization
	clauseIDs := make([]string, len(classified))
	inputs := make([]llm.ClauseInput, len(classified))
	for i, c := range classified {
		clauseIDs[i] = clauseID(id, i)
		inputs[i] = llm.ClauseInput{ClauseID: clauseIDs[i], Text: c.Candidate.Text, Category: string(c.Category)}
	}
	summaries := o.batcher.Summarize(ctx, inputs, o.includeNegotiation)
	res.StagesCompleted = append(res.StagesCompleted, StageSummarize)

	// Stages 7‖8: risk fuse and readability compare, concurrently per clause.
	riskResults := make([]risk.Assessment, len(classified))
	readabilityResults := make([]readability.Metrics, len(classified))
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		for i, s := range summaries {
			riskResults[i] = risk.Fuse(classified[i].Candidate.Text, s.Summary, s.RiskLevel, string(classified[i].Category))
		}
		return nil
	})
	g.Go(func() error {
		for i, s := range summaries {
			readabilityResults[i] = readability.Score(classified[i].Candidate.Text, s.Summary)
		}
		return nil
	})
	_ = g.Wait()
	res.StagesCompleted = append(res.StagesCompleted, StageRiskFuse, StageReadabilityCompare)

	// Stage 9: persist clauses
	clauses := make([]*store.Clause, len(classified))
	for i, c := range classified {
		s := summaries[i]
		clauses[i] = &store.Clause{
			ID: clauseIDs[i], DocumentID: id, Order: i + 1,
			OriginalText: c.Candidate.Text, Summary: s.Summary, Category: classified[i].Category,
			RiskLevel: store.RiskLevel(riskResults[i].RiskLevel), RiskScore: riskResults[i].RiskScore,
			NeedsReview: riskResults[i].NeedsReview || s.NeedsReview,
			Readability: store.ReadabilityMetrics{
				OriginalGrade: readabilityResults[i].OriginalGrade, SummaryGrade: readabilityResults[i].SummaryGrade,
				Delta: readabilityResults[i].Delta, FleschScore: readabilityResults[i].FleschScore,
			},
			NegotiationTip: s.NegotiationTip, Confidence: s.Confidence,
			DetectedKeywords: riskResults[i].DetectedKeywords, RiskFactors: riskResults[i].RiskFactors,
			ProcessingMethod: s.ProcessingMethod,
		}
	}
	if _, err := o.store.CreateClauses(ctx, clauses, o.chunkSize); err != nil {
		return o.fail(ctx, id, res, 9, err)
	}
	res.StagesCompleted = append(res.StagesCompleted, StagePersistClauses)

	// Stage 10: embed & persist embeddings (non-fatal per spec.md §4.9)
	embeddingsOK := true
	if o.indexer != nil {
		texts := make([]embedding.ClauseText, len(clauses))
		for i, c := range clauses {
			text := c.Summary
			if text == "" {
				text = c.OriginalText
			}
			texts[i] = embedding.ClauseText{ClauseID: c.ID, Text: text}
		}
		if err := o.indexer.Index(ctx, texts); err != nil {
			embeddingsOK = false
			if o.logger != nil {
				o.logger.Warn("stage 10 embedding failed, continuing to completion", zap.String("document_id", id), zap.Error(err))
			}
			res.StagesCompleted = append(res.StagesCompleted, StageEmbedFailed)
		} else {
			res.StagesCompleted = append(res.StagesCompleted, StageEmbed)
		}
	}

	// Stage 11: aggregate document-level risk & readability, persist negotiations
	clauseRisks := make([]risk.ClauseRisk, len(clauses))
	var gradeReduction, fleschImprovement float64
	var highRisk int
	negotiations := make([]*store.Negotiation, 0)
	for i, c := range clauses {
		clauseRisks[i] = risk.ClauseRisk{ClauseID: c.ID, Category: string(c.Category), RiskLevel: string(c.RiskLevel), RiskScore: c.RiskScore, NeedsReview: c.NeedsReview}
		gradeReduction += c.Readability.Delta
		fleschImprovement += c.Readability.FleschScore
		if c.RiskLevel == store.RiskAttention {
			highRisk++
		}
		if c.NeedsReview {
			negotiations = append(negotiations, &store.Negotiation{
				ID: negotiationID(id, i), DocumentID: id, ClauseID: c.ID,
				Category: c.Category, RiskScore: c.RiskScore, Summary: c.Summary, CreatedAt: time.Now(),
			})
		}
	}
	if len(clauses) > 0 {
		gradeReduction /= float64(len(clauses))
		fleschImprovement /= float64(len(clauses))
	}

	profile := risk.Aggregate(clauseRisks)
	docProfile := &store.DocumentRiskProfile{
		RiskDistribution: map[store.RiskLevel]int{
			store.RiskLow: profile.RiskDistribution["low"], store.RiskModerate: profile.RiskDistribution["moderate"],
			store.RiskAttention: profile.RiskDistribution["attention"],
		},
		NeedsReviewCount: profile.NeedsReviewCount, AverageRiskScore: profile.AverageRiskScore,
		OverallRiskLevel: store.RiskLevel(profile.OverallRiskLevel),
	}
	for _, tr := range profile.TopRisks {
		docProfile.TopRisks = append(docProfile.TopRisks, store.TopRisk{ClauseID: tr.ClauseID, Category: store.Category(tr.Category), Score: tr.RiskScore, Level: store.RiskLevel(tr.RiskLevel)})
	}
	docReadability := &store.DocumentReadabilityAnalysis{AvgGradeLevelReduction: gradeReduction, AvgFleschImprovement: fleschImprovement}
	stats := &store.ProcessingStatistics{
		TotalClauses: len(clauses), PIIDetected: len(matches), HighRiskClauses: highRisk,
		AvgReadabilityImprovement: gradeReduction,
	}

	if len(negotiations) > 0 {
		if err := o.store.CreateNegotiations(ctx, negotiations); err != nil && o.logger != nil {
			o.logger.Warn("negotiation projection write failed", zap.String("document_id", id), zap.Error(err))
		}
	}
	res.StagesCompleted = append(res.StagesCompleted, StageAggregate)

	// Stage 12: final completed transition
	embeddingsOKCopy := embeddingsOK
	finalPatch := store.DocumentPatch{
		StagesCompleted: res.StagesCompleted, ProcessingStatistics: stats,
		DocumentRiskProfile: docProfile, DocumentReadability: docReadability,
		EmbeddingsGeneratedOK: &embeddingsOKCopy,
	}
	if err := o.store.UpdateDocumentStatus(ctx, id, store.StatusProcessing, store.StatusCompleted, finalPatch); err != nil {
		return nil, err
	}

	res.Status = store.StatusCompleted
	res.Statistics = stats
	return res, nil
}

// fail transitions the document to failed with failed_at_stage = stage and
// returns the terminal Result (stages 1-5 and 9 are fatal per spec.md
// §4.9).
func (o *Orchestrator) fail(ctx context.Context, id string, res *Result, stage int, cause error) (*Result, error) {
	msg := cause.Error()
	patch := store.DocumentPatch{StagesCompleted: res.StagesCompleted, Error: &msg, FailedAtStage: &stage}
	if updateErr := o.store.UpdateDocumentStatus(ctx, id, store.StatusProcessing, store.StatusFailed, patch); updateErr != nil {
		if o.logger != nil {
			o.logger.Error("failed to record failure transition", zap.String("document_id", id), zap.Error(updateErr))
		}
	}
	res.Status = store.StatusFailed
	res.Errors = append(res.Errors, msg)
	return res, cause
}

// redactPages applies the stage-2 match table to a Result's layout blocks,
// so every block is masked with exactly the tokens the flat-text Redact
// call already assigned rather than a second, independently-numbered pass.
// Each block's span within the original flat text is located by scanning
// forward from the previous block's end (blocks are emitted in document
// order), and the matches falling inside that span are translated to
// block-relative offsets before masking.
func (o *Orchestrator) redactPages(original *extract.Result, redactedText string, matches []redact.Match) *extract.Result {
	out := &extract.Result{Text: redactedText, PageCount: original.PageCount, Method: original.Method}
	cursor := 0
	for _, page := range original.Pages {
		newPage := extract.Page{PageNumber: page.PageNumber, Paragraphs: page.Paragraphs}
		for _, block := range page.Blocks {
			var redactedBlock string
			if idx := strings.Index(original.Text[cursor:], block.Text); idx != -1 {
				blockStart := cursor + idx
				blockEnd := blockStart + len(block.Text)
				cursor = blockEnd
				redactedBlock = redact.Mask(block.Text, blockMatches(matches, blockStart, blockEnd))
			} else {
				// Block text couldn't be located within the flat document
				// (e.g. a layout provider normalizing whitespace
				// differently); fall back to detecting it independently
				// rather than leaving it unmasked.
				redactedBlock, _, _ = o.redactor.Redact(block.Text)
			}
			newPage.Blocks = append(newPage.Blocks, extract.Block{Text: redactedBlock, Confidence: block.Confidence, BBox: block.BBox})
		}
		out.Pages = append(out.Pages, newPage)
	}
	return out
}

// blockMatches returns the subset of matches fully contained within
// [blockStart, blockEnd), translated to offsets relative to blockStart.
func blockMatches(matches []redact.Match, blockStart, blockEnd int) []redact.Match {
	var out []redact.Match
	for _, m := range matches {
		if m.StartByte >= blockStart && m.EndByte <= blockEnd {
			translated := m
			translated.StartByte = m.StartByte - blockStart
			translated.EndByte = m.EndByte - blockStart
			out = append(out, translated)
		}
	}
	return out
}

// clauseID derives a deterministic clause id from the document id and
// clause order, so re-ingesting the same document yields byte-identical
// persisted clauses (spec.md §8's ingest idempotence law), mirroring the
// original service's f"{doc_id}_clause_{i}" scheme.
func clauseID(documentID string, index int) string {
	return fmt.Sprintf("%s_clause_%d", documentID, index+1)
}

// negotiationID derives a deterministic negotiation id from the document
// id and the originating clause's order, for the same idempotence reason
// as clauseID.
func negotiationID(documentID string, clauseIndex int) string {
	return fmt.Sprintf("%s_negotiation_%d", documentID, clauseIndex+1)
}
