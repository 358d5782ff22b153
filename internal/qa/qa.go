// Package qa implements C13, the grounded Q&A responder (spec.md §4.13):
// it turns a question plus a document id into an answer grounded only in
// that document's clauses, with citations, conversation memory, and
// analytics. Grounded in qa.py's ask_question/ask_question_stream
// endpoints.
package qa

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clausecompass/internal/cache"
	"clausecompass/internal/embedding"
	"clausecompass/internal/events"
	"clausecompass/internal/llm"
	"clausecompass/internal/memory"
	"clausecompass/internal/metrics"
	"clausecompass/internal/redact"
	"clausecompass/internal/retrieval"
	"clausecompass/internal/store"
	"clausecompass/internal/xerrors"
)

const noRelevantClausesAnswer = "I couldn't find any clauses in this document that relate to your question. Please try rephrasing your question or ask about different aspects of the document."

// Request is one incoming question.
type Request struct {
	DocumentID            string
	Question              string
	SessionID             *string
	UseConversationMemory bool
	AutoDetectLanguage    bool
	LanguageOverride      Language
}

// Answer is C13's full response contract (spec.md §4.13, supplemented per
// SPEC_FULL.md §3 with the language/context fields qa.py's AnswerResponse
// carries).
type Answer struct {
	Answer                      string           `json:"answer"`
	UsedClauseIDs               []string         `json:"used_clause_ids"`
	Confidence                  float64          `json:"confidence"`
	Sources                     []store.Citation `json:"sources"`
	SessionID                   *string          `json:"chat_session_id,omitempty"`
	ConversationContextUsed     bool             `json:"conversation_context_used"`
	DetectedLanguage            Language         `json:"detected_language,omitempty"`
	ResponseLanguage            Language         `json:"response_language"`
	LanguageDetectionConfidence float64          `json:"language_detection_confidence,omitempty"`
	DetectionMethod             string           `json:"detection_method,omitempty"`
}

// Responder wires together C10 (cache), C11 (retrieval), C12 (memory),
// and the LLM client/embedder into the grounded Q&A pipeline.
type Responder struct {
	store     *store.Store
	cache     *cache.Cache
	memory    *memory.Memory
	embedder  llm.Embedder
	client    llm.Client
	indexer   *embedding.Indexer
	publisher events.Publisher
	logger    *zap.Logger
	metrics   *metrics.Registry

	topK          int
	minSimilarity float64
	defaultLang   Language
}

// SetMetrics attaches a metrics registry; nil is a valid no-op default.
func (r *Responder) SetMetrics(reg *metrics.Registry) { r.metrics = reg }

// New constructs a Responder.
func New(st *store.Store, c *cache.Cache, mem *memory.Memory, embedder llm.Embedder, client llm.Client, indexer *embedding.Indexer, publisher events.Publisher, logger *zap.Logger, topK int, minSimilarity float64) *Responder {
	if topK <= 0 {
		topK = retrieval.DefaultTopK
	}
	if minSimilarity <= 0 {
		minSimilarity = retrieval.DefaultMinSimilarity
	}
	return &Responder{
		store: st, cache: c, memory: mem, embedder: embedder, client: client,
		indexer: indexer, publisher: publisher, logger: logger,
		topK: topK, minSimilarity: minSimilarity, defaultLang: LanguageEnglish,
	}
}

// Ask runs the full unary pipeline (spec.md §4.13 steps 1-11).
func (r *Responder) Ask(ctx context.Context, req Request) (*Answer, error) {
	start := time.Now()

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, xerrors.New(xerrors.InputValidation, "qa.Ask", fmt.Errorf("question cannot be empty"))
	}

	detected := DetectLanguage(question)
	responseLang := r.defaultLang
	if req.AutoDetectLanguage || req.LanguageOverride != "" {
		responseLang = Resolve(req.AutoDetectLanguage, req.LanguageOverride, r.defaultLang, detected)
	}

	convCtx, contextUsed := r.loadConversationContext(ctx, req)

	clauses, err := r.clausesReadyForRetrieval(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}

	questionVector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, xerrors.New(xerrors.DependencyFailure, "qa.Ask", fmt.Errorf("embed question: %w", err))
	}

	retrievalStart := time.Now()
	matches := retrieval.Search(questionVector, clauses, r.topK, r.minSimilarity)
	if r.metrics != nil {
		r.metrics.RetrievalLatency.Observe(time.Since(retrievalStart).Seconds())
	}

	answer := &Answer{
		SessionID: req.SessionID, ConversationContextUsed: contextUsed,
		ResponseLanguage: responseLang,
	}
	if req.AutoDetectLanguage {
		answer.DetectedLanguage = detected.Language
		answer.LanguageDetectionConfidence = detected.Confidence
		answer.DetectionMethod = detected.Method
	}

	if len(matches) == 0 {
		answer.Answer = noRelevantClausesAnswer
		answer.UsedClauseIDs = []string{}
		answer.Sources = []store.Citation{}
		r.finish(ctx, req, question, answer, start)
		return answer, nil
	}

	prompt := buildPrompt(question, convCtx, matches)
	raw, err := r.client.Generate(ctx, prompt, 1024)
	var parsed llmAnswer
	if err == nil {
		parsed, err = parseAnswer(raw)
	}
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("qa generation failed, returning apology", zap.Error(err))
		}
		answer.Answer = "I wasn't able to generate a grounded answer for that question. Please try again."
		answer.UsedClauseIDs = []string{}
		answer.Sources = []store.Citation{}
		r.finish(ctx, req, question, answer, start)
		return answer, nil
	}

	answer.Answer = parsed.Answer
	answer.UsedClauseIDs = parsed.UsedClauseIDs
	answer.Confidence = clamp01(parsed.Confidence)
	answer.Sources = buildCitations(matches, parsed.UsedClauseIDs)

	r.finish(ctx, req, question, answer, start)
	return answer, nil
}

// loadConversationContext fetches the session's memory window (spec.md
// §4.13 step 3) and schedules the user message append in the background,
// mirroring qa.py's BackgroundTasks.add_task for add_message.
func (r *Responder) loadConversationContext(ctx context.Context, req Request) (memory.Context, bool) {
	if req.SessionID == nil || !req.UseConversationMemory || r.memory == nil {
		return memory.Context{}, false
	}

	sessionID := *req.SessionID
	convCtx, err := r.memory.Context(ctx, sessionID)
	if err != nil {
		return memory.Context{}, false
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = r.memory.Append(bgCtx, sessionID, store.RoleUser, req.Question, nil)
	}()

	return convCtx, convCtx.Used
}

// clausesReadyForRetrieval implements spec.md §4.13 steps 4-5: cache-first
// fetch, then the embeddings-present check with document-status-gated
// lazy backfill.
func (r *Responder) clausesReadyForRetrieval(ctx context.Context, documentID string) ([]*store.Clause, error) {
	clauses, err := r.fetchClauses(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if len(clauses) == 0 {
		return nil, xerrors.New(xerrors.NotFound, "qa.Ask", fmt.Errorf("document %s has no clauses", documentID))
	}

	withEmbeddings := filterEmbedded(clauses)
	if len(withEmbeddings) > 0 {
		return withEmbeddings, nil
	}

	doc, err := r.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, xerrors.New(xerrors.DocumentNotReady, "qa.Ask", fmt.Errorf("document status unavailable: %w", err))
	}
	if doc.Status != store.StatusCompleted {
		return nil, xerrors.New(xerrors.DocumentNotReady, "qa.Ask", fmt.Errorf("document status is %s", doc.Status))
	}

	if r.indexer != nil {
		texts := make([]embedding.ClauseText, 0, len(clauses))
		for _, c := range clauses {
			text := c.Summary
			if text == "" {
				text = c.OriginalText
			}
			texts = append(texts, embedding.ClauseText{ClauseID: c.ID, Text: text})
		}
		if err := r.indexer.Index(ctx, texts); err != nil && r.logger != nil {
			r.logger.Warn("lazy embedding backfill failed", zap.String("document_id", documentID), zap.Error(err))
		}
	}

	reloaded, err := r.fetchClauses(ctx, documentID)
	if err != nil {
		return nil, err
	}
	withEmbeddings = filterEmbedded(reloaded)
	if len(withEmbeddings) == 0 {
		return nil, xerrors.New(xerrors.DocumentNotReady, "qa.Ask", fmt.Errorf("document %s still has no embedded clauses", documentID))
	}
	return withEmbeddings, nil
}

func (r *Responder) fetchClauses(ctx context.Context, documentID string) ([]*store.Clause, error) {
	key := cache.Key(documentID)
	if r.cache != nil {
		if clauses, ok := r.cache.Get(key); ok {
			if r.metrics != nil {
				r.metrics.CacheHits.Inc()
			}
			return clauses, nil
		}
		if r.metrics != nil {
			r.metrics.CacheMisses.Inc()
		}
	}

	clauses, err := r.store.GetClausesByDocument(ctx, documentID)
	if err != nil {
		return nil, xerrors.New(xerrors.DependencyFailure, "qa.fetchClauses", err)
	}
	if r.cache != nil && len(clauses) > 0 {
		r.cache.Set(key, clauses)
	}
	return clauses, nil
}

func filterEmbedded(clauses []*store.Clause) []*store.Clause {
	out := make([]*store.Clause, 0, len(clauses))
	for _, c := range clauses {
		if c.HasEmbedding() {
			out = append(out, c)
		}
	}
	return out
}

// finish runs the non-blocking tail of the pipeline: history persistence,
// assistant message append, and analytics (spec.md §4.13 steps 10-11).
// None of it can fail the request that already has its answer.
func (r *Responder) finish(ctx context.Context, req Request, question string, answer *Answer, start time.Time) {
	latency := time.Since(start)
	if r.metrics != nil {
		r.metrics.QALatency.Observe(latency.Seconds())
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		rec := &store.QAHistoryRecord{
			ID: uuid.NewString(), DocumentID: req.DocumentID, Question: question, Answer: answer.Answer,
			Citations: answer.Sources, Confidence: answer.Confidence, SessionID: req.SessionID,
			Timestamp: time.Now(),
		}
		if err := r.store.CreateQAHistory(bgCtx, rec); err != nil && r.logger != nil {
			r.logger.Warn("failed to persist qa history", zap.Error(err))
		}

		if req.SessionID != nil && req.UseConversationMemory && r.memory != nil {
			_ = r.memory.Append(bgCtx, *req.SessionID, store.RoleAssistant, answer.Answer, answer.Sources)
		}

		if r.publisher != nil {
			evt := events.QuestionAsked{
				DocumentID: req.DocumentID, SessionID: req.SessionID,
				QuestionHash: redact.Hash(question), Confidence: answer.Confidence,
				CitationCount: len(answer.Sources), ResponseLatency: latency,
			}
			if err := r.publisher.Publish(bgCtx, evt); err != nil && r.logger != nil {
				r.logger.Warn("failed to publish question_asked event", zap.Error(err))
			}
		}
	}()
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
