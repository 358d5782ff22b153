package qa

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"clausecompass/internal/memory"
	"clausecompass/internal/retrieval"
	"clausecompass/internal/store"
)

// StreamEvent is one SSE frame's payload (spec.md §4.13 "Streaming mode"):
// type is one of status, language_detection, user_message, answer,
// complete, error. Grounded in sse-rag-service/main.go's SSEEvent shape.
type StreamEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

func statusEvent(message string) StreamEvent {
	return StreamEvent{Type: "status", Data: map[string]any{"message": message}}
}

// AskStream runs the same pipeline as Ask but emits progress events as it
// goes, ending in exactly one "answer" followed by "complete", or a
// single "error" that terminates the stream (spec.md §4.13 ordering
// invariant).
func (r *Responder) AskStream(ctx context.Context, req Request, emit func(StreamEvent)) {
	start := time.Now()
	emit(statusEvent("Processing your question..."))

	question := strings.TrimSpace(req.Question)
	if question == "" {
		emit(StreamEvent{Type: "error", Data: map[string]any{"message": "Question cannot be empty"}})
		return
	}

	detected := DetectLanguage(question)
	responseLang := r.defaultLang
	if req.AutoDetectLanguage {
		emit(statusEvent("Detecting language..."))
		responseLang = Resolve(req.AutoDetectLanguage, req.LanguageOverride, r.defaultLang, detected)
		if req.LanguageOverride == "" && responseLang == detected.Language {
			emit(StreamEvent{Type: "language_detection", Data: map[string]any{
				"detected_language": string(detected.Language), "confidence": detected.Confidence,
			}})
		}
	} else if req.LanguageOverride != "" {
		responseLang = req.LanguageOverride
	}

	contextUsed := false
	var convCtx memory.Context
	if req.SessionID != nil && req.UseConversationMemory {
		emit(StreamEvent{Type: "user_message", Data: map[string]any{
			"content": question, "chat_session_id": *req.SessionID,
		}})
		emit(statusEvent("Loading conversation context..."))
		convCtx, contextUsed = r.loadConversationContext(ctx, req)
	}

	clauses, err := r.clausesReadyForRetrieval(ctx, req.DocumentID)
	if err != nil {
		emit(StreamEvent{Type: "error", Data: map[string]any{"message": err.Error()}})
		return
	}

	emit(statusEvent(fmt.Sprintf("Searching %d clauses for relevance...", len(clauses))))
	questionVector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		emit(StreamEvent{Type: "error", Data: map[string]any{"message": "failed to process the question"}})
		return
	}
	retrievalStart := time.Now()
	matches := retrieval.Search(questionVector, clauses, r.topK, r.minSimilarity)
	if r.metrics != nil {
		r.metrics.RetrievalLatency.Observe(time.Since(retrievalStart).Seconds())
	}

	answer := &Answer{SessionID: req.SessionID, ConversationContextUsed: contextUsed, ResponseLanguage: responseLang}

	if len(matches) == 0 {
		answer.Answer = noRelevantClausesAnswer
		answer.UsedClauseIDs = []string{}
		answer.Sources = []store.Citation{}
		emit(answerEvent(answer))
		r.finish(ctx, req, question, answer, start)
		emit(StreamEvent{Type: "complete", Data: map[string]any{}})
		return
	}

	emit(statusEvent(fmt.Sprintf("Found %d relevant clauses. Generating answer...", len(matches))))
	prompt := buildPrompt(question, convCtx, matches)
	raw, err := r.client.Generate(ctx, prompt, 1024)
	var parsed llmAnswer
	if err == nil {
		parsed, err = parseAnswer(raw)
	}
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("qa stream generation failed, returning apology", zap.Error(err))
		}
		answer.Answer = "I wasn't able to generate a grounded answer for that question. Please try again."
		answer.UsedClauseIDs = []string{}
		answer.Sources = []store.Citation{}
		emit(answerEvent(answer))
		r.finish(ctx, req, question, answer, start)
		emit(StreamEvent{Type: "complete", Data: map[string]any{}})
		return
	}

	answer.Answer = parsed.Answer
	answer.UsedClauseIDs = parsed.UsedClauseIDs
	answer.Confidence = clamp01(parsed.Confidence)
	answer.Sources = buildCitations(matches, parsed.UsedClauseIDs)

	emit(answerEvent(answer))
	r.finish(ctx, req, question, answer, start)
	emit(StreamEvent{Type: "complete", Data: map[string]any{}})
}

func answerEvent(a *Answer) StreamEvent {
	return StreamEvent{Type: "answer", Data: map[string]any{
		"content": a.Answer, "confidence": a.Confidence, "sources": a.Sources,
		"chat_session_id": a.SessionID, "conversation_context_used": a.ConversationContextUsed,
	}}
}
