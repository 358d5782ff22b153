// Package llm implements C5, the LLM batcher (spec.md §4.5): greedy
// token-bounded batch packing, concurrent structured-JSON requests, and
// strict output validation/padding so the result always matches input
// length and order. Grounded in legal-gateway/worker.go's Ollama model
// fallback chain and go-enhanced-rag-service's batch-with-retry shape,
// generalized into a provider-agnostic Client interface per spec.md §1
// (the LLM provider itself is an external black box).
package llm

import (
	"context"
)

// Client is the external LLM collaborator's minimal surface: given a
// prompt, return raw completion text. Out of scope per spec.md §1; real
// implementations call an Ollama/Gemini/etc. HTTP endpoint.
type Client interface {
	Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error)
}

// ClauseInput is one clause handed to the batcher for summarization.
type ClauseInput struct {
	ClauseID string
	Text     string
	Category string // best-effort hint from C4; the LLM may override it
}

// SummaryResult is C5's per-clause output contract (spec.md §4.5).
type SummaryResult struct {
	ClauseID         string
	Summary          string
	Category         string
	RiskLevel        string
	NeedsReview      bool
	NegotiationTip   *string
	Confidence       float64
	ProcessingMethod string
}

const (
	methodLLM      = "gemini"
	methodFallback = "fallback"
)

func fallbackResult(clauseID string) SummaryResult {
	return SummaryResult{
		ClauseID:         clauseID,
		Summary:          "requires manual review",
		Confidence:       0.3,
		NeedsReview:      true,
		ProcessingMethod: methodFallback,
	}
}
