package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"clausecompass/internal/metrics"
)

const (
	defaultMaxClausesPerBatch = 10
	tokenBudgetFraction       = 0.7
)

// Batcher implements C5's packing, concurrent dispatch, and output
// validation.
type Batcher struct {
	client          Client
	logger          *zap.Logger
	maxClauses      int
	maxPromptTokens int
	maxOutputTokens int
	metrics         *metrics.Registry
}

// SetMetrics attaches a metrics registry; nil is a valid no-op default.
func (b *Batcher) SetMetrics(reg *metrics.Registry) { b.metrics = reg }

// New constructs a Batcher. maxClauses and maxPromptTokens come from
// config (spec.md §6 MAX_CLAUSES_PER_BATCH / MAX_PROMPT_TOKENS).
func New(client Client, logger *zap.Logger, maxClauses, maxPromptTokens, maxOutputTokens int) *Batcher {
	if maxClauses <= 0 {
		maxClauses = defaultMaxClausesPerBatch
	}
	return &Batcher{client: client, logger: logger, maxClauses: maxClauses, maxPromptTokens: maxPromptTokens, maxOutputTokens: maxOutputTokens}
}

// estimateTokens approximates token count as ceil(chars/4) (spec.md §4.5).
func estimateTokens(chars int) int {
	return (chars + 3) / 4
}

// packBatches greedily packs clauses bounded by maxClauses AND an
// estimated-token budget of 0.7*maxPromptTokens (spec.md §4.5).
func (b *Batcher) packBatches(clauses []ClauseInput) [][]ClauseInput {
	budget := int(float64(b.maxPromptTokens) * tokenBudgetFraction)

	var batches [][]ClauseInput
	var current []ClauseInput
	currentTokens := 0

	for _, c := range clauses {
		tokens := estimateTokens(len(c.Text))
		if len(current) > 0 && (len(current) >= b.maxClauses || currentTokens+tokens > budget) {
			batches = append(batches, current)
			current = nil
			currentTokens = 0
		}
		current = append(current, c)
		currentTokens += tokens
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

// Summarize runs C5 end to end: pack, dispatch all batches concurrently,
// join at a barrier, and return results in input order (spec.md §4.5's
// ordering guarantee). One failing batch never fails the others; it
// degrades to per-clause fallback results.
func (b *Batcher) Summarize(ctx context.Context, clauses []ClauseInput, includeNegotiationTips bool) []SummaryResult {
	batches := b.packBatches(clauses)
	batchResults := make([][]SummaryResult, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			batchResults[i] = b.runBatch(gctx, batch, includeNegotiationTips)
			return nil
		})
	}
	_ = g.Wait() // runBatch never returns an error; failures degrade to fallback results

	out := make([]SummaryResult, 0, len(clauses))
	for _, br := range batchResults {
		out = append(out, br...)
	}
	return out
}

// runBatch issues one structured-JSON request and validates/coerces the
// response; on any error it returns fallback results for the whole batch
// (spec.md §4.5 "retry/fallback wrapper").
func (b *Batcher) runBatch(ctx context.Context, batch []ClauseInput, includeNegotiationTips bool) []SummaryResult {
	prompt := buildPrompt(batch, includeNegotiationTips)
	if estimateTokens(len(prompt)) > b.maxPromptTokens && len(batch) > 1 {
		mid := len(batch) / 2
		left := b.runBatch(ctx, batch[:mid], includeNegotiationTips)
		right := b.runBatch(ctx, batch[mid:], includeNegotiationTips)
		return append(left, right...)
	}

	raw, err := b.client.Generate(ctx, prompt, b.maxOutputTokens)
	if err != nil {
		if b.logger != nil {
			b.logger.Warn("llm batch failed, using fallback results", zap.Error(err), zap.Int("batch_size", len(batch)))
		}
		if b.metrics != nil {
			b.metrics.LLMBatchFailures.Inc()
		}
		return fallbackBatch(batch)
	}

	results, err := parseAndValidate(raw, batch)
	if err != nil {
		if b.logger != nil {
			b.logger.Warn("llm batch response invalid, using fallback results", zap.Error(err))
		}
		if b.metrics != nil {
			b.metrics.LLMBatchFailures.Inc()
		}
		return fallbackBatch(batch)
	}
	return results
}

func fallbackBatch(batch []ClauseInput) []SummaryResult {
	out := make([]SummaryResult, len(batch))
	for i, c := range batch {
		out[i] = fallbackResult(c.ClauseID)
	}
	return out
}

func buildPrompt(batch []ClauseInput, includeNegotiationTips bool) string {
	var sb strings.Builder
	sb.WriteString("You are a legal-clause analyst. For each numbered clause below, return a JSON array ")
	sb.WriteString("of objects with fields: summary, category, risk_level (low|moderate|attention), ")
	if includeNegotiationTips {
		sb.WriteString("negotiation_tip, ")
	}
	sb.WriteString("confidence (0-1). Respond with ONLY the JSON array, in the same order as the clauses.\n\n")
	for i, c := range batch {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, c.Text)
	}
	return sb.String()
}

type llmItem struct {
	Summary        string   `json:"summary"`
	Category       string   `json:"category"`
	RiskLevel      string   `json:"risk_level"`
	NegotiationTip *string  `json:"negotiation_tip"`
	Confidence     float64  `json:"confidence"`
}

// parseAndValidate extracts the first JSON array in raw, coerces each
// item's fields to the closed enums, and pads missing items with
// fallbacks so the result length always equals the input length (spec.md
// §4.5 output validation).
func parseAndValidate(raw string, batch []ClauseInput) ([]SummaryResult, error) {
	arrayText, err := extractFirstJSONArray(raw)
	if err != nil {
		return nil, err
	}

	var items []llmItem
	if err := sonic.UnmarshalString(arrayText, &items); err != nil {
		if err2 := json.Unmarshal([]byte(arrayText), &items); err2 != nil {
			return nil, fmt.Errorf("llm: invalid JSON array: %w", err)
		}
	}

	out := make([]SummaryResult, len(batch))
	for i, c := range batch {
		if i >= len(items) {
			out[i] = fallbackResult(c.ClauseID)
			continue
		}
		item := items[i]
		out[i] = SummaryResult{
			ClauseID:         c.ClauseID,
			Summary:          item.Summary,
			Category:         coerceCategory(item.Category, c.Category),
			RiskLevel:        coerceRiskLevel(item.RiskLevel),
			NegotiationTip:   item.NegotiationTip,
			Confidence:       clamp01(item.Confidence),
			ProcessingMethod: methodLLM,
		}
		if out[i].Summary == "" {
			out[i] = fallbackResult(c.ClauseID)
		}
	}
	return out, nil
}

func extractFirstJSONArray(raw string) (string, error) {
	start := strings.IndexByte(raw, '[')
	if start == -1 {
		return "", fmt.Errorf("llm: no JSON array found in response")
	}
	depth := 0
	for i := start; i < len(raw); i++ {
		switch raw[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("llm: unterminated JSON array in response")
}

var validRiskLevels = map[string]bool{"low": true, "moderate": true, "attention": true}

func coerceRiskLevel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if validRiskLevels[s] {
		return s
	}
	return "moderate"
}

var validCategories = map[string]bool{
	"Termination": true, "Liability": true, "Indemnity": true, "Confidentiality": true,
	"Payment": true, "IP-Ownership": true, "Dispute-Resolution": true, "Governing-Law": true,
	"Assignment": true, "Modification": true, "Warranties": true, "Force-Majeure": true,
	"Definitions": true, "Other": true,
}

func coerceCategory(s, fallback string) string {
	s = strings.TrimSpace(s)
	if validCategories[s] {
		return s
	}
	if validCategories[fallback] {
		return fallback
	}
	return "Other"
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
