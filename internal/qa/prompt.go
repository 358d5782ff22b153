package qa

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"clausecompass/internal/memory"
	"clausecompass/internal/retrieval"
	"clausecompass/internal/store"
)

const citationSnippetLen = 300

// buildPrompt assembles the grounded prompt: system directive, the
// conversation window (spec.md §4.13 step 3's at-most-5-recent-messages
// plus rolling summary, per qa.py's conversation_context), the candidate
// clauses, and the question.
func buildPrompt(question string, convCtx memory.Context, matches []retrieval.Match) string {
	var sb strings.Builder
	sb.WriteString("You are a legal clause assistant. Answer the question using ONLY the clauses listed below; ")
	sb.WriteString("do not rely on outside knowledge. Cite every clause you rely on by its clause number. ")
	sb.WriteString("Respond with ONLY a JSON object of the form ")
	sb.WriteString(`{"answer": string, "used_clause_ids": [string], "confidence": number between 0 and 1}.` + "\n\n")

	if convCtx.Used {
		sb.WriteString("Previous conversation:\n")
		if convCtx.Summary != "" {
			fmt.Fprintf(&sb, "Summary: %s\n", convCtx.Summary)
		}
		recent := convCtx.Messages
		if len(recent) > 5 {
			recent = recent[len(recent)-5:]
		}
		for _, m := range recent {
			fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Clauses:\n")
	for _, m := range matches {
		text := m.Clause.Summary
		if text == "" {
			text = m.Clause.OriginalText
		}
		fmt.Fprintf(&sb, "[%s] (clause %d, %s): %s\n", m.Clause.ID, m.Clause.Order, m.Clause.Category, text)
	}

	fmt.Fprintf(&sb, "\nQuestion: %s\n", question)
	return sb.String()
}

type llmAnswer struct {
	Answer        string   `json:"answer"`
	UsedClauseIDs []string `json:"used_clause_ids"`
	Confidence    float64  `json:"confidence"`
}

// parseAnswer extracts the first JSON object from raw and decodes it,
// distinct from internal/llm/batch.go's array parser since C13's contract
// is a single object (spec.md §4.13 step 8).
func parseAnswer(raw string) (llmAnswer, error) {
	objText, err := extractFirstJSONObject(raw)
	if err != nil {
		return llmAnswer{}, err
	}

	var out llmAnswer
	if err := sonic.UnmarshalString(objText, &out); err != nil {
		if err2 := json.Unmarshal([]byte(objText), &out); err2 != nil {
			return llmAnswer{}, fmt.Errorf("qa: invalid JSON object: %w", err)
		}
	}
	if strings.TrimSpace(out.Answer) == "" {
		return llmAnswer{}, fmt.Errorf("qa: empty answer field")
	}
	return out, nil
}

func extractFirstJSONObject(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	if start == -1 {
		return "", fmt.Errorf("qa: no JSON object found in response")
	}
	depth := 0
	for i := start; i < len(raw); i++ {
		switch raw[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("qa: unterminated JSON object in response")
}

// buildCitations builds a Citation per used clause id, in the order the
// LLM listed them, skipping ids that weren't among the retrieved matches
// (spec.md §4.13 step 9).
func buildCitations(matches []retrieval.Match, usedClauseIDs []string) []store.Citation {
	byID := make(map[string]retrieval.Match, len(matches))
	for _, m := range matches {
		byID[m.Clause.ID] = m
	}

	out := make([]store.Citation, 0, len(usedClauseIDs))
	for _, id := range usedClauseIDs {
		m, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, store.Citation{
			ClauseID: m.Clause.ID, Order: m.Clause.Order, Category: m.Clause.Category,
			Snippet: snippet(m.Clause.OriginalText), RelevanceScore: m.Similarity,
		})
	}
	return out
}

func snippet(text string) string {
	if len(text) <= citationSnippetLen {
		return text
	}
	return text[:citationSnippetLen] + "..."
}
