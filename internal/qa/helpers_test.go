package qa

import (
	"strings"
	"testing"

	"github.com/pgvector/pgvector-go"

	"clausecompass/internal/memory"
	"clausecompass/internal/retrieval"
	"clausecompass/internal/store"
)

func TestFilterEmbedded_KeepsOnlyClausesWithVectors(t *testing.T) {
	vec := pgvector.NewVector([]float32{0.1, 0.2})
	clauses := []*store.Clause{
		{ID: "c1", Embedding: &vec},
		{ID: "c2"},
	}
	got := filterEmbedded(clauses)
	if len(got) != 1 || got[0].ID != "c1" {
		t.Fatalf("expected only c1 to survive, got %+v", got)
	}
}

func TestBuildPrompt_IncludesConversationSummaryWhenUsed(t *testing.T) {
	convCtx := memory.Context{Summary: "prior discussion about termination", Used: true}
	matches := []retrieval.Match{
		{Clause: &store.Clause{ID: "c1", Order: 1, Category: "Termination", Summary: "30 day notice required"}, Similarity: 0.7},
	}
	prompt := buildPrompt("how much notice is required?", convCtx, matches)
	if !strings.Contains(prompt, "prior discussion about termination") {
		t.Fatalf("expected the summary to be included in the prompt")
	}
	if !strings.Contains(prompt, "30 day notice required") {
		t.Fatalf("expected the clause text to be included in the prompt")
	}
}

func TestBuildPrompt_OmitsConversationBlockWhenUnused(t *testing.T) {
	matches := []retrieval.Match{
		{Clause: &store.Clause{ID: "c1", Order: 1, Category: "Payment", Summary: "net 30 terms"}, Similarity: 0.6},
	}
	prompt := buildPrompt("when is payment due?", memory.Context{}, matches)
	if strings.Contains(prompt, "Previous conversation") {
		t.Fatalf("did not expect a conversation block without prior context")
	}
}
