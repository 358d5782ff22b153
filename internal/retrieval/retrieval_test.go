package retrieval

import (
	"testing"

	"github.com/pgvector/pgvector-go"

	"clausecompass/internal/store"
)

func clauseWithVec(id string, order int, vec []float32) *store.Clause {
	v := pgvector.NewVector(vec)
	return &store.Clause{ID: id, Order: order, Embedding: &v}
}

func TestSearch_OrdersByDescendingSimilarity(t *testing.T) {
	clauses := []*store.Clause{
		clauseWithVec("low", 1, []float32{1, 0}),
		clauseWithVec("high", 2, []float32{1, 1}),
	}
	question := []float32{1, 1}

	matches := Search(question, clauses, 5, 0)
	if len(matches) != 2 || matches[0].Clause.ID != "high" {
		t.Fatalf("expected highest similarity first, got %+v", matches)
	}
}

func TestSearch_FiltersBelowMinSimilarity(t *testing.T) {
	clauses := []*store.Clause{
		clauseWithVec("orthogonal", 1, []float32{0, 1}),
	}
	question := []float32{1, 0}

	matches := Search(question, clauses, 5, 0.2)
	if len(matches) != 0 {
		t.Fatalf("expected orthogonal vector filtered out, got %+v", matches)
	}
}

func TestSearch_SkipsClausesWithoutEmbeddings(t *testing.T) {
	clauses := []*store.Clause{
		{ID: "no-embedding", Order: 1},
		clauseWithVec("has-embedding", 2, []float32{1, 0}),
	}

	matches := Search([]float32{1, 0}, clauses, 5, 0)
	if len(matches) != 1 || matches[0].Clause.ID != "has-embedding" {
		t.Fatalf("expected only embedded clause returned, got %+v", matches)
	}
}

func TestSearch_TiesBreakByAscendingOrder(t *testing.T) {
	clauses := []*store.Clause{
		clauseWithVec("second", 2, []float32{1, 0}),
		clauseWithVec("first", 1, []float32{1, 0}),
	}

	matches := Search([]float32{1, 0}, clauses, 5, 0)
	if len(matches) != 2 || matches[0].Clause.ID != "first" {
		t.Fatalf("expected tie broken by ascending order, got %+v", matches)
	}
}

func TestSearch_TruncatesToTopK(t *testing.T) {
	clauses := []*store.Clause{
		clauseWithVec("a", 1, []float32{1, 0}),
		clauseWithVec("b", 2, []float32{1, 0}),
		clauseWithVec("c", 3, []float32{1, 0}),
	}

	matches := Search([]float32{1, 0}, clauses, 2, 0)
	if len(matches) != 2 {
		t.Fatalf("expected truncation to top_k=2, got %d", len(matches))
	}
}

func TestSearchAcrossDocuments_AppliesPerDocumentCeiling(t *testing.T) {
	docA := []*store.Clause{
		clauseWithVec("a1", 1, []float32{1, 0}),
		clauseWithVec("a2", 2, []float32{1, 0}),
		clauseWithVec("a3", 3, []float32{1, 0}),
		clauseWithVec("a4", 4, []float32{1, 0}),
	}
	docB := []*store.Clause{
		clauseWithVec("b1", 1, []float32{1, 0}),
	}

	matches := SearchAcrossDocuments([]float32{1, 0}, map[string][]*store.Clause{"docA": docA, "docB": docB}, 0)
	if len(matches) != 4 {
		t.Fatalf("expected per-document ceiling of 3 for docA plus 1 for docB, got %d", len(matches))
	}
}
