package embedding

import (
	"context"
	"errors"
	"testing"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	fail    map[string]bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.fail[text] {
		return nil, errors.New("embedding provider unavailable")
	}
	return f.vectors[text], nil
}

func TestItoaSlice_FormatsIndices(t *testing.T) {
	got := itoaSlice([]int{0, 2, 5})
	want := "[0,2,5]"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestItoaSlice_Empty(t *testing.T) {
	if got := itoaSlice(nil); got != "[]" {
		t.Fatalf("expected [], got %q", got)
	}
}

func TestEmbeddingPersistError_Unwrap(t *testing.T) {
	cause := errors.New("chunk failed")
	err := &EmbeddingPersistError{FailingIndices: []int{1}, Err: cause}
	if errors.Unwrap(err) != cause {
		t.Fatalf("expected Unwrap to return the wrapped cause")
	}
}

func TestGenerateUpdates_SkipsFailingClausesWithoutAborting(t *testing.T) {
	embedder := &fakeEmbedder{
		vectors: map[string][]float32{"clause a": {0.1, 0.2}, "clause c": {0.3, 0.4}},
		fail:    map[string]bool{"clause b": true},
	}
	clauses := []ClauseText{
		{ClauseID: "a", Text: "clause a"},
		{ClauseID: "b", Text: "clause b"},
		{ClauseID: "c", Text: "clause c"},
	}

	updates := generateUpdates(context.Background(), embedder, clauses, 10, nil)
	if len(updates) != 2 {
		t.Fatalf("expected 2 successful embeddings, got %d", len(updates))
	}
	for _, u := range updates {
		if u.ClauseID == "b" {
			t.Fatalf("expected clause b to be skipped, found in updates")
		}
	}
}

func TestGenerateUpdates_EmptyInputYieldsNoUpdates(t *testing.T) {
	embedder := &fakeEmbedder{}
	updates := generateUpdates(context.Background(), embedder, nil, 10, nil)
	if len(updates) != 0 {
		t.Fatalf("expected no updates for empty input, got %d", len(updates))
	}
}
