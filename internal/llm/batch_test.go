package llm

import (
	"context"
	"errors"
	"testing"
)

type fakeClient struct {
	response string
	err      error
}

func (f *fakeClient) Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error) {
	return f.response, f.err
}

func TestSummarize_PreservesLengthAndOrder(t *testing.T) {
	clauses := []ClauseInput{
		{ClauseID: "c1", Text: "Clause one text."},
		{ClauseID: "c2", Text: "Clause two text."},
	}
	client := &fakeClient{response: `[{"summary":"s1","category":"Other","risk_level":"low","confidence":0.9},{"summary":"s2","category":"Other","risk_level":"moderate","confidence":0.8}]`}
	b := New(client, nil, 10, 30000, 8000)

	results := b.Summarize(context.Background(), clauses, false)
	if len(results) != len(clauses) {
		t.Fatalf("expected %d results, got %d", len(clauses), len(results))
	}
	if results[0].ClauseID != "c1" || results[1].ClauseID != "c2" {
		t.Fatalf("expected input order preserved, got %+v", results)
	}
}

func TestSummarize_FallsBackOnError(t *testing.T) {
	clauses := []ClauseInput{{ClauseID: "c1", Text: "Clause text."}}
	client := &fakeClient{err: errors.New("provider unavailable")}
	b := New(client, nil, 10, 30000, 8000)

	results := b.Summarize(context.Background(), clauses, false)
	if len(results) != 1 {
		t.Fatalf("expected 1 fallback result, got %d", len(results))
	}
	if results[0].ProcessingMethod != methodFallback || !results[0].NeedsReview {
		t.Fatalf("expected fallback result with needs_review, got %+v", results[0])
	}
}

func TestSummarize_LengthAlwaysMatchesInputEvenWithPartialResponse(t *testing.T) {
	clauses := []ClauseInput{
		{ClauseID: "c1", Text: "Clause one."},
		{ClauseID: "c2", Text: "Clause two."},
	}
	client := &fakeClient{response: `[{"summary":"s1","category":"Other","risk_level":"low","confidence":0.9}]`}
	b := New(client, nil, 10, 30000, 8000)

	results := b.Summarize(context.Background(), clauses, false)
	if len(results) != 2 {
		t.Fatalf("expected padded result length 2, got %d", len(results))
	}
	if results[1].ProcessingMethod != methodFallback {
		t.Fatalf("expected second result to be padded fallback, got %+v", results[1])
	}
}
