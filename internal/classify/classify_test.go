package classify

import (
	"context"
	"testing"

	"clausecompass/internal/segment"
)

func TestClassify_IndemnityByKeywords(t *testing.T) {
	c := New(nil)
	candidates := []segment.Candidate{
		{Text: "Company shall indemnify and hold Customer harmless against all third-party claims arising from the services, including defense of any such claims brought against Customer."},
	}
	out := c.Classify(context.Background(), candidates)
	if out[0].Category != CategoryIndemnity {
		t.Fatalf("expected Indemnity, got %v", out[0].Category)
	}
}

func TestClassify_FallsBackToOtherWithoutEmbedder(t *testing.T) {
	c := New(nil)
	candidates := []segment.Candidate{{Text: "The weather today is sunny with a light breeze from the west."}}
	out := c.Classify(context.Background(), candidates)
	if out[0].Category != CategoryOther {
		t.Fatalf("expected Other, got %v", out[0].Category)
	}
}
