package redact

import (
	"strings"
	"testing"
)

func TestRedact_MasksEmail(t *testing.T) {
	r := New(nil, false)
	text := "Contact john.doe@example.com for details."
	masked, matches, summary := r.Redact(text)

	if strings.Contains(masked, "john.doe@example.com") {
		t.Fatalf("masked text still contains raw email: %q", masked)
	}
	if summary[typeEmail] < 1 {
		t.Fatalf("expected at least 1 email in summary, got %v", summary)
	}
	if len(matches) == 0 {
		t.Fatal("expected at least one match")
	}
}

func TestRedact_EmptyText(t *testing.T) {
	r := New(nil, false)
	masked, matches, summary := r.Redact("   ")
	if masked != "   " {
		t.Fatalf("expected unchanged text for blank input, got %q", masked)
	}
	if matches != nil || len(summary) != 0 {
		t.Fatalf("expected no matches for blank input")
	}
}

func TestHash_Length(t *testing.T) {
	h := Hash("what is the termination clause?")
	if len(h) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(h))
	}
}
