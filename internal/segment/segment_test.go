package segment

import (
	"testing"

	"clausecompass/internal/extract"
)

func TestSegment_ContiguousOrder(t *testing.T) {
	result := &extract.Result{
		Method: extract.MethodRawText,
		Text: "SECTION 1. TERM\nThis agreement begins on the effective date and continues for one year unless terminated earlier by either party.\n" +
			"SECTION 2. TERMINATION\nEither party may terminate this agreement with thirty days written notice to the other party.",
		Pages: []extract.Page{{PageNumber: 1}},
	}

	candidates := Segment(result)
	if len(candidates) == 0 {
		t.Fatal("expected at least one candidate")
	}
	for i, c := range candidates {
		if c.Order != i+1 {
			t.Fatalf("expected contiguous order, candidate %d has order %d", i, c.Order)
		}
	}
}

func TestCleanText_StripsPageArtifacts(t *testing.T) {
	got := cleanText("Some clause text. Page 3 of 10\fMore text.")
	if got == "" {
		t.Fatal("expected non-empty cleaned text")
	}
	for _, bad := range []string{"Page 3", "\f"} {
		if contains(got, bad) {
			t.Fatalf("cleaned text still contains %q: %q", bad, got)
		}
	}
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && (func() bool {
		for i := 0; i+len(sub) <= len(s); i++ {
			if s[i:i+len(sub)] == sub {
				return true
			}
		}
		return false
	})()
}
