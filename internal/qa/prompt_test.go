package qa

import (
	"strings"
	"testing"

	"clausecompass/internal/retrieval"
	"clausecompass/internal/store"
)

func TestExtractFirstJSONObject_FindsObjectAmidPrefixText(t *testing.T) {
	raw := `Sure, here you go: {"answer": "yes", "used_clause_ids": ["c1"], "confidence": 0.8} trailing text`
	obj, err := extractFirstJSONObject(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(obj, "{") || !strings.HasSuffix(obj, "}") {
		t.Fatalf("expected a balanced object, got %q", obj)
	}
}

func TestExtractFirstJSONObject_NoBraceIsError(t *testing.T) {
	if _, err := extractFirstJSONObject("no json here"); err == nil {
		t.Fatalf("expected an error")
	}
}

func TestParseAnswer_RejectsEmptyAnswerField(t *testing.T) {
	if _, err := parseAnswer(`{"answer": "", "used_clause_ids": [], "confidence": 0.5}`); err == nil {
		t.Fatalf("expected an error for an empty answer field")
	}
}

func TestParseAnswer_DecodesValidObject(t *testing.T) {
	out, err := parseAnswer(`{"answer": "the term is 12 months", "used_clause_ids": ["c1"], "confidence": 0.9}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Answer != "the term is 12 months" || len(out.UsedClauseIDs) != 1 {
		t.Fatalf("unexpected decode: %+v", out)
	}
}

func TestBuildCitations_SkipsUnretrievedClauseIDs(t *testing.T) {
	matches := []retrieval.Match{
		{Clause: &store.Clause{ID: "c1", Order: 1, Category: "Payment", OriginalText: "clause one text"}, Similarity: 0.5},
	}
	cites := buildCitations(matches, []string{"c1", "c-unknown"})
	if len(cites) != 1 || cites[0].ClauseID != "c1" {
		t.Fatalf("expected exactly one citation for c1, got %+v", cites)
	}
}

func TestSnippet_TruncatesLongTextWithEllipsis(t *testing.T) {
	long := strings.Repeat("a", 400)
	got := snippet(long)
	if len(got) != citationSnippetLen+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected truncated snippet with ellipsis, got len %d", len(got))
	}
}

func TestSnippet_ShortTextUnchanged(t *testing.T) {
	if snippet("short") != "short" {
		t.Fatalf("expected short text unchanged")
	}
}
