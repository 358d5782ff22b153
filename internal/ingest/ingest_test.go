package ingest

import (
	"strings"
	"testing"

	"clausecompass/internal/extract"
	"clausecompass/internal/redact"
)

func TestRedactPages_MasksBlockTextConsistentlyWithFlatText(t *testing.T) {
	o := &Orchestrator{redactor: redact.New(nil, false)}
	flatText := "Contact jane.doe@example.com for questions."
	original := &extract.Result{
		Method:    extract.MethodLayoutAware,
		PageCount: 1,
		Text:      flatText,
		Pages: []extract.Page{
			{PageNumber: 1, Blocks: []extract.Block{{Text: flatText}}},
		},
	}

	redactedFlat, matches, _ := o.redactor.Redact(flatText)
	out := o.redactPages(original, redactedFlat, matches)

	if out.Text != redactedFlat {
		t.Fatalf("expected flat text to carry the redacted text verbatim")
	}
	if len(out.Pages) != 1 || len(out.Pages[0].Blocks) != 1 {
		t.Fatalf("expected page/block structure to be preserved")
	}
	blockText := out.Pages[0].Blocks[0].Text
	if blockText == original.Pages[0].Blocks[0].Text {
		t.Fatalf("expected block text to be redacted, got unredacted: %q", blockText)
	}
	if blockText != redactedFlat {
		t.Fatalf("expected block token to match the flat-text token exactly, got block=%q flat=%q", blockText, redactedFlat)
	}
}

func TestRedactPages_PreservesPageCountAndMethod(t *testing.T) {
	o := &Orchestrator{redactor: redact.New(nil, false)}
	original := &extract.Result{Method: extract.MethodRawText, PageCount: 3, Text: "no pii here"}

	out := o.redactPages(original, "no pii here", nil)

	if out.PageCount != 3 || out.Method != extract.MethodRawText {
		t.Fatalf("expected page count/method preserved, got %+v", out)
	}
}

func TestClauseID_DeterministicAcrossCalls(t *testing.T) {
	if clauseID("doc-1", 0) != clauseID("doc-1", 0) {
		t.Fatalf("expected clauseID to be deterministic for the same (doc, index)")
	}
	if clauseID("doc-1", 0) == clauseID("doc-1", 1) {
		t.Fatalf("expected distinct indices to produce distinct ids")
	}
	if clauseID("doc-1", 0) == clauseID("doc-2", 0) {
		t.Fatalf("expected distinct documents to produce distinct ids")
	}
	if got, want := clauseID("doc-1", 2), "doc-1_clause_3"; got != want {
		t.Fatalf("expected 1-indexed clause id %q, got %q", want, got)
	}
}

func TestNegotiationID_DeterministicAcrossCalls(t *testing.T) {
	if negotiationID("doc-1", 0) != negotiationID("doc-1", 0) {
		t.Fatalf("expected negotiationID to be deterministic for the same (doc, clause index)")
	}
	if got, want := negotiationID("doc-1", 2), "doc-1_negotiation_3"; got != want {
		t.Fatalf("expected 1-indexed negotiation id %q, got %q", want, got)
	}
}

func TestRedactPages_MultipleBlocksCarryFlatTextTokens(t *testing.T) {
	o := &Orchestrator{redactor: redact.New(nil, false)}
	blockA := "Contact jane.doe@example.com for sales."
	blockB := "Escalate to jane.doe@example.com for support."
	flatText := blockA + " " + blockB
	original := &extract.Result{
		Method: extract.MethodLayoutAware, PageCount: 1, Text: flatText,
		Pages: []extract.Page{
			{PageNumber: 1, Blocks: []extract.Block{{Text: blockA}, {Text: blockB}}},
		},
	}

	redactedFlat, matches, _ := o.redactor.Redact(flatText)
	out := o.redactPages(original, redactedFlat, matches)

	tokenA := out.Pages[0].Blocks[0].Text
	tokenB := out.Pages[0].Blocks[1].Text
	if tokenA == blockA || tokenB == blockB {
		t.Fatalf("expected both blocks to be redacted, got %q / %q", tokenA, tokenB)
	}
	if !strings.Contains(tokenA, "[EMAIL_ADDRESS_1]") || !strings.Contains(tokenB, "[EMAIL_ADDRESS_2]") {
		t.Fatalf("expected each block to carry the flat text's per-match token, got %q / %q", tokenA, tokenB)
	}
}
