package readability

import "testing"

func TestScore_SimplerSummaryYieldsPositiveDelta(t *testing.T) {
	original := "Notwithstanding any provision herein to the contrary, the indemnifying party shall be obligated to fully compensate the counterparty for all consequential, incidental, and punitive damages arising from any breach."
	summary := "If you break this rule, you must pay for the harm it causes."

	m := Score(original, summary)

	if m.Delta <= 0 {
		t.Fatalf("expected positive delta for simpler summary, got %v (original=%v summary=%v)", m.Delta, m.OriginalGrade, m.SummaryGrade)
	}
}

func TestScore_EmptyTextYieldsZeroMetrics(t *testing.T) {
	m := Score("", "")
	if m.OriginalGrade != 0 || m.SummaryGrade != 0 || m.Delta != 0 || m.FleschScore != 0 {
		t.Fatalf("expected all-zero metrics for empty input, got %+v", m)
	}
}

func TestScore_SingleWordNoPunctuationDoesNotPanic(t *testing.T) {
	m := Score("Confidentiality", "Secret")
	if m.OriginalGrade == 0 && m.SummaryGrade == 0 {
		t.Fatalf("expected non-zero grades for real words, got %+v", m)
	}
}
