package risk

import "testing"

func TestFuse_IndemnityUnlimitedDamagesTriggersReview(t *testing.T) {
	text := "Company shall indemnify and hold Customer harmless against all third-party claims, including unlimited consequential damages."
	a := Fuse(text, "", "attention", "Indemnity")

	if a.RiskScore < 0.8 {
		t.Fatalf("expected risk_score >= 0.8, got %v", a.RiskScore)
	}
	if a.RiskLevel != "attention" {
		t.Fatalf("expected risk_level attention, got %v", a.RiskLevel)
	}
	if !a.NeedsReview {
		t.Fatalf("expected needs_review true")
	}
}

func TestFuse_NeedsReviewImpliesTriggeringCondition(t *testing.T) {
	cases := []struct {
		text, summary, llmLabel, category string
	}{
		{"Company shall indemnify and hold Customer harmless against unlimited liability.", "", "attention", "Indemnity"},
		{"This agreement may terminate immediately without notice, is irrevocable and perpetual.", "", "low", "Termination"},
		{"Routine notice clause with no special terms.", "", "low", "Other"},
	}

	for _, c := range cases {
		a := Fuse(c.text, c.summary, c.llmLabel, c.category)
		if !a.NeedsReview {
			continue
		}
		diff := 0.0
		if ks, hits, _ := scoreKeywords(c.text + " " + c.summary); len(hits) > 0 {
			llmScore, ok := llmLabelScores[c.llmLabel]
			if !ok {
				llmScore = 0.5
			}
			diff = ks - llmScore
			if diff < 0 {
				diff = -diff
			}
		}
		triggered := a.RiskScore >= 0.8 || len(a.DetectedKeywords) >= 3 || diff > 0.4
		if !triggered {
			t.Fatalf("needs_review true without a triggering condition: %+v", a)
		}
	}
}

func TestFuse_NoEvidenceFallsBackToLLMLabel(t *testing.T) {
	a := Fuse("Routine clause.", "", "low", "Other")
	if a.RiskLevel != "low" {
		t.Fatalf("expected low risk from LLM label alone, got %v", a.RiskLevel)
	}
	if len(a.DetectedKeywords) != 0 {
		t.Fatalf("expected no keyword hits, got %v", a.DetectedKeywords)
	}
}

func TestAggregate_EmptyClausesYieldsLowOverall(t *testing.T) {
	p := Aggregate(nil)
	if p.OverallRiskLevel != "low" {
		t.Fatalf("expected low overall for empty input, got %v", p.OverallRiskLevel)
	}
	if p.AverageRiskScore != 0 {
		t.Fatalf("expected zero average, got %v", p.AverageRiskScore)
	}
}

func TestAggregate_TopRisksSortedDescendingCappedAtFive(t *testing.T) {
	clauses := make([]ClauseRisk, 0, 7)
	for i := 0; i < 7; i++ {
		clauses = append(clauses, ClauseRisk{
			ClauseID:  string(rune('a' + i)),
			RiskLevel: "moderate",
			RiskScore: float64(i) / 10,
		})
	}
	p := Aggregate(clauses)
	if len(p.TopRisks) != 5 {
		t.Fatalf("expected 5 top risks, got %d", len(p.TopRisks))
	}
	for i := 1; i < len(p.TopRisks); i++ {
		if p.TopRisks[i].RiskScore > p.TopRisks[i-1].RiskScore {
			t.Fatalf("top risks not sorted descending: %+v", p.TopRisks)
		}
	}
}
