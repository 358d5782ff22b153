package risk

import "sort"

// ClauseRisk is the minimal view of a scored clause Profile needs.
type ClauseRisk struct {
	ClauseID    string
	Category    string
	RiskLevel   string
	RiskScore   float64
	NeedsReview bool
}

// Profile is the document-level risk aggregation C9 stage 11 produces,
// grounded in risk_analyzer.py's analyze_document_risk_profile.
type Profile struct {
	RiskDistribution map[string]int
	NeedsReviewCount int
	TopRisks         []ClauseRisk
	AverageRiskScore float64
	OverallRiskLevel string
}

// Aggregate builds a document Profile from its clauses' individual risk
// assessments.
func Aggregate(clauses []ClauseRisk) Profile {
	dist := map[string]int{"low": 0, "moderate": 0, "attention": 0}
	var sum float64
	needsReview := 0

	for _, c := range clauses {
		dist[c.RiskLevel]++
		sum += c.RiskScore
		if c.NeedsReview {
			needsReview++
		}
	}

	sorted := make([]ClauseRisk, len(clauses))
	copy(sorted, clauses)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RiskScore > sorted[j].RiskScore })
	topN := 5
	if len(sorted) < topN {
		topN = len(sorted)
	}

	avg := 0.0
	if len(clauses) > 0 {
		avg = sum / float64(len(clauses))
	}

	overall := "low"
	if len(clauses) > 0 {
		attentionRatio := float64(dist["attention"]) / float64(len(clauses))
		moderateRatio := float64(dist["moderate"]) / float64(len(clauses))
		switch {
		case attentionRatio > 0.3:
			overall = "attention"
		case attentionRatio > 0.1 || moderateRatio > 0.5:
			overall = "moderate"
		}
	}

	return Profile{
		RiskDistribution: dist,
		NeedsReviewCount: needsReview,
		TopRisks:         sorted[:topN],
		AverageRiskScore: avg,
		OverallRiskLevel: overall,
	}
}
