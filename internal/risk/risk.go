// Package risk implements C6, the risk fuser (spec.md §4.6): a keyword-
// weighted score fused with an LLM risk label and a category multiplier
// into a bounded score, level, and review flag. Grounded in the original
// service's risk_analyzer.py.
package risk

import (
	"fmt"
	"strings"
)

// Assessment is C6's output contract.
type Assessment struct {
	RiskLevel        string
	RiskScore        float64
	Confidence       float64
	DetectedKeywords []string
	RiskFactors      []string
	NeedsReview      bool
	Explanation      string
}

var llmLabelScores = map[string]float64{
	"low":       0.2,
	"moderate":  0.5,
	"attention": 0.8,
}

// Fuse combines keyword evidence from clauseText (and optionally summary)
// with an LLM-provided risk label and the clause's category into a single
// Assessment (spec.md §4.6).
func Fuse(clauseText, summary, llmLabel, category string) Assessment {
	keywordScore, hits, factors := scoreKeywords(clauseText + " " + summary)

	llmScore, hasLLM := llmLabelScores[strings.ToLower(llmLabel)]
	if !hasLLM {
		llmScore = 0.5
	}

	var fused float64
	switch {
	case len(hits) > 0 && hasLLM:
		fused = 0.7*keywordScore + 0.3*llmScore
	case len(hits) > 0:
		fused = keywordScore
	case hasLLM:
		fused = 0.3*keywordScore + 0.7*llmScore
	default:
		fused = llmScore
	}

	fused *= categoryMultiplier(category)
	fused = clamp01(fused)

	level := levelFor(fused)
	diff := keywordScore - llmScore
	if diff < 0 {
		diff = -diff
	}
	needsReview := fused >= 0.8 || len(hits) >= 3 || diff > 0.4

	confidence := confidenceFor(hits, keywordScore, llmScore, hasLLM)

	return Assessment{
		RiskLevel:        level,
		RiskScore:        fused,
		Confidence:       confidence,
		DetectedKeywords: hits,
		RiskFactors:      factors,
		NeedsReview:      needsReview,
		Explanation:      explanationFor(level, hits),
	}
}

// scoreKeywords matches the catalog against text, halving a hit's
// contribution when its negative context is also present, and aggregates
// per risk_analyzer.py's `min(1, sum/hit_count)` normalization.
func scoreKeywords(text string) (float64, []string, []string) {
	var hits []string
	var factors []string
	var sum float64

	for _, k := range keywords {
		if !k.pattern.MatchString(text) {
			continue
		}
		weight := k.weight
		if k.negativeContext != nil && k.negativeContext.MatchString(text) {
			weight /= 2
			factors = append(factors, fmt.Sprintf("mitigated: %s", k.pattern.String()))
		}
		sum += weight
		hits = append(hits, k.pattern.String())
	}

	if len(hits) == 0 {
		return 0, nil, nil
	}
	return clamp01(sum / float64(len(hits))), hits, factors
}

func levelFor(score float64) string {
	switch {
	case score >= 0.8:
		return "attention"
	case score >= 0.6:
		return "moderate"
	default:
		return "low"
	}
}

// confidenceFor mirrors risk_analyzer.py's _calculate_confidence: base
// 0.6, +0.2 when keyword evidence exists, + up to 0.2 scaled by keyword/LLM
// agreement.
func confidenceFor(hits []string, keywordScore, llmScore float64, hasLLM bool) float64 {
	confidence := 0.6
	if len(hits) > 0 {
		confidence += 0.2
	}
	if hasLLM && len(hits) > 0 {
		diff := keywordScore - llmScore
		if diff < 0 {
			diff = -diff
		}
		agreement := 1 - diff
		if agreement < 0 {
			agreement = 0
		}
		confidence += 0.2 * agreement
	}
	return clamp01(confidence)
}

func explanationFor(level string, hits []string) string {
	if len(hits) == 0 {
		return fmt.Sprintf("risk level %s determined from LLM assessment alone", level)
	}
	return fmt.Sprintf("risk level %s driven by %d keyword signal(s)", level, len(hits))
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
