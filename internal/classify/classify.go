// Package classify implements C4, the category classifier (spec.md §4.4):
// pattern-weighted scoring first, semantic nearest-neighbor fallback
// second, "Other" last. Grounded in clause_segmenter.py's
// identify_clause_types / _calculate_category_confidence.
package classify

import (
	"context"
	"math"
	"strings"

	"clausecompass/internal/segment"
)

// Embedder is the minimal surface C4 needs from the embedding provider for
// its semantic fallback: embed arbitrary text into a fixed-dimension
// vector. Satisfied by internal/llm.OllamaEmbedder.
type Embedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// Classifier implements C4.
type Classifier struct {
	embedder       Embedder
	exampleVectors map[Category][][]float32
}

// New constructs a Classifier. embedder may be nil, in which case
// candidates that fail the pattern-confidence threshold are labeled
// Other directly.
func New(embedder Embedder) *Classifier {
	return &Classifier{embedder: embedder}
}

// WarmExamples pre-embeds the canonical per-category example sentences so
// the semantic fallback doesn't pay embedding latency per classified
// clause. Safe to call once at startup; a nil embedder is a no-op.
func (c *Classifier) WarmExamples(ctx context.Context) {
	if c.embedder == nil {
		return
	}
	c.exampleVectors = make(map[Category][][]float32, len(categoryExamples))
	for category, examples := range categoryExamples {
		vectors := make([][]float32, 0, len(examples))
		for _, ex := range examples {
			if v, err := c.embedder.EmbedOne(ctx, ex); err == nil {
				vectors = append(vectors, v)
			}
		}
		c.exampleVectors[category] = vectors
	}
}

// Classify labels every candidate with a Category, returning a new slice of
// ClassifiedClause in input order; candidates itself is left unchanged.
func (c *Classifier) Classify(ctx context.Context, candidates []segment.Candidate) []ClassifiedClause {
	out := make([]ClassifiedClause, len(candidates))
	for i, cand := range candidates {
		out[i] = ClassifiedClause{Candidate: cand, Category: c.classifyOne(ctx, cand.Text)}
	}
	return out
}

// ClassifiedClause pairs a segmented candidate with its chosen category.
type ClassifiedClause struct {
	Candidate segment.Candidate
	Category  Category
}

func (c *Classifier) classifyOne(ctx context.Context, text string) Category {
	lower := strings.ToLower(text)
	words := float64(len(strings.Fields(text)))
	lengthFactor := 1.0
	if words > 50 {
		lengthFactor = 1.0 + (words-50)/200
		if lengthFactor > 1.5 {
			lengthFactor = 1.5
		}
	}

	type scored struct {
		category Category
		score    float64
	}
	var scores []scored
	for category, pats := range patterns {
		hits := 0
		for _, p := range pats {
			if p.MatchString(lower) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		raw := float64(hits) * lengthFactor
		normalized := raw / float64(len(pats)) * float64(hits)
		scores = append(scores, scored{category: category, score: normalized})
	}

	if len(scores) > 0 {
		// selection sort for top-2 (category counts are small; clarity over micro-perf)
		best, secondBest := 0, -1
		for i := 1; i < len(scores); i++ {
			if scores[i].score > scores[best].score {
				secondBest = best
				best = i
			} else if secondBest == -1 || scores[i].score > scores[secondBest].score {
				secondBest = i
			}
		}

		var confidence float64
		if secondBest >= 0 && scores[best].score > 0 {
			confidence = (scores[best].score - scores[secondBest].score) / scores[best].score
		} else {
			confidence = 1.0
		}

		if confidence >= 0.2 && scores[best].score >= 1.5 {
			return scores[best].category
		}
	}

	if c.embedder != nil {
		if category, ok := c.semanticFallback(ctx, text); ok {
			return category
		}
	}
	return CategoryOther
}

func (c *Classifier) semanticFallback(ctx context.Context, text string) (Category, bool) {
	vec, err := c.embedder.EmbedOne(ctx, text)
	if err != nil {
		return CategoryOther, false
	}

	var bestCategory Category
	bestScore := -1.0
	for category, vectors := range c.exampleVectors {
		for _, ex := range vectors {
			sim := cosineSimilarity(vec, ex)
			if sim > bestScore {
				bestScore = sim
				bestCategory = category
			}
		}
	}

	if bestScore >= 0.7 {
		return bestCategory, true
	}
	return CategoryOther, false
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
