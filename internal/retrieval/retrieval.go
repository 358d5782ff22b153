// Package retrieval implements C11, the retrieval engine (spec.md §4.11):
// cosine-similarity ranking of a question against a document's clauses,
// filtered by a minimum score and truncated to a top-k ceiling. Grounded
// in go-enhanced-rag-service/vector_store.go's SimilaritySearch (sort-
// descending, threshold-filter, limit shape), with its cosine formula
// corrected to the true normalized form (dot / (‖a‖·‖b‖), not dot /
// (normA·normB)) per spec.md's exact definition.
package retrieval

import (
	"math"
	"sort"

	"clausecompass/internal/store"
)

// DefaultTopK and DefaultMinSimilarity are C11's defaults (spec.md §4.11).
const (
	DefaultTopK          = 5
	DefaultMinSimilarity = 0.2
	perDocumentCeiling   = 3
)

// Match is one retrieved clause with its relevance score.
type Match struct {
	Clause     *store.Clause
	Similarity float64
}

// Search ranks clauses by cosine similarity to questionVector, filters by
// minSimilarity, and truncates to topK. Ties break by ascending clause
// order (spec.md §4.11).
func Search(questionVector []float32, clauses []*store.Clause, topK int, minSimilarity float64) []Match {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if minSimilarity <= 0 {
		minSimilarity = DefaultMinSimilarity
	}

	matches := make([]Match, 0, len(clauses))
	for _, c := range clauses {
		if !c.HasEmbedding() {
			continue
		}
		sim := cosineSimilarity(questionVector, c.Embedding.Slice())
		if sim >= minSimilarity {
			matches = append(matches, Match{Clause: c, Similarity: sim})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Clause.Order < matches[j].Clause.Order
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

// SearchAcrossDocuments runs Search independently per document (applying
// the reduced per-document ceiling) and concatenates the results, for the
// multi-document chat-context case (spec.md §4.11).
func SearchAcrossDocuments(questionVector []float32, clausesByDocument map[string][]*store.Clause, minSimilarity float64) []Match {
	var out []Match
	for _, clauses := range clausesByDocument {
		out = append(out, Search(questionVector, clauses, perDocumentCeiling, minSimilarity)...)
	}
	return out
}

// cosineSimilarity computes dot / (‖a‖·‖b‖), 0 for a zero-norm vector or
// mismatched lengths.
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
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
