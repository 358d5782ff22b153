// Package store is the document-store client: the durable owner of
// Documents, Clauses, Chat Sessions/Messages, Q&A history records, and the
// derived Negotiations projection (spec.md §3, §6). Backed by Postgres with
// pgvector for clause embeddings, grounded in the teacher's
// sse-rag-service/go-inference-service HNSW-indexed vector column pattern.
package store

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// DocumentStatus is the closed lifecycle enum of spec.md §3: processing is
// the only non-terminal state.
type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// RiskLevel is the closed three-level enum clauses are scored into.
type RiskLevel string

const (
	RiskLow       RiskLevel = "low"
	RiskModerate  RiskLevel = "moderate"
	RiskAttention RiskLevel = "attention"
)

// Category is the closed clause-category enum (spec.md §3).
type Category string

const (
	CategoryTermination        Category = "Termination"
	CategoryLiability          Category = "Liability"
	CategoryIndemnity          Category = "Indemnity"
	CategoryConfidentiality    Category = "Confidentiality"
	CategoryPayment            Category = "Payment"
	CategoryIPOwnership        Category = "IP-Ownership"
	CategoryDisputeResolution  Category = "Dispute-Resolution"
	CategoryGoverningLaw       Category = "Governing-Law"
	CategoryAssignment         Category = "Assignment"
	CategoryModification       Category = "Modification"
	CategoryWarranties         Category = "Warranties"
	CategoryForceMajeure       Category = "Force-Majeure"
	CategoryDefinitions        Category = "Definitions"
	CategoryOther              Category = "Other"
)

// AllCategories is the closed enumeration used by C4's classifier and for
// output coercion in C5.
var AllCategories = []Category{
	CategoryTermination, CategoryLiability, CategoryIndemnity, CategoryConfidentiality,
	CategoryPayment, CategoryIPOwnership, CategoryDisputeResolution, CategoryGoverningLaw,
	CategoryAssignment, CategoryModification, CategoryWarranties, CategoryForceMajeure,
	CategoryDefinitions, CategoryOther,
}

// ReadabilityMetrics captures original vs. summary grade level and reading
// ease for a single clause (spec.md §3).
type ReadabilityMetrics struct {
	OriginalGrade float64 `json:"original_grade"`
	SummaryGrade  float64 `json:"summary_grade"`
	Delta         float64 `json:"delta"`
	FleschScore   float64 `json:"flesch_score"`
}

// PIISummary is a histogram of detected PII types to counts.
type PIISummary map[string]int

// DocumentRiskProfile is the document-level aggregation C9 stage 11
// produces from per-clause RiskAssessments (grounded in
// risk_analyzer.py's analyze_document_risk_profile).
type DocumentRiskProfile struct {
	RiskDistribution  map[RiskLevel]int `json:"risk_distribution"`
	NeedsReviewCount  int               `json:"needs_review_count"`
	TopRisks          []TopRisk         `json:"top_risks"`
	AverageRiskScore  float64           `json:"average_risk_score"`
	OverallRiskLevel  RiskLevel         `json:"overall_risk_level"`
}

// TopRisk names one of the highest-scoring clauses in a document risk
// profile.
type TopRisk struct {
	ClauseID string    `json:"clause_id"`
	Category Category  `json:"category"`
	Score    float64   `json:"score"`
	Level    RiskLevel `json:"level"`
}

// DocumentReadabilityAnalysis is the document-level readability rollup.
type DocumentReadabilityAnalysis struct {
	AvgGradeLevelReduction float64 `json:"avg_grade_level_reduction"`
	AvgFleschImprovement   float64 `json:"avg_flesch_improvement"`
}

// ProcessingStatistics summarizes one ingestion run (spec.md §4.9 final
// metadata).
type ProcessingStatistics struct {
	TotalClauses             int     `json:"total_clauses"`
	PIIDetected              int     `json:"pii_detected"`
	HighRiskClauses          int     `json:"high_risk_clauses"`
	AvgReadabilityImprovement float64 `json:"avg_readability_improvement"`
}

// Document is the top-level ingested-contract record (spec.md §3).
type Document struct {
	ID        string
	Filename  string
	ByteSize  int64
	PageCount int
	Language  string
	Masked    bool
	SessionID *string

	Status         DocumentStatus
	StagesCompleted []string
	Error          *string
	FailedAtStage  *int

	CreatedAt   time.Time
	UpdatedAt   time.Time
	ProcessedAt *time.Time

	PIISummary              PIISummary
	ProcessingStatistics    *ProcessingStatistics
	BaselineReadability     *ReadabilityMetrics
	DocumentRiskProfile     *DocumentRiskProfile
	DocumentReadability     *DocumentReadabilityAnalysis
	EmbeddingsGeneratedOK   bool
}

// Clause belongs to exactly one Document; deletion cascades (spec.md §3).
type Clause struct {
	ID         string
	DocumentID string
	Order      int

	OriginalText string
	Summary      string
	Category     Category
	RiskLevel    RiskLevel
	RiskScore    float64
	NeedsReview  bool

	Readability ReadabilityMetrics

	NegotiationTip   *string
	Confidence       float64
	Embedding        *pgvector.Vector
	DetectedKeywords []string
	RiskFactors      []string
	ProcessingMethod string
}

// HasEmbedding reports whether the clause carries a generated vector.
func (c *Clause) HasEmbedding() bool { return c.Embedding != nil }

// MessageRole is the closed role enum for chat messages.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Citation is a grounding reference attached to an assistant message or
// Q&A answer (spec.md §4.13 step 9).
type Citation struct {
	ClauseID        string   `json:"clause_id"`
	Order           int      `json:"order"`
	Category        Category `json:"category"`
	Snippet         string   `json:"snippet"`
	RelevanceScore  float64  `json:"relevance_score"`
}

// Message is one entry in a ChatSession's append-only log.
type Message struct {
	ID        string
	SessionID string
	Role      MessageRole
	Content   string
	Sources   []Citation
	Metadata  map[string]any
	Timestamp time.Time
}

// ChatSession groups an ordered sequence of Messages over a set of
// documents (spec.md §3).
type ChatSession struct {
	ID                string
	Title             string
	SelectedDocuments []string
	CreatedAt         time.Time
	LastActivity      time.Time
	Archived          bool
	Summary           *string
}

// QAHistoryRecord is an immutable record of one answered question
// (spec.md §3).
type QAHistoryRecord struct {
	ID         string
	DocumentID string
	Question   string
	Answer     string
	Citations  []Citation
	Confidence float64
	SessionID  *string
	Timestamp  time.Time
}

// Negotiation is the derived, read-only projection of a high-risk clause
// flagged for review, supplementing spec.md §6's persisted-state layout.
type Negotiation struct {
	ID         string
	DocumentID string
	ClauseID   string
	Category   Category
	RiskScore  float64
	Summary    string
	CreatedAt  time.Time
}
