// Package events implements the analytics bus (spec.md §3, §6): a closed
// set of tagged-variant events published onto Redis pub/sub with batching,
// grounded in legal-gateway/worker.go's publishEvent. Publish failure is
// logged and never surfaces to the caller (spec.md §4.13 step 10).
package events

import (
	"context"
	"time"
)

// Type is the closed analytics event-type enum (spec.md §3).
type Type string

const (
	TypeDocumentUploaded Type = "document_uploaded"
	TypeClauseAnalyzed   Type = "clause_analyzed"
	TypeQuestionAsked    Type = "question_asked"
	TypeRiskDetected     Type = "risk_detected"
)

// Event is the closed tagged-variant sum type spec.md §274 describes:
// AnalyticsEvent = DocumentUploaded | ClauseAnalyzed | QuestionAsked |
// RiskDetected. Each concrete payload implements the marker method so only
// these four can be published.
type Event interface {
	eventType() Type
}

// DocumentUploaded fires once ingestion accepts a document.
type DocumentUploaded struct {
	DocumentID string
	Filename   string
	ByteSize   int64
}

func (DocumentUploaded) eventType() Type { return TypeDocumentUploaded }

// ClauseAnalyzed is the payload for one clause that completed C9 stages
// 6-8. No component in this module publishes it.
type ClauseAnalyzed struct {
	DocumentID string
	ClauseID   string
	Category   string
	RiskLevel  string
}

func (ClauseAnalyzed) eventType() Type { return TypeClauseAnalyzed }

// QuestionAsked fires once per C13 answer. QuestionHash is the SHA-256 hex
// digest of the question text; the raw text is never carried (spec.md
// invariant 4).
type QuestionAsked struct {
	DocumentID      string
	SessionID       *string
	QuestionHash    string
	Confidence      float64
	CitationCount   int
	ResponseLatency time.Duration
}

func (QuestionAsked) eventType() Type { return TypeQuestionAsked }

// RiskDetected is the payload for a clause whose fused risk crosses the
// needs_review threshold. No component in this module publishes it.
type RiskDetected struct {
	DocumentID string
	ClauseID   string
	RiskLevel  string
	RiskScore  float64
}

func (RiskDetected) eventType() Type { return TypeRiskDetected }

// Publisher is the minimal surface a bus backend exposes.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}
