package events

import "testing"

func TestDocumentUploaded_ImplementsEvent(t *testing.T) {
	var e Event = DocumentUploaded{DocumentID: "doc-1", Filename: "nda.pdf", ByteSize: 1024}
	if e.eventType() != TypeDocumentUploaded {
		t.Fatalf("expected %q, got %q", TypeDocumentUploaded, e.eventType())
	}
}

func TestRiskDetected_ImplementsEvent(t *testing.T) {
	var e Event = RiskDetected{DocumentID: "doc-1", ClauseID: "clause-1", RiskLevel: "high", RiskScore: 0.9}
	if e.eventType() != TypeRiskDetected {
		t.Fatalf("expected %q, got %q", TypeRiskDetected, e.eventType())
	}
}

func TestNewRedisPublisher_RejectsInvalidURL(t *testing.T) {
	if _, err := NewRedisPublisher("://not-a-url", "events", nil, 0, 0); err == nil {
		t.Fatalf("expected an error for a malformed redis url")
	}
}

func TestNewRedisPublisher_DefaultsBatchAndInterval(t *testing.T) {
	p, err := NewRedisPublisher("redis://localhost:6379/0", "events", nil, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.client.Close()
	close(p.closeCh)
	<-p.doneCh

	if p.maxBatch != 10 {
		t.Fatalf("expected default max batch 10, got %d", p.maxBatch)
	}
}
