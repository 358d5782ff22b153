package ingest

import (
	"encoding/json"
	"testing"
	"time"
)

func TestJob_RoundTripsThroughJSON(t *testing.T) {
	sessionID := "session-1"
	job := Job{
		DocumentID: "doc-1", Filename: "nda.pdf", MIME: "application/pdf",
		SessionID: &sessionID, Data: []byte("raw bytes"), Enqueued: time.Unix(0, 0).UTC(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}

	var got Job
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	if got.DocumentID != job.DocumentID || string(got.Data) != string(job.Data) || *got.SessionID != sessionID {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
