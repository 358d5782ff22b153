package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// QueueKey is the Redis list C9's worker blocks on, grounded in
// legal-gateway/worker.go's "ingest:jobs" BLPOP target.
const QueueKey = "clausecompass:ingest:jobs"

// Job is the payload cmd/api-server enqueues and cmd/ingest-worker
// dequeues: a document identity plus its raw bytes, generalized from
// legal-gateway/worker.go's IngestJob (which carried pre-parsed documents;
// here the worker runs the full C1-C9 pipeline itself).
type Job struct {
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename"`
	MIME       string    `json:"mime"`
	SessionID  *string   `json:"session_id,omitempty"`
	Data       []byte    `json:"data"`
	Enqueued   time.Time `json:"enqueued"`
}

// Enqueue pushes a job onto the queue (RPUSH, matching legal-gateway's
// producer side of the BLPOP loop).
func Enqueue(ctx context.Context, rdb *redis.Client, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("ingest: marshal job: %w", err)
	}
	if err := rdb.RPush(ctx, QueueKey, data).Err(); err != nil {
		return fmt.Errorf("ingest: enqueue job: %w", err)
	}
	return nil
}

// Dequeue blocks until a job is available or ctx is cancelled, mirroring
// legal-gateway/worker.go's `workerRdb.BLPop(workerCtx, 0, "ingest:jobs")`.
func Dequeue(ctx context.Context, rdb *redis.Client) (Job, error) {
	result, err := rdb.BLPop(ctx, 0, QueueKey).Result()
	if err != nil {
		return Job{}, err
	}
	if len(result) < 2 {
		return Job{}, fmt.Errorf("ingest: malformed BLPOP result")
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return Job{}, fmt.Errorf("ingest: unmarshal job: %w", err)
	}
	return job, nil
}
