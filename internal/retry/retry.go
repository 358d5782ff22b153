// Package retry implements the exponential-backoff policy spec.md §7
// assigns to the external-call client layer: initial 100ms, factor 2x,
// backoff between attempts capped at 60s, 300s overall deadline. Generalizes the
// 1<<attempt backoff loop the teacher's embedding service used ad hoc at
// each call site into one reusable helper.
package retry

import (
	"context"
	"time"
)

const (
	initialBackoff = 100 * time.Millisecond
	backoffFactor  = 2
	maxBackoff     = 60 * time.Second
	overallDeadline = 300 * time.Second
)

// Do invokes fn until it succeeds, ctx is cancelled, the overall deadline
// elapses, or maxAttempts is exhausted (0 means unlimited until deadline).
// fn receives the context carrying the overall deadline; Do sets no
// separate per-attempt deadline.
func Do(ctx context.Context, maxAttempts int, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, overallDeadline)
	defer cancel()

	backoff := initialBackoff
	var lastErr error
	for attempt := 1; maxAttempts == 0 || attempt <= maxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(backoff):
		}

		backoff *= backoffFactor
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return lastErr
}
