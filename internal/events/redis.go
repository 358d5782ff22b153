package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// envelope is the bus-side wire format (spec.md §6: "Analytics events
// (bus-side wire format)").
type envelope struct {
	EventID             string `json:"event_id"`
	EventType           Type   `json:"event_type"`
	Timestamp           string `json:"timestamp"`
	ProcessingTimestamp string `json:"processing_timestamp"`
	EventData           string `json:"event_data"`
}

// RedisPublisher batches events onto a Redis pub/sub channel, flushing
// whenever the batch reaches maxBatch or every flushInterval, whichever
// comes first. Grounded in legal-gateway/worker.go's publishEvent, which
// published unbatched; batching is added per spec.md §1's dependency
// wiring for internal/events.
type RedisPublisher struct {
	client    *redis.Client
	channel   string
	logger    *zap.Logger
	maxBatch  int
	flushEvery time.Duration

	mu      sync.Mutex
	buffer  []envelope
	closeCh chan struct{}
	doneCh  chan struct{}
}

// NewRedisPublisher connects to redisURL and starts the batching flusher.
func NewRedisPublisher(redisURL, channel string, logger *zap.Logger, maxBatch int, flushEvery time.Duration) (*RedisPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("events: parse redis url: %w", err)
	}
	if maxBatch <= 0 {
		maxBatch = 10
	}
	if flushEvery <= 0 {
		flushEvery = time.Second
	}

	p := &RedisPublisher{
		client: redis.NewClient(opt), channel: channel, logger: logger,
		maxBatch: maxBatch, flushEvery: flushEvery,
		closeCh: make(chan struct{}), doneCh: make(chan struct{}),
	}
	go p.run()
	return p, nil
}

// Publish enqueues an event for the next batch flush. It never returns an
// error to a caller that cannot act on it (spec.md §4.13 step 10): publish
// failures are logged by the flusher, not surfaced here.
func (p *RedisPublisher) Publish(ctx context.Context, evt Event) error {
	data, err := sonic.Marshal(evt)
	if err != nil {
		return fmt.Errorf("events: marshal payload: %w", err)
	}
	now := time.Now().UTC()
	env := envelope{
		EventID: uuid.NewString(), EventType: evt.eventType(),
		Timestamp: now.Format(time.RFC3339), ProcessingTimestamp: now.Format(time.RFC3339),
		EventData: string(data),
	}

	p.mu.Lock()
	p.buffer = append(p.buffer, env)
	shouldFlush := len(p.buffer) >= p.maxBatch
	p.mu.Unlock()

	if shouldFlush {
		p.flush()
	}
	return nil
}

func (p *RedisPublisher) run() {
	defer close(p.doneCh)
	ticker := time.NewTicker(p.flushEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.flush()
		case <-p.closeCh:
			p.flush()
			return
		}
	}
}

func (p *RedisPublisher) flush() {
	p.mu.Lock()
	batch := p.buffer
	p.buffer = nil
	p.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pipe := p.client.Pipeline()
	for _, env := range batch {
		data, err := sonic.Marshal(env)
		if err != nil {
			continue
		}
		pipe.Publish(ctx, p.channel, data)
	}
	if _, err := pipe.Exec(ctx); err != nil && p.logger != nil {
		p.logger.Warn("analytics event batch publish failed", zap.Int("batch_size", len(batch)), zap.Error(err))
	}
}

// Close flushes any pending events and closes the Redis client.
func (p *RedisPublisher) Close() error {
	close(p.closeCh)
	<-p.doneCh
	return p.client.Close()
}
