// Package redisqueue provides the Redis Streams implementation of the
// reconciliation queue port. Each half-written record is appended to a stream
// carrying the full document projection, so the consumer can repair the
// secondary store without touching the primary.
package redisqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	ports "github.com/tigerroll/tidewrite/pkg/ingest/core/ports"
	"github.com/tigerroll/tidewrite/pkg/ingest/support/util/logger"
)

// Config holds Redis connection and stream settings.
type Config struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`         // Redis address (host:port).
	Password string `yaml:"password" mapstructure:"password"` // Redis password.
	DB       int    `yaml:"db" mapstructure:"db"`             // Redis logical database.
	Stream   string `yaml:"stream" mapstructure:"stream"`     // Stream key receiving reconciliation entries.
	MaxLen   int64  `yaml:"max_len" mapstructure:"max_len"`   // Approximate stream length cap; 0 means unbounded.
}

// Queue is the Redis Streams implementation of ports.ReconciliationQueue.
type Queue struct {
	client *redis.Client
	stream string
	maxLen int64
}

var _ ports.ReconciliationQueue = (*Queue)(nil)

// NewQueue creates a Redis client and verifies connectivity.
//
// Parameters:
//
//	ctx: The context for the connection check.
//	cfg: The Redis connection settings.
func NewQueue(ctx context.Context, cfg Config) (*Queue, error) {
	if cfg.Stream == "" {
		return nil, fmt.Errorf("redis reconciliation queue: stream must be specified in configuration")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}

	logger.Infof("Established reconciliation queue connection: redis stream '%s' at %s", cfg.Stream, cfg.Addr)
	return &Queue{client: client, stream: cfg.Stream, maxLen: cfg.MaxLen}, nil
}

// NewQueueWithClient wraps an existing client. Used by tests.
func NewQueueWithClient(client *redis.Client, stream string) *Queue {
	return &Queue{client: client, stream: stream}
}

// Publish appends one reconciliation entry to the stream.
func (q *Queue) Publish(ctx context.Context, entry ports.ReconciliationEntry) error {
	doc, err := json.Marshal(entry.Document)
	if err != nil {
		return fmt.Errorf("failed to encode document for record '%s': %w", entry.ID, err)
	}

	args := &redis.XAddArgs{
		Stream: q.stream,
		MaxLen: q.maxLen,
		Approx: q.maxLen > 0,
		Values: map[string]interface{}{
			"id":             entry.ID,
			"batch_id":       entry.BatchID,
			"document":       string(doc),
			"failure_reason": entry.FailureReason,
			"failed_at":      entry.FailedAt.Format(time.RFC3339Nano),
		},
	}
	if err := q.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to append record '%s' to stream '%s': %w", entry.ID, q.stream, err)
	}
	return nil
}

// Close closes the Redis client.
func (q *Queue) Close() error {
	return q.client.Close()
}
