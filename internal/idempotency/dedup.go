// Package idempotency suppresses duplicate processing of re-delivered
// Telegram updates.
package idempotency

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const updateKeyPattern = "update:seen:%d"

// Deduplicator remembers update identifiers it has already seen.
type Deduplicator interface {
	// Seen atomically records the update and reports whether it was
	// already processed before this call.
	Seen(ctx context.Context, updateID int64) (bool, error)
}

// RedisDeduplicator tracks seen updates in Redis with a TTL, surviving
// restarts and shared between instances.
type RedisDeduplicator struct {
	client redis.Cmdable
	ttl    time.Duration
	log    *slog.Logger
}

// NewRedisDeduplicator builds a Deduplicator with the given retention.
func NewRedisDeduplicator(client redis.Cmdable, ttl time.Duration, log *slog.Logger) *RedisDeduplicator {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &RedisDeduplicator{client: client, ttl: ttl, log: log}
}

// Seen implements Deduplicator via SETNX.
func (d *RedisDeduplicator) Seen(ctx context.Context, updateID int64) (bool, error) {
	key := fmt.Sprintf(updateKeyPattern, updateID)

	created, err := d.client.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		d.log.Error("idempotency check failed", slog.Int64("update_id", updateID), slog.Any("error", err))
		return false, err
	}

	return !created, nil
}

// MemoryDeduplicator keeps seen updates in process memory, for tests and
// single-instance setups.
type MemoryDeduplicator struct {
	mu   sync.Mutex
	seen map[int64]struct{}
}

// NewMemoryDeduplicator returns an empty in-memory deduplicator.
func NewMemoryDeduplicator() *MemoryDeduplicator {
	return &MemoryDeduplicator{seen: make(map[int64]struct{})}
}

// Seen implements Deduplicator.
func (d *MemoryDeduplicator) Seen(_ context.Context, updateID int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[updateID]; ok {
		return true, nil
	}

	d.seen[updateID] = struct{}{}
	return false, nil
}
