package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = time.Hour

// RedisStore persists session records in Redis as JSON values.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	log    *slog.Logger
}

// RedisOption customizes a RedisStore.
type RedisOption func(*RedisStore)

// WithTTL overrides the default one-hour record TTL.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// WithKeyPrefix overrides the default "session:" key prefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// NewRedisStore initializes a Redis-backed Store implementation.
func NewRedisStore(client redis.Cmdable, log *slog.Logger, opts ...RedisOption) *RedisStore {
	if log == nil {
		log = slog.Default()
	}

	s := &RedisStore{
		client: client,
		prefix: "session:",
		ttl:    defaultTTL,
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the stored record or ErrNotFound when absent.
func (s *RedisStore) Get(ctx context.Context, key string) (*Record, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}

		s.log.Error("failed to get session from redis", "key", key, "error", err)
		return nil, err
	}

	var record Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		s.log.Error("failed to decode session record", "key", key, "error", err)
		return nil, err
	}

	return &record, nil
}

// Set saves the record with the configured TTL.
func (s *RedisStore) Set(ctx context.Context, key string, record *Record) error {
	record.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(record)
	if err != nil {
		s.log.Error("failed to encode session record", "key", key, "error", err)
		return err
	}

	if err := s.client.Set(ctx, s.prefix+key, data, s.ttl).Err(); err != nil {
		s.log.Error("failed to save session in redis", "key", key, "error", err)
		return err
	}

	return nil
}

// Delete removes the record for the key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		s.log.Error("failed to delete session", "key", key, "error", err)
		return err
	}

	return nil
}
