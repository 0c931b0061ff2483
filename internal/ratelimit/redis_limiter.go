package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPattern = "ratelimit:%d"

// RedisLimiter is a fixed-window limiter shared across bot instances. The
// first request of a window creates the counter with an expiry; later
// requests only increment it.
type RedisLimiter struct {
	client redis.Cmdable
	limit  int
	window time.Duration
	log    *slog.Logger
}

// NewRedisLimiter creates a limiter allowing limit requests per window.
func NewRedisLimiter(client redis.Cmdable, limit int, window time.Duration, log *slog.Logger) *RedisLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		log:    log,
	}
}

// Allow implements Limiter. Redis failures are reported as errors so the
// caller can decide to fail open.
func (l *RedisLimiter) Allow(ctx context.Context, userID int64) (bool, error) {
	key := fmt.Sprintf(rateLimitKeyPattern, userID)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.log.Error("rate limit counter failed", slog.Int64("user_id", userID), slog.Any("error", err))
		return false, err
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			l.log.Error("rate limit expire failed", slog.Int64("user_id", userID), slog.Any("error", err))
			return false, err
		}
	}

	return count <= int64(l.limit), nil
}
