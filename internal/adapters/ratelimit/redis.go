package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vncsmyrnk/fintrack/internal/metrics"
)

// Redis counts events per key in fixed windows so every server instance
// shares the same budget.
type Redis struct {
	client  redis.Cmdable
	window  time.Duration
	allowed int64
	prefix  string
	now     func() time.Time
}

// NewRedis allows rps*window+burst events per key and window.
func NewRedis(client redis.Cmdable, rps float64, burst int, window time.Duration) *Redis {
	if window < time.Second {
		window = time.Second
	}
	return &Redis{
		client:  client,
		window:  window,
		allowed: int64(rps*window.Seconds()) + int64(burst),
		prefix:  "rl:",
		now:     time.Now,
	}
}

func (l *Redis) Allow(ctx context.Context, key string) (bool, error) {
	windowSeconds := int64(l.window.Seconds())
	bucket := l.now().Unix() / windowSeconds
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, key, bucket)

	cnt, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	if cnt == 1 {
		_ = l.client.Expire(ctx, redisKey, l.window+time.Second).Err()
	}

	if cnt > l.allowed {
		metrics.RateLimitRejected.WithLabelValues("redis").Inc()
		return false, nil
	}
	metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
	return true, nil
}

// RetryAfter is the window length, the longest a rejected caller waits.
func (l *Redis) RetryAfter() time.Duration { return l.window }
