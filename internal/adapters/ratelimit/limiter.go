// Package ratelimit throttles requests per key, either in process with a
// token bucket or across instances with a fixed window in Redis.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/vncsmyrnk/fintrack/internal/metrics"
	"golang.org/x/time/rate"
)

type Limiter interface {
	// Allow reports whether one more event for key fits the limit.
	Allow(ctx context.Context, key string) (bool, error)
}

// defaultIdleTTL is the minimum time a key's bucket is kept after its last
// event.
const defaultIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Memory keeps one token bucket per key. Buckets idle for longer than the
// idle TTL are dropped; by then they have refilled, so dropping one never
// changes a caller's budget.
type Memory struct {
	rps     float64
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func NewMemory(rps float64, burst int) *Memory {
	ttl := defaultIdleTTL
	if rps > 0 {
		if refill := time.Duration(float64(burst) / rps * float64(time.Second)); refill > ttl {
			ttl = refill
		}
	}
	return &Memory{
		rps:      rps,
		burst:    burst,
		idleTTL:  ttl,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	now := m.now()

	m.mu.Lock()
	m.sweep(now)
	v, ok := m.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(m.rps), m.burst)}
		m.visitors[key] = v
	}
	v.lastSeen = now
	allowed := v.limiter.AllowN(now, 1)
	m.mu.Unlock()

	if !allowed {
		metrics.RateLimitRejected.WithLabelValues("memory").Inc()
		return false, nil
	}
	metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
	return true, nil
}

// sweep runs at most once per idle TTL. Callers hold m.mu.
func (m *Memory) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.idleTTL {
		return
	}
	for key, v := range m.visitors {
		if now.Sub(v.lastSeen) >= m.idleTTL {
			delete(m.visitors, key)
		}
	}
	m.lastSweep = now
}

// Len returns the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.visitors)
}

// RetryAfter is the time one token takes to refill.
func (m *Memory) RetryAfter() time.Duration {
	if m.rps <= 0 {
		return time.Second
	}
	return time.Duration(math.Ceil(float64(time.Second) / m.rps))
}
