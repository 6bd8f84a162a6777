package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/puzpuzpuz/xsync/v3"
)

type window struct {
	mu    sync.Mutex
	times []time.Time
	// dead is set once sweep removed the window from the map.
	dead bool
}

// prune drops timestamps at or before cutoff.
func (w *window) prune(cutoff time.Time) {
	i := 0
	for i < len(w.times) && !w.times[i].After(cutoff) {
		i++
	}
	w.times = w.times[i:]
}

// InMemoryRateLimiter limits requests per key (e.g. IP) over a sliding window.
type InMemoryRateLimiter struct {
	windows *xsync.MapOf[string, *window]
	limit   int
	period  time.Duration
	now     func() time.Time
}

func NewInMemoryRateLimiter(limit int, period time.Duration) *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		windows: xsync.NewMapOf[string, *window](),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

func (r *InMemoryRateLimiter) Allow(key string) bool {
	for {
		w, _ := r.windows.LoadOrCompute(key, func() *window { return &window{} })
		w.mu.Lock()
		if w.dead {
			w.mu.Unlock()
			continue
		}
		now := r.now()
		w.prune(now.Add(-r.period))
		allowed := len(w.times) < r.limit
		if allowed {
			w.times = append(w.times, now)
		}
		w.mu.Unlock()
		return allowed
	}
}

// Cleanup forgets idle keys every interval until ctx is done.
func (r *InMemoryRateLimiter) Cleanup(ctx context.Context, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			r.sweep()
		}
	}
}

func (r *InMemoryRateLimiter) sweep() {
	cutoff := r.now().Add(-r.period)
	r.windows.Range(func(key string, _ *window) bool {
		r.windows.Compute(key, func(w *window, loaded bool) (*window, bool) {
			if !loaded {
				return w, true
			}
			w.mu.Lock()
			defer w.mu.Unlock()
			w.prune(cutoff)
			if len(w.times) > 0 {
				return w, false
			}
			w.dead = true
			return w, true
		})
		return true
	})
}

// RateLimit returns a middleware that limits by client IP.
func RateLimit(limiter *InMemoryRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded", "code": "RATE_LIMITED"})
			return
		}
		c.Next()
	}
}
