package middleware

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// RateLimiter provides per-IP token-bucket rate limiting.
// Stale buckets are dropped by Sweep, which the caller schedules.
type RateLimiter struct {
	r        rate.Limit
	b        int
	limiters sync.Map
}

// NewRateLimiter creates a limiter allowing r requests per second with burst b.
func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	return &RateLimiter{r: r, b: b}
}

func (l *RateLimiter) get(ip string) *rate.Limiter {
	v, _ := l.limiters.LoadOrStore(ip, &ipLimiter{limiter: rate.NewLimiter(l.r, l.b)})
	il := v.(*ipLimiter)
	il.lastSeen.Store(time.Now().UnixNano())
	return il.limiter
}

// Sweep removes limiters not used within maxIdle and returns how many were removed.
func (l *RateLimiter) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle).UnixNano()
	n := 0
	l.limiters.Range(func(k, v interface{}) bool {
		if v.(*ipLimiter).lastSeen.Load() < cutoff {
			l.limiters.Delete(k)
			n++
		}
		return true
	})
	return n
}

// Handler returns the gin middleware.
func (l *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// RateLimit is shorthand for NewRateLimiter(r, b).Handler() when no sweeping is needed.
func RateLimit(r rate.Limit, b int) gin.HandlerFunc {
	return NewRateLimiter(r, b).Handler()
}
