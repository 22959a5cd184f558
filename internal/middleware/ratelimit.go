package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit configures a per-client token bucket.
type RateLimit struct {
	RequestsPerMinute float64
	Burst             int
}

// RateLimiter throttles requests per client. Clients are identified by the
// authenticated actor when present, otherwise by IP.
type RateLimiter struct {
	limit    RateLimit
	ttl      time.Duration
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter. A non-positive rate or burst falls back to 1.
func NewRateLimiter(limit RateLimit) *RateLimiter {
	return &RateLimiter{
		limit:    limit,
		ttl:      5 * time.Minute,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// Middleware rejects requests over the limit with 429.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.obtainLimiter(clientID(c)).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": http.StatusText(http.StatusTooManyRequests),
				"code":  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}

func (r *RateLimiter) obtainLimiter(id string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.evictLocked(now)

	if v, ok := r.visitors[id]; ok {
		v.lastSeen = now
		return v.limiter
	}

	perSecond := r.limit.RequestsPerMinute / 60.0
	if perSecond <= 0 {
		perSecond = 1
	}
	burst := r.limit.Burst
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	r.visitors[id] = &visitor{limiter: limiter, lastSeen: now}
	return limiter
}

// evictLocked drops clients idle for longer than ttl.
func (r *RateLimiter) evictLocked(now time.Time) {
	for id, v := range r.visitors {
		if now.Sub(v.lastSeen) > r.ttl {
			delete(r.visitors, id)
		}
	}
}

func clientID(c *gin.Context) string {
	if actor := Actor(c); actor != "" {
		return "actor:" + string(actor)
	}
	return "ip:" + c.ClientIP()
}
