// Package ratelimit throttles listing writes per client.
package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"listing-browser/internal/metrics"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client key
type RateLimiter struct {
	r       rate.Limit
	b       int
	enabled bool
	now     func() time.Time

	mu       sync.Mutex
	clients  map[string]*entry
	rejected int
}

// NewRateLimiter allows requestsPerMinute per client with the given burst
func NewRateLimiter(requestsPerMinute, burst int, enabled bool) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		r:       rate.Limit(float64(requestsPerMinute) / 60),
		b:       burst,
		enabled: enabled,
		now:     time.Now,
		clients: make(map[string]*entry),
	}
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	e, ok := rl.clients[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rl.r, rl.b)}
		rl.clients[key] = e
	}
	e.lastSeen = rl.now()
	return e.limiter
}

// Allow reports whether a request from key may proceed now
func (rl *RateLimiter) Allow(key string) bool {
	if !rl.enabled {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.limiterFor(key).AllowN(rl.now(), 1) {
		return true
	}
	rl.rejected++
	metrics.RateLimited.Inc()
	return false
}

// Prune forgets clients idle for longer than idle
func (rl *RateLimiter) Prune(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	removed := 0
	for key, e := range rl.clients {
		if e.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
			removed++
		}
	}
	return removed
}

// Stats contains rate limiter statistics
type Stats struct {
	Enabled           bool    `json:"enabled"`
	RequestsPerMinute float64 `json:"requests_per_minute"`
	Burst             int     `json:"burst"`
	Clients           int     `json:"clients"`
	Rejected          int     `json:"rejected"`
}

// GetStats returns current rate limiter statistics
func (rl *RateLimiter) GetStats() Stats {
	if !rl.enabled {
		return Stats{Enabled: false}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	return Stats{
		Enabled:           true,
		RequestsPerMinute: float64(rl.r) * 60,
		Burst:             rl.b,
		Clients:           len(rl.clients),
		Rejected:          rl.rejected,
	}
}

// Reset clears all tracked clients
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.clients = make(map[string]*entry)
	rl.rejected = 0
}

// Middleware rejects requests over the limit with 429, keyed by client IP
func Middleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please slow down."})
			return
		}
		c.Next()
	}
}
