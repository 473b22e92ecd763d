// Package middleware contains the Gin middleware used by the card server.
//
// This file implements an in-memory token-bucket rate limiter keyed by
// client IP. The card server is a single process fronting cheap cached
// pages, so a process-local limiter is enough; it exists to keep crawlers
// and scripts from hammering the share endpoints.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// bucketTTL is how long an idle per-client bucket survives before the
// opportunistic sweep may drop it.
const bucketTTL = 10 * time.Minute

// sweepEvery bounds how many lookups happen between idle-bucket sweeps.
const sweepEvery = 5000

// client holds one token bucket and when it was last used.
type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces per-IP token-bucket limits. Buckets are created on
// demand and idle ones are swept during lookups so memory stays bounded.
// Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*client
	lookups int
}

// NewRateLimiter builds a limiter replenishing rps tokens per second with
// the given burst. Burst values below 1 are coerced to 1.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*client),
	}
}

// limiterFor returns the bucket for key, creating it if needed. The idle
// sweep runs before the lookup so a stale bucket for this very key can be
// replaced rather than refreshed.
func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= sweepEvery {
		for k, cl := range rl.clients {
			if now.Sub(cl.lastSeen) >= bucketTTL {
				delete(rl.clients, k)
			}
		}
		rl.lookups = 0
	}

	if cl, ok := rl.clients[key]; ok {
		cl.lastSeen = now
		return cl.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.clients[key] = &client{limiter: lim, lastSeen: now}
	return lim
}

// Handler returns the middleware. Requests over the limit get 429 with a
// compact JSON body and a Retry-After header.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limiterFor(c.ClientIP()).Allow() {
			c.Next()
			return
		}
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get("X-Request-ID"),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}
