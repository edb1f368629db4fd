// Package ratelimit provides per-key token bucket rate limiting for the HTTP
// API and MCP tools.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key, each with the same rate and burst.
// It is safe for concurrent use.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]*entry
	rate      rate.Limit
	burst     int
	idleTTL   time.Duration
	nowFunc   func() time.Time // injectable clock for testing
	lastSweep time.Time
}

type entry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewLimiter creates a rate limiter with the given rate (tokens/sec) and burst size.
// The burst size also serves as the initial number of tokens available.
func NewLimiter(perSecond float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*entry),
		rate:    rate.Limit(perSecond),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		nowFunc: time.Now,
	}
}

// Allow reports whether a request for key may proceed, consuming a token if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	l.sweepLocked(now)

	e, ok := l.buckets[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[key] = e
	}
	e.lastSeen = now
	return e.lim.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// sweepLocked drops buckets idle for longer than idleTTL so per-client keys
// do not accumulate forever.
func (l *Limiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	l.lastSweep = now
	for k, e := range l.buckets {
		if now.Sub(e.lastSeen) > l.idleTTL {
			delete(l.buckets, k)
		}
	}
}

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters creates the default set of per-tool rate limiters.
// These limits are generous enough for normal usage but prevent abuse.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		"portal_list":            NewLimiter(1.0, 10),      // 60/minute, burst 10
		"portal_status":          NewLimiter(1.0, 10),      // 60/minute, burst 10
		"portal_record_activity": NewLimiter(1.0, 10),      // 60/minute, burst 10
		"portal_recommendations": NewLimiter(1.0, 10),      // 60/minute, burst 10
		"portal_recommend":       NewLimiter(30.0/60.0, 5), // 30/minute, burst 5
		"portal_implement":       NewLimiter(10.0/60.0, 3), // 10/minute, burst 3
		"portal_snapshot":        NewLimiter(30.0/60.0, 5), // 30/minute, burst 5
		"portal_backup":          NewLimiter(5.0/60.0, 2),  // 5/minute, burst 2
	}
}

// CheckLimit checks the rate limit for a given tool name.
// Returns nil if allowed, or an error if rate limited.
// Tools without a configured limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil // No limiter configured = no limit
	}

	if !limiter.Allow(toolName) {
		return fmt.Errorf("rate limit exceeded for %s, please try again shortly", toolName)
	}

	return nil
}
