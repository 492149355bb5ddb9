// Package ratelimit throttles MCP tool calls with per-tool token buckets.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Limiter is a token bucket. It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	tokens   float64
	last     time.Time
	perSec   float64
	capacity int
	now      func() time.Time
}

// NewLimiter returns a full bucket holding capacity tokens that refills at
// perSec tokens per second.
func NewLimiter(perSec float64, capacity int) *Limiter {
	return &Limiter{
		tokens:   float64(capacity),
		perSec:   perSec,
		capacity: capacity,
		now:      time.Now,
	}
}

// Allow takes one token if available.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !l.last.IsZero() {
		if elapsed := now.Sub(l.last).Seconds(); elapsed > 0 {
			l.tokens = min(l.tokens+elapsed*l.perSec, float64(l.capacity))
		}
	}
	l.last = now

	if l.tokens < 1 {
		return false
	}
	l.tokens--
	return true
}

// ToolLimiters maps MCP tool names to their limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters returns the default limits. Generation runs a full
// simulation and writes to disk, so it is the most constrained.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		"sliptrace_generate": NewLimiter(10.0/60.0, 2), // 10/minute, burst 2
		"sliptrace_verify":   NewLimiter(1.0, 10),      // 60/minute, burst 10
		"sliptrace_runs":     NewLimiter(1.0, 10),      // 60/minute, burst 10
	}
}

// Check returns an error when tool has exhausted its limit. Tools without
// a limiter are unrestricted.
func (tl ToolLimiters) Check(tool string) error {
	l, ok := tl[tool]
	if !ok {
		return nil
	}
	if !l.Allow() {
		return fmt.Errorf("rate limit exceeded for %s, please try again shortly", tool)
	}
	return nil
}
