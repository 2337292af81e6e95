package server

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// GlobalConnectionLimiter limits total concurrent connections per instance.
// Uses atomic operations for lock-free counting.
type GlobalConnectionLimiter struct {
	current atomic.Int64
	max     int64
}

func NewGlobalConnectionLimiter(max int64) *GlobalConnectionLimiter {
	return &GlobalConnectionLimiter{max: max}
}

// Acquire attempts to acquire a connection slot.
// Returns true if successful, false if at capacity.
func (l *GlobalConnectionLimiter) Acquire() bool {
	for {
		current := l.current.Load()
		if current >= l.max {
			return false
		}
		if l.current.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

// Release releases a connection slot.
func (l *GlobalConnectionLimiter) Release() {
	l.current.Add(-1)
}

// Current returns the current number of connections.
func (l *GlobalConnectionLimiter) Current() int64 {
	return l.current.Load()
}

// AttemptRateLimiter limits the rate of new connection attempts per IP.
// Uses token bucket algorithm via golang.org/x/time/rate.
type AttemptRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rateLimiterEntry
	rate      rate.Limit
	burst     int
	cleanupAt time.Time
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewAttemptRateLimiter(attemptsPerSecond float64, burst int) *AttemptRateLimiter {
	return &AttemptRateLimiter{
		limiters:  make(map[string]*rateLimiterEntry),
		rate:      rate.Limit(attemptsPerSecond),
		burst:     burst,
		cleanupAt: time.Now().Add(5 * time.Minute),
	}
}

// Allow checks if a new attempt from the given IP should be allowed.
func (l *AttemptRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Now().After(l.cleanupAt) {
		l.cleanup()
		l.cleanupAt = time.Now().Add(5 * time.Minute)
	}

	entry, exists := l.limiters[ip]
	if !exists {
		entry = &rateLimiterEntry{
			limiter:  rate.NewLimiter(l.rate, l.burst),
			lastSeen: time.Now(),
		}
		l.limiters[ip] = entry
	}

	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// cleanup removes limiters that haven't been used in 10 minutes.
// Must be called with mu held.
func (l *AttemptRateLimiter) cleanup() {
	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, ip)
		}
	}
}

// ConnectionLimits combines the per-IP attempt rate limit with the
// global concurrent-connection cap.
type ConnectionLimits struct {
	global *GlobalConnectionLimiter
	rate   *AttemptRateLimiter
}

func NewConnectionLimits(globalMax int64, attemptsPerSecond float64, burst int) *ConnectionLimits {
	return &ConnectionLimits{
		global: NewGlobalConnectionLimiter(globalMax),
		rate:   NewAttemptRateLimiter(attemptsPerSecond, burst),
	}
}

// LimitReason describes why a connection was rejected.
type LimitReason string

const (
	LimitReasonGlobal LimitReason = "global_limit"
	LimitReasonRate   LimitReason = "rate_limit"
)

// Acquire attempts to acquire both limits for the given IP.
// Returns true and empty reason if successful.
func (l *ConnectionLimits) Acquire(ip string) (bool, LimitReason) {
	// Rate check first, it is the cheaper of the two.
	if !l.rate.Allow(ip) {
		return false, LimitReasonRate
	}

	if !l.global.Acquire() {
		return false, LimitReasonGlobal
	}

	return true, ""
}

// Release releases the global slot acquired for a connection.
func (l *ConnectionLimits) Release() {
	l.global.Release()
}

// Global returns the global connection limiter.
func (l *ConnectionLimits) Global() *GlobalConnectionLimiter {
	return l.global
}
