package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/flowcore/engine/pkg/executor"
	"github.com/flowcore/engine/pkg/types"
)

// RateLimiter defines the interface for rate limiting implementations
type RateLimiter interface {
	// Allow checks if a request is allowed based on rate limits
	// Returns true if allowed, false if rate limit exceeded
	Allow(key string) bool

	// Reset clears all rate limit state
	Reset()
}

// RateLimitMiddleware enforces rate limits to prevent a misbehaving workflow
// from overwhelming downstream providers. It uses the token bucket algorithm
// for smooth rate limiting. Rejections report ErrorKindRateLimited, which
// the engine's retry policy already treats as retryable, so a rejected
// invocation is retried with backoff rather than failing the node outright.
type RateLimitMiddleware struct {
	globalLimiter    RateLimiter
	nodeTypeLimiters map[types.NodeType]RateLimiter
	mu               sync.RWMutex

	enableGlobal      bool
	enablePerNodeType bool

	rejectedCount   int64
	rejectedCountMu sync.Mutex
}

// RateLimitConfig configures rate limiting behavior
type RateLimitConfig struct {
	// Global rate limit (invocations per second across all nodes)
	GlobalRPS float64

	// Per-node-type rate limits
	NodeTypeRPS map[types.NodeType]float64

	EnableGlobal      bool
	EnablePerNodeType bool
}

// DefaultRateLimitConfig returns default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		GlobalRPS:         100,
		EnableGlobal:      true,
		EnablePerNodeType: false,
		NodeTypeRPS:       make(map[types.NodeType]float64),
	}
}

// NewRateLimitMiddleware creates a new rate limiting middleware with default config
func NewRateLimitMiddleware() *RateLimitMiddleware {
	return NewRateLimitMiddlewareWithConfig(DefaultRateLimitConfig())
}

// NewRateLimitMiddlewareWithConfig creates a new rate limiting middleware with custom config
func NewRateLimitMiddlewareWithConfig(config RateLimitConfig) *RateLimitMiddleware {
	m := &RateLimitMiddleware{
		nodeTypeLimiters:  make(map[types.NodeType]RateLimiter),
		enableGlobal:      config.EnableGlobal,
		enablePerNodeType: config.EnablePerNodeType,
	}

	if config.EnableGlobal && config.GlobalRPS > 0 {
		m.globalLimiter = NewTokenBucket(config.GlobalRPS, int64(config.GlobalRPS))
	}

	if config.EnablePerNodeType {
		for nodeType, rps := range config.NodeTypeRPS {
			if rps > 0 {
				m.nodeTypeLimiters[nodeType] = NewTokenBucket(rps, int64(rps))
			}
		}
	}

	return m
}

// Process enforces rate limits before node execution
func (m *RateLimitMiddleware) Process(rc executor.RunContext, next Handler) *types.Outcome {
	if m.enableGlobal && m.globalLimiter != nil {
		if !m.globalLimiter.Allow("global") {
			m.incrementRejected()
			return types.OutcomeFailure(types.ErrorKindRateLimited, "global rate limit exceeded", "retry after the configured backoff")
		}
	}

	if m.enablePerNodeType {
		nodeType := rc.Node().Type
		m.mu.RLock()
		limiter, exists := m.nodeTypeLimiters[nodeType]
		m.mu.RUnlock()

		if exists && !limiter.Allow(string(nodeType)) {
			m.incrementRejected()
			return types.OutcomeFailure(types.ErrorKindRateLimited, fmt.Sprintf("rate limit exceeded for node type: %s", nodeType), "")
		}
	}

	return next(rc)
}

// Name returns the middleware name
func (m *RateLimitMiddleware) Name() string {
	return "RateLimit"
}

// GetRejectedCount returns the number of rejected invocations
func (m *RateLimitMiddleware) GetRejectedCount() int64 {
	m.rejectedCountMu.Lock()
	defer m.rejectedCountMu.Unlock()
	return m.rejectedCount
}

func (m *RateLimitMiddleware) incrementRejected() {
	m.rejectedCountMu.Lock()
	m.rejectedCount++
	m.rejectedCountMu.Unlock()
}

// TokenBucket implements the token bucket algorithm for rate limiting
type TokenBucket struct {
	rate       float64
	capacity   int64
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a new token bucket rate limiter
func NewTokenBucket(rate float64, capacity int64) *TokenBucket {
	return &TokenBucket{
		rate:       rate,
		capacity:   capacity,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// Allow checks if a request is allowed based on available tokens
func (tb *TokenBucket) Allow(key string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = min(tb.tokens+elapsed*tb.rate, float64(tb.capacity))
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}

	return false
}

// Reset clears the token bucket state
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = float64(tb.capacity)
	tb.lastRefill = time.Now()
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
