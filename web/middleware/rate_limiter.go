package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Limit types understood by RateLimitMiddleware.
const (
	LimitWrite   = "write"
	LimitRebuild = "rebuild"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	WritesPerMinute int           // Max dependency edits per client per minute
	RebuildsPerHour int           // Max full rebuilds per client per hour
	BurstSize       int           // Allow burst of N edits
	CleanupInterval time.Duration // How often to clean up old entries
}

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a new token bucket
func NewTokenBucket(maxTokens float64, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow checks if a request can proceed and consumes a token if so
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()

	tb.tokens = min(tb.maxTokens, tb.tokens+(elapsed*tb.refillRate))
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// Remaining returns the number of tokens remaining
func (tb *TokenBucket) Remaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	elapsed := time.Since(tb.lastRefill).Seconds()
	return int(min(tb.maxTokens, tb.tokens+(elapsed*tb.refillRate)))
}

// ClientRateLimiter keeps one bucket per client and limit type
type ClientRateLimiter struct {
	config        RateLimiterConfig
	writeLimits   map[string]*TokenBucket
	rebuildLimits map[string]*TokenBucket
	mu            sync.Mutex
	logger        *zap.Logger
	stopCleanup   chan struct{}
}

// NewClientRateLimiter creates a limiter and starts its cleanup routine.
// Call Stop when done with it.
func NewClientRateLimiter(config RateLimiterConfig, logger *zap.Logger) *ClientRateLimiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 10 * time.Minute
	}
	limiter := &ClientRateLimiter{
		config:        config,
		writeLimits:   make(map[string]*TokenBucket),
		rebuildLimits: make(map[string]*TokenBucket),
		logger:        logger,
		stopCleanup:   make(chan struct{}),
	}

	go limiter.cleanupRoutine()

	return limiter
}

func (l *ClientRateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCleanup:
			return
		}
	}
}

// cleanup forgets every client once the table grows large
func (l *ClientRateLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.writeLimits)+len(l.rebuildLimits) > 1000 {
		l.logger.Info("Cleaning up rate limiter cache",
			zap.Int("write_limiters", len(l.writeLimits)),
			zap.Int("rebuild_limiters", len(l.rebuildLimits)))
		l.writeLimits = make(map[string]*TokenBucket)
		l.rebuildLimits = make(map[string]*TokenBucket)
	}
}

// Stop stops the cleanup routine
func (l *ClientRateLimiter) Stop() {
	close(l.stopCleanup)
}

// bucket returns the client's bucket for limitType, creating it on first use.
func (l *ClientRateLimiter) bucket(client, limitType string) (*TokenBucket, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch limitType {
	case LimitRebuild:
		b, ok := l.rebuildLimits[client]
		if !ok {
			b = NewTokenBucket(float64(l.config.RebuildsPerHour), float64(l.config.RebuildsPerHour)/3600.0)
			l.rebuildLimits[client] = b
		}
		return b, l.config.RebuildsPerHour
	default:
		b, ok := l.writeLimits[client]
		if !ok {
			b = NewTokenBucket(float64(l.config.BurstSize), float64(l.config.WritesPerMinute)/60.0)
			l.writeLimits[client] = b
		}
		return b, l.config.BurstSize
	}
}

// RateLimitMiddleware creates a Gin middleware that throttles each client IP
// by limitType. A zero rate for the type disables the check.
func RateLimitMiddleware(limiter *ClientRateLimiter, limitType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limitType != LimitWrite && limitType != LimitRebuild {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown limit type"})
			return
		}
		if (limitType == LimitWrite && limiter.config.WritesPerMinute <= 0) ||
			(limitType == LimitRebuild && limiter.config.RebuildsPerHour <= 0) {
			c.Next()
			return
		}

		client := c.ClientIP()
		bucket, limit := limiter.bucket(client, limitType)
		allowed := bucket.Allow()
		remaining := bucket.Remaining()

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			retryAfter := 60
			if limitType == LimitRebuild {
				retryAfter = 3600 / max(limiter.config.RebuildsPerHour, 1)
			}
			LoggerFrom(c).Warn("Rate limit exceeded",
				zap.String("client", client),
				zap.String("limit_type", limitType),
				zap.Int("limit", limit))

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"limit":       limit,
				"remaining":   remaining,
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
