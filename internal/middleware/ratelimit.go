package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"admarket/internal/config"
	"admarket/internal/logger"
	"admarket/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type counterStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// RateLimiter is a fixed-window counter per key kept in Redis.
type RateLimiter struct {
	store   counterStore
	log     *logger.Logger
	enabled bool
	limit   int64
	window  time.Duration
	prefix  string
}

// NewRateLimiter returns a disabled limiter when store is nil or limits are not positive.
func NewRateLimiter(store counterStore, log *logger.Logger, cfg *config.RateLimitConfig) *RateLimiter {
	if store == nil || cfg == nil || !cfg.Enabled || cfg.Requests <= 0 || cfg.WindowSeconds <= 0 {
		return &RateLimiter{enabled: false}
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RateLimiter{
		store:   store,
		log:     log,
		enabled: true,
		limit:   int64(cfg.Requests),
		window:  time.Duration(cfg.WindowSeconds) * time.Second,
		prefix:  prefix,
	}
}

func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, int64, time.Time, error) {
	if !r.enabled {
		return true, r.limit, time.Now().Add(r.window), nil
	}

	redisKey := fmt.Sprintf("%s:%s", r.prefix, strings.ReplaceAll(key, ":", "_"))
	count, err := r.store.Incr(ctx, redisKey)
	if err != nil {
		return false, 0, time.Time{}, fmt.Errorf("rate limiter incr failed: %w", err)
	}
	if count == 1 {
		if err := r.store.Expire(ctx, redisKey, r.window); err != nil {
			r.log.WithError(err).WithField("key", redisKey).Warn("failed to set rate limit ttl")
		}
	}

	ttl, err := r.store.TTL(ctx, redisKey)
	if err != nil || ttl < 0 {
		ttl = r.window
	}

	remaining := r.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= r.limit, remaining, time.Now().Add(ttl), nil
}

// RateLimit limits requests per client IP. Store failures let the request through.
func RateLimit(rl *RateLimiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || !rl.enabled {
			c.Next()
			return
		}

		allowed, remaining, resetAt, err := rl.Allow(c.Request.Context(), scope+":"+c.ClientIP())
		if err != nil {
			rl.log.WithError(err).Warn("rate limiter unavailable")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(rl.limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			response.Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}
