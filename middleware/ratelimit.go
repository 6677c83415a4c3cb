package middleware

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/TurahWilson/TubesIAE/util"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const defaultRateWindow = 15 * time.Minute

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

func rateLimitKey(clientIP, endpoint string) string {
	return fmt.Sprintf("ratelimit:%s:%s", endpoint, clientIP)
}

// RateLimiter counts requests per client IP and path in Redis. A nil client
// or a zero limit disables it.
func RateLimiter(rdb *redis.Client, cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Window == 0 {
		cfg.Window = defaultRateWindow
	}

	return func(c *gin.Context) {
		if rdb == nil || cfg.Limit <= 0 {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		endpoint := c.Request.URL.Path

		allowed, err := checkRateLimit(c.Request.Context(), rdb, rateLimitKey(clientIP, endpoint), cfg.Limit, cfg.Window)
		if err != nil {
			// Redis being down must not lock users out.
			log.Printf("Rate limit check failed: %v", err)
			c.Next()
			return
		}

		if !allowed {
			util.LogRateLimitExceeded(clientIP, endpoint)
			util.CallTooManyRequests(c, util.APIErrorParams{
				Msg: "Too many requests. Please try again later.",
				Err: fmt.Errorf("rate limit exceeded"),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// checkRateLimit returns true while the counter stays within limit.
func checkRateLimit(ctx context.Context, rdb *redis.Client, key string, limit int, window time.Duration) (bool, error) {
	pipe := rdb.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}
	return incrCmd.Val() <= int64(limit), nil
}

// ResetRateLimit clears the counter of one client on one path.
func ResetRateLimit(ctx context.Context, rdb *redis.Client, clientIP, endpoint string) error {
	if rdb == nil {
		return fmt.Errorf("redis not available")
	}
	return rdb.Del(ctx, rateLimitKey(clientIP, endpoint)).Err()
}
