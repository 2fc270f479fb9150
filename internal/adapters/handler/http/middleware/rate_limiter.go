package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimit is a fixed-window budget for one route group. Scope keeps the
// counters of different groups apart.
type RateLimit struct {
	Scope  string
	Limit  int
	Window time.Duration
}

// rateLimitSubject identifies the caller: the authenticated user when
// AuthMiddleware ran earlier in the chain, the client address otherwise.
func rateLimitSubject(c *gin.Context) string {
	if userID, ok := GetUserID(c); ok && userID != "" {
		return "user:" + userID
	}
	return "ip:" + c.ClientIP()
}

func RateLimiterMiddleware(rdb *redis.Client, policy RateLimit) gin.HandlerFunc {
	if policy.Window <= 0 {
		policy.Window = time.Minute
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		subject := rateLimitSubject(c)
		key := fmt.Sprintf("rate_limit:%s:%s", policy.Scope, subject)

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			slog.WarnContext(ctx, "rate limiter skipped", "scope", policy.Scope, "error", err)
			c.Next()
			return
		}

		if count == 1 {
			if err := rdb.Expire(ctx, key, policy.Window).Err(); err != nil {
				slog.WarnContext(ctx, "rate limiter expire failed, dropping key", "key", key, "error", err)
				rdb.Del(ctx, key)
				c.Next()
				return
			}
		}

		ttl, err := rdb.TTL(ctx, key).Result()
		if err != nil || ttl < 0 {
			ttl = policy.Window
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", policy.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", max(0, int64(policy.Limit)-count)))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(ttl).Unix()))

		if count > int64(policy.Limit) {
			slog.DebugContext(ctx, "rate limit exceeded", "scope", policy.Scope, "subject", subject, "count", count)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "too many requests",
				"retry_in_s": int(ttl.Seconds()),
			})
			return
		}

		c.Next()
	}
}
