package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig bounds requests per client IP within a rolling window.
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
	KeyPrefix   string
}

// DefaultRateLimitConfig suits the management API; redirects get a far
// higher ceiling configured at wiring time.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 100,
		Window:      time.Minute,
		KeyPrefix:   "ratelimit",
	}
}

// RateLimit counts requests per IP in Redis. Redis being down fails open:
// losing rate limiting is better than losing redirects.
func RateLimit(client *redis.Client, config RateLimitConfig, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.Context()
		key := config.KeyPrefix + ":" + c.IP()

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limit redis error", zap.Error(err))
			return c.Next()
		}
		if count == 1 {
			client.Expire(ctx, key, config.Window)
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(config.MaxRequests))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, config.MaxRequests-int(count))))

		if count > int64(config.MaxRequests) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}
		return c.Next()
	}
}
