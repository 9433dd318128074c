package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"incoin_webapp/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// KeyFunc identifies the caller a limit applies to. An empty key skips the limit.
type KeyFunc func(c *gin.Context) string

func ByIP(c *gin.Context) string { return c.ClientIP() }

// ByUser keys on the authenticated user; it needs JWT to run first.
func ByUser(c *gin.Context) string {
	if v, ok := c.Get(UserIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// RedisLimiter is a fixed-window limiter over INCR/EXPIRE. A nil limiter or
// a failing Redis lets requests through.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	if client == nil {
		return nil
	}
	return &RedisLimiter{client: client, prefix: prefix}
}

// DialRedis returns a client for addr, or nil when addr is empty or the
// server does not answer.
func DialRedis(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis rate limiter disabled", "addr", addr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// hit counts one request against key and returns the running count.
func (l *RedisLimiter) hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	val, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if val == 1 {
		l.client.Expire(ctx, key, window)
	}
	return val, nil
}

// Limit allows maxRequests per window for each key.
// key format: <prefix>:<window_seconds>:<key>
func (l *RedisLimiter) Limit(name string, maxRequests int, window time.Duration, keyFn KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		ident := keyFn(c)
		if ident == "" {
			c.Next()
			return
		}

		key := l.prefix + ":" + name + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + ident
		val, err := l.hit(c.Request.Context(), key, window)
		if err != nil {
			// fail-open
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-val), 10))

		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(name).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"code":        "rate_limited",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		RLRequests.WithLabelValues(name).Inc()
		c.Next()
	}
}

// RedisRateLimit limits per client IP.
func RedisRateLimit(l *RedisLimiter, maxRequests int, window time.Duration) gin.HandlerFunc {
	return l.Limit("ip", maxRequests, window, ByIP)
}
