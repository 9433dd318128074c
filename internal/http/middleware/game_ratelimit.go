package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// GameRateLimit limits game reports and spins per user (not per IP).
// Requires JWT middleware to run before this.
func GameRateLimit(l *RedisLimiter, maxGames int, window time.Duration) gin.HandlerFunc {
	return l.Limit("game", maxGames, window, ByUser)
}
