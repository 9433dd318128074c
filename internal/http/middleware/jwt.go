package middleware

import (
	"context"
	"net/http"
	"strings"

	"incoin_webapp/internal/logger"

	"github.com/gin-gonic/gin"
)

// UserIDKey is where JWT stores the authenticated user id.
const UserIDKey = "user_id"

// TokenParser returns the user id carried by a valid token.
type TokenParser interface {
	Parse(token string) (string, error)
}

// SessionChecker reports whether a user still holds the active session.
type SessionChecker interface {
	IsActive(ctx context.Context, userID string) (bool, error)
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "code": "unauthorized"})
}

// JWT accepts "Authorization: Bearer <token>". A valid token whose user is no
// longer the session user (after logout or another login) is rejected.
func JWT(tokens TokenParser, sessions SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			abortUnauthorized(c, "missing token")
			return
		}

		userID, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		active, err := sessions.IsActive(c.Request.Context(), userID)
		if err != nil {
			logger.Error("session check failed", "user_id", userID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "internal"})
			return
		}
		if !active {
			abortUnauthorized(c, "session ended")
			return
		}

		c.Set(UserIDKey, userID)
		c.Request = c.Request.WithContext(logger.ContextWith(c.Request.Context(), "user_id", userID))
		c.Next()
	}
}
