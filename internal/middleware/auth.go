package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"schoolhub/api/internal/config"
	"schoolhub/api/internal/models"
	"schoolhub/api/internal/security"
)

const currentUserKey = "current_user"

// UserStore is the slice of the user repository the auth gate needs.
type UserStore interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

// Auth validates the bearer access token on every request and attaches the
// resolved, sanitized user to the context. Status is re-read from the store
// each time, so deactivating an account takes effect on the next request
// without revoking tokens.
func Auth(cfg *config.AppConfig, users UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := security.ParseAccessToken(tokenStr, cfg.Security.JWTAccessSecret)
		if err != nil {
			if errors.Is(err, security.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token expired, please login again"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}

		if user.Status != models.UserStatusActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account not active"})
			return
		}

		c.Set(currentUserKey, user.Public())
		c.Next()
	}
}

// CurrentUser returns the sanitized user attached by Auth.
func CurrentUser(c *gin.Context) (models.PublicUser, bool) {
	val, exists := c.Get(currentUserKey)
	if !exists {
		return models.PublicUser{}, false
	}
	user, ok := val.(models.PublicUser)
	return user, ok
}
