package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolhub/api/internal/models"
)

// RequireRoles permits the request only when the resolved user's role is in
// the allowed set. It assumes Auth ran earlier in the chain; a missing user
// is an authentication failure, not an authorization one.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		roleSet[string(role)] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
			return
		}

		if _, allowed := roleSet[user.Role]; !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}

		c.Next()
	}
}
