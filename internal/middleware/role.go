package middleware

import (
	"net/http"

	"admarket/internal/domain"
	"admarket/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through when the token role is one of roles.
func RequireRole(roles ...domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ctxRole)
		if !exists {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			c.Abort()
			return
		}

		current := domain.UserRole(role.(string))
		for _, r := range roles {
			if current == r {
				c.Next()
				return
			}
		}

		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
		c.Abort()
	}
}

// StaffOnly admits moderators and admins.
func StaffOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleModerator, domain.RoleAdmin)
}
