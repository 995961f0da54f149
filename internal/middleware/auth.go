package middleware

import (
	"net/http"
	"strings"

	"admarket/internal/domain"
	"admarket/internal/pkg/jwt"
	"admarket/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

type tokenValidator interface {
	ValidateToken(tokenStr string) (*jwt.Claims, error)
}

// JWTAuth requires a valid Bearer token and stores user_id and role on the context.
func JWTAuth(tokens tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing Authorization header")
			c.Abort()
			return
		}

		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		tokenStr = strings.TrimSpace(tokenStr)
		if !ok || tokenStr == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid Authorization header")
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(tokenStr)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// Requester builds the explicit caller identity handed to services.
func Requester(c *gin.Context) domain.Requester {
	return domain.Requester{
		UserID: c.GetInt64(ctxUserID),
		Role:   domain.UserRole(c.GetString(ctxRole)),
	}
}
