package middleware

import (
	"strings" // String manipulation

	"invest_platform/internal/api/response"
	apperrors "invest_platform/internal/domain/errors"
	"invest_platform/internal/utils" // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// Context keys set by the auth middleware
const (
	ContextUserID = "userID"
	ContextRole   = "role"
)

// JWTAuthMiddleware validates JWT tokens and extracts user information
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			response.Abort(c, apperrors.Unauthorized("Missing or invalid Authorization header"))
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ParseJWT(tokenStr, secret)
		if err != nil || claims.UserID == 0 {
			response.Abort(c, apperrors.Unauthorized("Invalid or expired token"))
			return
		}
		c.Set(ContextUserID, claims.UserID) // Store userID in context
		c.Set(ContextRole, claims.Role)     // Role at issue time, replaced by ActiveAccount
		c.Next()
	}
}

// UserID returns the authenticated user id, 0 when the request is anonymous
func UserID(c *gin.Context) uint {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
