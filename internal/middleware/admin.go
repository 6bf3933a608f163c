package middleware

import (
	"errors"

	"invest_platform/internal/api/response"
	"invest_platform/internal/domain" // Importing domain models
	apperrors "invest_platform/internal/domain/errors"

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// loadAccount fetches the role and status of the authenticated user.
// It aborts the request and returns nil when the account cannot be used.
func loadAccount(c *gin.Context, db *gorm.DB) *domain.User {
	userID := UserID(c)
	if userID == 0 {
		response.Abort(c, apperrors.Unauthorized("Unauthorized"))
		return nil
	}
	var user domain.User
	err := db.WithContext(c.Request.Context()).Select("id", "role", "status").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.Abort(c, apperrors.Unauthorized("Account no longer exists"))
		return nil
	}
	if err != nil {
		response.Abort(c, err)
		return nil
	}
	switch user.Status {
	case domain.UserStatusSuspended:
		response.Abort(c, apperrors.Forbidden("Account is suspended"))
		return nil
	case domain.UserStatusRejected:
		response.Abort(c, apperrors.Forbidden("Account registration was rejected"))
		return nil
	}
	c.Set(ContextRole, user.Role) // Role from the database replaces the token claim
	return &user
}

// ActiveAccount re-checks the account on each request, so suspending a user
// takes effect before their token expires
func ActiveAccount(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if loadAccount(c, db) == nil {
			return
		}
		c.Next()
	}
}

// AdminOnlyMiddleware checks the user's role from the database on each request
func AdminOnlyMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := loadAccount(c, db)
		if user == nil {
			return
		}
		// A demoted admin loses access even with a valid token
		if !user.IsAdmin() {
			response.Abort(c, apperrors.Forbidden("Admin access required"))
			return
		}
		c.Next()
	}
}
