package middleware

import (
	"net/http"

	"invest_platform/internal/api/response"
	"invest_platform/internal/domain"
	apperrors "invest_platform/internal/domain/errors"

	"github.com/gin-gonic/gin"
)

// SettingsSource exposes the current platform settings
type SettingsSource interface {
	Get() domain.Settings
}

// Maintenance answers 503 to everyone but admins while maintenance mode is on.
// On authenticated routes it must run after ActiveAccount or AdminOnlyMiddleware,
// which put the role read from the database into the context.
func Maintenance(settings SettingsSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if settings.Get().MaintenanceMode && c.GetString(ContextRole) != domain.RoleAdmin {
			response.Abort(c, apperrors.NewAppError(http.StatusServiceUnavailable,
				"Platform is under maintenance. Please try again later.", nil))
			return
		}
		c.Next()
	}
}
