package response

import (
	"net/http"

	apperrors "invest_platform/internal/domain/errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Success writes {success: true, message?, ...payload}
func Success(c *gin.Context, status int, message string, payload gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

func errorBody(err error) (int, gin.H) {
	appErr := apperrors.As(err)
	detail := http.StatusText(appErr.Status)
	// underlying error text is only exposed outside release mode
	if gin.Mode() != gin.ReleaseMode && appErr.Err != nil {
		detail = appErr.Err.Error()
	}
	return appErr.Status, gin.H{
		"success": false,
		"message": appErr.Message,
		"error":   detail,
	}
}

// Error writes {success: false, message, error} with the status carried by err
func Error(c *gin.Context, err error) {
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"request_id": c.GetString("request_id"),
		}).WithError(err).Error("Request failed")
	}
	c.JSON(status, body)
}

// Abort is Error for middleware: it also stops the handler chain
func Abort(c *gin.Context, err error) {
	status, body := errorBody(err)
	c.AbortWithStatusJSON(status, body)
}
