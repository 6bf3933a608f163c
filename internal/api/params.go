package api

import (
	"errors"
	"io"
	"strconv"

	apperrors "invest_platform/internal/domain/errors"

	"github.com/gin-gonic/gin"
)

// pathID parses the :id route parameter
func pathID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.Validation("Invalid id")
	}
	return uint(id), nil
}

// queryUint parses an optional numeric query parameter, 0 when absent
func queryUint(c *gin.Context, key string) (uint, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperrors.Validation("Invalid " + key)
	}
	return uint(v), nil
}

// bindOptionalJSON binds a request body that may be omitted entirely
func bindOptionalJSON(c *gin.Context, dst any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.Validation("Invalid request")
	}
	return nil
}
