package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-storefront/internal/errors"
	"github.com/ikkim/udonggeum-storefront/internal/middleware"
)

// parseIDParam reads a positive numeric path parameter and responds 400 otherwise
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid id parameter", map[string]interface{}{
			"param": name,
			"value": c.Param(name),
		})
		errors.BadRequest(c, errors.ValidationInvalidID, "잘못된 ID입니다")
		return 0, false
	}
	return id, true
}

// parseVariantQuery reads the optional variant_id query parameter
func parseVariantQuery(c *gin.Context) (*int64, bool) {
	raw := c.Query("variant_id")
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		errors.BadRequest(c, errors.ValidationInvalidID, "잘못된 옵션 ID입니다")
		return nil, false
	}
	return &v, true
}
