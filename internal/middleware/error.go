package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/xetrapulse/internal/domain/dto"
	"github.com/guttosm/xetrapulse/internal/logger"
)

// ErrorHandler turns errors attached with c.Error into a JSON 500 response
// when the handler did not write a body itself.
//
// Usage:
//
//	router.Use(middleware.ErrorHandler)
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 {
		return
	}
	last := c.Errors.Last()
	logger.FromContext(c.Request.Context()).Error().
		Err(last.Err).
		Int("errors", len(c.Errors)).
		Str("path", c.Request.URL.Path).
		Msg("request failed")

	if c.Writer.Written() {
		return
	}
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("Internal server error", last.Err))
}

// AbortWithError stops the handler chain and writes a standardized error body.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, err))
}
