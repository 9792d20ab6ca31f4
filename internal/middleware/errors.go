package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/cryptofolio/internal/domain/dto"
	"github.com/guttosm/cryptofolio/internal/logger"
)

// ErrorHandler turns errors attached with c.Error into a 500 JSON response
// when the handler did not write one itself.
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 {
		return
	}
	err := c.Errors.Last().Err
	logger.Source("http", "errorHandler").Error().
		Str("request_id", c.GetString(RequestIDKey)).
		Str("path", c.Request.URL.Path).
		Err(err).
		Msg("unhandled error")

	if c.Writer.Written() {
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse("Internal server error", nil))
}

// AbortWithError stops the chain and answers status with a dto.ErrorResponse.
// err is recorded on the context for logging; its text reaches the client as
// details only for statuses below 500.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	details := err
	if status >= http.StatusInternalServerError {
		details = nil
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, details))
}
