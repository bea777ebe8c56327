package middleware

import (
	"math"
	"net/http"
	"strconv"

	ierr "coupon-drop/pkg/errors"
	"coupon-drop/pkg/logger"
	"coupon-drop/pkg/sentry"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error a handler attached with c.Error
func ErrorHandler(log *logger.Logger, reporter *sentry.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := ierr.HTTPStatusFromErr(err)
		response := ierr.NewErrorResponse(err)

		if ierr.IsCooldownActive(err) {
			if retry, ok := retryAfter(response.Error.Details["retry_after_seconds"]); ok {
				c.Header("Retry-After", retry)
			}
		}

		if status >= http.StatusInternalServerError {
			log.Errorw("request failed",
				"method", c.Request.Method,
				"path", c.FullPath(),
				"request_id", c.GetString(CtxRequestID),
				"error", err,
			)
			reporter.CaptureException(err, map[string]string{
				"path":       c.FullPath(),
				"request_id": c.GetString(CtxRequestID),
			})
		}

		c.JSON(status, response)
	}
}

// retryAfter renders a detail value as whole delay-seconds. Details come back
// from JSON, so numbers arrive as float64.
func retryAfter(v any) (string, bool) {
	var seconds int64
	switch n := v.(type) {
	case float64:
		seconds = int64(math.Ceil(n))
	case int64:
		seconds = n
	case int:
		seconds = int64(n)
	default:
		return "", false
	}
	if seconds < 0 {
		seconds = 0
	}
	return strconv.FormatInt(seconds, 10), true
}
