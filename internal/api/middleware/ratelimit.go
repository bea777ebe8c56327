package middleware

import (
	"fmt"
	"math"
	"time"

	ierr "coupon-drop/pkg/errors"
	"coupon-drop/pkg/ratelimit"
	"coupon-drop/pkg/stats"

	"github.com/gin-gonic/gin"
)

// RateLimit rejects clients that exceed the store's rate, keyed by client IP
func RateLimit(store *ratelimit.Store, st stats.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, wait := store.Allow(c.ClientIP())
		if allowed {
			c.Next()
			return
		}

		if st != nil {
			_ = st.Record(c.Request.Context(), stats.Event{Outcome: stats.OutcomeRejected, At: time.Now()})
		}

		retryAfter := int64(math.Ceil(wait.Seconds()))
		c.Header("Retry-After", fmt.Sprint(retryAfter))
		_ = c.Error(ierr.NewError("rate limit exceeded").
			WithHint("Too many requests, slow down").
			WithReportableDetails(map[string]any{"retry_after_seconds": retryAfter}).
			Mark(ierr.ErrRateLimited))
		c.Abort()
	}
}
