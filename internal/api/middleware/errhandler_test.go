package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	ierr "coupon-drop/pkg/errors"
	"coupon-drop/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorRouter(err error) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID, ErrorHandler(logger.NewNop(), nil))
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(err)
	})
	return router
}

func TestErrorHandler_RetryAfterIsWholeSeconds(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{86400, "86400"},
		{999999, "999999"},
		{1000000, "1000000"},
		{1209600, "1209600"},
		{31536000, "31536000"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			err := ierr.NewError("cooldown").
				WithHint("Please wait between claims").
				WithReportableDetails(map[string]any{"retry_after_seconds": tt.seconds}).
				Mark(ierr.ErrCooldownActive)

			rec := httptest.NewRecorder()
			errorRouter(err).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Retry-After"))
		})
	}
}

func TestErrorHandler_Envelope(t *testing.T) {
	err := ierr.NewError("missing").
		WithHint("Coupon not found").
		Mark(ierr.ErrNotFound)

	rec := httptest.NewRecorder()
	errorRouter(err).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Header().Get("Retry-After"))

	var resp ierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, ierr.ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "Coupon not found", resp.Error.Display)
}

func TestRetryAfter(t *testing.T) {
	got, ok := retryAfter(1.2096e+06)
	assert.True(t, ok)
	assert.Equal(t, "1209600", got)

	got, ok = retryAfter(0.2)
	assert.True(t, ok)
	assert.Equal(t, "1", got)

	got, ok = retryAfter(-5.0)
	assert.True(t, ok)
	assert.Equal(t, "0", got)

	_, ok = retryAfter("soon")
	assert.False(t, ok)

	_, ok = retryAfter(nil)
	assert.False(t, ok)
}
