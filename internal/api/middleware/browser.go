package middleware

import (
	"net/http"
	"strings"
	"time"

	ierr "coupon-drop/pkg/errors"
	"coupon-drop/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderBrowserID = "X-Browser-ID"
	CookieBrowserID = "browser_id"
	CtxBrowserID    = "browser_id"
)

// BrowserOptions configures the browser identity cookie
type BrowserOptions struct {
	MaxAge time.Duration
	Secure bool
}

// BrowserID resolves the visitor's browser identifier from the X-Browser-ID
// header or the browser_id cookie. First-time visitors get a fresh UUID which
// is stored in the cookie.
func BrowserID(opts BrowserOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderBrowserID))
		if id == "" {
			if cookie, err := c.Cookie(CookieBrowserID); err == nil {
				id = strings.TrimSpace(cookie)
			}
		}

		id = strings.ToLower(id)
		if id == "" {
			id = uuid.New().String()
		} else if err := validator.ValidateVar(id, "uuid"); err != nil {
			_ = c.Error(ierr.WithError(err).
				WithHint("Invalid browser identifier").
				WithReportableDetails(map[string]any{"browser_id": id}).
				Mark(ierr.ErrValidation))
			c.Abort()
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CookieBrowserID, id, int(opts.MaxAge.Seconds()), "/", "", opts.Secure, true)
		c.Set(CtxBrowserID, id)

		c.Next()
	}
}

// GetBrowserID returns the id resolved by BrowserID
func GetBrowserID(c *gin.Context) string {
	return c.GetString(CtxBrowserID)
}
