package middleware

import (
	"context"
	"strings"

	"coupon-drop/internal/model"

	"github.com/gin-gonic/gin"
)

const CtxAdminUser = "admin_user"

// Authenticator resolves a session token to an administrator
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.AdminUser, error)
}

// AdminAuth admits requests carrying a valid administrator session, either as
// a Bearer token or in the session cookie.
func AdminAuth(authn Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := authn.Authenticate(c.Request.Context(), SessionToken(c, cookieName))
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(CtxAdminUser, user)
		c.Next()
	}
}

// SessionToken extracts the session token from the Authorization header or cookie
func SessionToken(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}

// GetAdminUser returns the administrator set by AdminAuth
func GetAdminUser(c *gin.Context) *model.AdminUser {
	if v, ok := c.Get(CtxAdminUser); ok {
		if user, ok := v.(*model.AdminUser); ok {
			return user
		}
	}
	return nil
}
