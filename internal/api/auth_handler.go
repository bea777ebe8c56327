package api

import (
	"net/http"

	"coupon-drop/internal/api/middleware"
	"coupon-drop/internal/model"
	"coupon-drop/internal/service"

	"github.com/gin-gonic/gin"
)

// CookieOptions configures the admin session cookie
type CookieOptions struct {
	Name   string
	Secure bool
}

// loginHandler handles POST /api/admin/login
func loginHandler(svc *service.AuthService, opts CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(invalidBody(err))
			return
		}

		resp, err := svc.Login(c.Request.Context(), &req)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(opts.Name, resp.AccessToken, resp.ExpiresIn, "/", "", opts.Secure, true)
		c.JSON(http.StatusOK, resp)
	}
}

// logoutHandler handles POST /api/admin/logout
func logoutHandler(svc *service.AuthService, opts CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc.Logout(c.Request.Context(), middleware.SessionToken(c, opts.Name))

		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(opts.Name, "", -1, "/", "", opts.Secure, true)
		c.Status(http.StatusNoContent)
	}
}

// sessionHandler handles GET /api/admin/session
func sessionHandler(svc *service.AuthService, opts CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Session(c.Request.Context(), middleware.SessionToken(c, opts.Name)))
	}
}
