package api

import (
	"context"
	"net/http"
	"time"

	"coupon-drop/internal/api/middleware"
	"coupon-drop/internal/service"
	"coupon-drop/pkg/logger"
	"coupon-drop/pkg/ratelimit"
	"coupon-drop/pkg/sentry"
	"coupon-drop/pkg/stats"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether the database is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are everything the router wires into handlers
type Dependencies struct {
	CouponService *service.CouponService
	AdminService  *service.AdminService
	AuthService   *service.AuthService
	ClaimLimiter  *ratelimit.Store
	Stats         stats.Store
	DB            Pinger
	Logger        *logger.Logger
	Sentry        *sentry.Service

	Browser        middleware.BrowserOptions
	Cookie         CookieOptions
	TrustedProxies []string
}

func SetupRouter(deps Dependencies) (*gin.Engine, error) {
	router := gin.Default()
	if err := router.SetTrustedProxies(deps.TrustedProxies); err != nil {
		return nil, err
	}

	router.Use(middleware.RequestID, middleware.ErrorHandler(deps.Logger, deps.Sentry))

	// Health check endpoint
	router.GET("/health", healthHandler(deps.DB))

	api := router.Group("/api")

	claims := api.Group("/claims", middleware.BrowserID(deps.Browser))
	{
		claims.GET("/status", cooldownStatusHandler(deps.CouponService))
		claims.POST("", middleware.RateLimit(deps.ClaimLimiter, deps.Stats), claimCouponHandler(deps.CouponService))
	}

	admin := api.Group("/admin")
	{
		admin.POST("/login", loginHandler(deps.AuthService, deps.Cookie))
		admin.POST("/logout", logoutHandler(deps.AuthService, deps.Cookie))
		admin.GET("/session", sessionHandler(deps.AuthService, deps.Cookie))
	}

	protected := admin.Group("", middleware.AdminAuth(deps.AuthService, deps.Cookie.Name))
	{
		protected.GET("/coupons", listCouponsHandler(deps.AdminService))
		protected.POST("/coupons", createCouponHandler(deps.AdminService))
		protected.PATCH("/coupons/:id/toggle", toggleCouponHandler(deps.AdminService))
		protected.GET("/claims", listClaimsHandler(deps.AdminService))
		protected.GET("/dashboard", dashboardHandler(deps.AdminService))
	}

	return router, nil
}

// healthHandler handles GET /health
func healthHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
