package api

import (
	"net/http"

	"coupon-drop/internal/api/middleware"
	"coupon-drop/internal/service"

	"github.com/gin-gonic/gin"
)

// claimCouponHandler handles POST /api/claims
func claimCouponHandler(svc *service.CouponService) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := svc.ClaimCoupon(c.Request.Context(), middleware.GetBrowserID(c), c.ClientIP())
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// cooldownStatusHandler handles GET /api/claims/status
func cooldownStatusHandler(svc *service.CouponService) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := svc.CooldownStatus(c.Request.Context(), middleware.GetBrowserID(c))
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}
