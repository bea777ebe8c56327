package api

import (
	"errors"
	"io"
	"net/http"

	"coupon-drop/internal/model"
	"coupon-drop/internal/service"
	ierr "coupon-drop/pkg/errors"

	"github.com/gin-gonic/gin"
)

// createCouponHandler handles POST /api/admin/coupons
func createCouponHandler(svc *service.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.CreateCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(invalidBody(err))
			return
		}

		coupon, err := svc.CreateCoupon(c.Request.Context(), &req)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusCreated, coupon)
	}
}

// listCouponsHandler handles GET /api/admin/coupons
func listCouponsHandler(svc *service.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params model.ListParams
		if err := c.ShouldBindQuery(&params); err != nil {
			_ = c.Error(invalidQuery(err))
			return
		}

		resp, err := svc.ListCoupons(c.Request.Context(), params)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// toggleCouponHandler handles PATCH /api/admin/coupons/:id/toggle
func toggleCouponHandler(svc *service.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.ToggleCouponRequest
		// An empty body means "flip"
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			_ = c.Error(invalidBody(err))
			return
		}

		coupon, err := svc.ToggleCoupon(c.Request.Context(), c.Param("id"), &req)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, coupon)
	}
}

// listClaimsHandler handles GET /api/admin/claims
func listClaimsHandler(svc *service.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params model.ListParams
		if err := c.ShouldBindQuery(&params); err != nil {
			_ = c.Error(invalidQuery(err))
			return
		}

		resp, err := svc.ListClaims(c.Request.Context(), params)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// dashboardHandler handles GET /api/admin/dashboard
func dashboardHandler(svc *service.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := svc.Dashboard(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

func invalidBody(err error) error {
	return ierr.WithError(err).
		WithHint("Invalid request body").
		Mark(ierr.ErrValidation)
}

func invalidQuery(err error) error {
	return ierr.WithError(err).
		WithHint("Invalid query parameters").
		Mark(ierr.ErrValidation)
}
