package repository

import (
	"context"
	"time"

	"coupon-drop/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CouponRepository defines the interface for coupon data operations
type CouponRepository interface {
	// CreateCoupon creates a new coupon
	CreateCoupon(ctx context.Context, coupon *model.Coupon) error

	// GetCouponByID retrieves a coupon by its id
	GetCouponByID(ctx context.Context, id primitive.ObjectID) (*model.Coupon, error)

	// ListCoupons returns a page of coupons, newest first, and the total count
	ListCoupons(ctx context.Context, params model.ListParams) ([]*model.Coupon, int64, error)

	// ClaimNextAvailable atomically marks the oldest active, unclaimed coupon as claimed
	// Returns ErrNoCouponsAvailable when none is left
	ClaimNextAvailable(ctx context.Context, now time.Time) (*model.Coupon, error)

	// ReleaseCoupon marks a claimed coupon as unclaimed again
	ReleaseCoupon(ctx context.Context, id primitive.ObjectID, now time.Time) error

	// SetActive changes is_active of an unclaimed coupon
	SetActive(ctx context.Context, id primitive.ObjectID, active bool, now time.Time) (*model.Coupon, error)

	// CountCoupons summarizes the inventory
	CountCoupons(ctx context.Context) (*model.CouponCounts, error)
}
