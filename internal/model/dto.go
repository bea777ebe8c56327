package model

import (
	"time"

	"github.com/samber/lo"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// CreateCouponRequest represents the request to add a coupon to the inventory
type CreateCouponRequest struct {
	Code        string `json:"code" binding:"required" validate:"required,min=1,max=64"`
	Description string `json:"description" validate:"max=512"`
}

// ToggleCouponRequest sets is_active explicitly, or flips it when IsActive is nil
type ToggleCouponRequest struct {
	IsActive *bool `json:"is_active,omitempty"`
}

// ClaimCouponResponse is returned to the visitor who won a coupon
type ClaimCouponResponse struct {
	Code        string    `json:"code"`
	Description string    `json:"description"`
	ClaimedAt   time.Time `json:"claimed_at"`
	NextClaimAt time.Time `json:"next_claim_at"`
}

// CooldownStatusResponse tells a browser whether it may claim now
type CooldownStatusResponse struct {
	BrowserID         string     `json:"browser_id"`
	OnCooldown        bool       `json:"on_cooldown"`
	LastClaim         *time.Time `json:"last_claim,omitempty"`
	NextClaimAt       *time.Time `json:"next_claim_at,omitempty"`
	RetryAfterSeconds int64      `json:"retry_after_seconds"`
}

// ListParams paginates admin listings
type ListParams struct {
	Limit  int `form:"limit" validate:"gte=0,lte=200"`
	Offset int `form:"offset" validate:"gte=0"`
}

// Normalize applies the default page size
func (p ListParams) Normalize() ListParams {
	if p.Limit <= 0 {
		p.Limit = DefaultListLimit
	}
	p.Limit = lo.Min([]int{p.Limit, MaxListLimit})
	return p
}

// CouponResponse is a coupon as shown in the admin inventory
type CouponResponse struct {
	*Coupon
	Status string `json:"status"`
}

func NewCouponResponse(c *Coupon) *CouponResponse {
	return &CouponResponse{Coupon: c, Status: c.Status()}
}

type ListCouponsResponse struct {
	Items  []*CouponResponse `json:"items"`
	Total  int64             `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

type ListClaimsResponse struct {
	Items  []*Claim `json:"items"`
	Total  int64    `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}

// CouponCounts summarizes the inventory
type CouponCounts struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	Claimed   int64 `json:"claimed"`
	Available int64 `json:"available"`
}

// DashboardResponse is the admin landing view
type DashboardResponse struct {
	Coupons      CouponCounts     `json:"coupons"`
	RecentClaims []*Claim         `json:"recent_claims"`
	ClaimStats   map[string]int64 `json:"claim_stats,omitempty"`
}

// LoginRequest carries administrator credentials forwarded to the auth provider
type LoginRequest struct {
	Email    string `json:"email" binding:"required" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
}

// AdminUser is the authenticated administrator
type AdminUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// LoginResponse is returned after a successful sign in
type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	ExpiresIn   int        `json:"expires_in"`
	User        *AdminUser `json:"user"`
}

// SessionResponse backs the admin route guard
type SessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	User          *AdminUser `json:"user,omitempty"`
}
