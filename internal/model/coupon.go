package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Coupon is a single-use discount code in the inventory
type Coupon struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Code        string             `bson:"code" json:"code"`
	Description string             `bson:"description" json:"description"`
	IsActive    bool               `bson:"is_active" json:"is_active"`
	IsClaimed   bool               `bson:"is_claimed" json:"is_claimed"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Status is the label shown in the admin inventory
func (c *Coupon) Status() string {
	switch {
	case c.IsClaimed:
		return "claimed"
	case c.IsActive:
		return "active"
	default:
		return "inactive"
	}
}

// Claim records which browser received which coupon
type Claim struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CouponID          primitive.ObjectID `bson:"coupon_id" json:"coupon_id"`     // Used for unique index
	CouponCode        string             `bson:"coupon_code" json:"coupon_code"` // Denormalized for the history view
	CouponDescription string             `bson:"coupon_description" json:"coupon_description"`
	BrowserID         string             `bson:"browser_id" json:"browser_id"`
	IPAddress         string             `bson:"ip_address" json:"ip_address"`
	ClaimedAt         time.Time          `bson:"claimed_at" json:"claimed_at"`
}

// Cooldown holds the most recent claim time of a browser
type Cooldown struct {
	BrowserID  string    `bson:"browser_id" json:"browser_id"`
	IPAddress  string    `bson:"ip_address" json:"ip_address"`
	LastClaim  time.Time `bson:"last_claim" json:"last_claim"`
	ClaimCount int64     `bson:"claim_count" json:"claim_count"`
}

// NextClaimAt returns when the browser may claim again
func (c *Cooldown) NextClaimAt(window time.Duration) time.Time {
	return c.LastClaim.Add(window)
}
