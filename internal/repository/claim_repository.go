package repository

import (
	"context"

	"coupon-drop/internal/model"
)

// ClaimRepository defines the interface for claim data operations
type ClaimRepository interface {
	// CreateClaim creates a new claim record
	CreateClaim(ctx context.Context, claim *model.Claim) error

	// ListClaims returns a page of the claim history, newest first, and the total count
	ListClaims(ctx context.Context, params model.ListParams) ([]*model.Claim, int64, error)

	// RecentClaims returns the newest claims without counting the collection
	RecentClaims(ctx context.Context, limit int) ([]*model.Claim, error)
}
