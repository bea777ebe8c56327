package repository

import (
	"context"

	"coupon-drop/internal/model"
	ierr "coupon-drop/pkg/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongodbClaimRepository implements ClaimRepository using MongoDB
type mongodbClaimRepository struct {
	collection *mongo.Collection
}

// NewClaimRepository creates a new MongoDB-based claim repository
func NewClaimRepository(db *mongo.Database) ClaimRepository {
	return &mongodbClaimRepository{
		collection: db.Collection("claims"),
	}
}

// CreateClaim creates a new claim record
func (r *mongodbClaimRepository) CreateClaim(ctx context.Context, claim *model.Claim) error {
	if claim.ID.IsZero() {
		claim.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctx, claim)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ierr.WithError(err).
				WithHint("Coupon has already been claimed").
				WithReportableDetails(map[string]any{"coupon_id": claim.CouponID.Hex()}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to record claim").
			Mark(ierr.ErrDatabase)
	}

	return nil
}

// ListClaims returns a page of the claim history, newest first
func (r *mongodbClaimRepository) ListClaims(ctx context.Context, params model.ListParams) ([]*model.Claim, int64, error) {
	claims, err := r.find(ctx, int64(params.Offset), int64(params.Limit))
	if err != nil {
		return nil, 0, err
	}

	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, ierr.WithError(err).
			WithHint("Failed to count claims").
			Mark(ierr.ErrDatabase)
	}

	return claims, total, nil
}

// RecentClaims returns the newest claims
func (r *mongodbClaimRepository) RecentClaims(ctx context.Context, limit int) ([]*model.Claim, error) {
	return r.find(ctx, 0, int64(limit))
}

func (r *mongodbClaimRepository) find(ctx context.Context, skip, limit int64) ([]*model.Claim, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "claimed_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list claims").
			Mark(ierr.ErrDatabase)
	}
	defer cursor.Close(ctx)

	claims := make([]*model.Claim, 0, limit)
	if err := cursor.All(ctx, &claims); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list claims").
			Mark(ierr.ErrDatabase)
	}

	return claims, nil
}
