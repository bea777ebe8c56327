package repository

import (
	"context"
	"time"

	"coupon-drop/internal/model"
	ierr "coupon-drop/pkg/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongodbCouponRepository implements CouponRepository using MongoDB
type mongodbCouponRepository struct {
	collection *mongo.Collection
}

// NewCouponRepository creates a new MongoDB-based coupon repository
func NewCouponRepository(db *mongo.Database) CouponRepository {
	return &mongodbCouponRepository{
		collection: db.Collection("coupons"),
	}
}

// CreateCoupon creates a new coupon
func (r *mongodbCouponRepository) CreateCoupon(ctx context.Context, coupon *model.Coupon) error {
	if coupon.ID.IsZero() {
		coupon.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctx, coupon)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ierr.WithError(err).
				WithHintf("Coupon %q already exists", coupon.Code).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create coupon").
			Mark(ierr.ErrDatabase)
	}

	return nil
}

// GetCouponByID retrieves a coupon by its id
func (r *mongodbCouponRepository) GetCouponByID(ctx context.Context, id primitive.ObjectID) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&coupon)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ierr.WithError(err).
				WithHint("Coupon not found").
				WithReportableDetails(map[string]any{"coupon_id": id.Hex()}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get coupon").
			Mark(ierr.ErrDatabase)
	}

	return &coupon, nil
}

// ListCoupons returns a page of coupons, newest first
func (r *mongodbCouponRepository) ListCoupons(ctx context.Context, params model.ListParams) ([]*model.Coupon, int64, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(params.Offset)).
		SetLimit(int64(params.Limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, ierr.WithError(err).
			WithHint("Failed to list coupons").
			Mark(ierr.ErrDatabase)
	}
	defer cursor.Close(ctx)

	coupons := make([]*model.Coupon, 0, params.Limit)
	if err := cursor.All(ctx, &coupons); err != nil {
		return nil, 0, ierr.WithError(err).
			WithHint("Failed to list coupons").
			Mark(ierr.ErrDatabase)
	}

	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, ierr.WithError(err).
			WithHint("Failed to count coupons").
			Mark(ierr.ErrDatabase)
	}

	return coupons, total, nil
}

// ClaimNextAvailable atomically claims the oldest active, unclaimed coupon
func (r *mongodbCouponRepository) ClaimNextAvailable(ctx context.Context, now time.Time) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{
			"is_active":  true,
			"is_claimed": false, // Only a coupon nobody holds yet
		},
		bson.M{"$set": bson.M{"is_claimed": true, "updated_at": now}},
		options.FindOneAndUpdate().
			SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
			SetReturnDocument(options.After).
			SetUpsert(false),
	).Decode(&coupon)

	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ierr.WithError(err).
				WithHint("No coupons available at the moment").
				Mark(ierr.ErrNoCouponsAvailable)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to claim coupon").
			Mark(ierr.ErrDatabase)
	}

	return &coupon, nil
}

// ReleaseCoupon puts a claimed coupon back into the pool
func (r *mongodbCouponRepository) ReleaseCoupon(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "is_claimed": true},
		bson.M{"$set": bson.M{"is_claimed": false, "updated_at": now}},
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to release coupon").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// setActiveAttempts bounds retries when a coupon is released between the
// conditional update and the follow-up read
const setActiveAttempts = 2

// SetActive changes is_active; claimed coupons are left untouched
func (r *mongodbCouponRepository) SetActive(ctx context.Context, id primitive.ObjectID, active bool, now time.Time) (*model.Coupon, error) {
	return setActiveWithRetry(ctx, id,
		func(ctx context.Context) (*model.Coupon, error) {
			return r.setActiveIfUnclaimed(ctx, id, active, now)
		},
		r.GetCouponByID,
	)
}

// setActiveIfUnclaimed returns nil, nil when no unclaimed coupon matched
func (r *mongodbCouponRepository) setActiveIfUnclaimed(ctx context.Context, id primitive.ObjectID, active bool, now time.Time) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id, "is_claimed": false},
		bson.M{"$set": bson.M{"is_active": active, "updated_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&coupon)

	switch {
	case err == nil:
		return &coupon, nil
	case err == mongo.ErrNoDocuments:
		return nil, nil
	default:
		return nil, ierr.WithError(err).
			WithHint("Failed to update coupon").
			Mark(ierr.ErrDatabase)
	}
}

func setActiveWithRetry(
	ctx context.Context,
	id primitive.ObjectID,
	update func(ctx context.Context) (*model.Coupon, error),
	get func(ctx context.Context, id primitive.ObjectID) (*model.Coupon, error),
) (*model.Coupon, error) {
	for attempt := 0; attempt < setActiveAttempts; attempt++ {
		coupon, err := update(ctx)
		if err != nil || coupon != nil {
			return coupon, err
		}

		// Either the coupon does not exist or it was already claimed
		existing, err := get(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing.IsClaimed {
			return nil, ierr.NewError("coupon already claimed").
				WithHint("Claimed coupons cannot be toggled").
				WithReportableDetails(map[string]any{"coupon_id": id.Hex()}).
				Mark(ierr.ErrInvalidOperation)
		}
		// Released by a failed claim between the two reads; try again
	}

	return nil, ierr.NewError("coupon changed during update").
		WithHint("Coupon is being claimed right now, try again").
		WithReportableDetails(map[string]any{"coupon_id": id.Hex()}).
		Mark(ierr.ErrDatabase)
}

// CountCoupons summarizes the inventory
func (r *mongodbCouponRepository) CountCoupons(ctx context.Context) (*model.CouponCounts, error) {
	counts := &model.CouponCounts{}
	queries := []struct {
		target *int64
		filter bson.M
	}{
		{&counts.Total, bson.M{}},
		{&counts.Active, bson.M{"is_active": true}},
		{&counts.Claimed, bson.M{"is_claimed": true}},
		{&counts.Available, bson.M{"is_active": true, "is_claimed": false}},
	}

	for _, q := range queries {
		n, err := r.collection.CountDocuments(ctx, q.filter)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to count coupons").
				Mark(ierr.ErrDatabase)
		}
		*q.target = n
	}

	return counts, nil
}
