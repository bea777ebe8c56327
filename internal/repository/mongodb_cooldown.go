package repository

import (
	"context"
	"time"

	"coupon-drop/internal/model"
	ierr "coupon-drop/pkg/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongodbCooldownRepository implements CooldownRepository using MongoDB
type mongodbCooldownRepository struct {
	collection *mongo.Collection
}

// NewCooldownRepository creates a new MongoDB-based cooldown repository
func NewCooldownRepository(db *mongo.Database) CooldownRepository {
	return &mongodbCooldownRepository{
		collection: db.Collection("cooldowns"),
	}
}

// Reserve relies on the unique browser_id index: when the browser's last claim
// is too recent the filter misses, the upsert tries to insert a second
// document and fails with a duplicate key error.
func (r *mongodbCooldownRepository) Reserve(ctx context.Context, browserID, ip string, now time.Time, window time.Duration) (*model.Cooldown, error) {
	var previous model.Cooldown
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{
			"browser_id": browserID,
			"last_claim": bson.M{"$lte": now.Add(-window)},
		},
		bson.M{
			"$set": bson.M{"last_claim": now, "ip_address": ip},
			"$inc": bson.M{"claim_count": 1},
		},
		options.FindOneAndUpdate().
			SetReturnDocument(options.Before).
			SetUpsert(true),
	).Decode(&previous)

	switch {
	case err == nil:
		return &previous, nil
	case err == mongo.ErrNoDocuments:
		// Upserted: first claim of this browser
		return nil, nil
	case mongo.IsDuplicateKeyError(err):
		return nil, ierr.WithError(err).
			WithHint("Please wait before claiming another coupon").
			WithReportableDetails(map[string]any{"browser_id": browserID}).
			Mark(ierr.ErrCooldownActive)
	default:
		return nil, ierr.WithError(err).
			WithHint("Failed to check cooldown").
			Mark(ierr.ErrDatabase)
	}
}

// Release restores the cooldown document only if it still holds our reservation
func (r *mongodbCooldownRepository) Release(ctx context.Context, browserID string, reservedAt time.Time, previous *model.Cooldown) error {
	filter := bson.M{"browser_id": browserID, "last_claim": reservedAt}

	var err error
	if previous == nil {
		_, err = r.collection.DeleteOne(ctx, filter)
	} else {
		_, err = r.collection.UpdateOne(ctx, filter, bson.M{
			"$set": bson.M{"last_claim": previous.LastClaim, "ip_address": previous.IPAddress},
			"$inc": bson.M{"claim_count": -1},
		})
	}
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to release cooldown").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// GetCooldown returns the browser's cooldown
func (r *mongodbCooldownRepository) GetCooldown(ctx context.Context, browserID string) (*model.Cooldown, error) {
	var cooldown model.Cooldown
	err := r.collection.FindOne(ctx, bson.M{"browser_id": browserID}).Decode(&cooldown)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ierr.WithError(err).
				WithHint("No claims recorded for this browser").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get cooldown").
			Mark(ierr.ErrDatabase)
	}

	return &cooldown, nil
}
