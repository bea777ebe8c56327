package database

import (
	"context"
	"fmt"

	"coupon-drop/pkg/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoDB wraps the MongoDB client and database
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// Connect establishes a connection to MongoDB and ensures indexes exist
func Connect(ctx context.Context, cfg config.MongoConfig) (*MongoDB, error) {
	clientOptions := options.Client().ApplyURI(cfg.URI)

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	mongoDB := &MongoDB{
		Client:   client,
		Database: client.Database(cfg.Database),
	}

	if err := mongoDB.CreateIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return mongoDB, nil
}

// CreateIndexes creates all necessary indexes for the application
func (m *MongoDB) CreateIndexes(ctx context.Context) error {
	couponsCollection := m.Database.Collection("coupons")
	couponIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("coupon_code_unique"),
		},
		{
			// Serves the "oldest active, unclaimed" lookup of a claim
			Keys: bson.D{
				{Key: "is_active", Value: 1},
				{Key: "is_claimed", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("coupon_claimable_index"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("coupon_created_at_index"),
		},
	}
	if _, err := couponsCollection.Indexes().CreateMany(ctx, couponIndexes); err != nil {
		return fmt.Errorf("failed to create coupon indexes: %w", err)
	}

	// A coupon can be claimed only once
	claimsCollection := m.Database.Collection("claims")
	claimIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "coupon_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("claim_coupon_unique"),
		},
		{
			Keys:    bson.D{{Key: "claimed_at", Value: -1}},
			Options: options.Index().SetName("claim_claimed_at_index"),
		},
		{
			Keys:    bson.D{{Key: "browser_id", Value: 1}},
			Options: options.Index().SetName("claim_browser_id_index"),
		},
	}
	if _, err := claimsCollection.Indexes().CreateMany(ctx, claimIndexes); err != nil {
		return fmt.Errorf("failed to create claim indexes: %w", err)
	}

	// One cooldown document per browser; cooldown reservation depends on it
	cooldownsCollection := m.Database.Collection("cooldowns")
	browserIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "browser_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("cooldown_browser_unique"),
	}
	if _, err := cooldownsCollection.Indexes().CreateOne(ctx, browserIndex); err != nil {
		return fmt.Errorf("failed to create cooldown browser index: %w", err)
	}

	return nil
}

// Ping checks that the primary is reachable
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, readpref.Primary())
}

// Disconnect closes the MongoDB connection
func (m *MongoDB) Disconnect(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
