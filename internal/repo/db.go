// Package repo implements the data persistence layer for domain entities,
// backed by the official MongoDB driver. This file contains connection
// bootstrapping and startup index creation.
//
// The client is created once at process start, shared by all concurrent
// requests, and explicitly disconnected on shutdown. Per-request state lives
// only in the store.
package repo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/farmlink/go-market-backend/internal/config"
)

// Collection names used by this service.
const (
	CropsCollection = "crops"
	UsersCollection = "users"
)

// Connect establishes the MongoDB client, verifies connectivity with a ping,
// and returns the client together with the configured database handle.
//
// The caller owns the client and must call Disconnect on shutdown.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return client, client.Database(cfg.Database), nil
}

// EnsureIndexes creates the query-supporting indexes. None of them are
// unique: the one-interest-per-user rule is enforced at append time, not by
// the store (see PushInterest).
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CropsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner.ownerEmail", Value: 1}}},
		{Keys: bson.D{{Key: "interests.userEmail", Value: 1}}},
	})
	if err != nil {
		return err
	}
	_, err = db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
	})
	return err
}
