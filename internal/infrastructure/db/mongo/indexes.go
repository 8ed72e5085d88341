package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// collectionIndexes lists every index the account collections rely on:
// uniqueness of identities and tokens, and the TTL indexes that reap expired
// refresh tokens and reset codes.
func collectionIndexes() map[string][]mongo.IndexModel {
	ttl := func(name string) *options.IndexOptions {
		return options.Index().SetName(name).SetExpireAfterSeconds(0)
	}
	unique := func(name string) *options.IndexOptions {
		return options.Index().SetName(name).SetUnique(true)
	}

	return map[string][]mongo.IndexModel{
		collectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique("email_unique")},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique("username_unique")},
		},
		collectionRefreshTokens: {
			{Keys: bson.D{{Key: "token_hash", Value: 1}}, Options: unique("token_hash_unique")},
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetName("user_id")},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: ttl("expires_at_ttl")},
		},
		collectionResetCodes: {
			{Keys: latestCodeSort(), Options: options.Index().SetName("email_latest")},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: ttl("expires_at_ttl")},
		},
	}
}

// EnsureIndexes provisions the indexes once at startup. Creating an index
// that already exists with the same definition is a no-op, so this is safe
// to run on every boot.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, coll := range []string{collectionUsers, collectionRefreshTokens, collectionResetCodes} {
		models := collectionIndexes()[coll]
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", coll, err)
		}
	}
	return nil
}
