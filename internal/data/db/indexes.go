package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the app relies on. Safe to run on
// every startup; Mongo treats existing identical indexes as a no-op.
func (s *MongoService) EnsureIndexes(ctx context.Context) error {
	type spec struct {
		collection string
		models     []mongo.IndexModel
	}

	specs := []spec{
		{
			collection: "users",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
				{Keys: bson.D{{Key: "microsoft_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			},
		},
		{
			collection: "files",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "stored_file_name", Value: 1}}, Options: options.Index().SetUnique(true)},
				{Keys: bson.D{{Key: "uploaded_by", Value: 1}}},
			},
		},
		{
			collection: "jobs",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
				{Keys: bson.D{{Key: "status", Value: 1}}},
			},
		},
		{
			collection: "oauth_nonces",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
			},
		},
	}

	for _, sp := range specs {
		if _, err := s.db.Collection(sp.collection).Indexes().CreateMany(ctx, sp.models); err != nil {
			return fmt.Errorf("failed to ensure indexes on %s: %w", sp.collection, err)
		}
	}
	s.log.Info("mongo indexes ensured", "collections", len(specs))
	return nil
}
