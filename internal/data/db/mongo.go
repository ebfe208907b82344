package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/noteflow/noteflow-backend/internal/platform/logger"
)

type MongoService struct {
	client *mongo.Client
	db     *mongo.Database
	log    *logger.Logger
}

func NewMongoService(ctx context.Context, uri, database string, logg *logger.Logger) (*MongoService, error) {
	serviceLog := logg.With("service", "MongoService")

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping Mongo: %w", err)
	}

	serviceLog.Info("mongo connected", "database", database)
	return &MongoService{
		client: client,
		db:     client.Database(database),
		log:    serviceLog,
	}, nil
}

func (s *MongoService) DB() *mongo.Database { return s.db }

func (s *MongoService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
