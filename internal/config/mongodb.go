package config

import (
	"context"
	"time"

	"github.com/knadh/koanf/v2"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
)

// NewMongo connects to the profile database and verifies the server is
// reachable before the process starts serving.
func NewMongo(config *koanf.Koanf, log *zap.Logger) *mongo.Database {
	opts := options.Client().
		ApplyURI(config.String("MONGO_URL")).
		SetMaxPoolSize(20).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5 * time.Minute)

	client, err := mongo.Connect(opts)
	if err != nil {
		log.Fatal("failed to create mongo client", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = client.Ping(ctx, readpref.Primary())
	if err != nil {
		log.Fatal("failed to ping mongo database", zap.Error(err))
	}

	databaseName := config.String("MONGO_DATABASE")
	if databaseName == "" {
		databaseName = "photokeep"
	}

	return client.Database(databaseName)
}
