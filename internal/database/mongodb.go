package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo opens a connection and returns the client. Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	clientOpts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the unique indexes the application relies on. The
// indexes are the authoritative uniqueness guard; application pre-checks are
// best-effort only.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	users := db.Collection("users")
	userIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "nationalId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "accountNumber", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
	}
	if _, err := users.Indexes().CreateMany(ctx, userIdx); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}

	// one record per (user, course, academicYear, term)
	records := db.Collection("studentCourseRecords")
	recordIdx := mongo.IndexModel{
		Keys: bson.D{
			{Key: "user", Value: 1},
			{Key: "course", Value: 1},
			{Key: "academicYear", Value: 1},
			{Key: "term", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	if _, err := records.Indexes().CreateOne(ctx, recordIdx); err != nil {
		return fmt.Errorf("studentCourseRecords index: %w", err)
	}
	return nil
}
