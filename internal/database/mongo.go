// server/internal/database/mongo.go
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quickmeds-api-server/config"
)

// Connect mở kết nối tới MongoDB và trả về database handle.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client.Database(cfg.DBName), nil
}

// EnsureIndexes tạo các index hệ thống cần ngay khi khởi động.
// Index 2dsphere trên vị trí đối tác là bắt buộc cho truy vấn $nearSphere.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	partnerIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "partnerID", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "location", Value: "2dsphere"}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "active", Value: 1}},
		},
	}
	if _, err := db.Collection("delivery_partners").Indexes().CreateMany(ctx, partnerIndexes); err != nil {
		return fmt.Errorf("create partner indexes: %w", err)
	}

	orderIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "orderID", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "deliveryPartner", Value: 1}, {Key: "deliveryAssignmentStatus", Value: 1}},
		},
	}
	if _, err := db.Collection("orders").Indexes().CreateMany(ctx, orderIndexes); err != nil {
		return fmt.Errorf("create order indexes: %w", err)
	}

	prescriptionIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "prescriptionID", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "userID", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	}
	if _, err := db.Collection("prescription_orders").Indexes().CreateMany(ctx, prescriptionIndexes); err != nil {
		return fmt.Errorf("create prescription indexes: %w", err)
	}

	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := db.Collection("users").Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	return nil
}
