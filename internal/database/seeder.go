// server/internal/database/seeder.go
package database

import (
	"context"
	"log"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"quickmeds-api-server/internal/auth"
	"quickmeds-api-server/internal/models"
)

// SeedAdmin tạo tài khoản admin mặc định nếu chưa có.
func SeedAdmin(db *mongo.Database) error {
	userCollection := db.Collection("users")
	adminEmail := "admin@quickmeds.local"

	// Kiểm tra xem admin đã tồn tại chưa
	count, err := userCollection.CountDocuments(context.Background(), bson.M{"email": adminEmail})
	if err != nil {
		return err
	}

	if count > 0 {
		log.Println("Admin already exists. Seeding skipped.")
		return nil
	}

	log.Println("Admin not found. Seeding...")
	hashedPassword, err := auth.HashPassword("changeme-admin")
	if err != nil {
		return err
	}

	admin := models.User{
		UserID:   "U-" + uuid.New().String()[:8],
		Email:    adminEmail,
		Name:     "Admin",
		Password: hashedPassword,
		Role:     models.RoleAdmin,
		Status:   "active",
	}

	_, err = userCollection.InsertOne(context.Background(), admin)
	if err != nil {
		return err
	}

	log.Println("Admin seeded successfully.")
	return nil
}
