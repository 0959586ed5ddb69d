package database

import (
	"context"
	"time"

	"solar-scm-api-server/config"
	"solar-scm-api-server/internal/auth"
	"solar-scm-api-server/internal/models"
	"solar-scm-api-server/internal/stock"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SeedSuperAdmin creates the initial super-admin account on first boot.
// Email and password come from configuration so no default credential ships
// in the binary.
func SeedSuperAdmin(db *mongo.Database, cfg config.SeedConfig, log *zap.Logger) error {
	userCollection := db.Collection("users")

	email := cfg.SuperAdminEmail
	if email == "" {
		email = "superadmin@example.com"
	}

	count, err := userCollection.CountDocuments(context.Background(), bson.M{"email": email})
	if err != nil {
		return err
	}

	if count > 0 {
		log.Info("Super admin already exists. Seeding skipped.")
		return nil
	}

	log.Info("Super admin not found. Seeding...", zap.String("email", email))
	password := cfg.SuperAdminPassword
	if password == "" {
		password = "changeme"
	}
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	superAdmin := models.User{
		UserID:    stock.RoleSuperAdmin,
		Email:     email,
		Name:      "Super Admin",
		Password:  hashedPassword,
		Role:      stock.RoleSuperAdmin,
		Status:    "ACTIVE",
		CreatedAt: time.Now(),
	}

	_, err = userCollection.InsertOne(context.Background(), superAdmin)
	if err != nil {
		return err
	}

	log.Info("Super admin seeded successfully.")
	return nil
}
