package main

import (
	"log"
	"time"

	"solar-scm-api-server/config"
	"solar-scm-api-server/internal/api/routes"
	"solar-scm-api-server/internal/auth"
	"solar-scm-api-server/internal/database"
	"solar-scm-api-server/internal/logger"
	"solar-scm-api-server/internal/report"
	"solar-scm-api-server/internal/s3"
	"solar-scm-api-server/internal/socket"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	zapLogger, err := logger.Init(cfg.Log.Level, cfg.Log.Environment)
	if err != nil {
		log.Fatalf("Could not initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := database.Connect(cfg.Mongo)
	if err != nil {
		zapLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	if err := database.SeedSuperAdmin(db, cfg.Seed, zapLogger); err != nil {
		zapLogger.Fatal("Failed to seed super admin", zap.Error(err))
	}

	expiration, err := time.ParseDuration(cfg.JWT.Expiration)
	if err != nil {
		zapLogger.Fatal("Invalid JWT expiration", zap.String("value", cfg.JWT.Expiration), zap.Error(err))
	}
	authSvc := auth.NewService(cfg.JWT.Secret, expiration)

	s3Uploader, err := s3.NewUploader(cfg.S3)
	if err != nil {
		zapLogger.Fatal("Failed to initialize S3 uploader", zap.Error(err))
	}

	wsHub := socket.NewHub(zapLogger)
	reportClient := report.NewClient(cfg.PDF.GotenbergURL)

	router := routes.SetupRouter(cfg, db, authSvc, s3Uploader, wsHub, reportClient, zapLogger)

	zapLogger.Info("Starting API server", zap.String("port", cfg.Server.Port))
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		zapLogger.Fatal("Failed to run server", zap.Error(err))
	}
}
