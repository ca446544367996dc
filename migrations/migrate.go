package main

import (
	"context"
	"log"
	"os"
	"time"

	"portfolio/src/config"
	"portfolio/src/database"
	"portfolio/src/utils"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("./settings", os.Getenv("ENV"))
	if err != nil {
		log.Fatalf("Error loading config for environment: %v", err)
	}
	logger := utils.NewLoggerFromLevel(cfg.Logging.Level, false, "")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := database.ResolveConnectionString(ctx, cfg); err != nil {
		logger.Fatalf("Failed to resolve database secret: %v", err)
	}

	db, err := database.SetupGorm(cfg)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatalf("Failed to get SQL DB from GORM DB: %v", err)
	}
	defer sqlDB.Close()

	if err := database.Migrate(ctx, sqlDB, logger); err != nil {
		logger.Fatalf("Failed to apply migrations: %v", err)
	}

	logger.Info("Database migration completed successfully")
}
