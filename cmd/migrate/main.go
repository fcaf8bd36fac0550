package main

import (
	"context"
	"log/slog"
	"os"

	"chat-backend/internal/config"
	"chat-backend/internal/database"
	"chat-backend/pkg/logger"
)

// Creates the MongoDB indexes without starting the server
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)

	slog.Info("Starting database migration...")

	ctx := context.Background()
	// Connecting applies the indexes
	mongoDB, err := database.NewMongoConnection(ctx, &cfg.Mongo)
	if err != nil {
		slog.Error("Migration failed", "error", err)
		os.Exit(1)
	}
	defer mongoDB.Close(ctx)

	slog.Info("Database migration completed successfully", "database", cfg.Mongo.Database)
}
