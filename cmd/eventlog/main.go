package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"chat-backend/internal/config"
	"chat-backend/internal/events"
	"chat-backend/pkg/logger"
)

// Tails the domain event stream and writes each event as a structured log line
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)

	if len(cfg.Kafka.Brokers) == 0 {
		slog.Error("KAFKA_BROKERS is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := events.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
	defer consumer.Close()

	slog.Info("Tailing domain events", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic, "group", cfg.Kafka.GroupID)
	err = consumer.Run(ctx, func(ctx context.Context, e events.Event) error {
		slog.InfoContext(ctx, "Domain event",
			"type", e.Type,
			"chatID", e.ChatID,
			"messageID", e.MessageID,
			"userID", e.UserID,
			"occurredAt", e.OccurredAt,
		)
		return nil
	})
	if err != nil {
		slog.Error("Event stream stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("Event log stopped")
}
