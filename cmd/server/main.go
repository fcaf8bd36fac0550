package main

// @title           Chat Backend API
// @version         1.0
// @description     REST and websocket API for direct and group chat with media messages and polls
// @host            localhost:8080
// @BasePath        /api/v1
// @schemes         http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "chat-backend/docs"
	"chat-backend/internal/api/handlers"
	"chat-backend/internal/api/routes"
	"chat-backend/internal/auth"
	"chat-backend/internal/config"
	"chat-backend/internal/database"
	"chat-backend/internal/events"
	"chat-backend/internal/fanout"
	"chat-backend/internal/presence"
	"chat-backend/internal/repositories/mongodb"
	"chat-backend/internal/services"
	"chat-backend/internal/storage"
	"chat-backend/internal/websocket"
	"chat-backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)

	slog.Info("Starting chat server")
	ctx := context.Background()

	mongoDB, err := database.NewMongoConnection(ctx, &cfg.Mongo)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer mongoDB.Close(context.Background())

	redisClient, err := database.NewRedisConnection(&cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	redisService := services.NewRedisService(redisClient)
	// Presence left behind by a previous process is stale
	if err := redisService.ClearOnlineUsers(ctx); err != nil {
		slog.Warn("Failed to clear online users", "error", err)
	}

	media, err := storage.NewMinIOClient(ctx, &cfg.MinIO)
	if err != nil {
		slog.Error("Failed to initialize MinIO", "error", err)
		os.Exit(1)
	}

	publisher := newPublisher(cfg.Kafka)
	defer publisher.Close()

	db := mongoDB.Database()
	userRepo := mongodb.NewUserRepository(db)
	chatRepo := mongodb.NewChatRepository(db)
	messageRepo := mongodb.NewMessageRepository(db)
	communityRepo := mongodb.NewCommunityRepository(db)

	registry := presence.NewRegistry()
	hub := websocket.NewHub(registry, redisService)
	go hub.Run()

	dispatcher := fanout.NewDispatcher(registry, hub)
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpirationTime)

	userService := services.NewUserService(userRepo, media, tokens)
	chatService := services.NewChatService(chatRepo, messageRepo, userRepo, media, publisher)
	messageService := services.NewMessageService(messageRepo, chatRepo, media, dispatcher, publisher)
	pollService := services.NewPollService(messageRepo, chatRepo, dispatcher, publisher)
	typingService := services.NewTypingService(chatRepo, dispatcher)
	communityService := services.NewCommunityService(communityRepo, userRepo)

	handlers.RegisterRealtimeHandlers(hub, typingService)

	router := routes.NewRouter(routes.Dependencies{
		Hub:         hub,
		Tokens:      tokens,
		Users:       userService,
		Chats:       chatService,
		Messages:    messageService,
		Polls:       pollService,
		Communities: communityService,
		Online:      redisService,
		Revocations: redisService,
		Limiter:     redisService,
		Health: map[string]handlers.Pinger{
			"mongo": mongoDB,
			"redis": redisClient,
		},
		Dispatcher:     dispatcher,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}

// newPublisher streams domain events to Kafka when brokers are configured
func newPublisher(cfg config.KafkaConfig) events.Publisher {
	if len(cfg.Brokers) == 0 {
		slog.Info("Kafka brokers not configured, domain events disabled")
		return events.NopPublisher{}
	}

	publisher, err := events.NewKafkaPublisher(cfg.Brokers, cfg.Topic)
	if err != nil {
		slog.Warn("Kafka unavailable, domain events disabled", "brokers", cfg.Brokers, "error", err)
		return events.NopPublisher{}
	}
	slog.Info("Publishing domain events", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return publisher
}
