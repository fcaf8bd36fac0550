package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"chat-backend/internal/auth"
	"chat-backend/internal/config"
	"chat-backend/internal/database"
	"chat-backend/internal/events"
	"chat-backend/internal/fanout"
	"chat-backend/internal/models"
	"chat-backend/internal/presence"
	"chat-backend/internal/repositories/mongodb"
	"chat-backend/internal/services"
	"chat-backend/pkg/logger"
)

const seedPassword = "123456"

// offline drops pushes; nobody is connected while seeding
type offline struct{}

func (offline) Push(string, models.EventType, any) error { return nil }

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)

	slog.Info("Starting database seeding...")

	ctx := context.Background()
	mongoDB, err := database.NewMongoConnection(ctx, &cfg.Mongo)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer mongoDB.Close(ctx)

	db := mongoDB.Database()
	userRepo := mongodb.NewUserRepository(db)
	chatRepo := mongodb.NewChatRepository(db)
	messageRepo := mongodb.NewMessageRepository(db)

	dispatcher := fanout.NewDispatcher(presence.NewRegistry(), offline{})
	publisher := events.NopPublisher{}
	userService := services.NewUserService(userRepo, nil, auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpirationTime))
	chatService := services.NewChatService(chatRepo, messageRepo, userRepo, nil, publisher)
	messageService := services.NewMessageService(messageRepo, chatRepo, nil, dispatcher, publisher)
	pollService := services.NewPollService(messageRepo, chatRepo, dispatcher, publisher)
	communityService := services.NewCommunityService(mongodb.NewCommunityRepository(db), userRepo)

	slog.Info("Creating initial users...")
	// Root owns Admin, Admin owns everyone else
	seedUsers := []struct {
		req    models.SignupRequest
		parent string
	}{
		{models.SignupRequest{FullName: "Root", Email: "root@notify.com", Password: seedPassword, Role: models.RoleSuperAdmin}, ""},
		{models.SignupRequest{FullName: "Admin", Email: "admin@notify.com", Password: seedPassword, Role: models.RoleAdmin}, "Root"},
		{models.SignupRequest{FullName: "Alice", Email: "alice@notify.com", Password: seedPassword, Role: models.RoleUser}, "Admin"},
		{models.SignupRequest{FullName: "Bob", Email: "bob@notify.com", Password: seedPassword, Role: models.RoleUser}, "Admin"},
		{models.SignupRequest{FullName: "Charlie", Email: "charlie@notify.com", Password: seedPassword, Role: models.RoleUser}, "Admin"},
	}

	ids := make(map[string]string, len(seedUsers))
	fresh := true
	for _, seed := range seedUsers {
		req := seed.req
		switch req.Role {
		case models.RoleAdmin:
			req.SuperAdmin = ids[seed.parent]
		case models.RoleUser:
			req.Admin = ids[seed.parent]
		}
		user, err := userService.Register(ctx, &req)
		switch {
		case errors.Is(err, services.ErrUserAlreadyExists):
			fresh = false
			existing, err := userRepo.FindByEmail(ctx, req.Email)
			if err != nil {
				slog.Error("Failed to load existing user", "email", req.Email, "error", err)
				os.Exit(1)
			}
			ids[req.FullName] = existing.ID.Hex()
			slog.Info("User already exists", "email", req.Email)
		case err != nil:
			slog.Error("Failed to create user", "email", req.Email, "error", err)
			os.Exit(1)
		default:
			ids[req.FullName] = user.ID
			slog.Info("Created user", "email", req.Email, "id", user.ID)
		}
	}

	if !fresh {
		slog.Info("Database already seeded, skipping chats")
		return
	}

	result, err := communityService.BulkCreate(ctx, ids["Root"], []models.CreateCommunityRequest{
		{CommunityID: "NOTIFY", Name: "Notify", Description: "Everyone at Notify"},
		{CommunityID: "NOTIFY-UAT", Name: "Notify UAT"},
	})
	if err != nil {
		slog.Warn("Failed to seed communities", "error", err)
	} else {
		slog.Info("Sample communities created", "created", len(result.Created), "skipped", len(result.Skipped))
	}

	if err := seedChats(ctx, ids, chatService, messageService, pollService); err != nil {
		slog.Warn("Failed to seed chats", "error", err)
	} else {
		slog.Info("Sample chats created successfully")
	}

	slog.Info("Database seeding completed successfully!")
}

func seedChats(ctx context.Context, ids map[string]string, chats *services.ChatService, messages *services.MessageService, polls *services.PollService) error {
	admin, alice, bob, charlie := ids["Admin"], ids["Alice"], ids["Bob"], ids["Charlie"]

	direct, err := chats.Access(ctx, admin, alice)
	if err != nil {
		return err
	}
	directID := direct.ID.Hex()
	for _, m := range []struct{ sender, text string }{
		{admin, "Hey Alice, welcome to the team!"},
		{alice, "Thank you! I'm excited to get started."},
	} {
		if _, err := messages.Send(ctx, services.SendMessageInput{ChatID: directID, SenderID: m.sender, Content: m.text}); err != nil {
			return err
		}
	}

	group, err := chats.CreateGroup(ctx, services.CreateGroupInput{
		AdminID: admin,
		Name:    "general",
		UserIDs: []string{alice, bob, charlie},
	})
	if err != nil {
		return err
	}
	groupID := group.ID.Hex()
	for _, m := range []struct{ sender, text string }{
		{admin, "Welcome to the general chat!"},
		{alice, "Hi everyone! Excited to be here."},
		{bob, "Hello! Looking forward to working together."},
	} {
		if _, err := messages.Send(ctx, services.SendMessageInput{ChatID: groupID, SenderID: m.sender, Content: m.text}); err != nil {
			return err
		}
	}

	poll, err := messages.SendPoll(ctx, groupID, admin, models.CreatePollRequest{
		Question: "Where should we go for the team lunch?",
		Options:  []string{"Pizza", "Sushi", "Tacos"},
	})
	if err != nil {
		return err
	}
	for voter, option := range map[string]int{alice: 1, bob: 1, charlie: 2} {
		if _, err := polls.CastVote(ctx, poll.ID.Hex(), voter, option); err != nil {
			return err
		}
	}
	return nil
}
