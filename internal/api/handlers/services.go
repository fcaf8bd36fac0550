package handlers

import (
	"context"
	"mime/multipart"
	"time"

	"chat-backend/internal/fanout"
	"chat-backend/internal/models"
	"chat-backend/internal/services"
)

// The handlers depend on these narrow views of the services so they can be tested with fakes.

type UserService interface {
	Register(ctx context.Context, req *models.SignupRequest) (*models.UserResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	GetProfile(ctx context.Context, userID string) (*models.UserResponse, error)
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateUserRequest) (*models.UserResponse, error)
	UpdateAvatar(ctx context.Context, userID string, file *multipart.FileHeader) (*models.UserResponse, error)
	List(ctx context.Context, callerID, search, role string, page, limit int64) (*models.PaginatedUsersResponse, error)
	ListForChat(ctx context.Context, callerID string) ([]models.UserResponse, error)
}

type CommunityService interface {
	Create(ctx context.Context, actorID string, req *models.CreateCommunityRequest) (*models.Community, error)
	BulkCreate(ctx context.Context, actorID string, reqs []models.CreateCommunityRequest) (*models.BulkCommunitiesResponse, error)
	List(ctx context.Context) ([]models.Community, error)
}

type ChatService interface {
	Access(ctx context.Context, userID, receiverID string) (*models.Chat, error)
	List(ctx context.Context, userID string) ([]models.Chat, error)
	Get(ctx context.Context, chatID, userID string) (*models.Chat, error)
	CreateGroup(ctx context.Context, in services.CreateGroupInput) (*models.Chat, error)
	Rename(ctx context.Context, actorID, chatID, name string) (*models.Chat, error)
	AddMember(ctx context.Context, actorID, chatID, userID string) (*models.Chat, error)
	RemoveMember(ctx context.Context, actorID, chatID, userID string) (*models.Chat, error)
	Delete(ctx context.Context, actorID, chatID string) error
}

type MessageService interface {
	Send(ctx context.Context, in services.SendMessageInput) (*models.Message, error)
	SendPoll(ctx context.Context, chatID, senderID string, req models.CreatePollRequest) (*models.Message, error)
	List(ctx context.Context, chatID, userID string, q models.ListMessagesQuery) (*models.PaginatedMessagesResponse, error)
	Delete(ctx context.Context, messageID, userID string) error
	MarkRead(ctx context.Context, chatID, userID string) error
}

type PollVoter interface {
	CastVote(ctx context.Context, messageID, voterID string, optionIndex int) (*models.Poll, error)
}

type TypingNotifier interface {
	Notify(ctx context.Context, event models.EventType, payload models.TypingPayload) (fanout.Result, error)
}

// OnlineUsers lists users with a live connection
type OnlineUsers interface {
	GetOnlineUsers(ctx context.Context) ([]string, error)
}

// TokenRevoker invalidates a session token before it expires
type TokenRevoker interface {
	RevokeToken(ctx context.Context, token string, expiresAt time.Time) error
}
