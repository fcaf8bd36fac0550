package services

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"

	"chat-backend/internal/events"
	"chat-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repositories report a missing document with mongo.ErrNoDocuments.

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// Search matches fullName or email case-insensitively; an empty query matches everyone.
	// A non-empty role restricts the match to that role.
	Search(ctx context.Context, query, role string, exclude primitive.ObjectID, page, limit int64) ([]models.User, int64, error)
	// ListVisibleTo returns the users caller.CanSee, sorted by name
	ListVisibleTo(ctx context.Context, caller *models.User) ([]models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
}

type CommunityRepository interface {
	Create(ctx context.Context, community *models.Community) error
	CreateMany(ctx context.Context, communities []models.Community) error
	// Existing reports which of communityIDs are already stored
	Existing(ctx context.Context, communityIDs []string) (map[string]bool, error)
	// List returns every community sorted by name
	List(ctx context.Context) ([]models.Community, error)
}

type ChatRepository interface {
	Create(ctx context.Context, chat *models.Chat) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error)
	FindDirect(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Chat, error)
	Rename(ctx context.Context, id primitive.ObjectID, name string) (*models.Chat, error)
	AddParticipant(ctx context.Context, id, userID primitive.ObjectID) (*models.Chat, error)
	RemoveParticipant(ctx context.Context, id, userID primitive.ObjectID) (*models.Chat, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// RecordMessage sets the latest message preview and bumps unread counters for recipients
	RecordMessage(ctx context.Context, id primitive.ObjectID, preview string, recipients []string) error
	ResetUnread(ctx context.Context, id primitive.ObjectID, userID string) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error)
	// List returns one page of a chat's messages, newest first. search is a case-insensitive
	// match on content.
	List(ctx context.Context, chatID primitive.ObjectID, search string, page, limit int64) ([]models.Message, int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByChat(ctx context.Context, chatID primitive.ObjectID) error
	// SavePoll replaces the poll only if its stored version still equals expectedVersion.
	// A lost race reports mongo.ErrNoDocuments.
	SavePoll(ctx context.Context, id primitive.ObjectID, poll *models.Poll, expectedVersion int64) error
}

// MediaStore persists uploads and returns their public URL
type MediaStore interface {
	Upload(ctx context.Context, folder string, file *multipart.FileHeader) (string, error)
}

const (
	avatarFolder     = "avatars"
	groupImageFolder = "chat_groups"
	messageFolder    = "messages"
)

// pageWindow applies paging defaults and rejects pages whose skip would overflow
func pageWindow(page, limit int64) (int64, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = models.DefaultPageSize
	}
	if limit > models.MaxPageSize {
		limit = models.MaxPageSize
	}
	if page > models.MaxPage {
		return 0, 0, fmt.Errorf("%w: page must be at most %d", ErrInvalidRequest, models.MaxPage)
	}
	return page, limit, nil
}

// publish is best effort; the event stream never fails a user request
func publish(ctx context.Context, p events.Publisher, e events.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		slog.WarnContext(ctx, "Failed to publish event", "type", e.Type, "chatID", e.ChatID, "error", err)
	}
}
