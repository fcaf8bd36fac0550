package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"chat-backend/internal/events"
	"chat-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// minGroupMembers counts the members picked by the creator, not the creator
const minGroupMembers = 2

type ChatService struct {
	chats     ChatRepository
	messages  MessageRepository
	users     UserRepository
	media     MediaStore
	publisher events.Publisher
}

func NewChatService(chats ChatRepository, messages MessageRepository, users UserRepository, media MediaStore, publisher events.Publisher) *ChatService {
	return &ChatService{
		chats:     chats,
		messages:  messages,
		users:     users,
		media:     media,
		publisher: publisher,
	}
}

// Access returns the direct chat between userID and receiverID, creating it on first use
func (s *ChatService) Access(ctx context.Context, userID, receiverID string) (*models.Chat, error) {
	userOID, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	receiverOID, err := parseID("receiver", receiverID)
	if err != nil {
		return nil, err
	}
	if userOID == receiverOID {
		return nil, fmt.Errorf("%w: cannot open a chat with yourself", ErrInvalidRequest)
	}

	if _, err := s.users.FindByID(ctx, receiverOID); err != nil {
		return nil, notFoundOr(err, "receiver")
	}

	chat, err := s.chats.FindDirect(ctx, userOID, receiverOID)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to look up chat: %w", err)
	}

	chat = newChat(false, []primitive.ObjectID{userOID, receiverOID})
	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}

	slog.InfoContext(ctx, "Direct chat created", "chatID", chat.ID.Hex(), "userID", userID, "receiverID", receiverID)
	publish(ctx, s.publisher, events.Event{Type: events.ChatCreated, ChatID: chat.ID.Hex(), UserID: userID})
	return chat, nil
}

// List returns the user's chats, most recently active first
func (s *ChatService) List(ctx context.Context, userID string) ([]models.Chat, error) {
	userOID, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	chats, err := s.chats.ListForUser(ctx, userOID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	if chats == nil {
		chats = []models.Chat{}
	}
	return chats, nil
}

// Get returns one chat the user belongs to
func (s *ChatService) Get(ctx context.Context, chatID, userID string) (*models.Chat, error) {
	chat, err := s.load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, fmt.Errorf("%w: not a participant of this chat", ErrForbidden)
	}
	return chat, nil
}

type CreateGroupInput struct {
	AdminID string
	Name    string
	UserIDs []string
	Image   *multipart.FileHeader
}

// CreateGroup creates a group chat of the picked users plus the admin
func (s *ChatService) CreateGroup(ctx context.Context, in CreateGroupInput) (*models.Chat, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrInvalidRequest)
	}
	adminOID, err := parseID("admin", in.AdminID)
	if err != nil {
		return nil, err
	}

	seen := map[primitive.ObjectID]bool{adminOID: true}
	participants := make([]primitive.ObjectID, 0, len(in.UserIDs)+1)
	for _, id := range in.UserIDs {
		oid, err := parseID("user", id)
		if err != nil {
			return nil, err
		}
		if seen[oid] {
			continue
		}
		seen[oid] = true
		participants = append(participants, oid)
	}
	if len(participants) < minGroupMembers {
		return nil, fmt.Errorf("%w: a group needs at least %d other members", ErrInvalidRequest, minGroupMembers)
	}
	for _, oid := range participants {
		if _, err := s.users.FindByID(ctx, oid); err != nil {
			return nil, notFoundOr(err, "user "+oid.Hex())
		}
	}
	participants = append(participants, adminOID)

	chat := newChat(true, participants)
	chat.GroupName = name
	chat.GroupAdmin = &adminOID

	if in.Image != nil {
		url, err := s.media.Upload(ctx, groupImageFolder, in.Image)
		if err != nil {
			return nil, fmt.Errorf("failed to upload group image: %w", err)
		}
		chat.GroupImage = url
	}

	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	slog.InfoContext(ctx, "Group chat created", "chatID", chat.ID.Hex(), "adminID", in.AdminID, "members", len(participants))
	publish(ctx, s.publisher, events.Event{Type: events.ChatCreated, ChatID: chat.ID.Hex(), UserID: in.AdminID})
	return chat, nil
}

// Rename changes a group's name; any member may rename
func (s *ChatService) Rename(ctx context.Context, actorID, chatID, name string) (*models.Chat, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrInvalidRequest)
	}
	chat, err := s.loadGroupFor(ctx, chatID, actorID)
	if err != nil {
		return nil, err
	}
	updated, err := s.chats.Rename(ctx, chat.ID, name)
	if err != nil {
		return nil, notFoundOr(err, "chat")
	}
	return updated, nil
}

// AddMember adds a user to a group; adding an existing member is a no-op
func (s *ChatService) AddMember(ctx context.Context, actorID, chatID, userID string) (*models.Chat, error) {
	chat, err := s.loadGroupFor(ctx, chatID, actorID)
	if err != nil {
		return nil, err
	}
	userOID, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, userOID); err != nil {
		return nil, notFoundOr(err, "user")
	}

	updated, err := s.chats.AddParticipant(ctx, chat.ID, userOID)
	if err != nil {
		return nil, notFoundOr(err, "chat")
	}
	slog.InfoContext(ctx, "Group member added", "chatID", chatID, "userID", userID, "by", actorID)
	return updated, nil
}

// RemoveMember removes a user from a group. The admin may remove anyone but themselves;
// members may only remove themselves. An admin leaves by deleting the group.
func (s *ChatService) RemoveMember(ctx context.Context, actorID, chatID, userID string) (*models.Chat, error) {
	chat, err := s.loadGroupFor(ctx, chatID, actorID)
	if err != nil {
		return nil, err
	}
	userOID, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	userID = userOID.Hex()
	if isAdmin(chat, userID) {
		return nil, fmt.Errorf("%w: the group admin cannot be removed, delete the group instead", ErrInvalidRequest)
	}
	if actorID != userID && !isAdmin(chat, actorID) {
		return nil, fmt.Errorf("%w: only the group admin can remove other members", ErrForbidden)
	}

	updated, err := s.chats.RemoveParticipant(ctx, chat.ID, userOID)
	if err != nil {
		return nil, notFoundOr(err, "chat")
	}
	slog.InfoContext(ctx, "Group member removed", "chatID", chatID, "userID", userID, "by", actorID)
	return updated, nil
}

// Delete removes a chat and its history. Group chats can only be deleted by their admin.
func (s *ChatService) Delete(ctx context.Context, actorID, chatID string) error {
	chat, err := s.Get(ctx, chatID, actorID)
	if err != nil {
		return err
	}
	if chat.IsGroup && !isAdmin(chat, actorID) {
		return fmt.Errorf("%w: only the group admin can delete the group", ErrForbidden)
	}

	if err := s.messages.DeleteByChat(ctx, chat.ID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if err := s.chats.Delete(ctx, chat.ID); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}

	slog.InfoContext(ctx, "Chat deleted", "chatID", chatID, "by", actorID)
	publish(ctx, s.publisher, events.Event{Type: events.ChatDeleted, ChatID: chatID, UserID: actorID})
	return nil
}

func (s *ChatService) load(ctx context.Context, chatID string) (*models.Chat, error) {
	chatOID, err := parseID("chat", chatID)
	if err != nil {
		return nil, err
	}
	chat, err := s.chats.FindByID(ctx, chatOID)
	if err != nil {
		return nil, notFoundOr(err, "chat")
	}
	return chat, nil
}

func (s *ChatService) loadGroupFor(ctx context.Context, chatID, actorID string) (*models.Chat, error) {
	chat, err := s.Get(ctx, chatID, actorID)
	if err != nil {
		return nil, err
	}
	if !chat.IsGroup {
		return nil, fmt.Errorf("%w: not a group chat", ErrInvalidRequest)
	}
	return chat, nil
}

func isAdmin(chat *models.Chat, userID string) bool {
	return chat.GroupAdmin != nil && chat.GroupAdmin.Hex() == userID
}

func newChat(group bool, participants []primitive.ObjectID) *models.Chat {
	now := time.Now().UTC()
	return &models.Chat{
		IsGroup:        group,
		Participants:   participants,
		UnreadMessages: map[string]int{},
		Status:         models.ChatStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
