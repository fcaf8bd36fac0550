package services

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"chat-backend/internal/events"
	"chat-backend/internal/fanout"
	"chat-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessageService struct {
	messages   MessageRepository
	chats      ChatRepository
	media      MediaStore
	dispatcher *fanout.Dispatcher
	publisher  events.Publisher
}

func NewMessageService(messages MessageRepository, chats ChatRepository, media MediaStore, dispatcher *fanout.Dispatcher, publisher events.Publisher) *MessageService {
	return &MessageService{
		messages:   messages,
		chats:      chats,
		media:      media,
		dispatcher: dispatcher,
		publisher:  publisher,
	}
}

// SendMessageInput is a text or media message. MessageType may be left empty and is
// inferred from the upload.
type SendMessageInput struct {
	ChatID      string
	SenderID    string
	Content     string
	MessageType models.MessageType
	ReplyTo     string
	File        *multipart.FileHeader
}

// Send stores the message, updates the chat summary and pushes it to online recipients.
// Direct chats emit newMessage to the receiver; group chats emit newGroupMessage to
// every member but the sender.
func (s *MessageService) Send(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	in.Content = strings.TrimSpace(in.Content)
	if in.MessageType == "" {
		in.MessageType = models.MessageTypeText
		if in.File != nil {
			in.MessageType = models.MediaTypeFromContentType(in.File.Header.Get("Content-Type"))
		}
	}

	switch in.MessageType {
	case models.MessageTypeText:
		if in.Content == "" {
			return nil, fmt.Errorf("%w: content is required", ErrInvalidRequest)
		}
	case models.MessageTypeImage, models.MessageTypeVideo:
		if in.File == nil {
			return nil, fmt.Errorf("%w: %s message requires a file", ErrInvalidRequest, in.MessageType)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported message type %q", ErrInvalidRequest, in.MessageType)
	}

	chat, senderID, err := s.loadChatFor(ctx, in.ChatID, in.SenderID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ChatID:      chat.ID,
		SenderID:    senderID,
		Content:     in.Content,
		MessageType: in.MessageType,
	}

	if in.ReplyTo != "" {
		replyID, err := parseID("reply", in.ReplyTo)
		if err != nil {
			return nil, err
		}
		parent, err := s.messages.FindByID(ctx, replyID)
		if err != nil {
			return nil, notFoundOr(err, "reply target")
		}
		if parent.ChatID != chat.ID {
			return nil, fmt.Errorf("%w: reply target belongs to another chat", ErrInvalidRequest)
		}
		msg.ReplyTo = &replyID
	}

	if in.File != nil && in.MessageType != models.MessageTypeText {
		url, err := s.media.Upload(ctx, messageFolder, in.File)
		if err != nil {
			return nil, fmt.Errorf("failed to upload media: %w", err)
		}
		msg.Media = url
	}

	if err := s.store(ctx, chat, msg); err != nil {
		return nil, err
	}

	event := models.EventNewMessage
	if chat.IsGroup {
		event = models.EventNewGroupMessage
	}
	s.dispatcher.ToChat(ctx, event, msg, chat, in.SenderID)

	return msg, nil
}

// SendPoll creates a poll message with an empty ledger
func (s *MessageService) SendPoll(ctx context.Context, chatID, senderID string, req models.CreatePollRequest) (*models.Message, error) {
	poll, err := models.NewPoll(req.Question, req.Options)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	chat, senderOID, err := s.loadChatFor(ctx, chatID, senderID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ChatID:      chat.ID,
		SenderID:    senderOID,
		MessageType: models.MessageTypePoll,
		Poll:        poll,
	}
	if err := s.store(ctx, chat, msg); err != nil {
		return nil, err
	}

	event := models.EventNewMessage
	if chat.IsGroup {
		event = models.EventNewGroupMessage
	}
	s.dispatcher.ToChat(ctx, event, msg, chat, senderID)

	return msg, nil
}

// List pages through a chat's history and clears the caller's unread counter
func (s *MessageService) List(ctx context.Context, chatID, userID string, q models.ListMessagesQuery) (*models.PaginatedMessagesResponse, error) {
	chat, _, err := s.loadChatFor(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	if q.Page, q.Limit, err = pageWindow(q.Page, q.Limit); err != nil {
		return nil, err
	}

	messages, total, err := s.messages.List(ctx, chat.ID, strings.TrimSpace(q.Search), q.Page, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	if chat.UnreadMessages[userID] > 0 {
		if err := s.chats.ResetUnread(ctx, chat.ID, userID); err != nil {
			slog.WarnContext(ctx, "Failed to reset unread counter", "chatID", chatID, "userID", userID, "error", err)
		}
	}

	if messages == nil {
		messages = []models.Message{}
	}
	return &models.PaginatedMessagesResponse{
		Messages:      messages,
		TotalMessages: total,
		CurrentPage:   q.Page,
		TotalPages:    models.TotalPages(total, q.Limit),
	}, nil
}

// Delete removes a message; only its sender may do so
func (s *MessageService) Delete(ctx context.Context, messageID, userID string) error {
	msgID, err := parseID("message", messageID)
	if err != nil {
		return err
	}
	msg, err := s.messages.FindByID(ctx, msgID)
	if err != nil {
		return notFoundOr(err, "message")
	}
	if msg.SenderID.Hex() != userID {
		return fmt.Errorf("%w: only the sender can delete a message", ErrForbidden)
	}

	if err := s.messages.Delete(ctx, msgID); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	chat, err := s.chats.FindByID(ctx, msg.ChatID)
	if err != nil {
		// Message is gone either way; nobody left to notify
		slog.WarnContext(ctx, "Chat missing for deleted message", "messageID", messageID, "error", err)
		return nil
	}
	s.dispatcher.ToChat(ctx, models.EventMessageDeleted, models.MessageDeletedPayload{
		MessageID: messageID,
		ChatID:    chat.ID.Hex(),
	}, chat, userID)

	publish(ctx, s.publisher, events.Event{
		Type:      events.MessageDeleted,
		ChatID:    chat.ID.Hex(),
		MessageID: messageID,
		UserID:    userID,
	})
	return nil
}

// MarkRead clears the caller's unread counter for a chat
func (s *MessageService) MarkRead(ctx context.Context, chatID, userID string) error {
	chat, _, err := s.loadChatFor(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if err := s.chats.ResetUnread(ctx, chat.ID, userID); err != nil {
		return fmt.Errorf("failed to mark messages as read: %w", err)
	}
	return nil
}

// loadChatFor resolves the chat and checks that userID is a member
func (s *MessageService) loadChatFor(ctx context.Context, chatID, userID string) (*models.Chat, primitive.ObjectID, error) {
	chatOID, err := parseID("chat", chatID)
	if err != nil {
		return nil, primitive.NilObjectID, err
	}
	userOID, err := parseID("user", userID)
	if err != nil {
		return nil, primitive.NilObjectID, err
	}

	chat, err := s.chats.FindByID(ctx, chatOID)
	if err != nil {
		return nil, primitive.NilObjectID, notFoundOr(err, "chat")
	}
	if !chat.HasParticipant(userID) {
		return nil, primitive.NilObjectID, fmt.Errorf("%w: not a participant of this chat", ErrForbidden)
	}
	return chat, userOID, nil
}

func (s *MessageService) store(ctx context.Context, chat *models.Chat, msg *models.Message) error {
	now := time.Now().UTC()
	msg.CreatedAt = now
	msg.UpdatedAt = now

	if err := s.messages.Create(ctx, msg); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	sender := msg.SenderID.Hex()
	recipients := make([]string, 0, len(chat.Participants))
	for _, id := range chat.ParticipantIDs() {
		if id != sender {
			recipients = append(recipients, id)
		}
	}
	if err := s.chats.RecordMessage(ctx, chat.ID, msg.Preview(), recipients); err != nil {
		slog.WarnContext(ctx, "Failed to update chat summary", "chatID", chat.ID.Hex(), "error", err)
	}

	slog.InfoContext(ctx, "Message sent",
		"messageID", msg.ID.Hex(), "chatID", chat.ID.Hex(), "senderID", sender, "type", msg.MessageType, "group", chat.IsGroup)

	publish(ctx, s.publisher, events.Event{
		Type:      events.MessageCreated,
		ChatID:    chat.ID.Hex(),
		MessageID: msg.ID.Hex(),
		UserID:    sender,
		Data:      map[string]string{"messageType": string(msg.MessageType)},
	})
	return nil
}
