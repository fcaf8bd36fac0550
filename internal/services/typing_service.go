package services

import (
	"context"
	"fmt"

	"chat-backend/internal/fanout"
	"chat-backend/internal/models"
)

// TypingService relays typing indicators. Nothing is stored; a client that never sends
// stopTyping leaves its peers showing the indicator.
type TypingService struct {
	chats      ChatRepository
	dispatcher *fanout.Dispatcher
}

func NewTypingService(chats ChatRepository, dispatcher *fanout.Dispatcher) *TypingService {
	return &TypingService{chats: chats, dispatcher: dispatcher}
}

// Notify forwards typing or stopTyping to every online participant except the sender
func (s *TypingService) Notify(ctx context.Context, event models.EventType, payload models.TypingPayload) (fanout.Result, error) {
	if event != models.EventTyping && event != models.EventStopTyping {
		return fanout.Result{}, fmt.Errorf("%w: %s is not a typing event", ErrInvalidRequest, event)
	}
	if payload.SenderID == "" {
		return fanout.Result{}, fmt.Errorf("%w: senderId is required", ErrInvalidRequest)
	}

	chatID, err := parseID("chat", payload.ChatID)
	if err != nil {
		return fanout.Result{}, err
	}
	chat, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		return fanout.Result{}, notFoundOr(err, "chat")
	}
	if !chat.HasParticipant(payload.SenderID) {
		return fanout.Result{}, fmt.Errorf("%w: not a participant of this chat", ErrForbidden)
	}

	return s.dispatcher.ToChat(ctx, event, payload, chat, payload.SenderID), nil
}
