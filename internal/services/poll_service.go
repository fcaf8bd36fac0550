package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"chat-backend/internal/events"
	"chat-backend/internal/fanout"
	"chat-backend/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// PollService applies votes to poll messages and announces the new tallies
type PollService struct {
	messages   MessageRepository
	chats      ChatRepository
	dispatcher *fanout.Dispatcher
	publisher  events.Publisher
	locks      *keyedMutex
}

func NewPollService(messages MessageRepository, chats ChatRepository, dispatcher *fanout.Dispatcher, publisher events.Publisher) *PollService {
	return &PollService{
		messages:   messages,
		chats:      chats,
		dispatcher: dispatcher,
		publisher:  publisher,
		locks:      newKeyedMutex(),
	}
}

// CastVote records voterID's choice, replacing any earlier vote in the same poll.
// Votes on one poll are serialized in-process and guarded by a version check in storage,
// so concurrent voters never lose each other's updates.
func (s *PollService) CastVote(ctx context.Context, messageID, voterID string, optionIndex int) (*models.Poll, error) {
	msgID, err := parseID("message", messageID)
	if err != nil {
		return nil, err
	}
	if voterID == "" {
		return nil, fmt.Errorf("%w: voter is required", ErrInvalidRequest)
	}
	// Hex input is case-insensitive; key everything on the canonical form
	messageID = msgID.Hex()

	unlock := s.locks.Lock(messageID)
	defer unlock()

	msg, err := s.messages.FindByID(ctx, msgID)
	if err != nil {
		return nil, notFoundOr(err, "message")
	}
	if msg.MessageType != models.MessageTypePoll || msg.Poll == nil || len(msg.Poll.Options) == 0 {
		return nil, fmt.Errorf("%w: poll", ErrNotFound)
	}

	chat, err := s.chats.FindByID(ctx, msg.ChatID)
	if err != nil {
		return nil, notFoundOr(err, "chat")
	}
	if !chat.HasParticipant(voterID) {
		return nil, fmt.Errorf("%w: not a participant of this chat", ErrForbidden)
	}

	poll := msg.Poll.Clone()
	expected := poll.Version
	previous, err := poll.CastVote(voterID, optionIndex)
	if err != nil {
		return nil, err
	}
	poll.Version = expected + 1

	if err := s.messages.SavePoll(ctx, msgID, poll, expected); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to save poll: %w", err)
	}

	slog.InfoContext(ctx, "Poll vote recorded",
		"messageID", messageID, "voterID", voterID, "option", optionIndex, "previous", previous, "version", poll.Version)

	// Every participant gets the new tallies, the voter included. For a direct chat that
	// is exactly sender and receiver.
	result := s.dispatcher.ToChat(ctx, models.EventPollUpdated, models.PollUpdatedPayload{
		MessageID: messageID,
		Poll:      poll,
	}, chat, "")
	slog.DebugContext(ctx, "Poll update dispatched",
		"messageID", messageID, "group", chat.IsGroup, "delivered", result.Delivered, "skipped", result.Skipped, "failed", result.Failed)

	publish(ctx, s.publisher, events.Event{
		Type:      events.PollVoted,
		ChatID:    chat.ID.Hex(),
		MessageID: messageID,
		UserID:    voterID,
		Data:      map[string]int{"option": optionIndex, "previous": previous},
	})

	return poll, nil
}
