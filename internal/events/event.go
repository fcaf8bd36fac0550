package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Type names a domain event published to the event stream
type Type string

const (
	MessageCreated Type = "message.created"
	MessageDeleted Type = "message.deleted"
	PollVoted      Type = "poll.voted"
	ChatCreated    Type = "chat.created"
	ChatDeleted    Type = "chat.deleted"
)

// Event is one record on the stream. ChatID is the partition key so events of one chat
// stay ordered.
type Event struct {
	Type       Type      `json:"type"`
	ChatID     string    `json:"chatId"`
	MessageID  string    `json:"messageId,omitempty"`
	UserID     string    `json:"userId,omitempty"`
	Data       any       `json:"data,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher writes domain events. Implementations never block the caller on the broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher is used when no brokers are configured
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

func encode(e Event) ([]byte, error) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}

// Decode parses one stream record
func Decode(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("event without type")
	}
	return e, nil
}
