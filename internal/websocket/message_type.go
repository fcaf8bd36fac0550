package websocket

import (
	"encoding/json"
	"time"

	"chat-backend/internal/models"

	"github.com/google/uuid"
)

// Envelope is the frame written to clients for every server event
type Envelope struct {
	ID        string           `json:"id"`
	Event     models.EventType `json:"event"`
	Data      any              `json:"data,omitempty"`
	Timestamp int64            `json:"timestamp"`
}

// InboundFrame is what clients send; Data is decoded by the event's handler
type InboundFrame struct {
	Event models.EventType `json:"event"`
	Data  json.RawMessage  `json:"data"`
}

// NewEnvelope creates a new server frame with a fresh id
func NewEnvelope(event models.EventType, data any) *Envelope {
	return &Envelope{
		ID:        uuid.New().String(),
		Event:     event,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
}

// NewErrorEnvelope creates an error frame
func NewErrorEnvelope(code, message string) *Envelope {
	return NewEnvelope(models.EventError, models.ErrorPayload{Code: code, Message: message})
}
