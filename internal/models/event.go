package models

// EventType names a realtime event pushed to, or received from, a websocket client
type EventType string

const (
	EventGetOnlineUsers  EventType = "getOnlineUsers"
	EventTyping          EventType = "typing"
	EventStopTyping      EventType = "stopTyping"
	EventNewMessage      EventType = "newMessage"
	EventNewGroupMessage EventType = "newGroupMessage"
	EventMessageDeleted  EventType = "messageDeleted"
	EventPollUpdated     EventType = "pollUpdated"
	EventError           EventType = "error"
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	return string(e)
}

// IsInbound reports whether clients are allowed to send this event to the server
func (e EventType) IsInbound() bool {
	return e == EventTyping || e == EventStopTyping
}

/** -------------------- Payloads -------------------- */
type TypingPayload struct {
	ChatID   string `json:"chatId"`
	SenderID string `json:"senderId"`
}

type MessageDeletedPayload struct {
	MessageID string `json:"messageId"`
	ChatID    string `json:"chatId"`
}

type PollUpdatedPayload struct {
	MessageID string `json:"messageId"`
	Poll      *Poll  `json:"poll"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
