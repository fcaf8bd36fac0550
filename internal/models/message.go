package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// enum
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeVideo MessageType = "video"
	MessageTypePoll  MessageType = "poll"
)

// IsValid checks if the MessageType is a valid enum value
func (mt MessageType) IsValid() bool {
	switch mt {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo, MessageTypePoll:
		return true
	default:
		return false
	}
}

// MediaTypeFromContentType maps an upload's content type to a message type
func MediaTypeFromContentType(contentType string) MessageType {
	if strings.HasPrefix(contentType, "video") {
		return MessageTypeVideo
	}
	return MessageTypeImage
}

/** --------------------ENTITIES-------------------- */
// Message represents a chat message document
type Message struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	ChatID      primitive.ObjectID  `bson:"chat" json:"chat"`
	SenderID    primitive.ObjectID  `bson:"sender" json:"sender"`
	Content     string              `bson:"content,omitempty" json:"content,omitempty"`
	Media       string              `bson:"media,omitempty" json:"media,omitempty"`
	MessageType MessageType         `bson:"messageType" json:"messageType"`
	Poll        *Poll               `bson:"poll,omitempty" json:"poll,omitempty"`
	ReplyTo     *primitive.ObjectID `bson:"replyTo,omitempty" json:"replyTo,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Preview is the text stored as the chat's latest message
func (m *Message) Preview() string {
	switch m.MessageType {
	case MessageTypeText:
		return m.Content
	case MessageTypePoll:
		if m.Poll != nil {
			return m.Poll.Question
		}
	}
	return m.Media
}

/** -------------------- DTOs -------------------- */
// Request (multipart form on send, file is optional)
type SendMessageRequest struct {
	Content     string `form:"content"`
	MessageType string `form:"messageType"`
	ReplyTo     string `form:"replyTo"`
}

type ListMessagesQuery struct {
	Page   int64  `form:"page,default=1" binding:"min=1,max=100000"`
	Limit  int64  `form:"limit,default=20" binding:"min=1,max=100"`
	Search string `form:"search"`
}

// Response
type PaginatedMessagesResponse struct {
	Messages      []Message `json:"messages"`
	TotalMessages int64     `json:"totalMessages"`
	CurrentPage   int64     `json:"currentPage"`
	TotalPages    int64     `json:"totalPages"`
}
