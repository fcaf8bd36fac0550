package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ChatStatusActive = "active"
)

/** --------------------ENTITIES-------------------- */
// Chat is a one-to-one or group conversation. Participants keep their insertion order,
// which is the order realtime fan-out walks them in.
type Chat struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	IsGroup        bool                 `bson:"isGroup" json:"isGroup"`
	Participants   []primitive.ObjectID `bson:"participants" json:"participants"`
	GroupName      string               `bson:"groupName,omitempty" json:"groupName,omitempty"`
	GroupImage     string               `bson:"groupImage,omitempty" json:"groupImage,omitempty"`
	GroupAdmin     *primitive.ObjectID  `bson:"groupAdmin,omitempty" json:"groupAdmin,omitempty"`
	LatestMessage  string               `bson:"latestMessage,omitempty" json:"latestMessage,omitempty"`
	UnreadMessages map[string]int       `bson:"unreadMessages" json:"unreadMessages"`
	Status         string               `bson:"status" json:"status"`
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// ParticipantIDs returns the member ids as hex strings, in stored order
func (c *Chat) ParticipantIDs() []string {
	ids := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.Hex())
	}
	return ids
}

// HasParticipant reports whether userID is a member of the chat
func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.Hex() == userID {
			return true
		}
	}
	return false
}

// Counterpart returns the first participant that is not userID.
// For a direct chat this is the receiver.
func (c *Chat) Counterpart(userID string) (string, bool) {
	for _, p := range c.Participants {
		if p.Hex() != userID {
			return p.Hex(), true
		}
	}
	return "", false
}

/** -------------------- DTOs -------------------- */
// Request
type AccessChatRequest struct {
	ReceiverID string `json:"receiverId" binding:"required"`
}

type RenameGroupRequest struct {
	ChatID string `json:"chatId" binding:"required"`
	Name   string `json:"name" binding:"required,min=1,max=100"`
}

type GroupMemberRequest struct {
	ChatID string `json:"chatId" binding:"required"`
	UserID string `json:"userId" binding:"required"`
}
