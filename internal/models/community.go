package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Community is an external tenant users are grouped under. CommunityID is the
// caller-chosen business key, e.g. "F230041", and is unique.
type Community struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CommunityID string             `bson:"communityId" json:"communityId"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

type CreateCommunityRequest struct {
	CommunityID string `json:"communityId" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// BulkSkip explains why one entry of a bulk request was not inserted
type BulkSkip struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

type BulkCommunitiesResponse struct {
	Created []Community `json:"data"`
	Skipped []BulkSkip  `json:"skipped"`
}
