package models

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidID = errors.New("invalid id")

// Paging bounds; MaxPage keeps (page-1)*limit far from int64 overflow. Query bindings repeat them.
const (
	MaxPage         = 100000
	MaxPageSize     = 100
	DefaultPageSize = 20
)

// MessageResponse is a plain acknowledgement body
type MessageResponse struct {
	Message string `json:"message"`
}

type PaginatedUsersResponse struct {
	Users       []UserResponse `json:"users"`
	Total       int64          `json:"total"`
	CurrentPage int64          `json:"currentPage"`
	TotalPages  int64          `json:"totalPages"`
}

type OnlineUsersResponse struct {
	Count int      `json:"count"`
	Users []string `json:"users"`
}

// ParseID converts a hex identifier into an ObjectID
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

// TotalPages rounds total/limit up
func TotalPages(total, limit int64) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
