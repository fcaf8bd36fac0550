package services

import (
	"errors"
	"fmt"

	"chat-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidOption      = models.ErrInvalidOption
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrConflict           = errors.New("concurrent update, retry")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrCommunityExists    = errors.New("community already exists")
)

func parseID(kind, id string) (primitive.ObjectID, error) {
	oid, err := models.ParseID(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid %s id %q", ErrInvalidRequest, kind, id)
	}
	return oid, nil
}

// notFoundOr maps a missing document to ErrNotFound and wraps anything else
func notFoundOr(err error, kind string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %s", ErrNotFound, kind)
	}
	return fmt.Errorf("failed to load %s: %w", kind, err)
}
