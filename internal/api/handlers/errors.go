package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"chat-backend/internal/models"
	"chat-backend/internal/services"
	"chat-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors to HTTP statuses; unknown errors are logged and hidden
func respondError(c *gin.Context, err error) {
	status, message := http.StatusInternalServerError, "Internal server error"

	switch {
	case errors.Is(err, services.ErrInvalidRequest), errors.Is(err, services.ErrInvalidOption), errors.Is(err, models.ErrInvalidID):
		status, message = http.StatusBadRequest, "Invalid request"
	case errors.Is(err, services.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, services.ErrForbidden):
		status, message = http.StatusForbidden, "Access denied"
	case errors.Is(err, services.ErrNotFound):
		status, message = http.StatusNotFound, "Not found"
	case errors.Is(err, services.ErrUserAlreadyExists):
		status, message = http.StatusConflict, "Email already exists"
	case errors.Is(err, services.ErrCommunityExists):
		status, message = http.StatusConflict, "Community already exists"
	case errors.Is(err, services.ErrConflict):
		status, message = http.StatusConflict, "Concurrent update, please retry"
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "Request failed", "path", c.FullPath(), "error", err)
		_ = c.Error(err)
		response.Error(c, status, message, "")
		return
	}
	response.Error(c, status, message, err.Error())
}

func badRequest(c *gin.Context, details string) {
	response.Error(c, http.StatusBadRequest, "Invalid input data", details)
}
