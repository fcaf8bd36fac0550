package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"chat-backend/internal/auth"
	"chat-backend/internal/models"
	"chat-backend/internal/websocket"
	"chat-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type WSHandler struct {
	hub    *websocket.Hub
	tokens *auth.TokenManager
}

func NewWSHandler(hub *websocket.Hub, tokens *auth.TokenManager) *WSHandler {
	return &WSHandler{hub: hub, tokens: tokens}
}

// HandleWebSocket godoc
// @Summary WebSocket connection
// @Description Establish a WebSocket connection for realtime events. Without a userId or token the connection only receives broadcasts.
// @Tags websocket
// @Param userId query string false "User ID announced by the client"
// @Param token query string false "JWT; when valid its user wins over userId"
// @Success 101 "Switching Protocols - WebSocket connection established"
// @Failure 400 {object} response.ErrorResponse "Invalid userId"
// @Failure 401 {object} response.ErrorResponse "Invalid token"
// @Router /ws [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	userID, ok := h.connectionIdentity(c)
	if !ok {
		return
	}

	slog.Debug("WebSocket connection request", "userID", userID, "remote", c.ClientIP())
	websocket.ServeWS(h.hub, c.Writer, c.Request, userID)
}

// connectionIdentity resolves the user a socket registers under, in canonical lower-case hex.
// On failure the error response is already written.
func (h *WSHandler) connectionIdentity(c *gin.Context) (string, bool) {
	userID := c.Query("userId")
	if userID != "" {
		oid, err := models.ParseID(userID)
		if err != nil {
			badRequest(c, "invalid userId parameter")
			return "", false
		}
		userID = oid.Hex()
	}

	if token := c.Query("token"); token != "" && h.tokens != nil {
		claims, err := h.tokens.Parse(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "Invalid token", err.Error())
			return "", false
		}
		oid, err := models.ParseID(claims.UserID)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "Invalid token", "token subject is not a user id")
			return "", false
		}
		userID = oid.Hex()
	}
	return userID, true
}

// RegisterRealtimeHandlers installs the inbound websocket events on the hub
func RegisterRealtimeHandlers(hub *websocket.Hub, typing TypingNotifier) {
	for _, event := range []models.EventType{models.EventTyping, models.EventStopTyping} {
		relay := typingRelay(typing, event)
		hub.Handle(event, func(ctx context.Context, client *websocket.Client, data json.RawMessage) error {
			return relay(ctx, client.GetUserID(), data)
		})
	}
}

var errAnonymousTyping = errors.New("typing requires an identified connection")

// typingRelay decodes a typing frame. The sender is always the handshake identity,
// so connections opened without one cannot type.
func typingRelay(typing TypingNotifier, event models.EventType) func(ctx context.Context, connUserID string, data json.RawMessage) error {
	return func(ctx context.Context, connUserID string, data json.RawMessage) error {
		if connUserID == "" {
			return errAnonymousTyping
		}
		var payload models.TypingPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("invalid %s payload: %w", event, err)
		}
		payload.SenderID = connUserID
		_, err := typing.Notify(ctx, event, payload)
		return err
	}
}
