package handlers

import (
	"encoding/json"
	"net/http"

	"chat-backend/internal/api/middleware"
	"chat-backend/internal/models"
	"chat-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatService ChatService
}

func NewChatHandler(chatService ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// AccessChat godoc
// @Summary Open a direct chat
// @Description Returns the one-to-one chat with the receiver, creating it if needed
// @Tags chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.AccessChatRequest true "Receiver"
// @Success 200 {object} models.Chat
// @Failure 400 {object} response.ErrorResponse "Bad request"
// @Failure 404 {object} response.ErrorResponse "Receiver not found"
// @Router /chats/access [post]
func (h *ChatHandler) AccessChat(c *gin.Context) {
	var req models.AccessChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	chat, err := h.chatService.Access(c.Request.Context(), middleware.UserID(c), req.ReceiverID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

// ListChats godoc
// @Summary List my chats
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Chat
// @Router /chats [get]
func (h *ChatHandler) ListChats(c *gin.Context) {
	chats, err := h.chatService.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chats)
}

// GetChat godoc
// @Summary Chat profile
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Param chatId path string true "Chat ID"
// @Success 200 {object} models.Chat
// @Failure 403 {object} response.ErrorResponse "Not a participant"
// @Failure 404 {object} response.ErrorResponse "Chat not found"
// @Router /chats/{chatId} [get]
func (h *ChatHandler) GetChat(c *gin.Context) {
	chat, err := h.chatService.Get(c.Request.Context(), c.Param("chatId"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

// CreateGroup godoc
// @Summary Create a group chat
// @Tags chats
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param name formData string true "Group name"
// @Param users formData string true "JSON array of user ids"
// @Param image formData file false "Group image"
// @Success 201 {object} models.Chat
// @Failure 400 {object} response.ErrorResponse "Bad request"
// @Router /chats/group [post]
func (h *ChatHandler) CreateGroup(c *gin.Context) {
	var userIDs []string
	if err := json.Unmarshal([]byte(c.PostForm("users")), &userIDs); err != nil {
		badRequest(c, "users must be a JSON array of user ids")
		return
	}

	in := services.CreateGroupInput{
		AdminID: middleware.UserID(c),
		Name:    c.PostForm("name"),
		UserIDs: userIDs,
	}
	if file, err := c.FormFile("image"); err == nil {
		in.Image = file
	}

	chat, err := h.chatService.CreateGroup(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, chat)
}

// RenameGroup godoc
// @Summary Rename a group chat
// @Tags chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.RenameGroupRequest true "New name"
// @Success 200 {object} models.Chat
// @Router /chats/group/rename [patch]
func (h *ChatHandler) RenameGroup(c *gin.Context) {
	var req models.RenameGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	chat, err := h.chatService.Rename(c.Request.Context(), middleware.UserID(c), req.ChatID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

// AddMember godoc
// @Summary Add a user to a group
// @Tags chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.GroupMemberRequest true "Chat and user"
// @Success 200 {object} models.Chat
// @Router /chats/add [put]
func (h *ChatHandler) AddMember(c *gin.Context) {
	var req models.GroupMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	chat, err := h.chatService.AddMember(c.Request.Context(), middleware.UserID(c), req.ChatID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

// RemoveMember godoc
// @Summary Remove a user from a group
// @Tags chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.GroupMemberRequest true "Chat and user"
// @Success 200 {object} models.Chat
// @Failure 403 {object} response.ErrorResponse "Only the admin may remove others"
// @Router /chats/remove [put]
func (h *ChatHandler) RemoveMember(c *gin.Context) {
	var req models.GroupMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	chat, err := h.chatService.RemoveMember(c.Request.Context(), middleware.UserID(c), req.ChatID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

// DeleteChat godoc
// @Summary Delete a chat and its messages
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Param chatId path string true "Chat ID"
// @Success 200 {object} models.MessageResponse
// @Router /chats/{chatId} [delete]
func (h *ChatHandler) DeleteChat(c *gin.Context) {
	if err := h.chatService.Delete(c.Request.Context(), middleware.UserID(c), c.Param("chatId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Chat deleted successfully"})
}
