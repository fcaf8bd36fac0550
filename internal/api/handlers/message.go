package handlers

import (
	"net/http"

	"chat-backend/internal/api/middleware"
	"chat-backend/internal/models"
	"chat-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messageService MessageService
	pollVoter      PollVoter
}

func NewMessageHandler(messageService MessageService, pollVoter PollVoter) *MessageHandler {
	return &MessageHandler{messageService: messageService, pollVoter: pollVoter}
}

// SendMessage godoc
// @Summary Send a message
// @Description Send a text message, or an image/video with the file field
// @Tags messages
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param chatId path string true "Chat ID"
// @Param content formData string false "Text content"
// @Param messageType formData string false "text, image or video"
// @Param replyTo formData string false "Message being replied to"
// @Param file formData file false "Media file"
// @Success 201 {object} models.Message
// @Failure 400 {object} response.ErrorResponse "Bad request"
// @Failure 403 {object} response.ErrorResponse "Not a participant"
// @Router /messages/send/{chatId} [post]
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	in := services.SendMessageInput{
		ChatID:      c.Param("chatId"),
		SenderID:    middleware.UserID(c),
		Content:     req.Content,
		MessageType: models.MessageType(req.MessageType),
		ReplyTo:     req.ReplyTo,
	}
	if file, err := c.FormFile("file"); err == nil {
		in.File = file
	}

	msg, err := h.messageService.Send(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// SendPoll godoc
// @Summary Send a poll
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param chatId path string true "Chat ID"
// @Param request body models.CreatePollRequest true "Question and at least two options"
// @Success 201 {object} models.Message
// @Failure 400 {object} response.ErrorResponse "Bad request"
// @Router /messages/send-poll/{chatId} [post]
func (h *MessageHandler) SendPoll(c *gin.Context) {
	var req models.CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	msg, err := h.messageService.SendPoll(c.Request.Context(), c.Param("chatId"), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// GetMessages godoc
// @Summary Chat history
// @Description Newest first; reading resets the caller's unread counter
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param chatId path string true "Chat ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Param search query string false "Content fragment"
// @Success 200 {object} models.PaginatedMessagesResponse
// @Router /messages/{chatId} [get]
func (h *MessageHandler) GetMessages(c *gin.Context) {
	var q models.ListMessagesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err.Error())
		return
	}

	page, err := h.messageService.List(c.Request.Context(), c.Param("chatId"), middleware.UserID(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Vote godoc
// @Summary Vote on a poll
// @Description Moves the caller's vote to the option; voting the same option again is a no-op
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.VoteRequest true "Poll message and option index"
// @Success 200 {object} models.VoteResponse
// @Failure 400 {object} response.ErrorResponse "Invalid option"
// @Failure 404 {object} response.ErrorResponse "Poll not found"
// @Failure 409 {object} response.ErrorResponse "Concurrent update"
// @Router /messages/vote [post]
func (h *MessageHandler) Vote(c *gin.Context) {
	var req models.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	poll, err := h.pollVoter.CastVote(c.Request.Context(), req.MessageID, middleware.UserID(c), *req.OptionIndex)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.VoteResponse{Message: "Vote recorded", Poll: poll})
}

// DeleteMessage godoc
// @Summary Delete a message
// @Description Only the sender may delete
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param messageId path string true "Message ID"
// @Success 200 {object} models.MessageResponse
// @Failure 403 {object} response.ErrorResponse "Not the sender"
// @Router /messages/delete/{messageId} [delete]
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	if err := h.messageService.Delete(c.Request.Context(), c.Param("messageId"), middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Message deleted successfully"})
}

// MarkRead godoc
// @Summary Mark a chat as read
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param chatId path string true "Chat ID"
// @Success 200 {object} models.MessageResponse
// @Router /messages/read/{chatId} [patch]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	if err := h.messageService.MarkRead(c.Request.Context(), c.Param("chatId"), middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Messages marked as read"})
}
