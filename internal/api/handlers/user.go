package handlers

import (
	"net/http"
	"sort"

	"chat-backend/internal/api/middleware"
	"chat-backend/internal/models"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService UserService
	online      OnlineUsers
}

func NewUserHandler(userService UserService, online OnlineUsers) *UserHandler {
	return &UserHandler{userService: userService, online: online}
}

type listUsersQuery struct {
	Page   int64  `form:"page,default=1" binding:"min=1,max=100000"`
	Limit  int64  `form:"limit,default=20" binding:"min=1,max=100"`
	Search string `form:"search"`
	Role   string `form:"role" binding:"omitempty,oneof=User Admin SuperAdmin"`
}

// GetProfile godoc
// @Summary Get current user
// @Description Get the authenticated user's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserResponse
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 404 {object} response.ErrorResponse "User not found"
// @Router /users/me [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.userService.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile godoc
// @Summary Update current user
// @Description Update the authenticated user's name or phone
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.UpdateUserRequest true "Fields to update"
// @Success 200 {object} models.UserResponse
// @Failure 400 {object} response.ErrorResponse "Bad request - invalid input data"
// @Router /users/me [patch]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateAvatar godoc
// @Summary Upload profile picture
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param profilePic formData file true "Image file"
// @Success 200 {object} models.UserResponse
// @Failure 400 {object} response.ErrorResponse "Missing file"
// @Router /users/me/avatar [patch]
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	file, err := c.FormFile("profilePic")
	if err != nil {
		badRequest(c, "profilePic file is required")
		return
	}

	user, err := h.userService.UpdateAvatar(c.Request.Context(), middleware.UserID(c), file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListUsers godoc
// @Summary List users for chat
// @Description Search other users by name or email
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or email fragment"
// @Param role query string false "Only users with this role" Enums(User, Admin, SuperAdmin)
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} models.PaginatedUsersResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	var q listUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err.Error())
		return
	}

	page, err := h.userService.List(c.Request.Context(), middleware.UserID(c), q.Search, q.Role, q.Page, q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// UsersForChat godoc
// @Summary Chat directory
// @Description Users the caller may chat with: a SuperAdmin sees its Admins and their Users, an Admin sees its Users, sibling Admins and SuperAdmin, a User sees its Admin, SuperAdmin and fellow Users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.UserResponse
// @Failure 403 {object} response.ErrorResponse "Unknown role"
// @Router /users/forchat [get]
func (h *UserHandler) UsersForChat(c *gin.Context) {
	users, err := h.userService.ListForChat(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// OnlineUsers godoc
// @Summary List online users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.OnlineUsersResponse
// @Router /users/online [get]
func (h *UserHandler) OnlineUsers(c *gin.Context) {
	users, err := h.online.GetOnlineUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	sort.Strings(users)
	c.JSON(http.StatusOK, models.OnlineUsersResponse{Count: len(users), Users: users})
}

// GetUser godoc
// @Summary Get user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.UserResponse
// @Failure 404 {object} response.ErrorResponse "User not found"
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
