package handlers

import (
	"log/slog"
	"net/http"

	"chat-backend/internal/api/middleware"
	"chat-backend/internal/models"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userService UserService
	revoker     TokenRevoker
}

func NewAuthHandler(userService UserService, revoker TokenRevoker) *AuthHandler {
	return &AuthHandler{userService: userService, revoker: revoker}
}

// Signup godoc
// @Summary Register a new user
// @Description Register a new user with full name, email, and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.SignupRequest true "User registration data"
// @Success 201 {object} models.UserResponse "User created successfully"
// @Failure 400 {object} response.ErrorResponse "Bad request - invalid input data"
// @Failure 409 {object} response.ErrorResponse "Email already exists"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login godoc
// @Summary User login
// @Description Authenticate user with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "User login credentials"
// @Success 200 {object} models.LoginResponse "Login successful - returns JWT token and user data"
// @Failure 400 {object} response.ErrorResponse "Bad request - invalid input data"
// @Failure 401 {object} response.ErrorResponse "Unauthorized - invalid credentials"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	loginResponse, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse)
}

// Logout godoc
// @Summary User logout
// @Description Revoke the current token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.MessageResponse
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token, claims := middleware.Token(c)
	if h.revoker != nil && claims != nil {
		if err := h.revoker.RevokeToken(c.Request.Context(), token, claims.ExpiresAt); err != nil {
			respondError(c, err)
			return
		}
	}
	slog.Info("User logged out", "userID", middleware.UserID(c))
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Logged out successfully"})
}
