package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"chat-backend/internal/auth"
	"chat-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	UserIDKey = "user_id"
	tokenKey  = "token"
	claimsKey = "claims"
)

// TokenRevocations reports tokens invalidated by logout
type TokenRevocations interface {
	IsTokenRevoked(ctx context.Context, token string) (bool, error)
}

type AuthMiddleware struct {
	tokens  *auth.TokenManager
	revoked TokenRevocations
}

func NewAuthMiddleware(tokens *auth.TokenManager, revoked TokenRevocations) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:  tokens,
		revoked: revoked,
	}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, http.StatusUnauthorized, "Unauthorized", "authorization header is required")
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := am.tokens.Parse(tokenString)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "Unauthorized", "invalid token")
			return
		}

		if am.revoked != nil {
			revoked, err := am.revoked.IsTokenRevoked(c.Request.Context(), tokenString)
			if err != nil {
				slog.Error("Failed to check token revocation", "userID", claims.UserID, "error", err)
				response.Abort(c, http.StatusInternalServerError, "Authentication check failed", "")
				return
			}
			if revoked {
				response.Abort(c, http.StatusUnauthorized, "Unauthorized", "token has been revoked")
				return
			}
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(tokenKey, tokenString)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// UserID returns the authenticated user, empty outside RequireAuth
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// Token returns the raw bearer token and its claims
func Token(c *gin.Context) (string, *auth.Claims) {
	claims, _ := c.Get(claimsKey)
	parsed, _ := claims.(*auth.Claims)
	return c.GetString(tokenKey), parsed
}
