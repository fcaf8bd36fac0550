package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chat-backend/internal/auth"
	"chat-backend/internal/presence"
	"chat-backend/internal/websocket"

	"github.com/stretchr/testify/assert"
)

type allowAll struct{}

func (allowAll) CheckRateLimit(context.Context, string, int, time.Duration) (bool, error) {
	return true, nil
}

type noRevocations struct{}

func (noRevocations) RevokeToken(context.Context, string, time.Time) error { return nil }
func (noRevocations) IsTokenRevoked(context.Context, string) (bool, error) { return false, nil }

func newTestRouter() *Router {
	r := NewRouter(Dependencies{
		Hub:         websocket.NewHub(presence.NewRegistry(), nil),
		Tokens:      auth.NewTokenManager("secret", time.Hour),
		Revocations: noRevocations{},
		Limiter:     allowAll{},
	})
	r.SetupRoutes()
	return r
}

func TestSetupRoutesRegistersApi(t *testing.T) {
	r := newTestRouter()

	registered := make(map[string]bool)
	for _, route := range r.GetEngine().Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"GET /healthz",
		"GET /api/v1/ws",
		"POST /api/v1/auth/signup",
		"POST /api/v1/auth/login",
		"POST /api/v1/auth/logout",
		"GET /api/v1/users",
		"GET /api/v1/users/online",
		"GET /api/v1/users/forchat",
		"GET /api/v1/community",
		"POST /api/v1/community/add",
		"POST /api/v1/community/alladd",
		"PATCH /api/v1/users/me/avatar",
		"POST /api/v1/chats/access",
		"POST /api/v1/chats/group",
		"PUT /api/v1/chats/remove",
		"POST /api/v1/messages/send/:chatId",
		"POST /api/v1/messages/send-poll/:chatId",
		"POST /api/v1/messages/vote",
		"GET /api/v1/messages/:chatId",
		"DELETE /api/v1/messages/delete/:messageId",
	} {
		assert.True(t, registered[want], want)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter()

	for _, path := range []string{"/api/v1/chats", "/api/v1/users/me", "/api/v1/messages/abc", "/api/v1/community"} {
		w := httptest.NewRecorder()
		r.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebSocketRejectsMalformedUserID(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ws?userId=not-hex", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ws?token=garbage", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
