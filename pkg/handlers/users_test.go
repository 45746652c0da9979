package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/winecollections/winecollections/pkg/auth"
	"github.com/winecollections/winecollections/pkg/models"
)

type userTestEnv struct {
	mux  *http.ServeMux
	svc  *mockUserService
	auth *testAuth
	logs *observer.ObservedLogs
}

func newUserTestEnv() *userTestEnv {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	a := newTestAuth(logger)
	svc := newMockUserService()
	mux := http.NewServeMux()
	NewUserHandler(svc, a.sessions, a.auditor, logger).RegisterRoutes(mux, a.middleware)
	return &userTestEnv{mux: mux, svc: svc, auth: a, logs: logs}
}

func (e *userTestEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func registerRequest(body, secret string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/users/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("Authorization", secret)
	}
	return req
}

func TestUserHandler_Register(t *testing.T) {
	env := newUserTestEnv()

	rec := env.do(registerRequest(`{"email":"ann@example.com","password":"longenough","admin":true}`, testSecret))

	require.Equal(t, http.StatusCreated, rec.Code)
	var user models.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
	assert.Equal(t, "ann@example.com", user.Email)
	assert.True(t, user.Admin)
	assert.NotContains(t, rec.Body.String(), "longenough")
}

func TestUserHandler_Register_RequiresSecret(t *testing.T) {
	env := newUserTestEnv()

	rec := env.do(registerRequest(`{"email":"ann@example.com","password":"longenough"}`, ""))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, env.svc.users)
}

func TestUserHandler_Register_Duplicate(t *testing.T) {
	env := newUserTestEnv()
	body := `{"email":"ann@example.com","password":"longenough"}`

	require.Equal(t, http.StatusCreated, env.do(registerRequest(body, testSecret)).Code)
	assert.Equal(t, http.StatusConflict, env.do(registerRequest(body, testSecret)).Code)
}

func TestUserHandler_Register_BadBody(t *testing.T) {
	env := newUserTestEnv()

	rec := env.do(registerRequest(`{"email":`, testSecret))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserHandler_LoginLogout(t *testing.T) {
	env := newUserTestEnv()
	_, err := env.svc.Register(t.Context(), "ann@example.com", "longenough", false)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/login/",
		strings.NewReader(`{"email":"ann@example.com","password":"longenough"}`))
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "login must set the session cookie")
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, auth.SessionMaxAge, cookie.MaxAge)
	assert.Equal(t, 1, env.logs.FilterMessage("Login succeeded").Len())

	// The issued cookie identifies the user.
	check := httptest.NewRequest(http.MethodGet, "/", nil)
	check.AddCookie(cookie)
	id, ok := env.auth.sessions.UserID(check)
	require.True(t, ok)
	assert.Equal(t, int64(1), id)

	logout := httptest.NewRequest(http.MethodPost, "/logout/", nil)
	logout.AddCookie(cookie)
	rec = env.do(logout)
	require.Equal(t, http.StatusOK, rec.Code)

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionName && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "logout must expire the session cookie")
}

func TestUserHandler_Login_BadCredentials(t *testing.T) {
	env := newUserTestEnv()
	_, err := env.svc.Register(t.Context(), "ann@example.com", "longenough", false)
	require.NoError(t, err)

	for _, body := range []string{
		`{"email":"ann@example.com","password":"wrong-password"}`,
		`{"email":"nobody@example.com","password":"longenough"}`,
	} {
		rec := env.do(httptest.NewRequest(http.MethodPost, "/login/", strings.NewReader(body)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, rec.Result().Cookies())
	}
	assert.Equal(t, 2, env.logs.FilterMessage("Login failed").Len())
}

func TestUserHandler_Logout_WithoutSession(t *testing.T) {
	env := newUserTestEnv()

	rec := env.do(httptest.NewRequest(http.MethodPost, "/logout/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/login/", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	assert.Equal(t, "10.0.0.7", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req))
}
