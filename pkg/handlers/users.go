package handlers

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/winecollections/winecollections/pkg/apperrors"
	"github.com/winecollections/winecollections/pkg/audit"
	"github.com/winecollections/winecollections/pkg/auth"
	"github.com/winecollections/winecollections/pkg/models"
	"github.com/winecollections/winecollections/pkg/services"
)

// RegisterUserRequest for POST /users/
type RegisterUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Admin    bool   `json:"admin"`
}

// LoginRequest for POST /login/
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse for POST /login/
type LoginResponse struct {
	User *models.User `json:"user"`
}

// UserHandler handles registration and session login/logout.
type UserHandler struct {
	userService services.UserService
	sessions    *auth.SessionManager
	auditor     *audit.SecurityAuditor
	logger      *zap.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(
	userService services.UserService,
	sessions *auth.SessionManager,
	auditor *audit.SecurityAuditor,
	logger *zap.Logger,
) *UserHandler {
	return &UserHandler{
		userService: userService,
		sessions:    sessions,
		auditor:     auditor,
		logger:      logger,
	}
}

// RegisterRoutes registers the user handler's routes on the given mux.
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /users/{$}", authMiddleware.RequireSecret(h.Register))
	mux.HandleFunc("POST /login/{$}", h.Login)
	mux.HandleFunc("POST /logout/{$}", h.Logout)
}

// Register handles POST /users/
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := DecodeJSON(r, &req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	user, err := h.userService.Register(r.Context(), req.Email, req.Password, req.Admin)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("User registered", zap.Int64("user_id", user.ID), zap.Bool("admin", user.Admin))
	if err := WriteJSON(w, http.StatusCreated, user); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Login handles POST /login/
// On success the session cookie is set for SessionMaxAge.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := DecodeJSON(r, &req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	ip := clientIP(r)
	user, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			h.auditor.LogLoginFailure(req.Email, ip)
			if err := ErrorResponse(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := h.sessions.Login(w, r, user.ID); err != nil {
		h.logger.Error("Failed to save session", zap.Int64("user_id", user.ID), zap.Error(err))
		WriteServiceError(w, err, h.logger)
		return
	}
	h.auditor.LogLoginSuccess(user.ID, ip)

	if err := WriteJSON(w, http.StatusOK, LoginResponse{User: user}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Logout handles POST /logout/
// Logging out without a session is not an error.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		h.logger.Error("Failed to clear session", zap.Error(err))
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// clientIP returns the first X-Forwarded-For hop, or the remote host.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
