package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/winecollections/winecollections/pkg/audit"
)

// Middleware provides HTTP authentication middleware.
type Middleware struct {
	sessions *SessionManager
	secret   string
	auditor  *audit.SecurityAuditor
	logger   *zap.Logger
}

// NewMiddleware creates a new auth middleware. secret is the shared key that
// guards operator endpoints.
func NewMiddleware(sessions *SessionManager, secret string, auditor *audit.SecurityAuditor, logger *zap.Logger) *Middleware {
	return &Middleware{
		sessions: sessions,
		secret:   secret,
		auditor:  auditor,
		logger:   logger,
	}
}

// OptionalUser puts the session user, if any, in the request context.
// Anonymous requests pass through unchanged.
func (m *Middleware) OptionalUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if id, ok := m.sessions.UserID(r); ok {
			r = r.WithContext(WithUserID(r.Context(), id))
		}
		next(w, r)
	}
}

// RequireUser rejects requests without a valid session with 401.
func (m *Middleware) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := m.sessions.UserID(r)
		if !ok {
			m.logger.Debug("Rejected request without session",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path))
			m.unauthorized(w, "Authentication required")
			return
		}
		next(w, r.WithContext(WithUserID(r.Context(), id)))
	}
}

// RequireSecret rejects requests whose Authorization header does not carry
// the shared secret with 403. A "Bearer " prefix is accepted.
func (m *Middleware) RequireSecret(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.secretMatches(r) {
			m.auditor.LogSecretMismatch(r.Method, r.URL.Path, r.RemoteAddr, r.Header.Get("Authorization") != "")
			m.forbidden(w, "Invalid or missing secret")
			return
		}
		next(w, r)
	}
}

// RequireUserOrSecret accepts a session user or the shared secret.
// With the secret and no session the request stays anonymous.
func (m *Middleware) RequireUserOrSecret(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if id, ok := m.sessions.UserID(r); ok {
			next(w, r.WithContext(WithUserID(r.Context(), id)))
			return
		}
		if m.secretMatches(r) {
			next(w, r)
			return
		}
		if r.Header.Get("Authorization") != "" {
			m.auditor.LogSecretMismatch(r.Method, r.URL.Path, r.RemoteAddr, true)
		}
		m.unauthorized(w, "Authentication required")
	}
}

func (m *Middleware) secretMatches(r *http.Request) bool {
	provided := strings.TrimSpace(r.Header.Get("Authorization"))
	provided = strings.TrimPrefix(provided, "Bearer ")
	if provided == "" || m.secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(m.secret)) == 1
}

// unauthorized returns a 401 response with JSON error body.
func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}

// forbidden returns a 403 response with JSON error body.
func (m *Middleware) forbidden(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "forbidden",
		"message": message,
	})
}
