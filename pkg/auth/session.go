package auth

import (
	"crypto/sha256"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
)

// SessionName is the name of the login session cookie.
const SessionName = "auth"

// SessionMaxAge is the lifetime of a login session, in seconds (30 days).
const SessionMaxAge = 30 * 24 * 60 * 60

// Session value keys.
const (
	SessionKeyUserID = "user_id"
)

// SessionManager issues and reads signed login session cookies.
type SessionManager struct {
	store *sessions.CookieStore
}

// NewSessionManager creates a cookie-based session store.
//
// The secret parameter is used to sign session cookies. It can be any
// passphrase - it will be SHA-256 hashed to derive a 32-byte key.
// The secret must be consistent across server restarts.
//
// Security settings:
// - HttpOnly: true (inaccessible to JavaScript)
// - Secure: from cookie settings (HTTPS only unless served over plain http)
// - SameSite: Lax (sent on top-level navigation, not on cross-site posts)
func NewSessionManager(secret string, cookie CookieSettings) *SessionManager {
	key := sha256.Sum256([]byte(secret))

	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   cookie.Domain,
		MaxAge:   SessionMaxAge,
		HttpOnly: true,
		Secure:   cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(SessionMaxAge)

	return &SessionManager{store: store}
}

// Login stores userID in a fresh session cookie.
func (m *SessionManager) Login(w http.ResponseWriter, r *http.Request, userID int64) error {
	session, err := m.store.New(r, SessionName)
	if err != nil && session == nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	session.Values[SessionKeyUserID] = userID
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Logout expires the session cookie.
func (m *SessionManager) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, SessionName)
	session.Values = map[any]any{}
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// UserID returns the logged-in user's id. A missing, expired or tampered
// cookie reports false.
func (m *SessionManager) UserID(r *http.Request) (int64, bool) {
	session, err := m.store.Get(r, SessionName)
	if err != nil || session.IsNew {
		return 0, false
	}
	id, ok := session.Values[SessionKeyUserID].(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}
