package sessionkit

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Default session cookie and lifetime settings. The renewal threshold is
// half the lifetime: a session validated with less than half its lifetime
// remaining gets its expiry pushed out and is reported as fresh.
const (
	DefaultSessionCookieName = "auth_session"
	DefaultSessionLifetime   = 30 * 24 * time.Hour
)

// SessionManager owns the session lifecycle: minting, validation with
// sliding renewal, and invalidation. Validation combines the read with a
// conditional expiry write, so no background sweeper is needed; concurrent
// renewals of the same session are idempotent.
type SessionManager struct {
	Store SessionStore
	Users UserStore

	// Lifetime of newly minted or renewed sessions. Defaults to 30 days.
	Lifetime time.Duration

	// RenewalThreshold is the remaining lifetime below which validation
	// extends the session. Defaults to Lifetime / 2.
	RenewalThreshold time.Duration

	// Cookie attributes for the bearer artifact.
	CookieName   string
	CookiePath   string
	CookieDomain string
	CookieSecure bool
}

func NewSessionManager(store SessionStore, users UserStore) *SessionManager {
	return (&SessionManager{Store: store, Users: users}).EnsureDefaults()
}

func (m *SessionManager) EnsureDefaults() *SessionManager {
	if m.Lifetime <= 0 {
		m.Lifetime = DefaultSessionLifetime
	}
	if m.RenewalThreshold <= 0 {
		m.RenewalThreshold = m.Lifetime / 2
	}
	if m.CookieName == "" {
		m.CookieName = DefaultSessionCookieName
	}
	if m.CookiePath == "" {
		m.CookiePath = "/"
	}
	return m
}

// CreateSession mints a new session for userId and persists it.
func (m *SessionManager) CreateSession(userId string) (*Session, error) {
	m.EnsureDefaults()
	id, err := GenerateSecureToken()
	if err != nil {
		return nil, err
	}
	session := &Session{
		ID:        id,
		UserID:    userId,
		ExpiresAt: time.Now().Add(m.Lifetime),
	}
	if err := m.Store.InsertSession(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// ValidateSession resolves a bearer token to its user and session. Both
// returns are nil (with a nil error) when the token is unknown, expired, or
// its owning user no longer exists; those records are purged as a side
// effect. A session past its renewal threshold is extended and returned
// with Fresh set so the caller reissues the cookie.
func (m *SessionManager) ValidateSession(token string) (*User, *Session, error) {
	m.EnsureDefaults()
	if token == "" {
		return nil, nil, nil
	}

	session, err := m.Store.GetSession(token)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if session.IsExpired() {
		_ = m.Store.DeleteSession(session.ID)
		return nil, nil, nil
	}

	user, err := m.Users.GetUserByID(session.UserID)
	if errors.Is(err, ErrUserNotFound) {
		// Dangling session, owner was removed. Self-heal.
		_ = m.Store.DeleteSession(session.ID)
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if time.Until(session.ExpiresAt) < m.RenewalThreshold {
		session.ExpiresAt = time.Now().Add(m.Lifetime)
		if err := m.Store.UpdateSessionExpiry(session.ID, session.ExpiresAt); err != nil {
			return nil, nil, err
		}
		session.Fresh = true
	}

	return user, session, nil
}

// InvalidateSession deletes the session record. Idempotent.
func (m *SessionManager) InvalidateSession(token string) error {
	if token == "" {
		return nil
	}
	return m.Store.DeleteSession(token)
}

// SessionCookie builds the bearer artifact for a session.
func (m *SessionManager) SessionCookie(session *Session) *http.Cookie {
	m.EnsureDefaults()
	return &http.Cookie{
		Name:     m.CookieName,
		Value:    session.ID,
		Path:     m.CookiePath,
		Domain:   m.CookieDomain,
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   m.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// BlankSessionCookie builds the sentinel artifact that clears a client's
// stored token.
func (m *SessionManager) BlankSessionCookie() *http.Cookie {
	m.EnsureDefaults()
	return &http.Cookie{
		Name:     m.CookieName,
		Value:    "",
		Path:     m.CookiePath,
		Domain:   m.CookieDomain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
