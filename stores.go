package sessionkit

import "time"

// User is an identity record. A user always has a unique email; the password
// hash is absent for OAuth-only accounts and the provider id is absent for
// password-only accounts.
type User struct {
	ID           string    `json:"id"`
	GoogleID     *string   `json:"google_id,omitempty"`
	Email        string    `json:"email"`
	PasswordHash *string   `json:"password_hash,omitempty"`
	Name         string    `json:"name"`
	Nickname     string    `json:"nickname,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicUser is the projection of a User exposed to clients. Applied at the
// session layer boundary so handlers never leak hashes or provider ids.
type PublicUser struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Nickname string `json:"nickname,omitempty"`
}

func (u *User) Public() PublicUser {
	return PublicUser{Email: u.Email, Name: u.Name, Nickname: u.Nickname}
}

// Session represents an authenticated client context. The ID is the opaque
// bearer token carried in the session cookie.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`

	// Fresh is set by validation when the expiry was just extended, telling
	// the caller to reissue the cookie. Never persisted.
	Fresh bool `json:"-"`
}

// IsExpired reports whether the session's absolute expiry has passed.
// Expired sessions are invalid immediately, even if not yet deleted.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// UserStore persists user records.
//
// Lookups return ErrUserNotFound when no record matches. InsertUser must
// enforce email and provider-id uniqueness at the storage level and return
// ErrUserExists on conflict - callers may pre-check, but the insert is the
// authority under concurrency.
type UserStore interface {
	GetUserByID(id string) (*User, error)
	GetUserByEmail(email string) (*User, error)
	GetUserByGoogleID(googleID string) (*User, error)
	InsertUser(user *User) error
}

// SessionStore persists session records keyed by their opaque id.
//
// GetSession returns ErrSessionNotFound when absent. DeleteSession is
// idempotent: deleting a missing session is not an error.
type SessionStore interface {
	InsertSession(session *Session) error
	GetSession(id string) (*Session, error)
	UpdateSessionExpiry(id string, expiresAt time.Time) error
	DeleteSession(id string) error
}
