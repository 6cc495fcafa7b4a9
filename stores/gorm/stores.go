package gorm

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	sk "github.com/rishabhk/sessionkit"
)

// AutoMigrate runs database migrations for all sessionkit tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&SessionModel{},
		&VerificationTokenModel{},
	)
}

// isDuplicateKey detects unique-constraint violations. TranslateError
// normalizes these to gorm.ErrDuplicatedKey; the string check covers sqlite
// drivers opened without it.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// =============================================================================
// UserStore
// =============================================================================

// UserStore implements sessionkit.UserStore using GORM
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) InsertUser(user *sk.User) error {
	if err := s.db.Create(UserToModel(user)).Error; err != nil {
		if isDuplicateKey(err) {
			return sk.ErrUserExists
		}
		return err
	}
	return nil
}

func (s *UserStore) GetUserByID(userId string) (*sk.User, error) {
	return s.firstUser("id = ?", userId)
}

func (s *UserStore) GetUserByEmail(email string) (*sk.User, error) {
	return s.firstUser("email = ?", email)
}

func (s *UserStore) GetUserByGoogleID(googleId string) (*sk.User, error) {
	return s.firstUser("google_id = ?", googleId)
}

func (s *UserStore) firstUser(query string, arg any) (*sk.User, error) {
	var model UserModel
	if err := s.db.First(&model, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sk.ErrUserNotFound
		}
		return nil, err
	}
	return model.ToUser(), nil
}

// =============================================================================
// SessionStore
// =============================================================================

// SessionStore implements sessionkit.SessionStore using GORM
type SessionStore struct {
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) InsertSession(session *sk.Session) error {
	return s.db.Create(SessionToModel(session)).Error
}

func (s *SessionStore) GetSession(id string) (*sk.Session, error) {
	var model SessionModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sk.ErrSessionNotFound
		}
		return nil, err
	}
	return model.ToSession(), nil
}

func (s *SessionStore) UpdateSessionExpiry(id string, expiresAt time.Time) error {
	return s.db.Model(&SessionModel{}).
		Where("id = ?", id).
		Update("expires_at", expiresAt).Error
}

func (s *SessionStore) DeleteSession(id string) error {
	// Delete is a no-op for missing rows, which keeps this idempotent
	return s.db.Delete(&SessionModel{}, "id = ?", id).Error
}

// DeleteExpiredSessions removes sessions whose expiry has passed. Optional
// maintenance, validation already treats expired rows as invalid.
func (s *SessionStore) DeleteExpiredSessions() error {
	return s.db.Delete(&SessionModel{}, "expires_at < ?", time.Now()).Error
}

// =============================================================================
// VerificationTokenStore
// =============================================================================

// TokenStore implements sessionkit.VerificationTokenStore using GORM
type TokenStore struct {
	db *gorm.DB
}

func NewTokenStore(db *gorm.DB) *TokenStore {
	return &TokenStore{db: db}
}

func (s *TokenStore) InsertToken(token *sk.VerificationToken) error {
	return s.db.Create(TokenToModel(token)).Error
}

func (s *TokenStore) GetToken(identifier string) (*sk.VerificationToken, error) {
	var model VerificationTokenModel
	if err := s.db.First(&model, "identifier = ?", identifier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sk.ErrTokenNotFound
		}
		return nil, err
	}
	return model.ToToken(), nil
}

func (s *TokenStore) DeleteToken(identifier string) error {
	return s.db.Delete(&VerificationTokenModel{}, "identifier = ?", identifier).Error
}

// DeleteExpiredTokens removes records whose expiry has passed
func (s *TokenStore) DeleteExpiredTokens() error {
	return s.db.Delete(&VerificationTokenModel{}, "expires_at < ?", time.Now()).Error
}
