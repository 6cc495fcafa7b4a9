package gorm

import (
	"time"

	sk "github.com/rishabhk/sessionkit"
)

// UserModel is the GORM model for users
type UserModel struct {
	ID           string    `gorm:"primaryKey;size:64"`
	GoogleID     *string   `gorm:"uniqueIndex;size:255"`
	Email        string    `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash *string   `gorm:"size:512"`
	Name         string    `gorm:"size:255"`
	Nickname     string    `gorm:"size:255"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToUser() *sk.User {
	return &sk.User{
		ID:           m.ID,
		GoogleID:     m.GoogleID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Name:         m.Name,
		Nickname:     m.Nickname,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func UserToModel(u *sk.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		GoogleID:     u.GoogleID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Nickname:     u.Nickname,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// SessionModel is the GORM model for sessions
type SessionModel struct {
	ID        string    `gorm:"primaryKey;size:128"`
	UserID    string    `gorm:"size:64;index;not null"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (SessionModel) TableName() string {
	return "sessions"
}

func (m *SessionModel) ToSession() *sk.Session {
	return &sk.Session{
		ID:        m.ID,
		UserID:    m.UserID,
		ExpiresAt: m.ExpiresAt,
	}
}

func SessionToModel(s *sk.Session) *SessionModel {
	return &SessionModel{
		ID:        s.ID,
		UserID:    s.UserID,
		ExpiresAt: s.ExpiresAt,
	}
}

// VerificationTokenModel is the GORM model for magic-link records
type VerificationTokenModel struct {
	Identifier string    `gorm:"primaryKey;size:128"`
	Token      string    `gorm:"size:1024;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	ExpiresAt  time.Time `gorm:"index"`
}

func (VerificationTokenModel) TableName() string {
	return "verification_tokens"
}

func (m *VerificationTokenModel) ToToken() *sk.VerificationToken {
	return &sk.VerificationToken{
		Identifier: m.Identifier,
		Token:      m.Token,
		CreatedAt:  m.CreatedAt,
		ExpiresAt:  m.ExpiresAt,
	}
}

func TokenToModel(t *sk.VerificationToken) *VerificationTokenModel {
	return &VerificationTokenModel{
		Identifier: t.Identifier,
		Token:      t.Token,
		CreatedAt:  t.CreatedAt,
		ExpiresAt:  t.ExpiresAt,
	}
}
