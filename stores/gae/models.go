//go:build !wasm
// +build !wasm

package gae

import (
	"time"

	"cloud.google.com/go/datastore"

	sk "github.com/rishabhk/sessionkit"
)

// UserEntity is the Datastore entity for users. Key is the user id.
type UserEntity struct {
	Key          *datastore.Key `datastore:"__key__"`
	GoogleID     string         `datastore:"google_id"`
	Email        string         `datastore:"email"`
	PasswordHash string         `datastore:"password_hash,noindex"`
	Name         string         `datastore:"name,noindex"`
	Nickname     string         `datastore:"nickname,noindex"`
	CreatedAt    time.Time      `datastore:"created_at"`
	UpdatedAt    time.Time      `datastore:"updated_at"`
}

func (e *UserEntity) ToUser() *sk.User {
	user := &sk.User{
		ID:        e.Key.Name,
		Email:     e.Email,
		Name:      e.Name,
		Nickname:  e.Nickname,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if e.GoogleID != "" {
		googleId := e.GoogleID
		user.GoogleID = &googleId
	}
	if e.PasswordHash != "" {
		hash := e.PasswordHash
		user.PasswordHash = &hash
	}
	return user
}

func UserToEntity(u *sk.User, key *datastore.Key) *UserEntity {
	entity := &UserEntity{
		Key:       key,
		Email:     u.Email,
		Name:      u.Name,
		Nickname:  u.Nickname,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.GoogleID != nil {
		entity.GoogleID = *u.GoogleID
	}
	if u.PasswordHash != nil {
		entity.PasswordHash = *u.PasswordHash
	}
	return entity
}

// UserEmailEntity maps an email to a user id. Key is the lowercased email,
// so reserving it enforces email uniqueness.
type UserEmailEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	UserID    string         `datastore:"user_id"`
	CreatedAt time.Time      `datastore:"created_at"`
}

// UserGoogleIDEntity maps a Google subject to a user id. Key is the subject.
type UserGoogleIDEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	UserID    string         `datastore:"user_id"`
	CreatedAt time.Time      `datastore:"created_at"`
}

// SessionEntity is the Datastore entity for sessions. Key is the session token.
type SessionEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	UserID    string         `datastore:"user_id"`
	ExpiresAt time.Time      `datastore:"expires_at"`
}

func (e *SessionEntity) ToSession() *sk.Session {
	return &sk.Session{
		ID:        e.Key.Name,
		UserID:    e.UserID,
		ExpiresAt: e.ExpiresAt,
	}
}

// MagicLinkEntity is the Datastore entity for magic-link records.
// Key is the link identifier.
type MagicLinkEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	Token     string         `datastore:"token,noindex"`
	CreatedAt time.Time      `datastore:"created_at"`
	ExpiresAt time.Time      `datastore:"expires_at"`
}

func (e *MagicLinkEntity) ToToken() *sk.VerificationToken {
	return &sk.VerificationToken{
		Identifier: e.Key.Name,
		Token:      e.Token,
		CreatedAt:  e.CreatedAt,
		ExpiresAt:  e.ExpiresAt,
	}
}
