//go:build !wasm
// +build !wasm

package gae

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"

	sk "github.com/rishabhk/sessionkit"
)

// Kind constants for Datastore entities
const (
	KindUser         = "User"
	KindUserEmail    = "UserEmail"
	KindUserGoogleID = "UserGoogleID"
	KindSession      = "Session"
	KindMagicLink    = "MagicLink"
)

// ============================================================================
// UserStore
// ============================================================================

// UserStore implements sessionkit.UserStore using Google Cloud Datastore
type UserStore struct {
	client    *datastore.Client
	namespace string
	ctx       context.Context
}

// NewUserStore creates a new Datastore-backed UserStore
func NewUserStore(client *datastore.Client, namespace string) *UserStore {
	return &UserStore{
		client:    client,
		namespace: namespace,
		ctx:       context.Background(),
	}
}

// WithContext returns a copy of the store with the given context
func (s *UserStore) WithContext(ctx context.Context) *UserStore {
	return &UserStore{
		client:    s.client,
		namespace: s.namespace,
		ctx:       ctx,
	}
}

func (s *UserStore) namespacedKey(kind, name string) *datastore.Key {
	key := datastore.NameKey(kind, name, nil)
	key.Namespace = s.namespace
	return key
}

func normalizeEmail(email string) string {
	return strings.ToLower(email)
}

// InsertUser writes the user and reserves its email (and Google id, when set)
// in one transaction. A reservation that already belongs to another user
// aborts the transaction with ErrUserExists.
func (s *UserStore) InsertUser(user *sk.User) error {
	userKey := s.namespacedKey(KindUser, user.ID)
	emailKey := s.namespacedKey(KindUserEmail, normalizeEmail(user.Email))

	_, err := s.client.RunInTransaction(s.ctx, func(tx *datastore.Transaction) error {
		var existing UserEmailEntity
		err := tx.Get(emailKey, &existing)
		if err == nil {
			return sk.ErrUserExists
		}
		if err != datastore.ErrNoSuchEntity {
			return err
		}

		now := time.Now()
		if _, err := tx.Put(emailKey, &UserEmailEntity{
			Key:       emailKey,
			UserID:    user.ID,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		if user.GoogleID != nil {
			googleKey := s.namespacedKey(KindUserGoogleID, *user.GoogleID)
			var existingGoogle UserGoogleIDEntity
			err := tx.Get(googleKey, &existingGoogle)
			if err == nil {
				return sk.ErrUserExists
			}
			if err != datastore.ErrNoSuchEntity {
				return err
			}
			if _, err := tx.Put(googleKey, &UserGoogleIDEntity{
				Key:       googleKey,
				UserID:    user.ID,
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}

		_, err = tx.Put(userKey, UserToEntity(user, userKey))
		return err
	})
	return err
}

func (s *UserStore) GetUserByID(userId string) (*sk.User, error) {
	key := s.namespacedKey(KindUser, userId)
	var entity UserEntity
	if err := s.client.Get(s.ctx, key, &entity); err != nil {
		if err == datastore.ErrNoSuchEntity {
			return nil, sk.ErrUserNotFound
		}
		return nil, err
	}
	entity.Key = key
	return entity.ToUser(), nil
}

func (s *UserStore) GetUserByEmail(email string) (*sk.User, error) {
	key := s.namespacedKey(KindUserEmail, normalizeEmail(email))
	var mapping UserEmailEntity
	if err := s.client.Get(s.ctx, key, &mapping); err != nil {
		if err == datastore.ErrNoSuchEntity {
			return nil, sk.ErrUserNotFound
		}
		return nil, err
	}
	return s.GetUserByID(mapping.UserID)
}

func (s *UserStore) GetUserByGoogleID(googleId string) (*sk.User, error) {
	key := s.namespacedKey(KindUserGoogleID, googleId)
	var mapping UserGoogleIDEntity
	if err := s.client.Get(s.ctx, key, &mapping); err != nil {
		if err == datastore.ErrNoSuchEntity {
			return nil, sk.ErrUserNotFound
		}
		return nil, err
	}
	return s.GetUserByID(mapping.UserID)
}

// ============================================================================
// SessionStore
// ============================================================================

// SessionStore implements sessionkit.SessionStore using Google Cloud Datastore
type SessionStore struct {
	client    *datastore.Client
	namespace string
	ctx       context.Context
}

// NewSessionStore creates a new Datastore-backed SessionStore
func NewSessionStore(client *datastore.Client, namespace string) *SessionStore {
	return &SessionStore{
		client:    client,
		namespace: namespace,
		ctx:       context.Background(),
	}
}

func (s *SessionStore) WithContext(ctx context.Context) *SessionStore {
	return &SessionStore{
		client:    s.client,
		namespace: s.namespace,
		ctx:       ctx,
	}
}

func (s *SessionStore) namespacedKey(kind, name string) *datastore.Key {
	key := datastore.NameKey(kind, name, nil)
	key.Namespace = s.namespace
	return key
}

func (s *SessionStore) InsertSession(session *sk.Session) error {
	key := s.namespacedKey(KindSession, session.ID)
	entity := &SessionEntity{
		Key:       key,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
	}
	_, err := s.client.Put(s.ctx, key, entity)
	return err
}

func (s *SessionStore) GetSession(id string) (*sk.Session, error) {
	key := s.namespacedKey(KindSession, id)
	var entity SessionEntity
	if err := s.client.Get(s.ctx, key, &entity); err != nil {
		if err == datastore.ErrNoSuchEntity {
			return nil, sk.ErrSessionNotFound
		}
		return nil, err
	}
	entity.Key = key
	return entity.ToSession(), nil
}

func (s *SessionStore) UpdateSessionExpiry(id string, expiresAt time.Time) error {
	key := s.namespacedKey(KindSession, id)

	_, err := s.client.RunInTransaction(s.ctx, func(tx *datastore.Transaction) error {
		var entity SessionEntity
		if err := tx.Get(key, &entity); err != nil {
			if err == datastore.ErrNoSuchEntity {
				return sk.ErrSessionNotFound
			}
			return err
		}
		entity.Key = key
		entity.ExpiresAt = expiresAt
		_, err := tx.Put(key, &entity)
		return err
	})
	return err
}

func (s *SessionStore) DeleteSession(id string) error {
	key := s.namespacedKey(KindSession, id)
	return s.client.Delete(s.ctx, key)
}

// DeleteUserSessions removes every session belonging to a user
func (s *SessionStore) DeleteUserSessions(userId string) error {
	query := datastore.NewQuery(KindSession).
		FilterField("user_id", "=", userId).
		KeysOnly()
	if s.namespace != "" {
		query = query.Namespace(s.namespace)
	}

	keys, err := s.client.GetAll(s.ctx, query, nil)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.DeleteMulti(s.ctx, keys)
}

// DeleteExpiredSessions removes sessions whose expiry has passed
func (s *SessionStore) DeleteExpiredSessions() error {
	query := datastore.NewQuery(KindSession).
		FilterField("expires_at", "<", time.Now()).
		KeysOnly()
	if s.namespace != "" {
		query = query.Namespace(s.namespace)
	}

	var keys []*datastore.Key
	it := s.client.Run(s.ctx, query)
	for {
		key, err := it.Next(nil)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return err
		}
		keys = append(keys, key)
	}

	if len(keys) == 0 {
		return nil
	}
	return s.client.DeleteMulti(s.ctx, keys)
}

// ============================================================================
// TokenStore
// ============================================================================

// TokenStore implements sessionkit.VerificationTokenStore using Google Cloud Datastore
type TokenStore struct {
	client    *datastore.Client
	namespace string
	ctx       context.Context
}

// NewTokenStore creates a new Datastore-backed TokenStore
func NewTokenStore(client *datastore.Client, namespace string) *TokenStore {
	return &TokenStore{
		client:    client,
		namespace: namespace,
		ctx:       context.Background(),
	}
}

func (s *TokenStore) WithContext(ctx context.Context) *TokenStore {
	return &TokenStore{
		client:    s.client,
		namespace: s.namespace,
		ctx:       ctx,
	}
}

func (s *TokenStore) namespacedKey(kind, name string) *datastore.Key {
	key := datastore.NameKey(kind, name, nil)
	key.Namespace = s.namespace
	return key
}

func (s *TokenStore) InsertToken(token *sk.VerificationToken) error {
	key := s.namespacedKey(KindMagicLink, token.Identifier)
	entity := &MagicLinkEntity{
		Key:       key,
		Token:     token.Token,
		CreatedAt: token.CreatedAt,
		ExpiresAt: token.ExpiresAt,
	}
	_, err := s.client.Put(s.ctx, key, entity)
	return err
}

func (s *TokenStore) GetToken(identifier string) (*sk.VerificationToken, error) {
	key := s.namespacedKey(KindMagicLink, identifier)
	var entity MagicLinkEntity
	if err := s.client.Get(s.ctx, key, &entity); err != nil {
		if err == datastore.ErrNoSuchEntity {
			return nil, sk.ErrTokenNotFound
		}
		return nil, err
	}
	entity.Key = key

	token := entity.ToToken()
	if token.IsExpired() {
		_ = s.DeleteToken(identifier)
		return nil, sk.ErrTokenNotFound
	}
	return token, nil
}

func (s *TokenStore) DeleteToken(identifier string) error {
	key := s.namespacedKey(KindMagicLink, identifier)
	return s.client.Delete(s.ctx, key)
}
