package stores

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sk "github.com/rishabhk/sessionkit"
)

// FSSessionStore stores sessions as JSON files keyed by their opaque id
type FSSessionStore struct {
	StoragePath string
}

func NewFSSessionStore(storagePath string) *FSSessionStore {
	return &FSSessionStore{StoragePath: storagePath}
}

func (s *FSSessionStore) sessionPath(id string) string {
	return filepath.Join(s.StoragePath, "sessions", id+".json")
}

func (s *FSSessionStore) InsertSession(session *sk.Session) error {
	path := s.sessionPath(session.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomicFile(path, data)
}

func (s *FSSessionStore) GetSession(id string) (*sk.Session, error) {
	data, err := os.ReadFile(s.sessionPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, sk.ErrSessionNotFound
		}
		return nil, err
	}

	var session sk.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("corrupt session record: %w", err)
	}
	return &session, nil
}

func (s *FSSessionStore) UpdateSessionExpiry(id string, expiresAt time.Time) error {
	session, err := s.GetSession(id)
	if err != nil {
		return err
	}
	session.ExpiresAt = expiresAt
	return s.InsertSession(session)
}

func (s *FSSessionStore) DeleteSession(id string) error {
	err := os.Remove(s.sessionPath(id))
	if os.IsNotExist(err) {
		return nil // Already deleted
	}
	return err
}
