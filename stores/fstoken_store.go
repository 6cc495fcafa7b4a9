package stores

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	sk "github.com/rishabhk/sessionkit"
)

// FSTokenStore stores magic-link verification records as JSON files
type FSTokenStore struct {
	StoragePath string
}

func NewFSTokenStore(storagePath string) *FSTokenStore {
	return &FSTokenStore{StoragePath: storagePath}
}

func (s *FSTokenStore) tokenPath(identifier string) string {
	return filepath.Join(s.StoragePath, "magic_links", identifier+".json")
}

func (s *FSTokenStore) InsertToken(token *sk.VerificationToken) error {
	path := s.tokenPath(token.Identifier)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomicFile(path, data)
}

func (s *FSTokenStore) GetToken(identifier string) (*sk.VerificationToken, error) {
	data, err := os.ReadFile(s.tokenPath(identifier))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, sk.ErrTokenNotFound
		}
		return nil, err
	}

	var token sk.VerificationToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("corrupt token record: %w", err)
	}

	if token.IsExpired() {
		// Auto-delete expired token
		_ = s.DeleteToken(identifier)
		return nil, sk.ErrTokenNotFound
	}

	return &token, nil
}

func (s *FSTokenStore) DeleteToken(identifier string) error {
	err := os.Remove(s.tokenPath(identifier))
	if os.IsNotExist(err) {
		return nil // Already deleted
	}
	return err
}
