package stores

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	sk "github.com/rishabhk/sessionkit"
)

// FSUserStore stores users as JSON files. Email and provider-id uniqueness
// is enforced with exclusively-created index files mapping the unique value
// to the user id, so a duplicate insert loses at the filesystem level even
// when two requests race past an existence check.
type FSUserStore struct {
	StoragePath string
}

func NewFSUserStore(storagePath string) *FSUserStore {
	return &FSUserStore{StoragePath: storagePath}
}

func (s *FSUserStore) userPath(userId string) string {
	return filepath.Join(s.StoragePath, "users", userId+".json")
}

func (s *FSUserStore) emailIndexPath(email string) string {
	return filepath.Join(s.StoragePath, "user_emails", encodeKey(email)+".json")
}

func (s *FSUserStore) googleIndexPath(googleId string) string {
	return filepath.Join(s.StoragePath, "user_google_ids", encodeKey(googleId)+".json")
}

type userIndexEntry struct {
	UserID string `json:"user_id"`
}

func (s *FSUserStore) InsertUser(user *sk.User) error {
	for _, dir := range []string{"users", "user_emails", "user_google_ids"} {
		if err := os.MkdirAll(filepath.Join(s.StoragePath, dir), 0755); err != nil {
			return err
		}
	}

	indexData, err := json.Marshal(userIndexEntry{UserID: user.ID})
	if err != nil {
		return err
	}

	// Reserve the email first - this is the uniqueness authority
	if err := createExclusiveFile(s.emailIndexPath(user.Email), indexData); err != nil {
		if os.IsExist(err) {
			return sk.ErrUserExists
		}
		return err
	}

	if user.GoogleID != nil {
		if err := createExclusiveFile(s.googleIndexPath(*user.GoogleID), indexData); err != nil {
			os.Remove(s.emailIndexPath(user.Email))
			if os.IsExist(err) {
				return sk.ErrUserExists
			}
			return err
		}
	}

	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return err
	}
	if err := writeAtomicFile(s.userPath(user.ID), data); err != nil {
		os.Remove(s.emailIndexPath(user.Email))
		if user.GoogleID != nil {
			os.Remove(s.googleIndexPath(*user.GoogleID))
		}
		return err
	}
	return nil
}

func (s *FSUserStore) GetUserByID(userId string) (*sk.User, error) {
	data, err := os.ReadFile(s.userPath(userId))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, sk.ErrUserNotFound
		}
		return nil, err
	}

	var user sk.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("corrupt user record %s: %w", userId, err)
	}
	return &user, nil
}

func (s *FSUserStore) GetUserByEmail(email string) (*sk.User, error) {
	return s.lookupViaIndex(s.emailIndexPath(email))
}

func (s *FSUserStore) GetUserByGoogleID(googleId string) (*sk.User, error) {
	return s.lookupViaIndex(s.googleIndexPath(googleId))
}

func (s *FSUserStore) lookupViaIndex(indexPath string) (*sk.User, error) {
	data, err := os.ReadFile(indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, sk.ErrUserNotFound
		}
		return nil, err
	}

	var entry userIndexEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("corrupt user index %s: %w", indexPath, err)
	}
	return s.GetUserByID(entry.UserID)
}
