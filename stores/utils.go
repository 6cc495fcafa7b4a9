package stores

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	sk "github.com/rishabhk/sessionkit"
)

// writeAtomicFile writes data to a file atomically by writing to a temp file
// first. Failures surface as sessionkit.ErrStorageError.
func writeAtomicFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", sk.ErrStorageError, err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to write to temp file: %v", sk.ErrStorageError, err)
	}

	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to close temp file: %v", sk.ErrStorageError, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to rename temp file: %v", sk.ErrStorageError, err)
	}

	return nil
}

// createExclusiveFile writes data to a new file, failing with os.ErrExist if
// the file already exists. This is what makes fs-level uniqueness reservations
// safe under concurrency.
func createExclusiveFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// encodeKey makes an arbitrary unique value (eg an email address) safe to
// use as a file name.
func encodeKey(value string) string {
	return hex.EncodeToString([]byte(value))
}
