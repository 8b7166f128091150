// Package tokenstore persists the single session token slot between runs.
package tokenstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aussiebroadwan/epicevents/pkg/jwtx"
)

// File keeps one token in a plain text file. Save overwrites, last writer wins.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: filepath.Clean(path)}
}

func (f *File) Path() string { return f.path }

// Save atomically replaces the slot with token. The file is only readable by
// the current user.
func (f *File) Save(token string) error {
	if !jwtx.Wellformed(token) {
		return errors.New("tokenstore: refusing to save a malformed token")
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("tokenstore: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("tokenstore: create temp: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("tokenstore: chmod: %w", err)
	}
	if _, err := tmp.WriteString(token); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("tokenstore: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tokenstore: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("tokenstore: replace: %w", err)
	}
	return nil
}

// Load returns the stored token. ok is false when the slot is missing, empty
// or does not hold something shaped like a token; err is reserved for I/O
// failures other than a missing file.
func (f *File) Load() (token string, ok bool, err error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("tokenstore: read: %w", err)
	}

	token = strings.TrimSpace(string(raw))
	if !jwtx.Wellformed(token) {
		return "", false, nil
	}
	return token, true, nil
}

// Delete empties the slot. Deleting an empty slot is not an error.
func (f *File) Delete() error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("tokenstore: delete: %w", err)
	}
	return nil
}
