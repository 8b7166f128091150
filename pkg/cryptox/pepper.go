package cryptox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Configuration for Argon2id hashing.
const (
	memory      = 19 * 1024 // Memory usage in KiB (19 MiB)
	iterations  = 2         // Iteration count
	parallelism = 1         // Number of threads
	keyLength   = 32        // Length of the generated hash
	saltLength  = 16        // Length of the salt
)

// LoadOrGeneratePepper reads the pepper stored at path, generating and
// persisting a new one (0600) when the file does not exist yet.
func LoadOrGeneratePepper(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("cryptox: pepper path is empty")
	}

	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", fmt.Errorf("cryptox: create pepper dir: %w", err)
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		pepper := strings.TrimSpace(string(raw))
		if pepper == "" {
			return "", fmt.Errorf("cryptox: pepper file %s is empty", path)
		}
		return pepper, nil
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("cryptox: read pepper: %w", err)
	}

	pepper, err := GenerateToken(keyLength)
	if err != nil {
		return "", err
	}

	// O_EXCL so two processes racing on first start agree on one pepper.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, os.ErrExist) {
		return LoadOrGeneratePepper(path)
	}
	if err != nil {
		return "", fmt.Errorf("cryptox: write pepper: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(pepper); err != nil {
		return "", fmt.Errorf("cryptox: write pepper: %w", err)
	}
	return pepper, nil
}
