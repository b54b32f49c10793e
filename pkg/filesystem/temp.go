package filesystem

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const tempAttempts = 5

// TempDir creates a fresh directory under root (os.TempDir() when empty)
// whose name is prefix followed by 16 cryptographically random hex
// characters. The caller owns the directory and must remove it.
func TempDir(fs afero.Fs, root, prefix string) (string, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := fs.MkdirAll(root, DirPerm); err != nil {
		return "", fmt.Errorf("failed to prepare temp root %s: %w", root, err)
	}

	var lastErr error
	for i := 0; i < tempAttempts; i++ {
		name, err := RandomName(prefix)
		if err != nil {
			return "", err
		}
		dir := filepath.Join(root, name)

		// Mkdir (not MkdirAll) so an existing name is reported, not reused.
		err = fs.Mkdir(dir, 0700)
		if err == nil {
			return dir, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("failed to create temp directory: %w", err)
		}
		lastErr = err
	}
	return "", fmt.Errorf("failed to create unique temp directory after %d attempts: %w", tempAttempts, lastErr)
}

// RandomName returns prefix followed by 16 random hex characters.
func RandomName(prefix string) (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return prefix + hex.EncodeToString(b), nil
}

// RemoveTemp removes a temp directory created by TempDir. Removal is best
// effort; the error is returned for logging only.
func RemoveTemp(fs afero.Fs, dir string) error {
	if dir == "" {
		return nil
	}
	return fs.RemoveAll(dir)
}
