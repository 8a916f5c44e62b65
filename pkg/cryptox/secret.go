package cryptox

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LoadOrCreateSecret reads a base64url secret from path, generating and
// persisting a fresh one of size random bytes when the file does not exist.
// The password pepper and the HS256 signing secret are both kept this way.
func LoadOrCreateSecret(path string, size int) (string, error) {
	if path == "" {
		return "", errors.New("cryptox: secret path is empty")
	}
	path = filepath.Clean(path)

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		secret := string(bytes.TrimSpace(raw))
		if secret == "" {
			return "", fmt.Errorf("cryptox: secret file %s is empty", path)
		}
		return secret, nil
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("cryptox: read secret: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("cryptox: create secret dir: %w", err)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: generate secret: %w", err)
	}
	secret := base64.RawURLEncoding.EncodeToString(buf)

	if err := os.WriteFile(path, []byte(secret), 0o600); err != nil {
		return "", fmt.Errorf("cryptox: write secret: %w", err)
	}
	return secret, nil
}
