package shared

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TokenStore persists the single bearer token used for all authenticated
// requests. The token lives in one file; Clear removes it on logout or when
// validation against the backend fails.
type TokenStore struct {
	path string
}

// NewTokenStore creates a TokenStore backed by the file at path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the file path backing the store.
func (s *TokenStore) Path() string {
	return s.path
}

// Save writes the token, creating parent directories as needed.
func (s *TokenStore) Save(token string) error {
	if token == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidArgument)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	if err := os.WriteFile(s.path, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}

	return nil
}

// Load reads the stored token. Returns [ErrNoToken] when no token has been saved.
func (s *TokenStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoToken
	}

	return token, nil
}

// Clear removes the stored token. Clearing an already-empty store is not an error.
func (s *TokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}
