// Package auth stores and verifies the catalog client credentials.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "genrelay"
	secretFileName = "catalog_secret"
	secretFileMode = 0600
)

// SecretStore keeps the catalog client secret in the OS keychain, falling
// back to a file in dir when no keychain is available.
type SecretStore struct {
	dir string
}

func NewSecretStore(dir string) *SecretStore {
	return &SecretStore{dir: dir}
}

func (s *SecretStore) filePath() string {
	return filepath.Join(s.dir, secretFileName)
}

// Save stores secret for clientID.
func (s *SecretStore) Save(clientID, secret string) error {
	if clientID == "" || secret == "" {
		return errors.New("client id and secret are required")
	}

	if err := keyring.Set(keyringService, clientID, secret); err != nil {
		slog.Warn("keychain unavailable, falling back to file", "error", err)
		return s.saveFile(secret)
	}

	// clean up legacy file if it exists
	os.Remove(s.filePath())
	return nil
}

// Get returns the secret for clientID.
func (s *SecretStore) Get(clientID string) (string, error) {
	if clientID == "" {
		return "", errors.New("client id is required")
	}

	secret, err := keyring.Get(keyringService, clientID)
	if err == nil && secret != "" {
		return secret, nil
	}

	secret, err = s.readFile()
	if err != nil {
		return "", err
	}

	// migrate to keychain
	if err := keyring.Set(keyringService, clientID, secret); err == nil {
		slog.Info("migrated catalog secret from file to OS keychain")
		os.Remove(s.filePath())
	}
	return secret, nil
}

// Delete removes the secret from both the keychain and the file.
func (s *SecretStore) Delete(clientID string) error {
	os.Remove(s.filePath())
	if err := keyring.Delete(keyringService, clientID); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("deleting secret from keychain: %w", err)
	}
	return nil
}

func (s *SecretStore) saveFile(secret string) error {
	if s.dir == "" {
		return errors.New("secret directory not set")
	}
	return os.WriteFile(s.filePath(), []byte(secret), secretFileMode)
}

func (s *SecretStore) readFile() (string, error) {
	if s.dir == "" {
		return "", errors.New("secret directory not set")
	}
	b, err := os.ReadFile(s.filePath())
	if err != nil {
		return "", fmt.Errorf("reading secret file %s: %w", s.filePath(), err)
	}
	return strings.TrimSpace(string(b)), nil
}
