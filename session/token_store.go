// ABOUTME: Persistence of the Google session between runs
// ABOUTME: Token, granted scopes and connected services are kept in one 0600 JSON file
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
)

// StoredSession is what survives a restart.
type StoredSession struct {
	Token     *oauth2.Token `json:"token"`
	Scopes    []string      `json:"scopes,omitempty"`
	Connected []Service     `json:"connected,omitempty"`
	Email     string        `json:"email,omitempty"`
}

// TokenStore loads and saves the session. Load returns nil, nil when nothing is stored.
type TokenStore interface {
	Load() (*StoredSession, error)
	Save(*StoredSession) error
	Clear() error
}

// DefaultTokenPath returns XDG-compliant path for storing OAuth tokens.
func DefaultTokenPath() string {
	return filepath.Join(xdg.DataHome, "bizcrm", "google-session.json")
}

// FileTokenStore keeps the session in a JSON file.
type FileTokenStore struct {
	Path string
}

// NewFileTokenStore returns a store at path, or DefaultTokenPath when empty.
func NewFileTokenStore(path string) *FileTokenStore {
	if path == "" {
		path = DefaultTokenPath()
	}
	return &FileTokenStore{Path: path}
}

// Save writes the session with restricted permissions.
func (s *FileTokenStore) Save(sess *StoredSession) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(s.Path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(sess); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

// Load reads the session file.
func (s *FileTokenStore) Load() (*StoredSession, error) {
	f, err := os.Open(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sess StoredSession
	if err := json.NewDecoder(f).Decode(&sess); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &sess, nil
}

// Clear removes the session file.
func (s *FileTokenStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
