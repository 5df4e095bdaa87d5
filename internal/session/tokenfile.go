package session

import (
	"os"
	"path/filepath"
	"strings"
)

// TokenFile persists the session cookie value between CLI invocations so a
// login survives the process. The file holds only the opaque token, mode
// 0600.
type TokenFile struct {
	path string
}

func NewTokenFile(path string) *TokenFile {
	return &TokenFile{path: path}
}

// Load returns the saved token, or "" when none is stored.
func (t *TokenFile) Load() string {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Save writes the token; an empty token removes the file.
func (t *TokenFile) Save(token string) error {
	if token == "" {
		if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(t.path, []byte(token+"\n"), 0o600)
}
