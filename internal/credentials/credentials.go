// Package credentials reads and writes the OAuth token pair Claude Code keeps
// in ~/.claude/.credentials.json.
package credentials

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ExpiryBuffer is how far ahead of the real expiry a token is treated as
// expired, so a refresh never races a fetch against a dying token.
const ExpiryBuffer = 5 * time.Minute

const oauthKey = "claudeAiOauth"

var (
	ErrNotFound = errors.New("credentials not found")
	ErrParse    = errors.New("credentials parse error")
)

type Credentials struct {
	AccessToken  string
	RefreshToken string
	// ExpiresAt is an absolute epoch timestamp in milliseconds.
	ExpiresAt int64
}

// IsExpired reports whether c expires within bufferMs of nowMs. The buffer
// is inclusive.
func IsExpired(c Credentials, nowMs, bufferMs int64) bool {
	return c.ExpiresAt <= nowMs+bufferMs
}

// Expired applies IsExpired with ExpiryBuffer.
func (c Credentials) Expired(now time.Time) bool {
	return IsExpired(c, now.UnixMilli(), ExpiryBuffer.Milliseconds())
}

func (c Credentials) ExpiresIn(now time.Time) time.Duration {
	return time.UnixMilli(c.ExpiresAt).Sub(now)
}

// DefaultPath returns $HOME/.claude/.credentials.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, ".claude", ".credentials.json"), nil
}

type Store struct {
	Path string
}

// NewStore returns a store for path, or for DefaultPath when path is empty.
func NewStore(path string) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &Store{Path: path}, nil
}

type oauthFields struct {
	AccessToken  *string `json:"accessToken"`
	RefreshToken *string `json:"refreshToken"`
	ExpiresAt    *int64  `json:"expiresAt"`
}

func (s *Store) Read() (Credentials, error) {
	data, err := s.readFile()
	if err != nil {
		return Credentials{}, err
	}

	var doc struct {
		OAuth *oauthFields `json:"claudeAiOauth"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if doc.OAuth == nil {
		return Credentials{}, fmt.Errorf("%w: missing %s", ErrParse, oauthKey)
	}

	o := doc.OAuth
	switch {
	case o.AccessToken == nil:
		return Credentials{}, fmt.Errorf("%w: missing accessToken", ErrParse)
	case o.RefreshToken == nil:
		return Credentials{}, fmt.Errorf("%w: missing refreshToken", ErrParse)
	case o.ExpiresAt == nil:
		return Credentials{}, fmt.Errorf("%w: missing expiresAt", ErrParse)
	}

	return Credentials{
		AccessToken:  *o.AccessToken,
		RefreshToken: *o.RefreshToken,
		ExpiresAt:    *o.ExpiresAt,
	}, nil
}

// Write replaces the token fields of the existing document with c. Every
// other field, nested or top-level, is kept. The document must already
// exist.
func (s *Store) Write(c Credentials) error {
	data, err := s.readFile()
	if err != nil {
		return err
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	if doc == nil {
		return fmt.Errorf("%w: document is null", ErrParse)
	}

	oauth := map[string]json.RawMessage{}
	if raw, ok := doc[oauthKey]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &oauth); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrParse, oauthKey, err)
		}
	}

	for k, v := range map[string]any{
		"accessToken":  c.AccessToken,
		"refreshToken": c.RefreshToken,
		"expiresAt":    c.ExpiresAt,
	} {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		oauth[k] = b
	}

	b, err := json.Marshal(oauth)
	if err != nil {
		return err
	}
	doc[oauthKey] = b

	out, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.replace(out)
}

func (s *Store) readFile() ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.Path)
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNotFound, s.Path)
	}
	return data, nil
}

// replace writes data to a temp file beside the target and renames it over
// the target, keeping its permissions. A symlinked path is resolved first so
// the link survives and the file it points at is the one replaced.
func (s *Store) replace(data []byte) error {
	target, err := filepath.EvalSymlinks(s.Path)
	if err != nil {
		return fmt.Errorf("resolve credentials path: %w", err)
	}

	mode := os.FileMode(0600)
	if fi, err := os.Stat(target); err == nil {
		mode = fi.Mode().Perm()
	}

	f, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := f.Chmod(mode); err != nil {
		f.Close()
		return fmt.Errorf("chmod temp: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("replace credentials: %w", err)
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
