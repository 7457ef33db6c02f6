package zoho

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
)

// TokenRecord is the persisted OAuth state for one Zoho client. It is
// rewritten whole on every issuance or refresh; no partial updates.
type TokenRecord struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	ClientID     string    `json:"client_id"`
}

// Usable reports whether the access token can still authorize calls at the
// given instant.
func (t *TokenRecord) Usable(now time.Time) bool {
	return t != nil && t.AccessToken != "" && t.ExpiresAt.After(now)
}

// TokenStore persists and loads the token record.
type TokenStore interface {
	// Load returns the stored record, or (nil, nil) when nothing is stored.
	Load() (*TokenRecord, error)
	Save(*TokenRecord) error
}

// FileTokenStore keeps the token record as a JSON file on disk.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore creates a file-backed token store at the given path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Load reads the token record from disk. A missing file is not an error.
func (s *FileTokenStore) Load() (*TokenRecord, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "zoho: read token file")
	}

	var rec TokenRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, eris.Wrap(err, "zoho: parse token file")
	}
	return &rec, nil
}

// Save replaces the stored record with the given one.
func (s *FileTokenStore) Save(rec *TokenRecord) error {
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return eris.Wrap(err, "zoho: marshal token record")
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return eris.Wrap(err, "zoho: write token file")
	}
	return nil
}
