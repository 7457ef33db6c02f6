package zoho

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTokenStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store := NewFileTokenStore(path)

	rec := &TokenRecord{
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		ExpiresAt:    time.Date(2024, 3, 15, 11, 0, 0, 0, time.UTC),
		ClientID:     "client-1",
	}
	require.NoError(t, store.Save(rec))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, rec, loaded)
}

func TestFileTokenStore_MissingFile(t *testing.T) {
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "absent.json"))

	rec, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFileTokenStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileTokenStore(path).Load()
	require.Error(t, err)
}

func TestFileTokenStore_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, NewFileTokenStore(path).Save(&TokenRecord{AccessToken: "at"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestTokenRecord_Usable(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		rec  *TokenRecord
		want bool
	}{
		{"nil record", nil, false},
		{"valid", &TokenRecord{AccessToken: "at", ExpiresAt: now.Add(time.Minute)}, true},
		{"expired", &TokenRecord{AccessToken: "at", ExpiresAt: now.Add(-time.Minute)}, false},
		{"expires exactly now", &TokenRecord{AccessToken: "at", ExpiresAt: now}, false},
		{"no access token", &TokenRecord{ExpiresAt: now.Add(time.Minute)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.Usable(now))
		})
	}
}
