package credfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdeev/steamloot/internal/domain"
)

func TestSessionWriterSave(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "sessions")
	writer := NewSessionWriter(dir)

	err := writer.Save("alice", domain.WebSession{
		SteamID:     76561197990000001,
		SessionID:   "aabbccddeeff",
		AccessToken: "token",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "alice.steamweb"))
	require.NoError(t, err)

	var saved webSessionFile
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, "76561197990000001", saved.SteamID)
	assert.Equal(t, "aabbccddeeff", saved.SessionID)
	assert.Equal(t, "token", saved.AccessToken)
}

func TestSessionWriterNoDirConfigured(t *testing.T) {
	t.Parallel()

	writer := NewSessionWriter("")
	require.NoError(t, writer.Save("alice", domain.WebSession{}))
}
