package credfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/avdeev/steamloot/internal/domain"
)

// webSessionFile is the saved cookie snapshot written after a fresh
// login, one file per account.
type webSessionFile struct {
	SteamID     string `json:"SteamId"`
	SessionID   string `json:"SessionId"`
	AccessToken string `json:"AccessToken"`
}

// SessionWriter persists established web sessions into the sessions
// directory, creating it on first use.
type SessionWriter struct {
	dir string
}

func NewSessionWriter(dir string) *SessionWriter {
	return &SessionWriter{dir: dir}
}

func (w *SessionWriter) Save(login string, session domain.WebSession) error {
	if w.dir == "" {
		return nil
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create sessions directory: %w", err)
	}

	data, err := json.MarshalIndent(webSessionFile{
		SteamID:     session.SteamID.String(),
		SessionID:   session.SessionID,
		AccessToken: session.AccessToken,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	path := filepath.Join(w.dir, login+".steamweb")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}

	return nil
}
