// Package credfile loads account credentials from the two on-disk
// sources: a login:password accounts file paired with a directory of
// authenticator secret files, and a directory of saved session files.
// Bad records are skipped with a warning; loading carries on with the
// rest.
package credfile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/avdeev/steamloot/internal/domain"
)

// secretFile mirrors the authenticator export (maFile) fields we need.
type secretFile struct {
	AccountName    string `json:"account_name"`
	SharedSecret   string `json:"shared_secret"`
	IdentitySecret string `json:"identity_secret"`
	DeviceID       string `json:"device_id"`
}

// sessionFile is a saved session produced by account-registration
// tooling; it carries enough to skip the interactive login.
type sessionFile struct {
	Username       string `json:"Username"`
	Password       string `json:"Password"`
	SteamID        string `json:"SteamId"`
	RefreshToken   string `json:"RefreshToken"`
	SharedSecret   string `json:"SharedSecret"`
	IdentitySecret string `json:"IdentitySecret"`
}

type Loader struct {
	logger *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load merges both credential sources into one ordered list: session
// files first, then the accounts file. Order is preserved so runs are
// reproducible.
func (l *Loader) Load(accountsPath, secretsDir, sessionsDir string) ([]domain.Credentials, error) {
	var loaded []domain.Credentials

	if sessionsDir != "" {
		fromSessions, err := l.loadSessions(sessionsDir)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, fromSessions...)
	}

	if accountsPath != "" && secretsDir != "" {
		fromAccounts, err := l.loadAccounts(accountsPath, secretsDir)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, fromAccounts...)
	}

	return loaded, nil
}

func (l *Loader) loadSessions(dir string) ([]domain.Credentials, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read sessions directory: %w", err)
	}

	var loaded []domain.Credentials
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".steamsession") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			l.logger.Warn("skipping unreadable session file", "path", path, "error", err)
			continue
		}

		var session sessionFile
		if err := json.Unmarshal(data, &session); err != nil {
			l.logger.Warn("skipping invalid session file", "path", path, "error", err)
			continue
		}

		credentials := domain.Credentials{
			Login:          session.Username,
			Password:       session.Password,
			SharedSecret:   session.SharedSecret,
			IdentitySecret: session.IdentitySecret,
			RefreshToken:   session.RefreshToken,
		}
		if session.SteamID != "" {
			steamID, err := domain.ParseSteamID64(session.SteamID)
			if err != nil {
				l.logger.Warn("skipping session file with bad steam id", "path", path, "error", err)
				continue
			}
			credentials.SteamID = steamID
		}

		if err := credentials.Validate(); err != nil {
			l.logger.Warn("skipping incomplete session file", "path", path, "error", err)
			continue
		}

		loaded = append(loaded, credentials)
	}

	return loaded, nil
}

func (l *Loader) loadAccounts(accountsPath, secretsDir string) ([]domain.Credentials, error) {
	secrets, err := l.loadSecrets(secretsDir)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(accountsPath)
	if err != nil {
		return nil, fmt.Errorf("open accounts file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var loaded []domain.Credentials

	lineNumber := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNumber++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		login, password, ok := strings.Cut(line, ":")
		if !ok || login == "" || password == "" {
			l.logger.Warn("skipping malformed account line", "line", lineNumber)
			continue
		}

		secret, ok := secrets[strings.ToLower(login)]
		if !ok {
			l.logger.Warn("no secret file for account", "login", login)
			continue
		}

		loaded = append(loaded, domain.Credentials{
			Login:          login,
			Password:       password,
			SharedSecret:   secret.SharedSecret,
			IdentitySecret: secret.IdentitySecret,
			DeviceID:       secret.DeviceID,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read accounts file: %w", err)
	}

	return loaded, nil
}

// loadSecrets indexes the secret directory by lowercased account name.
// A file without an account_name falls back to its own base name.
func (l *Loader) loadSecrets(dir string) (map[string]secretFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read secrets directory: %w", err)
	}

	secrets := make(map[string]secretFile, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			l.logger.Warn("skipping unreadable secret file", "path", path, "error", err)
			continue
		}

		var secret secretFile
		if err := json.Unmarshal(data, &secret); err != nil {
			l.logger.Warn("skipping invalid secret file", "path", path, "error", err)
			continue
		}

		if secret.SharedSecret == "" || secret.IdentitySecret == "" || secret.DeviceID == "" {
			l.logger.Warn("secret file missing shared_secret, identity_secret or device_id", "path", path)
			continue
		}

		if secret.AccountName == "" {
			name := entry.Name()
			secret.AccountName = strings.TrimSuffix(name, filepath.Ext(name))
		}

		secrets[strings.ToLower(secret.AccountName)] = secret
	}

	return secrets, nil
}
