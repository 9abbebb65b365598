package steamapi

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdeev/steamloot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession(t *testing.T, handler http.Handler, creds domain.Credentials) *Session {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	session, err := NewSession(SessionConfig{
		Credentials:  creds,
		HTTPClient:   srv.Client(),
		Logger:       testLogger(),
		CommunityURL: srv.URL,
		StoreURL:     srv.URL,
		HelpURL:      srv.URL,
		LoginURL:     srv.URL,
		WebAPIURL:    srv.URL,
	})
	require.NoError(t, err)

	return session
}

func TestEnsureSessionAliveProbe(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/account", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusOK)
	})

	session := newTestSession(t, mux, domain.Credentials{Login: "alice"})
	session.installCookies("aabbccddeeff", "76561197990000001%7C%7Ctoken")
	session.current = domain.WebSession{
		SteamID:     76561197990000001,
		SessionID:   "aabbccddeeff",
		AccessToken: "token",
	}

	got, message, err := session.EnsureSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session alive", message)
	assert.Equal(t, session.current, got)
}

func TestEnsureSessionDeadWhenRedirectedToLogin(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/account", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Location", "/login/?redir=account")
		w.WriteHeader(http.StatusFound)
	})

	session := newTestSession(t, mux, domain.Credentials{Login: "alice"})
	session.installCookies("aabbccddeeff", "76561197990000001%7C%7Ctoken")
	session.current = domain.WebSession{
		SteamID:     76561197990000001,
		SessionID:   "aabbccddeeff",
		AccessToken: "token",
	}

	assert.False(t, session.alive(context.Background()))
}

func TestEnsureSessionRenewsThroughRefreshToken(t *testing.T) {
	t.Parallel()

	var transferHits int

	mux := http.NewServeMux()

	session := newTestSession(t, mux, domain.Credentials{
		Login:        "alice",
		RefreshToken: "refresh-jwt",
	})

	mux.HandleFunc("/jwt/finalizelogin", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "refresh-jwt", r.FormValue("nonce"))
		assert.Len(t, r.FormValue("sessionid"), 12)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"steamID": "76561197990000001",
			"transfer_info": []map[string]any{
				{
					"url":    session.communityURL + "/transfer",
					"params": map[string]string{"nonce": "n1", "auth": "a1"},
				},
			},
		})
	})
	mux.HandleFunc("/transfer", func(w http.ResponseWriter, r *http.Request) {
		transferHits++
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "76561197990000001", r.FormValue("steamID"))
		assert.Equal(t, "n1", r.FormValue("nonce"))
		assert.Equal(t, "a1", r.FormValue("auth"))

		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "feedfacecafe", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: "steamLoginSecure", Value: "76561197990000001%7C%7Cfresh-token", Path: "/"})
		w.WriteHeader(http.StatusOK)
	})

	got, message, err := session.EnsureSession(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "session renewed", message)
	assert.Equal(t, 1, transferHits)
	assert.Equal(t, domain.SteamID64(76561197990000001), got.SteamID)
	assert.Equal(t, "feedfacecafe", got.SessionID)
	assert.Equal(t, "fresh-token", got.AccessToken)
}

func TestEnsureSessionFullLogin(t *testing.T) {
	t.Parallel()

	key, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	var saved []string

	mux := http.NewServeMux()
	mux.HandleFunc("/login/getrsakey/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "alice", r.URL.Query().Get("username"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":       true,
			"publickey_mod": fmt.Sprintf("%x", key.N),
			"publickey_exp": fmt.Sprintf("%x", key.E),
			"timestamp":     "1234567",
		})
	})
	mux.HandleFunc("/login/dologin/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "alice", r.FormValue("username"))
		assert.Equal(t, "1234567", r.FormValue("rsatimestamp"))
		assert.Len(t, r.FormValue("twofactorcode"), 5)
		assert.NotEmpty(t, r.FormValue("password"))

		oauth, _ := json.Marshal(map[string]string{
			"steamid":        "76561197990000001",
			"oauth_token":    "oauth-token",
			"wgtoken_secure": "wg-secure",
		})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"oauth":   string(oauth),
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	session, err := NewSession(SessionConfig{
		Credentials: domain.Credentials{
			Login:        "alice",
			Password:     "hunter2",
			SharedSecret: testSharedSecret,
		},
		HTTPClient:   srv.Client(),
		Logger:       testLogger(),
		CommunityURL: srv.URL,
		StoreURL:     srv.URL,
		HelpURL:      srv.URL,
		LoginURL:     srv.URL,
		WebAPIURL:    srv.URL,
		SaveSession: func(login string, _ domain.WebSession) error {
			saved = append(saved, login)
			return nil
		},
	})
	require.NoError(t, err)

	got, message, err := session.EnsureSession(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "logged in", message)
	assert.Equal(t, domain.SteamID64(76561197990000001), got.SteamID)
	assert.Equal(t, "oauth-token", got.AccessToken)
	assert.Len(t, got.SessionID, 12)
	assert.Equal(t, []string{"alice"}, saved)
}

func TestEnsureSessionRejectedCredentialsAreNotRetried(t *testing.T) {
	t.Parallel()

	key, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	var loginAttempts int

	mux := http.NewServeMux()
	mux.HandleFunc("/login/getrsakey/", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":       true,
			"publickey_mod": fmt.Sprintf("%x", key.N),
			"publickey_exp": fmt.Sprintf("%x", key.E),
			"timestamp":     "1234567",
		})
	})
	mux.HandleFunc("/login/dologin/", func(w http.ResponseWriter, _ *http.Request) {
		loginAttempts++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "The account name or password that you have entered is incorrect.",
		})
	})

	session := newTestSession(t, mux, domain.Credentials{
		Login:        "alice",
		Password:     "wrong",
		SharedSecret: testSharedSecret,
	})

	_, _, err = session.EnsureSession(context.Background())
	require.ErrorIs(t, err, domain.ErrAuthRejected)
	assert.Equal(t, 1, loginAttempts)
}

func TestAccessTokenFromSecure(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "tok", accessTokenFromSecure("765%7C%7Ctok"))
	assert.Equal(t, "tok", accessTokenFromSecure("765||tok"))
	assert.Empty(t, accessTokenFromSecure("no-separator"))
}
