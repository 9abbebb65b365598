// Package steamapi speaks the community web protocol: session
// establishment, paginated inventory reads, trade offer submission and
// mobile confirmations.
package steamapi

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avdeev/steamloot/internal/domain"
	"github.com/avdeev/steamloot/internal/ports"
	"github.com/avdeev/steamloot/internal/retry"
)

const (
	communityURL = "https://steamcommunity.com"
	storeURL     = "https://store.steampowered.com"
	helpURL      = "https://help.steampowered.com"
	loginURL     = "https://login.steampowered.com"
	webAPIURL    = "https://api.steampowered.com"
)

const (
	loginAttempts = 3
	loginDelay    = 30 * time.Second

	maxBodyBytes = 4 << 20
)

// SessionConfig wires one account's session manager. The HTTP client
// comes from the connection provider and is shared between accounts;
// the session takes a copy and attaches its own cookie jar.
type SessionConfig struct {
	Credentials domain.Credentials
	HTTPClient  *http.Client
	Logger      *slog.Logger
	Clock       ports.Clock

	// SaveSession persists freshly established cookies, best-effort.
	SaveSession func(login string, session domain.WebSession) error

	// Endpoint overrides for tests. Empty means production.
	CommunityURL string
	StoreURL     string
	HelpURL      string
	LoginURL     string
	WebAPIURL    string
}

// Session holds one account's live web session. Methods are not safe
// for concurrent use; the orchestrator runs one account per worker.
type Session struct {
	creds  domain.Credentials
	client *http.Client
	logger *slog.Logger
	clock  ports.Clock
	save   func(login string, session domain.WebSession) error

	communityURL string
	storeURL     string
	helpURL      string
	loginURL     string
	webAPIURL    string

	current domain.WebSession
}

func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.HTTPClient == nil {
		return nil, fmt.Errorf("http client is required")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	client := *cfg.HTTPClient
	client.Jar = jar

	clock := cfg.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		creds:        cfg.Credentials,
		client:       &client,
		logger:       logger,
		clock:        clock,
		save:         cfg.SaveSession,
		communityURL: orDefault(cfg.CommunityURL, communityURL),
		storeURL:     orDefault(cfg.StoreURL, storeURL),
		helpURL:      orDefault(cfg.HelpURL, helpURL),
		loginURL:     orDefault(cfg.LoginURL, loginURL),
		webAPIURL:    orDefault(cfg.WebAPIURL, webAPIURL),
	}

	return s, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Client returns the cookie-bearing HTTP client for protocol calls
// made on this account's behalf.
func (s *Session) Client() *http.Client { return s.client }

func (s *Session) Login() string { return s.creds.Login }

func (s *Session) DeviceID() string {
	if s.creds.DeviceID != "" {
		return s.creds.DeviceID
	}
	return DeriveDeviceID(s.creds.SharedSecret)
}

func (s *Session) identitySecret() string { return s.creds.IdentitySecret }

// EnsureSession returns a live session, establishing one if needed.
// The probe runs first; a dead session is renewed through the refresh
// token when one is known, otherwise re-authenticated from scratch.
// The message describes which path produced the session.
func (s *Session) EnsureSession(ctx context.Context) (domain.WebSession, string, error) {
	if s.current.Established() && s.alive(ctx) {
		return s.current, "session alive", nil
	}

	if s.creds.RefreshToken != "" {
		session, err := s.renew(ctx)
		if err == nil {
			s.current = session
			return session, "session renewed", nil
		}
		s.logger.Debug("session renewal failed", "login", s.creds.Login, "error", err)
	}

	session, err := s.login(ctx)
	if err != nil {
		return domain.WebSession{}, "", err
	}

	s.current = session

	if s.save != nil {
		if err := s.save(s.creds.Login, session); err != nil {
			s.logger.Warn("could not save session", "login", s.creds.Login, "error", err)
		}
	}

	return session, "logged in", nil
}

// alive probes the store account page without following redirects.
// A live session answers 200; a dead one redirects to /login.
func (s *Session) alive(ctx context.Context) bool {
	if !s.hasCookie("steamLoginSecure") {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.storeURL+"/account", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := s.noRedirectClient().Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return !strings.Contains(resp.Header.Get("Location"), "/login")
	}

	return resp.StatusCode == http.StatusOK
}

func (s *Session) noRedirectClient() *http.Client {
	client := *s.client
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &client
}

func (s *Session) hasCookie(name string) bool {
	u, err := url.Parse(s.communityURL)
	if err != nil {
		return false
	}
	for _, cookie := range s.client.Jar.Cookies(u) {
		if cookie.Name == name {
			return true
		}
	}
	return false
}

// renew trades the refresh token for fresh web cookies through the
// jwt finalize endpoint and its transfer POSTs.
func (s *Session) renew(ctx context.Context) (domain.WebSession, error) {
	sessionID, err := randomSessionID()
	if err != nil {
		return domain.WebSession{}, err
	}

	finalize, err := s.postMultipart(ctx, s.loginURL+"/jwt/finalizelogin", map[string]string{
		"nonce":     s.creds.RefreshToken,
		"sessionid": sessionID,
		"redir":     s.communityURL + "/login/home/?goto=",
	})
	if err != nil {
		return domain.WebSession{}, fmt.Errorf("finalize login: %w", err)
	}

	var payload finalizeLoginResponse
	if err := json.Unmarshal(finalize, &payload); err != nil {
		return domain.WebSession{}, fmt.Errorf("decode finalize login response: %w", err)
	}
	if len(payload.TransferInfo) == 0 {
		return domain.WebSession{}, fmt.Errorf("finalize login carried no transfer info, refresh token may be stale")
	}

	steamID, err := domain.ParseSteamID64(payload.SteamID)
	if err != nil {
		return domain.WebSession{}, fmt.Errorf("finalize login: %w", err)
	}

	for _, transfer := range payload.TransferInfo {
		if _, err := s.postMultipart(ctx, transfer.URL, map[string]string{
			"steamID": payload.SteamID,
			"nonce":   transfer.Params.Nonce,
			"auth":    transfer.Params.Auth,
		}); err != nil {
			s.logger.Debug("transfer failed", "login", s.creds.Login, "url", transfer.URL, "error", err)
			continue
		}

		if secure := s.cookieValue("steamLoginSecure"); secure != "" {
			if sid := s.cookieValue("sessionid"); sid != "" {
				sessionID = sid
			}
			s.installCookies(sessionID, secure)
			return domain.WebSession{
				SteamID:     steamID,
				SessionID:   sessionID,
				AccessToken: accessTokenFromSecure(secure),
			}, nil
		}
	}

	return domain.WebSession{}, fmt.Errorf("transfers yielded no session cookies")
}

func (s *Session) cookieValue(name string) string {
	u, err := url.Parse(s.communityURL)
	if err != nil {
		return ""
	}
	for _, cookie := range s.client.Jar.Cookies(u) {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}

// login runs the RSA password flow with a fresh guard code per
// attempt. Rejected credentials stop the retry loop immediately.
func (s *Session) login(ctx context.Context) (domain.WebSession, error) {
	return retry.DoValue(ctx, loginAttempts, loginDelay, func() (domain.WebSession, error) {
		session, err := s.loginOnce(ctx)
		if err != nil {
			s.logger.Debug("login attempt failed", "login", s.creds.Login, "error", err)
		}
		return session, err
	})
}

func (s *Session) loginOnce(ctx context.Context) (domain.WebSession, error) {
	key, err := s.fetchRSAKey(ctx)
	if err != nil {
		return domain.WebSession{}, err
	}

	encrypted, err := encryptPassword(s.creds.Password, key)
	if err != nil {
		return domain.WebSession{}, retry.Permanent(err)
	}

	code, err := GuardCode(s.creds.SharedSecret, s.clock.Now())
	if err != nil {
		return domain.WebSession{}, retry.Permanent(err)
	}

	form := url.Values{
		"username":       {s.creds.Login},
		"password":       {encrypted},
		"twofactorcode":  {code},
		"rsatimestamp":   {key.Timestamp},
		"remember_login": {"true"},
		"captchagid":     {"-1"},
		"captcha_text":   {""},
		"emailauth":      {""},
		"emailsteamid":   {""},
		"donotcache":     {strconv.FormatInt(s.clock.Now().UnixMilli(), 10)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.communityURL+"/login/dologin/", strings.NewReader(form.Encode()))
	if err != nil {
		return domain.WebSession{}, fmt.Errorf("create dologin request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.WebSession{}, fmt.Errorf("dologin: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var result doLoginResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&result); err != nil {
		return domain.WebSession{}, fmt.Errorf("decode dologin response: %w", err)
	}

	if !result.Success {
		// A rejected guard code can be a clock skew artifact and is
		// worth another attempt; rejected credentials are not.
		if result.RequiresTwoFactor {
			return domain.WebSession{}, fmt.Errorf("guard code rejected")
		}
		return domain.WebSession{}, retry.Permanent(fmt.Errorf("%w: %s", domain.ErrAuthRejected, result.Message))
	}

	var oauth oauthInfo
	if err := json.Unmarshal([]byte(result.OAuthInfo), &oauth); err != nil {
		return domain.WebSession{}, fmt.Errorf("decode oauth payload: %w", err)
	}

	steamID, err := domain.ParseSteamID64(oauth.SteamID)
	if err != nil {
		return domain.WebSession{}, fmt.Errorf("dologin: %w", err)
	}

	sessionID, err := randomSessionID()
	if err != nil {
		return domain.WebSession{}, retry.Permanent(err)
	}

	secure := oauth.SteamID + "%7C%7C" + oauth.WGTokenSecure
	s.installCookies(sessionID, secure)

	return domain.WebSession{
		SteamID:     steamID,
		SessionID:   sessionID,
		AccessToken: oauth.Token,
	}, nil
}

func (s *Session) fetchRSAKey(ctx context.Context) (rsaKeyResponse, error) {
	endpoint := s.communityURL + "/login/getrsakey/?username=" + url.QueryEscape(s.creds.Login)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return rsaKeyResponse{}, fmt.Errorf("create rsa key request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return rsaKeyResponse{}, fmt.Errorf("fetch rsa key: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var key rsaKeyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&key); err != nil {
		return rsaKeyResponse{}, fmt.Errorf("decode rsa key response: %w", err)
	}
	if !key.Success {
		return rsaKeyResponse{}, fmt.Errorf("rsa key request refused")
	}

	return key, nil
}

func encryptPassword(password string, key rsaKeyResponse) (string, error) {
	mod, ok := new(big.Int).SetString(key.PublicKeyMod, 16)
	if !ok {
		return "", fmt.Errorf("malformed rsa modulus")
	}

	exp, err := strconv.ParseInt(key.PublicKeyExp, 16, 32)
	if err != nil {
		return "", fmt.Errorf("malformed rsa exponent: %w", err)
	}

	encrypted, err := rsa.EncryptPKCS1v15(rand.Reader, &rsa.PublicKey{N: mod, E: int(exp)}, []byte(password))
	if err != nil {
		return "", fmt.Errorf("encrypt password: %w", err)
	}

	return base64.StdEncoding.EncodeToString(encrypted), nil
}

// installCookies sets the session pair on all three Steam domains so
// community, store and help requests ride the same session.
func (s *Session) installCookies(sessionID, steamLoginSecure string) {
	for _, base := range []string{s.communityURL, s.storeURL, s.helpURL} {
		u, err := url.Parse(base)
		if err != nil {
			continue
		}
		s.client.Jar.SetCookies(u, []*http.Cookie{
			{Name: "sessionid", Value: sessionID, Path: "/"},
			{Name: "steamLoginSecure", Value: steamLoginSecure, Path: "/"},
		})
	}
}

func (s *Session) postMultipart(ctx context.Context, endpoint string, fields map[string]string) ([]byte, error) {
	var body strings.Builder
	writer := multipart.NewWriter(&body)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("write multipart field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body.String()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("post %s: status %d", endpoint, resp.StatusCode)
	}

	return payload, nil
}

// accessTokenFromSecure extracts the bearer token from a
// steamLoginSecure cookie value of the form "<steamid>%7C%7C<token>".
func accessTokenFromSecure(secure string) string {
	if decoded, err := url.QueryUnescape(secure); err == nil {
		secure = decoded
	}
	_, token, found := strings.Cut(secure, "||")
	if !found {
		return ""
	}
	return token
}

func randomSessionID() (string, error) {
	raw := make([]byte, 6)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
