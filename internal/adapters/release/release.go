// Package release checks the project's GitHub releases feed for a
// newer build. The check is advisory: any failure is logged at debug
// and the run proceeds.
package release

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	latestReleaseURL = "https://api.github.com/repos/avdeev/steamloot/releases/latest"
	repositoryURL    = "https://github.com/avdeev/steamloot"

	maxResponseBytes = 1 << 20
)

type Checker struct {
	httpClient *http.Client
	endpoint   string
	logger     *slog.Logger
}

func NewChecker(httpClient *http.Client, logger *slog.Logger) *Checker {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Checker{httpClient: httpClient, endpoint: latestReleaseURL, logger: logger}
}

type latestRelease struct {
	TagName string `json:"tag_name"`
}

// Check compares the running version against the latest published tag.
func (c *Checker) Check(ctx context.Context, current string) {
	tag, err := c.fetchLatestTag(ctx)
	if err != nil {
		c.logger.Debug("release check failed", "error", err)
		c.logger.Info("running version", "version", current, "releases", repositoryURL)
		return
	}

	switch {
	case eqVersion(tag, current):
		c.logger.Info("running latest version", "version", current)
	default:
		c.logger.Warn("a different release is published", "version", current, "latest", tag, "releases", repositoryURL)
	}
}

func (c *Checker) fetchLatestTag(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create release request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request latest release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request latest release: status %d", resp.StatusCode)
	}

	var release latestRelease
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&release); err != nil {
		return "", fmt.Errorf("decode latest release: %w", err)
	}
	if release.TagName == "" {
		return "", fmt.Errorf("latest release has no tag")
	}

	return release.TagName, nil
}

func eqVersion(a, b string) bool {
	return strings.TrimPrefix(a, "v") == strings.TrimPrefix(b, "v")
}
