package netpool

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync/atomic"

	"golang.org/x/net/proxy"
)

// ProxyProvider hands out proxy-bound clients round-robin. The index
// is the only mutable state and is advanced atomically; the client
// list never changes after load.
type ProxyProvider struct {
	clients []*http.Client
	next    atomic.Uint64
}

func NewProxyProvider(clients []*http.Client) *ProxyProvider {
	return &ProxyProvider{clients: clients}
}

func (p *ProxyProvider) AvailableCount() int { return len(p.clients) }

func (p *ProxyProvider) Provide() *http.Client {
	index := p.next.Add(1) - 1
	return p.clients[index%uint64(len(p.clients))]
}

// LoadProxyFile reads one proxy URL per line. Malformed and duplicate
// entries are skipped with a warning; the provider still loads with
// whatever remains. Returning zero clients is the caller's problem to
// treat as fatal.
func LoadProxyFile(path string, logger *slog.Logger) (*ProxyProvider, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open proxy file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var clients []*http.Client
	seen := map[string]struct{}{}

	lineNumber := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNumber++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}

		client, err := buildProxyClient(line)
		if err != nil {
			logger.Warn("skipping malformed proxy", "line", lineNumber, "error", err)
			continue
		}

		clients = append(clients, client)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read proxy file: %w", err)
	}

	return NewProxyProvider(clients), nil
}

func buildProxyClient(raw string) (*http.Client, error) {
	proxyURL, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}
	if proxyURL.Host == "" {
		return nil, fmt.Errorf("proxy url %q has no host", raw)
	}

	var transport *http.Transport

	switch proxyURL.Scheme {
	case "http", "https":
		transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	case "socks5":
		dialer, err := socks5Dialer(proxyURL)
		if err != nil {
			return nil, err
		}
		transport = &http.Transport{
			Dial: dialer.Dial,
		}
		if contextDialer, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = contextDialer.DialContext
			transport.Dial = nil
		}
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", proxyURL.Scheme)
	}

	return &http.Client{
		Transport: transport,
		Timeout:   requestTimeout,
	}, nil
}

func socks5Dialer(proxyURL *url.URL) (proxy.Dialer, error) {
	var auth *proxy.Auth
	if proxyURL.User != nil {
		auth = &proxy.Auth{User: proxyURL.User.Username()}
		if password, ok := proxyURL.User.Password(); ok {
			auth.Password = password
		}
		if auth.User == "" {
			auth = nil
		}
	}

	host := proxyURL.Host
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, "1080")
	}

	dialer, err := proxy.SOCKS5("tcp", host, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("create socks5 dialer: %w", err)
	}
	return dialer, nil
}
