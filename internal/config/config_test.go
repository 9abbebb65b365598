package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdeev/steamloot/internal/domain"
)

const validTOML = `
trade_offer_urls = ["https://steamcommunity.com/tradeoffer/new/?partner=123456&token=aBcDeF12"]
accounts_file_path = "accounts.txt"
secrets_directory_path = "secrets"
thread_count = 4
inventories = ["730/2", "570/2"]
delay_between_accounts_seconds = 5
delay_inventory_empty_seconds = 2
ignore_not_marketable = true
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "steamloot.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, validTOML))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.ThreadCount)
	assert.Equal(t, 8192, cfg.MaxItemsPerTrade)
	assert.True(t, cfg.IgnoreNotMarketable)

	sources, err := cfg.InventorySources()
	require.NoError(t, err)
	assert.Equal(t, []domain.InventorySource{
		{AppID: "730", ContextID: "2"},
		{AppID: "570", ContextID: "2"},
	}, sources)

	receivers, err := cfg.Receivers()
	require.NoError(t, err)
	require.Len(t, receivers, 1)
	assert.Equal(t, domain.AccountID(123456), receivers[0].Partner)
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Config.toml")
	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "accounts_file_path")
	assert.Contains(t, string(data), "730/2")

	// The starter file needs receivers filled in before it loads.
	_, err = Load(path)
	require.Error(t, err)

	require.Error(t, WriteDefault(path))
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestValidateRejectsBadInput(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		return Config{
			TradeOfferURLs:   []string{"https://steamcommunity.com/tradeoffer/new/?partner=1&token=aBcDeF12"},
			Inventories:      []string{"730/2"},
			ThreadCount:      1,
			MaxItemsPerTrade: 100,
			AccountsFilePath: "accounts.txt",
		}
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no receivers", func(c *Config) { c.TradeOfferURLs = nil }},
		{"bad receiver", func(c *Config) { c.TradeOfferURLs = []string{"https://example.com/x"} }},
		{"no inventories", func(c *Config) { c.Inventories = nil }},
		{"bad inventory", func(c *Config) { c.Inventories = []string{"730"} }},
		{"zero threads", func(c *Config) { c.ThreadCount = 0 }},
		{"oversized trade", func(c *Config) { c.MaxItemsPerTrade = 9000 }},
		{"no credential source", func(c *Config) { c.AccountsFilePath = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}

	require.NoError(t, valid().Validate())
}
