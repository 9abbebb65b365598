// Package config loads and validates the run configuration file.
// Whole-run setup problems (no destination URL, no inventories, a
// malformed document) are reported here, before any account is
// touched.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/avdeev/steamloot/internal/domain"
)

const maxItemsPerTradeLimit = 8192

type Config struct {
	TradeOfferURLs []string `mapstructure:"trade_offer_urls" toml:"trade_offer_urls"`

	AccountsFilePath      string `mapstructure:"accounts_file_path" toml:"accounts_file_path"`
	SecretsDirectoryPath  string `mapstructure:"secrets_directory_path" toml:"secrets_directory_path"`
	SessionsDirectoryPath string `mapstructure:"sessions_directory_path" toml:"sessions_directory_path"`
	ProxiesFilePath       string `mapstructure:"proxies_file_path" toml:"proxies_file_path"`
	ExportFilePath        string `mapstructure:"export_file_path" toml:"export_file_path"`

	ThreadCount int      `mapstructure:"thread_count" toml:"thread_count"`
	Inventories []string `mapstructure:"inventories" toml:"inventories"`

	DelayBetweenAccountsSeconds int `mapstructure:"delay_between_accounts_seconds" toml:"delay_between_accounts_seconds"`
	DelayInventoryEmptySeconds  int `mapstructure:"delay_inventory_empty_seconds" toml:"delay_inventory_empty_seconds"`

	MaxItemsPerTrade  int `mapstructure:"max_items_per_trade" toml:"max_items_per_trade"`
	MaxItemsAllTrades int `mapstructure:"max_items_all_trades" toml:"max_items_all_trades"`

	IgnoreNotMarketable bool `mapstructure:"ignore_not_marketable" toml:"ignore_not_marketable"`
	IgnoreMarketable    bool `mapstructure:"ignore_marketable" toml:"ignore_marketable"`

	LootOnlyItemsWithNames []string `mapstructure:"loot_only_items_with_names" toml:"loot_only_items_with_names"`
	IgnoreItemsWithNames   []string `mapstructure:"ignore_items_with_names" toml:"ignore_items_with_names"`
	LootOnlyItemsWithAppID []int    `mapstructure:"loot_only_items_with_appids" toml:"loot_only_items_with_appids"`
	IgnoreItemsWithAppID   []int    `mapstructure:"ignore_items_with_appids" toml:"ignore_items_with_appids"`
	LootOnlyItemsWithTags  []string `mapstructure:"loot_only_items_with_tags" toml:"loot_only_items_with_tags"`
	IgnoreItemsWithTags    []string `mapstructure:"ignore_items_with_tags" toml:"ignore_items_with_tags"`

	AskForApproval bool `mapstructure:"ask_for_approval" toml:"ask_for_approval"`
	ExitOnFinish   bool `mapstructure:"exit_on_finish" toml:"exit_on_finish"`
}

// Default returns a starter configuration with the standard delays
// and caps filled in. It does not pass Validate until receivers,
// inventories and a credential source are set.
func Default() Config {
	return Config{
		TradeOfferURLs:              []string{},
		AccountsFilePath:            "accounts.txt",
		SecretsDirectoryPath:        "secrets",
		ProxiesFilePath:             "",
		Inventories:                 []string{"730/2"},
		ThreadCount:                 1,
		DelayBetweenAccountsSeconds: 30,
		DelayInventoryEmptySeconds:  10,
		MaxItemsPerTrade:            maxItemsPerTradeLimit,
		AskForApproval:              true,
	}
}

// WriteDefault writes the starter configuration to path, refusing to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}

	data, err := toml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}

	return nil
}

// Load reads the config file at path. The file may be TOML or JSON;
// viper picks the decoder from the extension.
func Load(path string) (Config, error) {
	cfg := viper.New()
	cfg.SetConfigFile(path)

	cfg.SetDefault("thread_count", 1)
	cfg.SetDefault("delay_between_accounts_seconds", 30)
	cfg.SetDefault("delay_inventory_empty_seconds", 10)
	cfg.SetDefault("max_items_per_trade", maxItemsPerTradeLimit)
	cfg.SetDefault("ask_for_approval", true)

	if err := cfg.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var loaded Config
	if err := cfg.Unmarshal(&loaded); err != nil {
		return Config{}, fmt.Errorf("decode config file: %w", err)
	}

	if err := loaded.Validate(); err != nil {
		return Config{}, err
	}

	return loaded, nil
}

func (c Config) Validate() error {
	if len(c.TradeOfferURLs) == 0 {
		return errors.New("at least one trade offer url is required")
	}
	for _, raw := range c.TradeOfferURLs {
		if _, err := domain.ParseTradeOfferURL(raw); err != nil {
			return fmt.Errorf("validate trade offer url: %w", err)
		}
	}

	if len(c.Inventories) == 0 {
		return errors.New(`at least one inventory is required, e.g. "730/2"`)
	}
	if _, err := c.InventorySources(); err != nil {
		return err
	}

	if c.ThreadCount < 1 {
		return errors.New("thread count must be at least 1")
	}

	if c.MaxItemsPerTrade < 1 || c.MaxItemsPerTrade > maxItemsPerTradeLimit {
		return fmt.Errorf("max items per trade must be within 1..%d", maxItemsPerTradeLimit)
	}

	if c.AccountsFilePath == "" && c.SessionsDirectoryPath == "" {
		return errors.New("an accounts file or a sessions directory is required")
	}

	return nil
}

// InventorySources parses the configured "appId/contextId" strings.
func (c Config) InventorySources() ([]domain.InventorySource, error) {
	sources := make([]domain.InventorySource, 0, len(c.Inventories))
	for _, raw := range c.Inventories {
		appID, contextID, ok := strings.Cut(raw, "/")
		if !ok || appID == "" || contextID == "" {
			return nil, fmt.Errorf("invalid inventory %q, expected appId/contextId", raw)
		}
		sources = append(sources, domain.InventorySource{AppID: appID, ContextID: contextID})
	}
	return sources, nil
}

// Receivers parses the configured destination URLs. Validate has
// already run, so errors here mean the config was mutated after load.
func (c Config) Receivers() ([]domain.TradeOfferURL, error) {
	receivers := make([]domain.TradeOfferURL, 0, len(c.TradeOfferURLs))
	for _, raw := range c.TradeOfferURLs {
		parsed, err := domain.ParseTradeOfferURL(raw)
		if err != nil {
			return nil, err
		}
		receivers = append(receivers, parsed)
	}
	return receivers, nil
}

func (c Config) FilterRules() domain.FilterRules {
	return domain.FilterRules{
		IgnoreNotMarketable: c.IgnoreNotMarketable,
		IgnoreMarketable:    c.IgnoreMarketable,
		LootOnlyNames:       c.LootOnlyItemsWithNames,
		IgnoreNames:         c.IgnoreItemsWithNames,
		LootOnlyAppIDs:      c.LootOnlyItemsWithAppID,
		IgnoreAppIDs:        c.IgnoreItemsWithAppID,
		LootOnlyTags:        c.LootOnlyItemsWithTags,
		IgnoreTags:          c.IgnoreItemsWithTags,
	}
}

func (c Config) DelayBetweenAccounts() time.Duration {
	return time.Duration(c.DelayBetweenAccountsSeconds) * time.Second
}

func (c Config) DelayInventoryEmpty() time.Duration {
	return time.Duration(c.DelayInventoryEmptySeconds) * time.Second
}
