package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/avdeev/steamloot/internal/adapters/credfile"
	"github.com/avdeev/steamloot/internal/adapters/export"
	"github.com/avdeev/steamloot/internal/adapters/netpool"
	"github.com/avdeev/steamloot/internal/adapters/steamapi"
	"github.com/avdeev/steamloot/internal/application"
	"github.com/avdeev/steamloot/internal/config"
	"github.com/avdeev/steamloot/internal/domain"
	"github.com/avdeev/steamloot/internal/ports"
)

type app struct {
	logger *slog.Logger
	clock  ports.Clock
}

func newApp() *app {
	return &app{
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel()})),
		clock:  ports.SystemClock{},
	}
}

func slogLevel() slog.Level {
	if os.Getenv("STEAMLOOT_DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// runtime is everything a loot run needs, assembled from one config
// file. Building it validates the whole setup before any account is
// touched.
type runtime struct {
	cfg      config.Config
	accounts []domain.Credentials
	provider ports.ClientProvider
	looter   *application.Looter
	plan     application.Plan
}

func (a *app) buildRuntime(configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	accounts, err := credfile.NewLoader(a.logger).Load(cfg.AccountsFilePath, cfg.SecretsDirectoryPath, cfg.SessionsDirectoryPath)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no usable accounts loaded")
	}

	provider, err := a.buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	receivers, err := cfg.Receivers()
	if err != nil {
		return nil, err
	}
	sources, err := cfg.InventorySources()
	if err != nil {
		return nil, err
	}

	plan := application.Plan{
		Receivers:        receivers,
		Sources:          sources,
		Filters:          cfg.FilterRules(),
		MaxItemsPerTrade: cfg.MaxItemsPerTrade,
		MaxItemsTotal:    cfg.MaxItemsAllTrades,
		Threads:          cfg.ThreadCount,
		AccountDelay:     cfg.DelayBetweenAccounts(),
		EmptyDelay:       cfg.DelayInventoryEmpty(),
		SourceDelay:      3 * time.Second,
	}

	var sink ports.OutcomeSink
	if cfg.ExportFilePath != "" {
		sink = export.NewFileSink(cfg.ExportFilePath)
	}

	looter := application.NewLooter(a.clientFactory(cfg, provider), provider, sink, a.clock, a.logger)

	return &runtime{
		cfg:      cfg,
		accounts: accounts,
		provider: provider,
		looter:   looter,
		plan:     plan,
	}, nil
}

func (a *app) buildProvider(cfg config.Config) (ports.ClientProvider, error) {
	if cfg.ProxiesFilePath == "" {
		return netpool.NewLocalProvider(), nil
	}

	provider, err := netpool.LoadProxyFile(cfg.ProxiesFilePath, a.logger)
	if err != nil {
		return nil, err
	}
	if provider.AvailableCount() == 0 {
		return nil, fmt.Errorf("proxy file %s holds no usable proxies", cfg.ProxiesFilePath)
	}

	return provider, nil
}

func (a *app) clientFactory(cfg config.Config, provider ports.ClientProvider) application.ClientFactory {
	sessions := credfile.NewSessionWriter(cfg.SessionsDirectoryPath)

	return func(creds domain.Credentials) (application.ClientSet, error) {
		session, err := steamapi.NewSession(steamapi.SessionConfig{
			Credentials: creds,
			HTTPClient:  provider.Provide(),
			Logger:      a.logger,
			Clock:       a.clock,
			SaveSession: sessions.Save,
		})
		if err != nil {
			return application.ClientSet{}, fmt.Errorf("build session for %s: %w", creds.Login, err)
		}

		client := steamapi.NewClient(session, a.logger)

		return application.ClientSet{
			Session:   session,
			Inventory: client,
			Offers:    client,
			Approvals: steamapi.NewApprover(session, a.logger, a.clock),
		}, nil
	}
}
