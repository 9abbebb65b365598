// Package application drives the loot run: one pipeline per account,
// a bounded worker pool over all accounts, pacing and the run summary.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/avdeev/steamloot/internal/domain"
	"github.com/avdeev/steamloot/internal/ports"
)

// ClientSet bundles the protocol-facing dependencies of one account's
// pipeline. The factory builds a fresh set per account so each rides
// its own session and network identity.
type ClientSet struct {
	Session   ports.SessionManager
	Inventory ports.InventoryLoader
	Offers    ports.OfferSender
	Approvals ports.OfferApprover
}

// ClientFactory builds the client set for one account.
type ClientFactory func(creds domain.Credentials) (ClientSet, error)

// Plan is everything a run needs beyond the account list.
type Plan struct {
	Receivers []domain.TradeOfferURL
	Sources   []domain.InventorySource
	Filters   domain.FilterRules

	// MaxItemsPerTrade caps one offer; MaxItemsTotal softly caps the
	// whole run, zero meaning unlimited.
	MaxItemsPerTrade int
	MaxItemsTotal    int

	Threads      int
	AccountDelay time.Duration
	EmptyDelay   time.Duration
	SourceDelay  time.Duration
}

// lootAccount runs the full pipeline for one account: session, fetch
// and filter every source, build and submit the offer, confirm it.
// The first failing stage decides the outcome; later stages never run.
func lootAccount(ctx context.Context, creds domain.Credentials, set ClientSet, receiver domain.TradeOfferURL, plan Plan, clock ports.Clock, logger *slog.Logger) domain.LootOutcome {
	fail := func(message string) domain.LootOutcome {
		return domain.LootOutcome{Login: creds.Login, Message: message}
	}

	session, sessionMessage, err := set.Session.EnsureSession(ctx)
	if err != nil {
		return fail(err.Error())
	}
	logger.Debug("session established", "login", creds.Login, "path", sessionMessage)

	assets, err := collectAssets(ctx, set, session, plan, clock)
	if err != nil {
		return fail(err.Error())
	}

	if len(assets) == 0 {
		return fail(domain.MessageEmptyInventories)
	}

	if plan.MaxItemsPerTrade > 0 && len(assets) > plan.MaxItemsPerTrade {
		assets = assets[:plan.MaxItemsPerTrade]
	}

	offerID, err := set.Offers.SendTradeOffer(ctx, session, receiver, assets)
	if err != nil {
		return fail(err.Error())
	}

	if err := set.Approvals.AcceptTradeOffer(ctx, session, offerID); err != nil {
		return fail(err.Error())
	}

	return domain.LootOutcome{
		Login:     creds.Login,
		Success:   true,
		Message:   fmt.Sprintf("looted %d items", len(assets)),
		ItemCount: len(assets),
	}
}

// collectAssets drains every configured source into one filtered,
// deterministically ordered asset list. A single failing source fails
// the whole account: a partial loot would leave the inventory in an
// ambiguous state.
func collectAssets(ctx context.Context, set ClientSet, session domain.WebSession, plan Plan, clock ports.Clock) ([]domain.Asset, error) {
	var assets []domain.Asset

	for i, source := range plan.Sources {
		inventory, err := set.Inventory.LoadInventory(ctx, session, source)
		if err != nil {
			return nil, err
		}

		excluded := domain.ClassIDsToExclude(inventory.Descriptions, plan.Filters)
		for _, asset := range inventory.Assets {
			if _, skip := excluded[asset.ClassID]; skip {
				continue
			}
			assets = append(assets, asset)
		}

		if i < len(plan.Sources)-1 {
			clock.Sleep(ctx, plan.SourceDelay)
		}
	}

	sort.Slice(assets, func(i, j int) bool { return assets[i].AssetID < assets[j].AssetID })

	return assets, nil
}
