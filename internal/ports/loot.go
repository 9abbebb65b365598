package ports

import (
	"context"

	"github.com/avdeev/steamloot/internal/domain"
)

// SessionManager owns one account's web session lifecycle. The
// returned message names the path that produced the session (probe,
// renewal or fresh login) for the per-account log line.
type SessionManager interface {
	EnsureSession(ctx context.Context) (domain.WebSession, string, error)
}

// InventoryLoader fetches and merges the full paginated contents of
// one inventory source.
type InventoryLoader interface {
	LoadInventory(ctx context.Context, session domain.WebSession, source domain.InventorySource) (domain.Inventory, error)
}

// OfferSender submits a one-directional give-away offer and returns
// the created offer id.
type OfferSender interface {
	SendTradeOffer(ctx context.Context, session domain.WebSession, dest domain.TradeOfferURL, assets []domain.Asset) (uint64, error)
}

// OfferApprover accepts the mobile confirmation created by an offer.
type OfferApprover interface {
	AcceptTradeOffer(ctx context.Context, session domain.WebSession, offerID uint64) error
}
