package ports

import (
	"context"

	"github.com/avdeev/steamloot/internal/domain"
)

// OutcomeSink receives per-account results as they complete, in no
// particular order.
type OutcomeSink interface {
	Looted(ctx context.Context, outcome domain.LootOutcome) error
}
