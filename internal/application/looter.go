package application

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/avdeev/steamloot/internal/domain"
	"github.com/avdeev/steamloot/internal/ports"
)

// Summary aggregates a finished run.
type Summary struct {
	Accounts  int
	Successes int
	Failures  int
	Items     int
}

// Looter fans the account list out over a bounded worker pool and
// collects per-account outcomes.
type Looter struct {
	factory  ClientFactory
	provider ports.ClientProvider
	sink     ports.OutcomeSink
	clock    ports.Clock
	logger   *slog.Logger

	// pickReceiver returns a uniform index below n; replaced in tests.
	pickReceiver func(n int) int
}

func NewLooter(factory ClientFactory, provider ports.ClientProvider, sink ports.OutcomeSink, clock ports.Clock, logger *slog.Logger) *Looter {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Looter{
		factory:      factory,
		provider:     provider,
		sink:         sink,
		clock:        clock,
		logger:       logger,
		pickReceiver: rand.IntN,
	}
}

// Loot processes every account and returns the aggregated summary.
// Concurrency is bounded by both the configured thread count and the
// number of distinct network identities. The item ceiling is relaxed:
// it is checked before an account starts, so the last accounts to run
// may push the total past it.
func (l *Looter) Loot(ctx context.Context, accounts []domain.Credentials, plan Plan) (Summary, error) {
	if len(plan.Receivers) == 0 {
		return Summary{}, fmt.Errorf("no receivers configured")
	}
	if len(accounts) == 0 {
		return Summary{}, fmt.Errorf("no accounts to process")
	}

	workers := plan.Threads
	if available := l.provider.AvailableCount(); workers > available {
		workers = available
	}
	if workers < 1 {
		workers = 1
	}

	l.logger.Info("loot run starting", "accounts", len(accounts), "workers", workers, "receivers", len(plan.Receivers))

	var (
		progress   atomic.Int64
		itemsMoved atomic.Int64
	)

	outcomes := make([]domain.LootOutcome, len(accounts))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = l.processAccount(ctx, accounts[idx], plan, &itemsMoved)
				l.logProgress(&progress, len(accounts), outcomes[idx])
				l.report(ctx, outcomes[idx])
				l.pace(ctx, outcomes[idx], plan)
			}
		}()
	}

	for idx := range accounts {
		select {
		case jobs <- idx:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	summary := Summary{Accounts: len(accounts)}
	for _, outcome := range outcomes {
		if outcome.Success {
			summary.Successes++
			summary.Items += outcome.ItemCount
		} else {
			summary.Failures++
		}
	}

	l.logger.Info("loot run finished", "successes", summary.Successes, "failures", summary.Failures, "items", summary.Items)

	return summary, ctx.Err()
}

func (l *Looter) processAccount(ctx context.Context, creds domain.Credentials, plan Plan, itemsMoved *atomic.Int64) domain.LootOutcome {
	if ctx.Err() != nil {
		return domain.LootOutcome{Login: creds.Login, Message: "cancelled"}
	}

	if plan.MaxItemsTotal > 0 && itemsMoved.Load() >= int64(plan.MaxItemsTotal) {
		return domain.LootOutcome{Login: creds.Login, Message: "item ceiling reached"}
	}

	set, err := l.factory(creds)
	if err != nil {
		return domain.LootOutcome{Login: creds.Login, Message: err.Error()}
	}

	receiver := plan.Receivers[l.pickReceiver(len(plan.Receivers))]

	outcome := lootAccount(ctx, creds, set, receiver, plan, l.clock, l.logger)
	itemsMoved.Add(int64(outcome.ItemCount))

	return outcome
}

func (l *Looter) logProgress(progress *atomic.Int64, total int, outcome domain.LootOutcome) {
	n := progress.Add(1)
	l.logger.Info("account processed",
		"progress", fmt.Sprintf("%d/%d", n, total),
		"login", outcome.Login,
		"success", outcome.Success,
		"message", outcome.Message,
	)
}

func (l *Looter) report(ctx context.Context, outcome domain.LootOutcome) {
	if l.sink == nil {
		return
	}
	if err := l.sink.Looted(ctx, outcome); err != nil {
		l.logger.Warn("could not record outcome", "login", outcome.Login, "error", err)
	}
}

// pace holds the worker before its next account. Accounts that turned
// out empty wait the shorter delay.
func (l *Looter) pace(ctx context.Context, outcome domain.LootOutcome, plan Plan) {
	delay := plan.AccountDelay
	if outcome.Message == domain.MessageEmptyInventories {
		delay = plan.EmptyDelay
	}
	l.clock.Sleep(ctx, delay)
}
