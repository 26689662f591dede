// Package desk owns the set of traders handled by one process and runs
// strategies across their accounts in parallel.
package desk

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	terrors "capital-trader/internal/errors"
	"capital-trader/internal/logging"
	"capital-trader/internal/models"
	"capital-trader/internal/notify"
	"capital-trader/internal/trader"
	"capital-trader/internal/trading"
)

// AccountResult is the outcome of one account in a desk-wide run.
type AccountResult struct {
	AccountID string                 `json:"account_id"`
	Result    *models.StrategyResult `json:"result,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Err       error                  `json:"-"`
}

// Desk is a registry of traders keyed by account ID.
type Desk struct {
	workers  int
	notifier notify.Notifier
	logger   zerolog.Logger

	mu      sync.RWMutex
	traders map[string]trader.Trader
}

// New creates an empty desk. notifier may be nil.
func New(workers int, notifier notify.Notifier, logger zerolog.Logger) *Desk {
	return &Desk{
		workers:  workers,
		notifier: notifier,
		logger:   logging.WithComponent(logger, "desk"),
		traders:  make(map[string]trader.Trader),
	}
}

// Add registers t. Account IDs are unique within a desk.
func (d *Desk) Add(t trader.Trader) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.traders[t.ID()]; ok {
		return terrors.Wrapf(terrors.ErrAccountExists, "account %s", t.ID())
	}
	d.traders[t.ID()] = t
	return nil
}

// Get returns the trader for accountID.
func (d *Desk) Get(accountID string) (trader.Trader, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.traders[accountID]
	if !ok {
		return nil, terrors.Wrapf(terrors.ErrAccountNotFound, "account %s", accountID)
	}
	return t, nil
}

// Remove drops accountID from the desk.
func (d *Desk) Remove(accountID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.traders, accountID)
}

// Traders returns the registered traders ordered by account ID.
func (d *Desk) Traders() []trader.Trader {
	d.mu.RLock()
	out := make([]trader.Trader, 0, len(d.traders))
	for _, t := range d.traders {
		out = append(out, t)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Len returns the number of registered traders.
func (d *Desk) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.traders)
}

// RunStrategies runs strategy for every trader that can execute one. Accounts
// are independent and run in parallel; each account's batch holds only that
// account's lock. Cancelling ctx stops dispatching new accounts; accounts not
// dispatched are reported with the context error. Results are ordered by
// account ID.
func (d *Desk) RunStrategies(ctx context.Context, strategy models.AllocationStrategy, prices trading.PriceLookup) []AccountResult {
	var strategists []trader.Trader
	for _, t := range d.Traders() {
		if _, ok := t.(trader.Strategist); ok {
			strategists = append(strategists, t)
		}
	}

	results := make([]AccountResult, len(strategists))
	pool := NewWorkerPool(d.workers)
	pool.Start()

	for i, t := range strategists {
		i, s := i, t.(trader.Strategist)
		results[i].AccountID = t.ID()

		err := pool.Submit(ctx, func() {
			res, err := s.ExecuteDiversified(strategy, prices)
			if err != nil {
				results[i].Err = err
				results[i].Error = err.Error()
				return
			}
			results[i].Result = &res
			d.notify(ctx, res)
		})
		if err != nil {
			results[i].Err = err
			results[i].Error = err.Error()
		}
	}
	pool.Stop()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	d.logger.Info().
		Int("accounts", len(results)).
		Int("errors", failed).
		Msg("Desk strategy run finished")
	return results
}

func (d *Desk) notify(ctx context.Context, res models.StrategyResult) {
	if d.notifier == nil {
		return
	}
	if err := d.notifier.Send(ctx, notify.StrategyCompleted(res)); err != nil {
		d.logger.Warn().Err(err).Str("account_id", res.AccountID).Msg("Strategy notification failed")
	}
}
