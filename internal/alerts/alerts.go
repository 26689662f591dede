// Package alerts keeps the price alerts of one account.
package alerts

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	terrors "capital-trader/internal/errors"
	"capital-trader/internal/logging"
	"capital-trader/internal/models"
	"capital-trader/internal/notify"
	"capital-trader/internal/trading"
)

// Triggered pairs an alert with the price that satisfied it.
type Triggered struct {
	Alert models.Alert    `json:"alert"`
	Price decimal.Decimal `json:"price"`
}

// Registry is an append-only list of alerts. It is safe for concurrent use.
type Registry struct {
	accountID string
	notifier  notify.Notifier
	logger    zerolog.Logger
	now       func() time.Time

	mu     sync.RWMutex
	alerts []models.Alert
}

// NewRegistry creates an empty registry for accountID. notifier may be nil.
func NewRegistry(accountID string, notifier notify.Notifier, logger zerolog.Logger) *Registry {
	return &Registry{
		accountID: accountID,
		notifier:  notifier,
		logger:    logging.WithAccount(logging.WithComponent(logger, "alerts"), accountID),
		now:       time.Now,
	}
}

// SetAlert appends an alert. Duplicates are allowed.
func (r *Registry) SetAlert(asset string, price decimal.Decimal, condition models.AlertCondition) (models.Alert, error) {
	if asset == "" {
		return models.Alert{}, terrors.NewValidationError("asset", asset, "asset is required", terrors.ErrInvalidTrade)
	}
	if !price.IsPositive() {
		return models.Alert{}, terrors.NewValidationError("price", price.String(), "alert price must be positive", terrors.ErrInvalidAmount)
	}
	if !condition.Valid() {
		return models.Alert{}, terrors.NewValidationError("condition", condition, "condition must be above or below", nil)
	}

	alert := models.Alert{
		ID:        uuid.NewString(),
		AccountID: r.accountID,
		Asset:     asset,
		Price:     price,
		Condition: condition,
		CreatedAt: r.now(),
	}

	r.mu.Lock()
	r.alerts = append(r.alerts, alert)
	r.mu.Unlock()

	r.logger.Debug().Str("alert_id", alert.ID).Str("asset", asset).Msg("Alert set")
	return alert, nil
}

// Restore appends previously persisted alerts without validation.
func (r *Registry) Restore(alerts []models.Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alerts...)
}

// ListPending returns a copy of all alerts in insertion order.
func (r *Registry) ListPending() []models.Alert {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Alert, len(r.alerts))
	copy(out, r.alerts)
	return out
}

// Check returns the alerts whose condition holds at prices. Alerts without a
// quote are ignored and nothing is removed. Each match is logged and, when a
// notifier is configured, sent; notification failures are logged only.
func (r *Registry) Check(ctx context.Context, prices trading.PriceLookup) []Triggered {
	var hits []Triggered
	for _, alert := range r.ListPending() {
		price, ok := prices.Price(alert.Asset)
		if !ok || !alert.Matches(price) {
			continue
		}
		hits = append(hits, Triggered{Alert: alert, Price: price})

		logging.LogAlert(r.logger, alert.ID, alert.Asset, string(alert.Condition), alert.Price.String(), price.String())
		if r.notifier != nil {
			if err := r.notifier.Send(ctx, notify.AlertTriggered(alert, price)); err != nil {
				r.logger.Warn().Err(err).Str("alert_id", alert.ID).Msg("Alert notification failed")
			}
		}
	}
	return hits
}
