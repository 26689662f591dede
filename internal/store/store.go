// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"capital-trader/internal/models"
	"capital-trader/internal/trading"
)

// DataStore defines the interface for data persistence.
type DataStore interface {
	AccountStore
	AlertStore
	TradeJournal

	// Commit saves an account snapshot and journals its new confirmations in
	// one transaction.
	Commit(ctx context.Context, snap trading.Snapshot, confs []models.Confirmation) error

	// Lifecycle
	Close() error
}

// AccountStore persists account snapshots.
type AccountStore interface {
	CreateAccount(ctx context.Context, kind string, snap trading.Snapshot) error
	SaveAccount(ctx context.Context, snap trading.Snapshot) error
	GetAccount(ctx context.Context, id string) (*AccountRecord, error)
	ListAccounts(ctx context.Context) ([]AccountRecord, error)
}

// AlertStore persists price alerts.
type AlertStore interface {
	SaveAlert(ctx context.Context, alert models.Alert) error
	GetAlerts(ctx context.Context, accountID string) ([]models.Alert, error)
}

// TradeJournal is the append-only record of executed trades.
type TradeJournal interface {
	LogTrades(ctx context.Context, confs ...models.Confirmation) error
	GetTrades(ctx context.Context, filter TradeFilter) ([]models.Confirmation, error)
}

// AccountRecord is a stored account with its trader variant.
type AccountRecord struct {
	Kind      string           `json:"kind"`
	Snapshot  trading.Snapshot `json:"account"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// TradeFilter represents filters for querying trades.
type TradeFilter struct {
	AccountID string
	Asset     string
	Side      models.Side
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}
