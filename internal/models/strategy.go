package models

import "github.com/shopspring/decimal"

// AllocationStrategy describes how a diversified strategy splits capital.
// Fractions are independent shares of the balance and need not sum to 1.
type AllocationStrategy struct {
	Stocks         []string        `json:"stocks" yaml:"stocks"`
	Crypto         []string        `json:"crypto" yaml:"crypto"`
	StockFraction  decimal.Decimal `json:"stock_fraction" yaml:"-"`
	CryptoFraction decimal.Decimal `json:"crypto_fraction" yaml:"-"`
}

// Strategy status values.
const (
	StrategyExecuted = "executed"
	StrategyPartial  = "partial"
)

// SkippedAsset is an asset whose computed quantity was zero.
type SkippedAsset struct {
	Asset  string          `json:"asset"`
	Class  AssetClass      `json:"class"`
	Funds  decimal.Decimal `json:"funds"`
	Price  decimal.Decimal `json:"price"`
	Reason string          `json:"reason"`
}

// FailedTrade is a trade the executor rejected during a batch.
type FailedTrade struct {
	Trade Trade      `json:"trade"`
	Class AssetClass `json:"class"`
	Error string     `json:"error"`
	Err   error      `json:"-"`
}

// StrategyResult is the outcome of a diversified strategy batch.
type StrategyResult struct {
	AccountID string         `json:"account_id"`
	Status    string         `json:"status"`
	Trades    []Confirmation `json:"trades"`
	Skipped   []SkippedAsset `json:"skipped,omitempty"`
	Failed    []FailedTrade  `json:"failed,omitempty"`
}
