package models

import "github.com/shopspring/decimal"

// RiskTier is a coarse classification of portfolio size.
type RiskTier string

const (
	RiskLow    RiskTier = "Low"
	RiskMedium RiskTier = "Medium"
	RiskHigh   RiskTier = "High"
)

// RiskReport is a derived snapshot of an account's risk.
type RiskReport struct {
	Tier     RiskTier        `json:"tier"`
	Exposure decimal.Decimal `json:"exposure"` // sum of absolute quantities
}

// TrendSignal is the answer of a market trend provider.
type TrendSignal struct {
	Trend      string  `json:"trend"`
	Confidence float64 `json:"confidence"` // 0.0 - 1.0
}

// PositionValue is the valuation of one holding.
type PositionValue struct {
	Asset    string          `json:"asset"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Value    decimal.Decimal `json:"value"`
	Priced   bool            `json:"priced"`
}

// PerformanceReport summarises an account at the given prices.
type PerformanceReport struct {
	TotalValue    decimal.Decimal `json:"total_value"`
	Type          string          `json:"type"`
	Cash          decimal.Decimal `json:"cash"`
	Equity        decimal.Decimal `json:"equity"`
	Positions     []PositionValue `json:"positions"`
	Concentration float64         `json:"concentration"` // largest absolute position weight
}
