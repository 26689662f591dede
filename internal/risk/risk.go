// Package risk classifies account exposure and suggests position sizes.
package risk

import (
	"github.com/shopspring/decimal"

	"capital-trader/internal/config"
	"capital-trader/internal/models"
	"capital-trader/internal/trading"
)

// Assessor evaluates the risk of an account's holdings.
type Assessor struct {
	medium   decimal.Decimal
	high     decimal.Decimal
	fraction decimal.Decimal
}

// NewAssessor creates an assessor from the risk section of the config. Zero
// values fall back to the defaults (10 / 100 / 0.10).
func NewAssessor(cfg config.RiskConfig) *Assessor {
	if cfg.MediumThreshold <= 0 {
		cfg.MediumThreshold = 10
	}
	if cfg.HighThreshold <= 0 {
		cfg.HighThreshold = 100
	}
	if cfg.PositionFraction <= 0 {
		cfg.PositionFraction = 0.10
	}
	return &Assessor{
		medium:   decimal.NewFromFloat(cfg.MediumThreshold),
		high:     decimal.NewFromFloat(cfg.HighThreshold),
		fraction: decimal.NewFromFloat(cfg.PositionFraction),
	}
}

// DefaultAssessor returns an assessor with the default thresholds.
func DefaultAssessor() *Assessor {
	return NewAssessor(config.RiskConfig{})
}

// Assess sums the absolute quantities held and maps the total to a tier.
// Quantities are summed across assets regardless of price.
func (a *Assessor) Assess(h trading.Holdings) models.RiskReport {
	exposure := decimal.Zero
	for _, qty := range h.Portfolio() {
		exposure = exposure.Add(qty.Abs())
	}
	return models.RiskReport{
		Tier:     a.tier(exposure),
		Exposure: exposure,
	}
}

func (a *Assessor) tier(exposure decimal.Decimal) models.RiskTier {
	switch {
	case exposure.GreaterThan(a.high):
		return models.RiskHigh
	case exposure.GreaterThan(a.medium):
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// SuggestPositionSize returns floor(balance × fraction / price). It returns
// zero when price is not positive or the balance is empty.
func (a *Assessor) SuggestPositionSize(h trading.Holdings, price decimal.Decimal) decimal.Decimal {
	balance := h.Balance()
	if !price.IsPositive() || !balance.IsPositive() {
		return decimal.Zero
	}
	return balance.Mul(a.fraction).Div(price).Floor()
}
