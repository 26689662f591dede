// Package analytics provides the market trend lookup and portfolio
// performance reports.
package analytics

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"

	terrors "capital-trader/internal/errors"
	"capital-trader/internal/logging"
	"capital-trader/internal/models"
	"capital-trader/internal/resilience"
	"capital-trader/internal/trading"
)

// Performance type tags.
const (
	TagStock  = "stock"
	TagCrypto = "crypto"
)

// TrendProvider answers market trend queries for an asset.
type TrendProvider interface {
	Name() string
	Trend(ctx context.Context, asset string) (models.TrendSignal, error)
}

// StaticTrendProvider returns the same signal for every asset.
type StaticTrendProvider struct {
	Signal models.TrendSignal
}

// NewStaticTrendProvider returns the fixed "upward" / 0.85 provider.
func NewStaticTrendProvider() *StaticTrendProvider {
	return &StaticTrendProvider{Signal: models.TrendSignal{Trend: "upward", Confidence: 0.85}}
}

// Name implements TrendProvider.
func (p *StaticTrendProvider) Name() string { return "static" }

// Trend implements TrendProvider.
func (p *StaticTrendProvider) Trend(ctx context.Context, asset string) (models.TrendSignal, error) {
	if err := ctx.Err(); err != nil {
		return models.TrendSignal{}, err
	}
	return p.Signal, nil
}

// Engine computes performance reports and guards trend lookups.
type Engine struct {
	provider TrendProvider
	breaker  *resilience.Breaker
	logger   zerolog.Logger
}

// NewEngine creates an analytics engine. A nil breaker installs one with the
// default configuration.
func NewEngine(provider TrendProvider, breaker *resilience.Breaker, logger zerolog.Logger) *Engine {
	logger = logging.WithComponent(logger, "analytics")
	if breaker == nil {
		breaker = resilience.NewBreaker("trend:"+provider.Name(), resilience.DefaultBreakerConfig(), logger)
	}
	return &Engine{provider: provider, breaker: breaker, logger: logger}
}

// Trend asks the provider for the trend of asset. Provider errors, timeouts,
// an open breaker and out-of-range confidences are all reported as
// ErrAnalyticsUnavailable.
func (e *Engine) Trend(ctx context.Context, asset string) (models.TrendSignal, error) {
	signal, err := resilience.Call(ctx, e.breaker, func(ctx context.Context) (models.TrendSignal, error) {
		return e.provider.Trend(ctx, asset)
	})
	if err != nil {
		e.logger.Warn().Err(err).Str("asset", asset).Str("provider", e.provider.Name()).Msg("Trend lookup failed")
		return models.TrendSignal{}, terrors.NewAnalyticsError(e.provider.Name(), asset, err)
	}
	if math.IsNaN(signal.Confidence) || signal.Confidence < 0 || signal.Confidence > 1 {
		err := terrors.Wrapf(terrors.ErrInvalidAmount, "confidence %v out of range", signal.Confidence)
		return models.TrendSignal{}, terrors.NewAnalyticsError(e.provider.Name(), asset, err)
	}
	return signal, nil
}

// BreakerStats exposes the trend breaker counters.
func (e *Engine) BreakerStats() resilience.BreakerStats {
	return e.breaker.Stats()
}

// Performance values the holdings at prices and tags the report.
func (e *Engine) Performance(h trading.Holdings, prices trading.PriceLookup, tag string) models.PerformanceReport {
	return Report(h, prices, tag)
}

// Report values the holdings at prices. TotalValue is the portfolio value
// alone; Equity adds the cash balance. Positions without a quote are listed
// unpriced with zero value.
func Report(h trading.Holdings, prices trading.PriceLookup, tag string) models.PerformanceReport {
	portfolio := h.Portfolio()
	cash := h.Balance()

	assets := make([]string, 0, len(portfolio))
	for asset := range portfolio {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	positions := make([]models.PositionValue, 0, len(assets))
	weights := make([]float64, 0, len(assets))
	total := decimal.Zero
	for _, asset := range assets {
		qty := portfolio[asset]
		pv := models.PositionValue{Asset: asset, Quantity: qty}
		if price, ok := prices.Price(asset); ok {
			pv.Price = price
			pv.Value = qty.Mul(price)
			pv.Priced = true
			total = total.Add(pv.Value)
			weights = append(weights, pv.Value.Abs().InexactFloat64())
		}
		positions = append(positions, pv)
	}

	return models.PerformanceReport{
		TotalValue:    total,
		Type:          tag,
		Cash:          cash,
		Equity:        cash.Add(total),
		Positions:     positions,
		Concentration: Concentration(weights),
	}
}

// Concentration returns the largest share of the summed absolute values, or 0
// when nothing is held.
func Concentration(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := floats.Sum(values)
	if sum == 0 {
		return 0
	}
	return floats.Max(values) / sum
}
