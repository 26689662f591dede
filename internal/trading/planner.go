package trading

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"capital-trader/internal/config"
	terrors "capital-trader/internal/errors"
	"capital-trader/internal/logging"
	"capital-trader/internal/models"
)

// PlannerConfig holds the allocation policy constants.
type PlannerConfig struct {
	StockFallbackPrice  decimal.Decimal
	CryptoFallbackPrice decimal.Decimal
	// PoolBasis is config.PoolBasisInitial (both pools from the starting
	// balance) or config.PoolBasisRemaining (each pool from the balance when
	// its asset class starts).
	PoolBasis string
}

// DefaultPlannerConfig returns the stock 100 / crypto 1000 fallbacks with
// pools taken from the starting balance.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		StockFallbackPrice:  decimal.NewFromInt(100),
		CryptoFallbackPrice: decimal.NewFromInt(1000),
		PoolBasis:           config.PoolBasisInitial,
	}
}

// PlannerConfigFrom maps the strategy section of the application config.
func PlannerConfigFrom(cfg config.StrategyConfig) PlannerConfig {
	return PlannerConfig{
		StockFallbackPrice:  decimal.NewFromFloat(cfg.StockFallbackPrice),
		CryptoFallbackPrice: decimal.NewFromFloat(cfg.CryptoFallbackPrice),
		PoolBasis:           cfg.PoolBasis,
	}
}

// Planner splits available capital across asset classes and buys each asset
// of a class with an equal share of that class's pool.
type Planner struct {
	executor *Executor
	cfg      PlannerConfig
	logger   zerolog.Logger
}

// NewPlanner creates a strategy planner on top of executor.
func NewPlanner(executor *Executor, cfg PlannerConfig, logger zerolog.Logger) *Planner {
	return &Planner{
		executor: executor,
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "planner"),
	}
}

// ExecuteDiversified runs the allocation as one batch under the account lock.
//
// The batch is not atomic: trades that succeed stay applied even if a later
// trade fails. Assets whose quantity floors to zero are recorded as skipped;
// rejected trades are recorded as failed and the batch continues.
func (p *Planner) ExecuteDiversified(acct *Account, strategy models.AllocationStrategy, prices PriceLookup) (models.StrategyResult, error) {
	if strategy.StockFraction.IsNegative() || strategy.CryptoFraction.IsNegative() {
		return models.StrategyResult{}, terrors.NewValidationError("allocation",
			strategy.StockFraction.String()+"/"+strategy.CryptoFraction.String(),
			"fractions must not be negative", terrors.ErrInvalidAmount)
	}

	result := models.StrategyResult{
		AccountID: acct.ID(),
		Status:    models.StrategyExecuted,
		Trades:    []models.Confirmation{},
	}

	_ = acct.Atomically(func(l *Ledger) error {
		start := l.Balance()

		stockPool := start.Mul(strategy.StockFraction)
		p.allocate(l, &result, models.AssetClassStock, strategy.Stocks, stockPool, p.cfg.StockFallbackPrice, prices)

		cryptoBase := start
		if p.cfg.PoolBasis == config.PoolBasisRemaining {
			cryptoBase = l.Balance()
		}
		cryptoPool := cryptoBase.Mul(strategy.CryptoFraction)
		p.allocate(l, &result, models.AssetClassCrypto, strategy.Crypto, cryptoPool, p.cfg.CryptoFallbackPrice, prices)
		return nil
	})

	if len(result.Failed) > 0 {
		result.Status = models.StrategyPartial
	}
	logging.LogStrategy(p.logger, result.AccountID, result.Status, len(result.Trades), len(result.Skipped), len(result.Failed))
	return result, nil
}

func (p *Planner) allocate(l *Ledger, result *models.StrategyResult, class models.AssetClass,
	assets []string, pool, fallback decimal.Decimal, prices PriceLookup) {
	if len(assets) == 0 {
		return
	}
	perAsset := pool.Div(decimal.NewFromInt(int64(len(assets))))

	for _, asset := range assets {
		price, ok := prices.Price(asset)
		if !ok {
			price = fallback
		}

		qty := floorQuantity(perAsset, price)
		if !qty.IsPositive() {
			reason := "allocation below one unit"
			if !price.IsPositive() {
				reason = "non-positive price"
			}
			result.Skipped = append(result.Skipped, models.SkippedAsset{
				Asset:  asset,
				Class:  class,
				Funds:  perAsset,
				Price:  price,
				Reason: reason,
			})
			continue
		}

		trade := models.Buy(asset, qty, price)
		conf, err := p.executor.apply(l, trade)
		if err != nil {
			result.Failed = append(result.Failed, models.FailedTrade{
				Trade: trade,
				Class: class,
				Error: err.Error(),
				Err:   err,
			})
			continue
		}
		result.Trades = append(result.Trades, conf)
	}
}

// StrategyFromFractions builds an allocation strategy from float fractions.
func StrategyFromFractions(stocks, crypto []string, stockFraction, cryptoFraction float64) models.AllocationStrategy {
	return models.AllocationStrategy{
		Stocks:         stocks,
		Crypto:         crypto,
		StockFraction:  decimal.NewFromFloat(stockFraction),
		CryptoFraction: decimal.NewFromFloat(cryptoFraction),
	}
}
