package trading

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	terrors "capital-trader/internal/errors"
	"capital-trader/internal/logging"
	"capital-trader/internal/models"
	"capital-trader/pkg/utils"
)

// Executor validates and applies single trades.
//
// Buys withdraw quantity × price and add to the position. Sells require the
// account to hold at least the sold quantity, credit the proceeds and reduce
// the position. A rejected trade leaves the account untouched.
type Executor struct {
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
}

// NewExecutor creates a trade executor.
func NewExecutor(logger zerolog.Logger) *Executor {
	return &Executor{
		logger: logging.WithComponent(logger, "executor"),
		now:    time.Now,
		newID:  utils.NewID,
	}
}

// Execute applies trade to acct.
func (e *Executor) Execute(acct *Account, trade models.Trade) (models.Confirmation, error) {
	var conf models.Confirmation
	err := acct.Atomically(func(l *Ledger) error {
		var err error
		conf, err = e.apply(l, trade)
		return err
	})
	return conf, err
}

// apply runs with the account lock held.
func (e *Executor) apply(l *Ledger, trade models.Trade) (models.Confirmation, error) {
	if err := e.validate(l, trade); err != nil {
		e.logger.Debug().Err(err).Str("account_id", l.id).Str("asset", trade.Asset).Msg("Trade rejected")
		return models.Confirmation{}, err
	}

	notional := trade.Notional()
	switch trade.Side {
	case models.SideBuy:
		if _, err := l.Withdraw(notional); err != nil {
			return models.Confirmation{}, err
		}
		l.UpdatePosition(trade.Asset, trade.Quantity)
	case models.SideSell:
		if err := l.Deposit(notional); err != nil {
			return models.Confirmation{}, err
		}
		l.UpdatePosition(trade.Asset, trade.Quantity.Neg())
	}

	conf := models.Confirmation{
		ID:         e.newID(),
		AccountID:  l.id,
		Asset:      trade.Asset,
		Side:       trade.Side,
		Quantity:   trade.Quantity,
		Price:      trade.Price,
		Cost:       notional,
		Balance:    l.balance,
		ExecutedAt: e.now(),
	}
	logging.LogTrade(e.logger, l.id, trade.Asset, string(trade.Side),
		trade.Quantity.String(), trade.Price.String(), l.balance.String())
	return conf, nil
}

// validate checks the whole trade before anything is mutated.
func (e *Executor) validate(l *Ledger, trade models.Trade) error {
	if trade.Asset == "" {
		return terrors.NewValidationError("asset", trade.Asset, "asset is required", terrors.ErrInvalidTrade)
	}
	if !trade.Side.Valid() {
		return terrors.NewValidationError("side", trade.Side, "side must be BUY or SELL", terrors.ErrInvalidTrade)
	}
	side := string(trade.Side)
	if !trade.Quantity.IsPositive() {
		return terrors.NewTradeError(l.id, trade.Asset, side, "quantity must be positive", terrors.ErrInvalidAmount)
	}
	if !trade.Price.IsPositive() {
		return terrors.NewTradeError(l.id, trade.Asset, side, "price must be positive", terrors.ErrInvalidAmount)
	}

	switch trade.Side {
	case models.SideBuy:
		cost := trade.Notional()
		if cost.GreaterThan(l.balance) {
			return terrors.NewTradeError(l.id, trade.Asset, side,
				"cost "+cost.String()+" exceeds balance "+l.balance.String(), terrors.ErrInsufficientFunds)
		}
	case models.SideSell:
		held := l.Quantity(trade.Asset)
		if trade.Quantity.GreaterThan(held) {
			return terrors.NewTradeError(l.id, trade.Asset, side,
				"quantity "+trade.Quantity.String()+" exceeds holding "+held.String(), terrors.ErrInsufficientHoldings)
		}
	}
	return nil
}

// floorQuantity returns floor(funds / price), or zero when price is not positive.
func floorQuantity(funds, price decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() || !funds.IsPositive() {
		return decimal.Zero
	}
	return funds.Div(price).Floor()
}
