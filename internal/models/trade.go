package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is a single buy or sell instruction. Quantity is always a positive
// magnitude; the direction is carried by Side.
type Trade struct {
	Asset    string          `json:"asset" yaml:"asset"`
	Side     Side            `json:"side" yaml:"side"`
	Quantity decimal.Decimal `json:"quantity" yaml:"quantity"`
	Price    decimal.Decimal `json:"price" yaml:"price"`
}

// Buy returns a buy trade.
func Buy(asset string, quantity, price decimal.Decimal) Trade {
	return Trade{Asset: asset, Side: SideBuy, Quantity: quantity, Price: price}
}

// Sell returns a sell trade.
func Sell(asset string, quantity, price decimal.Decimal) Trade {
	return Trade{Asset: asset, Side: SideSell, Quantity: quantity, Price: price}
}

// Notional returns quantity × price.
func (t Trade) Notional() decimal.Decimal {
	return t.Quantity.Mul(t.Price)
}

// Confirmation records an applied trade.
type Confirmation struct {
	ID         string          `json:"id"`
	AccountID  string          `json:"account_id"`
	Asset      string          `json:"asset"`
	Side       Side            `json:"side"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Cost       decimal.Decimal `json:"cost"`
	Balance    decimal.Decimal `json:"balance"`
	ExecutedAt time.Time       `json:"executed_at"`
}
