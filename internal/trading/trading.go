// Package trading provides the account ledger, single-trade execution and the
// diversified allocation planner.
//
// Every operation on an Account is serialized by the account's own mutex.
// Multi-step operations (a trade, a strategy batch) run inside
// Account.Atomically so no other caller observes intermediate state.
package trading

import "github.com/shopspring/decimal"

// Holdings is the read-only view of an account used by the risk and
// analytics capabilities.
type Holdings interface {
	Balance() decimal.Decimal
	Portfolio() map[string]decimal.Decimal
}

// PriceLookup resolves the unit price of an asset. ok is false when the
// asset has no quote.
type PriceLookup interface {
	Price(asset string) (price decimal.Decimal, ok bool)
}

// Prices is a pre-populated price table.
type Prices map[string]decimal.Decimal

// Price implements PriceLookup.
func (p Prices) Price(asset string) (decimal.Decimal, bool) {
	price, ok := p[asset]
	return price, ok
}

// PricesFromFloats builds a price table from float quotes.
func PricesFromFloats(quotes map[string]float64) Prices {
	prices := make(Prices, len(quotes))
	for asset, q := range quotes {
		prices[asset] = decimal.NewFromFloat(q)
	}
	return prices
}

// PriceFunc adapts a function to PriceLookup.
type PriceFunc func(asset string) (decimal.Decimal, bool)

// Price implements PriceLookup.
func (f PriceFunc) Price(asset string) (decimal.Decimal, bool) {
	return f(asset)
}

// PortfolioValue sums quantity × price over a portfolio. Assets without a
// quote contribute zero.
func PortfolioValue(portfolio map[string]decimal.Decimal, prices PriceLookup) decimal.Decimal {
	total := decimal.Zero
	for asset, qty := range portfolio {
		price, ok := prices.Price(asset)
		if !ok {
			continue
		}
		total = total.Add(qty.Mul(price))
	}
	return total
}
