package trading

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"capital-trader/internal/models"
)

func propertyParameters() *gopter.TestParameters {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())
	return parameters
}

// Property: depositing then withdrawing the same positive amount restores the
// balance, and the withdraw reports the balance it leaves behind.
func TestProperty_DepositWithdrawRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("deposit then withdraw restores balance", prop.ForAll(
		func(initialCents, amountCents int64) bool {
			initial := decimal.New(initialCents, -2)
			amount := decimal.New(amountCents, -2)

			acct, err := NewAccount("P-1", "prop", initial)
			if err != nil {
				return false
			}
			if err := acct.Deposit(amount); err != nil {
				return false
			}
			remaining, err := acct.Withdraw(amount)
			if err != nil {
				return false
			}
			return remaining.Equal(initial) && acct.Balance().Equal(initial)
		},
		gen.Int64Range(0, 10_000_000),
		gen.Int64Range(1, 10_000_000),
	))

	properties.TestingRun(t)
}

// Property: a buy is applied only when quantity × price fits the balance; a
// rejected buy leaves the account unchanged.
func TestProperty_BuyNeverOverdraws(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("balance never goes negative", prop.ForAll(
		func(balance, qty, price int64) bool {
			acct, _ := NewAccount("P-1", "prop", decimal.NewFromInt(balance))
			_, err := newTestExecutor().Execute(acct, models.Buy("X", decimal.NewFromInt(qty), decimal.NewFromInt(price)))

			cost := qty * price
			if cost > balance {
				return err != nil &&
					acct.Balance().Equal(decimal.NewFromInt(balance)) &&
					acct.Quantity("X").IsZero()
			}
			return err == nil &&
				acct.Balance().Equal(decimal.NewFromInt(balance-cost)) &&
				acct.Quantity("X").Equal(decimal.NewFromInt(qty))
		},
		gen.Int64Range(0, 1_000_000),
		gen.Int64Range(1, 1_000),
		gen.Int64Range(1, 1_000),
	))

	properties.TestingRun(t)
}

// Property: buying and selling the same quantity at the same price restores
// both balance and portfolio.
func TestProperty_BuySellRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("round trip is neutral", prop.ForAll(
		func(qty, price int64) bool {
			start := decimal.NewFromInt(qty * price)
			acct, _ := NewAccount("P-1", "prop", start)
			exec := newTestExecutor()

			q, p := decimal.NewFromInt(qty), decimal.NewFromInt(price)
			if _, err := exec.Execute(acct, models.Buy("X", q, p)); err != nil {
				return false
			}
			if _, err := exec.Execute(acct, models.Sell("X", q, p)); err != nil {
				return false
			}
			return acct.Balance().Equal(start) && len(acct.Portfolio()) == 0
		},
		gen.Int64Range(1, 10_000),
		gen.Int64Range(1, 10_000),
	))

	properties.TestingRun(t)
}

// Property: with fractions summing to at most one, a diversified run never
// fails a trade and never spends more than the starting balance.
func TestProperty_DiversifiedStaysWithinBalance(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("no failures and no overspend", prop.ForAll(
		func(balance int64, stockPct int, priceA, priceB, priceC int64) bool {
			start := decimal.NewFromInt(balance)
			acct, _ := NewAccount("P-1", "prop", start)
			planner := NewPlanner(newTestExecutor(), DefaultPlannerConfig(), zerolog.Nop())

			strategy := models.AllocationStrategy{
				Stocks:         []string{"A", "B"},
				Crypto:         []string{"C"},
				StockFraction:  decimal.New(int64(stockPct), -2),
				CryptoFraction: decimal.New(int64(100-stockPct), -2),
			}
			prices := Prices{
				"A": decimal.NewFromInt(priceA),
				"B": decimal.NewFromInt(priceB),
				"C": decimal.NewFromInt(priceC),
			}

			res, err := planner.ExecuteDiversified(acct, strategy, prices)
			if err != nil || len(res.Failed) != 0 || res.Status != models.StrategyExecuted {
				return false
			}
			spent := decimal.Zero
			for _, c := range res.Trades {
				spent = spent.Add(c.Cost)
			}
			return !acct.Balance().IsNegative() &&
				acct.Balance().Equal(start.Sub(spent)) &&
				len(res.Trades)+len(res.Skipped) == 3
		},
		gen.Int64Range(0, 1_000_000),
		gen.IntRange(0, 100),
		gen.Int64Range(1, 5_000),
		gen.Int64Range(1, 5_000),
		gen.Int64Range(1, 50_000),
	))

	properties.TestingRun(t)
}
