package trading

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	terrors "capital-trader/internal/errors"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestAccount(t *testing.T, balance string) *Account {
	t.Helper()
	acct, err := NewAccount("ACC-1", "Jane Smith", d(balance))
	require.NoError(t, err)
	return acct
}

func TestNewAccountValidation(t *testing.T) {
	_, err := NewAccount("", "Nobody", d("10"))
	require.Error(t, err)

	_, err = NewAccount("ACC-1", "Jane", d("-1"))
	assert.ErrorIs(t, err, terrors.ErrInvalidAmount)

	acct, err := NewAccount("ACC-1", "Jane", decimal.Zero)
	require.NoError(t, err)
	assert.True(t, acct.Balance().IsZero())
	assert.Equal(t, "Jane", acct.Holder())
	assert.Empty(t, acct.Portfolio())
}

func TestDeposit(t *testing.T) {
	acct := newTestAccount(t, "50000")

	require.NoError(t, acct.Deposit(d("10000")))
	assert.True(t, acct.Balance().Equal(d("60000")))

	for _, amount := range []string{"0", "-5"} {
		err := acct.Deposit(d(amount))
		assert.ErrorIs(t, err, terrors.ErrInvalidAmount, amount)
	}
	assert.True(t, acct.Balance().Equal(d("60000")))
}

func TestWithdraw(t *testing.T) {
	acct := newTestAccount(t, "60000")

	balance, err := acct.Withdraw(d("5000"))
	require.NoError(t, err)
	assert.True(t, balance.Equal(d("55000")))
	assert.True(t, acct.Balance().Equal(d("55000")))

	_, err = acct.Withdraw(d("55000.01"))
	assert.ErrorIs(t, err, terrors.ErrInsufficientFunds)
	assert.True(t, acct.Balance().Equal(d("55000")))

	_, err = acct.Withdraw(decimal.Zero)
	assert.ErrorIs(t, err, terrors.ErrInvalidAmount)

	// Withdrawing the full balance is allowed.
	balance, err = acct.Withdraw(d("55000"))
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestUpdatePositionRemovesZeroHoldings(t *testing.T) {
	acct := newTestAccount(t, "0")

	acct.UpdatePosition("AAPL", d("5"))
	acct.UpdatePosition("AAPL", d("2.5"))
	assert.True(t, acct.Quantity("AAPL").Equal(d("7.5")))

	acct.UpdatePosition("AAPL", d("-7.5"))
	_, present := acct.Portfolio()["AAPL"]
	assert.False(t, present)

	// Zeroed assets contribute nothing to the portfolio value.
	prices := Prices{"AAPL": d("150")}
	assert.True(t, acct.PortfolioValue(prices).IsZero())

	// Short positions are stored signed.
	acct.UpdatePosition("TSLA", d("-3"))
	assert.True(t, acct.Quantity("TSLA").Equal(d("-3")))
}

func TestPortfolioValueMissingPricesCountAsZero(t *testing.T) {
	acct := newTestAccount(t, "0")
	acct.UpdatePosition("AAPL", d("10"))
	acct.UpdatePosition("GOOGL", d("2"))
	acct.UpdatePosition("BTC", d("1"))

	prices := PricesFromFloats(map[string]float64{"AAPL": 150, "BTC": 30000})
	assert.True(t, acct.PortfolioValue(prices).Equal(d("31500")))
}

func TestPortfolioReturnsCopy(t *testing.T) {
	acct := newTestAccount(t, "0")
	acct.UpdatePosition("ETH", d("2"))

	snapshot := acct.Portfolio()
	snapshot["ETH"] = d("100")
	snapshot["DOGE"] = d("1")

	assert.True(t, acct.Quantity("ETH").Equal(d("2")))
	assert.Len(t, acct.Portfolio(), 1)
}

func TestSnapshotRestore(t *testing.T) {
	acct := newTestAccount(t, "1234.56")
	acct.UpdatePosition("AAPL", d("3"))

	snap := acct.Snapshot()
	snap.Portfolio["ZERO"] = decimal.Zero

	restored, err := Restore(snap)
	require.NoError(t, err)
	assert.Equal(t, "ACC-1", restored.ID())
	assert.Equal(t, "Jane Smith", restored.Holder())
	assert.True(t, restored.Balance().Equal(d("1234.56")))
	assert.Equal(t, []string{"AAPL"}, keys(restored.Portfolio()))

	_, err = Restore(Snapshot{ID: "X", Balance: d("-1")})
	assert.ErrorIs(t, err, terrors.ErrInvalidAmount)
}

func TestConcurrentDepositsAreSerialized(t *testing.T) {
	acct := newTestAccount(t, "0")

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = acct.Deposit(d("1"))
			acct.UpdatePosition("X", d("1"))
		}()
	}
	wg.Wait()

	assert.True(t, acct.Balance().Equal(d("100")))
	assert.True(t, acct.Quantity("X").Equal(d("100")))
}

func TestPriceFunc(t *testing.T) {
	lookup := PriceFunc(func(asset string) (decimal.Decimal, bool) {
		if asset == "A" {
			return d("2"), true
		}
		return decimal.Zero, false
	})
	portfolio := map[string]decimal.Decimal{"A": d("3"), "B": d("100")}
	assert.True(t, PortfolioValue(portfolio, lookup).Equal(d("6")))
}

func keys(m map[string]decimal.Decimal) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
