package trading

import (
	"sync"

	"github.com/shopspring/decimal"

	terrors "capital-trader/internal/errors"
)

// Ledger is the unsynchronized state of one account. It is only reachable
// through Account.Atomically, which holds the account lock for its lifetime;
// callers must not retain it after the callback returns.
type Ledger struct {
	id        string
	holder    string
	balance   decimal.Decimal
	portfolio map[string]decimal.Decimal
}

// ID returns the account identifier.
func (l *Ledger) ID() string { return l.id }

// Balance returns the cash balance.
func (l *Ledger) Balance() decimal.Decimal { return l.balance }

// Quantity returns the held quantity of asset, zero when absent.
func (l *Ledger) Quantity(asset string) decimal.Decimal { return l.portfolio[asset] }

// Portfolio returns a copy of the holdings.
func (l *Ledger) Portfolio() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(l.portfolio))
	for asset, qty := range l.portfolio {
		out[asset] = qty
	}
	return out
}

// Deposit adds amount to the balance.
func (l *Ledger) Deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return terrors.NewTradeError(l.id, "", "DEPOSIT", "amount must be positive", terrors.ErrInvalidAmount)
	}
	l.balance = l.balance.Add(amount)
	return nil
}

// Withdraw removes amount from the balance and returns the new balance.
func (l *Ledger) Withdraw(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return l.balance, terrors.NewTradeError(l.id, "", "WITHDRAW", "amount must be positive", terrors.ErrInvalidAmount)
	}
	if amount.GreaterThan(l.balance) {
		return l.balance, terrors.NewTradeError(l.id, "", "WITHDRAW",
			"amount "+amount.String()+" exceeds balance "+l.balance.String(), terrors.ErrInsufficientFunds)
	}
	l.balance = l.balance.Sub(amount)
	return l.balance, nil
}

// UpdatePosition adds delta to the holding of asset. A holding that becomes
// exactly zero is removed.
func (l *Ledger) UpdatePosition(asset string, delta decimal.Decimal) {
	qty := l.portfolio[asset].Add(delta)
	if qty.IsZero() {
		delete(l.portfolio, asset)
		return
	}
	l.portfolio[asset] = qty
}

// PortfolioValue values the holdings at the given prices.
func (l *Ledger) PortfolioValue(prices PriceLookup) decimal.Decimal {
	return PortfolioValue(l.portfolio, prices)
}

// Account is a cash balance plus an asset portfolio owned by one holder.
// All methods are safe for concurrent use.
type Account struct {
	mu     sync.Mutex
	ledger Ledger
}

// NewAccount creates an account with an initial balance.
func NewAccount(id, holder string, initialBalance decimal.Decimal) (*Account, error) {
	if id == "" {
		return nil, terrors.NewValidationError("id", id, "account id is required", nil)
	}
	if initialBalance.IsNegative() {
		return nil, terrors.NewTradeError(id, "", "OPEN", "initial balance must not be negative", terrors.ErrInvalidAmount)
	}
	return &Account{
		ledger: Ledger{
			id:        id,
			holder:    holder,
			balance:   initialBalance,
			portfolio: make(map[string]decimal.Decimal),
		},
	}, nil
}

// Snapshot is a point-in-time copy of an account, used by persistence.
type Snapshot struct {
	ID        string                     `json:"id"`
	Holder    string                     `json:"holder"`
	Balance   decimal.Decimal            `json:"balance"`
	Portfolio map[string]decimal.Decimal `json:"portfolio"`
}

// Restore rebuilds an account from a snapshot. Zero holdings are dropped.
func Restore(s Snapshot) (*Account, error) {
	acct, err := NewAccount(s.ID, s.Holder, s.Balance)
	if err != nil {
		return nil, err
	}
	for asset, qty := range s.Portfolio {
		acct.ledger.UpdatePosition(asset, qty)
	}
	return acct, nil
}

// Snapshot returns a copy of the account state.
func (a *Account) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		ID:        a.ledger.id,
		Holder:    a.ledger.holder,
		Balance:   a.ledger.balance,
		Portfolio: a.ledger.Portfolio(),
	}
}

// ID returns the account identifier.
func (a *Account) ID() string { return a.ledger.id }

// Holder returns the account holder name.
func (a *Account) Holder() string { return a.ledger.holder }

// Atomically runs fn with the account lock held.
func (a *Account) Atomically(fn func(l *Ledger) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fn(&a.ledger)
}

// Balance returns the cash balance.
func (a *Account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ledger.balance
}

// Portfolio returns a copy of the holdings.
func (a *Account) Portfolio() map[string]decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ledger.Portfolio()
}

// Quantity returns the held quantity of asset.
func (a *Account) Quantity(asset string) decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ledger.Quantity(asset)
}

// Deposit adds a positive amount to the balance.
func (a *Account) Deposit(amount decimal.Decimal) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ledger.Deposit(amount)
}

// Withdraw removes a positive amount no larger than the balance and returns
// the new balance.
func (a *Account) Withdraw(amount decimal.Decimal) (decimal.Decimal, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ledger.Withdraw(amount)
}

// UpdatePosition adds delta to the holding of asset.
func (a *Account) UpdatePosition(asset string, delta decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ledger.UpdatePosition(asset, delta)
}

// PortfolioValue values the holdings at the given prices.
func (a *Account) PortfolioValue(prices PriceLookup) decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ledger.PortfolioValue(prices)
}
