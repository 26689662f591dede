// Package trader composes an account with the capabilities a trader variant
// holds. Which operations a variant offers is fixed by the capability
// instances it owns and checked at compile time through the interfaces below.
package trader

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"capital-trader/internal/alerts"
	"capital-trader/internal/analytics"
	terrors "capital-trader/internal/errors"
	"capital-trader/internal/models"
	"capital-trader/internal/notify"
	"capital-trader/internal/risk"
	"capital-trader/internal/trading"
)

// Kind identifies a trader variant.
type Kind string

const (
	KindStock        Kind = "stock"
	KindCrypto       Kind = "crypto"
	KindProfessional Kind = "professional"
)

// ParseKind validates a variant name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindStock, KindCrypto, KindProfessional:
		return k, nil
	}
	return "", terrors.NewValidationError("kind", s, "kind must be stock, crypto or professional", nil)
}

// AccountHolder is implemented by every variant.
type AccountHolder interface {
	ID() string
	Holder() string
	Kind() Kind
	Account() *trading.Account
	Balance() decimal.Decimal
	Portfolio() map[string]decimal.Decimal
	Deposit(amount decimal.Decimal) error
	Withdraw(amount decimal.Decimal) (decimal.Decimal, error)
	PortfolioValue(prices trading.PriceLookup) decimal.Decimal
	ExecuteTrade(trade models.Trade) (models.Confirmation, error)
	Performance(prices trading.PriceLookup) models.PerformanceReport
}

// RiskAware is implemented by variants holding a risk assessor.
type RiskAware interface {
	AssessRisk() models.RiskReport
	SuggestPositionSize(price decimal.Decimal) decimal.Decimal
}

// AnalyticsAware is implemented by variants holding an analytics engine.
type AnalyticsAware interface {
	MarketTrend(ctx context.Context, asset string) (models.TrendSignal, error)
}

// AlertAware is implemented by variants holding an alert registry.
type AlertAware interface {
	SetAlert(asset string, price decimal.Decimal, condition models.AlertCondition) (models.Alert, error)
	PendingAlerts() []models.Alert
	CheckAlerts(ctx context.Context, prices trading.PriceLookup) []alerts.Triggered
	Alerts() *alerts.Registry
}

// Strategist is implemented by variants holding a strategy planner.
type Strategist interface {
	ExecuteDiversified(strategy models.AllocationStrategy, prices trading.PriceLookup) (models.StrategyResult, error)
}

// Trader is the common surface of all variants.
type Trader interface {
	AccountHolder
	RiskAware
}

var (
	_ Trader         = (*StockTrader)(nil)
	_ AnalyticsAware = (*StockTrader)(nil)

	_ Trader     = (*CryptoTrader)(nil)
	_ AlertAware = (*CryptoTrader)(nil)

	_ Trader         = (*ProfessionalTrader)(nil)
	_ AnalyticsAware = (*ProfessionalTrader)(nil)
	_ AlertAware     = (*ProfessionalTrader)(nil)
	_ Strategist     = (*ProfessionalTrader)(nil)
)

// Deps are the shared collaborators handed to each trader. Nil members are
// replaced with defaults.
type Deps struct {
	Executor  *trading.Executor
	Risk      *risk.Assessor
	Analytics *analytics.Engine
	Notifier  notify.Notifier
	Planner   *trading.PlannerConfig
	Logger    zerolog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Executor == nil {
		d.Executor = trading.NewExecutor(d.Logger)
	}
	if d.Risk == nil {
		d.Risk = risk.DefaultAssessor()
	}
	if d.Analytics == nil {
		d.Analytics = analytics.NewEngine(analytics.NewStaticTrendProvider(), nil, d.Logger)
	}
	if d.Planner == nil {
		cfg := trading.DefaultPlannerConfig()
		d.Planner = &cfg
	}
	return d
}

// New builds the variant named by kind around acct.
func New(kind Kind, acct *trading.Account, deps Deps) (Trader, error) {
	switch kind {
	case KindStock:
		return NewStockTrader(acct, deps), nil
	case KindCrypto:
		return NewCryptoTrader(acct, deps), nil
	case KindProfessional:
		return NewProfessionalTrader(acct, deps), nil
	}
	return nil, fmt.Errorf("unknown trader kind %q", kind)
}

// core carries the account, execution and risk capabilities every variant has.
type core struct {
	account  *trading.Account
	executor *trading.Executor
	risk     *risk.Assessor
	kind     Kind
	tag      string
}

func newCore(acct *trading.Account, deps Deps, kind Kind, tag string) core {
	return core{account: acct, executor: deps.Executor, risk: deps.Risk, kind: kind, tag: tag}
}

func (c *core) ID() string                            { return c.account.ID() }
func (c *core) Holder() string                        { return c.account.Holder() }
func (c *core) Kind() Kind                            { return c.kind }
func (c *core) Account() *trading.Account             { return c.account }
func (c *core) Balance() decimal.Decimal              { return c.account.Balance() }
func (c *core) Portfolio() map[string]decimal.Decimal { return c.account.Portfolio() }
func (c *core) Deposit(amount decimal.Decimal) error  { return c.account.Deposit(amount) }
func (c *core) AssessRisk() models.RiskReport         { return c.risk.Assess(c.account) }
func (c *core) Withdraw(amount decimal.Decimal) (decimal.Decimal, error) {
	return c.account.Withdraw(amount)
}

func (c *core) PortfolioValue(prices trading.PriceLookup) decimal.Decimal {
	return c.account.PortfolioValue(prices)
}

func (c *core) ExecuteTrade(trade models.Trade) (models.Confirmation, error) {
	return c.executor.Execute(c.account, trade)
}

func (c *core) SuggestPositionSize(price decimal.Decimal) decimal.Decimal {
	return c.risk.SuggestPositionSize(c.account, price)
}

// Performance reports the portfolio tagged with the variant's performance type.
func (c *core) Performance(prices trading.PriceLookup) models.PerformanceReport {
	return analytics.Report(c.account, prices, c.tag)
}

type trendCapability struct {
	engine *analytics.Engine
}

// MarketTrend asks the analytics engine for the trend of asset.
func (t trendCapability) MarketTrend(ctx context.Context, asset string) (models.TrendSignal, error) {
	return t.engine.Trend(ctx, asset)
}

type alertCapability struct {
	registry *alerts.Registry
}

// SetAlert registers a price alert.
func (a alertCapability) SetAlert(asset string, price decimal.Decimal, condition models.AlertCondition) (models.Alert, error) {
	return a.registry.SetAlert(asset, price, condition)
}

// PendingAlerts returns a snapshot of the registered alerts.
func (a alertCapability) PendingAlerts() []models.Alert {
	return a.registry.ListPending()
}

// CheckAlerts returns the alerts whose condition holds at prices.
func (a alertCapability) CheckAlerts(ctx context.Context, prices trading.PriceLookup) []alerts.Triggered {
	return a.registry.Check(ctx, prices)
}

// Alerts returns the underlying registry.
func (a alertCapability) Alerts() *alerts.Registry {
	return a.registry
}

// StockTrader trades stocks and reads market trends.
type StockTrader struct {
	core
	trendCapability
}

// NewStockTrader creates a stock trader around acct.
func NewStockTrader(acct *trading.Account, deps Deps) *StockTrader {
	deps = deps.withDefaults()
	return &StockTrader{
		core:            newCore(acct, deps, KindStock, analytics.TagStock),
		trendCapability: trendCapability{engine: deps.Analytics},
	}
}

// CryptoTrader trades crypto assets and keeps price alerts.
type CryptoTrader struct {
	core
	alertCapability
}

// NewCryptoTrader creates a crypto trader around acct.
func NewCryptoTrader(acct *trading.Account, deps Deps) *CryptoTrader {
	deps = deps.withDefaults()
	return &CryptoTrader{
		core:            newCore(acct, deps, KindCrypto, analytics.TagCrypto),
		alertCapability: alertCapability{registry: alerts.NewRegistry(acct.ID(), deps.Notifier, deps.Logger)},
	}
}

// ProfessionalTrader holds every capability and runs diversified strategies.
// Its performance reports are tagged "stock".
type ProfessionalTrader struct {
	core
	trendCapability
	alertCapability
	planner *trading.Planner
}

// NewProfessionalTrader creates a professional trader around acct.
func NewProfessionalTrader(acct *trading.Account, deps Deps) *ProfessionalTrader {
	deps = deps.withDefaults()
	return &ProfessionalTrader{
		core:            newCore(acct, deps, KindProfessional, analytics.TagStock),
		trendCapability: trendCapability{engine: deps.Analytics},
		alertCapability: alertCapability{registry: alerts.NewRegistry(acct.ID(), deps.Notifier, deps.Logger)},
		planner:         trading.NewPlanner(deps.Executor, *deps.Planner, deps.Logger),
	}
}

// ExecuteDiversified runs a diversified allocation against the trader's account.
func (p *ProfessionalTrader) ExecuteDiversified(strategy models.AllocationStrategy, prices trading.PriceLookup) (models.StrategyResult, error) {
	return p.planner.ExecuteDiversified(p.account, strategy, prices)
}
