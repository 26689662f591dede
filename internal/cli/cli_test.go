package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capital-trader/internal/alerts"
	"capital-trader/internal/config"
	"capital-trader/internal/desk"
	terrors "capital-trader/internal/errors"
	"capital-trader/internal/models"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "data", "trader.db")
	cfg.Notifications.Enabled = false
	return cfg
}

func runCLI(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	return runCLIContext(context.Background(), cfg, args...)
}

func runCLIContext(ctx context.Context, cfg *config.Config, args ...string) (string, error) {
	cmd := NewRootCmd(cfg, zerolog.Nop())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func mustRun(t *testing.T, cfg *config.Config, args ...string) string {
	t.Helper()
	out, err := runCLI(t, cfg, args...)
	require.NoError(t, err, out)
	return out
}

func decodeJSON(t *testing.T, out string, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

type accountView struct {
	AccountID      string                     `json:"account_id"`
	Kind           string                     `json:"kind"`
	Balance        decimal.Decimal            `json:"balance"`
	Portfolio      map[string]decimal.Decimal `json:"portfolio"`
	PortfolioValue decimal.Decimal            `json:"portfolio_value"`
}

func showAccount(t *testing.T, cfg *config.Config, id string, extra ...string) accountView {
	t.Helper()
	var view accountView
	decodeJSON(t, mustRun(t, cfg, append([]string{"account", "show", id, "--json"}, extra...)...), &view)
	return view
}

func TestAccountCommands(t *testing.T) {
	cfg := testConfig(t)

	mustRun(t, cfg, "account", "create", "PT001", "--holder", "Jane Smith", "--kind", "professional", "--balance", "100000")
	mustRun(t, cfg, "account", "deposit", "PT001", "500")
	out := mustRun(t, cfg, "account", "withdraw", "PT001", "250.50")
	assert.Contains(t, out, "$100,249.50")

	view := showAccount(t, cfg, "PT001")
	assert.Equal(t, "professional", view.Kind)
	assert.True(t, view.Balance.Equal(decimal.RequireFromString("100249.50")))
	assert.Empty(t, view.Portfolio)

	_, err := runCLI(t, cfg, "account", "create", "PT001", "--holder", "Someone")
	assert.ErrorIs(t, err, terrors.ErrAccountExists)

	_, err = runCLI(t, cfg, "account", "withdraw", "PT001", "200000")
	assert.ErrorIs(t, err, terrors.ErrInsufficientFunds)

	_, err = runCLI(t, cfg, "account", "deposit", "PT001", "0")
	assert.ErrorIs(t, err, terrors.ErrInvalidAmount)

	_, err = runCLI(t, cfg, "account", "show", "missing")
	assert.ErrorIs(t, err, terrors.ErrAccountNotFound)

	_, err = runCLI(t, cfg, "account", "create", "X1", "--holder", "h", "--kind", "bond")
	assert.Error(t, err)

	mustRun(t, cfg, "account", "create", "CT001", "--holder", "Sam Lee", "--kind", "crypto")
	out = mustRun(t, cfg, "account", "list")
	assert.Contains(t, out, "CT001")
	assert.Contains(t, out, "PT001")
}

func TestTradeCommands(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "account", "create", "ST001", "--holder", "h", "--balance", "1000")

	var conf models.Confirmation
	decodeJSON(t, mustRun(t, cfg, "trade", "buy", "ST001", "AAPL", "5", "100.25", "--json"), &conf)
	assert.Equal(t, models.SideBuy, conf.Side)
	assert.True(t, conf.Cost.Equal(decimal.RequireFromString("501.25")))
	assert.True(t, conf.Balance.Equal(decimal.RequireFromString("498.75")))
	assert.NotEmpty(t, conf.ID)

	_, err := runCLI(t, cfg, "trade", "sell", "ST001", "AAPL", "6", "100")
	assert.ErrorIs(t, err, terrors.ErrInsufficientHoldings)

	_, err = runCLI(t, cfg, "trade", "buy", "ST001", "AAPL", "100", "100")
	assert.ErrorIs(t, err, terrors.ErrInsufficientFunds)

	mustRun(t, cfg, "trade", "sell", "ST001", "AAPL", "2", "110")

	view := showAccount(t, cfg, "ST001", "--price", "AAPL=120")
	assert.True(t, view.Balance.Equal(decimal.RequireFromString("718.75")))
	assert.True(t, view.Portfolio["AAPL"].Equal(decimal.NewFromInt(3)))
	assert.True(t, view.PortfolioValue.Equal(decimal.NewFromInt(360)))

	var trades []models.Confirmation
	decodeJSON(t, mustRun(t, cfg, "trade", "list", "--account", "ST001", "--json"), &trades)
	require.Len(t, trades, 2)
	assert.Equal(t, models.SideSell, trades[0].Side)

	decodeJSON(t, mustRun(t, cfg, "trade", "list", "--side", "buy", "--json"), &trades)
	require.Len(t, trades, 1)

	_, err = runCLI(t, cfg, "trade", "list", "--side", "hold")
	assert.Error(t, err)
}

func TestRiskPerformanceAndTrend(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "account", "create", "ST001", "--holder", "h", "--balance", "55000")
	mustRun(t, cfg, "account", "create", "CT001", "--holder", "h", "--kind", "crypto", "--balance", "1000")
	mustRun(t, cfg, "trade", "buy", "ST001", "AAPL", "11", "100")

	var risk struct {
		Risk      models.RiskReport `json:"risk"`
		Suggested decimal.Decimal   `json:"suggested_quantity"`
	}
	decodeJSON(t, mustRun(t, cfg, "risk", "ST001", "--price", "150", "--json"), &risk)
	assert.Equal(t, models.RiskMedium, risk.Risk.Tier)
	assert.True(t, risk.Risk.Exposure.Equal(decimal.NewFromInt(11)))
	// 53900 * 0.10 / 150 = 35.93
	assert.True(t, risk.Suggested.Equal(decimal.NewFromInt(35)))

	prices := writeFile(t, "prices.yaml", "AAPL: 120\nTSLA: 200\n")
	var perf models.PerformanceReport
	decodeJSON(t, mustRun(t, cfg, "performance", "ST001", "--prices", prices, "--json"), &perf)
	assert.Equal(t, "stock", perf.Type)
	assert.True(t, perf.TotalValue.Equal(decimal.NewFromInt(1320)))
	assert.True(t, perf.Equity.Equal(decimal.NewFromInt(55220)))

	decodeJSON(t, mustRun(t, cfg, "performance", "CT001", "--json"), &perf)
	assert.Equal(t, "crypto", perf.Type)
	assert.True(t, perf.TotalValue.IsZero())

	var trend models.TrendSignal
	decodeJSON(t, mustRun(t, cfg, "trend", "ST001", "AAPL", "--json"), &trend)
	assert.Equal(t, "upward", trend.Trend)
	assert.InDelta(t, 0.85, trend.Confidence, 1e-9)

	_, err := runCLI(t, cfg, "trend", "CT001", "BTC")
	assert.ErrorIs(t, err, terrors.ErrCapabilityUnavailable)
}

func TestAlertCommands(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "account", "create", "CT001", "--holder", "h", "--kind", "crypto")
	mustRun(t, cfg, "account", "create", "ST001", "--holder", "h")

	mustRun(t, cfg, "alert", "set", "CT001", "BTC", "50000", "above")
	mustRun(t, cfg, "alert", "set", "CT001", "ETH", "2000", "below")

	var pending []models.Alert
	decodeJSON(t, mustRun(t, cfg, "alert", "list", "CT001", "--json"), &pending)
	require.Len(t, pending, 2)
	assert.Equal(t, "BTC", pending[0].Asset)

	var triggered []alerts.Triggered
	decodeJSON(t, mustRun(t, cfg, "alert", "check", "CT001", "--price", "BTC=51000", "--price", "ETH=2500", "--json"), &triggered)
	require.Len(t, triggered, 1)
	assert.Equal(t, "BTC", triggered[0].Alert.Asset)

	// Alerts stay registered after they fire.
	decodeJSON(t, mustRun(t, cfg, "alert", "list", "CT001", "--json"), &pending)
	assert.Len(t, pending, 2)

	_, err := runCLI(t, cfg, "alert", "set", "CT001", "BTC", "1", "sideways")
	assert.Error(t, err)

	_, err = runCLI(t, cfg, "alert", "set", "ST001", "AAPL", "100", "above")
	assert.ErrorIs(t, err, terrors.ErrCapabilityUnavailable)
}

func TestAlertWatch(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "account", "create", "CT001", "--holder", "h", "--kind", "crypto")
	mustRun(t, cfg, "alert", "set", "CT001", "BTC", "50000", "above")

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()

	out, err := runCLIContext(ctx, cfg, "alert", "watch", "CT001", "--every", "1s", "--price", "BTC=60000")
	require.NoError(t, err)
	assert.Contains(t, out, "BTC is $60,000.00")

	_, err = runCLI(t, cfg, "alert", "watch", "CT001", "--every", "10ms")
	assert.Error(t, err)
}

const strategyYAML = `stocks: [AAPL, GOOGL]
crypto: [BTC, ETH]
allocation:
  stocks: 0.7
  crypto: 0.3
`

const pricesYAML = `AAPL: 150
GOOGL: 2800
BTC: 30000
ETH: 2000
`

func TestStrategyRun(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "account", "create", "PT001", "--holder", "Jane Smith", "--kind", "professional", "--balance", "100000")
	mustRun(t, cfg, "account", "create", "ST001", "--holder", "h", "--balance", "100000")

	strategy := writeFile(t, "strategy.yaml", strategyYAML)
	prices := writeFile(t, "prices.yaml", pricesYAML)

	var res models.StrategyResult
	decodeJSON(t, mustRun(t, cfg, "strategy", "run", "PT001", "-f", strategy, "--prices", prices, "--json"), &res)
	assert.Equal(t, models.StrategyExecuted, res.Status)
	require.Len(t, res.Trades, 3)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "BTC", res.Skipped[0].Asset)

	view := showAccount(t, cfg, "PT001")
	// 100000 - 233*150 - 12*2800 - 7*2000
	assert.True(t, view.Balance.Equal(decimal.NewFromInt(17450)))
	assert.True(t, view.Portfolio["AAPL"].Equal(decimal.NewFromInt(233)))

	var trades []models.Confirmation
	decodeJSON(t, mustRun(t, cfg, "trade", "list", "--account", "PT001", "--json"), &trades)
	assert.Len(t, trades, 3)

	_, err := runCLI(t, cfg, "strategy", "run", "ST001", "-f", strategy)
	assert.ErrorIs(t, err, terrors.ErrCapabilityUnavailable)

	_, err = runCLI(t, cfg, "strategy", "run", "PT001", "-f", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestStrategyRunDefaultsAndFallbacks(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "account", "create", "PT001", "--holder", "h", "--kind", "professional", "--balance", "10000")

	// No allocation: 0.5/0.5 from config. No prices: fallbacks 100 and 1000.
	strategy := writeFile(t, "strategy.yaml", "stocks: [A]\ncrypto: [C]\n")

	var res models.StrategyResult
	decodeJSON(t, mustRun(t, cfg, "strategy", "run", "PT001", "-f", strategy, "--json"), &res)
	require.Len(t, res.Trades, 2)
	assert.True(t, res.Trades[0].Quantity.Equal(decimal.NewFromInt(50)))
	assert.True(t, res.Trades[1].Quantity.Equal(decimal.NewFromInt(5)))

	view := showAccount(t, cfg, "PT001")
	assert.True(t, view.Balance.IsZero())
}

func TestStrategyRunAll(t *testing.T) {
	cfg := testConfig(t)
	for _, id := range []string{"PT001", "PT002"} {
		mustRun(t, cfg, "account", "create", id, "--holder", "h", "--kind", "professional", "--balance", "100000")
	}
	mustRun(t, cfg, "account", "create", "CT001", "--holder", "h", "--kind", "crypto", "--balance", "100000")

	strategy := writeFile(t, "strategy.yaml", strategyYAML)
	prices := writeFile(t, "prices.yaml", pricesYAML)

	var results []desk.AccountResult
	decodeJSON(t, mustRun(t, cfg, "strategy", "run", "--all", "-f", strategy, "--prices", prices, "--json"), &results)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Empty(t, r.Error)
		require.NotNil(t, r.Result)
		assert.Len(t, r.Result.Trades, 3)
		assert.True(t, showAccount(t, cfg, r.AccountID).Balance.Equal(decimal.NewFromInt(17450)))
	}
	assert.True(t, showAccount(t, cfg, "CT001").Balance.Equal(decimal.NewFromInt(100000)))

	_, err := runCLI(t, cfg, "strategy", "run", "PT001", "--all", "-f", strategy)
	assert.Error(t, err)
}

func TestVersionAndConfig(t *testing.T) {
	cfg := testConfig(t)

	var version map[string]string
	decodeJSON(t, mustRun(t, cfg, "version", "--json"), &version)
	assert.Equal(t, Version, version["version"])

	out := mustRun(t, cfg, "config", "show")
	assert.Contains(t, out, "Pool basis:       initial")

	mustRun(t, cfg, "config", "validate")

	cfg.Strategy.PoolBasis = "everything"
	_, err := runCLI(t, cfg, "config", "validate")
	assert.ErrorIs(t, err, terrors.ErrConfigInvalid)
}

func TestConfigFlagLoadsDirectory(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "custom.db")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
[strategy]
pool_basis = "remaining"

[store]
path = "`+storePath+`"
`), 0600))

	out := mustRun(t, testConfig(t), "--config", dir, "config", "show", "--json")
	var loaded config.Config
	decodeJSON(t, out, &loaded)
	assert.Equal(t, config.PoolBasisRemaining, loaded.Strategy.PoolBasis)
	assert.Equal(t, storePath, loaded.Store.Path)
}
