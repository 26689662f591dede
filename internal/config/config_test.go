package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	terrors "capital-trader/internal/errors"
)

func TestLoadCreatesTemplateAndAppliesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "config.toml"))
	assert.Equal(t, 10.0, cfg.Risk.MediumThreshold)
	assert.Equal(t, 100.0, cfg.Risk.HighThreshold)
	assert.Equal(t, 0.10, cfg.Risk.PositionFraction)
	assert.Equal(t, 100.0, cfg.Strategy.StockFallbackPrice)
	assert.Equal(t, 1000.0, cfg.Strategy.CryptoFallbackPrice)
	assert.Equal(t, PoolBasisInitial, cfg.Strategy.PoolBasis)
	assert.Equal(t, 2*time.Second, cfg.Analytics.TrendTimeout)
	assert.Equal(t, filepath.Join(dir, "trader.db"), cfg.Store.Path)
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[strategy]
stock_fallback_price = 250.0
pool_basis = "remaining"

[analytics]
trend_timeout = "500ms"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 250.0, cfg.Strategy.StockFallbackPrice)
	assert.Equal(t, PoolBasisRemaining, cfg.Strategy.PoolBasis)
	assert.Equal(t, 500*time.Millisecond, cfg.Analytics.TrendTimeout)
	// untouched keys keep defaults
	assert.Equal(t, 1000.0, cfg.Strategy.CryptoFallbackPrice)
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_RISK_POSITION_FRACTION", "0.25")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0.25, cfg.Risk.PositionFraction)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[strategy]
pool_basis = "whatever"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	_, err := Load(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, terrors.ErrConfigInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"thresholds inverted", func(c *Config) { c.Risk.HighThreshold = 5 }},
		{"zero fraction", func(c *Config) { c.Risk.PositionFraction = 0 }},
		{"fraction above one", func(c *Config) { c.Risk.PositionFraction = 1.5 }},
		{"non-positive fallback", func(c *Config) { c.Strategy.CryptoFallbackPrice = 0 }},
		{"negative allocation", func(c *Config) { c.Strategy.DefaultStockFraction = -0.1 }},
		{"no workers", func(c *Config) { c.Strategy.Workers = 0 }},
		{"no timeout", func(c *Config) { c.Analytics.TrendTimeout = 0 }},
		{"webhook without url", func(c *Config) { c.Notifications.Webhook.Enabled = true }},
	}

	require.NoError(t, Default().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), terrors.ErrConfigInvalid)
		})
	}
}
