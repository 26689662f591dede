// Package config provides configuration management for the trading application.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	terrors "capital-trader/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Risk          RiskConfig         `mapstructure:"risk"`
	Strategy      StrategyConfig     `mapstructure:"strategy"`
	Analytics     AnalyticsConfig    `mapstructure:"analytics"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Store         StoreConfig        `mapstructure:"store"`
}

// RiskConfig holds risk assessment policy constants.
type RiskConfig struct {
	MediumThreshold  float64 `mapstructure:"medium_threshold"`  // exposure above this is Medium
	HighThreshold    float64 `mapstructure:"high_threshold"`    // exposure above this is High
	PositionFraction float64 `mapstructure:"position_fraction"` // share of balance per suggested position
}

// StrategyConfig holds diversified strategy policy constants.
type StrategyConfig struct {
	StockFallbackPrice    float64 `mapstructure:"stock_fallback_price"`
	CryptoFallbackPrice   float64 `mapstructure:"crypto_fallback_price"`
	DefaultStockFraction  float64 `mapstructure:"default_stock_fraction"`
	DefaultCryptoFraction float64 `mapstructure:"default_crypto_fraction"`
	PoolBasis             string  `mapstructure:"pool_basis"` // "initial", "remaining"
	Workers               int     `mapstructure:"workers"`
}

// AnalyticsConfig holds settings for the market trend collaborator.
type AnalyticsConfig struct {
	TrendTimeout     time.Duration `mapstructure:"trend_timeout"`
	FailureThreshold int           `mapstructure:"failure_threshold"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
}

// NotificationConfig holds notification configuration.
type NotificationConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Log     bool          `mapstructure:"log"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// WebhookConfig holds webhook notification configuration.
type WebhookConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	File     bool   `mapstructure:"file"`
	FilePath string `mapstructure:"file_path"`
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// Pool basis values.
const (
	PoolBasisInitial   = "initial"
	PoolBasisRemaining = "remaining"
)

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/capital-trader"
	}
	return filepath.Join(home, ".config", "capital-trader")
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	v := viper.New()
	setDefaults(v, DefaultConfigDir())
	// Unmarshal of plain defaults cannot fail.
	_ = v.Unmarshal(cfg)
	return cfg
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("risk.medium_threshold", 10.0)
	v.SetDefault("risk.high_threshold", 100.0)
	v.SetDefault("risk.position_fraction", 0.10)

	v.SetDefault("strategy.stock_fallback_price", 100.0)
	v.SetDefault("strategy.crypto_fallback_price", 1000.0)
	v.SetDefault("strategy.default_stock_fraction", 0.5)
	v.SetDefault("strategy.default_crypto_fraction", 0.5)
	v.SetDefault("strategy.pool_basis", PoolBasisInitial)
	v.SetDefault("strategy.workers", 4)

	v.SetDefault("analytics.trend_timeout", 2*time.Second)
	v.SetDefault("analytics.failure_threshold", 5)
	v.SetDefault("analytics.cooldown", 30*time.Second)

	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.log", true)
	v.SetDefault("notifications.webhook.enabled", false)
	v.SetDefault("notifications.webhook.url", "")
	v.SetDefault("notifications.webhook.timeout", 5*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", false)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "trader.log"))

	v.SetDefault("store.path", filepath.Join(configDir, "trader.db"))
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
// A missing config.toml is replaced by a commented template and defaults apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	// .env in the config dir first, then the working directory; neither is required.
	_ = godotenv.Load(filepath.Join(configDir, ".env"))
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("TRADER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, fmt.Errorf("creating config template: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Risk.MediumThreshold < 0 || c.Risk.HighThreshold < c.Risk.MediumThreshold {
		return invalid("risk thresholds must satisfy 0 <= medium_threshold <= high_threshold")
	}
	if c.Risk.PositionFraction <= 0 || c.Risk.PositionFraction > 1 {
		return invalid("position_fraction must be in (0, 1]")
	}

	if c.Strategy.StockFallbackPrice <= 0 || c.Strategy.CryptoFallbackPrice <= 0 {
		return invalid("fallback prices must be positive")
	}
	if c.Strategy.DefaultStockFraction < 0 || c.Strategy.DefaultCryptoFraction < 0 {
		return invalid("default allocation fractions must be non-negative")
	}
	if c.Strategy.PoolBasis != PoolBasisInitial && c.Strategy.PoolBasis != PoolBasisRemaining {
		return invalid(fmt.Sprintf("pool_basis must be %q or %q, got %q", PoolBasisInitial, PoolBasisRemaining, c.Strategy.PoolBasis))
	}
	if c.Strategy.Workers < 1 {
		return invalid("strategy workers must be at least 1")
	}

	if c.Analytics.TrendTimeout <= 0 {
		return invalid("trend_timeout must be positive")
	}
	if c.Analytics.FailureThreshold < 1 {
		return invalid("failure_threshold must be at least 1")
	}

	if c.Notifications.Webhook.Enabled && c.Notifications.Webhook.URL == "" {
		return invalid("webhook url is required when the webhook is enabled")
	}

	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", terrors.ErrConfigInvalid, msg)
}
