// Package cli provides the command-line interface for the trading application.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"capital-trader/internal/alerts"
	"capital-trader/internal/analytics"
	"capital-trader/internal/config"
	terrors "capital-trader/internal/errors"
	"capital-trader/internal/notify"
	"capital-trader/internal/resilience"
	"capital-trader/internal/risk"
	"capital-trader/internal/store"
	"capital-trader/internal/trader"
	"capital-trader/internal/trading"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-01-01"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Store    store.DataStore
	Notifier notify.Notifier

	executor  *trading.Executor
	analytics *analytics.Engine
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "trader",
		Short: "Capital Trader - multi-asset trading account CLI",
		Long: `Capital Trader manages trading accounts that hold cash and positions in
stocks and crypto assets.

Accounts come in three kinds: stock (trend analytics), crypto (price alerts)
and professional (both, plus diversified allocation strategies).

Use 'trader help <command>' for more information about a command.
Use 'trader examples' to see common workflows.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if dir, _ := cmd.Flags().GetString("config"); dir != "" {
				loaded, err := config.Load(dir)
				if err != nil {
					return err
				}
				app.Config = loaded
			}
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			app.wire()
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/capital-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addAccountCommands(rootCmd, app)
	addTradeCommands(rootCmd, app)
	addAnalyticsCommands(rootCmd, app)
	addAlertCommands(rootCmd, app)
	addStrategyCommands(rootCmd, app)

	return rootCmd
}

// wire builds the collaborators shared by every trader in this process.
func (app *App) wire() {
	if app.Notifier == nil {
		app.Notifier = notify.NewMultiNotifier(app.Config.Notifications, app.Logger)
	}
	app.executor = trading.NewExecutor(app.Logger)
	breaker := resilience.NewBreaker("trend", resilience.BreakerConfigFrom(app.Config.Analytics), app.Logger)
	app.analytics = analytics.NewEngine(analytics.NewStaticTrendProvider(), breaker, app.Logger)
}

// store opens the SQLite store on first use.
func (app *App) store() (store.DataStore, error) {
	if app.Store != nil {
		return app.Store, nil
	}
	path := app.Config.Store.Path
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	app.Logger.Debug().Str("path", path).Msg("SQLite store initialized")
	app.Store = s
	return s, nil
}

// Close releases the store.
func (app *App) Close() error {
	if app.Store == nil {
		return nil
	}
	err := app.Store.Close()
	app.Store = nil
	return err
}

func (app *App) deps() trader.Deps {
	planner := trading.PlannerConfigFrom(app.Config.Strategy)
	return trader.Deps{
		Executor:  app.executor,
		Risk:      risk.NewAssessor(app.Config.Risk),
		Analytics: app.analytics,
		Notifier:  app.Notifier,
		Planner:   &planner,
		Logger:    app.Logger,
	}
}

// loadTrader rebuilds a trader from its stored record, pending alerts included.
func (app *App) loadTrader(ctx context.Context, id string) (trader.Trader, error) {
	s, err := app.store()
	if err != nil {
		return nil, err
	}
	rec, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	return app.traderFromRecord(ctx, s, rec)
}

func (app *App) traderFromRecord(ctx context.Context, s store.DataStore, rec *store.AccountRecord) (trader.Trader, error) {
	kind, err := trader.ParseKind(rec.Kind)
	if err != nil {
		return nil, err
	}
	acct, err := trading.Restore(rec.Snapshot)
	if err != nil {
		return nil, err
	}
	t, err := trader.New(kind, acct, app.deps())
	if err != nil {
		return nil, err
	}
	if aa, ok := t.(trader.AlertAware); ok {
		pending, err := s.GetAlerts(ctx, rec.Snapshot.ID)
		if err != nil {
			return nil, err
		}
		aa.Alerts().Restore(pending)
	}
	return t, nil
}

func capabilityError(t trader.Trader, capability string) error {
	return terrors.Wrapf(terrors.ErrCapabilityUnavailable, "%s accounts have no %s (account %s)", t.Kind(), capability, t.ID())
}

// alertRegistry returns the registry of an alert-capable trader.
func alertRegistry(t trader.Trader) (*alerts.Registry, error) {
	aa, ok := t.(trader.AlertAware)
	if !ok {
		return nil, capabilityError(t, "price alerts")
	}
	return aa.Alerts(), nil
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newExamplesCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Capital Trader v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			dir, _ := cmd.Flags().GetString("config")
			if dir == "" {
				dir = config.DefaultConfigDir()
			}
			if output.IsJSON() {
				output.JSON(map[string]string{"path": dir})
			} else {
				output.Println(dir)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Risk")
	output.Printf("  Medium above:     %.2f\n", cfg.Risk.MediumThreshold)
	output.Printf("  High above:       %.2f\n", cfg.Risk.HighThreshold)
	output.Printf("  Position share:   %.0f%%\n", cfg.Risk.PositionFraction*100)
	output.Println()

	output.Bold("Strategy")
	output.Printf("  Stock fallback:   %.2f\n", cfg.Strategy.StockFallbackPrice)
	output.Printf("  Crypto fallback:  %.2f\n", cfg.Strategy.CryptoFallbackPrice)
	output.Printf("  Default split:    %.2f / %.2f\n", cfg.Strategy.DefaultStockFraction, cfg.Strategy.DefaultCryptoFraction)
	output.Printf("  Pool basis:       %s\n", cfg.Strategy.PoolBasis)
	output.Printf("  Workers:          %d\n", cfg.Strategy.Workers)
	output.Println()

	output.Bold("Analytics")
	output.Printf("  Trend timeout:    %s\n", cfg.Analytics.TrendTimeout)
	output.Printf("  Breaker:          %d failures, %s cooldown\n", cfg.Analytics.FailureThreshold, cfg.Analytics.Cooldown)
	output.Println()

	output.Bold("Notifications")
	output.Printf("  Enabled:          %v\n", cfg.Notifications.Enabled)
	output.Printf("  Log:              %v\n", cfg.Notifications.Log)
	output.Printf("  Webhook:          %v\n", cfg.Notifications.Webhook.Enabled)
	output.Println()

	output.Bold("Storage")
	output.Printf("  Database:         %s\n", cfg.Store.Path)
}
