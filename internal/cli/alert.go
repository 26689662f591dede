package cli

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"capital-trader/internal/alerts"
	"capital-trader/internal/models"
	"capital-trader/pkg/utils"
)

func addAlertCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Price alerts (crypto and professional accounts)",
	}

	cmd.AddCommand(newAlertSetCmd(app))
	cmd.AddCommand(newAlertListCmd(app))
	cmd.AddCommand(newAlertCheckCmd(app))
	cmd.AddCommand(newAlertWatchCmd(app))

	rootCmd.AddCommand(cmd)
}

func newAlertSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "set <id> <asset> <price> <above|below>",
		Short:   "Register a price alert",
		Example: "  trader alert set CT001 BTC 50000 above",
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			output := NewOutput(cmd)

			price, err := parseAmount("price", args[2])
			if err != nil {
				return err
			}
			t, err := app.loadTrader(ctx, args[0])
			if err != nil {
				return err
			}
			registry, err := alertRegistry(t)
			if err != nil {
				return err
			}
			alert, err := registry.SetAlert(args[1], price, models.AlertCondition(args[3]))
			if err != nil {
				return err
			}
			if err := app.Store.SaveAlert(ctx, alert); err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(alert)
			}
			output.Success("✓ Alert set: %s %s %s", alert.Asset, alert.Condition, utils.FormatCurrency(alert.Price))
			output.Dim("  ID: %s", alert.ID)
			return nil
		},
	}
}

func newAlertListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <id>",
		Short: "List pending alerts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			t, err := app.loadTrader(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			registry, err := alertRegistry(t)
			if err != nil {
				return err
			}
			pending := registry.ListPending()

			if output.IsJSON() {
				return output.JSON(pending)
			}
			if len(pending) == 0 {
				output.Dim("No alerts")
				return nil
			}
			table := NewTable(output, "ASSET", "CONDITION", "PRICE", "CREATED")
			for _, a := range pending {
				table.AddRow(a.Asset, string(a.Condition), utils.FormatCurrency(a.Price),
					a.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			table.Render()
			return nil
		},
	}
}

func newAlertCheckCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <id>",
		Short: "Check alerts against current prices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			triggered, err := app.checkAlerts(cmd, args[0])
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(triggered)
			}
			printTriggered(output, triggered)
			return nil
		},
	}
	addPriceFlags(cmd)
	return cmd
}

func newAlertWatchCmd(app *App) *cobra.Command {
	var every time.Duration

	cmd := &cobra.Command{
		Use:   "watch <id>",
		Short: "Check alerts on a schedule until interrupted",
		Long: `Re-reads the price file and checks the account's alerts every interval.
Alerts stay registered after they fire.`,
		Example: "  trader alert watch CT001 --prices prices.yaml --every 30s",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			output := NewOutput(cmd)

			if every < time.Second {
				return invalidFlag("every", every.String(), "interval must be at least 1s")
			}
			t, err := app.loadTrader(ctx, args[0])
			if err != nil {
				return err
			}
			if _, err := alertRegistry(t); err != nil {
				return err
			}

			c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
			_, err = c.AddFunc("@every "+every.String(), func() {
				triggered, err := app.checkAlerts(cmd, args[0])
				if err != nil {
					app.Logger.Error().Err(err).Str("account_id", args[0]).Msg("Alert check failed")
					return
				}
				if output.IsJSON() {
					output.JSON(triggered)
					return
				}
				printTriggered(output, triggered)
			})
			if err != nil {
				return err
			}

			app.Logger.Info().Str("account_id", args[0]).Dur("every", every).Msg("Watching alerts")
			c.Start()
			<-ctx.Done()

			stopped := c.Stop()
			<-stopped.Done()
			app.Logger.Info().Msg("Alert watch stopped")
			return nil
		},
	}
	addPriceFlags(cmd)
	cmd.Flags().DurationVar(&every, "every", 30*time.Second, "check interval")
	return cmd
}

// checkAlerts reloads the account and its alerts and checks them against the
// prices named by cmd's flags.
func (app *App) checkAlerts(cmd *cobra.Command, id string) ([]alerts.Triggered, error) {
	ctx := cmd.Context()
	t, err := app.loadTrader(ctx, id)
	if err != nil {
		return nil, err
	}
	registry, err := alertRegistry(t)
	if err != nil {
		return nil, err
	}
	prices, err := pricesFromFlags(cmd)
	if err != nil {
		return nil, err
	}
	return registry.Check(ctx, prices), nil
}

func printTriggered(output *Output, triggered []alerts.Triggered) {
	if len(triggered) == 0 {
		output.Dim("No alerts triggered")
		return
	}
	for _, tr := range triggered {
		output.Warning("⚠ %s is %s (%s %s)", tr.Alert.Asset, utils.FormatCurrency(tr.Price),
			tr.Alert.Condition, utils.FormatCurrency(tr.Alert.Price))
	}
}
