package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"capital-trader/internal/models"
	"capital-trader/internal/notify"
	"capital-trader/internal/store"
	"capital-trader/pkg/utils"
)

func addTradeCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Trade execution and history",
	}

	cmd.AddCommand(newOrderCmd(app, models.SideBuy))
	cmd.AddCommand(newOrderCmd(app, models.SideSell))
	cmd.AddCommand(newTradeListCmd(app))

	rootCmd.AddCommand(cmd)
}

func newOrderCmd(app *App, side models.Side) *cobra.Command {
	verb := strings.ToLower(string(side))

	return &cobra.Command{
		Use:     verb + " <id> <asset> <quantity> <price>",
		Short:   "Place a " + verb + " trade",
		Example: "  trader trade " + verb + " PT001 AAPL 10 150.25",
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			output := NewOutput(cmd)

			qty, err := parseAmount("quantity", args[2])
			if err != nil {
				return err
			}
			price, err := parseAmount("price", args[3])
			if err != nil {
				return err
			}
			t, err := app.loadTrader(ctx, args[0])
			if err != nil {
				return err
			}

			trade := models.Trade{Asset: args[1], Side: side, Quantity: qty, Price: price}
			conf, err := t.ExecuteTrade(trade)
			if err != nil {
				return err
			}
			if err := app.Store.Commit(ctx, t.Account().Snapshot(), []models.Confirmation{conf}); err != nil {
				return err
			}
			if err := app.Notifier.Send(ctx, notify.TradeExecuted(conf)); err != nil {
				app.Logger.Warn().Err(err).Msg("Trade notification failed")
			}

			if output.IsJSON() {
				return output.JSON(conf)
			}
			output.Success("✓ %s %s %s @ %s", side, utils.FormatQuantity(conf.Quantity), conf.Asset, utils.FormatCurrency(conf.Price))
			output.Printf("  Cost:    %s\n", utils.FormatCurrency(conf.Cost))
			output.Printf("  Balance: %s\n", utils.FormatCurrency(conf.Balance))
			output.Dim("  Confirmation: %s", conf.ID)
			return nil
		},
	}
}

func newTradeListCmd(app *App) *cobra.Command {
	var (
		filter store.TradeFilter
		side   string
		since  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journaled trades, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if side != "" {
				s, ok := models.ParseSide(side)
				if !ok {
					return invalidFlag("side", side, "side must be BUY or SELL")
				}
				filter.Side = s
			}
			if since != "" {
				d, err := time.ParseDuration(since)
				if err != nil {
					return invalidFlag("since", since, "since must be a duration such as 24h")
				}
				filter.StartDate = time.Now().Add(-d)
			}

			s, err := app.store()
			if err != nil {
				return err
			}
			trades, err := s.GetTrades(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Dim("No trades")
				return nil
			}
			table := NewTable(output, "TIME", "ACCOUNT", "SIDE", "ASSET", "QTY", "PRICE", "COST")
			for _, c := range trades {
				table.AddRow(
					c.ExecutedAt.Local().Format("2006-01-02 15:04:05"),
					c.AccountID,
					output.Side(c.Side),
					c.Asset,
					utils.FormatQuantity(c.Quantity),
					utils.FormatCurrency(c.Price),
					utils.FormatCurrency(c.Cost),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.AccountID, "account", "", "filter by account ID")
	cmd.Flags().StringVar(&filter.Asset, "asset", "", "filter by asset")
	cmd.Flags().StringVar(&side, "side", "", "filter by side (BUY or SELL)")
	cmd.Flags().StringVar(&since, "since", "", "only trades newer than this duration")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "maximum number of trades")

	return cmd
}
