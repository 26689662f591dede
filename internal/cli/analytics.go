package cli

import (
	"github.com/spf13/cobra"

	"capital-trader/internal/trader"
	"capital-trader/pkg/utils"
)

func addAnalyticsCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newRiskCmd(app))
	rootCmd.AddCommand(newPerformanceCmd(app))
	rootCmd.AddCommand(newTrendCmd(app))
}

func newRiskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "risk <id>",
		Short: "Assess account risk and suggest a position size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			t, err := app.loadTrader(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			report := t.AssessRisk()

			result := map[string]interface{}{
				"account_id": t.ID(),
				"risk":       report,
			}
			var suggestion string
			if raw, _ := cmd.Flags().GetString("price"); raw != "" {
				price, err := parseAmount("price", raw)
				if err != nil {
					return err
				}
				size := t.SuggestPositionSize(price)
				result["suggested_quantity"] = size
				suggestion = utils.FormatQuantity(size) + " units at " + utils.FormatCurrency(price)
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			output.Printf("Risk:      %s\n", output.Tier(report.Tier))
			output.Printf("Exposure:  %s units\n", utils.FormatQuantity(report.Exposure))
			if suggestion != "" {
				output.Printf("Suggested: %s\n", suggestion)
			}
			return nil
		},
	}
	cmd.Flags().String("price", "", "unit price for a position size suggestion")
	return cmd
}

func newPerformanceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "performance <id>",
		Short: "Value holdings at the given prices",
		Example: `  trader performance PT001 --prices prices.yaml
  trader performance CT001 --price BTC=50000 --price ETH=3000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			t, err := app.loadTrader(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			prices, err := pricesFromFlags(cmd)
			if err != nil {
				return err
			}
			report := t.Performance(prices)

			if output.IsJSON() {
				return output.JSON(report)
			}

			output.Bold("%s (%s)", t.ID(), report.Type)
			output.Printf("  Cash:          %s\n", utils.FormatCurrency(report.Cash))
			output.Printf("  Holdings:      %s\n", output.ColoredString(output.PnLColor(report.TotalValue), utils.FormatCurrency(report.TotalValue)))
			output.Printf("  Equity:        %s\n", utils.FormatCurrency(report.Equity))
			output.Printf("  Concentration: %s\n", utils.FormatPercent(report.Concentration))
			if len(report.Positions) == 0 {
				return nil
			}
			output.Println()
			table := NewTable(output, "ASSET", "QTY", "PRICE", "VALUE")
			for _, p := range report.Positions {
				price, value := output.DimText("no quote"), output.DimText("-")
				if p.Priced {
					price, value = utils.FormatCurrency(p.Price), utils.FormatCurrency(p.Value)
				}
				table.AddRow(p.Asset, utils.FormatQuantity(p.Quantity), price, value)
			}
			table.Render()
			return nil
		},
	}
	addPriceFlags(cmd)
	return cmd
}

func newTrendCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "trend <id> <asset>",
		Short: "Market trend for an asset (stock and professional accounts)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			t, err := app.loadTrader(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			aa, ok := t.(trader.AnalyticsAware)
			if !ok {
				return capabilityError(t, "market analytics")
			}
			signal, err := aa.MarketTrend(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"asset":      args[1],
					"trend":      signal.Trend,
					"confidence": signal.Confidence,
				})
			}
			output.Printf("%s: %s (confidence %s)\n", args[1], output.Cyan(signal.Trend), utils.FormatPercent(signal.Confidence))
			return nil
		},
	}
}
