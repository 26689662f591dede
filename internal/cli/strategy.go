package cli

import (
	"context"

	"github.com/spf13/cobra"

	"capital-trader/internal/desk"
	"capital-trader/internal/models"
	"capital-trader/internal/trader"
	"capital-trader/pkg/utils"
)

func addStrategyCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "strategy",
		Short: "Diversified allocation strategies (professional accounts)",
	}
	cmd.AddCommand(newStrategyRunCmd(app))
	rootCmd.AddCommand(cmd)
}

func newStrategyRunCmd(app *App) *cobra.Command {
	var (
		file string
		all  bool
	)

	cmd := &cobra.Command{
		Use:   "run [id]",
		Short: "Run a diversified strategy",
		Long: `Splits the account balance between a stock pool and a crypto pool and buys
equal-funded whole quantities of each listed asset. Assets without a quote are
bought at the configured fallback price.

The strategy file is YAML:

  stocks: [AAPL, GOOGL]
  crypto: [BTC, ETH]
  allocation:
    stocks: 0.6
    crypto: 0.4`,
		Example: `  trader strategy run PT001 --file strategy.yaml --prices prices.yaml
  trader strategy run --all --file strategy.yaml --prices prices.yaml`,
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			output := NewOutput(cmd)

			strategy, err := loadStrategy(file, app.Config.Strategy)
			if err != nil {
				return err
			}
			prices, err := pricesFromFlags(cmd)
			if err != nil {
				return err
			}

			d := desk.New(app.Config.Strategy.Workers, app.Notifier, app.Logger)
			if all {
				err = app.fillDesk(ctx, d)
			} else {
				err = app.addStrategist(ctx, d, args[0])
			}
			if err != nil {
				return err
			}

			results := d.RunStrategies(ctx, strategy, prices)
			for _, r := range results {
				if r.Result == nil {
					continue
				}
				t, err := d.Get(r.AccountID)
				if err != nil {
					return err
				}
				if err := app.Store.Commit(ctx, t.Account().Snapshot(), r.Result.Trades); err != nil {
					return err
				}
			}

			if !all {
				if results[0].Err != nil {
					return results[0].Err
				}
				if output.IsJSON() {
					return output.JSON(results[0].Result)
				}
				printStrategyResult(output, results[0])
				return nil
			}
			if output.IsJSON() {
				return output.JSON(results)
			}
			if len(results) == 0 {
				output.Dim("No professional accounts")
				return nil
			}
			for _, r := range results {
				printStrategyResult(output, r)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "strategy YAML file")
	cmd.Flags().BoolVar(&all, "all", false, "run for every professional account")
	addPriceFlags(cmd)
	cmd.MarkFlagRequired("file")

	return cmd
}

func printStrategyResult(output *Output, r desk.AccountResult) {
	if r.Result == nil {
		output.Error("✗ %s: %s", r.AccountID, r.Error)
		return
	}
	res := r.Result
	if res.Status == models.StrategyPartial {
		output.Warning("%s: %s", r.AccountID, res.Status)
	} else {
		output.Success("%s: %s", r.AccountID, res.Status)
	}

	table := NewTable(output, "ASSET", "QTY", "PRICE", "COST", "RESULT")
	for _, c := range res.Trades {
		table.AddRow(c.Asset, utils.FormatQuantity(c.Quantity), utils.FormatCurrency(c.Price),
			utils.FormatCurrency(c.Cost), output.Green("bought"))
	}
	for _, s := range res.Skipped {
		table.AddRow(s.Asset, "0", utils.FormatCurrency(s.Price), "-", output.DimText("skipped: "+s.Reason))
	}
	for _, f := range res.Failed {
		table.AddRow(f.Trade.Asset, utils.FormatQuantity(f.Trade.Quantity), utils.FormatCurrency(f.Trade.Price),
			utils.FormatCurrency(f.Trade.Notional()), output.Red("failed: "+f.Error))
	}
	table.Render()

	if n := len(res.Trades); n > 0 {
		output.Dim("  %d trades, balance %s", n, utils.FormatCurrency(res.Trades[n-1].Balance))
	}
	output.Println()
}

// addStrategist loads one account into d, rejecting kinds without strategies.
func (app *App) addStrategist(ctx context.Context, d *desk.Desk, id string) error {
	t, err := app.loadTrader(ctx, id)
	if err != nil {
		return err
	}
	if _, ok := t.(trader.Strategist); !ok {
		return capabilityError(t, "allocation strategies")
	}
	return d.Add(t)
}

// fillDesk loads every stored account into d.
func (app *App) fillDesk(ctx context.Context, d *desk.Desk) error {
	s, err := app.store()
	if err != nil {
		return err
	}
	recs, err := s.ListAccounts(ctx)
	if err != nil {
		return err
	}
	for i := range recs {
		t, err := app.traderFromRecord(ctx, s, &recs[i])
		if err != nil {
			return err
		}
		if err := d.Add(t); err != nil {
			return err
		}
	}
	return nil
}
