package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"capital-trader/internal/trader"
	"capital-trader/internal/trading"
	"capital-trader/pkg/utils"
)

func addAccountCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:     "account",
		Aliases: []string{"acct"},
		Short:   "Account management",
		Long:    "Create accounts and move cash in and out of them.",
	}

	cmd.AddCommand(newAccountCreateCmd(app))
	cmd.AddCommand(newAccountShowCmd(app))
	cmd.AddCommand(newAccountListCmd(app))
	cmd.AddCommand(newCashCmd(app, "deposit"))
	cmd.AddCommand(newCashCmd(app, "withdraw"))

	rootCmd.AddCommand(cmd)
}

func newAccountCreateCmd(app *App) *cobra.Command {
	var kind, holder, balance string

	cmd := &cobra.Command{
		Use:   "create <id>",
		Short: "Create an account",
		Example: `  trader account create PT001 --holder "Jane Smith" --kind professional --balance 100000
  trader account create CT001 --holder "Sam Lee" --kind crypto`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			output := NewOutput(cmd)

			k, err := trader.ParseKind(kind)
			if err != nil {
				return err
			}
			amount, err := parseAmount("balance", balance)
			if err != nil {
				return err
			}
			acct, err := trading.NewAccount(args[0], holder, amount)
			if err != nil {
				return err
			}

			s, err := app.store()
			if err != nil {
				return err
			}
			if err := s.CreateAccount(ctx, string(k), acct.Snapshot()); err != nil {
				return err
			}
			app.Logger.Info().Str("account_id", acct.ID()).Str("kind", string(k)).Msg("Account created")

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"account_id": acct.ID(),
					"holder":     acct.Holder(),
					"kind":       k,
					"balance":    acct.Balance(),
				})
			}
			output.Success("✓ Created %s account %s for %s with %s", k, acct.ID(), acct.Holder(), utils.FormatCurrency(acct.Balance()))
			return nil
		},
	}

	cmd.Flags().StringVar(&holder, "holder", "", "account holder name")
	cmd.Flags().StringVar(&kind, "kind", string(trader.KindStock), "trader kind: stock, crypto or professional")
	cmd.Flags().StringVar(&balance, "balance", "0", "initial cash balance")
	cmd.MarkFlagRequired("holder")

	return cmd
}

func newAccountShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show balance and holdings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			output := NewOutput(cmd)

			t, err := app.loadTrader(ctx, args[0])
			if err != nil {
				return err
			}
			prices, err := pricesFromFlags(cmd)
			if err != nil {
				return err
			}
			portfolio := t.Portfolio()
			value := t.PortfolioValue(prices)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"account_id":      t.ID(),
					"holder":          t.Holder(),
					"kind":            t.Kind(),
					"balance":         t.Balance(),
					"portfolio":       portfolio,
					"portfolio_value": value,
				})
			}

			output.Box(t.ID(), []string{
				"Holder:    " + t.Holder(),
				"Kind:      " + string(t.Kind()),
				"Balance:   " + utils.FormatCurrency(t.Balance()),
				"Portfolio: " + utils.FormatCurrency(value),
			})
			if len(portfolio) == 0 {
				output.Dim("No holdings")
				return nil
			}
			table := NewTable(output, "ASSET", "QUANTITY")
			for _, asset := range sortedAssets(portfolio) {
				table.AddRow(asset, utils.FormatQuantity(portfolio[asset]))
			}
			table.Render()
			return nil
		},
	}
	addPriceFlags(cmd)
	return cmd
}

func newAccountListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			s, err := app.store()
			if err != nil {
				return err
			}
			recs, err := s.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(recs)
			}
			if len(recs) == 0 {
				output.Dim("No accounts")
				return nil
			}
			table := NewTable(output, "ID", "KIND", "HOLDER", "BALANCE", "POSITIONS")
			for _, rec := range recs {
				table.AddRow(rec.Snapshot.ID, rec.Kind, rec.Snapshot.Holder,
					utils.FormatCurrency(rec.Snapshot.Balance), strconv.Itoa(len(rec.Snapshot.Portfolio)))
			}
			table.Render()
			return nil
		},
	}
}

// newCashCmd builds the deposit and withdraw commands.
func newCashCmd(app *App, action string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <id> <amount>",
		Short: "Cash " + action,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			output := NewOutput(cmd)

			amount, err := parseAmount("amount", args[1])
			if err != nil {
				return err
			}
			t, err := app.loadTrader(ctx, args[0])
			if err != nil {
				return err
			}

			if action == "deposit" {
				err = t.Deposit(amount)
			} else {
				_, err = t.Withdraw(amount)
			}
			if err != nil {
				return err
			}
			if err := app.Store.SaveAccount(ctx, t.Account().Snapshot()); err != nil {
				return err
			}
			app.Logger.Info().
				Str("account_id", t.ID()).
				Str("action", action).
				Str("amount", amount.String()).
				Msg("Cash movement")

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"account_id": t.ID(),
					"action":     action,
					"amount":     amount,
					"balance":    t.Balance(),
				})
			}
			output.Success("✓ %s %s, balance %s", action, utils.FormatCurrency(amount), utils.FormatCurrency(t.Balance()))
			return nil
		},
	}
}
