package cli

import (
	"github.com/spf13/cobra"
)

func newExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflow examples",
		Long:  "Display examples of common account workflows.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			examples := []struct {
				title    string
				commands []string
			}{
				{
					title: "Open and Fund an Account",
					commands: []string{
						`trader account create PT001 --holder "Jane Smith" --kind professional --balance 100000`,
						"trader account deposit PT001 5000",
						"trader account show PT001",
					},
				},
				{
					title: "Trade and Review",
					commands: []string{
						"trader trade buy PT001 AAPL 10 150.25",
						"trader trade sell PT001 AAPL 4 155",
						"trader trade list --account PT001 --since 24h",
						"trader performance PT001 --prices prices.yaml",
						"trader risk PT001 --price 150",
					},
				},
				{
					title: "Watch Crypto Prices",
					commands: []string{
						`trader account create CT001 --holder "Sam Lee" --kind crypto --balance 20000`,
						"trader alert set CT001 BTC 50000 above",
						"trader alert set CT001 ETH 1800 below",
						"trader alert watch CT001 --prices prices.yaml --every 30s",
					},
				},
				{
					title: "Diversify",
					commands: []string{
						"trader trend PT001 AAPL",
						"trader strategy run PT001 -f strategy.yaml --prices prices.yaml",
						"trader strategy run --all -f strategy.yaml --prices prices.yaml",
					},
				},
			}

			if output.IsJSON() {
				out := make(map[string][]string, len(examples))
				for _, ex := range examples {
					out[ex.title] = ex.commands
				}
				return output.JSON(out)
			}

			output.Bold("Common Workflow Examples")
			output.Println()
			for _, ex := range examples {
				output.Bold(ex.title)
				for _, c := range ex.commands {
					output.Printf("  %s\n", output.Cyan(c))
				}
				output.Println()
			}
			return nil
		},
	}
}
