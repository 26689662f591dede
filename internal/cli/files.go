package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"capital-trader/internal/config"
	terrors "capital-trader/internal/errors"
	"capital-trader/internal/models"
	"capital-trader/internal/trading"
)

// strategyFile is the on-disk form of an allocation strategy:
//
//	stocks: [AAPL, GOOGL]
//	crypto: [BTC, ETH]
//	allocation:
//	  stocks: 0.6
//	  crypto: 0.4
type strategyFile struct {
	Stocks     []string `yaml:"stocks"`
	Crypto     []string `yaml:"crypto"`
	Allocation struct {
		Stocks *float64 `yaml:"stocks"`
		Crypto *float64 `yaml:"crypto"`
	} `yaml:"allocation"`
}

// loadStrategy reads a strategy file. Missing fractions take the configured
// defaults.
func loadStrategy(path string, cfg config.StrategyConfig) (models.AllocationStrategy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.AllocationStrategy{}, fmt.Errorf("reading strategy file: %w", err)
	}
	var f strategyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return models.AllocationStrategy{}, fmt.Errorf("parsing strategy file %s: %w", path, err)
	}

	stockFraction, cryptoFraction := cfg.DefaultStockFraction, cfg.DefaultCryptoFraction
	if f.Allocation.Stocks != nil {
		stockFraction = *f.Allocation.Stocks
	}
	if f.Allocation.Crypto != nil {
		cryptoFraction = *f.Allocation.Crypto
	}
	return trading.StrategyFromFractions(f.Stocks, f.Crypto, stockFraction, cryptoFraction), nil
}

// loadPrices reads a flat asset: price YAML map.
func loadPrices(path string) (trading.Prices, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading price file: %w", err)
	}
	quotes := map[string]float64{}
	if err := yaml.Unmarshal(data, &quotes); err != nil {
		return nil, fmt.Errorf("parsing price file %s: %w", path, err)
	}
	return trading.PricesFromFloats(quotes), nil
}

func addPriceFlags(cmd *cobra.Command) {
	cmd.Flags().String("prices", "", "YAML file of asset prices")
	cmd.Flags().StringToString("price", nil, "asset price, repeatable (ASSET=PRICE)")
}

// pricesFromFlags merges --prices and --price; --price wins.
func pricesFromFlags(cmd *cobra.Command) (trading.Prices, error) {
	prices := trading.Prices{}
	if path, _ := cmd.Flags().GetString("prices"); path != "" {
		loaded, err := loadPrices(path)
		if err != nil {
			return nil, err
		}
		prices = loaded
	}
	inline, _ := cmd.Flags().GetStringToString("price")
	for asset, raw := range inline {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, terrors.NewValidationError("price", raw, "price for "+asset+" is not a number", terrors.ErrInvalidAmount)
		}
		prices[asset] = price
	}
	return prices, nil
}

func parseAmount(field, raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, terrors.NewValidationError(field, raw, field+" must be a number", terrors.ErrInvalidAmount)
	}
	return amount, nil
}

func sortedAssets(portfolio map[string]decimal.Decimal) []string {
	assets := make([]string, 0, len(portfolio))
	for asset := range portfolio {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	return assets
}

func invalidFlag(name, value, msg string) error {
	return terrors.NewValidationError(name, value, msg, nil)
}
