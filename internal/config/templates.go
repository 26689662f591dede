package config

import (
	"os"
	"path/filepath"
)

const configTemplate = `# Capital Trader configuration

[risk]
# Total absolute holdings above this are Medium risk
medium_threshold = 10.0
# Total absolute holdings above this are High risk
high_threshold = 100.0
# Share of the cash balance used for a suggested position
position_fraction = 0.10

[strategy]
# Prices used when an asset has no quote
stock_fallback_price = 100.0
crypto_fallback_price = 1000.0
# Allocation used when a strategy file omits a fraction
default_stock_fraction = 0.5
default_crypto_fraction = 0.5
# "initial": both pools come from the starting balance
# "remaining": each pool comes from the balance when its asset class starts
pool_basis = "initial"
# Accounts processed in parallel by the desk
workers = 4

[analytics]
trend_timeout = "2s"
failure_threshold = 5
cooldown = "30s"

[notifications]
enabled = true
log = true

[notifications.webhook]
enabled = false
url = ""
timeout = "5s"

[logging]
# debug, info, warn, error
level = "info"
file = false
`

// createTemplateConfig writes config.toml into configDir.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(configTemplate), 0600)
}
