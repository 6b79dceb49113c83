package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Whale Copytrader Configuration

[feed]
# Whale watch endpoint polled once per tick
url = "https://swap-api.assetdash.com/api/api_v5/whalewatch/transactions/list"
# Per-request timeout
timeout = "2s"
# Delay between ticks
poll_interval = "1s"

[filter]
# Minimum whale trade size in USD (inclusive)
min_trade_usd = 700.0
# Maximum token market cap in USD (inclusive)
max_market_cap_usd = 200000.0
# Whale names to ignore (case-insensitive)
whale_blacklist = []

[trade]
# Amount of SOL spent per purchase
sol_amount = 0.005
# Trading bot to drive, 1-based (see 'copytrader bots')
bot = 1
# Referral code embedded in the start command
referral_code = "ibayi"
# Place a take-profit limit order after buying
set_limit_order = false
# Percentage of the position to sell when the trigger is hit
limit_sell_percent = 100
# Trigger as a multiple of the purchase price
limit_trigger_multiple = 1.0

[conversation]
# Attempts made by each wait step before it fails
wait_attempts = 5
# Spacing between wait attempts
wait_interval = "1s"
# Pause after sending the amount, before looking for the profit menu
settle_delay = "7s"
# Pause between limit order sub-steps
limit_step_delay = "2s"

[telegram]
# Directory holding *.session files; the first gotd JSON session is used.
# Pyrogram and Telethon SQLite sessions cannot be read and are skipped.
session_dir = "sessions"
# Maximum Telegram API calls per second
requests_per_second = 5

[persistence]
# Load blacklist_file at startup and rewrite it at shutdown
save_bought_coins = false
blacklist_file = "blacklist.txt"
# SQLite journal; empty disables it
database = ""

[notifications.telegram]
enabled = false
chat_id = ""

[log]
level = "info"
file = true

[ui]
# Redraw the transaction tables every tick
dashboard = true
# Print a line and ring the terminal bell on purchases and failures
bell = true
`

const credentialsTemplate = `# Whale Copytrader Credentials

[feed]
access_token = ""

[telegram]
api_id = 0
api_hash = ""

[notifications]
bot_token = ""
`

func createTemplateConfig(configDir string) (string, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return "", fmt.Errorf("writing config template: %w", err)
	}
	return path, nil
}

func createTemplateCredentials(configDir string) (string, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "credentials.toml")
	// Use restricted permissions for credentials file
	if err := os.WriteFile(path, []byte(credentialsTemplate), 0600); err != nil {
		return "", fmt.Errorf("writing credentials template: %w", err)
	}
	return path, nil
}
