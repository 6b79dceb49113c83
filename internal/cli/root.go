// Package cli provides the command-line interface for the copytrader.
package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"whale-copytrader/internal/chat"
	"whale-copytrader/internal/config"
	"whale-copytrader/internal/logging"
	"whale-copytrader/internal/security"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-03-01"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	LogConfig logging.LogConfig
	Logger    zerolog.Logger
}

// NewRootCmd creates the root command for the CLI. Commands log through a
// logger built from logCfg; `run` drops the console writer while the
// dashboard is shown.
func NewRootCmd(cfg *config.Config, logCfg logging.LogConfig) *cobra.Command {
	app := &App{
		Config:    cfg,
		LogConfig: logCfg,
		Logger:    logging.NewLoggerWithConfig(logCfg),
	}

	rootCmd := &cobra.Command{
		Use:   "copytrader",
		Short: "Copy large Solana buys through a Telegram trading bot",
		Long: `Whale Copytrader polls the AssetDash whale-watch feed and, when a whale
buys a small-cap token, buys the same token by driving a BonkBot
conversation from your Telegram account.

Run 'copytrader config path' to find the configuration files and
'copytrader run' to start trading.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				app.LogConfig.Level = "debug"
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			app.Logger.Debug().Str("command", cmd.CommandPath()).Msg("Running command")
			return nil
		},
	}

	// Global flags. --config is read before the command tree is built; see
	// ConfigDirFromArgs.
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/whale-copytrader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newBotsCmd(app))
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
	rootCmd.AddCommand(newBlacklistCmd(app))

	return rootCmd
}

// ConfigDirFromArgs extracts the --config value from raw arguments so the
// configuration can be loaded before the commands are built.
func ConfigDirFromArgs(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(arg, "--config="); ok {
			return v
		}
	}
	return ""
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("Whale Copytrader v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and check the application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration with credentials masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			masked := maskedConfig(app.Config)
			if output.IsJSON() {
				return output.JSON(masked)
			}
			return showConfig(output, masked)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			dir := app.Config.Dir
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"path":        dir,
					"config":      filepath.Join(dir, "config.toml"),
					"credentials": filepath.Join(dir, "credentials.toml"),
				})
			}
			output.Println(dir)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			credErr := app.Config.RequireCredentials()
			if output.IsJSON() {
				res := map[string]interface{}{"valid": true, "credentials": credErr == nil}
				if credErr != nil {
					res["credentials_error"] = credErr.Error()
				}
				return output.JSON(res)
			}
			output.Success("✓ Configuration is valid")
			if credErr != nil {
				output.Warning("Credentials incomplete: %v", credErr)
			} else {
				output.Success("✓ Credentials present")
			}
			return nil
		},
	})

	return cmd
}

// maskedConfig returns a copy of cfg safe to print.
func maskedConfig(cfg *config.Config) config.Config {
	masked := *cfg
	masked.Credentials.Feed.AccessToken = security.MaskCredential(cfg.Credentials.Feed.AccessToken)
	masked.Credentials.Telegram.APIHash = security.MaskCredential(cfg.Credentials.Telegram.APIHash)
	masked.Credentials.Notifications.BotToken = security.MaskCredential(cfg.Credentials.Notifications.BotToken)
	return masked
}

func showConfig(output *Output, cfg config.Config) error {
	bot, err := cfg.BotUsername()
	if err != nil {
		bot = "invalid"
	}

	output.Bold("Feed")
	output.Printf("  URL:             %s\n", cfg.Feed.URL)
	output.Printf("  Timeout:         %s\n", cfg.Feed.Timeout)
	output.Printf("  Poll Interval:   %s\n", cfg.Feed.PollInterval)
	output.Println()

	output.Bold("Filter")
	output.Printf("  Min Trade:       $%.2f\n", cfg.Filter.MinTradeUSD)
	output.Printf("  Max Market Cap:  $%.2f\n", cfg.Filter.MaxMarketCapUSD)
	output.Printf("  Whale Blacklist: %d names\n", len(cfg.Filter.WhaleBlacklist))
	output.Println()

	output.Bold("Trade")
	output.Printf("  SOL Amount:      %g\n", cfg.Trade.SOLAmount)
	output.Printf("  Bot:             %d (@%s)\n", cfg.Trade.Bot, bot)
	output.Printf("  Referral Code:   %s\n", cfg.Trade.ReferralCode)
	output.Printf("  Limit Order:     %s\n", FormatYesNo(cfg.Trade.SetLimitOrder))
	if cfg.Trade.SetLimitOrder {
		output.Printf("  Sell Percent:    %d%%\n", cfg.Trade.LimitSellPercent)
		output.Printf("  Trigger:         %gx\n", cfg.Trade.LimitTriggerMultiple)
	}
	output.Println()

	output.Bold("Conversation")
	output.Printf("  Wait Attempts:   %d every %s\n", cfg.Conversation.WaitAttempts, cfg.Conversation.WaitInterval)
	output.Printf("  Settle Delay:    %s\n", cfg.Conversation.SettleDelay)
	output.Printf("  Limit Delay:     %s\n", cfg.Conversation.LimitStepDelay)
	output.Println()

	output.Bold("Persistence")
	output.Printf("  Save Bought:     %s\n", FormatYesNo(cfg.Persistence.SaveBoughtCoins))
	output.Printf("  Blacklist File:  %s\n", cfg.Persistence.BlacklistFile)
	output.Printf("  Journal:         %s\n", OrDash(cfg.Persistence.Database))
	output.Println()

	output.Bold("Notifications")
	output.Printf("  Telegram:        %s\n", FormatYesNo(cfg.Notifications.Telegram.Enabled))
	output.Printf("  Terminal Bell:   %s\n", FormatYesNo(cfg.UI.Bell))
	output.Println()

	output.Bold("Credentials")
	output.Printf("  Access Token:    %s\n", OrDash(cfg.Credentials.Feed.AccessToken))
	output.Printf("  API ID:          %d\n", cfg.Credentials.Telegram.APIID)
	output.Printf("  API Hash:        %s\n", OrDash(cfg.Credentials.Telegram.APIHash))
	output.Printf("  Bot Token:       %s\n", OrDash(cfg.Credentials.Notifications.BotToken))

	return nil
}

func newBotsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "bots",
		Short: "List the trading bots a purchase can be routed through",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				type botEntry struct {
					Index    int    `json:"index"`
					Username string `json:"username"`
					Selected bool   `json:"selected"`
				}
				entries := make([]botEntry, 0, len(chat.Bots))
				for i, b := range chat.Bots {
					entries = append(entries, botEntry{Index: i + 1, Username: b, Selected: i+1 == app.Config.Trade.Bot})
				}
				return output.JSON(entries)
			}

			table := NewTable(output, "#", "BOT", "")
			for i, b := range chat.Bots {
				marker := ""
				if i+1 == app.Config.Trade.Bot {
					marker = output.ColoredString(ColorGreen, "selected")
				}
				table.AddRow(fmt.Sprintf("%d", i+1), "@"+b, marker)
			}
			table.Render()
			return nil
		},
	}
}
