// Package config provides configuration management for the copytrader.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"whale-copytrader/internal/chat"
	apperrors "whale-copytrader/internal/errors"
	"whale-copytrader/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Feed          FeedConfig         `mapstructure:"feed"`
	Filter        FilterConfig       `mapstructure:"filter"`
	Trade         TradeConfig        `mapstructure:"trade"`
	Conversation  ConversationConfig `mapstructure:"conversation"`
	Telegram      TelegramConfig     `mapstructure:"telegram"`
	Persistence   PersistenceConfig  `mapstructure:"persistence"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Log           LogConfig          `mapstructure:"log"`
	UI            UIConfig           `mapstructure:"ui"`
	Credentials   Credentials        `mapstructure:"-"` // Loaded separately

	// Dir is the directory the configuration was loaded from.
	Dir string `mapstructure:"-"`
	// Templates lists template files written because they were missing.
	Templates []string `mapstructure:"-"`
}

// FeedConfig holds whale feed polling configuration.
type FeedConfig struct {
	URL          string        `mapstructure:"url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// FilterConfig holds the criteria a whale trade must meet to be copied.
type FilterConfig struct {
	MinTradeUSD     float64  `mapstructure:"min_trade_usd"`
	MaxMarketCapUSD float64  `mapstructure:"max_market_cap_usd"`
	WhaleBlacklist  []string `mapstructure:"whale_blacklist"`
}

// TradeConfig holds purchase and limit order parameters.
type TradeConfig struct {
	SOLAmount            float64 `mapstructure:"sol_amount"`
	Bot                  int     `mapstructure:"bot"` // 1-based index into chat.Bots
	ReferralCode         string  `mapstructure:"referral_code"`
	SetLimitOrder        bool    `mapstructure:"set_limit_order"`
	LimitSellPercent     int     `mapstructure:"limit_sell_percent"`
	LimitTriggerMultiple float64 `mapstructure:"limit_trigger_multiple"`
}

// ConversationConfig holds the pacing of the bot conversation.
type ConversationConfig struct {
	WaitAttempts   int           `mapstructure:"wait_attempts"`
	WaitInterval   time.Duration `mapstructure:"wait_interval"`
	SettleDelay    time.Duration `mapstructure:"settle_delay"`
	LimitStepDelay time.Duration `mapstructure:"limit_step_delay"`
}

// TelegramConfig holds user-client settings.
type TelegramConfig struct {
	SessionDir        string  `mapstructure:"session_dir"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// PersistenceConfig holds blacklist file and journal settings.
type PersistenceConfig struct {
	SaveBoughtCoins bool   `mapstructure:"save_bought_coins"`
	BlacklistFile   string `mapstructure:"blacklist_file"`
	Database        string `mapstructure:"database"`
}

// NotificationConfig holds notification configuration.
type NotificationConfig struct {
	Telegram TelegramNotifyConfig `mapstructure:"telegram"`
}

// TelegramNotifyConfig holds Bot API notification configuration.
type TelegramNotifyConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	ChatID  string `mapstructure:"chat_id"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  bool   `mapstructure:"file"`
}

// UIConfig holds console configuration.
type UIConfig struct {
	Dashboard bool `mapstructure:"dashboard"`
	Bell      bool `mapstructure:"bell"` // ring on purchases and failures
}

// Credentials holds API credentials.
type Credentials struct {
	Feed          FeedCredentials     `mapstructure:"feed"`
	Telegram      TelegramCredentials `mapstructure:"telegram"`
	Notifications NotifyCredentials   `mapstructure:"notifications"`
}

// FeedCredentials holds the whale feed bearer token.
type FeedCredentials struct {
	AccessToken string `mapstructure:"access_token"`
}

// TelegramCredentials holds the Telegram application credentials.
type TelegramCredentials struct {
	APIID   int    `mapstructure:"api_id"`
	APIHash string `mapstructure:"api_hash"`
}

// NotifyCredentials holds the notification bot token.
type NotifyCredentials struct {
	BotToken string `mapstructure:"bot_token"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/whale-copytrader"
	}
	return filepath.Join(home, ".config", "whale-copytrader")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A .env file in
// the working directory is loaded first so its variables act as overrides.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{Dir: configDir}

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("feed.url", "https://swap-api.assetdash.com/api/api_v5/whalewatch/transactions/list")
	v.SetDefault("feed.timeout", "2s")
	v.SetDefault("feed.poll_interval", "1s")
	v.SetDefault("filter.min_trade_usd", 700.0)
	v.SetDefault("filter.max_market_cap_usd", 200000.0)
	v.SetDefault("filter.whale_blacklist", []string{})
	v.SetDefault("trade.sol_amount", 0.005)
	v.SetDefault("trade.bot", 1)
	v.SetDefault("trade.referral_code", "ibayi")
	v.SetDefault("trade.set_limit_order", false)
	v.SetDefault("trade.limit_sell_percent", 100)
	v.SetDefault("trade.limit_trigger_multiple", 1.0)
	v.SetDefault("conversation.wait_attempts", 5)
	v.SetDefault("conversation.wait_interval", "1s")
	v.SetDefault("conversation.settle_delay", "7s")
	v.SetDefault("conversation.limit_step_delay", "2s")
	v.SetDefault("telegram.session_dir", "sessions")
	v.SetDefault("telegram.requests_per_second", 5.0)
	v.SetDefault("persistence.save_bought_coins", false)
	v.SetDefault("persistence.blacklist_file", "blacklist.txt")
	v.SetDefault("persistence.database", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", true)
	v.SetDefault("ui.dashboard", true)
	v.SetDefault("ui.bell", true)
}

func loadConfigFile(configDir string, cfg *Config) error {
	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
		// Config file not found, write a template and continue on defaults
		path, err := createTemplateConfig(configDir)
		if err != nil {
			return err
		}
		cfg.Templates = append(cfg.Templates, path)
	}

	return v.Unmarshal(cfg)
}

func loadCredentials(configDir string, cfg *Config) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
		path, err := createTemplateCredentials(configDir)
		if err != nil {
			return err
		}
		cfg.Templates = append(cfg.Templates, path)
		return nil
	}

	return v.Unmarshal(&cfg.Credentials)
}

// applyEnvOverrides lets the legacy .env variable names override file values.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("ACCESS_TOKEN"); v != "" {
		cfg.Credentials.Feed.AccessToken = v
	}
	if v := os.Getenv("TELEGRAM_API_HASH"); v != "" {
		cfg.Credentials.Telegram.APIHash = v
	}
	if v := os.Getenv("NOTIFY_BOT_TOKEN"); v != "" {
		cfg.Credentials.Notifications.BotToken = v
	}
	if v := os.Getenv("NOTIFY_CHAT_ID"); v != "" {
		cfg.Notifications.Telegram.ChatID = v
		cfg.Notifications.Telegram.Enabled = true
	}
	if v := os.Getenv("WHALE_NAMES_BLACKLIST"); v != "" {
		cfg.Filter.WhaleBlacklist = splitList(v)
	}
	if v, ok := os.LookupEnv("SAVE_BOUGHT_COINS"); ok {
		cfg.Persistence.SaveBoughtCoins = envBool(v)
	}
	if v, ok := os.LookupEnv("SET_LIMIT_ORDER"); ok {
		cfg.Trade.SetLimitOrder = envBool(v)
	}

	ints := []struct {
		name   string
		target *int
	}{
		{"TELEGRAM_API_ID", &cfg.Credentials.Telegram.APIID},
		{"BOT_TO_USE", &cfg.Trade.Bot},
		{"PERCENT_COINS_LIMIT_SELL", &cfg.Trade.LimitSellPercent},
	}
	for _, e := range ints {
		v := strings.TrimSpace(os.Getenv(e.name))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return apperrors.NewValidationError(e.name, v, "must be an integer")
		}
		*e.target = n
	}

	floats := []struct {
		name   string
		target *float64
	}{
		{"WHALE_USD_AMOUNT", &cfg.Filter.MinTradeUSD},
		{"MAX_WHALE_COIN_MARKETCAP", &cfg.Filter.MaxMarketCapUSD},
		{"SOL_AMOUNT", &cfg.Trade.SOLAmount},
		{"MULTIPLE_CHANGE_LIMIT_SELL", &cfg.Trade.LimitTriggerMultiple},
	}
	for _, e := range floats {
		v := strings.TrimSpace(os.Getenv(e.name))
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return apperrors.NewValidationError(e.name, v, "must be a number")
		}
		*e.target = f
	}

	return nil
}

func envBool(v string) bool {
	return strings.ToLower(strings.TrimSpace(v)) == "true"
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrConfigInvalid, err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Feed.Timeout <= 0 {
		return apperrors.NewValidationError("feed.timeout", c.Feed.Timeout, "must be positive")
	}
	if c.Feed.PollInterval < 0 {
		return apperrors.NewValidationError("feed.poll_interval", c.Feed.PollInterval, "must not be negative")
	}
	if c.Filter.MinTradeUSD < 0 {
		return apperrors.NewValidationError("filter.min_trade_usd", c.Filter.MinTradeUSD, "must not be negative")
	}
	if c.Filter.MaxMarketCapUSD < 0 {
		return apperrors.NewValidationError("filter.max_market_cap_usd", c.Filter.MaxMarketCapUSD, "must not be negative")
	}
	if _, err := chat.BotByIndex(c.Trade.Bot); err != nil {
		return apperrors.NewValidationError("trade.bot", c.Trade.Bot,
			fmt.Sprintf("must be a number between 1 and %d", len(chat.Bots)))
	}
	if c.Conversation.WaitAttempts < 1 {
		return apperrors.NewValidationError("conversation.wait_attempts", c.Conversation.WaitAttempts, "must be at least 1")
	}
	if c.Conversation.WaitInterval < 0 || c.Conversation.SettleDelay < 0 || c.Conversation.LimitStepDelay < 0 {
		return apperrors.NewValidationError("conversation", c.Conversation, "delays must not be negative")
	}
	// Amount and limit parameters share the checks made before every conversation
	return c.Trade.Request("validate").Validate()
}

// RequireCredentials checks the credentials needed to run the copytrader.
func (c *Config) RequireCredentials() error {
	if c.Credentials.Feed.AccessToken == "" {
		return fmt.Errorf("%w: ACCESS_TOKEN is missing", apperrors.ErrNotAuthenticated)
	}
	if c.Credentials.Telegram.APIID == 0 || c.Credentials.Telegram.APIHash == "" {
		return fmt.Errorf("%w: TELEGRAM_API_ID or TELEGRAM_API_HASH is missing", apperrors.ErrNotAuthenticated)
	}
	if c.Notifications.Telegram.Enabled && c.Credentials.Notifications.BotToken == "" {
		return fmt.Errorf("%w: notification bot token is missing", apperrors.ErrNotAuthenticated)
	}
	return nil
}

// BotUsername returns the username of the configured trading bot.
func (c *Config) BotUsername() (string, error) {
	return chat.BotByIndex(c.Trade.Bot)
}

// Request builds the trade request for a contract from the configured
// purchase size and limit order parameters.
func (t TradeConfig) Request(contractAddress string) models.TradeRequest {
	return models.TradeRequest{
		ContractAddress: contractAddress,
		SOLAmount:       decimal.NewFromFloat(t.SOLAmount),
		Limit: models.LimitOrder{
			Enabled:         t.SetLimitOrder,
			SellPercent:     t.LimitSellPercent,
			TriggerMultiple: t.LimitTriggerMultiple,
		},
	}
}
