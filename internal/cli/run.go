package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"whale-copytrader/internal/chat"
	"whale-copytrader/internal/classifier"
	"whale-copytrader/internal/display"
	apperrors "whale-copytrader/internal/errors"
	"whale-copytrader/internal/executor"
	"whale-copytrader/internal/feed"
	"whale-copytrader/internal/ledger"
	"whale-copytrader/internal/logging"
	"whale-copytrader/internal/monitor"
	"whale-copytrader/internal/notify"
	"whale-copytrader/internal/security"
	"whale-copytrader/internal/store"
)

func newRunCmd(app *App) *cobra.Command {
	var noDashboard bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch the whale feed and copy matching buys",
		Long: `Polls the whale feed, classifies each new trade and buys every actionable
token through the configured trading bot. Stop with Ctrl+C; the bought
set is written to the blacklist file on exit when save_bought_coins is on.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runCopytrader(ctx, cmd, app, !noDashboard && app.Config.UI.Dashboard)
		},
	}

	cmd.Flags().BoolVar(&noDashboard, "no-dashboard", false, "disable the transaction tables")
	return cmd
}

// runLogConfig keeps the console writer off while the dashboard redraws the
// terminal; the log file still receives everything.
func runLogConfig(base logging.LogConfig, dashboard bool) logging.LogConfig {
	if dashboard {
		base.Console = false
	}
	return base
}

func runCopytrader(ctx context.Context, cmd *cobra.Command, app *App, dashboard bool) (err error) {
	cfg := app.Config
	if dashboard && app.LogConfig.Console {
		app.Logger = logging.NewLoggerWithConfig(runLogConfig(app.LogConfig, dashboard))
	}
	logger := app.Logger

	if err := cfg.RequireCredentials(); err != nil {
		return err
	}
	bot, err := cfg.BotUsername()
	if err != nil {
		return err
	}

	sessionPath, err := chat.FirstSession(cfg.Telegram.SessionDir)
	if err != nil {
		return err
	}
	client, err := chat.ConnectTelegram(ctx, chat.TelegramConfig{
		AppID:             cfg.Credentials.Telegram.APIID,
		AppHash:           cfg.Credentials.Telegram.APIHash,
		SessionPath:       sessionPath,
		RequestsPerSecond: cfg.Telegram.RequestsPerSecond,
	}, logger)
	if err != nil {
		return security.MaskError(fmt.Errorf("connecting to Telegram: %w", err))
	}
	defer client.Close()

	feedClient := feed.NewAssetDashClient(feed.AssetDashConfig{
		URL:         cfg.Feed.URL,
		AccessToken: cfg.Credentials.Feed.AccessToken,
		Timeout:     cfg.Feed.Timeout,
	}, logger)

	cls := classifier.New(classifier.Thresholds{
		MinTradeUSD:     decimal.NewFromFloat(cfg.Filter.MinTradeUSD),
		MaxMarketCapUSD: decimal.NewFromFloat(cfg.Filter.MaxMarketCapUSD),
	}, cfg.Filter.WhaleBlacklist, logger)

	exec := executor.New(client, executor.Config{
		Bot:            bot,
		ReferralCode:   cfg.Trade.ReferralCode,
		WaitAttempts:   cfg.Conversation.WaitAttempts,
		WaitInterval:   cfg.Conversation.WaitInterval,
		SettleDelay:    cfg.Conversation.SettleDelay,
		LimitStepDelay: cfg.Conversation.LimitStepDelay,
	}, logger)

	deps := monitor.Deps{
		Feed:       feedClient,
		Classifier: cls,
		Executor:   exec,
		Ledger:     ledger.New(nil),
	}

	if cfg.Persistence.Database != "" {
		db, err := store.NewSQLiteStore(cfg.Persistence.Database)
		if err != nil {
			return apperrors.Wrap(err, "opening journal")
		}
		defer db.Close()
		deps.Journal = db
	}

	notifier, err := buildNotifier(cmd, app)
	if err != nil {
		return err
	}
	deps.Notifier = notifier

	if dashboard {
		deps.Renderer = display.New(cmd.OutOrStdout(), true)
	}

	m := monitor.New(monitor.Config{
		PollInterval:    cfg.Feed.PollInterval,
		Trade:           cfg.Trade.Request(""),
		Bot:             bot,
		SaveBoughtCoins: cfg.Persistence.SaveBoughtCoins,
		BlacklistFile:   cfg.Persistence.BlacklistFile,
	}, deps, logger)

	if err := m.LoadPersisted(); err != nil {
		return apperrors.Wrap(err, "loading bought coins")
	}
	defer func() {
		if serr := m.Shutdown(); serr != nil {
			err = errors.Join(err, apperrors.Wrapf(serr, "saving bought coins to %s", cfg.Persistence.BlacklistFile))
		}
	}()

	logger.Info().
		Str("bot", bot).
		Str("session", sessionPath).
		Bool("limit_order", cfg.Trade.SetLimitOrder).
		Msg("Copytrader running")

	return m.Run(ctx)
}

// buildNotifier combines the enabled notification channels.
func buildNotifier(cmd *cobra.Command, app *App) (notify.Notifier, error) {
	cfg := app.Config
	var notifiers []notify.Notifier

	if cfg.UI.Bell {
		out := cmd.OutOrStdout()
		notifiers = append(notifiers, notify.NewTerminalNotifier(out, true, isTerminal(out)))
	}

	if cfg.Notifications.Telegram.Enabled {
		tn, err := notify.NewTelegramNotifier(
			cfg.Credentials.Notifications.BotToken,
			cfg.Notifications.Telegram.ChatID,
			app.Logger,
		)
		if err != nil {
			return nil, security.MaskError(fmt.Errorf("creating Telegram notifier: %w", err))
		}
		notifiers = append(notifiers, tn)
	}

	if len(notifiers) == 0 {
		return notify.NoOp{}, nil
	}
	return notify.NewMultiNotifier(notifiers...), nil
}
