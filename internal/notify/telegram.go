package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"whale-copytrader/internal/logging"
	"whale-copytrader/pkg/utils"
)

// messageSender is the part of *bot.Bot the notifier uses.
type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramNotifier posts notifications to an operator chat through the Bot
// API.
type TelegramNotifier struct {
	sender messageSender
	chatID string
	logger zerolog.Logger
}

// NewTelegramNotifier creates a notifier for the bot with token. The token
// is not checked against the API until the first message is sent.
func NewTelegramNotifier(token, chatID string, logger zerolog.Logger) (*TelegramNotifier, error) {
	if token == "" || chatID == "" {
		return nil, fmt.Errorf("telegram notifications need a bot token and a chat id")
	}
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("creating notification bot: %w", err)
	}
	return &TelegramNotifier{
		sender: b,
		chatID: chatID,
		logger: logging.WithComponent(logger, "notify"),
	}, nil
}

// NotifyPurchase implements Notifier.
func (t *TelegramNotifier) NotifyPurchase(ctx context.Context, p PurchaseEvent) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🐳 <b>Bought %s</b> for %s SOL\n", html.EscapeString(p.TokenSymbol), p.SOLAmount.String())
	fmt.Fprintf(&sb, "Whale: %s\n", html.EscapeString(p.WhaleName))
	fmt.Fprintf(&sb, "Market cap: %s\n", utils.FormatNullUSD(p.MarketCapUSD))
	fmt.Fprintf(&sb, "Contract: <code>%s</code>\n", html.EscapeString(p.ContractAddress))
	if p.LimitPlaced {
		sb.WriteString("Limit sell order placed\n")
	}
	fmt.Fprintf(&sb, `<a href="%s">DEXTools</a>`, html.EscapeString(p.ExternalLink))
	return t.send(ctx, sb.String())
}

// NotifyFailure implements Notifier.
func (t *TelegramNotifier) NotifyFailure(ctx context.Context, f FailureEvent) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "❌ <b>Purchase of %s failed</b>\n", html.EscapeString(f.TokenSymbol))
	fmt.Fprintf(&sb, "Step: %s (after %s)\n", f.FailedStep, f.LastState)
	fmt.Fprintf(&sb, "Bot: @%s\n", f.Bot)
	fmt.Fprintf(&sb, "Contract: <code>%s</code>", html.EscapeString(f.ContractAddress))
	if f.Err != nil {
		fmt.Fprintf(&sb, "\nError: %s", html.EscapeString(f.Err.Error()))
	}
	return t.send(ctx, sb.String())
}

func (t *TelegramNotifier) send(ctx context.Context, text string) error {
	disabled := true
	_, err := t.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    t.chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{
			IsDisabled: &disabled,
		},
	})
	if err != nil {
		t.logger.Warn().Err(err).Msg("Sending Telegram notification failed")
		return fmt.Errorf("sending telegram notification: %w", err)
	}
	return nil
}
