package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type fakeSender struct {
	sent []*bot.SendMessageParams
	err  error
}

func (f *fakeSender) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.sent = append(f.sent, params)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Message{ID: len(f.sent)}, nil
}

type recorder struct {
	purchases int
	failures  int
	err       error
}

func (r *recorder) NotifyPurchase(context.Context, PurchaseEvent) error {
	r.purchases++
	return r.err
}

func (r *recorder) NotifyFailure(context.Context, FailureEvent) error {
	r.failures++
	return r.err
}

func samplePurchase() PurchaseEvent {
	return PurchaseEvent{
		ConversationID:  "c-1",
		Bot:             "mcqueen_bonkbot",
		WhaleName:       "Alpha <3",
		TokenSymbol:     "BONK",
		ContractAddress: "AAA",
		MarketCapUSD:    decimal.NewNullDecimal(decimal.NewFromInt(50000)),
		SOLAmount:       decimal.RequireFromString("0.005"),
		LimitPlaced:     true,
		ExternalLink:    "https://dextools.io/app/en/solana/pair-explorer/AAA",
	}
}

func TestTelegramNotifier(t *testing.T) {
	sender := &fakeSender{}
	n := &TelegramNotifier{sender: sender, chatID: "12345", logger: zerolog.Nop()}

	if err := n.NotifyPurchase(context.Background(), samplePurchase()); err != nil {
		t.Fatalf("NotifyPurchase() error = %v", err)
	}
	err := n.NotifyFailure(context.Background(), FailureEvent{
		Bot:             "mcqueen_bonkbot",
		TokenSymbol:     "WIF",
		ContractAddress: "BBB",
		FailedStep:      "await_amount_prompt",
		LastState:       "clicked_buy_button",
		Err:             errors.New("no response from bot"),
	})
	if err != nil {
		t.Fatalf("NotifyFailure() error = %v", err)
	}

	if len(sender.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.ChatID != "12345" || msg.ParseMode != models.ParseModeHTML {
		t.Errorf("params = %+v", msg)
	}
	for _, want := range []string{"Bought BONK", "0.005 SOL", "$50,000.00", "Alpha &lt;3", "Limit sell order placed"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("purchase text missing %q:\n%s", want, msg.Text)
		}
	}
	if !strings.Contains(sender.sent[1].Text, "await_amount_prompt") {
		t.Errorf("failure text = %s", sender.sent[1].Text)
	}
}

func TestTelegramNotifier_SendError(t *testing.T) {
	sender := &fakeSender{err: errors.New("chat not found")}
	n := &TelegramNotifier{sender: sender, chatID: "1", logger: zerolog.Nop()}

	if err := n.NotifyPurchase(context.Background(), samplePurchase()); err == nil {
		t.Error("expected error")
	}
}

func TestNewTelegramNotifier_RequiresChat(t *testing.T) {
	if _, err := NewTelegramNotifier("token", "", zerolog.Nop()); err == nil {
		t.Error("expected error without chat id")
	}
}

func TestMultiNotifier(t *testing.T) {
	ok := &recorder{}
	broken := &recorder{err: errors.New("down")}
	mn := NewMultiNotifier(ok, nil, broken, NoOp{})

	if mn.Len() != 3 {
		t.Errorf("Len() = %d, want 3", mn.Len())
	}
	if err := mn.NotifyPurchase(context.Background(), samplePurchase()); err == nil {
		t.Error("expected aggregated error")
	}
	if err := mn.NotifyFailure(context.Background(), FailureEvent{}); err == nil {
		t.Error("expected aggregated error")
	}
	if ok.purchases != 1 || ok.failures != 1 || broken.purchases != 1 {
		t.Error("every notifier should be called despite errors")
	}
}

func TestTerminalNotifier(t *testing.T) {
	var buf bytes.Buffer
	tn := NewTerminalNotifier(&buf, true, false)
	tn.now = func() time.Time { return time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC) }

	if err := tn.NotifyPurchase(context.Background(), samplePurchase()); err != nil {
		t.Fatal(err)
	}
	want := "\a[09:30:00] BOUGHT BONK (AAA) for 0.005 SOL, limit sell placed\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestTexts(t *testing.T) {
	p := samplePurchase()
	p.MarketCapUSD = decimal.NullDecimal{}
	if got := PurchaseText(p); !strings.Contains(got, "Market cap: Unknown") {
		t.Errorf("PurchaseText() = %s", got)
	}
	f := FailureText(FailureEvent{TokenSymbol: "X", FailedStep: "click_buy_x", LastState: "coin_confirmed"})
	if !strings.Contains(f, "failed at click_buy_x (after coin_confirmed)") {
		t.Errorf("FailureText() = %s", f)
	}
}
