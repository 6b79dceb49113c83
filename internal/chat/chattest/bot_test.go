package chattest

import (
	"context"
	"strings"
	"testing"
)

func TestBonkBotConversation(t *testing.T) {
	ctx := context.Background()
	bot := BonkBot()

	if _, err := bot.Send(ctx, "bonk", "/start=ref_x_ca_MintX"); err != nil {
		t.Fatal(err)
	}
	latest, err := bot.LatestMessages(ctx, "bonk", 1)
	if err != nil || len(latest) != 1 {
		t.Fatalf("LatestMessages() = %v, %v", latest, err)
	}
	if !latest[0].FromBot || !strings.Contains(latest[0].Text, "MintX") {
		t.Fatalf("unexpected coin message %+v", latest[0])
	}

	btn, ok := latest[0].FindButton("Buy X SOL")
	if !ok {
		t.Fatal("Buy X SOL button missing")
	}
	if _, err := bot.InvokeButton(ctx, "bonk", latest[0].ID, btn.Callback); err != nil {
		t.Fatal(err)
	}
	latest, _ = bot.LatestMessages(ctx, "bonk", 1)
	if latest[0].Text != AmountPrompt {
		t.Fatalf("expected amount prompt, got %q", latest[0].Text)
	}

	if _, err := bot.Reply(ctx, "bonk", "0.005", latest[0].ID); err != nil {
		t.Fatal(err)
	}
	latest, _ = bot.LatestMessages(ctx, "bonk", 1)
	if !strings.Contains(latest[0].Text, "Profit") {
		t.Fatalf("expected position message, got %q", latest[0].Text)
	}

	if got := len(bot.CallsOf("Reply")); got != 1 {
		t.Errorf("recorded %d replies", got)
	}
}

func TestSilence(t *testing.T) {
	ctx := context.Background()
	bot := BonkBot().Silence("/start=")

	if _, err := bot.Send(ctx, "bonk", "/start=ref_x_ca_MintX"); err != nil {
		t.Fatal(err)
	}
	latest, _ := bot.LatestMessages(ctx, "bonk", 1)
	if len(latest) != 1 || !latest[0].Outgoing {
		t.Fatalf("silenced bot answered: %+v", latest)
	}
}
