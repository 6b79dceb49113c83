package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestObservations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	first := &Observation{
		TxID:           "41",
		Timestamp:      base,
		WhaleName:      "Alpha",
		TokenSymbol:    "BONK",
		TokenAddress:   "AAA",
		TradeAmountUSD: decimal.NewNullDecimal(decimal.RequireFromString("1000.5")),
		Decision:       "below_threshold",
		ObservedAt:     base,
	}
	second := &Observation{
		TxID:           "42",
		Timestamp:      base.Add(time.Second),
		WhaleName:      "Beta",
		TokenSymbol:    "WIF",
		TokenAddress:   "BBB",
		TradeAmountUSD: decimal.NewNullDecimal(decimal.NewFromInt(900)),
		MarketCapUSD:   decimal.NewNullDecimal(decimal.NewFromInt(50000)),
		Decision:       "actionable",
		ObservedAt:     base.Add(time.Minute),
	}
	for _, o := range []*Observation{first, second} {
		if err := s.SaveObservation(ctx, o); err != nil {
			t.Fatalf("SaveObservation() error = %v", err)
		}
	}

	got, err := s.ListObservations(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("ListObservations() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d observations, want 2", len(got))
	}
	if got[0].TxID != "42" || got[1].TxID != "41" {
		t.Errorf("order = %s, %s; want newest first", got[0].TxID, got[1].TxID)
	}
	if got[1].MarketCapUSD.Valid {
		t.Error("absent market cap should round-trip as NULL")
	}
	if !got[1].TradeAmountUSD.Decimal.Equal(decimal.RequireFromString("1000.5")) {
		t.Errorf("trade amount = %s", got[1].TradeAmountUSD.Decimal)
	}
	if !got[0].ObservedAt.Equal(second.ObservedAt) {
		t.Errorf("observed_at = %v, want %v", got[0].ObservedAt, second.ObservedAt)
	}

	limited, err := s.ListObservations(ctx, ListFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListObservations() error = %v", err)
	}
	if len(limited) != 1 || limited[0].TxID != "42" {
		t.Errorf("limited = %+v", limited)
	}
}

func TestConversationsAndPurchases(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	failed := &Conversation{
		ID:              "c-1",
		Bot:             "mcqueen_bonkbot",
		ContractAddress: "AAA",
		SOLAmount:       decimal.RequireFromString("0.005"),
		FinalState:      "failed",
		LastState:       "clicked_buy_button",
		FailedStep:      "await_amount_prompt",
		Error:           "no response from bot after 5 attempts",
		StartedAt:       start,
		FinishedAt:      start.Add(6 * time.Second),
	}
	done := &Conversation{
		ID:              "c-2",
		Bot:             "mcqueen_bonkbot",
		ContractAddress: "BBB",
		SOLAmount:       decimal.RequireFromString("0.005"),
		LimitOrder:      true,
		FinalState:      "done",
		LastState:       "limit_placed",
		StartedAt:       start.Add(time.Minute),
		FinishedAt:      start.Add(time.Minute + 20*time.Second),
	}
	for _, c := range []*Conversation{failed, done} {
		if err := s.SaveConversation(ctx, c); err != nil {
			t.Fatalf("SaveConversation() error = %v", err)
		}
	}

	convs, err := s.ListConversations(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if len(convs) != 2 || convs[0].ID != "c-2" {
		t.Fatalf("conversations = %+v", convs)
	}
	if !convs[0].LimitOrder || convs[1].LimitOrder {
		t.Error("limit_order flag did not round-trip")
	}
	if convs[1].FailedStep != "await_amount_prompt" || convs[1].Error == "" {
		t.Errorf("failed conversation = %+v", convs[1])
	}
	if !convs[1].SOLAmount.Equal(decimal.RequireFromString("0.005")) {
		t.Errorf("sol_amount = %s", convs[1].SOLAmount)
	}

	p := &Purchase{
		ConversationID:  "c-2",
		ContractAddress: "BBB",
		TokenSymbol:     "WIF",
		WhaleName:       "Beta",
		MarketCapUSD:    decimal.NewNullDecimal(decimal.NewFromInt(50000)),
		SOLAmount:       decimal.RequireFromString("0.005"),
		LimitPlaced:     true,
		ExternalLink:    "https://dextools.io/app/en/solana/pair-explorer/BBB",
		BoughtAt:        done.FinishedAt,
	}
	if err := s.SavePurchase(ctx, p); err != nil {
		t.Fatalf("SavePurchase() error = %v", err)
	}

	purchases, err := s.ListPurchases(ctx, ListFilter{Since: start})
	if err != nil {
		t.Fatalf("ListPurchases() error = %v", err)
	}
	if len(purchases) != 1 {
		t.Fatalf("got %d purchases, want 1", len(purchases))
	}
	got := purchases[0]
	if got.ContractAddress != "BBB" || !got.LimitPlaced || got.ExternalLink != p.ExternalLink {
		t.Errorf("purchase = %+v", got)
	}
	if !got.MarketCapUSD.Valid || !got.MarketCapUSD.Decimal.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("market cap = %+v", got.MarketCapUSD)
	}

	later, err := s.ListPurchases(ctx, ListFilter{Since: start.Add(time.Hour)})
	if err != nil {
		t.Fatalf("ListPurchases() error = %v", err)
	}
	if len(later) != 0 {
		t.Errorf("since filter returned %d purchases", len(later))
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	err = s.SavePurchase(ctx, &Purchase{
		ConversationID:  "c-1",
		ContractAddress: "AAA",
		TokenSymbol:     "BONK",
		WhaleName:       "Alpha",
		SOLAmount:       decimal.NewFromInt(1),
		BoughtAt:        time.Now().UTC(),
	})
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, err := s.ListPurchases(ctx, ListFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].MarketCapUSD.Valid {
		t.Errorf("after reopen = %+v", got)
	}
}
