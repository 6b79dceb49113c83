// Package store provides the SQLite journal of observed transactions,
// purchase conversations and purchases.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Journal records what the monitor saw and did.
type Journal interface {
	SaveObservation(ctx context.Context, obs *Observation) error
	SaveConversation(ctx context.Context, conv *Conversation) error
	SavePurchase(ctx context.Context, p *Purchase) error

	ListObservations(ctx context.Context, filter ListFilter) ([]Observation, error)
	ListConversations(ctx context.Context, filter ListFilter) ([]Conversation, error)
	ListPurchases(ctx context.Context, filter ListFilter) ([]Purchase, error)

	Close() error
}

// Observation is a newly observed feed record and its classification.
type Observation struct {
	TxID           string
	Timestamp      time.Time
	WhaleName      string
	TokenSymbol    string
	TokenAddress   string
	TradeAmountUSD decimal.NullDecimal
	MarketCapUSD   decimal.NullDecimal
	Decision       string
	ObservedAt     time.Time
}

// Conversation is one purchase conversation, successful or not.
type Conversation struct {
	ID              string
	Bot             string
	ContractAddress string
	SOLAmount       decimal.Decimal
	LimitOrder      bool
	FinalState      string
	LastState       string
	FailedStep      string
	Error           string
	StartedAt       time.Time
	FinishedAt      time.Time
}

// Purchase is a completed purchase.
type Purchase struct {
	ConversationID  string
	ContractAddress string
	TokenSymbol     string
	WhaleName       string
	MarketCapUSD    decimal.NullDecimal
	SOLAmount       decimal.Decimal
	LimitPlaced     bool
	ExternalLink    string
	BoughtAt        time.Time
}

// ListFilter narrows list queries. Results are newest first.
type ListFilter struct {
	Since time.Time
	Limit int
}
