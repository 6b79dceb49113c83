// Package models provides the domain types shared by the feed, classifier,
// executor and ledger.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecord is one whale trade observed on the feed.
type TransactionRecord struct {
	ID             string
	Timestamp      time.Time
	WhaleName      string
	TokenSymbol    string
	TokenAddress   string
	TradeAmountUSD decimal.NullDecimal
	MarketCapUSD   decimal.NullDecimal
}

// HasAmounts reports whether both the trade size and the market cap are known.
func (r *TransactionRecord) HasAmounts() bool {
	return r.TradeAmountUSD.Valid && r.MarketCapUSD.Valid
}
