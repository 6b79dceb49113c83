package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const dextoolsPairExplorer = "https://dextools.io/app/en/solana/pair-explorer/"

// BoughtPosition is a purchase recorded in the ledger. It is never mutated.
type BoughtPosition struct {
	WhaleName       string
	TokenSymbol     string
	MarketCapUSD    decimal.NullDecimal
	ContractAddress string
	ExternalLink    string
	BoughtAt        time.Time
}

// NewBoughtPosition builds the ledger entry for a purchased record.
func NewBoughtPosition(rec *TransactionRecord, at time.Time) BoughtPosition {
	return BoughtPosition{
		WhaleName:       rec.WhaleName,
		TokenSymbol:     rec.TokenSymbol,
		MarketCapUSD:    rec.MarketCapUSD,
		ContractAddress: rec.TokenAddress,
		ExternalLink:    PairExplorerLink(rec.TokenAddress),
		BoughtAt:        at,
	}
}

// PairExplorerLink returns the DEXTools pair explorer URL for a contract.
func PairExplorerLink(contractAddress string) string {
	return dextoolsPairExplorer + contractAddress
}
