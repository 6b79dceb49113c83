// Package classifier decides whether an observed whale trade should be
// copied.
package classifier

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"whale-copytrader/internal/logging"
	"whale-copytrader/internal/models"
)

// Decision is the outcome of classifying one record.
type Decision int

// Decisions, in the order their rules are evaluated.
const (
	Duplicate Decision = iota + 1
	TooOld
	WhaleBlacklisted
	BelowThreshold
	AlreadyBought
	Actionable
)

func (d Decision) String() string {
	switch d {
	case Duplicate:
		return "duplicate"
	case TooOld:
		return "too_old"
	case WhaleBlacklisted:
		return "whale_blacklisted"
	case BelowThreshold:
		return "below_threshold"
	case AlreadyBought:
		return "already_bought"
	case Actionable:
		return "actionable"
	default:
		return "unknown"
	}
}

// Thresholds are the size criteria of an actionable trade. Both bounds are
// inclusive.
type Thresholds struct {
	MinTradeUSD     decimal.Decimal
	MaxMarketCapUSD decimal.Decimal
}

// BoughtSet reports whether a contract has already been purchased.
type BoughtSet interface {
	IsBought(contractAddress string) bool
}

// State is the process state classification reads and updates. It is owned
// by the monitor loop.
type State struct {
	LastSeenID string
	StartTime  time.Time
	Bought     BoughtSet
}

// Classifier applies the classification rules.
type Classifier struct {
	thresholds Thresholds
	blacklist  map[string]struct{}
	logger     zerolog.Logger
}

// New creates a classifier. Whale names in blacklist are matched
// case-insensitively after trimming.
func New(thresholds Thresholds, blacklist []string, logger zerolog.Logger) *Classifier {
	set := make(map[string]struct{}, len(blacklist))
	for _, name := range blacklist {
		if n := NormalizeWhaleName(name); n != "" {
			set[n] = struct{}{}
		}
	}
	return &Classifier{
		thresholds: thresholds,
		blacklist:  set,
		logger:     logging.WithComponent(logger, "classifier"),
	}
}

// NormalizeWhaleName folds a whale name for blacklist lookups.
func NormalizeWhaleName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// IsBlacklisted reports whether trades of the named whale are ignored.
func (c *Classifier) IsBlacklisted(whaleName string) bool {
	_, ok := c.blacklist[NormalizeWhaleName(whaleName)]
	return ok
}

// MeetsThresholds reports whether both amounts are known and within bounds.
func (c *Classifier) MeetsThresholds(rec *models.TransactionRecord) bool {
	if !rec.HasAmounts() {
		return false
	}
	return rec.TradeAmountUSD.Decimal.GreaterThanOrEqual(c.thresholds.MinTradeUSD) &&
		rec.MarketCapUSD.Decimal.LessThanOrEqual(c.thresholds.MaxMarketCapUSD)
}

// Classify evaluates rec against state; the first matching rule wins. A
// record not seen before becomes state's last seen record whatever the
// outcome, so it is classified exactly once.
func (c *Classifier) Classify(rec *models.TransactionRecord, state *State) Decision {
	d := c.classify(rec, state)

	c.logger.Debug().
		Str("tx_id", rec.ID).
		Str("whale", rec.WhaleName).
		Str("symbol", rec.TokenSymbol).
		Str("contract_address", rec.TokenAddress).
		Stringer("decision", d).
		Msg("Transaction classified")
	return d
}

func (c *Classifier) classify(rec *models.TransactionRecord, state *State) Decision {
	if rec.ID == state.LastSeenID {
		return Duplicate
	}
	state.LastSeenID = rec.ID

	switch {
	case rec.Timestamp.Before(state.StartTime):
		return TooOld
	case c.IsBlacklisted(rec.WhaleName):
		return WhaleBlacklisted
	case !c.MeetsThresholds(rec):
		return BelowThreshold
	case state.Bought != nil && state.Bought.IsBought(rec.TokenAddress):
		return AlreadyBought
	default:
		return Actionable
	}
}
