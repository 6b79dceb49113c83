// Package ledger keeps the purchased positions and the bounded buffers shown
// on the dashboard.
package ledger

import (
	"sort"
	"time"

	"whale-copytrader/internal/models"
)

const (
	// RecentPositionsCapacity is the number of purchases kept for display.
	RecentPositionsCapacity = 5
	// RecentTransactionsCapacity is the number of observed records kept for
	// display.
	RecentTransactionsCapacity = 10
)

// Ledger is the set of purchased contract addresses plus the most recent
// purchases, newest first. It is owned by the monitor loop and is not safe
// for concurrent use.
type Ledger struct {
	bought map[string]struct{}
	recent []models.BoughtPosition
	now    func() time.Time
}

// New creates a ledger seeded with previously bought addresses.
func New(seed []string) *Ledger {
	l := &Ledger{
		bought: make(map[string]struct{}, len(seed)),
		recent: make([]models.BoughtPosition, 0, RecentPositionsCapacity),
		now:    time.Now,
	}
	l.Seed(seed)
	return l
}

// Seed marks addresses as bought without adding display entries.
func (l *Ledger) Seed(addresses []string) {
	for _, a := range addresses {
		if a != "" {
			l.bought[a] = struct{}{}
		}
	}
}

// RecordPurchase adds rec's contract to the bought set and pushes its
// position to the front of the recent buffer, evicting the oldest entry.
// Callers check IsBought first.
func (l *Ledger) RecordPurchase(rec *models.TransactionRecord) models.BoughtPosition {
	pos := models.NewBoughtPosition(rec, l.now())
	l.bought[rec.TokenAddress] = struct{}{}

	l.recent = append(l.recent, models.BoughtPosition{})
	copy(l.recent[1:], l.recent)
	l.recent[0] = pos
	if len(l.recent) > RecentPositionsCapacity {
		l.recent = l.recent[:RecentPositionsCapacity]
	}
	return pos
}

// IsBought implements classifier.BoughtSet.
func (l *Ledger) IsBought(contractAddress string) bool {
	_, ok := l.bought[contractAddress]
	return ok
}

// Snapshot returns every bought address, sorted.
func (l *Ledger) Snapshot() []string {
	out := make([]string, 0, len(l.bought))
	for a := range l.bought {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of bought addresses.
func (l *Ledger) Len() int {
	return len(l.bought)
}

// Recent returns the most recent purchases, newest first.
func (l *Ledger) Recent() []models.BoughtPosition {
	return append([]models.BoughtPosition(nil), l.recent...)
}

// RecentTransactions is a bounded buffer of observed records, newest first.
type RecentTransactions struct {
	items    []models.TransactionRecord
	capacity int
}

// NewRecentTransactions creates a buffer holding up to capacity records.
func NewRecentTransactions(capacity int) *RecentTransactions {
	if capacity <= 0 {
		capacity = RecentTransactionsCapacity
	}
	return &RecentTransactions{
		items:    make([]models.TransactionRecord, 0, capacity),
		capacity: capacity,
	}
}

// Push adds rec to the front unless a record with the same ID is already
// held. It reports whether rec was added.
func (r *RecentTransactions) Push(rec models.TransactionRecord) bool {
	for _, it := range r.items {
		if it.ID == rec.ID {
			return false
		}
	}
	r.items = append(r.items, models.TransactionRecord{})
	copy(r.items[1:], r.items)
	r.items[0] = rec
	if len(r.items) > r.capacity {
		r.items = r.items[:r.capacity]
	}
	return true
}

// Items returns the held records, newest first.
func (r *RecentTransactions) Items() []models.TransactionRecord {
	return append([]models.TransactionRecord(nil), r.items...)
}
