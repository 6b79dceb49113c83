// Package notify tells the operator about purchases and failed conversations.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"whale-copytrader/pkg/utils"
)

// Notifier defines the interface for sending notifications.
type Notifier interface {
	NotifyPurchase(ctx context.Context, p PurchaseEvent) error
	NotifyFailure(ctx context.Context, f FailureEvent) error
}

// PurchaseEvent describes a completed purchase.
type PurchaseEvent struct {
	ConversationID  string
	Bot             string
	WhaleName       string
	TokenSymbol     string
	ContractAddress string
	MarketCapUSD    decimal.NullDecimal
	SOLAmount       decimal.Decimal
	LimitPlaced     bool
	ExternalLink    string
	Duration        time.Duration
}

// FailureEvent describes a conversation that halted before completing.
type FailureEvent struct {
	ConversationID  string
	Bot             string
	TokenSymbol     string
	ContractAddress string
	FailedStep      string
	LastState       string
	Err             error
}

// PurchaseText renders p as plain text.
func PurchaseText(p PurchaseEvent) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Bought %s for %s SOL\n", p.TokenSymbol, p.SOLAmount.String())
	fmt.Fprintf(&sb, "Whale: %s\n", p.WhaleName)
	fmt.Fprintf(&sb, "Market cap: %s\n", utils.FormatNullUSD(p.MarketCapUSD))
	fmt.Fprintf(&sb, "Contract: %s\n", p.ContractAddress)
	if p.LimitPlaced {
		sb.WriteString("Limit sell order placed\n")
	}
	sb.WriteString(p.ExternalLink)
	return sb.String()
}

// FailureText renders f as plain text.
func FailureText(f FailureEvent) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Purchase of %s failed at %s (after %s)\n", f.TokenSymbol, f.FailedStep, f.LastState)
	fmt.Fprintf(&sb, "Bot: %s\n", f.Bot)
	fmt.Fprintf(&sb, "Contract: %s", f.ContractAddress)
	if f.Err != nil {
		fmt.Fprintf(&sb, "\nError: %v", f.Err)
	}
	return sb.String()
}

// MultiNotifier sends notifications to multiple notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a MultiNotifier; nil entries are skipped.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	mn := &MultiNotifier{}
	for _, n := range notifiers {
		if n != nil {
			mn.notifiers = append(mn.notifiers, n)
		}
	}
	return mn
}

// Len returns the number of wrapped notifiers.
func (mn *MultiNotifier) Len() int {
	return len(mn.notifiers)
}

// NotifyPurchase implements Notifier.
func (mn *MultiNotifier) NotifyPurchase(ctx context.Context, p PurchaseEvent) error {
	return mn.each(func(n Notifier) error { return n.NotifyPurchase(ctx, p) })
}

// NotifyFailure implements Notifier.
func (mn *MultiNotifier) NotifyFailure(ctx context.Context, f FailureEvent) error {
	return mn.each(func(n Notifier) error { return n.NotifyFailure(ctx, f) })
}

func (mn *MultiNotifier) each(fn func(Notifier) error) error {
	var errs []string
	for _, n := range mn.notifiers {
		if err := fn(n); err != nil {
			errs = append(errs, fmt.Sprintf("%T: %v", n, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// NoOp discards every notification.
type NoOp struct{}

// NotifyPurchase implements Notifier.
func (NoOp) NotifyPurchase(context.Context, PurchaseEvent) error { return nil }

// NotifyFailure implements Notifier.
func (NoOp) NotifyFailure(context.Context, FailureEvent) error { return nil }
