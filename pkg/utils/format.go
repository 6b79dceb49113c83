// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Unknown is shown for amounts the feed did not report.
const Unknown = "Unknown"

// FormatUSD formats an amount as dollars with thousands separators, e.g.
// $1,234.50.
func FormatUSD(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	str := amount.Abs().StringFixed(2)
	parts := strings.SplitN(str, ".", 2)

	result := "$" + groupThousands(parts[0]) + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

// FormatNullUSD formats an optional amount, showing Unknown when absent.
func FormatNullUSD(amount decimal.NullDecimal) string {
	if !amount.Valid {
		return Unknown
	}
	return FormatUSD(amount.Decimal)
}

func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatTimeAgo renders the age of t relative to now as "Ns ago" below a
// minute and "Nm ago" above.
func FormatTimeAgo(t, now time.Time) string {
	age := now.Sub(t)
	if age < 0 {
		age = 0
	}
	if age >= time.Minute {
		return fmt.Sprintf("%dm ago", int(age/time.Minute))
	}
	return fmt.Sprintf("%ds ago", int(age/time.Second))
}

// Truncate shortens s to max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
