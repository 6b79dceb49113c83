package cli

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FormatDateTime formats a timestamp in local time; the zero time renders as "-".
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// FormatSOL formats a SOL amount.
func FormatSOL(amount decimal.Decimal) string {
	return amount.String() + " SOL"
}

// FormatYesNo formats a flag.
func FormatYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// OrDash substitutes "-" for an empty cell.
func OrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
