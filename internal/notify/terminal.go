package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	purchaseStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	failureStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// TerminalNotifier prints a line per event and optionally rings the bell.
type TerminalNotifier struct {
	mu    sync.Mutex
	out   io.Writer
	bell  bool
	color bool
	now   func() time.Time
}

// NewTerminalNotifier creates a TerminalNotifier writing to out.
func NewTerminalNotifier(out io.Writer, bell, color bool) *TerminalNotifier {
	return &TerminalNotifier{out: out, bell: bell, color: color, now: time.Now}
}

// NotifyPurchase implements Notifier.
func (tn *TerminalNotifier) NotifyPurchase(_ context.Context, p PurchaseEvent) error {
	line := fmt.Sprintf("BOUGHT %s (%s) for %s SOL", p.TokenSymbol, p.ContractAddress, p.SOLAmount.String())
	if p.LimitPlaced {
		line += ", limit sell placed"
	}
	return tn.write(purchaseStyle, line)
}

// NotifyFailure implements Notifier.
func (tn *TerminalNotifier) NotifyFailure(_ context.Context, f FailureEvent) error {
	return tn.write(failureStyle, fmt.Sprintf("FAILED %s (%s) at %s", f.TokenSymbol, f.ContractAddress, f.FailedStep))
}

func (tn *TerminalNotifier) write(style lipgloss.Style, line string) error {
	tn.mu.Lock()
	defer tn.mu.Unlock()

	if tn.color {
		line = style.Render(line)
	}
	prefix := ""
	if tn.bell {
		prefix = "\a"
	}
	_, err := fmt.Fprintf(tn.out, "%s[%s] %s\n", prefix, tn.now().Format("15:04:05"), line)
	return err
}
