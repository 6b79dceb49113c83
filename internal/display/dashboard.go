// Package display renders the console dashboard of recent whale trades and
// purchases.
package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"whale-copytrader/internal/models"
	"whale-copytrader/pkg/utils"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)
)

// Section titles.
const (
	TransactionsTitle = "Recent Whale Transactions"
	BoughtTitle       = "Bought Coins Details"
)

// Dashboard redraws the transaction and purchase tables.
type Dashboard struct {
	out   io.Writer
	clear bool
	now   func() time.Time
}

// New creates a dashboard writing to out. When clear is set the screen is
// cleared before every render.
func New(out io.Writer, clear bool) *Dashboard {
	return &Dashboard{out: out, clear: clear, now: time.Now}
}

// Status is the footer line shown under the tables.
type Status struct {
	Bot      string
	Bought   int
	LastTick time.Time
	Message  string
}

// Render draws both tables and the status line.
func (d *Dashboard) Render(txs []models.TransactionRecord, bought []models.BoughtPosition, status Status) error {
	now := d.now()

	var sb strings.Builder
	if d.clear {
		sb.WriteString("\033[2J\033[H")
	}
	sb.WriteString(titleStyle.Render(TransactionsTitle))
	sb.WriteString("\n")
	sb.WriteString(TransactionsTable(txs, now))
	sb.WriteString("\n")
	sb.WriteString(titleStyle.Render(BoughtTitle))
	sb.WriteString("\n")
	sb.WriteString(BoughtTable(bought))
	sb.WriteString("\n")

	line := fmt.Sprintf("bot @%s | %d coins bought", status.Bot, status.Bought)
	if !status.LastTick.IsZero() {
		line += " | last poll " + utils.FormatTimeAgo(status.LastTick, now)
	}
	if status.Message != "" {
		line += " | " + status.Message
	}
	sb.WriteString(statusStyle.Render(line))
	sb.WriteString("\n")

	_, err := io.WriteString(d.out, sb.String())
	return err
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// TransactionsTable renders observed records, newest first.
func TransactionsTable(txs []models.TransactionRecord, now time.Time) string {
	t := newTable("Whale", "Coin", "Amount (USD)", "Market Cap", "Contract", "Time")
	for _, tx := range txs {
		t.Row(
			utils.Truncate(tx.WhaleName, 24),
			tx.TokenSymbol,
			utils.FormatNullUSD(tx.TradeAmountUSD),
			utils.FormatNullUSD(tx.MarketCapUSD),
			tx.TokenAddress,
			utils.FormatTimeAgo(tx.Timestamp, now),
		)
	}
	return t.Render()
}

// BoughtTable renders purchased positions, newest first.
func BoughtTable(bought []models.BoughtPosition) string {
	t := newTable("Whale", "Coin", "Market Cap", "Contract", "Chart")
	for _, p := range bought {
		t.Row(
			utils.Truncate(p.WhaleName, 24),
			p.TokenSymbol,
			utils.FormatNullUSD(p.MarketCapUSD),
			p.ContractAddress,
			p.ExternalLink,
		)
	}
	return t.Render()
}
