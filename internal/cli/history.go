package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"whale-copytrader/internal/store"
	"whale-copytrader/pkg/utils"
)

var errJournalDisabled = errors.New("journal disabled: set persistence.database in config.toml")

type historyFlags struct {
	limit int
	since time.Duration
}

func (f historyFlags) filter(now time.Time) store.ListFilter {
	filter := store.ListFilter{Limit: f.limit}
	if f.since > 0 {
		filter.Since = now.Add(-f.since)
	}
	return filter
}

func newHistoryCmd(app *App) *cobra.Command {
	flags := &historyFlags{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show journaled transactions, conversations and purchases",
		Long:  "Reads the SQLite journal written by 'copytrader run'. Results are newest first.",
	}
	cmd.PersistentFlags().IntVarP(&flags.limit, "limit", "n", 20, "maximum rows (0 for all)")
	cmd.PersistentFlags().DurationVar(&flags.since, "since", 0, "only rows newer than this, e.g. 24h")

	cmd.AddCommand(&cobra.Command{
		Use:   "purchases",
		Short: "List completed purchases",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(app, func(j store.Journal) error {
				rows, err := j.ListPurchases(cmd.Context(), flags.filter(time.Now()))
				if err != nil {
					return err
				}
				return printPurchases(NewOutput(cmd), rows)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "conversations",
		Short: "List purchase conversations, including failed ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(app, func(j store.Journal) error {
				rows, err := j.ListConversations(cmd.Context(), flags.filter(time.Now()))
				if err != nil {
					return err
				}
				return printConversations(NewOutput(cmd), rows)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "transactions",
		Aliases: []string{"observations"},
		Short:   "List observed whale transactions and their decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(app, func(j store.Journal) error {
				rows, err := j.ListObservations(cmd.Context(), flags.filter(time.Now()))
				if err != nil {
					return err
				}
				return printObservations(NewOutput(cmd), rows, time.Now())
			})
		},
	})

	return cmd
}

func withJournal(app *App, fn func(store.Journal) error) error {
	if app.Config.Persistence.Database == "" {
		return errJournalDisabled
	}
	j, err := store.NewSQLiteStore(app.Config.Persistence.Database)
	if err != nil {
		return err
	}
	defer j.Close()
	return fn(j)
}

func printPurchases(output *Output, rows []store.Purchase) error {
	if output.IsJSON() {
		return output.JSON(rows)
	}
	if len(rows) == 0 {
		output.Dim("No purchases recorded")
		return nil
	}
	table := NewTable(output, "BOUGHT", "SYMBOL", "WHALE", "MARKET CAP", "AMOUNT", "LIMIT", "CONTRACT")
	for _, p := range rows {
		table.AddRow(
			FormatDateTime(p.BoughtAt),
			OrDash(p.TokenSymbol),
			OrDash(p.WhaleName),
			utils.FormatNullUSD(p.MarketCapUSD),
			FormatSOL(p.SOLAmount),
			FormatYesNo(p.LimitPlaced),
			p.ContractAddress,
		)
	}
	table.Render()
	return nil
}

func printConversations(output *Output, rows []store.Conversation) error {
	if output.IsJSON() {
		return output.JSON(rows)
	}
	if len(rows) == 0 {
		output.Dim("No conversations recorded")
		return nil
	}
	table := NewTable(output, "STARTED", "BOT", "STATE", "LAST STATE", "FAILED STEP", "DURATION", "CONTRACT", "ERROR")
	for _, c := range rows {
		table.AddRow(
			FormatDateTime(c.StartedAt),
			"@"+c.Bot,
			output.StateText(c.FinalState),
			c.LastState,
			OrDash(c.FailedStep),
			FormatDuration(c.FinishedAt.Sub(c.StartedAt)),
			c.ContractAddress,
			OrDash(utils.Truncate(c.Error, 60)),
		)
	}
	table.Render()
	return nil
}

func printObservations(output *Output, rows []store.Observation, now time.Time) error {
	if output.IsJSON() {
		return output.JSON(rows)
	}
	if len(rows) == 0 {
		output.Dim("No transactions recorded")
		return nil
	}
	table := NewTable(output, "SEEN", "WHALE", "COIN", "AMOUNT", "MARKET CAP", "DECISION", "CONTRACT")
	for _, o := range rows {
		table.AddRow(
			utils.FormatTimeAgo(o.ObservedAt, now),
			OrDash(o.WhaleName),
			OrDash(o.TokenSymbol),
			utils.FormatNullUSD(o.TradeAmountUSD),
			utils.FormatNullUSD(o.MarketCapUSD),
			output.DecisionText(o.Decision),
			o.TokenAddress,
		)
	}
	table.Render()
	return nil
}
