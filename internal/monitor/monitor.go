// Package monitor runs the poll, classify, execute and record loop.
package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"whale-copytrader/internal/classifier"
	"whale-copytrader/internal/display"
	apperrors "whale-copytrader/internal/errors"
	"whale-copytrader/internal/executor"
	"whale-copytrader/internal/feed"
	"whale-copytrader/internal/ledger"
	"whale-copytrader/internal/logging"
	"whale-copytrader/internal/models"
	"whale-copytrader/internal/notify"
	"whale-copytrader/internal/security"
	"whale-copytrader/internal/store"
	"whale-copytrader/pkg/utils"
)

// Executor performs a purchase conversation.
type Executor interface {
	Execute(ctx context.Context, req models.TradeRequest) (*executor.Result, error)
}

// Renderer draws the dashboard after every tick.
type Renderer interface {
	Render(txs []models.TransactionRecord, bought []models.BoughtPosition, status display.Status) error
}

// Config holds the loop settings.
type Config struct {
	PollInterval time.Duration
	// Trade is the purchase template; the contract address is filled in
	// per actionable record.
	Trade           models.TradeRequest
	Bot             string
	SaveBoughtCoins bool
	BlacklistFile   string
}

// Deps are the collaborators of the loop. Journal, Notifier and Renderer
// are optional.
type Deps struct {
	Feed       feed.Client
	Classifier *classifier.Classifier
	Executor   Executor
	Ledger     *ledger.Ledger
	Journal    store.Journal
	Notifier   notify.Notifier
	Renderer   Renderer
}

// TickReport describes what one tick did.
type TickReport struct {
	Record    *models.TransactionRecord
	Decision  classifier.Decision // zero when no record was classified
	FetchErr  error
	Result    *executor.Result // set when a purchase was attempted
	Purchased bool
}

// Monitor owns the process state: the last seen record, the start
// watermark, the ledger and the display buffers. Only one operation is in
// flight at a time.
type Monitor struct {
	cfg    Config
	deps   Deps
	logger zerolog.Logger

	state    classifier.State
	recent   *ledger.RecentTransactions
	lastTick time.Time
	message  string

	now func() time.Time
}

// New creates a monitor. The start watermark is the creation time.
func New(cfg Config, deps Deps, logger zerolog.Logger) *Monitor {
	if deps.Ledger == nil {
		deps.Ledger = ledger.New(nil)
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NoOp{}
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}

	m := &Monitor{
		cfg:    cfg,
		deps:   deps,
		logger: logging.WithComponent(logger, "monitor"),
		recent: ledger.NewRecentTransactions(ledger.RecentTransactionsCapacity),
		now:    time.Now,
	}
	m.state = classifier.State{
		StartTime: m.now().UTC(),
		Bought:    deps.Ledger,
	}
	return m
}

// Ledger returns the position ledger.
func (m *Monitor) Ledger() *ledger.Ledger {
	return m.deps.Ledger
}

// State returns a copy of the classification state.
func (m *Monitor) State() classifier.State {
	return m.state
}

// LoadPersisted seeds the ledger from the blacklist file when persistence is
// enabled.
func (m *Monitor) LoadPersisted() error {
	if !m.cfg.SaveBoughtCoins {
		return nil
	}
	addrs, err := ledger.LoadBlacklist(m.cfg.BlacklistFile)
	if err != nil {
		return err
	}
	m.deps.Ledger.Seed(addrs)
	m.logger.Info().
		Int("count", len(addrs)).
		Str("file", m.cfg.BlacklistFile).
		Msg("Loaded bought coins")
	return nil
}

// Run ticks until ctx is cancelled. Cancellation is a normal stop and
// returns nil.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info().
		Time("watermark", m.state.StartTime).
		Dur("poll_interval", m.cfg.PollInterval).
		Msg("Monitor started")

	for {
		m.Tick(ctx)

		if err := utils.Sleep(ctx, m.cfg.PollInterval); err != nil {
			m.logger.Info().Msg("Monitor stopped")
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// Shutdown persists the bought set when persistence is enabled.
func (m *Monitor) Shutdown() error {
	if !m.cfg.SaveBoughtCoins {
		return nil
	}
	snapshot := m.deps.Ledger.Snapshot()
	if err := ledger.SaveBlacklist(m.cfg.BlacklistFile, snapshot); err != nil {
		return err
	}
	m.logger.Info().
		Int("count", len(snapshot)).
		Str("file", m.cfg.BlacklistFile).
		Msg("Saved bought coins")
	return nil
}

// Tick polls the feed once and acts on the record it returns.
func (m *Monitor) Tick(ctx context.Context) TickReport {
	var report TickReport
	defer m.render()

	m.lastTick = m.now()
	rec, err := m.deps.Feed.FetchLatest(ctx)
	if err != nil {
		report.FetchErr = err
		m.logFetchError(err)
		return report
	}
	if rec == nil {
		return report
	}
	report.Record = rec

	decision := m.deps.Classifier.Classify(rec, &m.state)
	report.Decision = decision
	m.recent.Push(*rec)

	if decision != classifier.Duplicate {
		m.journalObservation(ctx, rec, decision)
	}
	if decision != classifier.Actionable {
		return report
	}

	m.logger.Info().
		Str("tx_id", rec.ID).
		Str("whale", rec.WhaleName).
		Str("symbol", rec.TokenSymbol).
		Str("contract_address", rec.TokenAddress).
		Str("amount_usd", utils.FormatNullUSD(rec.TradeAmountUSD)).
		Str("market_cap", utils.FormatNullUSD(rec.MarketCapUSD)).
		Msg("Actionable whale trade, buying")
	m.message = "buying " + rec.TokenSymbol
	m.render()

	req := m.cfg.Trade
	req.ContractAddress = rec.TokenAddress
	res, err := m.deps.Executor.Execute(ctx, req)
	report.Result = res
	if res != nil {
		m.journalConversation(ctx, res)
	}

	if err != nil || res == nil || !res.Succeeded() {
		m.message = "purchase of " + rec.TokenSymbol + " failed"
		m.notifyFailure(ctx, rec, res, err)
		return report
	}

	pos := m.deps.Ledger.RecordPurchase(rec)
	report.Purchased = true
	m.message = "bought " + rec.TokenSymbol

	logging.LogPurchase(m.logger, res.ConversationID, rec.TokenAddress, rec.TokenSymbol, req.SOLAmount.String(), res.LimitPlaced())
	m.journalPurchase(ctx, res, pos)
	m.notifyPurchase(ctx, res, pos)
	return report
}

func (m *Monitor) logFetchError(err error) {
	event := m.logger.Warn()
	switch {
	case errors.Is(err, apperrors.ErrUnparseable):
		event = event.Str("reason", "unclassifiable record")
	case errors.Is(err, apperrors.ErrTimeout):
		event = event.Str("reason", "timeout")
	case errors.Is(err, context.Canceled):
		return
	}
	event.Err(security.MaskError(err)).Msg("Feed fetch skipped")
}

func (m *Monitor) render() {
	if m.deps.Renderer == nil {
		return
	}
	status := display.Status{
		Bot:      m.cfg.Bot,
		Bought:   m.deps.Ledger.Len(),
		LastTick: m.lastTick,
		Message:  m.message,
	}
	if err := m.deps.Renderer.Render(m.recent.Items(), m.deps.Ledger.Recent(), status); err != nil {
		m.logger.Debug().Err(err).Msg("Rendering dashboard failed")
	}
}

// Journal writes use a context detached from cancellation so an interrupt
// during a conversation still records its outcome.
func (m *Monitor) journalCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
}

func (m *Monitor) journalObservation(ctx context.Context, rec *models.TransactionRecord, d classifier.Decision) {
	if m.deps.Journal == nil {
		return
	}
	jctx, cancel := m.journalCtx(ctx)
	defer cancel()

	err := m.deps.Journal.SaveObservation(jctx, &store.Observation{
		TxID:           rec.ID,
		Timestamp:      rec.Timestamp,
		WhaleName:      rec.WhaleName,
		TokenSymbol:    rec.TokenSymbol,
		TokenAddress:   rec.TokenAddress,
		TradeAmountUSD: rec.TradeAmountUSD,
		MarketCapUSD:   rec.MarketCapUSD,
		Decision:       d.String(),
		ObservedAt:     m.now().UTC(),
	})
	if err != nil {
		m.logger.Warn().Err(err).Msg("Journaling observation failed")
	}
}

func (m *Monitor) journalConversation(ctx context.Context, res *executor.Result) {
	if m.deps.Journal == nil {
		return
	}
	jctx, cancel := m.journalCtx(ctx)
	defer cancel()

	conv := &store.Conversation{
		ID:              res.ConversationID,
		Bot:             res.Bot,
		ContractAddress: res.Request.ContractAddress,
		SOLAmount:       res.Request.SOLAmount,
		LimitOrder:      res.Request.Limit.Enabled,
		FinalState:      res.FinalState.String(),
		LastState:       res.LastState.String(),
		FailedStep:      res.FailedStep,
		StartedAt:       res.StartedAt.UTC(),
		FinishedAt:      res.FinishedAt.UTC(),
	}
	if res.Err != nil {
		conv.Error = security.MaskSensitive(res.Err.Error())
	}
	if err := m.deps.Journal.SaveConversation(jctx, conv); err != nil {
		m.logger.Warn().Err(err).Msg("Journaling conversation failed")
	}
}

func (m *Monitor) journalPurchase(ctx context.Context, res *executor.Result, pos models.BoughtPosition) {
	if m.deps.Journal == nil {
		return
	}
	jctx, cancel := m.journalCtx(ctx)
	defer cancel()

	err := m.deps.Journal.SavePurchase(jctx, &store.Purchase{
		ConversationID:  res.ConversationID,
		ContractAddress: pos.ContractAddress,
		TokenSymbol:     pos.TokenSymbol,
		WhaleName:       pos.WhaleName,
		MarketCapUSD:    pos.MarketCapUSD,
		SOLAmount:       res.Request.SOLAmount,
		LimitPlaced:     res.LimitPlaced(),
		ExternalLink:    pos.ExternalLink,
		BoughtAt:        pos.BoughtAt.UTC(),
	})
	if err != nil {
		m.logger.Warn().Err(err).Msg("Journaling purchase failed")
	}
}

func (m *Monitor) notifyPurchase(ctx context.Context, res *executor.Result, pos models.BoughtPosition) {
	nctx, cancel := m.journalCtx(ctx)
	defer cancel()

	err := m.deps.Notifier.NotifyPurchase(nctx, notify.PurchaseEvent{
		ConversationID:  res.ConversationID,
		Bot:             res.Bot,
		WhaleName:       pos.WhaleName,
		TokenSymbol:     pos.TokenSymbol,
		ContractAddress: pos.ContractAddress,
		MarketCapUSD:    pos.MarketCapUSD,
		SOLAmount:       res.Request.SOLAmount,
		LimitPlaced:     res.LimitPlaced(),
		ExternalLink:    pos.ExternalLink,
		Duration:        res.Duration(),
	})
	if err != nil {
		m.logger.Warn().Err(security.MaskError(err)).Msg("Purchase notification failed")
	}
}

func (m *Monitor) notifyFailure(ctx context.Context, rec *models.TransactionRecord, res *executor.Result, err error) {
	ev := notify.FailureEvent{
		Bot:             m.cfg.Bot,
		TokenSymbol:     rec.TokenSymbol,
		ContractAddress: rec.TokenAddress,
		Err:             err,
	}
	if res != nil {
		ev.ConversationID = res.ConversationID
		ev.FailedStep = res.FailedStep
		ev.LastState = res.LastState.String()
	}

	nctx, cancel := m.journalCtx(ctx)
	defer cancel()
	if nerr := m.deps.Notifier.NotifyFailure(nctx, ev); nerr != nil {
		m.logger.Warn().Err(security.MaskError(nerr)).Msg("Failure notification failed")
	}
}
