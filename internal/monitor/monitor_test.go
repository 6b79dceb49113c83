package monitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whale-copytrader/internal/chat/chattest"
	"whale-copytrader/internal/classifier"
	"whale-copytrader/internal/display"
	apperrors "whale-copytrader/internal/errors"
	"whale-copytrader/internal/executor"
	"whale-copytrader/internal/ledger"
	"whale-copytrader/internal/models"
	"whale-copytrader/internal/notify"
	"whale-copytrader/internal/store"
)

type step struct {
	rec *models.TransactionRecord
	err error
}

type fakeFeed struct {
	steps []step
	calls int
}

func (f *fakeFeed) FetchLatest(ctx context.Context) (*models.TransactionRecord, error) {
	f.calls++
	if len(f.steps) == 0 {
		return nil, nil
	}
	s := f.steps[0]
	if len(f.steps) > 1 {
		f.steps = f.steps[1:]
	}
	return s.rec, s.err
}

type fakeExecutor struct {
	requests []models.TradeRequest
	fail     bool
}

func (f *fakeExecutor) Execute(ctx context.Context, req models.TradeRequest) (*executor.Result, error) {
	f.requests = append(f.requests, req)
	res := &executor.Result{
		ConversationID: "conv",
		Bot:            "mcqueen_bonkbot",
		Request:        req,
		FinalState:     executor.Done,
		LastState:      executor.AmountSent,
	}
	if f.fail {
		res.FinalState = executor.Failed
		res.LastState = executor.ClickedBuyButton
		res.FailedStep = "await_amount_prompt"
		res.Err = apperrors.ErrNoResponse
		return res, res.Err
	}
	return res, nil
}

type recordingNotifier struct {
	purchases []notify.PurchaseEvent
	failures  []notify.FailureEvent
}

func (r *recordingNotifier) NotifyPurchase(_ context.Context, p notify.PurchaseEvent) error {
	r.purchases = append(r.purchases, p)
	return nil
}

func (r *recordingNotifier) NotifyFailure(_ context.Context, f notify.FailureEvent) error {
	r.failures = append(r.failures, f)
	return nil
}

type countingRenderer struct {
	renders int
	last    []models.TransactionRecord
}

func (c *countingRenderer) Render(txs []models.TransactionRecord, _ []models.BoughtPosition, _ display.Status) error {
	c.renders++
	c.last = txs
	return nil
}

var start = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func record(id, addr string, amount int64) *models.TransactionRecord {
	return &models.TransactionRecord{
		ID:             id,
		Timestamp:      start.Add(time.Minute),
		WhaleName:      "Alpha",
		TokenSymbol:    "TOK" + id,
		TokenAddress:   addr,
		TradeAmountUSD: decimal.NewNullDecimal(decimal.NewFromInt(amount)),
		MarketCapUSD:   decimal.NewNullDecimal(decimal.NewFromInt(50000)),
	}
}

type fixture struct {
	mon      *Monitor
	feed     *fakeFeed
	exec     *fakeExecutor
	notifier *recordingNotifier
	renderer *countingRenderer
}

func newFixture(t *testing.T, cfg Config, exec Executor, steps ...step) *fixture {
	t.Helper()
	f := &fixture{
		feed:     &fakeFeed{steps: steps},
		notifier: &recordingNotifier{},
		renderer: &countingRenderer{},
	}
	if exec == nil {
		f.exec = &fakeExecutor{}
		exec = f.exec
	}
	if cfg.Trade.SOLAmount.IsZero() {
		cfg.Trade.SOLAmount = decimal.RequireFromString("0.005")
	}
	cls := classifier.New(classifier.Thresholds{
		MinTradeUSD:     decimal.NewFromInt(700),
		MaxMarketCapUSD: decimal.NewFromInt(200000),
	}, []string{"blocked"}, zerolog.Nop())

	f.mon = New(cfg, Deps{
		Feed:       f.feed,
		Classifier: cls,
		Executor:   exec,
		Notifier:   f.notifier,
		Renderer:   f.renderer,
	}, zerolog.Nop())
	f.mon.state.StartTime = start
	return f
}

func TestTick_ActionableRecordIsBought(t *testing.T) {
	f := newFixture(t, Config{Bot: "mcqueen_bonkbot"}, nil, step{rec: record("1", "AAA", 1000)})

	report := f.mon.Tick(context.Background())

	assert.Equal(t, classifier.Actionable, report.Decision)
	assert.True(t, report.Purchased)
	require.Len(t, f.exec.requests, 1)
	assert.Equal(t, "AAA", f.exec.requests[0].ContractAddress)
	assert.True(t, f.mon.Ledger().IsBought("AAA"))
	require.Len(t, f.notifier.purchases, 1)
	assert.Equal(t, "https://dextools.io/app/en/solana/pair-explorer/AAA", f.notifier.purchases[0].ExternalLink)
	assert.Positive(t, f.renderer.renders)
}

func TestTick_DuplicateDoesNotBuyTwice(t *testing.T) {
	rec := record("42", "AAA", 1000)
	f := newFixture(t, Config{}, nil, step{rec: rec}, step{rec: rec})

	first := f.mon.Tick(context.Background())
	second := f.mon.Tick(context.Background())

	assert.Equal(t, classifier.Actionable, first.Decision)
	assert.Equal(t, classifier.Duplicate, second.Decision)
	assert.Len(t, f.exec.requests, 1)
	assert.Len(t, f.renderer.last, 1, "duplicates are shown once")
}

func TestTick_SameAddressNewIDIsAlreadyBought(t *testing.T) {
	f := newFixture(t, Config{}, nil,
		step{rec: record("1", "AAA", 1000)},
		step{rec: record("2", "AAA", 5000)},
	)

	f.mon.Tick(context.Background())
	report := f.mon.Tick(context.Background())

	assert.Equal(t, classifier.AlreadyBought, report.Decision)
	assert.Len(t, f.exec.requests, 1)
}

func TestTick_FailedConversationLeavesLedgerUntouched(t *testing.T) {
	exec := &fakeExecutor{fail: true}
	f := newFixture(t, Config{Bot: "mcqueen_bonkbot"}, exec, step{rec: record("1", "AAA", 1000)})

	report := f.mon.Tick(context.Background())

	assert.False(t, report.Purchased)
	assert.False(t, f.mon.Ledger().IsBought("AAA"))
	assert.Empty(t, f.mon.Ledger().Recent())
	assert.Empty(t, f.notifier.purchases)
	require.Len(t, f.notifier.failures, 1)
	assert.Equal(t, "await_amount_prompt", f.notifier.failures[0].FailedStep)
}

// The bot never answers the Buy X SOL button, so the second wait runs out.
func TestTick_HaltedConversationWithScriptedBot(t *testing.T) {
	bot := chattest.BonkBot().Silence(executor.BuyXButton)
	exec := executor.New(bot, executor.Config{Bot: "mcqueen_bonkbot", ReferralCode: "ibayi", WaitAttempts: 2}, zerolog.Nop())
	f := newFixture(t, Config{Bot: "mcqueen_bonkbot"}, exec, step{rec: record("1", "AAA", 1000)})

	report := f.mon.Tick(context.Background())

	require.NotNil(t, report.Result)
	assert.Equal(t, executor.Failed, report.Result.FinalState)
	assert.False(t, f.mon.Ledger().IsBought("AAA"))
	assert.Empty(t, bot.CallsOf("Reply"))
}

func TestTick_FeedErrorsChangeNothing(t *testing.T) {
	f := newFixture(t, Config{}, nil,
		step{err: apperrors.NewFeedError("fetch", 0, apperrors.ErrTimeout)},
		step{err: apperrors.NewRecordError("swap_token.token_address", nil)},
	)

	first := f.mon.Tick(context.Background())
	second := f.mon.Tick(context.Background())

	assert.ErrorIs(t, first.FetchErr, apperrors.ErrTimeout)
	assert.ErrorIs(t, second.FetchErr, apperrors.ErrUnparseable)
	assert.Empty(t, f.mon.State().LastSeenID)
	assert.Empty(t, f.exec.requests)
	assert.Equal(t, 2, f.renderer.renders)
}

func TestTick_NonActionableRecordsAreShown(t *testing.T) {
	old := record("1", "AAA", 1000)
	old.Timestamp = start.Add(-time.Hour)
	blocked := record("2", "BBB", 1000)
	blocked.WhaleName = " BLOCKED "
	small := record("3", "CCC", 10)

	f := newFixture(t, Config{}, nil, step{rec: old}, step{rec: blocked}, step{rec: small})

	var decisions []classifier.Decision
	for i := 0; i < 3; i++ {
		decisions = append(decisions, f.mon.Tick(context.Background()).Decision)
	}

	assert.Equal(t, []classifier.Decision{classifier.TooOld, classifier.WhaleBlacklisted, classifier.BelowThreshold}, decisions)
	assert.Empty(t, f.exec.requests)
	require.Len(t, f.renderer.last, 3)
	assert.Equal(t, "3", f.renderer.last[0].ID)
}

func TestTick_Journal(t *testing.T) {
	journal, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer journal.Close()

	f := newFixture(t, Config{}, nil, step{rec: record("1", "AAA", 1000)}, step{rec: record("2", "BBB", 10)})
	f.mon.deps.Journal = journal

	f.mon.Tick(context.Background())
	f.mon.Tick(context.Background())

	ctx := context.Background()
	obs, err := journal.ListObservations(ctx, store.ListFilter{})
	require.NoError(t, err)
	require.Len(t, obs, 2)

	convs, err := journal.ListConversations(ctx, store.ListFilter{})
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "done", convs[0].FinalState)

	purchases, err := journal.ListPurchases(ctx, store.ListFilter{})
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, "AAA", purchases[0].ContractAddress)
}

func TestPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.txt")
	require.NoError(t, os.WriteFile(path, []byte("OLD\n"), 0644))

	cfg := Config{SaveBoughtCoins: true, BlacklistFile: path}
	f := newFixture(t, cfg, nil,
		step{rec: record("1", "OLD", 1000)},
		step{rec: record("2", "NEW", 1000)},
	)
	require.NoError(t, f.mon.LoadPersisted())

	assert.Equal(t, classifier.AlreadyBought, f.mon.Tick(context.Background()).Decision)
	assert.True(t, f.mon.Tick(context.Background()).Purchased)

	require.NoError(t, f.mon.Shutdown())
	got, err := ledger.LoadBlacklist(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"NEW", "OLD"}, got)
}

func TestPersistenceDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.txt")
	f := newFixture(t, Config{BlacklistFile: path}, nil)

	require.NoError(t, f.mon.LoadPersisted())
	require.NoError(t, f.mon.Shutdown())
	_, err := os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRun_StopsOnCancel(t *testing.T) {
	f := newFixture(t, Config{PollInterval: time.Millisecond}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	require.NoError(t, f.mon.Run(ctx))
	assert.Greater(t, f.feed.calls, 1)
}
