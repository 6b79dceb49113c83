// Package executor drives the purchase conversation with a trading bot.
//
// A conversation is a fixed sequence of send, wait and click steps. The
// first failing step halts it in Failed; completed steps are never undone.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"whale-copytrader/internal/chat"
	apperrors "whale-copytrader/internal/errors"
	"whale-copytrader/internal/logging"
	"whale-copytrader/internal/models"
	"whale-copytrader/pkg/utils"
)

// Config holds the conversation timing and identity settings.
type Config struct {
	Bot            string
	ReferralCode   string
	WaitAttempts   int
	WaitInterval   time.Duration
	SettleDelay    time.Duration // after the amount, before the profit menu
	LimitStepDelay time.Duration // between limit order sub-steps
}

// DefaultConfig returns the timings the bots are known to keep up with.
func DefaultConfig() Config {
	return Config{
		Bot:            chat.Bots[0],
		ReferralCode:   "ibayi",
		WaitAttempts:   5,
		WaitInterval:   time.Second,
		SettleDelay:    7 * time.Second,
		LimitStepDelay: 2 * time.Second,
	}
}

// Transition records one state change.
type Transition struct {
	From State
	To   State
	Step string
	At   time.Time
}

// Result describes a finished conversation.
type Result struct {
	ConversationID string
	Bot            string
	Request        models.TradeRequest
	FinalState     State // Done or Failed
	LastState      State // last state reached before the terminal one
	FailedStep     string
	Transitions    []Transition
	StartedAt      time.Time
	FinishedAt     time.Time
	Err            error
}

// Succeeded reports whether the purchase went through.
func (r *Result) Succeeded() bool {
	return r.FinalState == Done
}

// LimitPlaced reports whether the take-profit order was confirmed.
func (r *Result) LimitPlaced() bool {
	return r.Succeeded() && r.LastState == LimitPlaced
}

// Duration is the wall time of the conversation.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Executor runs purchase conversations over a chat channel. It runs one
// conversation at a time and never touches the position ledger.
type Executor struct {
	channel chat.Channel
	cfg     Config
	logger  zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// New creates an executor.
func New(channel chat.Channel, cfg Config, logger zerolog.Logger) *Executor {
	if cfg.WaitAttempts < 1 {
		cfg.WaitAttempts = 1
	}
	return &Executor{
		channel: channel,
		cfg:     cfg,
		logger:  logging.WithBot(logging.WithComponent(logger, "executor"), cfg.Bot),
		sleep:   utils.Sleep,
		now:     time.Now,
	}
}

// Bot returns the username of the driven bot.
func (e *Executor) Bot() string {
	return e.cfg.Bot
}

// conversation is the mutable state of one Execute call.
type conversation struct {
	result  *Result
	state   State
	replyTo int // message found by the last wait
	logger  zerolog.Logger
}

func (c *conversation) move(to State, stepName string, at time.Time) {
	c.result.Transitions = append(c.result.Transitions, Transition{From: c.state, To: to, Step: stepName, At: at})
	c.state = to
}

// Execute performs the purchase described by req. The returned Result is
// never nil; the error is non-nil exactly when the conversation failed.
// An invalid request fails at Idle without any message being sent.
func (e *Executor) Execute(ctx context.Context, req models.TradeRequest) (*Result, error) {
	res := &Result{
		ConversationID: uuid.NewString(),
		Bot:            e.cfg.Bot,
		Request:        req,
		StartedAt:      e.now(),
	}
	conv := &conversation{
		result: res,
		state:  Idle,
		logger: logging.WithContract(e.logger, req.ContractAddress).With().
			Str("conversation_id", res.ConversationID).Logger(),
	}

	if err := req.Validate(); err != nil {
		return e.fail(conv, "validate", fmt.Errorf("%w: %w", apperrors.ErrInvalidRequest, err))
	}

	conv.logger.Info().
		Str("sol_amount", req.SOLAmount.String()).
		Bool("limit_order", req.Limit.Enabled).
		Msg("Starting purchase conversation")

	for _, s := range e.plan(req) {
		if s.pause > 0 {
			if err := e.sleep(ctx, s.pause); err != nil {
				return e.fail(conv, s.name, e.stepError(s, conv, "interrupted", err))
			}
		}

		start := e.now()
		err := e.run(ctx, conv, s)
		logging.LogStep(conv.logger, s.name, conv.state.String(), e.now().Sub(start), err)
		if err != nil {
			return e.fail(conv, s.name, err)
		}
		conv.move(s.next, s.name, e.now())
	}

	res.LastState = conv.state
	conv.move(Done, "done", e.now())
	res.FinalState = Done
	res.FinishedAt = e.now()

	conv.logger.Info().
		Stringer("last_state", res.LastState).
		Dur("duration", res.Duration()).
		Msg("Purchase conversation completed")
	return res, nil
}

func (e *Executor) fail(conv *conversation, stepName string, err error) (*Result, error) {
	res := conv.result
	res.LastState = conv.state
	res.FailedStep = stepName
	res.Err = err
	conv.move(Failed, stepName, e.now())
	res.FinalState = Failed
	res.FinishedAt = e.now()

	conv.logger.Error().
		Err(err).
		Str("step", stepName).
		Stringer("state", res.LastState).
		Msg("Purchase conversation failed")
	return res, err
}

func (e *Executor) run(ctx context.Context, conv *conversation, s step) error {
	switch s.kind {
	case kindSend:
		if _, err := e.channel.Send(ctx, e.cfg.Bot, s.text); err != nil {
			return e.stepError(s, conv, "send failed", err)
		}
	case kindReply:
		if _, err := e.channel.Reply(ctx, e.cfg.Bot, s.text, conv.replyTo); err != nil {
			return e.stepError(s, conv, "reply failed", err)
		}
	case kindWait:
		id, err := e.await(ctx, conv, s.want)
		if err != nil {
			return e.stepError(s, conv, fmt.Sprintf("no message containing %q", s.want), err)
		}
		conv.replyTo = id
	case kindClick:
		if err := e.click(ctx, s.want); err != nil {
			return e.stepError(s, conv, fmt.Sprintf("pressing %q", s.want), err)
		}
	default:
		return e.stepError(s, conv, "unknown step kind", nil)
	}
	return nil
}

func (e *Executor) stepError(s step, conv *conversation, reason string, err error) error {
	return apperrors.NewStepError(s.name, conv.state.String(), e.cfg.Bot, reason, err)
}

// latest returns the newest message of the conversation.
func (e *Executor) latest(ctx context.Context) (chat.Message, bool, error) {
	msgs, err := e.channel.LatestMessages(ctx, e.cfg.Bot, 1)
	if err != nil {
		return chat.Message{}, false, err
	}
	if len(msgs) == 0 {
		return chat.Message{}, false, nil
	}
	return msgs[0], true, nil
}

// await polls the newest message until one from the bot contains want and
// returns its ID. A failed fetch counts as a failed attempt.
func (e *Executor) await(ctx context.Context, conv *conversation, want string) (int, error) {
	cfg := utils.FixedRetryConfig(e.cfg.WaitAttempts, e.cfg.WaitInterval)
	attempt := 0

	id, err := utils.RetryWithResult(ctx, cfg, func() (int, error) {
		attempt++
		msg, ok, err := e.latest(ctx)
		if err != nil {
			conv.logger.Debug().Err(err).Int("attempt", attempt).Msg("Fetching latest message failed")
			return 0, err
		}
		if !ok || msg.Outgoing || !msg.FromBot || !strings.Contains(msg.Text, want) {
			return 0, apperrors.ErrNoResponse
		}
		return msg.ID, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		if errors.Is(err, apperrors.ErrNoResponse) {
			return 0, fmt.Errorf("%w after %d attempts", apperrors.ErrNoResponse, attempt)
		}
		return 0, fmt.Errorf("%w after %d attempts: %w", apperrors.ErrNoResponse, attempt, err)
	}
	return id, nil
}

// click presses the first button of the newest message labelled exactly
// label. A missing button is not retried.
func (e *Executor) click(ctx context.Context, label string) error {
	msg, ok, err := e.latest(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrNoMatch
	}
	btn, found := msg.FindButton(label)
	if !found {
		return apperrors.ErrNoMatch
	}
	_, err = e.channel.InvokeButton(ctx, e.cfg.Bot, msg.ID, btn.Callback)
	return err
}
