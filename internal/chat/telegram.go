package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apperrors "whale-copytrader/internal/errors"
	"whale-copytrader/internal/logging"
)

// TelegramConfig holds the settings of the Telegram user client.
type TelegramConfig struct {
	AppID             int
	AppHash           string
	SessionPath       string
	RequestsPerSecond float64
}

// TelegramClient implements Channel over an authorized Telegram user session.
// Sessions are created out of band; an unauthorized session is a startup error.
type TelegramClient struct {
	logger  zerolog.Logger
	limiter *rate.Limiter

	api    *tg.Client
	sender *message.Sender

	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	peers map[string]tg.InputPeerClass
}

var _ Channel = (*TelegramClient)(nil)

// ConnectTelegram starts the user client and blocks until it is connected
// and authorized. The connection lives until Close is called or ctx ends.
func ConnectTelegram(ctx context.Context, cfg TelegramConfig, logger zerolog.Logger) (*TelegramClient, error) {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	client := telegram.NewClient(cfg.AppID, cfg.AppHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: cfg.SessionPath},
		NoUpdates:      true,
	})

	runCtx, cancel := context.WithCancel(ctx)
	c := &TelegramClient{
		logger:  logging.WithComponent(logger, "telegram"),
		limiter: rate.NewLimiter(limit, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
		peers:   make(map[string]tg.InputPeerClass),
	}

	ready := make(chan error, 1)
	go func() {
		defer close(c.done)
		err := client.Run(runCtx, func(ctx context.Context) error {
			status, err := client.Auth().Status(ctx)
			if err != nil {
				return fmt.Errorf("checking auth status: %w", err)
			}
			if !status.Authorized {
				return fmt.Errorf("session %s: %w", cfg.SessionPath, apperrors.ErrNotAuthenticated)
			}
			c.api = client.API()
			c.sender = message.NewSender(c.api)
			ready <- nil
			<-ctx.Done()
			return nil
		})
		select {
		case ready <- err:
		default:
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Error().Err(err).Msg("Telegram client stopped")
		}
	}()

	select {
	case err := <-ready:
		if err == nil && c.api == nil {
			err = errors.New("telegram client exited before authorization")
		}
		if err != nil {
			cancel()
			<-c.done
			return nil, err
		}
	case <-ctx.Done():
		cancel()
		<-c.done
		return nil, ctx.Err()
	}

	c.logger.Info().Str("session", cfg.SessionPath).Msg("Telegram client connected")
	return c, nil
}

// Close disconnects the client.
func (c *TelegramClient) Close() error {
	c.cancel()
	<-c.done
	return nil
}

func (c *TelegramClient) wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

func (c *TelegramClient) peer(ctx context.Context, target string) (tg.InputPeerClass, error) {
	c.mu.Lock()
	p, ok := c.peers[target]
	c.mu.Unlock()
	if ok {
		return p, nil
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	p, err := c.sender.Resolve(target).AsInputPeer(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", target, err)
	}

	c.mu.Lock()
	c.peers[target] = p
	c.mu.Unlock()
	return p, nil
}

// Send implements Channel.
func (c *TelegramClient) Send(ctx context.Context, target, text string) (int, error) {
	p, err := c.peer(ctx, target)
	if err != nil {
		return 0, err
	}
	if err := c.wait(ctx); err != nil {
		return 0, err
	}

	start := time.Now()
	upd, err := c.sender.To(p).Text(ctx, text)
	logging.LogAPICall(c.logger, "messages.sendMessage", target, time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("sending message to %s: %w", target, err)
	}
	return sentMessageID(upd)
}

// Reply implements Channel.
func (c *TelegramClient) Reply(ctx context.Context, target, text string, replyTo int) (int, error) {
	p, err := c.peer(ctx, target)
	if err != nil {
		return 0, err
	}
	if err := c.wait(ctx); err != nil {
		return 0, err
	}

	start := time.Now()
	upd, err := c.sender.To(p).Reply(replyTo).Text(ctx, text)
	logging.LogAPICall(c.logger, "messages.sendMessage", target, time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("replying to %s message %d: %w", target, replyTo, err)
	}
	return sentMessageID(upd)
}

// LatestMessages implements Channel.
func (c *TelegramClient) LatestMessages(ctx context.Context, target string, limit int) ([]Message, error) {
	p, err := c.peer(ctx, target)
	if err != nil {
		return nil, err
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := c.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:  p,
		Limit: limit,
	})
	logging.LogAPICall(c.logger, "messages.getHistory", target, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("fetching history of %s: %w", target, err)
	}

	history, ok := res.AsModified()
	if !ok {
		return nil, nil
	}

	users := make(map[int64]*tg.User)
	for _, u := range history.GetUsers() {
		if user, ok := u.(*tg.User); ok {
			users[user.ID] = user
		}
	}

	var out []Message
	for _, m := range history.GetMessages() {
		msg, ok := m.(*tg.Message)
		if !ok {
			// service messages carry no text or buttons
			continue
		}
		out = append(out, convertMessage(msg, users))
	}
	return out, nil
}

// InvokeButton implements Channel.
func (c *TelegramClient) InvokeButton(ctx context.Context, target string, messageID int, callback []byte) (string, error) {
	p, err := c.peer(ctx, target)
	if err != nil {
		return "", err
	}
	if err := c.wait(ctx); err != nil {
		return "", err
	}

	start := time.Now()
	answer, err := c.api.MessagesGetBotCallbackAnswer(ctx, &tg.MessagesGetBotCallbackAnswerRequest{
		Peer:  p,
		MsgID: messageID,
		Data:  callback,
	})
	logging.LogAPICall(c.logger, "messages.getBotCallbackAnswer", target, time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("pressing button on %s message %d: %w", target, messageID, err)
	}
	return answer.Message, nil
}

func convertMessage(msg *tg.Message, users map[int64]*tg.User) Message {
	out := Message{
		ID:       msg.ID,
		Text:     msg.Message,
		Outgoing: msg.Out,
	}

	if from, ok := msg.GetFromID(); ok {
		if u, ok := from.(*tg.PeerUser); ok {
			out.SenderID = u.UserID
		}
	} else if !msg.Out {
		// In a private chat the peer is the sender of incoming messages
		if u, ok := msg.PeerID.(*tg.PeerUser); ok {
			out.SenderID = u.UserID
		}
	}
	if u, ok := users[out.SenderID]; ok {
		out.FromBot = u.Bot
	}

	if markup, ok := msg.ReplyMarkup.(*tg.ReplyInlineMarkup); ok {
		for _, row := range markup.Rows {
			buttons := make([]Button, 0, len(row.Buttons))
			for _, b := range row.Buttons {
				btn := Button{Label: b.GetText()}
				if cb, ok := b.(*tg.KeyboardButtonCallback); ok {
					btn.Callback = cb.Data
				}
				buttons = append(buttons, btn)
			}
			out.Buttons = append(out.Buttons, buttons)
		}
	}
	return out
}

func sentMessageID(upd tg.UpdatesClass) (int, error) {
	switch u := upd.(type) {
	case *tg.UpdateShortSentMessage:
		return u.ID, nil
	case *tg.Updates:
		for _, update := range u.Updates {
			switch v := update.(type) {
			case *tg.UpdateMessageID:
				return v.ID, nil
			case *tg.UpdateNewMessage:
				if m, ok := v.Message.(*tg.Message); ok {
					return m.ID, nil
				}
			}
		}
	}
	return 0, fmt.Errorf("no message id in %T", upd)
}
