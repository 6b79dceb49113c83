// Package chattest provides an in-memory scripted bot implementing
// chat.Channel for tests.
package chattest

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"whale-copytrader/internal/chat"
)

// BotUserID is the sender ID used for scripted bot messages.
const BotUserID int64 = 777

// Rule answers one outgoing action with bot messages. Exactly one trigger
// field should be set.
type Rule struct {
	OnText    string // outgoing text has this prefix
	OnReplyTo string // outgoing reply targets a message containing this
	OnButton  string // button with this label was pressed

	Respond     []chat.Message
	RespondFunc func(text string) []chat.Message
}

func (r Rule) trigger() string {
	switch {
	case r.OnText != "":
		return r.OnText
	case r.OnReplyTo != "":
		return r.OnReplyTo
	default:
		return r.OnButton
	}
}

// Call records one Channel invocation.
type Call struct {
	Method    string
	Target    string
	Text      string
	ReplyTo   int
	MessageID int
	Label     string
}

// Bot is a scripted conversation partner.
type Bot struct {
	mu      sync.Mutex
	rules   []Rule
	history []chat.Message // oldest first
	nextID  int
	calls   []Call

	// SendErr, when set, fails every Send and Reply.
	SendErr error
	// InvokeErr, when set, fails every InvokeButton.
	InvokeErr error
	// HistoryErr, when set, fails every LatestMessages.
	HistoryErr error
}

var _ chat.Channel = (*Bot)(nil)

// NewBot returns a bot answering with rules.
func NewBot(rules ...Rule) *Bot {
	return &Bot{rules: rules, nextID: 100}
}

// Silence removes every rule with the given trigger.
func (b *Bot) Silence(trigger string) *Bot {
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.rules[:0]
	for _, r := range b.rules {
		if r.trigger() != trigger {
			kept = append(kept, r)
		}
	}
	b.rules = kept
	return b
}

// Post appends a bot message to the conversation.
func (b *Bot) Post(msgs ...chat.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.post(msgs)
}

// Calls returns the recorded calls in order.
func (b *Bot) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// CallsOf returns the recorded calls of one method.
func (b *Bot) CallsOf(method string) []Call {
	var out []Call
	for _, c := range b.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (b *Bot) post(msgs []chat.Message) {
	for _, m := range msgs {
		b.nextID++
		m.ID = b.nextID
		m.SenderID = BotUserID
		m.FromBot = true
		b.history = append(b.history, m)
	}
}

func (b *Bot) respond(rule Rule, text string) {
	b.post(rule.Respond)
	if rule.RespondFunc != nil {
		b.post(rule.RespondFunc(text))
	}
}

func (b *Bot) find(id int) (chat.Message, bool) {
	for _, m := range b.history {
		if m.ID == id {
			return m, true
		}
	}
	return chat.Message{}, false
}

func (b *Bot) outgoing(text string) int {
	b.nextID++
	b.history = append(b.history, chat.Message{ID: b.nextID, Text: text, Outgoing: true})
	return b.nextID
}

// Send implements chat.Channel.
func (b *Bot) Send(ctx context.Context, target, text string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, Call{Method: "Send", Target: target, Text: text})
	if b.SendErr != nil {
		return 0, b.SendErr
	}

	id := b.outgoing(text)
	for _, r := range b.rules {
		if r.OnText != "" && strings.HasPrefix(text, r.OnText) {
			b.respond(r, text)
		}
	}
	return id, nil
}

// Reply implements chat.Channel.
func (b *Bot) Reply(ctx context.Context, target, text string, replyTo int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, Call{Method: "Reply", Target: target, Text: text, ReplyTo: replyTo})
	if b.SendErr != nil {
		return 0, b.SendErr
	}

	parent, _ := b.find(replyTo)
	id := b.outgoing(text)
	for _, r := range b.rules {
		switch {
		case r.OnText != "" && strings.HasPrefix(text, r.OnText):
			b.respond(r, text)
		case r.OnReplyTo != "" && strings.Contains(parent.Text, r.OnReplyTo):
			b.respond(r, text)
		}
	}
	return id, nil
}

// LatestMessages implements chat.Channel.
func (b *Bot) LatestMessages(ctx context.Context, target string, limit int) ([]chat.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, Call{Method: "LatestMessages", Target: target})
	if b.HistoryErr != nil {
		return nil, b.HistoryErr
	}

	var out []chat.Message
	for i := len(b.history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, b.history[i])
	}
	return out, nil
}

// InvokeButton implements chat.Channel.
func (b *Bot) InvokeButton(ctx context.Context, target string, messageID int, callback []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	msg, ok := b.find(messageID)
	if !ok {
		b.calls = append(b.calls, Call{Method: "InvokeButton", Target: target, MessageID: messageID})
		return "", fmt.Errorf("message %d not found", messageID)
	}
	var label string
	for _, row := range msg.Buttons {
		for _, btn := range row {
			if bytes.Equal(btn.Callback, callback) {
				label = btn.Label
			}
		}
	}
	b.calls = append(b.calls, Call{Method: "InvokeButton", Target: target, MessageID: messageID, Label: label})
	if b.InvokeErr != nil {
		return "", b.InvokeErr
	}
	if label == "" {
		return "", fmt.Errorf("no button with callback %q on message %d", callback, messageID)
	}

	for _, r := range b.rules {
		if r.OnButton == label {
			b.respond(r, label)
		}
	}
	return "", nil
}

// Buttons builds an inline keyboard whose callbacks derive from the labels.
func Buttons(rows ...[]string) [][]chat.Button {
	out := make([][]chat.Button, 0, len(rows))
	for _, row := range rows {
		buttons := make([]chat.Button, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, chat.Button{Label: label, Callback: []byte("cb:" + label)})
		}
		out = append(out, buttons)
	}
	return out
}
