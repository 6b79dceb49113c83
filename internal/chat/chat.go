// Package chat defines the messaging capability the trade conversation runs
// over, and a Telegram user-client implementation of it.
package chat

import (
	"context"
)

// Channel is a conversation transport with a remote bot. Targets are bot
// usernames; message IDs are scoped to the conversation with the target.
type Channel interface {
	// Send posts text to target and returns the new message ID.
	Send(ctx context.Context, target, text string) (int, error)
	// Reply posts text to target as a reply to replyTo.
	Reply(ctx context.Context, target, text string, replyTo int) (int, error)
	// LatestMessages returns up to limit messages, newest first.
	LatestMessages(ctx context.Context, target string, limit int) ([]Message, error)
	// InvokeButton presses the inline button carrying callback on messageID.
	InvokeButton(ctx context.Context, target string, messageID int, callback []byte) (string, error)
}

// Message is a single message of a conversation.
type Message struct {
	ID       int
	Text     string
	SenderID int64
	FromBot  bool
	Outgoing bool
	Buttons  [][]Button // rows of inline buttons
}

// Button is an inline keyboard button.
type Button struct {
	Label    string
	Callback []byte
}

// FindButton scans the inline keyboard row by row, column by column, and
// returns the first button whose label equals label exactly.
func (m Message) FindButton(label string) (Button, bool) {
	for _, row := range m.Buttons {
		for _, b := range row {
			if b.Label == label {
				return b, true
			}
		}
	}
	return Button{}, false
}
