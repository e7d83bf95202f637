package chat

import (
	"context"
	"time"
)

// Destination resolves the bound operator chat.
type Destination interface {
	ChatID() (int64, bool)
}

// Notifier sends to whatever chat is currently bound. Without a bound chat it is a no-op.
type Notifier struct {
	transport Transport
	dest      Destination
	timeout   time.Duration
}

func NewNotifier(transport Transport, dest Destination, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{transport: transport, dest: dest, timeout: timeout}
}

func (n *Notifier) Notify(ctx context.Context, text string, buttons ...[]Button) error {
	chatID, ok := n.dest.ChatID()
	if !ok {
		return nil
	}
	return n.SendTo(ctx, chatID, text, buttons...)
}

func (n *Notifier) SendTo(ctx context.Context, chatID int64, text string, buttons ...[]Button) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	return n.transport.Send(ctx, Message{ChatID: chatID, Text: text, Buttons: buttons})
}

func (n *Notifier) Ack(ctx context.Context, callbackID string) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	return n.transport.AnswerCallback(ctx, callbackID)
}
