// Package chat defines the operator channel: outgoing messages with inline buttons and
// incoming commands or button presses.
package chat

import (
	"context"
	"fmt"
)

type Button struct {
	Text string
	Data string
}

type Message struct {
	ChatID  int64
	Text    string
	Buttons [][]Button
}

// Update is either a text command or a button press.
type Update struct {
	ID           int
	ChatID       int64
	Text         string
	CallbackID   string
	CallbackData string
}

func (u Update) IsCallback() bool {
	return u.CallbackID != ""
}

type Transport interface {
	Send(ctx context.Context, msg Message) error
	AnswerCallback(ctx context.Context, callbackID string) error
}

// TransportError wraps a failed delivery. It is never fatal and never retried.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("Ошибка доставки (%s): %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func Row(buttons ...Button) []Button {
	return buttons
}

// ScanToggle is the pause/resume button matching the current scan state.
func ScanToggle(scanEnabled bool) Button {
	if scanEnabled {
		return Button{Text: "PAUSE SCAN", Data: "pause"}
	}
	return Button{Text: "RESUME SCAN", Data: "resume"}
}
