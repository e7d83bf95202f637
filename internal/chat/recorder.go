package chat

import (
	"context"
	"strings"
)

// Recorder is an in-memory Transport for tests.
type Recorder struct {
	Sent    []Message
	Acked   []string
	SendErr error
}

func (r *Recorder) Send(_ context.Context, msg Message) error {
	if r.SendErr != nil {
		return &TransportError{Op: "send", Err: r.SendErr}
	}
	r.Sent = append(r.Sent, msg)
	return nil
}

func (r *Recorder) AnswerCallback(_ context.Context, callbackID string) error {
	r.Acked = append(r.Acked, callbackID)
	return nil
}

func (r *Recorder) Last() (Message, bool) {
	if len(r.Sent) == 0 {
		return Message{}, false
	}
	return r.Sent[len(r.Sent)-1], true
}

// Contains reports whether any sent message text contains substr.
func (r *Recorder) Contains(substr string) bool {
	for _, m := range r.Sent {
		if strings.Contains(m.Text, substr) {
			return true
		}
	}
	return false
}

func (r *Recorder) Reset() {
	r.Sent = nil
	r.Acked = nil
}
