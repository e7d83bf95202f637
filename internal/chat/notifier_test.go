package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedDest struct {
	id    int64
	bound bool
}

func (d fixedDest) ChatID() (int64, bool) { return d.id, d.bound }

func TestNotifier_NoopWithoutBoundChat(t *testing.T) {
	rec := &Recorder{}
	n := NewNotifier(rec, fixedDest{}, time.Second)

	require.NoError(t, n.Notify(context.Background(), "hello"))
	assert.Empty(t, rec.Sent)
}

func TestNotifier_SendsToBoundChat(t *testing.T) {
	rec := &Recorder{}
	n := NewNotifier(rec, fixedDest{id: 7, bound: true}, time.Second)

	require.NoError(t, n.Notify(context.Background(), "hello", Row(Button{Text: "A", Data: "a"})))
	msg, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, int64(7), msg.ChatID)
	assert.Equal(t, "hello", msg.Text)
	assert.Equal(t, "a", msg.Buttons[0][0].Data)
}

func TestNotifier_PropagatesTransportError(t *testing.T) {
	rec := &Recorder{SendErr: errors.New("boom")}
	n := NewNotifier(rec, fixedDest{id: 7, bound: true}, time.Second)

	err := n.Notify(context.Background(), "hello")
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "send", terr.Op)
}
