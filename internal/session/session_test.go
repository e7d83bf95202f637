package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSession_BindAndToggle(t *testing.T) {
	s := New("TEST", true)

	_, bound := s.ChatID()
	assert.False(t, bound)

	s.Bind(42)
	id, bound := s.ChatID()
	assert.True(t, bound)
	assert.Equal(t, int64(42), id)

	assert.Equal(t, "ON", s.ScanLabel())
	s.SetScanEnabled(false)
	assert.False(t, s.ScanEnabled())
	assert.Equal(t, "OFF", s.ScanLabel())
	assert.Equal(t, "TEST", s.Mode())
}
