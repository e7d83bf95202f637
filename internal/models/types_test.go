package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPosition_SetSoldKeepsSum(t *testing.T) {
	p := Position{}
	for _, pct := range []float64{0, 80, 100, 150, -5} {
		p.SetSold(pct)
		assert.Equal(t, 100.0, p.SoldPct+p.RemainingPct)
		assert.GreaterOrEqual(t, p.SoldPct, 0.0)
		assert.LessOrEqual(t, p.SoldPct, 100.0)
	}
}

func TestNewSignal_DefaultsSymbols(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := PairCandidate{ID: "pair-1", CreatedAt: now.Add(-90 * time.Second)}

	sig := NewSignal(c, now)
	assert.Equal(t, "TOKEN", sig.BaseSymbol)
	assert.Equal(t, "SOL", sig.QuoteSymbol)
	assert.InDelta(t, 1.5, sig.AgeMinutes, 1e-9)
	assert.Equal(t, now, sig.SignaledAt)
}

func TestFormatCompact(t *testing.T) {
	assert.Equal(t, "1.25M", FormatCompact(1_250_000))
	assert.Equal(t, "30.0k", FormatCompact(30_000))
	assert.Equal(t, "950", FormatCompact(950))
}
