package engine

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/config"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/models"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func freshPosition() *models.Position {
	return &models.Position{
		ID:           "p1",
		PairID:       "pair1",
		EntryAt:      t0,
		Spent:        0.08,
		Multiple:     1.0,
		ATHMultiple:  1.0,
		RemainingPct: 100,
	}
}

func afterTP1(multiple, ath float64) *models.Position {
	p := freshPosition()
	p.TP1Done = true
	p.SetSold(80)
	p.Multiple = multiple
	p.ATHMultiple = ath
	return p
}

func TestEvaluate_HoldBelowThresholds(t *testing.T) {
	x := NewExitEngine(DefaultRules())
	p := freshPosition()
	p.Multiple, p.ATHMultiple = 1.2, 1.3

	d := x.Evaluate(p, t0.Add(time.Minute))

	assert.Equal(t, ActionHold, d.Action)
	assert.False(t, p.TrailingActive)
	assert.Zero(t, p.TrailingFloorMultiple)
	assert.InDelta(t, 0.08*1.2*0.994, d.ExpectedOut, 1e-12)
}

func TestEvaluate_TP1(t *testing.T) {
	x := NewExitEngine(DefaultRules())
	p := freshPosition()
	p.Multiple, p.ATHMultiple = 2.0, 2.0

	d := x.Evaluate(p, t0.Add(time.Minute))

	assert.Equal(t, ActionTP1, d.Action)
	assert.True(t, p.TP1Done)
	assert.Equal(t, 80.0, p.SoldPct)
	assert.Equal(t, 20.0, p.RemainingPct)
	assert.True(t, p.TrailingActive)
	assert.InDelta(t, 1.4, p.TrailingFloorMultiple, 1e-12)
}

func TestEvaluate_TP1ThenTP2OnLaterTick(t *testing.T) {
	x := NewExitEngine(DefaultRules())
	p := freshPosition()
	p.Multiple, p.ATHMultiple = 5.0, 5.0

	d := x.Evaluate(p, t0.Add(time.Minute))
	require.Equal(t, ActionTP1, d.Action, "only one action per tick")

	d = x.Evaluate(p, t0.Add(2*time.Minute))
	assert.Equal(t, ActionClose, d.Action)
	assert.Equal(t, models.CloseReasonTP2, d.Reason)
}

func TestEvaluate_TP2(t *testing.T) {
	x := NewExitEngine(DefaultRules())
	p := afterTP1(5.0, 5.0)

	d := x.Evaluate(p, t0.Add(10*time.Minute))

	assert.Equal(t, ActionClose, d.Action)
	assert.Equal(t, models.CloseReasonTP2, d.Reason)
	assert.False(t, d.Suppressed)
}

func TestEvaluate_TrailingStop(t *testing.T) {
	x := NewExitEngine(DefaultRules())
	p := afterTP1(4.0, 4.0)

	d := x.Evaluate(p, t0.Add(5*time.Minute))
	require.Equal(t, ActionHold, d.Action)
	require.InDelta(t, 2.8, p.TrailingFloorMultiple, 1e-12)

	p.Multiple = 2.8
	d = x.Evaluate(p, t0.Add(6*time.Minute))

	assert.Equal(t, ActionClose, d.Action)
	assert.Equal(t, models.CloseReasonTrailingStop, d.Reason)
}

func TestEvaluate_TrailingFloorNeverDrops(t *testing.T) {
	x := NewExitEngine(DefaultRules())
	p := afterTP1(3.5, 4.0)
	p.TrailingActive = true
	p.TrailingFloorMultiple = 3.0

	x.Evaluate(p, t0.Add(time.Minute))

	assert.Equal(t, 3.0, p.TrailingFloorMultiple)
}

func TestEvaluate_Breakeven(t *testing.T) {
	x := NewExitEngine(DefaultRules())
	p := afterTP1(1.0, 1.2)

	d := x.Evaluate(p, t0.Add(5*time.Minute))

	assert.Equal(t, ActionClose, d.Action)
	assert.Equal(t, models.CloseReasonBreakeven, d.Reason)
}

func TestEvaluate_BreakevenNeedsTP1(t *testing.T) {
	x := NewExitEngine(DefaultRules())
	p := freshPosition()

	d := x.Evaluate(p, t0.Add(5*time.Minute))

	assert.Equal(t, ActionHold, d.Action)
}

func TestEvaluate_TimeStop(t *testing.T) {
	x := NewExitEngine(DefaultRules())
	p := freshPosition()

	d := x.Evaluate(p, t0.Add(60*time.Minute))

	assert.Equal(t, ActionClose, d.Action)
	assert.Equal(t, models.CloseReasonTimeStop, d.Reason)
}

func TestEvaluate_TimeStopBeatsTP1(t *testing.T) {
	x := NewExitEngine(DefaultRules())
	p := freshPosition()
	p.Multiple, p.ATHMultiple = 2.0, 2.0

	d := x.Evaluate(p, t0.Add(61*time.Minute))

	assert.Equal(t, models.CloseReasonTimeStop, d.Reason)
	assert.False(t, p.TP1Done)
}

func TestEvaluate_TimeStopDisabled(t *testing.T) {
	rules := DefaultRules()
	rules.TimeStop = 0
	x := NewExitEngine(rules)

	d := x.Evaluate(freshPosition(), t0.Add(24*time.Hour))

	assert.Equal(t, ActionHold, d.Action)
}

func TestEvaluate_PayoutGuardSuppressesLiquidation(t *testing.T) {
	x := NewExitEngine(DefaultRules())
	p := afterTP1(0.5, 2.0)

	d := x.Evaluate(p, t0.Add(61*time.Minute))

	assert.Equal(t, ActionHold, d.Action)
	assert.True(t, d.Suppressed)
	assert.Less(t, d.ExpectedOut, 0.01)
	assert.True(t, p.TrailingActive)
}

func TestEvaluate_PayoutGuardDoesNotBlockTP1(t *testing.T) {
	rules := DefaultRules()
	rules.MinSellOut = 10
	x := NewExitEngine(rules)
	p := freshPosition()
	p.Multiple, p.ATHMultiple = 2.0, 2.0

	d := x.Evaluate(p, t0.Add(time.Minute))

	assert.True(t, d.Suppressed)
	assert.Equal(t, ActionTP1, d.Action)
}

func TestCalcExpectedOut(t *testing.T) {
	p := models.Position{Spent: 0.08, Multiple: 5, RemainingPct: 20}
	assert.InDelta(t, 0.07952, CalcExpectedOut(p, 0.006), 1e-9)

	p.RemainingPct = 100
	p.Multiple = 1
	assert.InDelta(t, 0.08*(1-0.006), CalcExpectedOut(p, 0.006), 1e-12)
}

func TestRulesValidate(t *testing.T) {
	assert.NoError(t, DefaultRules().Validate())

	bad := DefaultRules()
	bad.TP2Multiplier = 2
	assert.Error(t, bad.Validate())

	bad = DefaultRules()
	bad.TP1SellPercent = 0
	assert.Error(t, bad.Validate())

	bad = DefaultRules()
	bad.FeeRate = 1
	assert.Error(t, bad.Validate())
}

func TestRulesFromConfig_AcceptedConfigIsValid(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TIME_STOP_MIN", "45")

	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)

	rules := RulesFromConfig(cfg.Trade)
	require.NoError(t, rules.Validate())
	assert.Equal(t, 45*time.Minute, rules.TimeStop)
	assert.Equal(t, DefaultRules().BreakevenMultiple, rules.BreakevenMultiple)
}
