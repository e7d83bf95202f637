package scanner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/chat"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/dedup"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/filter"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/logger"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/market"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/models"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/session"
)

var now0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type positionFlag bool

func (p *positionFlag) HasPosition() bool { return bool(*p) }

type countingSource struct {
	pairs []models.PairCandidate
	err   error
	calls int
}

func (s *countingSource) FetchPairs(context.Context) ([]models.PairCandidate, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.PairCandidate, len(s.pairs))
	copy(out, s.pairs)
	return out, nil
}

func candidate(id string, volume float64) models.PairCandidate {
	return models.PairCandidate{
		ID:           id,
		ChainID:      "solana",
		BaseSymbol:   "T" + id,
		QuoteSymbol:  "SOL",
		LiquidityUSD: 40_000,
		VolumeM5USD:  volume,
		MarketCapUSD: 150_000,
		CreatedAt:    now0.Add(-5 * time.Minute),
		URL:          "https://dexscreener.com/solana/" + id,
	}
}

func defaultPolicy() filter.Policy {
	return filter.Policy{
		ChainID:         "solana",
		MinLiquidityUSD: 30_000,
		MinVolumeM5USD:  0,
		MaxAgeMinutes:   30,
		MaxMarketCapUSD: 200_000,
	}
}

type fixture struct {
	scanner  *Scanner
	source   *countingSource
	rec      *chat.Recorder
	session  *session.Session
	position *positionFlag
	clock    *time.Time
}

func newFixture(pairs []models.PairCandidate, cooldown time.Duration) *fixture {
	clock := now0
	nowFn := func() time.Time { return clock }

	sess := session.New("TEST", true)
	sess.Bind(42)
	rec := &chat.Recorder{}
	src := &countingSource{pairs: pairs}
	pos := new(positionFlag)

	s := New(Options{Cooldown: cooldown, BuyAmount: 0.08}, Deps{
		Source:    src,
		Policy:    defaultPolicy(),
		Registry:  dedup.New(0, nowFn),
		Positions: pos,
		Session:   sess,
		Notifier:  chat.NewNotifier(rec, sess, time.Second),
		Log:       logger.Discard(),
		Now:       nowFn,
	})
	return &fixture{scanner: s, source: src, rec: rec, session: sess, position: pos, clock: &clock}
}

func (f *fixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func TestScanOnce_PicksHighestVolume(t *testing.T) {
	f := newFixture([]models.PairCandidate{candidate("a", 10), candidate("b", 50), candidate("c", 30)}, 0)

	emitted, err := f.scanner.ScanOnce(context.Background(), false)
	require.NoError(t, err)
	require.True(t, emitted)

	msg, ok := f.rec.Last()
	require.True(t, ok)
	assert.Contains(t, msg.Text, "`b`")
	assert.Equal(t, "buy|b", msg.Buttons[0][0].Data)
	assert.Equal(t, "BUY 0.08 SOL", msg.Buttons[0][0].Text)
	assert.Equal(t, "skip|b", msg.Buttons[1][0].Data)
	assert.Equal(t, "pause", msg.Buttons[2][0].Data)
}

func TestScanOnce_StableOrderForEqualVolume(t *testing.T) {
	f := newFixture([]models.PairCandidate{candidate("first", 20), candidate("second", 20)}, 0)

	_, err := f.scanner.ScanOnce(context.Background(), false)
	require.NoError(t, err)

	assert.True(t, f.rec.Contains("`first`"))
}

func TestScanOnce_NeverRepeatsAPair(t *testing.T) {
	f := newFixture([]models.PairCandidate{candidate("a", 10), candidate("b", 50), candidate("c", 30)}, 0)
	ctx := context.Background()

	var order []string
	for i := 0; i < 5; i++ {
		emitted, err := f.scanner.ScanOnce(ctx, false)
		require.NoError(t, err)
		if emitted {
			msg, _ := f.rec.Last()
			order = append(order, msg.Buttons[0][0].Data)
		}
	}

	assert.Equal(t, []string{"buy|b", "buy|c", "buy|a"}, order)
	assert.Len(t, f.rec.Sent, 3)
}

func TestScanOnce_SilentWhilePositionOpen(t *testing.T) {
	f := newFixture([]models.PairCandidate{candidate("a", 100)}, 0)
	*f.position = true

	emitted, err := f.scanner.ScanOnce(context.Background(), true)

	require.NoError(t, err)
	assert.False(t, emitted)
	assert.Empty(t, f.rec.Sent)
	assert.Zero(t, f.source.calls)
}

func TestScanOnce_RequiresBoundChat(t *testing.T) {
	f := newFixture([]models.PairCandidate{candidate("a", 100)}, 0)
	f.scanner.session = session.New("TEST", true)

	emitted, err := f.scanner.ScanOnce(context.Background(), true)

	require.NoError(t, err)
	assert.False(t, emitted)
	assert.Zero(t, f.source.calls)
}

func TestScanOnce_Disabled(t *testing.T) {
	f := newFixture([]models.PairCandidate{candidate("a", 100)}, 0)
	f.session.SetScanEnabled(false)

	emitted, err := f.scanner.ScanOnce(context.Background(), true)

	require.NoError(t, err)
	assert.False(t, emitted)
	assert.Zero(t, f.source.calls)
}

func TestScanOnce_Cooldown(t *testing.T) {
	f := newFixture([]models.PairCandidate{candidate("a", 100), candidate("b", 50)}, 25*time.Second)
	ctx := context.Background()

	emitted, err := f.scanner.ScanOnce(ctx, false)
	require.NoError(t, err)
	require.True(t, emitted)

	f.advance(10 * time.Second)
	emitted, err = f.scanner.ScanOnce(ctx, true)
	require.NoError(t, err)
	assert.False(t, emitted)
	assert.Equal(t, 1, f.source.calls)
	assert.Len(t, f.rec.Sent, 1, "cooldown is silent")

	f.advance(15 * time.Second)
	emitted, err = f.scanner.ScanOnce(ctx, false)
	require.NoError(t, err)
	assert.True(t, emitted)
	assert.True(t, f.rec.Contains("`b`"))
}

func TestScanOnce_NothingFound(t *testing.T) {
	low := candidate("a", 100)
	low.LiquidityUSD = 29_999
	f := newFixture([]models.PairCandidate{low}, 0)
	ctx := context.Background()

	emitted, err := f.scanner.ScanOnce(ctx, false)
	require.NoError(t, err)
	assert.False(t, emitted)
	assert.Empty(t, f.rec.Sent)

	emitted, err = f.scanner.ScanOnce(ctx, true)
	require.NoError(t, err)
	assert.False(t, emitted)

	msg, ok := f.rec.Last()
	require.True(t, ok)
	assert.Contains(t, msg.Text, "Nothing found")
	assert.Contains(t, msg.Text, "• Liq ≥ $30.0k")
	assert.Contains(t, msg.Text, "• Vol(5m) ≥ $0")
	assert.Contains(t, msg.Text, "• Age ≤ 30 min")
	assert.Contains(t, msg.Text, "• Mcap ≤ $200.0k")
}

func TestScanOnce_FilterBoundaries(t *testing.T) {
	atMin := candidate("edge", 100)
	atMin.LiquidityUSD = 30_000
	noTime := candidate("notime", 500)
	noTime.CreatedAt = time.Time{}
	f := newFixture([]models.PairCandidate{noTime, atMin}, 0)

	emitted, err := f.scanner.ScanOnce(context.Background(), false)
	require.NoError(t, err)
	require.True(t, emitted)
	assert.True(t, f.rec.Contains("`edge`"))
}

func TestScanOnce_SkipsEmptyID(t *testing.T) {
	f := newFixture([]models.PairCandidate{candidate("", 100)}, 0)

	emitted, err := f.scanner.ScanOnce(context.Background(), false)

	require.NoError(t, err)
	assert.False(t, emitted)
}

func TestScanOnce_DataSourceError(t *testing.T) {
	f := newFixture(nil, 0)
	f.source.err = &market.DataSourceError{Source: "dexscreener", Err: errors.New("502")}

	emitted, err := f.scanner.ScanOnce(context.Background(), true)

	assert.False(t, emitted)
	var dsErr *market.DataSourceError
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, "dexscreener", dsErr.Source)
	assert.Empty(t, f.rec.Sent)
}

func TestScanOnce_WrapsForeignErrors(t *testing.T) {
	f := newFixture(nil, 0)
	f.source.err = errors.New("boom")

	_, err := f.scanner.ScanOnce(context.Background(), false)

	var dsErr *market.DataSourceError
	assert.ErrorAs(t, err, &dsErr)
}

func TestScanOnce_TransportFailureKeepsPairRegistered(t *testing.T) {
	f := newFixture([]models.PairCandidate{candidate("a", 100)}, 0)
	f.rec.SendErr = errors.New("telegram down")
	ctx := context.Background()

	emitted, err := f.scanner.ScanOnce(ctx, false)
	require.NoError(t, err)
	assert.True(t, emitted)

	f.rec.SendErr = nil
	emitted, err = f.scanner.ScanOnce(ctx, false)
	require.NoError(t, err)
	assert.False(t, emitted)
}

func TestSignal_Remembered(t *testing.T) {
	f := newFixture([]models.PairCandidate{candidate("a", 100)}, 0)

	_, ok := f.scanner.Signal("a")
	assert.False(t, ok)

	_, err := f.scanner.ScanOnce(context.Background(), false)
	require.NoError(t, err)

	sig, ok := f.scanner.Signal("a")
	require.True(t, ok)
	assert.Equal(t, "Ta", sig.BaseSymbol)
	assert.Equal(t, 40_000.0, sig.LiquidityUSD)
	assert.InDelta(t, 5.0, sig.AgeMinutes, 1e-9)
}

func TestRemember_IsBounded(t *testing.T) {
	f := newFixture(nil, 0)
	for i := 0; i < maxRemembered+10; i++ {
		f.scanner.remember(models.Signal{PairID: fmt.Sprintf("p%d", i)})
	}

	assert.Len(t, f.scanner.signals, maxRemembered)
	_, ok := f.scanner.Signal("p0")
	assert.False(t, ok)
	_, ok = f.scanner.Signal(fmt.Sprintf("p%d", maxRemembered+9))
	assert.True(t, ok)
}

func TestFormatSignal(t *testing.T) {
	sig := models.NewSignal(candidate("pair9", 65_000), now0)
	text := FormatSignal(sig, "TEST")

	assert.Contains(t, text, "*Pair:* Tpair9/SOL")
	assert.Contains(t, text, "*Liquidity:* $40.0k")
	assert.Contains(t, text, "*Volume (5m):* $65.0k")
	assert.Contains(t, text, "*Age:* 5.0 min")
	assert.Contains(t, text, "*Mcap/FDV:* $150.0k")
	assert.Contains(t, text, "Mode: *TEST*")
}
