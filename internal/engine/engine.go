// Package engine owns the single simulated position: opening it from a signal, moving
// it on every simulation tick and closing it by rule or by operator command.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/chat"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/journal"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/logger"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/models"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/observability"
)

// PriceModel moves the multiple of an open position.
type PriceModel interface {
	Tick(p *models.Position)
}

type Notifier interface {
	Notify(ctx context.Context, text string, buttons ...[]chat.Button) error
}

// ScanState reports whether scanning is on; position updates render the matching toggle.
type ScanState interface {
	ScanEnabled() bool
}

type Deps struct {
	Price    PriceModel
	Notifier Notifier
	Scan     ScanState
	Journal  journal.Journal
	Metrics  *observability.Metrics
	Log      *logger.Logger
	Now      func() time.Time
}

// Engine is not safe for concurrent use; the app loop is its only caller.
type Engine struct {
	mode  string
	rules Rules
	exit  *ExitEngine

	price    PriceModel
	notifier Notifier
	scan     ScanState
	journal  journal.Journal
	metrics  *observability.Metrics
	log      *logger.Logger
	now      func() time.Time

	pos *models.Position
}

func New(mode string, rules Rules, deps Deps) *Engine {
	if deps.Journal == nil {
		deps.Journal = journal.Nop{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = logger.Discard()
	}
	return &Engine{
		mode:     mode,
		rules:    rules,
		exit:     NewExitEngine(rules),
		price:    deps.Price,
		notifier: deps.Notifier,
		scan:     deps.Scan,
		journal:  deps.Journal,
		metrics:  deps.Metrics,
		log:      deps.Log,
		now:      deps.Now,
	}
}

func (e *Engine) Rules() Rules {
	return e.rules
}

func (e *Engine) HasPosition() bool {
	return e.pos != nil
}

// Current returns a copy of the open position.
func (e *Engine) Current() (models.Position, bool) {
	if e.pos == nil {
		return models.Position{}, false
	}
	return *e.pos, true
}

func (e *Engine) Open(ctx context.Context, sig models.Signal) (models.Position, error) {
	if e.pos != nil {
		return models.Position{}, ErrPositionExists
	}

	now := e.now()
	e.pos = &models.Position{
		ID:           newPositionID(),
		PairID:       sig.PairID,
		BaseSymbol:   sig.BaseSymbol,
		QuoteSymbol:  sig.QuoteSymbol,
		URL:          sig.URL,
		EntryAt:      now,
		Spent:        e.rules.BuyAmount,
		Multiple:     1.0,
		ATHMultiple:  1.0,
		SoldPct:      0,
		RemainingPct: 100,
	}

	e.logEntry().WithFields(map[string]interface{}{
		"pair":  sig.PairID,
		"spent": formatFloatPlain(e.rules.BuyAmount),
	}).Info("Позиция открыта.")

	e.metrics.RecordOpen()
	e.record(ctx, journal.EventOpen, "", now)

	return *e.pos, nil
}

// Close clears the slot. The bool is false when there was nothing to close.
func (e *Engine) Close(ctx context.Context, reason models.CloseReason) (string, bool) {
	if e.pos == nil {
		return "No open position.", false
	}

	p := *e.pos
	out := CalcExpectedOut(p, e.rules.FeeRate)

	e.record(ctx, journal.EventClose, string(reason), e.now())
	e.pos = nil
	e.metrics.RecordClose(string(reason))

	e.log.WithPosition(p.ID).WithFields(map[string]interface{}{
		"component": "engine",
		"pair":      p.PairID,
		"reason":    reason,
		"multiple":  formatFloatPlain(p.Multiple),
		"ath":       formatFloatPlain(p.ATHMultiple),
		"out":       formatFloatPlain(out),
	}).Info("Позиция закрыта.")

	return formatCloseSummary(p, reason, out), true
}

// SellTP1 is the manual first take-profit. The guards are re-checked on every call.
func (e *Engine) SellTP1(ctx context.Context) (models.Position, error) {
	if e.pos == nil {
		return models.Position{}, ErrNoPosition
	}
	if e.pos.TP1Done {
		return *e.pos, ErrTP1AlreadyDone
	}
	if e.pos.Multiple < e.rules.TP1Multiplier {
		return *e.pos, ErrTP1NotReached
	}

	ApplyTP1(e.pos, e.rules)
	e.metrics.RecordTP1("manual")
	e.record(ctx, journal.EventTP1, "manual", e.now())
	e.logEntry().WithField("multiple", formatFloatPlain(e.pos.Multiple)).Info("Ручной TP1 выполнен.")

	return *e.pos, nil
}

// Describe is the read-only view used by /status and periodic updates.
func (e *Engine) Describe(now time.Time) (Snapshot, bool) {
	if e.pos == nil {
		return Snapshot{}, false
	}
	p := *e.pos
	return Snapshot{
		Mode:        e.mode,
		Position:    p,
		ExpectedOut: CalcExpectedOut(p, e.rules.FeeRate),
		PnLPct:      p.PnLPct(),
		Elapsed:     p.Elapsed(now),
		Rules:       e.rules,
	}, true
}

// Tick advances the simulation and applies the exit rules once.
func (e *Engine) Tick(ctx context.Context) {
	if e.pos == nil {
		return
	}

	e.price.Tick(e.pos)
	e.metrics.RecordTick(e.pos.Multiple)

	now := e.now()
	d := e.exit.Evaluate(e.pos, now)

	switch d.Action {
	case ActionTP1:
		e.metrics.RecordTP1("auto")
		e.record(ctx, journal.EventTP1, "auto", now)
		e.logEntry().WithField("multiple", formatFloatPlain(e.pos.Multiple)).Info("TP1 достигнут.")
		e.notify(ctx, e.tp1Notice(*e.pos))
	case ActionClose:
		e.notify(ctx, e.closeNotice(*e.pos, d.Reason))
		e.Close(ctx, d.Reason)
	default:
		if d.Suppressed {
			e.logEntry().WithField("expected_out", formatFloatPlain(d.ExpectedOut)).Debug("Ожидаемая выплата ниже минимума, продажа пропущена.")
		}
	}
}

// PushUpdate sends the position snapshot with the manual action buttons.
func (e *Engine) PushUpdate(ctx context.Context) {
	snap, ok := e.Describe(e.now())
	if !ok {
		return
	}
	e.notify(ctx, FormatSnapshot(snap), PositionButtons(snap.Position, snap.Rules, e.scanEnabled())...)
}

func (e *Engine) scanEnabled() bool {
	if e.scan == nil {
		return false
	}
	return e.scan.ScanEnabled()
}

func (e *Engine) notify(ctx context.Context, text string, buttons ...[]chat.Button) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, text, buttons...); err != nil {
		e.metrics.RecordTransportError("send")
		e.logEntry().WithError(err).Warn("Не удалось отправить уведомление.")
	}
}

func (e *Engine) record(ctx context.Context, event journal.Event, reason string, at time.Time) {
	if e.pos == nil {
		return
	}
	entry := journal.NewEntry(event, *e.pos, reason, CalcExpectedOut(*e.pos, e.rules.FeeRate), at)
	if err := e.journal.Record(ctx, entry); err != nil {
		e.logEntry().WithError(err).Warn(fmt.Sprintf("Не удалось записать событие %s в журнал.", event))
	}
}

func newPositionID() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	if len(raw) > 12 {
		return raw[:12]
	}
	return raw
}
