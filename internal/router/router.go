// Package router maps operator commands and button presses onto the scanner, the
// position engine and the session.
package router

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/chat"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/engine"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/filter"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/logger"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/market"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/models"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/observability"
)

type Scanner interface {
	ScanOnce(ctx context.Context, notifyIfEmpty bool) (bool, error)
	Signal(pairID string) (models.Signal, bool)
	Policy() filter.Policy
}

type Positions interface {
	Open(ctx context.Context, sig models.Signal) (models.Position, error)
	Close(ctx context.Context, reason models.CloseReason) (string, bool)
	SellTP1(ctx context.Context) (models.Position, error)
	Describe(now time.Time) (engine.Snapshot, bool)
	PushUpdate(ctx context.Context)
	Rules() engine.Rules
}

type Session interface {
	Bind(chatID int64)
	Mode() string
	ScanEnabled() bool
	SetScanEnabled(enabled bool)
	ScanLabel() string
}

// Replier answers in the chat the update came from.
type Replier interface {
	SendTo(ctx context.Context, chatID int64, text string, buttons ...[]chat.Button) error
	Ack(ctx context.Context, callbackID string) error
}

type Deps struct {
	Scanner   Scanner
	Positions Positions
	Session   Session
	Replier   Replier
	Metrics   *observability.Metrics
	Log       *logger.Logger
	Now       func() time.Time
}

type Router struct {
	scanner      Scanner
	positions    Positions
	session      Session
	replier      Replier
	metrics      *observability.Metrics
	log          *logger.Logger
	now          func() time.Time
	scanInterval time.Duration
}

func New(scanInterval time.Duration, deps Deps) *Router {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = logger.Discard()
	}
	return &Router{
		scanner:      deps.Scanner,
		positions:    deps.Positions,
		session:      deps.Session,
		replier:      deps.Replier,
		metrics:      deps.Metrics,
		log:          deps.Log,
		now:          deps.Now,
		scanInterval: scanInterval,
	}
}

func (r *Router) logEntry() *logrus.Entry {
	return r.log.WithComponent("router")
}

func (r *Router) Handle(ctx context.Context, u chat.Update) {
	if u.IsCallback() {
		r.HandleCallback(ctx, u.ChatID, u.CallbackID, u.CallbackData)
		return
	}
	if text := strings.TrimSpace(u.Text); text != "" {
		r.HandleText(ctx, u.ChatID, text)
	}
}

func (r *Router) HandleText(ctx context.Context, chatID int64, text string) {
	cmd := command(text)
	r.logEntry().WithFields(map[string]interface{}{
		"chat_id": chatID,
		"command": cmd,
	}).Debug("Команда.")

	switch cmd {
	case "/start":
		r.session.Bind(chatID)
		r.logEntry().WithField("chat_id", chatID).Info("Чат привязан.")
		r.reply(ctx, chatID, startText(r.session.Mode(), r.session.ScanLabel()))
	case "/help":
		r.reply(ctx, chatID, helpText)
	case "/scan":
		r.reply(ctx, chatID, "🔎 Scanning Dexscreener...")
		if _, err := r.scanner.ScanOnce(ctx, true); err != nil {
			r.logEntry().WithError(err).Warn("Ручной скан завершился ошибкой.")
			r.reply(ctx, chatID, "❌ Scan error: "+describeScanError(err))
		}
	case "/pause":
		r.setScan(ctx, chatID, false)
	case "/resume":
		r.setScan(ctx, chatID, true)
	case "/status":
		r.reply(ctx, chatID, r.statusText())
	case "/panic":
		summary, ok := r.positions.Close(ctx, models.CloseReasonPanic)
		if !ok {
			r.reply(ctx, chatID, noPositionText)
			return
		}
		r.reply(ctx, chatID, "🔴 PANIC SELL ("+r.session.Mode()+") → closed position.\n"+summary)
	case "/close":
		summary, ok := r.positions.Close(ctx, models.CloseReasonManual)
		if !ok {
			r.reply(ctx, chatID, noPositionText)
			return
		}
		r.reply(ctx, chatID, "✅ Closed position (manual).\n"+summary)
	}
}

func (r *Router) HandleCallback(ctx context.Context, chatID int64, callbackID, data string) {
	if err := r.replier.Ack(ctx, callbackID); err != nil {
		r.metrics.RecordTransportError("ack")
		r.logEntry().WithError(err).Warn("Не удалось подтвердить нажатие.")
	}

	r.logEntry().WithFields(map[string]interface{}{
		"chat_id": chatID,
		"data":    data,
	}).Debug("Нажатие кнопки.")

	action, arg, _ := strings.Cut(data, "|")
	switch action {
	case "pause":
		r.setScan(ctx, chatID, false)
	case "resume":
		r.setScan(ctx, chatID, true)
	case "skip":
		r.reply(ctx, chatID, "⏭️ Skipped.")
	case "buy":
		r.buy(ctx, chatID, arg)
	case "sell_tp1":
		r.sellTP1(ctx, chatID)
	case "sell_all":
		r.closeByButton(ctx, chatID, models.CloseReasonSellAll)
	case "panic":
		r.closeByButton(ctx, chatID, models.CloseReasonPanic)
	default:
		r.logEntry().WithField("data", data).Debug("Неизвестная кнопка.")
	}
}

func (r *Router) buy(ctx context.Context, chatID int64, pairID string) {
	sig, ok := r.scanner.Signal(pairID)
	if !ok {
		r.logEntry().WithField("pair", pairID).Warn("Сигнал не найден, открываем позицию без деталей пары.")
		sig = models.Signal{PairID: pairID, BaseSymbol: "TOKEN", QuoteSymbol: "SOL", SignaledAt: r.now()}
	}

	if _, err := r.positions.Open(ctx, sig); err != nil {
		if errors.Is(err, engine.ErrPositionExists) {
			r.reply(ctx, chatID, "⚠️ A position is already open.")
			return
		}
		r.logEntry().WithError(err).Error("Не удалось открыть позицию.")
		r.reply(ctx, chatID, "❌ Could not open position.")
		return
	}

	r.reply(ctx, chatID, buyText(r.session.Mode(), r.positions.Rules().BuyAmount, pairID))
	r.positions.PushUpdate(ctx)
}

func (r *Router) sellTP1(ctx context.Context, chatID int64) {
	rules := r.positions.Rules()
	p, err := r.positions.SellTP1(ctx)
	switch {
	case errors.Is(err, engine.ErrNoPosition):
		r.reply(ctx, chatID, noPositionText)
	case errors.Is(err, engine.ErrTP1AlreadyDone):
		r.reply(ctx, chatID, "ℹ️ TP1 already done.")
	case errors.Is(err, engine.ErrTP1NotReached):
		r.reply(ctx, chatID, tp1NotReachedText(rules.TP1Multiplier, p.Multiple))
	case err != nil:
		r.logEntry().WithError(err).Error("Ручной TP1 не выполнен.")
	default:
		r.reply(ctx, chatID, manualTP1Text(r.session.Mode(), p))
		r.positions.PushUpdate(ctx)
	}
}

func (r *Router) closeByButton(ctx context.Context, chatID int64, reason models.CloseReason) {
	summary, ok := r.positions.Close(ctx, reason)
	if !ok {
		r.reply(ctx, chatID, noPositionText)
		return
	}
	head := "✅ SELL ALL (" + r.session.Mode() + ") → closed."
	if reason == models.CloseReasonPanic {
		head = "🔴 PANIC SELL (" + r.session.Mode() + ") → closed."
	}
	r.reply(ctx, chatID, head+"\n"+summary)
}

func (r *Router) setScan(ctx context.Context, chatID int64, enabled bool) {
	r.session.SetScanEnabled(enabled)
	r.logEntry().WithField("scan", r.session.ScanLabel()).Info("Режим сканирования изменён.")
	if enabled {
		r.reply(ctx, chatID, "▶️ Scan ON")
		return
	}
	r.reply(ctx, chatID, "⏸️ Scan OFF")
}

func (r *Router) statusText() string {
	snap, open := r.positions.Describe(r.now())
	return statusText(r.session.Mode(), r.session.ScanLabel(), r.scanInterval, r.scanner.Policy(), snap, open)
}

func (r *Router) reply(ctx context.Context, chatID int64, text string) {
	if err := r.replier.SendTo(ctx, chatID, text); err != nil {
		r.metrics.RecordTransportError("send")
		r.logEntry().WithError(err).Warn("Не удалось отправить ответ.")
	}
}

// command drops arguments and a trailing @botname.
func command(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(cmd)
}

func describeScanError(err error) string {
	var dsErr *market.DataSourceError
	if errors.As(err, &dsErr) {
		return dsErr.Error()
	}
	return err.Error()
}
