// Package app runs the bot: one goroutine owns all state and interleaves inbound
// updates with the scan, simulation and position-update timers.
package app

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/chat"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/logger"
)

// Poller delivers inbound updates until ctx is done.
type Poller interface {
	Poll(ctx context.Context, out chan<- chat.Update)
}

type Handler interface {
	Handle(ctx context.Context, u chat.Update)
}

type ScanRunner interface {
	ScanOnce(ctx context.Context, notifyIfEmpty bool) (bool, error)
}

type PositionLoop interface {
	Tick(ctx context.Context)
	PushUpdate(ctx context.Context)
}

type Intervals struct {
	Scan time.Duration
	Tick time.Duration
	// Push <= 0 disables periodic position updates.
	Push time.Duration
}

type Deps struct {
	Poller    Poller
	Router    Handler
	Scanner   ScanRunner
	Positions PositionLoop
	Log       *logger.Logger
}

type App struct {
	intervals Intervals
	poller    Poller
	router    Handler
	scanner   ScanRunner
	positions PositionLoop
	log       *logger.Logger
}

func New(intervals Intervals, deps Deps) *App {
	if deps.Log == nil {
		deps.Log = logger.Discard()
	}
	return &App{
		intervals: intervals,
		poller:    deps.Poller,
		router:    deps.Router,
		scanner:   deps.Scanner,
		positions: deps.Positions,
		log:       deps.Log,
	}
}

func (a *App) logEntry() *logrus.Entry {
	return a.log.WithComponent("app")
}

// Run blocks until ctx is cancelled. Units of work never overlap.
func (a *App) Run(ctx context.Context) error {
	if a.intervals.Scan <= 0 || a.intervals.Tick <= 0 {
		return fmt.Errorf("Интервалы сканирования и симуляции должны быть больше нуля")
	}

	updates := make(chan chat.Update, 64)
	if a.poller != nil {
		go a.poller.Poll(ctx, updates)
	}

	scanTicker := time.NewTicker(a.intervals.Scan)
	defer scanTicker.Stop()
	simTicker := time.NewTicker(a.intervals.Tick)
	defer simTicker.Stop()

	var pushC <-chan time.Time
	if a.intervals.Push > 0 {
		pushTicker := time.NewTicker(a.intervals.Push)
		defer pushTicker.Stop()
		pushC = pushTicker.C
	}

	a.logEntry().WithFields(map[string]interface{}{
		"scan": a.intervals.Scan.String(),
		"tick": a.intervals.Tick.String(),
		"push": a.intervals.Push.String(),
	}).Info("Цикл запущен.")

	for {
		select {
		case <-ctx.Done():
			a.logEntry().Info("Цикл остановлен.")
			return nil
		case u := <-updates:
			a.safely("update", func() { a.router.Handle(ctx, u) })
		case <-scanTicker.C:
			a.safely("scan", func() { a.scan(ctx) })
		case <-simTicker.C:
			a.safely("tick", func() { a.positions.Tick(ctx) })
		case <-pushC:
			a.safely("push", func() { a.positions.PushUpdate(ctx) })
		}
	}
}

func (a *App) scan(ctx context.Context) {
	if _, err := a.scanner.ScanOnce(ctx, false); err != nil {
		a.logEntry().WithError(err).Warn("Сканирование пропущено.")
	}
}

// safely runs one unit of work; a panic is logged and swallowed.
func (a *App) safely(unit string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			a.logEntry().WithFields(map[string]interface{}{
				"unit":  unit,
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			}).Error("Паника в обработчике, цикл продолжает работу.")
		}
	}()
	fn()
}
