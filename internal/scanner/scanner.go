// Package scanner turns market listings into operator signals: at most one new,
// never-before-seen pair per scan.
package scanner

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/chat"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/dedup"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/filter"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/logger"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/market"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/models"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/observability"
)

// maxRemembered bounds the signal payloads kept for later buy presses.
const maxRemembered = 256

type PositionChecker interface {
	HasPosition() bool
}

// State is the operator session as seen by the scanner.
type State interface {
	ChatID() (int64, bool)
	ScanEnabled() bool
	Mode() string
}

type Notifier interface {
	Notify(ctx context.Context, text string, buttons ...[]chat.Button) error
}

type Deps struct {
	Source    market.Source
	Policy    filter.Policy
	Registry  *dedup.Registry
	Positions PositionChecker
	Session   State
	Notifier  Notifier
	Metrics   *observability.Metrics
	Log       *logger.Logger
	Now       func() time.Time
}

type Options struct {
	Cooldown  time.Duration
	BuyAmount float64
}

// Scanner is owned by the app loop; it is not safe for concurrent use.
type Scanner struct {
	source    market.Source
	policy    filter.Policy
	registry  *dedup.Registry
	positions PositionChecker
	session   State
	notifier  Notifier
	metrics   *observability.Metrics
	log       *logger.Logger
	now       func() time.Time
	opts      Options

	lastSignalAt time.Time
	signals      map[string]models.Signal
	order        []string
}

func New(opts Options, deps Deps) *Scanner {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = logger.Discard()
	}
	if deps.Registry == nil {
		deps.Registry = dedup.New(0, deps.Now)
	}
	return &Scanner{
		source:    deps.Source,
		policy:    deps.Policy,
		registry:  deps.Registry,
		positions: deps.Positions,
		session:   deps.Session,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		log:       deps.Log,
		now:       deps.Now,
		opts:      opts,
		signals:   make(map[string]models.Signal),
	}
}

func (s *Scanner) logEntry() *logrus.Entry {
	return s.log.WithComponent("scanner")
}

func (s *Scanner) Policy() filter.Policy {
	return s.policy
}

// ScanOnce emits at most one signal. The error is a *market.DataSourceError when the
// fetch failed; every other outcome returns nil.
func (s *Scanner) ScanOnce(ctx context.Context, notifyIfEmpty bool) (bool, error) {
	if _, ok := s.session.ChatID(); !ok {
		s.metrics.RecordScan(observability.ScanSkipped)
		return false, nil
	}
	if !s.session.ScanEnabled() || s.positions.HasPosition() {
		s.metrics.RecordScan(observability.ScanSkipped)
		return false, nil
	}
	if !s.lastSignalAt.IsZero() && s.now().Sub(s.lastSignalAt) < s.opts.Cooldown {
		s.metrics.RecordScan(observability.ScanCooldown)
		return false, nil
	}

	pairs, err := s.source.FetchPairs(ctx)
	if err != nil {
		s.metrics.RecordScan(observability.ScanError)
		var dsErr *market.DataSourceError
		if !errors.As(err, &dsErr) {
			err = &market.DataSourceError{Source: "market", Err: err}
		}
		return false, err
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].VolumeM5USD > pairs[j].VolumeM5USD
	})

	now := s.now()
	rejected := map[string]int{}
	for _, c := range pairs {
		if rule := s.policy.Reject(c, now); rule != "" {
			rejected[rule]++
			continue
		}
		if c.ID == "" {
			continue
		}
		if s.registry.Has(c.ID) {
			rejected["seen"]++
			continue
		}

		s.registry.Add(c.ID)
		s.lastSignalAt = now
		sig := models.NewSignal(c, now)
		s.remember(sig)
		s.metrics.RecordScan(observability.ScanSignal)

		s.log.WithPair(c.ID).WithFields(map[string]interface{}{
			"component": "scanner",
			"symbol":    sig.BaseSymbol + "/" + sig.QuoteSymbol,
			"liq":       c.LiquidityUSD,
			"vol_m5":    c.VolumeM5USD,
		}).Info("Найден сигнал.")

		if err := s.notifier.Notify(ctx, FormatSignal(sig, s.session.Mode()), SignalButtons(sig, s.opts.BuyAmount, s.session.ScanEnabled())...); err != nil {
			s.metrics.RecordTransportError("send")
			s.logEntry().WithError(err).Warn("Не удалось отправить сигнал.")
		}
		return true, nil
	}

	s.metrics.RecordScan(observability.ScanEmpty)
	s.logEntry().WithFields(map[string]interface{}{
		"pairs":    len(pairs),
		"rejected": rejected,
	}).Debug("Подходящих пар нет.")

	if notifyIfEmpty {
		if err := s.notifier.Notify(ctx, FormatNothingFound(s.policy)); err != nil {
			s.metrics.RecordTransportError("send")
			s.logEntry().WithError(err).Warn("Не удалось отправить сообщение.")
		}
	}
	return false, nil
}

// Signal returns the payload of a recent signal for pairID.
func (s *Scanner) Signal(pairID string) (models.Signal, bool) {
	sig, ok := s.signals[pairID]
	return sig, ok
}

func (s *Scanner) remember(sig models.Signal) {
	if _, ok := s.signals[sig.PairID]; !ok {
		s.order = append(s.order, sig.PairID)
	}
	s.signals[sig.PairID] = sig

	for len(s.order) > maxRemembered {
		delete(s.signals, s.order[0])
		s.order = s.order[1:]
	}
}
