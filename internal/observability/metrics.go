// Package observability provides Prometheus metrics for the scan and position loops.
package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/logger"
)

const namespace = "sol_meme_bot"

// Scan results.
const (
	ScanSignal   = "signal"
	ScanEmpty    = "empty"
	ScanSkipped  = "skipped"
	ScanError    = "error"
	ScanCooldown = "cooldown"
)

// Metrics is nil-safe: every method on a nil *Metrics is a no-op.
type Metrics struct {
	ScansTotal       *prometheus.CounterVec
	SignalsTotal     prometheus.Counter
	PositionsOpened  prometheus.Counter
	TP1Total         *prometheus.CounterVec
	PositionsClosed  *prometheus.CounterVec
	TransportErrors  *prometheus.CounterVec
	PositionMultiple prometheus.Gauge
	PositionOpen     prometheus.Gauge
	SimulationTicks  prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewMetrics registers all collectors on reg. Tests pass a fresh prometheus.NewRegistry().
func NewMetrics(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		ScansTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "scans_total",
			Help:      "Scan cycles by result",
		}, []string{"result"}),
		SignalsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "signals_total",
			Help:      "Signals sent to the operator",
		}),
		PositionsOpened: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "opened_total",
			Help:      "Simulated positions opened",
		}),
		TP1Total: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "tp1_total",
			Help:      "First take-profit fills by trigger",
		}, []string{"trigger"}),
		PositionsClosed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "closed_total",
			Help:      "Simulated positions closed by reason",
		}, []string{"reason"}),
		TransportErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "transport_errors_total",
			Help:      "Failed chat deliveries by operation",
		}, []string{"op"}),
		PositionMultiple: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "multiple",
			Help:      "Current simulated multiple of the open position",
		}),
		PositionOpen: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "open",
			Help:      "1 while a position is open",
		}),
		SimulationTicks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulator",
			Name:      "ticks_total",
			Help:      "Simulation ticks applied to an open position",
		}),
		gatherer: reg,
	}
}

func (m *Metrics) RecordScan(result string) {
	if m == nil {
		return
	}
	m.ScansTotal.WithLabelValues(result).Inc()
	if result == ScanSignal {
		m.SignalsTotal.Inc()
	}
}

func (m *Metrics) RecordOpen() {
	if m == nil {
		return
	}
	m.PositionsOpened.Inc()
	m.PositionOpen.Set(1)
	m.PositionMultiple.Set(1)
}

func (m *Metrics) RecordTP1(trigger string) {
	if m == nil {
		return
	}
	m.TP1Total.WithLabelValues(trigger).Inc()
}

func (m *Metrics) RecordClose(reason string) {
	if m == nil {
		return
	}
	m.PositionsClosed.WithLabelValues(reason).Inc()
	m.PositionOpen.Set(0)
	m.PositionMultiple.Set(0)
}

func (m *Metrics) RecordTick(multiple float64) {
	if m == nil {
		return
	}
	m.SimulationTicks.Inc()
	m.PositionMultiple.Set(multiple)
}

func (m *Metrics) RecordTransportError(op string) {
	if m == nil {
		return
	}
	m.TransportErrors.WithLabelValues(op).Inc()
}

// Handler serves the registry these metrics were registered on.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, log *logger.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithComponent("metrics").WithField("addr", addr).Info("Метрики доступны.")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
