package observability

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordScan(ScanSignal)
	m.RecordScan(ScanEmpty)
	m.RecordScan(ScanEmpty)
	m.RecordOpen()
	m.RecordTick(2.5)
	m.RecordTP1("auto")
	m.RecordClose("tp2")
	m.RecordTransportError("send")

	body := scrape(t, m)
	for _, line := range []string{
		`sol_meme_bot_scanner_scans_total{result="signal"} 1`,
		`sol_meme_bot_scanner_scans_total{result="empty"} 2`,
		`sol_meme_bot_scanner_signals_total 1`,
		`sol_meme_bot_position_opened_total 1`,
		`sol_meme_bot_simulator_ticks_total 1`,
		`sol_meme_bot_position_tp1_total{trigger="auto"} 1`,
		`sol_meme_bot_position_closed_total{reason="tp2"} 1`,
		`sol_meme_bot_chat_transport_errors_total{op="send"} 1`,
		`sol_meme_bot_position_open 0`,
	} {
		assert.Contains(t, body, line)
	}
}

func TestMetrics_TickUpdatesMultiple(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.RecordOpen()
	m.RecordTick(2.5)

	body := scrape(t, m)
	assert.Contains(t, body, `sol_meme_bot_position_multiple 2.5`)
	assert.Contains(t, body, `sol_meme_bot_position_open 1`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordScan(ScanError)
		m.RecordOpen()
		m.RecordTick(1.2)
		m.RecordTP1("manual")
		m.RecordClose("panic")
		m.RecordTransportError("ack")
	})
}
