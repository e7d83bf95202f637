package dexscreener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/logger"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/market"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/models"
)

var (
	ErrNoSnapshot    = errors.New("нет данных из потока")
	ErrStaleSnapshot = errors.New("данные потока устарели")
)

// Stream keeps the latest pairs frame received over websocket and serves it as a Source.
type Stream struct {
	url    string
	maxAge time.Duration
	log    *logger.Logger
	now    func() time.Time

	mu        sync.Mutex
	conn      *websocket.Conn
	pairs     []models.PairCandidate
	updatedAt time.Time

	stopCh       chan struct{}
	stopOnce     sync.Once
	reconnectMin time.Duration
	reconnectMax time.Duration
}

var _ market.Source = (*Stream)(nil)

func NewStream(url string, maxAge time.Duration, log *logger.Logger) *Stream {
	return &Stream{
		url:          url,
		maxAge:       maxAge,
		log:          log,
		now:          time.Now,
		stopCh:       make(chan struct{}),
		reconnectMin: 1 * time.Second,
		reconnectMax: 30 * time.Second,
	}
}

func (s *Stream) logEntry() *logrus.Entry {
	return s.log.WithComponent("dexscreener_ws")
}

func (s *Stream) Connect(ctx context.Context) error {
	s.logEntry().WithField("url", s.url).Info("Подключение к WS.")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("Не удалось подключиться к WS: %w", err)
	}
	conn.SetReadLimit(8 << 20)

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	s.logEntry().Info("WS соединение установлено.")

	go s.readLoop(conn)

	return nil
}

func (s *Stream) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// FetchPairs returns the cached frame, or a *market.DataSourceError when nothing has
// arrived yet or the frame is older than maxAge.
func (s *Stream) FetchPairs(ctx context.Context) ([]models.PairCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.updatedAt.IsZero() {
		return nil, &market.DataSourceError{Source: sourceName + "_ws", Err: ErrNoSnapshot}
	}
	if s.maxAge > 0 && s.now().Sub(s.updatedAt) > s.maxAge {
		return nil, &market.DataSourceError{Source: sourceName + "_ws", Err: ErrStaleSnapshot}
	}

	out := make([]models.PairCandidate, len(s.pairs))
	copy(out, s.pairs)
	return out, nil
}

func (s *Stream) readLoop(conn *websocket.Conn) {
	s.logEntry().Debug("readLoop запущен.")

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if s.stopped() {
				return
			}
			s.logEntry().WithError(err).Warn("Ошибка чтения WS.")

			next, ok := s.reconnect()
			if !ok {
				return
			}
			conn = next
			continue
		}

		s.handleFrame(data)
	}
}

func (s *Stream) handleFrame(data []byte) {
	var frame searchResponse
	if err := json.Unmarshal(data, &frame); err != nil {
		s.logEntry().WithError(err).Warn("Не удалось разобрать WS сообщение.")
		return
	}
	if frame.Pairs == nil {
		return
	}

	pairs := toCandidates(frame.Pairs)

	s.mu.Lock()
	s.pairs = pairs
	s.updatedAt = s.now()
	s.mu.Unlock()

	s.logEntry().WithField("pairs", len(pairs)).Debug("Обновлён снимок пар.")
}

func (s *Stream) reconnect() (*websocket.Conn, bool) {
	backoff := s.reconnectMin

	for {
		select {
		case <-s.stopCh:
			return nil, false
		case <-time.After(backoff):
		}

		s.logEntry().Info("Попытка переподключения к WS.")

		conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
		if err != nil {
			s.logEntry().WithError(err).Warn("Не удалось переподключиться к WS.")
			backoff = s.nextBackoff(backoff)
			continue
		}
		conn.SetReadLimit(8 << 20)

		s.mu.Lock()
		if s.stopped() {
			s.mu.Unlock()
			_ = conn.Close()
			return nil, false
		}
		if s.conn != nil {
			_ = s.conn.Close()
		}
		s.conn = conn
		s.mu.Unlock()

		s.logEntry().Info("WS переподключён.")
		return conn, true
	}
}

func (s *Stream) nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > s.reconnectMax {
		return s.reconnectMax
	}
	return next
}

func (s *Stream) stopped() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}
