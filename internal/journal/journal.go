// Package journal is an append-only audit log of simulated trades. It is never read back
// to restore state.
package journal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/config"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/models"
)

type Event string

const (
	EventOpen  Event = "open"
	EventTP1   Event = "tp1"
	EventClose Event = "close"
)

type Entry struct {
	ID           string    `json:"id"`
	Event        Event     `json:"event"`
	PositionID   string    `json:"position_id"`
	PairID       string    `json:"pair_id"`
	Symbol       string    `json:"symbol"`
	Reason       string    `json:"reason,omitempty"`
	Spent        float64   `json:"spent"`
	Multiple     float64   `json:"multiple"`
	ATHMultiple  float64   `json:"ath_multiple"`
	SoldPct      float64   `json:"sold_pct"`
	RemainingPct float64   `json:"remaining_pct"`
	ExpectedOut  float64   `json:"expected_out"`
	At           time.Time `json:"at"`
}

// NewEntry snapshots the position for the given event.
func NewEntry(event Event, p models.Position, reason string, expectedOut float64, at time.Time) Entry {
	return Entry{
		ID:           strings.ReplaceAll(uuid.New().String(), "-", ""),
		Event:        event,
		PositionID:   p.ID,
		PairID:       p.PairID,
		Symbol:       p.BaseSymbol + "/" + p.QuoteSymbol,
		Reason:       reason,
		Spent:        p.Spent,
		Multiple:     p.Multiple,
		ATHMultiple:  p.ATHMultiple,
		SoldPct:      p.SoldPct,
		RemainingPct: p.RemainingPct,
		ExpectedOut:  expectedOut,
		At:           at,
	}
}

type Journal interface {
	Record(ctx context.Context, e Entry) error
	Close() error
}

type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }
func (Nop) Close() error                        { return nil }

// Open picks the driver named in the config.
func Open(ctx context.Context, cfg config.JournalConfig) (Journal, error) {
	switch cfg.Driver {
	case "", "none":
		return Nop{}, nil
	case "file":
		return NewFile(cfg.Path)
	case "postgres":
		return NewPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("Неизвестный драйвер журнала: %s", cfg.Driver)
	}
}
