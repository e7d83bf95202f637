package models

import "time"

type CloseReason string

const (
	CloseReasonTimeStop     CloseReason = "time_stop"
	CloseReasonTP2          CloseReason = "tp2"
	CloseReasonTrailingStop CloseReason = "trailing_stop"
	CloseReasonBreakeven    CloseReason = "breakeven"
	CloseReasonSellAll      CloseReason = "sell_all"
	CloseReasonPanic        CloseReason = "panic"
	CloseReasonManual       CloseReason = "manual_close"
)

// PairCandidate is a pair record as delivered by the market source. It is never mutated.
type PairCandidate struct {
	ID           string    `json:"id"`
	ChainID      string    `json:"chain_id"`
	DexID        string    `json:"dex_id"`
	BaseSymbol   string    `json:"base_symbol"`
	QuoteSymbol  string    `json:"quote_symbol"`
	LiquidityUSD float64   `json:"liquidity_usd"`
	VolumeM5USD  float64   `json:"volume_m5_usd"`
	MarketCapUSD float64   `json:"market_cap_usd"`
	PriceUSD     float64   `json:"price_usd"`
	CreatedAt    time.Time `json:"created_at"`
	URL          string    `json:"url"`
}

// AgeMinutes returns the pair age at now, or 0 when the creation time is unknown.
func (c PairCandidate) AgeMinutes(now time.Time) float64 {
	if c.CreatedAt.IsZero() {
		return 0
	}
	return now.Sub(c.CreatedAt).Minutes()
}

type Signal struct {
	PairID       string    `json:"pair_id"`
	BaseSymbol   string    `json:"base_symbol"`
	QuoteSymbol  string    `json:"quote_symbol"`
	URL          string    `json:"url"`
	LiquidityUSD float64   `json:"liquidity_usd"`
	VolumeM5USD  float64   `json:"volume_m5_usd"`
	MarketCapUSD float64   `json:"market_cap_usd"`
	AgeMinutes   float64   `json:"age_minutes"`
	SignaledAt   time.Time `json:"signaled_at"`
}

func NewSignal(c PairCandidate, now time.Time) Signal {
	base := c.BaseSymbol
	if base == "" {
		base = "TOKEN"
	}
	quote := c.QuoteSymbol
	if quote == "" {
		quote = "SOL"
	}
	return Signal{
		PairID:       c.ID,
		BaseSymbol:   base,
		QuoteSymbol:  quote,
		URL:          c.URL,
		LiquidityUSD: c.LiquidityUSD,
		VolumeM5USD:  c.VolumeM5USD,
		MarketCapUSD: c.MarketCapUSD,
		AgeMinutes:   c.AgeMinutes(now),
		SignaledAt:   now,
	}
}

// Position is the single simulated holding. Multiples are relative to the entry price.
type Position struct {
	ID                    string    `json:"id"`
	PairID                string    `json:"pair_id"`
	BaseSymbol            string    `json:"base_symbol"`
	QuoteSymbol           string    `json:"quote_symbol"`
	URL                   string    `json:"url"`
	EntryAt               time.Time `json:"entry_at"`
	Spent                 float64   `json:"spent"`
	Multiple              float64   `json:"multiple"`
	ATHMultiple           float64   `json:"ath_multiple"`
	SoldPct               float64   `json:"sold_pct"`
	RemainingPct          float64   `json:"remaining_pct"`
	TP1Done               bool      `json:"tp1_done"`
	TrailingActive        bool      `json:"trailing_active"`
	TrailingFloorMultiple float64   `json:"trailing_floor_multiple"`
	Ticks                 int64     `json:"ticks"`
}

// SetSold keeps SoldPct and RemainingPct consistent.
func (p *Position) SetSold(pct float64) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	p.SoldPct = pct
	p.RemainingPct = 100 - pct
}

func (p Position) PnLPct() float64 {
	return (p.Multiple - 1) * 100
}

func (p Position) Elapsed(now time.Time) time.Duration {
	return now.Sub(p.EntryAt)
}
