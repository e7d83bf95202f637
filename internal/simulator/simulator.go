// Package simulator moves the price multiple of the open position without a real price feed.
package simulator

import (
	"math"
	"math/rand"
	"time"

	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/models"
)

// RandSource yields uniform values in [0, 1). *rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

type Params struct {
	// Center below 0.5 gives the walk a slight downward drift.
	Center    float64
	StepScale float64

	PumpChance float64
	PumpScale  float64
	DumpChance float64
	DumpScale  float64

	MinMultiple float64
	MaxMultiple float64
}

func DefaultParams() Params {
	return Params{
		Center:      0.48,
		StepScale:   0.10,
		PumpChance:  0.06,
		PumpScale:   0.8,
		DumpChance:  0.04,
		DumpScale:   0.5,
		MinMultiple: 0.15,
		MaxMultiple: 12.0,
	}
}

type Simulator struct {
	rng    RandSource
	params Params
}

func New(rng RandSource, params Params) *Simulator {
	return &Simulator{rng: rng, params: params}
}

// NewSeeded uses math/rand with the given seed, or a time-based seed when seed is 0.
func NewSeeded(seed int64, params Params) *Simulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return New(rand.New(rand.NewSource(seed)), params)
}

// Tick advances the multiple by one step and raises the ATH. Jump magnitudes are drawn
// only when the jump fires.
func (s *Simulator) Tick(p *models.Position) {
	step := (s.rng.Float64() - s.params.Center) * s.params.StepScale
	if s.rng.Float64() < s.params.PumpChance {
		step += s.rng.Float64() * s.params.PumpScale
	}
	if s.rng.Float64() < s.params.DumpChance {
		step -= s.rng.Float64() * s.params.DumpScale
	}

	p.Multiple = clamp(p.Multiple+step, s.params.MinMultiple, s.params.MaxMultiple)
	p.ATHMultiple = math.Max(p.ATHMultiple, p.Multiple)
	p.Ticks++
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
