package engine

import (
	"time"

	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/models"
)

type Action int

const (
	ActionHold Action = iota
	ActionTP1
	ActionClose
)

func (a Action) String() string {
	switch a {
	case ActionTP1:
		return "tp1"
	case ActionClose:
		return "close"
	default:
		return "hold"
	}
}

// Decision is the outcome of one evaluation. Suppressed reports that the payout guard
// blocked liquidation this tick.
type Decision struct {
	Action      Action
	Reason      models.CloseReason
	ExpectedOut float64
	Suppressed  bool
}

// ExitEngine applies the exit rules to a position. At most one liquidating action fires
// per evaluation.
type ExitEngine struct {
	rules Rules
}

func NewExitEngine(rules Rules) *ExitEngine {
	return &ExitEngine{rules: rules}
}

func (x *ExitEngine) Rules() Rules {
	return x.rules
}

// Evaluate mutates p for trailing activation and TP1. A close decision leaves p intact;
// clearing the slot is up to the caller.
func (x *ExitEngine) Evaluate(p *models.Position, now time.Time) Decision {
	r := x.rules

	if p.TP1Done || p.Multiple >= r.TP1Multiplier {
		p.TrailingActive = true
		p.TrailingFloorMultiple = RaiseFloor(p.TrailingFloorMultiple, CalcTrailingFloor(p.ATHMultiple, r.TrailingStopPercent))
	}

	expectedOut := CalcExpectedOut(*p, r.FeeRate)
	suppressed := expectedOut < r.MinSellOut
	d := Decision{Action: ActionHold, ExpectedOut: expectedOut, Suppressed: suppressed}

	closeWith := func(reason models.CloseReason) Decision {
		d.Action = ActionClose
		d.Reason = reason
		return d
	}

	if r.TimeStop > 0 && p.Elapsed(now) >= r.TimeStop && !suppressed {
		return closeWith(models.CloseReasonTimeStop)
	}

	if !p.TP1Done && p.Multiple >= r.TP1Multiplier {
		ApplyTP1(p, r)
		d.Action = ActionTP1
		return d
	}

	if p.TP1Done && p.Multiple >= r.TP2Multiplier && !suppressed {
		return closeWith(models.CloseReasonTP2)
	}

	if p.TrailingActive && p.Multiple <= p.TrailingFloorMultiple && !suppressed {
		return closeWith(models.CloseReasonTrailingStop)
	}

	if p.TP1Done && p.Multiple <= r.BreakevenMultiple && !suppressed {
		return closeWith(models.CloseReasonBreakeven)
	}

	return d
}

// ApplyTP1 marks the first take-profit as filled.
func ApplyTP1(p *models.Position, r Rules) {
	p.TP1Done = true
	p.SetSold(r.TP1SellPercent)
}
