package engine

import (
	"math"

	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/models"
)

// CalcExpectedOut is the estimated proceeds of selling the remaining share at the current
// multiple, net of the flat fee.
func CalcExpectedOut(p models.Position, feeRate float64) float64 {
	gross := p.Spent * p.Multiple * (p.RemainingPct / 100)
	return gross - gross*feeRate
}

// CalcTrailingFloor is the trailing level for a given ATH.
func CalcTrailingFloor(athMultiple, trailingPercent float64) float64 {
	return athMultiple * (1 - trailingPercent/100)
}

// RaiseFloor never lets the floor move down.
func RaiseFloor(current, candidate float64) float64 {
	return math.Max(current, candidate)
}
