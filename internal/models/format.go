package models

import (
	"fmt"
	"math"
)

// FormatCompact renders USD-ish amounts as 1.25M / 30.0k / 950.
func FormatCompact(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "n/a"
	}
	switch {
	case x >= 1_000_000:
		return fmt.Sprintf("%.2fM", x/1_000_000)
	case x >= 1_000:
		return fmt.Sprintf("%.1fk", x/1_000)
	default:
		return fmt.Sprintf("%.0f", x)
	}
}
