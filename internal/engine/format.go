package engine

import (
	"fmt"
	"time"

	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/chat"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/models"
)

type Snapshot struct {
	Mode        string
	Position    models.Position
	ExpectedOut float64
	PnLPct      float64
	Elapsed     time.Duration
	Rules       Rules
}

func FormatSnapshot(s Snapshot) string {
	p := s.Position
	return fmt.Sprintf(`📍 *OPEN POSITION* (%s)
*Pair:* %s/%s
*Multiple:* x%.2f  (ATH x%.2f)
*PnL:* %.1f%%
*Sold:* %s%%   *Remaining:* %s%%
*Expected out (after est. fees):* %.4f SOL
*Time:* %.1f min

Rules:
• TP1: x%s → sell %s%%
• TP2: x%s OR trailing -%s%% OR breakeven OR time %s
• Min sell out: %s SOL`,
		s.Mode,
		p.BaseSymbol, p.QuoteSymbol,
		p.Multiple, p.ATHMultiple,
		s.PnLPct,
		formatFloatPlain(p.SoldPct), formatFloatPlain(p.RemainingPct),
		s.ExpectedOut,
		s.Elapsed.Minutes(),
		formatFloatPlain(s.Rules.TP1Multiplier), formatFloatPlain(s.Rules.TP1SellPercent),
		formatFloatPlain(s.Rules.TP2Multiplier), formatFloatPlain(s.Rules.TrailingStopPercent), formatTimeStop(s.Rules.TimeStop),
		formatFloatPlain(s.Rules.MinSellOut),
	)
}

// PositionButtons offers manual TP1 until it is done, then sell-all, panic and the scan toggle.
func PositionButtons(p models.Position, r Rules, scanEnabled bool) [][]chat.Button {
	var rows [][]chat.Button
	if !p.TP1Done {
		rows = append(rows, chat.Row(chat.Button{
			Text: fmt.Sprintf("SELL %s%% @%sx", formatFloatPlain(r.TP1SellPercent), formatFloatPlain(r.TP1Multiplier)),
			Data: "sell_tp1",
		}))
	}
	rows = append(rows,
		chat.Row(chat.Button{Text: "SELL ALL", Data: "sell_all"}),
		chat.Row(chat.Button{Text: "PANIC SELL", Data: "panic"}),
		chat.Row(chat.ScanToggle(scanEnabled)),
	)
	return rows
}

func (e *Engine) tp1Notice(p models.Position) string {
	return fmt.Sprintf("🟢 TP1 hit x%s → SOLD %s%% (%s)\nRemaining %s%% managed by TP2/trailing/breakeven/time.",
		formatFloatPlain(e.rules.TP1Multiplier), formatFloatPlain(p.SoldPct), e.mode, formatFloatPlain(p.RemainingPct))
}

func (e *Engine) closeNotice(p models.Position, reason models.CloseReason) string {
	switch reason {
	case models.CloseReasonTimeStop:
		return fmt.Sprintf("⏱️ Time stop %s → SELL ALL (%s)", formatTimeStop(e.rules.TimeStop), e.mode)
	case models.CloseReasonTP2:
		return fmt.Sprintf("🚀 TP2 hit x%s → SELL ALL remaining (%s)", formatFloatPlain(e.rules.TP2Multiplier), e.mode)
	case models.CloseReasonTrailingStop:
		return fmt.Sprintf("🟠 Trailing stop hit (floor x%.2f) → SELL ALL (%s)", p.TrailingFloorMultiple, e.mode)
	case models.CloseReasonBreakeven:
		return fmt.Sprintf("🟡 Breakeven zone reached → SELL ALL remaining (%s)", e.mode)
	default:
		return fmt.Sprintf("✅ Position closed (%s).", reason)
	}
}

func formatCloseSummary(p models.Position, reason models.CloseReason, out float64) string {
	return fmt.Sprintf("✅ Position closed (%s). %s/%s x%.2f, PnL %.1f%%, out %.4f SOL.",
		reason, p.BaseSymbol, p.QuoteSymbol, p.Multiple, p.PnLPct(), out)
}

func formatTimeStop(d time.Duration) string {
	if d <= 0 {
		return "off"
	}
	return formatFloatPlain(d.Minutes()) + "m"
}
