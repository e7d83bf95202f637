package router

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/engine"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/filter"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/models"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/scanner"
)

const noPositionText = "ℹ️ No open position."

const helpText = `Commands:
/start - bind this chat and show state
/scan - run one scan now
/pause, /resume - toggle scanning
/status - mode, filters and open position
/panic - close the position (panic)
/close - close the position (manual)`

func startText(mode, scan string) string {
	return fmt.Sprintf("🤖 Bot started in *%s* mode.\nScan: *%s*\nCommands: /scan /pause /resume /status /panic /close", mode, scan)
}

func statusText(mode, scan string, interval time.Duration, policy filter.Policy, snap engine.Snapshot, open bool) string {
	openLabel := "NO"
	if open {
		openLabel = "YES"
	}
	text := fmt.Sprintf("📊 *Status*\nMode: *%s*\nScan: *%s*\nInterval: %ds\nOpen position: *%s*\n\nFilters:\n%s",
		mode, scan, int(interval.Seconds()), openLabel, scanner.FormatFilters(policy))
	if open {
		text += "\n\n" + engine.FormatSnapshot(snap)
	}
	return text
}

func buyText(mode string, amount float64, pairID string) string {
	return fmt.Sprintf("🧪 %s BUY (%s SOL)\nPair: `%s`\n\nPosition opened. Tracking PnL and applying exit rules.",
		mode, plain(amount), pairID)
}

func tp1NotReachedText(tp1, current float64) string {
	return fmt.Sprintf("ℹ️ x%s not reached yet. Now x%.2f.", plain(tp1), current)
}

func manualTP1Text(mode string, p models.Position) string {
	return fmt.Sprintf("✅ Manual TP1: SOLD %s%% (%s). Remaining %s%%.", plain(p.SoldPct), mode, plain(p.RemainingPct))
}

func plain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
