package scanner

import (
	"fmt"
	"strconv"

	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/chat"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/filter"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/models"
)

func FormatSignal(sig models.Signal, mode string) string {
	url := sig.URL
	if url == "" {
		url = "n/a"
	}
	return fmt.Sprintf(`🚨 *REAL SIGNAL* (Dexscreener)
*Pair:* %s/%s
*Liquidity:* $%s
*Volume (5m):* $%s
*Age:* %.1f min
*Mcap/FDV:* $%s
*Pair:* `+"`%s`"+`
*Link:* %s

Mode: *%s*`,
		sig.BaseSymbol, sig.QuoteSymbol,
		models.FormatCompact(sig.LiquidityUSD),
		models.FormatCompact(sig.VolumeM5USD),
		sig.AgeMinutes,
		models.FormatCompact(sig.MarketCapUSD),
		sig.PairID,
		url,
		mode,
	)
}

func SignalButtons(sig models.Signal, buyAmount float64, scanEnabled bool) [][]chat.Button {
	return [][]chat.Button{
		chat.Row(chat.Button{Text: fmt.Sprintf("BUY %s SOL", strconv.FormatFloat(buyAmount, 'f', -1, 64)), Data: "buy|" + sig.PairID}),
		chat.Row(chat.Button{Text: "SKIP", Data: "skip|" + sig.PairID}),
		chat.Row(chat.ScanToggle(scanEnabled)),
	}
}

// FormatFilters lists the active thresholds, one bullet each.
func FormatFilters(p filter.Policy) string {
	return fmt.Sprintf("• Liq ≥ $%s\n• Vol(5m) ≥ $%s\n• Age ≤ %s min\n• Mcap ≤ $%s",
		models.FormatCompact(p.MinLiquidityUSD),
		models.FormatCompact(p.MinVolumeM5USD),
		strconv.FormatFloat(p.MaxAgeMinutes, 'f', -1, 64),
		models.FormatCompact(p.MaxMarketCapUSD),
	)
}

func FormatNothingFound(p filter.Policy) string {
	return "ℹ️ Nothing found matching the filters:\n" + FormatFilters(p)
}
