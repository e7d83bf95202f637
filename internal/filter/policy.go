// Package filter decides whether a pair candidate fits the configured risk profile.
package filter

import (
	"fmt"
	"time"

	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/config"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/models"
)

const (
	RuleChain     = "chain"
	RuleCreatedAt = "created_at"
	RuleLiquidity = "liquidity"
	RuleVolume    = "volume"
	RuleAge       = "age"
	RuleMarketCap = "market_cap"
)

type Policy struct {
	ChainID         string
	MinLiquidityUSD float64
	MinVolumeM5USD  float64
	MaxAgeMinutes   float64
	MaxMarketCapUSD float64
}

func FromConfig(cfg config.FilterConfig) Policy {
	return Policy{
		ChainID:         cfg.ChainID,
		MinLiquidityUSD: cfg.MinLiquidityUSD,
		MinVolumeM5USD:  cfg.MinVolumeM5USD,
		MaxAgeMinutes:   cfg.MaxTokenAgeMin,
		MaxMarketCapUSD: cfg.MaxMarketCapUSD,
	}
}

func (p Policy) Validate() error {
	for name, val := range map[string]float64{
		"min_liquidity_usd": p.MinLiquidityUSD,
		"min_volume_m5_usd": p.MinVolumeM5USD,
		"max_age_minutes":   p.MaxAgeMinutes,
		"max_marketcap_usd": p.MaxMarketCapUSD,
	} {
		if val < 0 {
			return fmt.Errorf("Порог %s не может быть отрицательным: %f", name, val)
		}
	}
	return nil
}

func (p Policy) Passes(c models.PairCandidate, now time.Time) bool {
	return p.Reject(c, now) == ""
}

// Reject returns the name of the first failed rule, or "" if the candidate passes.
func (p Policy) Reject(c models.PairCandidate, now time.Time) string {
	if p.ChainID != "" && c.ChainID != p.ChainID {
		return RuleChain
	}
	if c.CreatedAt.IsZero() || c.CreatedAt.Unix() == 0 {
		return RuleCreatedAt
	}
	if c.LiquidityUSD < p.MinLiquidityUSD {
		return RuleLiquidity
	}
	if c.VolumeM5USD < p.MinVolumeM5USD {
		return RuleVolume
	}
	if c.AgeMinutes(now) > p.MaxAgeMinutes {
		return RuleAge
	}
	if c.MarketCapUSD > 0 && c.MarketCapUSD > p.MaxMarketCapUSD {
		return RuleMarketCap
	}
	return ""
}
