package dexscreener

import (
	"strconv"
	"time"

	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/models"
)

type searchResponse struct {
	SchemaVersion string `json:"schemaVersion"`
	Pairs         []pair `json:"pairs"`
}

type pair struct {
	ChainID     string `json:"chainId"`
	DexID       string `json:"dexId"`
	URL         string `json:"url"`
	PairAddress string `json:"pairAddress"`
	BaseToken   token  `json:"baseToken"`
	QuoteToken  token  `json:"quoteToken"`
	PriceUsd    string `json:"priceUsd"`
	Volume      struct {
		M5  float64 `json:"m5"`
		H1  float64 `json:"h1"`
		H24 float64 `json:"h24"`
	} `json:"volume"`
	Liquidity *struct {
		Usd float64 `json:"usd"`
	} `json:"liquidity"`
	Fdv           float64 `json:"fdv"`
	MarketCap     float64 `json:"marketCap"`
	PairCreatedAt int64   `json:"pairCreatedAt"`
}

type token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

func (p pair) toCandidate() models.PairCandidate {
	c := models.PairCandidate{
		ID:           p.PairAddress,
		ChainID:      p.ChainID,
		DexID:        p.DexID,
		BaseSymbol:   p.BaseToken.Symbol,
		QuoteSymbol:  p.QuoteToken.Symbol,
		VolumeM5USD:  p.Volume.M5,
		MarketCapUSD: p.Fdv,
		URL:          p.URL,
	}
	if c.MarketCapUSD == 0 {
		c.MarketCapUSD = p.MarketCap
	}
	if p.Liquidity != nil {
		c.LiquidityUSD = p.Liquidity.Usd
	}
	if p.PairCreatedAt > 0 {
		c.CreatedAt = time.UnixMilli(p.PairCreatedAt)
	}
	if price, err := strconv.ParseFloat(p.PriceUsd, 64); err == nil {
		c.PriceUSD = price
	}
	return c
}

func toCandidates(pairs []pair) []models.PairCandidate {
	out := make([]models.PairCandidate, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.toCandidate())
	}
	return out
}
