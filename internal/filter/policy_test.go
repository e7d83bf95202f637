package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/models"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func defaultPolicy() Policy {
	return Policy{
		ChainID:         "solana",
		MinLiquidityUSD: 30000,
		MinVolumeM5USD:  50000,
		MaxAgeMinutes:   30,
		MaxMarketCapUSD: 200000,
	}
}

func passingCandidate() models.PairCandidate {
	return models.PairCandidate{
		ID:           "pair-1",
		ChainID:      "solana",
		LiquidityUSD: 40000,
		VolumeM5USD:  60000,
		MarketCapUSD: 150000,
		CreatedAt:    testNow.Add(-10 * time.Minute),
	}
}

func TestPasses_HappyPath(t *testing.T) {
	assert.True(t, defaultPolicy().Passes(passingCandidate(), testNow))
}

func TestPasses_LiquidityBoundaryInclusive(t *testing.T) {
	p := defaultPolicy()

	c := passingCandidate()
	c.LiquidityUSD = p.MinLiquidityUSD - 1
	assert.False(t, p.Passes(c, testNow))
	assert.Equal(t, RuleLiquidity, p.Reject(c, testNow))

	c.LiquidityUSD = p.MinLiquidityUSD
	assert.True(t, p.Passes(c, testNow))
}

func TestPasses_VolumeBoundaryInclusive(t *testing.T) {
	p := defaultPolicy()
	c := passingCandidate()

	c.VolumeM5USD = p.MinVolumeM5USD - 1
	assert.Equal(t, RuleVolume, p.Reject(c, testNow))

	c.VolumeM5USD = p.MinVolumeM5USD
	assert.True(t, p.Passes(c, testNow))
}

func TestPasses_ZeroCreatedAtAlwaysRejected(t *testing.T) {
	p := Policy{}
	c := passingCandidate()
	c.CreatedAt = time.Time{}
	assert.Equal(t, RuleCreatedAt, p.Reject(c, testNow))

	c.CreatedAt = time.Unix(0, 0)
	assert.Equal(t, RuleCreatedAt, p.Reject(c, testNow))

	c.LiquidityUSD = 1e12
	c.VolumeM5USD = 1e12
	assert.False(t, defaultPolicy().Passes(c, testNow))
}

func TestPasses_WrongChain(t *testing.T) {
	c := passingCandidate()
	c.ChainID = "ethereum"
	assert.Equal(t, RuleChain, defaultPolicy().Reject(c, testNow))
}

func TestPasses_Age(t *testing.T) {
	p := defaultPolicy()
	c := passingCandidate()

	c.CreatedAt = testNow.Add(-30 * time.Minute)
	assert.True(t, p.Passes(c, testNow))

	c.CreatedAt = testNow.Add(-31 * time.Minute)
	assert.Equal(t, RuleAge, p.Reject(c, testNow))
}

func TestPasses_MarketCap(t *testing.T) {
	p := defaultPolicy()
	c := passingCandidate()

	c.MarketCapUSD = 0
	assert.True(t, p.Passes(c, testNow), "unknown market cap does not disqualify")

	c.MarketCapUSD = p.MaxMarketCapUSD
	assert.True(t, p.Passes(c, testNow))

	c.MarketCapUSD = p.MaxMarketCapUSD + 1
	assert.Equal(t, RuleMarketCap, p.Reject(c, testNow))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, defaultPolicy().Validate())

	p := defaultPolicy()
	p.MaxAgeMinutes = -1
	assert.Error(t, p.Validate())
}
