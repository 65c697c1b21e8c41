package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testSnapshot() TokenSnapshot {
	return TokenSnapshot{
		Mint:           "Mint1111111111111111111111111111111111111111",
		Name:           "Test Token",
		Symbol:         "TEST",
		LogoURI:        "https://img.example/test.png",
		PriceUSD:       0.0012,
		PriceChange5m:  4.2,
		PriceChange24h: 120,
		Volume5m:       1500,
		Volume1h:       9000,
		Volume24h:      80000,
		LiquidityUSD:   45000,
		MarketCap:      250000,
		FDV:            250000,
		Buys5m:         12,
		Sells5m:        5,
		PairCreatedAt:  time.Now().Add(-3 * time.Hour).UnixMilli(),
		HasProfile:     true,
		Source:         "dexscreener_pairs",
	}
}

func TestMerge_Idempotent(t *testing.T) {
	now := time.Now()
	existing := testSnapshot()
	incoming := testSnapshot()
	incoming.Volume24h = 90000
	incoming.PriceUSD = 0.0013

	once := Merge(existing, incoming, now)
	twice := Merge(once, incoming, now)

	once.LastUpdated = time.Time{}
	twice.LastUpdated = time.Time{}
	assert.Equal(t, once, twice, "merging the same snapshot twice must equal merging it once")
}

func TestMerge_RatchetNeverDecreases(t *testing.T) {
	now := time.Now()
	current := testSnapshot()

	// A source legitimately reporting lower figures must not lower the table.
	lower := testSnapshot()
	lower.Volume24h = 100
	lower.LiquidityUSD = 10
	lower.MarketCap = 500
	lower.FDV = 500

	merged := Merge(current, lower, now)
	assert.Equal(t, current.Volume24h, merged.Volume24h)
	assert.Equal(t, current.LiquidityUSD, merged.LiquidityUSD)
	assert.Equal(t, current.MarketCap, merged.MarketCap)
	assert.Equal(t, current.FDV, merged.FDV)

	// A higher report ratchets up.
	higher := testSnapshot()
	higher.Volume24h = 999999
	merged = Merge(merged, higher, now)
	assert.Equal(t, float64(999999), merged.Volume24h)
}

func TestMerge_DisplayFieldsKeepExistingOnDefault(t *testing.T) {
	now := time.Now()
	existing := testSnapshot()

	incoming := TokenSnapshot{Mint: existing.Mint, PriceUSD: 0.002}
	merged := Merge(existing, incoming, now)

	assert.Equal(t, existing.Name, merged.Name)
	assert.Equal(t, existing.Symbol, merged.Symbol)
	assert.Equal(t, existing.LogoURI, merged.LogoURI)
	assert.Equal(t, existing.PairCreatedAt, merged.PairCreatedAt)
	assert.Equal(t, 0.002, merged.PriceUSD, "price always takes the incoming value")
}

func TestMerge_FlagsAreSticky(t *testing.T) {
	now := time.Now()
	existing := testSnapshot()
	existing.PreMigration = true
	existing.HasBoost = true

	incoming := testSnapshot()
	incoming.PreMigration = false
	incoming.HasBoost = false
	incoming.HasProfile = false

	merged := Merge(existing, incoming, now)
	assert.True(t, merged.PreMigration, "PreMigration is OR'd and therefore sticky")
	assert.True(t, merged.HasBoost)
	assert.True(t, merged.HasProfile)
}

func TestBuyRatio(t *testing.T) {
	s := TokenSnapshot{Buys5m: 6, Sells5m: 2}
	assert.InDelta(t, 0.75, s.BuyRatio5m(), 1e-9)
	assert.InDelta(t, 0.25, s.SellRatio5m(), 1e-9)

	empty := TokenSnapshot{}
	assert.Equal(t, 0.5, empty.BuyRatio5m(), "no transactions means neutral ratio")
}

func TestAgeHours(t *testing.T) {
	now := time.Now()
	s := TokenSnapshot{PairCreatedAt: now.Add(-90 * time.Minute).UnixMilli()}
	assert.InDelta(t, 1.5, s.AgeHours(now), 0.01)

	unknown := TokenSnapshot{}
	assert.Equal(t, float64(-1), unknown.AgeHours(now))
}
