package score

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/solradar/solradar/internal/domain"
)

func TestScoreBounds(t *testing.T) {
	now := time.Now()

	cases := map[string]domain.TokenSnapshot{
		"zero value": {},
		"degenerate negatives": {
			PriceChange5m:  -99,
			PriceChange24h: -99,
			LiquidityUSD:   0,
			MarketCap:      0,
		},
		"everything extreme": {
			PriceChange5m:        1000,
			PriceChange1h:        1000,
			PriceChange24h:       100000,
			Volume5m:             1e9,
			Volume1h:             1e9,
			Volume24h:            1e9,
			LiquidityUSD:         50000,
			MarketCap:            100,
			FDV:                  100,
			Buys5m:               5000,
			Sells5m:              5000,
			PairCreatedAt:        now.Add(-10 * time.Minute).UnixMilli(),
			PreMigration:         true,
			BondingCurveProgress: 99,
		},
	}

	for name, snap := range cases {
		t.Run(name, func(t *testing.T) {
			for label, got := range map[string]int{
				"buy":      Buy(&snap, now),
				"sell":     Sell(&snap),
				"risk":     Risk(&snap, now),
				"momentum": Momentum(&snap),
			} {
				assert.GreaterOrEqual(t, got, 0, label)
				assert.LessOrEqual(t, got, 100, label)
			}
		})
	}
}

func TestBuy_VolumeRatioLadder(t *testing.T) {
	now := time.Now()
	base := domain.TokenSnapshot{MarketCap: 100000}

	low := base
	low.Volume1h = 1000 // ratio 0.01, below every rung
	mid := base
	mid.Volume1h = 6000 // ratio 0.06
	high := base
	high.Volume1h = 20000 // ratio 0.2

	assert.Less(t, Buy(&low, now), Buy(&mid, now))
	assert.Less(t, Buy(&mid, now), Buy(&high, now))
}

func TestBuy_LiquiditySweetSpot(t *testing.T) {
	now := time.Now()
	inBand := domain.TokenSnapshot{LiquidityUSD: 50000}
	outBand := domain.TokenSnapshot{LiquidityUSD: 5_000_000}
	assert.Greater(t, Buy(&inBand, now), Buy(&outBand, now))
}

func TestSell_RespondsToDumpConditions(t *testing.T) {
	calm := domain.TokenSnapshot{LiquidityUSD: 100000}
	dumping := domain.TokenSnapshot{
		PriceChange5m:  -15,
		PriceChange24h: 600,
		LiquidityUSD:   2000,
		Buys5m:         1,
		Sells5m:        9,
	}
	assert.Greater(t, Sell(&dumping), Sell(&calm))
	assert.Equal(t, 100, Sell(&dumping), "all rungs hit should clamp at 100")
}

func TestRisk_OrdersByDanger(t *testing.T) {
	now := time.Now()
	safe := domain.TokenSnapshot{
		LiquidityUSD:  500000,
		MarketCap:     1000000,
		PairCreatedAt: now.Add(-30 * 24 * time.Hour).UnixMilli(),
	}
	risky := domain.TokenSnapshot{
		LiquidityUSD:  500,
		MarketCap:     500000,
		PairCreatedAt: now.Add(-20 * time.Minute).UnixMilli(),
		Sells5m:       8,
		Buys5m:        2,
		PreMigration:  true,
	}
	assert.Less(t, Risk(&safe, now), Risk(&risky, now))
}

func TestMomentum_VolumeSurge(t *testing.T) {
	flat := domain.TokenSnapshot{Volume24h: 24000, Volume1h: 1000}
	surging := domain.TokenSnapshot{Volume24h: 24000, Volume1h: 5000}
	assert.Greater(t, Momentum(&surging), Momentum(&flat))
}

func TestTrending_Unbounded(t *testing.T) {
	now := time.Now()
	whale := domain.TokenSnapshot{
		Volume5m:  5_000_000,
		Volume1h:  20_000_000,
		Volume24h: 100_000_000,
		Buys5m:    3000,
		Sells5m:   2000,
	}
	assert.Greater(t, Trending(&whale, now), float64(100), "trending is not clamped")

	quiet := domain.TokenSnapshot{}
	assert.Less(t, Trending(&quiet, now), Trending(&whale, now))
}

func TestTrending_YoungPairBonus(t *testing.T) {
	now := time.Now()
	young := domain.TokenSnapshot{PairCreatedAt: now.Add(-30 * time.Minute).UnixMilli()}
	old := domain.TokenSnapshot{PairCreatedAt: now.Add(-72 * time.Hour).UnixMilli()}
	assert.Greater(t, Trending(&young, now), Trending(&old, now))
}
