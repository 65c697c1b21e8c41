package sources

import (
	"context"
	"time"

	"github.com/solradar/solradar/internal/domain"
	"github.com/solradar/solradar/internal/httpclient"
	"github.com/solradar/solradar/internal/telemetry"
)

const pumpFunURL = "https://frontend-api.pump.fun/coins?offset=0&limit=50&sort=created_timestamp&order=DESC"

// Bonding curve graduation threshold: a pump.fun token migrates to a DEX pool
// once roughly 85 SOL of real reserves accumulate.
const curveGraduationSol = 85.0

type pumpCoin struct {
	Mint             string  `json:"mint"`
	Name             string  `json:"name"`
	Symbol           string  `json:"symbol"`
	ImageURI         string  `json:"image_uri"`
	UsdMarketCap     float64 `json:"usd_market_cap"`
	RealSolReserves  float64 `json:"real_sol_reserves"`
	CreatedTimestamp int64   `json:"created_timestamp"`
	Complete         bool    `json:"complete"`
}

// PumpFun lists freshly created bonding-curve tokens. Everything it returns is
// pre-migration by definition; completed curves are skipped because their live
// market data comes from the DEX sources instead.
type PumpFun struct {
	client
}

func NewPumpFun(pool *httpclient.Pool, metrics *telemetry.Metrics, minInterval time.Duration) *PumpFun {
	return &PumpFun{client: newClient("pumpfun", minInterval, pool, metrics)}
}

func (s *PumpFun) Name() string { return s.client.name }

func (s *PumpFun) Fetch(ctx context.Context) []domain.TokenSnapshot {
	var coins []pumpCoin
	if err := s.getJSON(ctx, pumpFunURL, &coins); err != nil {
		return nil
	}

	now := s.now()
	out := make([]domain.TokenSnapshot, 0, len(coins))
	for _, c := range coins {
		if c.Mint == "" || c.Complete {
			continue
		}
		// real_sol_reserves is lamport-denominated in the payload.
		reservesSol := c.RealSolReserves / 1e9
		progress := reservesSol / curveGraduationSol * 100
		if progress > 100 {
			progress = 100
		}

		out = append(out, domain.TokenSnapshot{
			Mint:                 c.Mint,
			Name:                 c.Name,
			Symbol:               c.Symbol,
			LogoURI:              c.ImageURI,
			MarketCap:            c.UsdMarketCap,
			FDV:                  c.UsdMarketCap,
			PairCreatedAt:        c.CreatedTimestamp,
			PreMigration:         true,
			BondingCurveProgress: progress,
			LastUpdated:          now,
			Source:               s.name,
		})
	}
	return out
}
