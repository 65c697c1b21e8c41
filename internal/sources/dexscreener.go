package sources

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/solradar/solradar/internal/domain"
	"github.com/solradar/solradar/internal/httpclient"
	"github.com/solradar/solradar/internal/telemetry"
)

const dexScreenerBase = "https://api.dexscreener.com"

// dsPair is the DexScreener pair payload. Missing fields decode to their zero
// values; numeric strings are parsed leniently.
type dsPair struct {
	ChainID     string  `json:"chainId"`
	PairAddress string  `json:"pairAddress"`
	PriceUsd    string  `json:"priceUsd"`
	Fdv         float64 `json:"fdv"`
	MarketCap   float64 `json:"marketCap"`
	BaseToken   struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	Txns struct {
		M5  dsTxns `json:"m5"`
		H1  dsTxns `json:"h1"`
		H24 dsTxns `json:"h24"`
	} `json:"txns"`
	Volume struct {
		M5  float64 `json:"m5"`
		H1  float64 `json:"h1"`
		H6  float64 `json:"h6"`
		H24 float64 `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		M5  float64 `json:"m5"`
		H1  float64 `json:"h1"`
		H6  float64 `json:"h6"`
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	Liquidity struct {
		Usd float64 `json:"usd"`
	} `json:"liquidity"`
	Info struct {
		ImageURL string `json:"imageUrl"`
	} `json:"info"`
	PairCreatedAt int64 `json:"pairCreatedAt"`
}

type dsTxns struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

// normalizePair maps a DexScreener pair onto a TokenSnapshot. Returns false for
// entries without a base token address or outside the Solana chain.
func normalizePair(p dsPair, source string, now time.Time) (domain.TokenSnapshot, bool) {
	if p.BaseToken.Address == "" {
		return domain.TokenSnapshot{}, false
	}
	if p.ChainID != "" && p.ChainID != "solana" {
		return domain.TokenSnapshot{}, false
	}

	price, _ := strconv.ParseFloat(p.PriceUsd, 64)

	return domain.TokenSnapshot{
		Mint:           p.BaseToken.Address,
		Name:           p.BaseToken.Name,
		Symbol:         p.BaseToken.Symbol,
		LogoURI:        p.Info.ImageURL,
		PriceUSD:       price,
		PriceChange5m:  p.PriceChange.M5,
		PriceChange1h:  p.PriceChange.H1,
		PriceChange6h:  p.PriceChange.H6,
		PriceChange24h: p.PriceChange.H24,
		Volume5m:       p.Volume.M5,
		Volume1h:       p.Volume.H1,
		Volume6h:       p.Volume.H6,
		Volume24h:      p.Volume.H24,
		LiquidityUSD:   p.Liquidity.Usd,
		MarketCap:      p.MarketCap,
		FDV:            p.Fdv,
		Buys5m:         p.Txns.M5.Buys,
		Sells5m:        p.Txns.M5.Sells,
		Buys1h:         p.Txns.H1.Buys,
		Sells1h:        p.Txns.H1.Sells,
		Buys24h:        p.Txns.H24.Buys,
		Sells24h:       p.Txns.H24.Sells,
		PairCreatedAt:  p.PairCreatedAt,
		LastUpdated:    now,
		Source:         source,
	}, true
}

// DexScreenerPairs pulls full market snapshots from the DexScreener search
// endpoint. This is the main price/volume/liquidity feed.
type DexScreenerPairs struct {
	client
	query string
}

func NewDexScreenerPairs(pool *httpclient.Pool, metrics *telemetry.Metrics, minInterval time.Duration) *DexScreenerPairs {
	return &DexScreenerPairs{
		client: newClient("dexscreener_pairs", minInterval, pool, metrics),
		query:  "SOL",
	}
}

func (s *DexScreenerPairs) Name() string { return s.client.name }

func (s *DexScreenerPairs) Fetch(ctx context.Context) []domain.TokenSnapshot {
	var payload struct {
		Pairs []dsPair `json:"pairs"`
	}
	url := fmt.Sprintf("%s/latest/dex/search?q=%s", dexScreenerBase, s.query)
	if err := s.getJSON(ctx, url, &payload); err != nil {
		return nil
	}

	now := s.now()
	out := make([]domain.TokenSnapshot, 0, len(payload.Pairs))
	for _, p := range payload.Pairs {
		if snap, ok := normalizePair(p, s.name, now); ok {
			out = append(out, snap)
		}
	}
	return out
}

// dsProfile is the token-profiles / token-boosts list payload.
type dsProfile struct {
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
	Icon         string `json:"icon"`
	Description  string `json:"description"`
}

// DexScreenerProfiles marks tokens that paid for a DexScreener profile. The
// endpoint carries no market data; snapshots contribute provenance only.
type DexScreenerProfiles struct {
	client
}

func NewDexScreenerProfiles(pool *httpclient.Pool, metrics *telemetry.Metrics, minInterval time.Duration) *DexScreenerProfiles {
	return &DexScreenerProfiles{client: newClient("dexscreener_profiles", minInterval, pool, metrics)}
}

func (s *DexScreenerProfiles) Name() string { return s.client.name }

func (s *DexScreenerProfiles) Fetch(ctx context.Context) []domain.TokenSnapshot {
	var payload []dsProfile
	if err := s.getJSON(ctx, dexScreenerBase+"/token-profiles/latest/v1", &payload); err != nil {
		return nil
	}
	return profileSnapshots(payload, s.name, s.now(), func(snap *domain.TokenSnapshot) {
		snap.HasProfile = true
	})
}

// DexScreenerBoosts marks tokens with an active DexScreener boost.
type DexScreenerBoosts struct {
	client
}

func NewDexScreenerBoosts(pool *httpclient.Pool, metrics *telemetry.Metrics, minInterval time.Duration) *DexScreenerBoosts {
	return &DexScreenerBoosts{client: newClient("dexscreener_boosts", minInterval, pool, metrics)}
}

func (s *DexScreenerBoosts) Name() string { return s.client.name }

func (s *DexScreenerBoosts) Fetch(ctx context.Context) []domain.TokenSnapshot {
	var payload []dsProfile
	if err := s.getJSON(ctx, dexScreenerBase+"/token-boosts/latest/v1", &payload); err != nil {
		return nil
	}
	return profileSnapshots(payload, s.name, s.now(), func(snap *domain.TokenSnapshot) {
		snap.HasBoost = true
	})
}

func profileSnapshots(payload []dsProfile, source string, now time.Time, mark func(*domain.TokenSnapshot)) []domain.TokenSnapshot {
	out := make([]domain.TokenSnapshot, 0, len(payload))
	for _, p := range payload {
		if p.TokenAddress == "" || (p.ChainID != "" && p.ChainID != "solana") {
			continue
		}
		snap := domain.TokenSnapshot{
			Mint:        p.TokenAddress,
			LogoURI:     p.Icon,
			LastUpdated: now,
			Source:      source,
		}
		mark(&snap)
		out = append(out, snap)
	}
	return out
}
