package domain

import "time"

// TokenSnapshot is the normalized view of one token as reported by a market-data
// source. The mint address is the primary key across every store in the process.
type TokenSnapshot struct {
	Mint    string `json:"mint"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	LogoURI string `json:"logoURI,omitempty"`

	PriceUSD float64 `json:"priceUsd"`

	PriceChange5m  float64 `json:"priceChange5m"`
	PriceChange1h  float64 `json:"priceChange1h"`
	PriceChange6h  float64 `json:"priceChange6h"`
	PriceChange24h float64 `json:"priceChange24h"`

	Volume5m  float64 `json:"volume5m"`
	Volume1h  float64 `json:"volume1h"`
	Volume6h  float64 `json:"volume6h"`
	Volume24h float64 `json:"volume24h"`

	LiquidityUSD float64 `json:"liquidityUsd"`
	MarketCap    float64 `json:"marketCap"`
	FDV          float64 `json:"fdv"`

	Buys5m   int `json:"buys5m"`
	Sells5m  int `json:"sells5m"`
	Buys1h   int `json:"buys1h"`
	Sells1h  int `json:"sells1h"`
	Buys24h  int `json:"buys24h"`
	Sells24h int `json:"sells24h"`

	// PairCreatedAt is unix milliseconds; zero means unknown.
	PairCreatedAt int64 `json:"pairCreatedAt"`

	HasProfile   bool `json:"hasProfile"`
	HasBoost     bool `json:"hasBoost"`
	PreMigration bool `json:"preMigration"`

	// BondingCurveProgress is 0-100; only meaningful while PreMigration.
	BondingCurveProgress float64 `json:"bondingCurveProgress"`

	LastUpdated time.Time `json:"lastUpdated"`
	Source      string    `json:"source"`
}

// AgeHours returns the pair age in hours, or -1 when the creation time is unknown.
func (s *TokenSnapshot) AgeHours(now time.Time) float64 {
	if s.PairCreatedAt == 0 {
		return -1
	}
	return now.Sub(time.UnixMilli(s.PairCreatedAt)).Hours()
}

// BuyRatio5m returns buys/(buys+sells) over the last five minutes, 0.5 when no
// transactions were reported.
func (s *TokenSnapshot) BuyRatio5m() float64 {
	total := s.Buys5m + s.Sells5m
	if total == 0 {
		return 0.5
	}
	return float64(s.Buys5m) / float64(total)
}

// SellRatio5m is the complement of BuyRatio5m.
func (s *TokenSnapshot) SellRatio5m() float64 {
	return 1 - s.BuyRatio5m()
}

// Merge folds an incoming snapshot into an existing one under the ratchet rule:
// strength metrics (volume, liquidity, market cap, FDV, curve progress) only ever
// increase, provenance flags are OR'd, display fields keep the existing value when
// the incoming one is a default, and everything else takes the incoming value.
//
// The ratchet is the wire contract even when a source legitimately reports a
// decrease (e.g. liquidity pulled); stale-high values are an accepted tradeoff.
// Merging the same snapshot twice is idempotent for all fields except LastUpdated.
func Merge(existing, incoming TokenSnapshot, now time.Time) TokenSnapshot {
	out := incoming

	out.Volume5m = maxF(existing.Volume5m, incoming.Volume5m)
	out.Volume1h = maxF(existing.Volume1h, incoming.Volume1h)
	out.Volume6h = maxF(existing.Volume6h, incoming.Volume6h)
	out.Volume24h = maxF(existing.Volume24h, incoming.Volume24h)
	out.LiquidityUSD = maxF(existing.LiquidityUSD, incoming.LiquidityUSD)
	out.MarketCap = maxF(existing.MarketCap, incoming.MarketCap)
	out.FDV = maxF(existing.FDV, incoming.FDV)
	out.BondingCurveProgress = maxF(existing.BondingCurveProgress, incoming.BondingCurveProgress)

	out.HasProfile = existing.HasProfile || incoming.HasProfile
	out.HasBoost = existing.HasBoost || incoming.HasBoost
	out.PreMigration = existing.PreMigration || incoming.PreMigration

	if incoming.Name == "" {
		out.Name = existing.Name
	}
	if incoming.Symbol == "" {
		out.Symbol = existing.Symbol
	}
	if incoming.LogoURI == "" {
		out.LogoURI = existing.LogoURI
	}
	if incoming.PairCreatedAt == 0 {
		out.PairCreatedAt = existing.PairCreatedAt
	}

	out.LastUpdated = now
	return out
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
