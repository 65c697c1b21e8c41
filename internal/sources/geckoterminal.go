package sources

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/solradar/solradar/internal/domain"
	"github.com/solradar/solradar/internal/httpclient"
	"github.com/solradar/solradar/internal/telemetry"
)

const geckoTrendingURL = "https://api.geckoterminal.com/api/v2/networks/solana/trending_pools"

type geckoPool struct {
	Attributes struct {
		Name                  string `json:"name"`
		BaseTokenPriceUsd     string `json:"base_token_price_usd"`
		FdvUsd                string `json:"fdv_usd"`
		MarketCapUsd          string `json:"market_cap_usd"`
		ReserveInUsd          string `json:"reserve_in_usd"`
		PoolCreatedAt         string `json:"pool_created_at"`
		PriceChangePercentage struct {
			M5  string `json:"m5"`
			H1  string `json:"h1"`
			H6  string `json:"h6"`
			H24 string `json:"h24"`
		} `json:"price_change_percentage"`
		Transactions struct {
			M5  geckoTxns `json:"m5"`
			H1  geckoTxns `json:"h1"`
			H24 geckoTxns `json:"h24"`
		} `json:"transactions"`
		VolumeUsd struct {
			M5  string `json:"m5"`
			H1  string `json:"h1"`
			H6  string `json:"h6"`
			H24 string `json:"h24"`
		} `json:"volume_usd"`
	} `json:"attributes"`
	Relationships struct {
		BaseToken struct {
			Data struct {
				ID string `json:"id"` // "solana_<mint>"
			} `json:"data"`
		} `json:"base_token"`
	} `json:"relationships"`
}

type geckoTxns struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

// GeckoTerminal pulls the trending pools list. All numerics arrive as strings;
// anything unparsable defaults to zero rather than dropping the token.
type GeckoTerminal struct {
	client
}

func NewGeckoTerminal(pool *httpclient.Pool, metrics *telemetry.Metrics, minInterval time.Duration) *GeckoTerminal {
	return &GeckoTerminal{client: newClient("geckoterminal", minInterval, pool, metrics)}
}

func (s *GeckoTerminal) Name() string { return s.client.name }

func (s *GeckoTerminal) Fetch(ctx context.Context) []domain.TokenSnapshot {
	var payload struct {
		Data []geckoPool `json:"data"`
	}
	if err := s.getJSON(ctx, geckoTrendingURL, &payload); err != nil {
		return nil
	}

	now := s.now()
	out := make([]domain.TokenSnapshot, 0, len(payload.Data))
	for _, p := range payload.Data {
		mint := strings.TrimPrefix(p.Relationships.BaseToken.Data.ID, "solana_")
		if mint == "" {
			continue
		}
		a := p.Attributes

		var createdMs int64
		if t, err := time.Parse(time.RFC3339, a.PoolCreatedAt); err == nil {
			createdMs = t.UnixMilli()
		}

		symbol := a.Name
		if i := strings.Index(symbol, " /"); i > 0 {
			symbol = symbol[:i]
		}

		out = append(out, domain.TokenSnapshot{
			Mint:           mint,
			Name:           a.Name,
			Symbol:         symbol,
			PriceUSD:       parseF(a.BaseTokenPriceUsd),
			PriceChange5m:  parseF(a.PriceChangePercentage.M5),
			PriceChange1h:  parseF(a.PriceChangePercentage.H1),
			PriceChange6h:  parseF(a.PriceChangePercentage.H6),
			PriceChange24h: parseF(a.PriceChangePercentage.H24),
			Volume5m:       parseF(a.VolumeUsd.M5),
			Volume1h:       parseF(a.VolumeUsd.H1),
			Volume6h:       parseF(a.VolumeUsd.H6),
			Volume24h:      parseF(a.VolumeUsd.H24),
			LiquidityUSD:   parseF(a.ReserveInUsd),
			MarketCap:      parseF(a.MarketCapUsd),
			FDV:            parseF(a.FdvUsd),
			Buys5m:         a.Transactions.M5.Buys,
			Sells5m:        a.Transactions.M5.Sells,
			Buys1h:         a.Transactions.H1.Buys,
			Sells1h:        a.Transactions.H1.Sells,
			Buys24h:        a.Transactions.H24.Buys,
			Sells24h:       a.Transactions.H24.Sells,
			PairCreatedAt:  createdMs,
			LastUpdated:    now,
			Source:         s.name,
		})
	}
	return out
}

func parseF(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
