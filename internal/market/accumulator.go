// Package market owns the accumulated best-known view of every token. Snapshots
// from all sources fold into one table under the ratchet-merge rule, and reads
// are served as paginated, sorted pages with ranking scores attached.
package market

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/solradar/solradar/internal/domain"
	"github.com/solradar/solradar/internal/score"
	"github.com/solradar/solradar/internal/sources"
	"github.com/solradar/solradar/internal/telemetry"
)

// SignalReader is the minimal view of the pre-pump signal cache the query path
// needs for the prepump sort key.
type SignalReader interface {
	Signal(mint string) *domain.PrePumpSignal
}

// SortKey names a supported query ordering.
type SortKey string

const (
	SortTrending SortKey = "trending"
	SortNew      SortKey = "new"
	SortVolume   SortKey = "volume"
	SortGainers  SortKey = "gainers"
	SortLosers   SortKey = "losers"
	SortBuy      SortKey = "buy"
	SortRisk     SortKey = "risk"
	SortPrePump  SortKey = "prepump"
)

// RankedToken is a snapshot with its derived ranking scores.
type RankedToken struct {
	domain.TokenSnapshot
	BuyScore      int     `json:"buyScore"`
	SellScore     int     `json:"sellScore"`
	RiskScore     int     `json:"riskScore"`
	MomentumScore int     `json:"momentumScore"`
	TrendingScore float64 `json:"trendingScore"`
	PrePumpScore  *int    `json:"prePumpScore,omitempty"`
}

// QueryResult is one page of the ranked table.
type QueryResult struct {
	Tokens      []RankedToken `json:"tokens"`
	Total       int           `json:"total"`
	HasMore     bool          `json:"hasMore"`
	Sources     []string      `json:"sources"`
	FetchTimeMs int64         `json:"fetchTimeMs"`
}

// Config tunes the accumulator.
type Config struct {
	// Staleness is how old the last refresh may be before a query triggers a
	// new fetch-and-merge cycle.
	Staleness time.Duration `yaml:"staleness"`
}

func DefaultConfig() Config {
	return Config{Staleness: 8 * time.Second}
}

// Accumulator is the single owner of the merged snapshot table.
type Accumulator struct {
	config  Config
	sources []sources.Source
	signals SignalReader
	metrics *telemetry.Metrics

	mu          sync.Mutex
	tokens      map[string]domain.TokenSnapshot
	lastRefresh time.Time
	inFlight    bool

	now func() time.Time
}

func NewAccumulator(config Config, srcs []sources.Source, signals SignalReader, metrics *telemetry.Metrics) *Accumulator {
	if config.Staleness <= 0 {
		config.Staleness = DefaultConfig().Staleness
	}
	return &Accumulator{
		config:  config,
		sources: srcs,
		signals: signals,
		metrics: metrics,
		tokens:  make(map[string]domain.TokenSnapshot),
		now:     time.Now,
	}
}

// MergeAll folds a batch of snapshots into the table atomically.
func (a *Accumulator) MergeAll(batch []domain.TokenSnapshot) {
	now := a.now()

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, snap := range batch {
		if snap.Mint == "" {
			continue
		}
		if existing, ok := a.tokens[snap.Mint]; ok {
			a.tokens[snap.Mint] = domain.Merge(existing, snap, now)
		} else {
			snap.LastUpdated = now
			a.tokens[snap.Mint] = snap
		}
	}
	if a.metrics != nil {
		a.metrics.TokensTracked.Set(float64(len(a.tokens)))
	}
}

// Get returns the stored snapshot for a mint, if any.
func (a *Accumulator) Get(mint string) (domain.TokenSnapshot, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap, ok := a.tokens[mint]
	return snap, ok
}

// StageOf maps a mint to its trading stage from the accumulated PreMigration
// flag. Unknown mints are treated as post-migration.
func (a *Accumulator) StageOf(mint string) domain.Stage {
	a.mu.Lock()
	defer a.mu.Unlock()
	if snap, ok := a.tokens[mint]; ok && snap.PreMigration {
		return domain.StagePreMigration
	}
	return domain.StagePostMigration
}

// Len returns the number of tracked tokens.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.tokens)
}

// Refresh runs one fan-out fetch across every source and merges the results.
// Only one cycle runs at a time; a caller arriving while a cycle is in flight
// returns immediately and reads whatever the table currently holds. One
// source's failure or timeout never blocks the others: the cycle waits for all
// of them to settle and merges whatever arrived.
func (a *Accumulator) Refresh(ctx context.Context) time.Duration {
	a.mu.Lock()
	if a.inFlight {
		a.mu.Unlock()
		return 0
	}
	a.inFlight = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.inFlight = false
		a.lastRefresh = a.now()
		a.mu.Unlock()
	}()

	start := a.now()

	var wg sync.WaitGroup
	batches := make([][]domain.TokenSnapshot, len(a.sources))
	for i, src := range a.sources {
		wg.Add(1)
		go func(i int, src sources.Source) {
			defer wg.Done()
			batches[i] = src.Fetch(ctx)
		}(i, src)
	}
	wg.Wait()

	total := 0
	for _, batch := range batches {
		a.MergeAll(batch)
		total += len(batch)
	}

	elapsed := a.now().Sub(start)
	log.Debug().Int("snapshots", total).Dur("elapsed", elapsed).Msg("refresh cycle complete")
	return elapsed
}

// Stale reports whether the next query should trigger a refresh first.
func (a *Accumulator) Stale() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.tokens) == 0 || a.now().Sub(a.lastRefresh) > a.config.Staleness
}

// Query serves one page of the ranked table, refreshing first when the table is
// empty or stale. It never returns an error; at worst the page is stale or empty.
func (a *Accumulator) Query(ctx context.Context, page, limit int, key SortKey) QueryResult {
	var fetchMs int64
	if a.Stale() {
		fetchMs = a.Refresh(ctx).Milliseconds()
	}

	now := a.now()

	a.mu.Lock()
	ranked := make([]RankedToken, 0, len(a.tokens))
	for _, snap := range a.tokens {
		rt := RankedToken{
			TokenSnapshot: snap,
			BuyScore:      score.Buy(&snap, now),
			SellScore:     score.Sell(&snap),
			RiskScore:     score.Risk(&snap, now),
			MomentumScore: score.Momentum(&snap),
			TrendingScore: score.Trending(&snap, now),
		}
		if a.signals != nil {
			if sig := a.signals.Signal(snap.Mint); sig != nil {
				composite := sig.Composite
				rt.PrePumpScore = &composite
			}
		}
		ranked = append(ranked, rt)
	}
	a.mu.Unlock()

	sortRanked(ranked, key)

	total := len(ranked)
	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return QueryResult{
		Tokens:      ranked[start:end],
		Total:       total,
		HasMore:     end < total,
		Sources:     a.sourceNames(),
		FetchTimeMs: fetchMs,
	}
}

func (a *Accumulator) sourceNames() []string {
	names := make([]string, len(a.sources))
	for i, src := range a.sources {
		names[i] = src.Name()
	}
	return names
}

func sortRanked(ranked []RankedToken, key SortKey) {
	less := func(i, j int) bool {
		return ranked[i].TrendingScore > ranked[j].TrendingScore
	}

	switch key {
	case SortNew:
		less = func(i, j int) bool { return ranked[i].PairCreatedAt > ranked[j].PairCreatedAt }
	case SortVolume:
		less = func(i, j int) bool { return ranked[i].Volume24h > ranked[j].Volume24h }
	case SortGainers:
		less = func(i, j int) bool { return ranked[i].PriceChange24h > ranked[j].PriceChange24h }
	case SortLosers:
		less = func(i, j int) bool { return ranked[i].PriceChange24h < ranked[j].PriceChange24h }
	case SortBuy:
		less = func(i, j int) bool { return ranked[i].BuyScore > ranked[j].BuyScore }
	case SortRisk:
		// Ascending: safest first.
		less = func(i, j int) bool { return ranked[i].RiskScore < ranked[j].RiskScore }
	case SortPrePump:
		less = func(i, j int) bool {
			si, sj := ranked[i].PrePumpScore, ranked[j].PrePumpScore
			switch {
			case si != nil && sj != nil:
				if *si != *sj {
					return *si > *sj
				}
			case si != nil:
				return true
			case sj != nil:
				return false
			}
			return ranked[i].TrendingScore > ranked[j].TrendingScore
		}
	}

	sort.SliceStable(ranked, less)
}
