// Package pump maintains the rolling per-token and per-wallet trade history and
// derives the weighted pre-pump early-warning signal from it. One Store owns the
// ledger, the wallet activity index, the signal cache and the bonding-curve
// balances under a single mutex, so every mutation is atomic with respect to
// every read.
package pump

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/solradar/solradar/internal/domain"
	"github.com/solradar/solradar/internal/telemetry"
)

// Config tunes the store's retention behavior.
type Config struct {
	// MaxLedger caps the per-token trade history; oldest entries drop first.
	MaxLedger int `yaml:"max_ledger"`
	// Retention is how long a token or wallet may stay idle before the
	// sweeper evicts it.
	Retention time.Duration `yaml:"retention"`
	// SweepInterval is the cadence of the background sweeper.
	SweepInterval time.Duration `yaml:"sweep_interval"`
	// MinTransactions is the ledger depth required before a signal exists.
	MinTransactions int `yaml:"min_transactions"`
	// FreshWalletAge is how recently a wallet must have first appeared for
	// its trades to count as fresh regardless of token.
	FreshWalletAge time.Duration `yaml:"fresh_wallet_age"`
}

func DefaultConfig() Config {
	return Config{
		MaxLedger:       500,
		Retention:       2 * time.Hour,
		SweepInterval:   time.Minute,
		MinTransactions: 5,
		FreshWalletAge:  24 * time.Hour,
	}
}

// ledgerEntry is the bounded trade history for one token plus its derived
// rolling aggregates, recomputed on every insert.
type ledgerEntry struct {
	txs      []domain.TxRecord
	lastSell time.Time

	buys60s      int
	sells60s     int
	freshBuys60s int
	avgBuy5m     float64
	avgBuy1h     float64
}

// walletActivity records when a wallet was first seen and every timestamp at
// which it traded each token.
type walletActivity struct {
	firstSeen time.Time
	tokens    map[string][]time.Time
}

// StageResolver maps a mint to its trading stage; the accumulator implements it
// from the PreMigration flag.
type StageResolver interface {
	StageOf(mint string) domain.Stage
}

// Store is the single owner of all pre-pump state.
type Store struct {
	config  Config
	metrics *telemetry.Metrics

	mu            sync.Mutex
	ledgers       map[string]*ledgerEntry
	wallets       map[string]*walletActivity
	signals       map[string]*domain.PrePumpSignal
	curveBalances map[string]float64

	stages StageResolver

	now      func() time.Time
	sweeping bool
	stop     chan struct{}
	done     chan struct{}
}

func NewStore(config Config, metrics *telemetry.Metrics) *Store {
	def := DefaultConfig()
	if config.MaxLedger <= 0 {
		config.MaxLedger = def.MaxLedger
	}
	if config.Retention <= 0 {
		config.Retention = def.Retention
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = def.SweepInterval
	}
	if config.MinTransactions <= 0 {
		config.MinTransactions = def.MinTransactions
	}
	if config.FreshWalletAge <= 0 {
		config.FreshWalletAge = def.FreshWalletAge
	}
	return &Store{
		config:        config,
		metrics:       metrics,
		ledgers:       make(map[string]*ledgerEntry),
		wallets:       make(map[string]*walletActivity),
		signals:       make(map[string]*domain.PrePumpSignal),
		curveBalances: make(map[string]float64),
		now:           time.Now,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// SetStageResolver wires the stage lookup used by HighSignals. The accumulator
// is constructed after the store, so this is a setter rather than a
// constructor argument.
func (s *Store) SetStageResolver(r StageResolver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages = r
}

// Record ingests one trade event. The fresh-wallet flag is fixed here: a trade
// is fresh when the wallet first appeared within the fresh-wallet age, or when
// this is the wallet's first trade on this mint. Malformed events (empty mint
// or wallet, unknown direction, non-positive amount) are dropped without any
// mutation.
func (s *Store) Record(mint, wallet string, direction domain.TradeDirection, amountSol float64, signature string, ts time.Time) {
	if mint == "" || wallet == "" || !direction.Valid() || amountSol <= 0 {
		log.Warn().Str("mint", mint).Str("wallet", wallet).Str("direction", string(direction)).Msg("dropping malformed trade event")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wa, ok := s.wallets[wallet]
	if !ok {
		wa = &walletActivity{firstSeen: ts, tokens: make(map[string][]time.Time)}
		s.wallets[wallet] = wa
	}
	fresh := ts.Sub(wa.firstSeen) < s.config.FreshWalletAge || len(wa.tokens[mint]) == 0
	wa.tokens[mint] = append(wa.tokens[mint], ts)

	le, ok := s.ledgers[mint]
	if !ok {
		le = &ledgerEntry{}
		s.ledgers[mint] = le
	}
	le.txs = append(le.txs, domain.TxRecord{
		Mint:          mint,
		Wallet:        wallet,
		Direction:     direction,
		AmountSol:     amountSol,
		Signature:     signature,
		Timestamp:     ts,
		IsFreshWallet: fresh,
	})
	if len(le.txs) > s.config.MaxLedger {
		le.txs = le.txs[len(le.txs)-s.config.MaxLedger:]
	}
	if direction == domain.Sell && ts.After(le.lastSell) {
		le.lastSell = ts
	}

	s.recomputeLocked(le, s.now())

	if s.metrics != nil {
		s.metrics.TradesIngested.WithLabelValues(string(direction)).Inc()
		s.metrics.WalletsTracked.Set(float64(len(s.wallets)))
	}
}

// recomputeLocked refreshes the derived rolling aggregates for one ledger.
func (s *Store) recomputeLocked(le *ledgerEntry, now time.Time) {
	cut60 := now.Add(-time.Minute)
	cut5m := now.Add(-5 * time.Minute)
	cut1h := now.Add(-time.Hour)

	le.buys60s, le.sells60s, le.freshBuys60s = 0, 0, 0
	var sum5m, sum1h float64
	var n5m, n1h int

	for i := len(le.txs) - 1; i >= 0; i-- {
		tx := le.txs[i]
		if tx.Timestamp.Before(cut1h) {
			break
		}
		if tx.Direction == domain.Buy {
			sum1h += tx.AmountSol
			n1h++
			if !tx.Timestamp.Before(cut5m) {
				sum5m += tx.AmountSol
				n5m++
			}
			if !tx.Timestamp.Before(cut60) {
				le.buys60s++
				if tx.IsFreshWallet {
					le.freshBuys60s++
				}
			}
		} else if !tx.Timestamp.Before(cut60) {
			le.sells60s++
		}
	}

	le.avgBuy5m = 0
	if n5m > 0 {
		le.avgBuy5m = sum5m / float64(n5m)
	}
	if n1h > 0 {
		le.avgBuy1h = sum1h / float64(n1h)
	} else {
		// Hour window empty: fall back to the 5-minute average.
		le.avgBuy1h = le.avgBuy5m
	}
}

// UpdateCurveBalance stores the latest observed bonding-curve SOL balance for a
// mint. Only the latest value is kept; the signal calculator derives its curve
// velocity from recent buy volume, not from balance deltas.
func (s *Store) UpdateCurveBalance(mint string, balanceSol float64) {
	if mint == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.curveBalances[mint] = balanceSol
}

// CurveBalance returns the latest bonding-curve balance, if one was observed.
func (s *Store) CurveBalance(mint string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.curveBalances[mint]
	return v, ok
}

// CoordinatedWallets counts wallets that traded the mint inside the window and
// also traded at least three distinct other mints inside that same window.
func (s *Store) CoordinatedWallets(mint string, window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coordinatedLocked(mint, window, s.now())
}

func (s *Store) coordinatedLocked(mint string, window time.Duration, now time.Time) int {
	cutoff := now.Add(-window)
	count := 0

	for _, wa := range s.wallets {
		if !anyAfter(wa.tokens[mint], cutoff) {
			continue
		}
		others := 0
		for other, stamps := range wa.tokens {
			if other == mint {
				continue
			}
			if anyAfter(stamps, cutoff) {
				others++
				if others >= 3 {
					break
				}
			}
		}
		if others >= 3 {
			count++
		}
	}
	return count
}

func anyAfter(stamps []time.Time, cutoff time.Time) bool {
	// Stamps arrive in order; the newest one decides.
	return len(stamps) > 0 && !stamps[len(stamps)-1].Before(cutoff)
}

// Signal returns the cached signal for a mint without recomputing.
func (s *Store) Signal(mint string) *domain.PrePumpSignal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signals[mint]
}

// HighSignals recomputes signals for every tracked token and returns those at
// or above minScore, highest first.
func (s *Store) HighSignals(minScore int) []*domain.PrePumpSignal {
	s.mu.Lock()
	mints := make([]string, 0, len(s.ledgers))
	for mint := range s.ledgers {
		mints = append(mints, mint)
	}
	resolver := s.stages
	s.mu.Unlock()

	out := make([]*domain.PrePumpSignal, 0, len(mints))
	for _, mint := range mints {
		stage := domain.StagePostMigration
		if resolver != nil {
			stage = resolver.StageOf(mint)
		}
		if sig := s.Compute(mint, stage); sig != nil && sig.Composite >= minScore {
			out = append(out, sig)
		}
	}
	sortSignals(out)
	return out
}

// Stats reports the store's current footprint.
type Stats struct {
	WalletsTracked int `json:"walletsTracked"`
	TokensTracked  int `json:"tokensTracked"`
	SignalsCached  int `json:"signalsCached"`
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		WalletsTracked: len(s.wallets),
		TokensTracked:  len(s.ledgers),
		SignalsCached:  len(s.signals),
	}
}

func sortSignals(sigs []*domain.PrePumpSignal) {
	sort.Slice(sigs, func(i, j int) bool {
		return sigs[i].Composite > sigs[j].Composite
	})
}
