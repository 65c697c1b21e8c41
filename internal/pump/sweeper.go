package pump

import (
	"time"

	"github.com/rs/zerolog/log"
)

// RunSweeper starts the background retention sweep. It runs until Close is
// called and takes the store mutex for each pass, so readers never observe a
// torn state.
func (s *Store) RunSweeper() {
	s.mu.Lock()
	if s.sweeping {
		s.mu.Unlock()
		return
	}
	s.sweeping = true
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.config.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.SweepAt(s.now())
			case <-s.stop:
				return
			}
		}
	}()
}

// Close stops the sweeper, if running, and waits for it to exit.
func (s *Store) Close() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}

	s.mu.Lock()
	sweeping := s.sweeping
	s.mu.Unlock()
	if sweeping {
		<-s.done
	}
}

// SweepAt evicts everything whose most recent activity predates the retention
// cutoff: idle wallets (and their per-token timestamp lists), fully idle
// ledgers, and the cached signals and curve balances of evicted ledgers.
// Exposed with an explicit clock so tests can step time instead of waiting.
func (s *Store) SweepAt(now time.Time) {
	cutoff := now.Add(-s.config.Retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	var walletsEvicted, ledgersEvicted int

	for wallet, wa := range s.wallets {
		for mint, stamps := range wa.tokens {
			if !anyAfter(stamps, cutoff) {
				delete(wa.tokens, mint)
			}
		}
		if len(wa.tokens) == 0 {
			delete(s.wallets, wallet)
			walletsEvicted++
		}
	}

	for mint, le := range s.ledgers {
		if len(le.txs) > 0 && !le.txs[len(le.txs)-1].Timestamp.Before(cutoff) {
			continue
		}
		delete(s.ledgers, mint)
		delete(s.signals, mint)
		delete(s.curveBalances, mint)
		ledgersEvicted++
	}

	if s.metrics != nil {
		s.metrics.SweepEvictions.WithLabelValues("wallet").Add(float64(walletsEvicted))
		s.metrics.SweepEvictions.WithLabelValues("ledger").Add(float64(ledgersEvicted))
		s.metrics.WalletsTracked.Set(float64(len(s.wallets)))
		s.metrics.SignalsCached.Set(float64(len(s.signals)))
	}

	if walletsEvicted > 0 || ledgersEvicted > 0 {
		log.Debug().Int("wallets", walletsEvicted).Int("ledgers", ledgersEvicted).Msg("retention sweep evicted idle entries")
	}
}
