package pump

import (
	"fmt"
	"math"
	"time"

	"github.com/solradar/solradar/internal/domain"
)

// Stage-dependent composite weights. Pre-migration trading still happens on the
// bonding curve, so curve velocity carries weight there; after migration that
// weight shifts onto the buy-size factor.
var (
	preWeights  = weights{fresh: 0.25, velocity: 0.20, clustering: 0.20, curve: 0.15, sellAbsence: 0.10, buySize: 0.10}
	postWeights = weights{fresh: 0.25, velocity: 0.20, clustering: 0.20, curve: 0, sellAbsence: 0.10, buySize: 0.25}
)

type weights struct {
	fresh       float64
	velocity    float64
	clustering  float64
	curve       float64
	sellAbsence float64
	buySize     float64
}

const (
	coordinationWindow = 5 * time.Minute
	defaultSellGap     = time.Minute
	alertThreshold     = 60
)

// Compute derives the pre-pump signal for one token and caches it, overwriting
// any previous entry. It returns nil while the token has fewer than the
// configured minimum of recorded transactions; that is an absence, not an error.
func (s *Store) Compute(mint string, stage domain.Stage) *domain.PrePumpSignal {
	s.mu.Lock()
	defer s.mu.Unlock()

	le, ok := s.ledgers[mint]
	if !ok || len(le.txs) < s.config.MinTransactions {
		return nil
	}

	now := s.now()
	s.recomputeLocked(le, now)

	var scores domain.SignalScores
	var metrics domain.SignalMetrics
	var alerts []string
	metrics.LedgerSize = len(le.txs)

	// Fresh-wallet influx: share of last-minute buys made by fresh wallets.
	allBuys := le.buys60s
	if allBuys > 0 {
		metrics.FreshWalletRate = float64(le.freshBuys60s) / float64(allBuys)
	}
	switch r := metrics.FreshWalletRate; {
	case r > 0.30:
		scores.FreshWalletInflux = 100
	case r > 0.20:
		scores.FreshWalletInflux = 80
	case r > 0.15:
		scores.FreshWalletInflux = 60
	case r > 0.10:
		scores.FreshWalletInflux = 40
	case r > 0.05:
		scores.FreshWalletInflux = 20
	}
	if scores.FreshWalletInflux >= alertThreshold {
		alerts = append(alerts, fmt.Sprintf("fresh wallet influx: %.0f%% of recent buys from new wallets", metrics.FreshWalletRate*100))
	}

	// Wallet velocity: coordinated wallets fanning across tokens.
	metrics.CoordinatedCount = s.coordinatedLocked(mint, coordinationWindow, now)
	switch c := metrics.CoordinatedCount; {
	case c >= 20:
		scores.WalletVelocity = 100
	case c >= 15:
		scores.WalletVelocity = 80
	case c >= 8:
		scores.WalletVelocity = 60
	case c >= 5:
		scores.WalletVelocity = 30
	}
	if scores.WalletVelocity >= alertThreshold {
		alerts = append(alerts, fmt.Sprintf("coordinated buying: %d wallets active across multiple tokens", metrics.CoordinatedCount))
	}

	// Transaction clustering: burst of trades inside 30 seconds.
	cut30 := now.Add(-30 * time.Second)
	for i := len(le.txs) - 1; i >= 0; i-- {
		if le.txs[i].Timestamp.Before(cut30) {
			break
		}
		metrics.TxPer30s++
	}
	switch n := metrics.TxPer30s; {
	case n >= 30:
		scores.TxClustering = 100
	case n >= 20:
		scores.TxClustering = 80
	case n >= 10:
		scores.TxClustering = 60
	case n >= 5:
		scores.TxClustering = 30
	}
	if scores.TxClustering >= alertThreshold {
		alerts = append(alerts, fmt.Sprintf("transaction burst: %d trades in 30s", metrics.TxPer30s))
	}

	// Bonding-curve velocity: last-minute buy volume as a SOL/min proxy.
	// Applies pre-migration only. The stored curve balance is deliberately not
	// used here; only the latest balance is retained and no delta is derived.
	if stage == domain.StagePreMigration {
		cut60 := now.Add(-time.Minute)
		for i := len(le.txs) - 1; i >= 0; i-- {
			tx := le.txs[i]
			if tx.Timestamp.Before(cut60) {
				break
			}
			if tx.Direction == domain.Buy {
				metrics.BuyVolumePerMin += tx.AmountSol
			}
		}
		switch v := metrics.BuyVolumePerMin; {
		case v > 2:
			scores.BondingCurveSpeed = 100
		case v > 1:
			scores.BondingCurveSpeed = 80
		case v > 0.5:
			scores.BondingCurveSpeed = 60
		case v > 0.2:
			scores.BondingCurveSpeed = 30
		}
		if scores.BondingCurveSpeed >= alertThreshold {
			alerts = append(alerts, fmt.Sprintf("bonding curve filling fast: %.2f SOL/min", metrics.BuyVolumePerMin))
		}
	}

	// Sell absence: current sell drought versus the token's own rhythm, gated
	// on concurrent activity so a dead token does not look bullish.
	gap := s.avgSellGapLocked(le, now)
	sinceLastSell := s.sinceLastSellLocked(le, now)
	activity := le.buys60s + le.sells60s
	if gap > 0 {
		metrics.SellGapRatio = sinceLastSell.Seconds() / gap.Seconds()
	}
	switch r := metrics.SellGapRatio; {
	case r > 5 && activity > 5:
		scores.SellPressureAbsence = 100
	case r > 3 && activity > 3:
		scores.SellPressureAbsence = 70
	case r > 2:
		scores.SellPressureAbsence = 40
	}
	if scores.SellPressureAbsence >= alertThreshold {
		alerts = append(alerts, fmt.Sprintf("sell pressure vanished: %.1fx the usual sell gap", metrics.SellGapRatio))
	}

	// Buy-size shift: recent average buy outgrowing the hourly baseline.
	if le.avgBuy1h > 0 {
		metrics.BuySizeRatio = le.avgBuy5m / le.avgBuy1h
	}
	switch r := metrics.BuySizeRatio; {
	case r > 4:
		scores.BuySizeShift = 100
	case r > 3:
		scores.BuySizeShift = 80
	case r > 2:
		scores.BuySizeShift = 60
	case r > 1.5:
		scores.BuySizeShift = 30
	}
	if scores.BuySizeShift >= alertThreshold {
		alerts = append(alerts, fmt.Sprintf("buy sizes growing: %.1fx the hourly average", metrics.BuySizeRatio))
	}

	w := postWeights
	if stage == domain.StagePreMigration {
		w = preWeights
	}
	composite := float64(scores.FreshWalletInflux)*w.fresh +
		float64(scores.WalletVelocity)*w.velocity +
		float64(scores.TxClustering)*w.clustering +
		float64(scores.BondingCurveSpeed)*w.curve +
		float64(scores.SellPressureAbsence)*w.sellAbsence +
		float64(scores.BuySizeShift)*w.buySize

	sig := &domain.PrePumpSignal{
		Mint:       mint,
		Scores:     scores,
		Metrics:    metrics,
		Composite:  int(math.Round(composite)),
		Stage:      stage,
		Alerts:     alerts,
		ComputedAt: now,
	}
	s.signals[mint] = sig

	if s.metrics != nil {
		s.metrics.SignalsCached.Set(float64(len(s.signals)))
	}
	return sig
}

// avgSellGapLocked is the mean gap between consecutive sells over the last
// hour, defaulting to one minute when fewer than two sells were observed.
func (s *Store) avgSellGapLocked(le *ledgerEntry, now time.Time) time.Duration {
	cut := now.Add(-time.Hour)
	var sells []time.Time
	for _, tx := range le.txs {
		if tx.Direction == domain.Sell && !tx.Timestamp.Before(cut) {
			sells = append(sells, tx.Timestamp)
		}
	}
	if len(sells) < 2 {
		return defaultSellGap
	}
	var total time.Duration
	for i := 1; i < len(sells); i++ {
		total += sells[i].Sub(sells[i-1])
	}
	return total / time.Duration(len(sells)-1)
}

// sinceLastSellLocked measures the current sell drought. A token that never
// sold is measured from its first recorded trade.
func (s *Store) sinceLastSellLocked(le *ledgerEntry, now time.Time) time.Duration {
	if !le.lastSell.IsZero() {
		return now.Sub(le.lastSell)
	}
	if len(le.txs) > 0 {
		return now.Sub(le.txs[0].Timestamp)
	}
	return 0
}
