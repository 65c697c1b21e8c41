package domain

import "time"

// Stage is the trading phase a token is scored under. Pre-migration tokens still
// trade on the bonding curve; post-migration tokens trade on a DEX pool.
type Stage string

const (
	StagePreMigration  Stage = "pre_migration"
	StagePostMigration Stage = "post_migration"
)

// SignalScores are the six pre-pump sub-scores, each 0-100.
type SignalScores struct {
	FreshWalletInflux   int `json:"freshWalletInflux"`
	WalletVelocity      int `json:"walletVelocity"`
	TxClustering        int `json:"txClustering"`
	BondingCurveSpeed   int `json:"bondingCurveSpeed"`
	SellPressureAbsence int `json:"sellPressureAbsence"`
	BuySizeShift        int `json:"buySizeShift"`
}

// SignalMetrics is the raw-measurement snapshot the sub-scores were derived from.
type SignalMetrics struct {
	FreshWalletRate   float64 `json:"freshWalletRate"`
	CoordinatedCount  int     `json:"coordinatedCount"`
	TxPer30s          int     `json:"txPer30s"`
	BuyVolumePerMin   float64 `json:"buyVolumePerMin"`
	SellGapRatio      float64 `json:"sellGapRatio"`
	BuySizeRatio      float64 `json:"buySizeRatio"`
	LedgerSize        int     `json:"ledgerSize"`
}

// PrePumpSignal is the weighted early-warning score for one token. It exists only
// once the token has at least five recorded transactions.
type PrePumpSignal struct {
	Mint       string        `json:"mint"`
	Scores     SignalScores  `json:"scores"`
	Metrics    SignalMetrics `json:"metrics"`
	Composite  int           `json:"composite"`
	Stage      Stage         `json:"stage"`
	Alerts     []string      `json:"alerts,omitempty"`
	ComputedAt time.Time     `json:"computedAt"`
}
