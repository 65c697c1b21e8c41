package domain

import "time"

// TradeDirection tags a trade event as a buy or a sell.
type TradeDirection string

const (
	Buy  TradeDirection = "buy"
	Sell TradeDirection = "sell"
)

// Valid reports whether the direction is one of the two known values.
func (d TradeDirection) Valid() bool {
	return d == Buy || d == Sell
}

// TxRecord is one observed trade delivered by the ingestion feed.
type TxRecord struct {
	Mint      string         `json:"mint"`
	Wallet    string         `json:"wallet"`
	Direction TradeDirection `json:"direction"`
	AmountSol float64        `json:"amountSol"`
	Signature string         `json:"signature"`
	Timestamp time.Time      `json:"timestamp"`

	// IsFreshWallet is fixed at insert time: the wallet was first seen within
	// the last 24h, or this is its first trade on this mint.
	IsFreshWallet bool `json:"isFreshWallet"`
}
