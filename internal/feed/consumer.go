// Package feed consumes the external transaction-event stream over a
// websocket. The ingestion layer upstream is out of scope; this consumer only
// decodes its messages and feeds them into the pump store. Delivery is
// best-effort: duplicates and gaps are tolerated, malformed messages are
// dropped without mutating anything.
package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/solradar/solradar/internal/domain"
)

// Recorder is the slice of the pump store the consumer writes into.
type Recorder interface {
	Record(mint, wallet string, direction domain.TradeDirection, amountSol float64, signature string, ts time.Time)
	UpdateCurveBalance(mint string, balanceSol float64)
}

// Event is the wire envelope for both message kinds the feed delivers.
type Event struct {
	Type string `json:"type"` // "trade" or "curve"

	// Trade fields.
	Mint      string  `json:"mint"`
	Wallet    string  `json:"wallet"`
	Direction string  `json:"direction"`
	AmountSol float64 `json:"amountSol"`
	Signature string  `json:"signature"`
	Timestamp int64   `json:"timestamp"` // unix milliseconds

	// Curve fields.
	BalanceSol float64 `json:"balanceSol"`
}

const (
	reconnectBase = time.Second
	reconnectCap  = 30 * time.Second
	readTimeout   = 90 * time.Second
)

// Consumer maintains the websocket connection and dispatches events.
type Consumer struct {
	url      string
	recorder Recorder
	dialer   *websocket.Dialer
}

func NewConsumer(url string, recorder Recorder) *Consumer {
	return &Consumer{
		url:      url,
		recorder: recorder,
		dialer:   websocket.DefaultDialer,
	}
}

// Run connects and consumes until the context is cancelled, reconnecting with
// capped exponential backoff after any connection failure.
func (c *Consumer) Run(ctx context.Context) {
	backoff := reconnectBase
	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			log.Warn().Err(err).Str("url", c.url).Dur("retry_in", backoff).Msg("feed connect failed")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			if backoff *= 2; backoff > reconnectCap {
				backoff = reconnectCap
			}
			continue
		}

		log.Info().Str("url", c.url).Msg("feed connected")
		backoff = reconnectBase
		c.consume(ctx, conn)
		conn.Close()
	}
}

func (c *Consumer) consume(ctx context.Context, conn *websocket.Conn) {
	// Unblock the read loop when the context is cancelled.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Warn().Err(err).Msg("feed read failed, reconnecting")
			}
			return
		}
		c.Handle(payload)
	}
}

// Handle decodes and dispatches one raw message. Anything malformed or of an
// unknown type is dropped with a warning and no state change.
func (c *Consumer) Handle(payload []byte) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		log.Warn().Err(err).Msg("dropping undecodable feed message")
		return
	}

	switch ev.Type {
	case "trade":
		dir := domain.TradeDirection(ev.Direction)
		if ev.Mint == "" || ev.Wallet == "" || !dir.Valid() || ev.Timestamp <= 0 {
			log.Warn().Str("mint", ev.Mint).Str("direction", ev.Direction).Msg("dropping malformed trade event")
			return
		}
		c.recorder.Record(ev.Mint, ev.Wallet, dir, ev.AmountSol, ev.Signature, time.UnixMilli(ev.Timestamp))
	case "curve":
		if ev.Mint == "" {
			log.Warn().Msg("dropping curve update without mint")
			return
		}
		c.recorder.UpdateCurveBalance(ev.Mint, ev.BalanceSol)
	default:
		log.Warn().Str("type", ev.Type).Msg("dropping feed message of unknown type")
	}
}
