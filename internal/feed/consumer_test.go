package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solradar/solradar/internal/domain"
)

type recordedTrade struct {
	mint      string
	wallet    string
	direction domain.TradeDirection
	amountSol float64
	signature string
	ts        time.Time
}

type fakeRecorder struct {
	trades []recordedTrade
	curves map[string]float64
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{curves: make(map[string]float64)}
}

func (f *fakeRecorder) Record(mint, wallet string, direction domain.TradeDirection, amountSol float64, signature string, ts time.Time) {
	f.trades = append(f.trades, recordedTrade{mint, wallet, direction, amountSol, signature, ts})
}

func (f *fakeRecorder) UpdateCurveBalance(mint string, balanceSol float64) {
	f.curves[mint] = balanceSol
}

func TestHandle_TradeEvent(t *testing.T) {
	rec := newFakeRecorder()
	c := NewConsumer("ws://unused", rec)

	c.Handle([]byte(`{"type":"trade","mint":"MintA","wallet":"WalletA","direction":"buy","amountSol":1.5,"signature":"sig1","timestamp":1767268800000}`))

	require.Len(t, rec.trades, 1)
	got := rec.trades[0]
	assert.Equal(t, "MintA", got.mint)
	assert.Equal(t, "WalletA", got.wallet)
	assert.Equal(t, domain.Buy, got.direction)
	assert.Equal(t, 1.5, got.amountSol)
	assert.Equal(t, int64(1767268800000), got.ts.UnixMilli())
}

func TestHandle_CurveEvent(t *testing.T) {
	rec := newFakeRecorder()
	c := NewConsumer("ws://unused", rec)

	c.Handle([]byte(`{"type":"curve","mint":"MintA","balanceSol":42.5}`))

	assert.Equal(t, 42.5, rec.curves["MintA"])
	assert.Empty(t, rec.trades)
}

func TestHandle_DropsMalformedWithoutMutation(t *testing.T) {
	rec := newFakeRecorder()
	c := NewConsumer("ws://unused", rec)

	for _, payload := range []string{
		`not json at all`,
		`{"type":"trade"}`,
		`{"type":"trade","mint":"MintA","wallet":"W","direction":"hold","amountSol":1,"timestamp":1}`,
		`{"type":"trade","mint":"MintA","wallet":"W","direction":"buy","amountSol":1}`,
		`{"type":"curve"}`,
		`{"type":"unknown","mint":"MintA"}`,
	} {
		c.Handle([]byte(payload))
	}

	assert.Empty(t, rec.trades)
	assert.Empty(t, rec.curves)
}
