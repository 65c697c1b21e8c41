package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solradar/solradar/internal/domain"
	"github.com/solradar/solradar/internal/market"
	"github.com/solradar/solradar/internal/pump"
	"github.com/solradar/solradar/internal/telemetry"
)

func testServer(t *testing.T) (*Server, *market.Accumulator, *pump.Store) {
	t.Helper()

	store := pump.NewStore(pump.DefaultConfig(), nil)
	accumulator := market.NewAccumulator(market.DefaultConfig(), nil, store, nil)
	store.SetStageResolver(accumulator)

	s := NewServer(Config{
		Host:         "127.0.0.1",
		Port:         0,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		IdleTimeout:  time.Second,
	}, accumulator, store, telemetry.NewMetrics())
	return s, accumulator, store
}

func doGet(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHandleTokens_Pagination(t *testing.T) {
	s, accumulator, _ := testServer(t)

	batch := make([]domain.TokenSnapshot, 0, 25)
	for i := 1; i <= 25; i++ {
		batch = append(batch, domain.TokenSnapshot{
			Mint:      fmt.Sprintf("Mint%02d", i),
			Volume24h: float64(i * 1000),
		})
	}
	accumulator.MergeAll(batch)

	w := doGet(t, s, "/api/tokens?page=2&limit=10&sort=volume")
	require.Equal(t, http.StatusOK, w.Code)

	var res market.QueryResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 25, res.Total)
	assert.True(t, res.HasMore)
	require.Len(t, res.Tokens, 10)
	assert.Equal(t, float64(15000), res.Tokens[0].Volume24h)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHandleSignal_AbsentIsNullNotError(t *testing.T) {
	s, _, _ := testServer(t)

	w := doGet(t, s, "/api/signals/UnknownMint")
	require.Equal(t, http.StatusOK, w.Code, "an absent signal is a value, not an error")

	var res struct {
		Mint   string                `json:"mint"`
		Signal *domain.PrePumpSignal `json:"signal"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "UnknownMint", res.Mint)
	assert.Nil(t, res.Signal)
}

func TestHandleSignal_ReturnsCached(t *testing.T) {
	s, _, store := testServer(t)

	now := time.Now()
	for i := 0; i < 6; i++ {
		store.Record("MintA", fmt.Sprintf("w-%d", i), domain.Buy, 1, fmt.Sprintf("sig-%d", i), now)
	}
	require.NotNil(t, store.Compute("MintA", domain.StagePostMigration))

	w := doGet(t, s, "/api/signals/MintA")
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Signal *domain.PrePumpSignal `json:"signal"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.NotNil(t, res.Signal)
	assert.Equal(t, "MintA", res.Signal.Mint)
}

func TestHandleHighSignals(t *testing.T) {
	s, _, store := testServer(t)

	now := time.Now()
	for i := 0; i < 22; i++ {
		store.Record("Hot", fmt.Sprintf("w-%d", i), domain.Buy, 1, fmt.Sprintf("sig-%d", i), now)
	}

	w := doGet(t, s, "/api/signals?min=10")
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		MinScore int                     `json:"minScore"`
		Signals  []*domain.PrePumpSignal `json:"signals"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 10, res.MinScore)
	require.NotEmpty(t, res.Signals)
	assert.Equal(t, "Hot", res.Signals[0].Mint)
}

func TestHandleStats(t *testing.T) {
	s, accumulator, store := testServer(t)

	accumulator.MergeAll([]domain.TokenSnapshot{{Mint: "MintA"}})
	store.Record("MintA", "w-1", domain.Buy, 1, "sig-1", time.Now())

	w := doGet(t, s, "/api/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		WalletsTracked    int `json:"walletsTracked"`
		TokensTracked     int `json:"tokensTracked"`
		AccumulatedTokens int `json:"accumulatedTokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 1, res.WalletsTracked)
	assert.Equal(t, 1, res.TokensTracked)
	assert.Equal(t, 1, res.AccumulatedTokens)
}

func TestHealthAndMetrics(t *testing.T) {
	s, _, _ := testServer(t)

	assert.Equal(t, http.StatusOK, doGet(t, s, "/healthz").Code)
	assert.Equal(t, http.StatusOK, doGet(t, s, "/metrics").Code)
}
