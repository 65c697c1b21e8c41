// Package api exposes the read-only HTTP surface: the ranked token query, the
// pre-pump signal lookups, store stats, health and Prometheus metrics. Every
// endpoint always answers with a value; a degraded backend means stale or
// empty data, never an error status.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/solradar/solradar/internal/domain"
	"github.com/solradar/solradar/internal/market"
	"github.com/solradar/solradar/internal/pump"
	"github.com/solradar/solradar/internal/telemetry"
)

// Config holds the listener settings.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server serves the query facade over gorilla/mux.
type Server struct {
	router *mux.Router
	server *http.Server

	accumulator *market.Accumulator
	store       *pump.Store
	metrics     *telemetry.Metrics
}

func NewServer(cfg Config, accumulator *market.Accumulator, store *pump.Store, metrics *telemetry.Metrics) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		accumulator: accumulator,
		store:       store,
		metrics:     metrics,
	}
	s.routes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) routes() {
	s.router.Use(requestID, accessLog)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/tokens", s.handleTokens).Methods(http.MethodGet)
	api.HandleFunc("/signals", s.handleHighSignals).Methods(http.MethodGet)
	api.HandleFunc("/signals/{mint}", s.handleSignal).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	}
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := intParam(q.Get("page"), 1)
	limit := intParam(q.Get("limit"), 20)
	if limit > 100 {
		limit = 100
	}
	key := market.SortKey(q.Get("sort"))
	if key == "" {
		key = market.SortTrending
	}

	writeJSON(w, s.accumulator.Query(r.Context(), page, limit, key))
}

func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	mint := mux.Vars(r)["mint"]
	writeJSON(w, struct {
		Mint   string                `json:"mint"`
		Signal *domain.PrePumpSignal `json:"signal"`
	}{Mint: mint, Signal: s.store.Signal(mint)})
}

func (s *Server) handleHighSignals(w http.ResponseWriter, r *http.Request) {
	minScore := intParam(r.URL.Query().Get("min"), 70)
	signals := s.store.HighSignals(minScore)
	writeJSON(w, struct {
		MinScore int                     `json:"minScore"`
		Signals  []*domain.PrePumpSignal `json:"signals"`
	}{MinScore: minScore, Signals: signals})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.store.Stats()
	writeJSON(w, struct {
		pump.Stats
		AccumulatedTokens int `json:"accumulatedTokens"`
	}{Stats: stats, AccumulatedTokens: s.accumulator.Len()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("response encode failed")
	}
}

func intParam(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request served")
	})
}
