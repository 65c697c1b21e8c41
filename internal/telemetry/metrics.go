// Package telemetry holds the Prometheus metrics registry for the service.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every collector the service exposes on /metrics.
type Metrics struct {
	FetchTotal    *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec

	TokensTracked  prometheus.Gauge
	WalletsTracked prometheus.Gauge
	SignalsCached  prometheus.Gauge

	TradesIngested *prometheus.CounterVec
	SweepEvictions *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics builds and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solradar_fetch_total",
				Help: "Market-data fetch attempts by source and result",
			},
			[]string{"source", "result"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solradar_fetch_duration_seconds",
				Help:    "Market-data fetch duration by source",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
			},
			[]string{"source"},
		),
		TokensTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "solradar_tokens_tracked",
			Help: "Tokens currently held in the accumulator",
		}),
		WalletsTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "solradar_wallets_tracked",
			Help: "Wallets currently held in the activity index",
		}),
		SignalsCached: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "solradar_signals_cached",
			Help: "Pre-pump signals currently cached",
		}),
		TradesIngested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solradar_trades_ingested_total",
				Help: "Trade events recorded by direction",
			},
			[]string{"direction"},
		),
		SweepEvictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solradar_sweep_evictions_total",
				Help: "Entries evicted by the retention sweeper by kind",
			},
			[]string{"kind"},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.FetchTotal,
		m.FetchDuration,
		m.TokensTracked,
		m.WalletsTracked,
		m.SignalsCached,
		m.TradesIngested,
		m.SweepEvictions,
	)
	return m
}

// Registry returns the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
