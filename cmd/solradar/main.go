package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/solradar/solradar/internal/api"
	"github.com/solradar/solradar/internal/config"
	"github.com/solradar/solradar/internal/feed"
	"github.com/solradar/solradar/internal/httpclient"
	"github.com/solradar/solradar/internal/market"
	"github.com/solradar/solradar/internal/pump"
	"github.com/solradar/solradar/internal/sources"
	"github.com/solradar/solradar/internal/telemetry"
)

const (
	appName = "solradar"
	version = "v1.0.0"
)

func main() {
	setupLogging()

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Solana token radar: multi-source market fusion and pre-pump signals",
		Version: version,
	}

	var configPath string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the fusion service and HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	serveCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func setupLogging() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	if level := os.Getenv("SOLRADAR_LOG_LEVEL"); level != "" {
		if l, err := zerolog.ParseLevel(level); err == nil {
			zerolog.SetGlobalLevel(l)
		}
	}
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	metrics := telemetry.NewMetrics()
	pool := httpclient.NewPool(cfg.Client)

	srcs := []sources.Source{
		sources.NewDexScreenerPairs(pool, metrics, cfg.Sources.DexScreenerPairs),
		sources.NewDexScreenerProfiles(pool, metrics, cfg.Sources.DexScreenerProfiles),
		sources.NewDexScreenerBoosts(pool, metrics, cfg.Sources.DexScreenerBoosts),
		sources.NewPumpFun(pool, metrics, cfg.Sources.PumpFun),
		sources.NewGeckoTerminal(pool, metrics, cfg.Sources.GeckoTerminal),
	}

	store := pump.NewStore(cfg.Pump, metrics)
	accumulator := market.NewAccumulator(cfg.Market, srcs, store, metrics)
	store.SetStageResolver(accumulator)
	store.RunSweeper()
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Feed.Enabled {
		consumer := feed.NewConsumer(cfg.Feed.URL, store)
		go consumer.Run(ctx)
	}

	server := api.NewServer(api.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, accumulator, store, metrics)

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	log.Info().Str("version", version).Int("sources", len(srcs)).Msg("solradar started")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
