// Package config loads the service configuration: compiled-in defaults,
// optionally overridden by a YAML file, then by environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/solradar/solradar/internal/httpclient"
	"github.com/solradar/solradar/internal/market"
	"github.com/solradar/solradar/internal/pump"
)

// Duration decodes YAML durations written as Go duration strings ("30s",
// "2h") or as plain nanosecond integers.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration node: %w", err)
	}
	*d = Duration(n)
	return nil
}

// SourceIntervals holds the minimum call interval per provider.
type SourceIntervals struct {
	DexScreenerPairs    time.Duration
	DexScreenerProfiles time.Duration
	DexScreenerBoosts   time.Duration
	PumpFun             time.Duration
	GeckoTerminal       time.Duration
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// FeedConfig holds the ingestion-feed connection settings.
type FeedConfig struct {
	URL     string
	Enabled bool
}

// Config is the root configuration.
type Config struct {
	Server  ServerConfig
	Sources SourceIntervals
	Client  httpclient.Config
	Market  market.Config
	Pump    pump.Config
	Feed    FeedConfig
}

// Default returns the production defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Sources: SourceIntervals{
			DexScreenerPairs:    10 * time.Second,
			DexScreenerProfiles: time.Minute,
			DexScreenerBoosts:   time.Minute,
			PumpFun:             30 * time.Second,
			GeckoTerminal:       time.Minute,
		},
		Client: httpclient.DefaultConfig(),
		Market: market.DefaultConfig(),
		Pump:   pump.DefaultConfig(),
		Feed: FeedConfig{
			URL:     "ws://127.0.0.1:9090/events",
			Enabled: true,
		},
	}
}

// fileConfig is the YAML-facing shape. Pointers distinguish "absent" from
// "zero" so a partial file overrides only what it names.
type fileConfig struct {
	Server struct {
		Host         *string   `yaml:"host"`
		Port         *int      `yaml:"port"`
		ReadTimeout  *Duration `yaml:"read_timeout"`
		WriteTimeout *Duration `yaml:"write_timeout"`
		IdleTimeout  *Duration `yaml:"idle_timeout"`
	} `yaml:"server"`
	Sources struct {
		DexScreenerPairs    *Duration `yaml:"dexscreener_pairs"`
		DexScreenerProfiles *Duration `yaml:"dexscreener_profiles"`
		DexScreenerBoosts   *Duration `yaml:"dexscreener_boosts"`
		PumpFun             *Duration `yaml:"pumpfun"`
		GeckoTerminal       *Duration `yaml:"geckoterminal"`
	} `yaml:"sources"`
	Market struct {
		Staleness *Duration `yaml:"staleness"`
	} `yaml:"market"`
	Pump struct {
		MaxLedger       *int      `yaml:"max_ledger"`
		Retention       *Duration `yaml:"retention"`
		SweepInterval   *Duration `yaml:"sweep_interval"`
		MinTransactions *int      `yaml:"min_transactions"`
		FreshWalletAge  *Duration `yaml:"fresh_wallet_age"`
	} `yaml:"pump"`
	Feed struct {
		URL     *string `yaml:"url"`
		Enabled *bool   `yaml:"enabled"`
	} `yaml:"feed"`
}

func (f *fileConfig) apply(cfg *Config) {
	setStr(&cfg.Server.Host, f.Server.Host)
	setInt(&cfg.Server.Port, f.Server.Port)
	setDur(&cfg.Server.ReadTimeout, f.Server.ReadTimeout)
	setDur(&cfg.Server.WriteTimeout, f.Server.WriteTimeout)
	setDur(&cfg.Server.IdleTimeout, f.Server.IdleTimeout)

	setDur(&cfg.Sources.DexScreenerPairs, f.Sources.DexScreenerPairs)
	setDur(&cfg.Sources.DexScreenerProfiles, f.Sources.DexScreenerProfiles)
	setDur(&cfg.Sources.DexScreenerBoosts, f.Sources.DexScreenerBoosts)
	setDur(&cfg.Sources.PumpFun, f.Sources.PumpFun)
	setDur(&cfg.Sources.GeckoTerminal, f.Sources.GeckoTerminal)

	setDur(&cfg.Market.Staleness, f.Market.Staleness)

	setInt(&cfg.Pump.MaxLedger, f.Pump.MaxLedger)
	setDur(&cfg.Pump.Retention, f.Pump.Retention)
	setDur(&cfg.Pump.SweepInterval, f.Pump.SweepInterval)
	setInt(&cfg.Pump.MinTransactions, f.Pump.MinTransactions)
	setDur(&cfg.Pump.FreshWalletAge, f.Pump.FreshWalletAge)

	setStr(&cfg.Feed.URL, f.Feed.URL)
	if f.Feed.Enabled != nil {
		cfg.Feed.Enabled = *f.Feed.Enabled
	}
}

func setStr(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setDur(dst *time.Duration, src *Duration) {
	if src != nil {
		*dst = time.Duration(*src)
	}
}

// Load builds the configuration from defaults, the optional YAML file at path,
// and environment overrides, in that order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		fc.apply(&cfg)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if host := os.Getenv("SOLRADAR_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("SOLRADAR_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if url := os.Getenv("SOLRADAR_FEED_URL"); url != "" {
		cfg.Feed.URL = url
	}
}
