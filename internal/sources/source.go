// Package sources contains one adapter per external market-data provider. Every
// adapter is independently rate limited and fault isolated: Fetch never returns
// an error, failures degrade to an empty contribution and grow the adapter's
// backoff, and no adapter shares mutable state with another.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/solradar/solradar/internal/domain"
	"github.com/solradar/solradar/internal/httpclient"
	"github.com/solradar/solradar/internal/telemetry"
)

// Source is one external provider of token snapshots.
type Source interface {
	Name() string
	// Fetch returns the provider's current batch, or nil on any failure or
	// while the backoff gate is closed. It never returns an error.
	Fetch(ctx context.Context) []domain.TokenSnapshot
}

const (
	backoffStep = time.Second
	backoffCap  = 30 * time.Second
)

// Gate enforces the per-source call cadence: a call is allowed once the time
// since the previous call reaches the source's minimum interval plus one second
// per consecutive failure, capped at 30s extra. A success resets the penalty.
type Gate struct {
	mu          sync.Mutex
	minInterval time.Duration
	lastCall    time.Time
	failures    int
}

func NewGate(minInterval time.Duration) *Gate {
	return &Gate{minInterval: minInterval}
}

// RequiredWait returns the full interval currently demanded between calls.
func (g *Gate) RequiredWait() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requiredWaitLocked()
}

func (g *Gate) requiredWaitLocked() time.Duration {
	extra := time.Duration(g.failures) * backoffStep
	if extra > backoffCap {
		extra = backoffCap
	}
	return g.minInterval + extra
}

// Allow reports whether a call may happen now and, if so, stamps it.
func (g *Gate) Allow(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.lastCall.IsZero() && now.Sub(g.lastCall) < g.requiredWaitLocked() {
		return false
	}
	g.lastCall = now
	return true
}

// Success resets the consecutive-failure penalty.
func (g *Gate) Success() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures = 0
}

// Failure grows the penalty by one step.
func (g *Gate) Failure() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures++
}

// Failures returns the current consecutive-failure count.
func (g *Gate) Failures() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failures
}

// errGateClosed marks a skipped cycle; it is not a provider failure.
var errGateClosed = fmt.Errorf("source gate closed")

// client is the shared plumbing every adapter embeds: gate, circuit breaker,
// pooled HTTP client and fetch telemetry.
type client struct {
	name    string
	gate    *Gate
	breaker *gobreaker.CircuitBreaker
	pool    *httpclient.Pool
	metrics *telemetry.Metrics
	timeout time.Duration
	now     func() time.Time
}

func newClient(name string, minInterval time.Duration, pool *httpclient.Pool, metrics *telemetry.Metrics) client {
	return client{
		name: name,
		gate: NewGate(minInterval),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     backoffCap,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 8
			},
		}),
		pool:    pool,
		metrics: metrics,
		timeout: 12 * time.Second,
		now:     time.Now,
	}
}

// getJSON performs one gated, breaker-guarded GET and decodes the body into out.
// Any failure counts against the gate; a closed gate does not.
func (c *client) getJSON(ctx context.Context, url string, out any) error {
	if !c.gate.Allow(c.now()) {
		return errGateClosed
	}

	start := c.now()
	_, err := c.breaker.Execute(func() (any, error) {
		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.pool.Do(reqCtx, req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			return nil, fmt.Errorf("http %d from %s", resp.StatusCode, c.name)
		}
		return nil, json.NewDecoder(resp.Body).Decode(out)
	})

	if c.metrics != nil {
		c.metrics.FetchDuration.WithLabelValues(c.name).Observe(c.now().Sub(start).Seconds())
	}

	if err != nil {
		c.gate.Failure()
		if c.metrics != nil {
			c.metrics.FetchTotal.WithLabelValues(c.name, "error").Inc()
		}
		log.Warn().Err(err).Str("source", c.name).Int("failures", c.gate.Failures()).Msg("source fetch failed")
		return err
	}

	c.gate.Success()
	if c.metrics != nil {
		c.metrics.FetchTotal.WithLabelValues(c.name, "ok").Inc()
	}
	return nil
}
