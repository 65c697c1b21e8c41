// Package httpclient provides the pooled HTTP client shared by every market-data
// source: bounded concurrency, a hard per-request timeout and per-host token
// bucket smoothing so no provider gets hammered in a burst.
package httpclient

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Config struct {
	MaxConcurrency int
	RequestTimeout time.Duration
	HostRPS        float64
	HostBurst      int
	UserAgent      string
}

func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		RequestTimeout: 12 * time.Second,
		HostRPS:        2.0,
		HostBurst:      2,
		UserAgent:      "solradar/1.0",
	}
}

type Pool struct {
	config    Config
	semaphore chan struct{}
	client    *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewPool(config Config) *Pool {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 1
	}
	return &Pool{
		config:    config,
		semaphore: make(chan struct{}, config.MaxConcurrency),
		client:    &http.Client{Timeout: config.RequestTimeout},
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Do executes the request under the pool's concurrency and per-host rate limits.
// The context bounds the whole wait+request; the client timeout additionally hard
// bounds the request itself.
func (p *Pool) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	select {
	case p.semaphore <- struct{}{}:
		defer func() { <-p.semaphore }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := p.limiter(req.URL.Host).Wait(ctx); err != nil {
		return nil, err
	}

	if p.config.UserAgent != "" {
		req.Header.Set("User-Agent", p.config.UserAgent)
	}
	return p.client.Do(req.WithContext(ctx))
}

func (p *Pool) limiter(host string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if l, ok := p.limiters[host]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(p.config.HostRPS), p.config.HostBurst)
	p.limiters[host] = l
	return l
}
