// Package ratelimit provides per-host rate limiting for the provider
// federation's shared HTTP client: a token bucket per host sized to a
// minimum interval, with an optional uniform jitter window on top for
// scrape-style endpoints.
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostConfig is a per-host policy: minimum interval between requests, plus
// an optional uniform jitter window added on top.
type HostConfig struct {
	MinInterval time.Duration
	JitterMin   time.Duration
	JitterMax   time.Duration
}

// Limiter rate-limits requests per host using a token bucket sized to
// MinInterval, with optional jitter sleeps layered on top.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	cfgs     map[string]HostConfig
	fallback HostConfig
}

func NewLimiter(fallback HostConfig) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		cfgs:     make(map[string]HostConfig),
		fallback: fallback,
	}
}

func (l *Limiter) Configure(host string, cfg HostConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfgs[host] = cfg
	delete(l.limiters, host) // rebuild lazily with new config
}

func (l *Limiter) getLimiter(host string) (*rate.Limiter, HostConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters[host]; ok {
		return lim, l.cfgs[host]
	}

	cfg, ok := l.cfgs[host]
	if !ok {
		cfg = l.fallback
		l.cfgs[host] = cfg
	}

	interval := cfg.MinInterval
	if interval <= 0 {
		interval = time.Millisecond
	}
	lim := rate.NewLimiter(rate.Every(interval), 1)
	l.limiters[host] = lim
	return lim, cfg
}

// Allow is a non-blocking check.
func (l *Limiter) Allow(host string) bool {
	lim, _ := l.getLimiter(host)
	return lim.Allow()
}

// Wait blocks until the host's token bucket admits the request, then sleeps
// an additional uniform jitter if configured.
func (l *Limiter) Wait(ctx context.Context, host string) error {
	lim, cfg := l.getLimiter(host)
	if err := lim.Wait(ctx); err != nil {
		return err
	}
	if cfg.JitterMax > cfg.JitterMin && cfg.JitterMax > 0 {
		span := cfg.JitterMax - cfg.JitterMin
		jitter := cfg.JitterMin + time.Duration(rand.Int63n(int64(span)))
		select {
		case <-time.After(jitter):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
