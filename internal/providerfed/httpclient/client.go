// Package httpclient is the provider federation's single shared path
// for every outbound call: budget check, circuit check, key selection,
// rate-limited HTTP call, transient-failure retry with exponential
// backoff, key rotation on 429/432, fingerprint rotation on 403/429 for
// scrape-style endpoints, then recording success/failure back to every
// component. The guard sequence is an explicit call chain rather than
// an http.RoundTripper middleware stack because the retry-with-next-key
// step needs to see the rotator and reissue the request, which a
// transport-level middleware can't express without re-entrant RoundTrip
// calls.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cicosss/earlybird/internal/providerfed/budget"
	"github.com/cicosss/earlybird/internal/providerfed/circuit"
	"github.com/cicosss/earlybird/internal/providerfed/keyrotator"
	"github.com/cicosss/earlybird/internal/providerfed/ratelimit"
)

// ErrBudget is returned when the budget manager refuses the call.
var ErrBudget = errors.New("provider call refused: budget")

// ErrCircuitOpen is returned when the circuit breaker refuses the call.
var ErrCircuitOpen = errors.New("provider call refused: circuit open")

// ErrNoKey is returned when the key rotator has no usable credential.
var ErrNoKey = errors.New("provider call refused: no active key")

// RequestBuilder constructs the outbound request given the currently
// active API key; it is re-invoked on every retry so a rotated key or
// fingerprint takes effect.
type RequestBuilder func(ctx context.Context, apiKey string) (*http.Request, error)

// FingerprintRotator supplies a new User-Agent/header fingerprint on
// demand, used for scrape-style endpoints that 403/429 a stale fingerprint.
type FingerprintRotator interface {
	Next() string
}

// RetryPolicy bounds the transient-failure loop. Zero values fall back
// to the defaults below.
type RetryPolicy struct {
	MaxAttempts int           // total attempts including the first
	BaseDelay   time.Duration // first backoff step
	MaxDelay    time.Duration // backoff ceiling
}

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
	defaultMaxDelay    = 8 * time.Second
)

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = defaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = defaultMaxDelay
	}
	return p
}

// Client is one provider's fully-guarded outbound path.
type Client struct {
	Provider    string
	Host        string
	Keys        *keyrotator.Rotator
	Budget      *budget.Tracker
	Circuit     *circuit.Breaker
	RateLimiter *ratelimit.Limiter
	HTTP        *http.Client
	Fingerprint FingerprintRotator
	Retry       RetryPolicy

	fpMu sync.Mutex
	fp   string // current fingerprint, advanced only on 403/429
}

// Result is the outcome of a guarded call that got a usable response.
type Result struct {
	StatusCode int
	Body       []byte
}

// failureClass buckets an attempt error by the recovery it permits.
type failureClass int

const (
	failFatal       failureClass = iota
	failTransient                // 503, timeout, connection error
	failExhaustedKey             // 429, 432
	failFingerprint              // 403 on a scrape-style endpoint
)

// Do executes build through the full guarded recipe. Transient failures
// retry with exponential backoff and jitter up to the policy's attempt
// budget; 429/432 additionally rotates to the next key (and the
// fingerprint, when one is configured) before the retry; 403 retries
// only when a fingerprint rotator can change what the server sees.
func (c *Client) Do(ctx context.Context, component string, isCritical bool, build RequestBuilder) (*Result, error) {
	if c.Budget != nil && !c.Budget.CanCall(component, isCritical) {
		return nil, ErrBudget
	}
	if c.Circuit != nil && !c.Circuit.ShouldAllow() {
		return nil, ErrCircuitOpen
	}

	policy := c.Retry.withDefaults()

	var res *Result
	var err error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if sleepErr := backoffSleep(ctx, policy, attempt-1); sleepErr != nil {
				err = sleepErr
				break
			}
		}

		res, err = c.attempt(ctx, build)
		if err == nil {
			break
		}

		switch classifyFailure(err) {
		case failTransient:
			// Backoff alone is the recovery.
		case failExhaustedKey:
			c.rotateFingerprint()
			if c.Keys != nil {
				c.Keys.MarkExhausted(-1)
				if !c.Keys.RotateToNext() {
					attempt = policy.MaxAttempts // pool drained; no point retrying
				}
			}
		case failFingerprint:
			if c.Fingerprint == nil {
				attempt = policy.MaxAttempts
			}
			c.rotateFingerprint()
		default:
			attempt = policy.MaxAttempts
		}
	}

	if err != nil {
		if c.Circuit != nil {
			c.Circuit.ReportFailure()
		}
		return nil, err
	}

	if c.Circuit != nil {
		c.Circuit.ReportSuccess()
	}
	if c.Keys != nil {
		c.Keys.RecordCall()
	}
	if c.Budget != nil {
		c.Budget.RecordCall(component)
	}
	return res, nil
}

// backoffSleep waits base*2^(retry-1) capped at the ceiling, with full
// jitter down to half the step so synchronized callers fan out.
func backoffSleep(ctx context.Context, policy RetryPolicy, retry int) error {
	delay := policy.BaseDelay << (retry - 1)
	if delay > policy.MaxDelay || delay <= 0 {
		delay = policy.MaxDelay
	}
	delay = delay/2 + time.Duration(rand.Int63n(int64(delay/2)+1))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type statusError struct {
	status int
}

func (e *statusError) Error() string { return fmt.Sprintf("provider returned HTTP %d", e.status) }

func classifyFailure(err error) failureClass {
	var se *statusError
	if errors.As(err, &se) {
		switch se.status {
		case 429, 432:
			return failExhaustedKey
		case 403:
			return failFingerprint
		case 503:
			return failTransient
		}
		return failFatal
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failTransient
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return failTransient
	}
	var oe *net.OpError // connection refused/reset and friends
	if errors.As(err, &oe) {
		return failTransient
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return failTransient
	}
	return failFatal
}

// currentFingerprint returns the fingerprint in effect, drawing the
// first one lazily. It only changes via rotateFingerprint.
func (c *Client) currentFingerprint() string {
	if c.Fingerprint == nil {
		return "EarlyBird/1.0 (+respectful polling)"
	}
	c.fpMu.Lock()
	defer c.fpMu.Unlock()
	if c.fp == "" {
		c.fp = c.Fingerprint.Next()
	}
	return c.fp
}

func (c *Client) rotateFingerprint() {
	if c.Fingerprint == nil {
		return
	}
	c.fpMu.Lock()
	c.fp = c.Fingerprint.Next()
	c.fpMu.Unlock()
}

func (c *Client) attempt(ctx context.Context, build RequestBuilder) (*Result, error) {
	apiKey := ""
	if c.Keys != nil {
		key, ok := c.Keys.Current()
		if !ok {
			return nil, ErrNoKey
		}
		apiKey = key
	}

	if c.RateLimiter != nil {
		if err := c.RateLimiter.Wait(ctx, c.Host); err != nil {
			return nil, err
		}
	}

	req, err := build(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.currentFingerprint())
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case 403, 429, 432, 503:
		return nil, &statusError{status: resp.StatusCode}
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("provider %s: http %d", c.Provider, resp.StatusCode)
	}

	return &Result{StatusCode: resp.StatusCode, Body: body}, nil
}

// DefaultHTTPClient builds a conservative shared *http.Client: bounded
// per-request timeout, no cookie jar, connection reuse via the default
// transport.
func DefaultHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
