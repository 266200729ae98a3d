// Package circuit implements the provider federation's per-provider
// circuit breaker: a three-state machine (closed/open/half-open)
// guarding a single provider operation. Repeated failures open the
// breaker; after the recovery interval a trial call decides whether it
// closes again.
package circuit

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Call when the breaker is open.
var ErrOpen = errors.New("circuit breaker is open")

// State is a closed three-state enumeration.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "CLOSED"
	case Open:
		return "OPEN"
	case HalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config parameterizes one breaker; values come from configuration.
type Config struct {
	FailureThreshold int
	SuccessThreshold int
	RecoveryInterval time.Duration
}

// Breaker guards a single provider operation.
type Breaker struct {
	mu sync.Mutex

	cfg Config

	state            State
	consecutiveFails int
	consecutiveOK    int
	lastFailure      time.Time
	lastTransition   time.Time
}

func New(cfg Config) *Breaker {
	return &Breaker{cfg: cfg, state: Closed, lastTransition: time.Now()}
}

// ShouldAllow reports whether a call should be attempted right now. A call
// in OPEN state that discovers the recovery interval has elapsed
// transitions to HALF_OPEN and is allowed through as the trial call.
func (b *Breaker) ShouldAllow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed, HalfOpen:
		return true
	case Open:
		if time.Since(b.lastFailure) >= b.cfg.RecoveryInterval {
			b.transition(HalfOpen)
			return true
		}
		return false
	default:
		return false
	}
}

// ReportSuccess records a successful call.
func (b *Breaker) ReportSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.consecutiveFails = 0
	case HalfOpen:
		b.consecutiveOK++
		if b.consecutiveOK >= b.cfg.SuccessThreshold {
			b.transition(Closed)
		}
	}
}

// ReportFailure records a failed call.
func (b *Breaker) ReportFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = time.Now()

	switch b.state {
	case Closed:
		b.consecutiveFails++
		if b.consecutiveFails >= b.cfg.FailureThreshold {
			b.transition(Open)
		}
	case HalfOpen:
		b.transition(Open)
	}
}

func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	b.state = to
	b.lastTransition = time.Now()
	b.consecutiveFails = 0
	b.consecutiveOK = 0
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Call is a convenience wrapper that runs fn only if ShouldAllow, and
// reports the outcome back to the breaker.
func (b *Breaker) Call(fn func() error) error {
	if !b.ShouldAllow() {
		return ErrOpen
	}
	err := fn()
	if err != nil {
		b.ReportFailure()
		return err
	}
	b.ReportSuccess()
	return nil
}

// Manager owns one Breaker per provider.
type Manager struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	cfg      Config
}

// NewManager builds a manager that lazily creates breakers with a shared
// default config; call AddProvider to override per provider.
func NewManager(defaultCfg Config) *Manager {
	return &Manager{breakers: make(map[string]*Breaker), cfg: defaultCfg}
}

func (m *Manager) AddProvider(name string, cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.breakers[name] = New(cfg)
}

func (m *Manager) Breaker(name string) *Breaker {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.breakers[name]
	if !ok {
		b = New(m.cfg)
		m.breakers[name] = b
	}
	return b
}

func (m *Manager) States() map[string]State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]State, len(m.breakers))
	for name, b := range m.breakers {
		out[name] = b.State()
	}
	return out
}
