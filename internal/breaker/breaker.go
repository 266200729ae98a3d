// Package breaker wraps sony/gobreaker for the AI federation's
// members. AI calls ride this library breaker on top of the hand-rolled
// internal/providerfed/circuit state machine that the shared httpclient
// applies to every provider, AI included, so long, expensive completions
// get a second guard that cheap idempotent fetches do not.
package breaker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// Manager owns one gobreaker.CircuitBreaker per AI provider.
type Manager struct {
	breakers map[string]*gobreaker.CircuitBreaker
	log      zerolog.Logger
}

func NewManager(log zerolog.Logger) *Manager {
	return &Manager{breakers: make(map[string]*gobreaker.CircuitBreaker), log: log}
}

// Add registers a breaker for name, tripping after consecutiveFailures in
// a row and probing again after interval in the open state.
func (m *Manager) Add(name string, consecutiveFailures uint32, interval time.Duration) {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     interval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			m.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("ai breaker state change")
		},
	}
	m.breakers[name] = gobreaker.NewCircuitBreaker(settings)
}

// Execute runs fn through the named breaker if one exists, or runs it
// unguarded if Add was never called for that name.
func (m *Manager) Execute(ctx context.Context, name string, fn func() (any, error)) (any, error) {
	b, ok := m.breakers[name]
	if !ok {
		return fn()
	}
	return b.Execute(fn)
}
