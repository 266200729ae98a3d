// Package keyrotator implements the Provider Federation's key pool: a set
// of credentials for one provider, with per-key exhaustion tracking and a
// lazy monthly reset triggered from rotation itself rather than a timer.
package keyrotator

import (
	"sync"
	"time"
)

// Rotator owns one provider's pool of API keys.
type Rotator struct {
	mu            sync.Mutex
	keys          []string
	exhausted     []bool
	monthlyUsage  []int64
	active        int
	lastResetMon  time.Month
	lastResetYear int
}

// New builds a rotator over the given keys. An empty pool is valid; current()
// then always reports none.
func New(keys []string) *Rotator {
	now := time.Now().UTC()
	return &Rotator{
		keys:          append([]string(nil), keys...),
		exhausted:     make([]bool, len(keys)),
		monthlyUsage:  make([]int64, len(keys)),
		active:        0,
		lastResetMon:  now.Month(),
		lastResetYear: now.Year(),
	}
}

// Current returns the active key, or ("", false) if the pool is empty or
// every key is exhausted.
func (r *Rotator) Current() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current()
}

func (r *Rotator) current() (string, bool) {
	if len(r.keys) == 0 {
		return "", false
	}
	if r.exhausted[r.active] {
		return "", false
	}
	return r.keys[r.active], true
}

// MarkExhausted flags a key exhausted and tries to advance the active index
// to the next non-exhausted key. index < 0 means "the currently active key".
func (r *Rotator) MarkExhausted(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.keys) == 0 {
		return
	}
	if index < 0 {
		index = r.active
	}
	if index >= len(r.keys) {
		return
	}
	r.exhausted[index] = true
	if index == r.active {
		r.advance()
	}
}

// advance moves the active index forward modulo pool size until it finds a
// non-exhausted key, or leaves it pointing at an exhausted key if all are
// exhausted (current() then reports none).
func (r *Rotator) advance() {
	n := len(r.keys)
	for i := 1; i <= n; i++ {
		next := (r.active + i) % n
		if !r.exhausted[next] {
			r.active = next
			return
		}
	}
}

// RotateToNext advances one step. If every key is now exhausted it attempts
// a lazy monthly reset (only if a calendar month boundary has been crossed
// since the last reset) and reports whether the reset (and thus the
// rotation) succeeded.
func (r *Rotator) RotateToNext() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.keys) == 0 {
		return false
	}

	r.advance()
	if _, ok := r.current(); ok {
		return true
	}

	// All exhausted: try the lazy monthly reset.
	now := time.Now().UTC()
	if now.Year() > r.lastResetYear || (now.Year() == r.lastResetYear && now.Month() > r.lastResetMon) {
		r.resetAllLocked(now)
		return true
	}
	return false
}

// RecordCall increments the active key's monthly usage counter.
func (r *Rotator) RecordCall() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.keys) == 0 {
		return
	}
	r.monthlyUsage[r.active]++
}

// ResetAll clears every exhausted flag and usage counter, and stamps the
// reset month as the current one.
func (r *Rotator) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetAllLocked(time.Now().UTC())
}

func (r *Rotator) resetAllLocked(now time.Time) {
	for i := range r.exhausted {
		r.exhausted[i] = false
		r.monthlyUsage[i] = 0
	}
	r.active = 0
	r.lastResetMon = now.Month()
	r.lastResetYear = now.Year()
}

// Status is a read-only snapshot for health/ops endpoints.
type Status struct {
	PoolSize     int
	ActiveIndex  int
	AnyAvailable bool
	MonthlyUsage []int64
	Exhausted    []bool
}

func (r *Rotator) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.current()
	return Status{
		PoolSize:     len(r.keys),
		ActiveIndex:  r.active,
		AnyAvailable: ok,
		MonthlyUsage: append([]int64(nil), r.monthlyUsage...),
		Exhausted:    append([]bool(nil), r.exhausted...),
	}
}
