// Package leagues is the scheduling brain: it decides which leagues
// each polling cycle covers. Tier 1 is always in; Tier 2 rotates in
// small batches behind a cursor; an optional follow-the-sun config
// narrows the candidates to leagues whose matches actually happen at
// this hour; and a fallback promoter widens coverage after a run of
// cycles with no alerts.
package leagues

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// HourRange is one [From, To) window of UTC hours. From > To wraps
// around midnight.
type HourRange struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

// Contains reports whether the window covers the given UTC hour.
func (h HourRange) Contains(hour int) bool {
	if h.From == h.To {
		return true
	}
	if h.From < h.To {
		return hour >= h.From && hour < h.To
	}
	return hour >= h.From || hour < h.To
}

// Config is the YAML-loaded league layout.
type Config struct {
	Tier1 []string `yaml:"tier1"`
	Tier2 []string `yaml:"tier2"`
	// ActiveHours optionally restricts a league to UTC-hour windows;
	// leagues without an entry are always eligible.
	ActiveHours map[string][]HourRange `yaml:"active_hours"`
	// Tier2PerCycle is how many Tier 2 leagues join each cycle.
	Tier2PerCycle int `yaml:"tier2_per_cycle"`
	// DryCyclesThreshold and FallbackDailyLimit drive the fallback
	// promoter.
	DryCyclesThreshold int `yaml:"dry_cycles_threshold"`
	FallbackDailyLimit int `yaml:"fallback_daily_limit"`
}

// LoadConfig reads the league layout from a YAML file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Tier2PerCycle <= 0 {
		c.Tier2PerCycle = 3
	}
	if c.DryCyclesThreshold <= 0 {
		c.DryCyclesThreshold = 6
	}
	if c.FallbackDailyLimit <= 0 {
		c.FallbackDailyLimit = 4
	}
}

// Brain owns the cycle-to-cycle scheduling state.
type Brain struct {
	mu  sync.Mutex
	cfg Config
	log zerolog.Logger

	cursor          int
	dryCycles       int
	dailyFallbacks  int
	lastFallbackAt  time.Time
	lastDailyReset  time.Time
}

func NewBrain(cfg Config, log zerolog.Logger) *Brain {
	cfg.applyDefaults()
	return &Brain{cfg: cfg, log: log}
}

// LeaguesForCycle returns the leagues this cycle polls. Emergency mode
// cuts coverage to Tier 1 only. Otherwise Tier 1 plus the next rotating
// Tier 2 batch, filtered by active hours when the follow-the-sun config
// knows the league; if filtering would leave nothing, the unfiltered
// selection stands.
func (b *Brain) LeaguesForCycle(emergency bool, now time.Time) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if emergency {
		return append([]string(nil), b.cfg.Tier1...)
	}

	selection := append([]string(nil), b.cfg.Tier1...)
	selection = append(selection, b.nextTier2Batch()...)

	filtered := b.filterActive(selection, now)
	if len(filtered) == 0 {
		return selection
	}
	return filtered
}

// nextTier2Batch advances the cursor by one batch, wrapping modulo the
// tier size. An empty Tier 2 yields an empty batch and leaves the
// cursor alone.
func (b *Brain) nextTier2Batch() []string {
	n := len(b.cfg.Tier2)
	if n == 0 {
		return nil
	}
	size := b.cfg.Tier2PerCycle
	if size > n {
		size = n
	}
	batch := make([]string, 0, size)
	for i := 0; i < size; i++ {
		batch = append(batch, b.cfg.Tier2[(b.cursor+i)%n])
	}
	b.cursor = (b.cursor + size) % n
	return batch
}

func (b *Brain) filterActive(leagues []string, now time.Time) []string {
	if len(b.cfg.ActiveHours) == 0 {
		return leagues
	}
	hour := now.UTC().Hour()
	var out []string
	for _, lg := range leagues {
		windows, ok := b.cfg.ActiveHours[lg]
		if !ok {
			out = append(out, lg)
			continue
		}
		for _, w := range windows {
			if w.Contains(hour) {
				out = append(out, lg)
				break
			}
		}
	}
	return out
}

// RecordCycleOutcome feeds the dry-cycle counter: any alert resets it.
func (b *Brain) RecordCycleOutcome(alertsEmitted int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if alertsEmitted > 0 {
		b.dryCycles = 0
		return
	}
	b.dryCycles++
}

// ShouldPromoteFallback reports whether this cycle should widen to a
// promoted Tier 2 batch: enough consecutive dry cycles, and the daily
// activation budget not yet spent. Recording the activation is the
// caller's acknowledgment that it acted on the answer.
func (b *Brain) ShouldPromoteFallback(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.resetDailyIfRolledOver(now)

	if len(b.cfg.Tier2) == 0 {
		return false
	}
	if b.dryCycles < b.cfg.DryCyclesThreshold {
		return false
	}
	return b.dailyFallbacks < b.cfg.FallbackDailyLimit
}

// PromoteFallback returns the promoted batch and records the
// activation.
func (b *Brain) PromoteFallback(now time.Time) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.resetDailyIfRolledOver(now)
	batch := b.nextTier2Batch()
	if len(batch) == 0 {
		return nil
	}
	b.dailyFallbacks++
	b.lastFallbackAt = now
	b.dryCycles = 0
	b.log.Info().Strs("leagues", batch).Int("daily_activations", b.dailyFallbacks).Msg("tier-2 fallback promoted")
	return batch
}

func (b *Brain) resetDailyIfRolledOver(now time.Time) {
	nowDay := now.UTC().Truncate(24 * time.Hour)
	lastDay := b.lastDailyReset.UTC().Truncate(24 * time.Hour)
	if nowDay.After(lastDay) {
		b.dailyFallbacks = 0
		b.lastDailyReset = now.UTC()
	}
}

// Snapshot exposes the scheduling state for the ops endpoints.
type Snapshot struct {
	Cursor         int
	DryCycles      int
	DailyFallbacks int
	LastFallbackAt time.Time
}

func (b *Brain) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Cursor:         b.cursor,
		DryCycles:      b.dryCycles,
		DailyFallbacks: b.dailyFallbacks,
		LastFallbackAt: b.lastFallbackAt,
	}
}
