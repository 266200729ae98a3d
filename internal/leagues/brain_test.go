package leagues

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Tier1:              []string{"serie_a", "premier_league", "la_liga"},
		Tier2:              []string{"championship", "eredivisie", "liga_portugal", "super_lig", "jupiler"},
		Tier2PerCycle:      2,
		DryCyclesThreshold: 3,
		FallbackDailyLimit: 2,
	}
}

var noon = time.Date(2026, 4, 18, 12, 0, 0, 0, time.UTC)

func TestLeaguesForCycle_EmergencyIsTier1Only(t *testing.T) {
	b := NewBrain(testConfig(), zerolog.Nop())
	got := b.LeaguesForCycle(true, noon)
	assert.Equal(t, []string{"serie_a", "premier_league", "la_liga"}, got)
}

func TestLeaguesForCycle_Tier2RotatesRoundRobin(t *testing.T) {
	b := NewBrain(testConfig(), zerolog.Nop())

	first := b.LeaguesForCycle(false, noon)
	assert.Contains(t, first, "championship")
	assert.Contains(t, first, "eredivisie")

	second := b.LeaguesForCycle(false, noon)
	assert.Contains(t, second, "liga_portugal")
	assert.Contains(t, second, "super_lig")

	third := b.LeaguesForCycle(false, noon)
	assert.Contains(t, third, "jupiler")
	assert.Contains(t, third, "championship") // wrapped
}

func TestLeaguesForCycle_EmptyTier2Tolerated(t *testing.T) {
	cfg := testConfig()
	cfg.Tier2 = nil
	b := NewBrain(cfg, zerolog.Nop())

	for i := 0; i < 5; i++ {
		got := b.LeaguesForCycle(false, noon)
		assert.Equal(t, []string{"serie_a", "premier_league", "la_liga"}, got)
	}
}

func TestLeaguesForCycle_FollowTheSunFilters(t *testing.T) {
	cfg := testConfig()
	cfg.ActiveHours = map[string][]HourRange{
		"serie_a":        {{From: 16, To: 22}},
		"premier_league": {{From: 12, To: 22}},
	}
	b := NewBrain(cfg, zerolog.Nop())

	got := b.LeaguesForCycle(false, noon) // 12:00 UTC
	assert.NotContains(t, got, "serie_a")
	assert.Contains(t, got, "premier_league")
	// Leagues without a window are always eligible.
	assert.Contains(t, got, "la_liga")
}

func TestLeaguesForCycle_AllFilteredFallsBackToFullSelection(t *testing.T) {
	cfg := Config{
		Tier1:       []string{"a_league"},
		ActiveHours: map[string][]HourRange{"a_league": {{From: 2, To: 8}}},
	}
	b := NewBrain(cfg, zerolog.Nop())
	got := b.LeaguesForCycle(false, noon)
	assert.Equal(t, []string{"a_league"}, got)
}

func TestHourRange_WrapsMidnight(t *testing.T) {
	w := HourRange{From: 22, To: 4}
	assert.True(t, w.Contains(23))
	assert.True(t, w.Contains(2))
	assert.False(t, w.Contains(12))
}

func TestFallbackPromoter_DryCyclesAndDailyLimit(t *testing.T) {
	b := NewBrain(testConfig(), zerolog.Nop())

	assert.False(t, b.ShouldPromoteFallback(noon))

	for i := 0; i < 3; i++ {
		b.RecordCycleOutcome(0)
	}
	require.True(t, b.ShouldPromoteFallback(noon))

	batch := b.PromoteFallback(noon)
	assert.Len(t, batch, 2)
	assert.Equal(t, 0, b.Snapshot().DryCycles)

	// Second activation the same day is allowed, third is not.
	for i := 0; i < 3; i++ {
		b.RecordCycleOutcome(0)
	}
	require.True(t, b.ShouldPromoteFallback(noon))
	b.PromoteFallback(noon)

	for i := 0; i < 3; i++ {
		b.RecordCycleOutcome(0)
	}
	assert.False(t, b.ShouldPromoteFallback(noon))

	// UTC day rollover resets the daily budget.
	tomorrow := noon.Add(24 * time.Hour)
	assert.True(t, b.ShouldPromoteFallback(tomorrow))
}

func TestRecordCycleOutcome_AlertResetsDryCounter(t *testing.T) {
	b := NewBrain(testConfig(), zerolog.Nop())
	b.RecordCycleOutcome(0)
	b.RecordCycleOutcome(0)
	b.RecordCycleOutcome(1)
	assert.Equal(t, 0, b.Snapshot().DryCycles)
}

func TestPromoteFallback_EmptyTier2ReturnsEmptyBatch(t *testing.T) {
	cfg := testConfig()
	cfg.Tier2 = nil
	b := NewBrain(cfg, zerolog.Nop())
	for i := 0; i < 4; i++ {
		b.RecordCycleOutcome(0)
	}
	assert.False(t, b.ShouldPromoteFallback(noon))
	assert.Nil(t, b.PromoteFallback(noon))
}
