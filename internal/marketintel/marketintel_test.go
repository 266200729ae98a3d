package marketintel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cicosss/earlybird/internal/model"
)

func TestDecayedImpact_EdgeCases(t *testing.T) {
	p := DecayParams{Lambda: 0.12, SourceModifier: 1.0}

	assert.Equal(t, 5.0, DecayedImpact(5.0, 0, p))
	assert.Equal(t, 5.0, DecayedImpact(5.0, -time.Hour, p))
	assert.Equal(t, 0.0, DecayedImpact(0, time.Hour, p))
	assert.Equal(t, 0.0, DecayedImpact(-2, time.Hour, p))
}

func TestDecayedImpact_MonotoneDecayWithFloor(t *testing.T) {
	p := DecayParams{Lambda: 0.3, SourceModifier: 1.0}

	oneHour := DecayedImpact(10, time.Hour, p)
	sixHours := DecayedImpact(10, 6*time.Hour, p)
	assert.Less(t, oneHour, 10.0)
	assert.Less(t, sixHours, oneHour)

	// After 24h the 1% floor holds.
	old := DecayedImpact(10, 48*time.Hour, p)
	assert.GreaterOrEqual(t, old, 0.1)
}

func TestParseFreshness(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want int
	}{
		{"just now", 0},
		{"15 minutes ago", 15},
		{"1 minute ago", 1},
		{"2 hours ago", 120},
		{"3 days ago", 3 * 24 * 60},
		{"sometime last century", 30},
		{"", 30},
	} {
		assert.Equal(t, tc.want, ParseFreshness(tc.in), "input %q", tc.in)
	}
}

func snapshot(at time.Time, home, draw, away float64) model.OddsSnapshot {
	return model.OddsSnapshot{CapturedAt: at, Odds: model.Odds{Home: home, Draw: draw, Away: away}}
}

func TestDetectSteamMove_DetectsDropInWindow(t *testing.T) {
	now := time.Now().UTC()
	history := []model.OddsSnapshot{
		snapshot(now.Add(-10*time.Minute), 2.00, 3.40, 3.60),
		snapshot(now, 1.80, 3.40, 3.60),
	}

	move := DetectSteamMove(history, DefaultSteamWindow, DefaultSteamThresholdPct)
	require.NotNil(t, move)
	assert.Equal(t, model.MarketHome, move.Market)
	assert.InDelta(t, 10.0, move.DropPct, 0.01)
}

func TestDetectSteamMove_IgnoresDropOutsideWindow(t *testing.T) {
	now := time.Now().UTC()
	history := []model.OddsSnapshot{
		snapshot(now.Add(-3*time.Hour), 2.00, 3.40, 3.60),
		snapshot(now, 1.80, 3.40, 3.60),
	}
	assert.Nil(t, DetectSteamMove(history, DefaultSteamWindow, DefaultSteamThresholdPct))
}

func TestDetectSteamMove_BelowThresholdOrThinHistory(t *testing.T) {
	now := time.Now().UTC()
	history := []model.OddsSnapshot{
		snapshot(now.Add(-5*time.Minute), 2.00, 3.40, 3.60),
		snapshot(now, 1.95, 3.40, 3.60), // only 2.5%
	}
	assert.Nil(t, DetectSteamMove(history, DefaultSteamWindow, DefaultSteamThresholdPct))
	assert.Nil(t, DetectSteamMove(history[:1], DefaultSteamWindow, DefaultSteamThresholdPct))
	assert.Nil(t, DetectSteamMove(nil, DefaultSteamWindow, DefaultSteamThresholdPct))
}

func TestDetectRLM_HighConfidenceAgainstPublicHome(t *testing.T) {
	rlm := DetectRLM(2.00, 2.13, 2.00, 1.87, PublicSplit{Home: 0.70, Away: 0.30}, 3.0)
	require.NotNil(t, rlm)
	assert.Equal(t, "AWAY", rlm.SharpSide)
	assert.Equal(t, "HOME", rlm.PublicSide)
	assert.InDelta(t, 6.5, rlm.MovePct, 0.01)
	assert.Equal(t, RLMHigh, rlm.Confidence)
}

func TestDetectRLM_ConfidenceTiers(t *testing.T) {
	// +3.5% move: just above the 3% threshold.
	low := DetectRLM(2.00, 2.07, 2.00, 1.95, PublicSplit{Home: 0.65, Away: 0.35}, 3.0)
	require.NotNil(t, low)
	assert.Equal(t, RLMLow, low.Confidence)

	// +4.5% move.
	medium := DetectRLM(2.00, 2.09, 2.00, 1.93, PublicSplit{Home: 0.65, Away: 0.35}, 3.0)
	require.NotNil(t, medium)
	assert.Equal(t, RLMMedium, medium.Confidence)
}

func TestDetectRLM_MissingOddsReturnNil(t *testing.T) {
	assert.Nil(t, DetectRLM(0, 2.13, 2.00, 1.87, PublicSplit{Home: 0.7}, 3.0))
	assert.Nil(t, DetectRLM(2.00, 2.13, 2.00, 0.99, PublicSplit{Home: 0.7}, 3.0))
}

func TestDetectRLM_NoMoveAgainstPublic(t *testing.T) {
	// Public on home and home shortens: that's steam, not RLM.
	assert.Nil(t, DetectRLM(2.00, 1.90, 2.00, 2.10, PublicSplit{Home: 0.7, Away: 0.3}, 3.0))
}

func TestEstimatePublicSplit_FavoriteAttractsPublic(t *testing.T) {
	split := EstimatePublicSplit(1.50, 4.00)
	assert.Greater(t, split.Home, 0.5)
	assert.InDelta(t, 1.0, split.Home+split.Away, 1e-9)

	awayFav := EstimatePublicSplit(4.00, 1.50)
	assert.Greater(t, awayFav.Away, 0.5)
}
