package marketintel

import (
	"time"

	"github.com/cicosss/earlybird/internal/model"
)

// DefaultSteamWindow is how far back a reference snapshot may be for a
// drop to count as steam rather than ordinary drift.
const DefaultSteamWindow = 15 * time.Minute

// DefaultSteamThresholdPct is the minimum percentage drop inside the
// window.
const DefaultSteamThresholdPct = 5.0

// SteamMove reports one detected rapid single-direction price drop.
type SteamMove struct {
	Market  model.Market
	DropPct float64
}

// DetectSteamMove scans the odds history of a match (oldest first) for
// a market whose latest price sits at least thresholdPct below some
// earlier price captured inside the steam window. The largest qualifying
// drop wins. Returns nil when the history is too thin or nothing
// qualifies.
func DetectSteamMove(history []model.OddsSnapshot, window time.Duration, thresholdPct float64) *SteamMove {
	if len(history) < 2 {
		return nil
	}
	if window <= 0 {
		window = DefaultSteamWindow
	}
	if thresholdPct <= 0 {
		thresholdPct = DefaultSteamThresholdPct
	}

	latest := history[len(history)-1]
	cutoff := latest.CapturedAt.Add(-window)

	markets := []struct {
		market model.Market
		pick   func(model.Odds) float64
	}{
		{model.MarketHome, func(o model.Odds) float64 { return o.Home }},
		{model.MarketDraw, func(o model.Odds) float64 { return o.Draw }},
		{model.MarketAway, func(o model.Odds) float64 { return o.Away }},
		{model.MarketOver25, func(o model.Odds) float64 { return o.Over25 }},
		{model.MarketBTTS, func(o model.Odds) float64 { return o.BTTS }},
	}

	var best *SteamMove
	for _, m := range markets {
		current := m.pick(latest.Odds)
		if current <= 1.0 {
			continue
		}
		for _, snap := range history[:len(history)-1] {
			if snap.CapturedAt.Before(cutoff) {
				continue
			}
			old := m.pick(snap.Odds)
			if old <= 1.0 {
				continue
			}
			drop := (old - current) / old * 100
			if drop < thresholdPct {
				continue
			}
			if best == nil || drop > best.DropPct {
				best = &SteamMove{Market: m.market, DropPct: drop}
			}
		}
	}
	return best
}
