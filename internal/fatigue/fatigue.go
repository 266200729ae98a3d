// Package fatigue estimates how much recent fixture congestion weighs
// on each team going into a match. Recent games count more than older
// ones, a deep bench absorbs congestion better, and anything under 72
// hours of rest is flagged outright: full neuromuscular recovery takes
// 72-96 hours.
package fatigue

import (
	"math"
	"time"

	"github.com/cicosss/earlybird/internal/model"
)

// Level buckets hours-since-last-match into recovery bands.
type Level string

const (
	LevelFresh    Level = "FRESH"
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// Advantage says which side, if either, is meaningfully fresher.
type Advantage string

const (
	AdvantageHome    Advantage = "HOME"
	AdvantageAway    Advantage = "AWAY"
	AdvantageNeutral Advantage = "NEUTRAL"
)

// rollingWindowDays is how far back congestion still matters.
const rollingWindowDays = 21

// TeamFatigue is one team's congestion assessment.
type TeamFatigue struct {
	Index          float64
	Level          Level
	MatchesInWindow int
	HoursSinceLast float64 // negative when no recent match is known
}

// depthMultiplier: a deep squad halves congestion impact, a thin one
// amplifies it.
func depthMultiplier(d model.SquadDepth) float64 {
	switch d {
	case model.DepthElite:
		return 0.5
	case model.DepthUpper:
		return 0.7
	case model.DepthMid:
		return 1.0
	case model.DepthLower:
		return 1.15
	case model.DepthLow:
		return 1.3
	default:
		return 1.0
	}
}

// AssessTeam computes the fatigue index for one team. recent holds that
// team's recent match instants in any timezone; everything is
// normalized to UTC before comparison. An empty schedule is exactly
// zero fatigue.
func AssessTeam(recent []time.Time, upcoming time.Time, depth model.SquadDepth) TeamFatigue {
	out := TeamFatigue{Level: LevelFresh, HoursSinceLast: -1}
	if len(recent) == 0 {
		return out
	}

	upcoming = upcoming.UTC()
	windowStart := upcoming.AddDate(0, 0, -rollingWindowDays)

	var index float64
	var lastMatch time.Time
	for _, m := range recent {
		m = m.UTC()
		if !m.Before(upcoming) || m.Before(windowStart) {
			continue
		}
		out.MatchesInWindow++
		if m.After(lastMatch) {
			lastMatch = m
		}

		daysAgo := upcoming.Sub(m).Hours() / 24
		// Clamp at half a day so a match yesterday evening can't
		// divide toward infinity.
		daysAgo = math.Max(daysAgo, 0.5)
		index += 1.0 / daysAgo
	}

	if out.MatchesInWindow == 0 {
		return out
	}

	out.Index = index * depthMultiplier(depth)
	out.HoursSinceLast = upcoming.Sub(lastMatch).Hours()
	out.Level = levelFromRest(out.HoursSinceLast)
	return out
}

func levelFromRest(hours float64) Level {
	switch {
	case hours < 0:
		return LevelFresh
	case hours < 72:
		return LevelCritical
	case hours < 96:
		return LevelHigh
	case hours < 144:
		return LevelMedium
	case hours < 216:
		return LevelLow
	default:
		return LevelFresh
	}
}

// Comparison is the head-to-head fatigue picture for a match.
type Comparison struct {
	Home         TeamFatigue
	Away         TeamFatigue
	Differential float64
	Advantage    Advantage
}

// advantageThreshold is the index gap below which neither side gets an
// edge.
const advantageThreshold = 0.35

// Compare assesses both teams and derives who holds the freshness edge.
// The advantage flips to a side when the other is clearly more loaded,
// or when only one side is in the critical band.
func Compare(homeRecent, awayRecent []time.Time, upcoming time.Time, homeDepth, awayDepth model.SquadDepth) Comparison {
	home := AssessTeam(homeRecent, upcoming, homeDepth)
	away := AssessTeam(awayRecent, upcoming, awayDepth)

	c := Comparison{
		Home:         home,
		Away:         away,
		Differential: home.Index - away.Index,
		Advantage:    AdvantageNeutral,
	}

	switch {
	case home.Level == LevelCritical && away.Level != LevelCritical:
		c.Advantage = AdvantageAway
	case away.Level == LevelCritical && home.Level != LevelCritical:
		c.Advantage = AdvantageHome
	case c.Differential >= advantageThreshold:
		c.Advantage = AdvantageAway
	case c.Differential <= -advantageThreshold:
		c.Advantage = AdvantageHome
	}
	return c
}
