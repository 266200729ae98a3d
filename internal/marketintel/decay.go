// Package marketintel reads the betting market itself as a signal
// source: how fast news loses its punch, whether a price is being
// steamed down inside a short window, and whether the line is moving
// against the public side.
package marketintel

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// defaultFreshnessMinutes is assumed when a published-at string cannot
// be parsed at all.
const defaultFreshnessMinutes = 30

// DecayParams tune how quickly news impact fades for one league tier
// and source type.
type DecayParams struct {
	// Lambda is the exponential decay rate per hour.
	Lambda float64
	// SourceModifier scales Lambda: official club feeds stay relevant
	// longer than aggregator chatter.
	SourceModifier float64
}

// DecayedImpact applies exponential decay to a news impact score over
// elapsed time. Non-positive elapsed time returns the original score,
// non-positive scores decay to zero, and anything older than a day
// keeps at least a 1% floor of its initial value.
func DecayedImpact(initial float64, elapsed time.Duration, params DecayParams) float64 {
	if initial <= 0 {
		return 0
	}
	if elapsed <= 0 {
		return initial
	}

	lambda := params.Lambda
	if lambda <= 0 {
		lambda = 0.12
	}
	if params.SourceModifier > 0 {
		lambda *= params.SourceModifier
	}

	hours := elapsed.Hours()
	decayed := initial * math.Exp(-lambda*hours)

	if hours >= 24 {
		floor := initial * 0.01
		if decayed < floor {
			return floor
		}
	}
	return decayed
}

var freshnessRe = regexp.MustCompile(`(?i)(\d+)\s*(minute|min|hour|hr|day)s?\s*ago`)

// ParseFreshness converts a human freshness string ("just now",
// "15 minutes ago", "2 hours ago", "3 days ago") to minutes of age.
// Malformed input falls back to a 30-minute default.
func ParseFreshness(s string) int {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return defaultFreshnessMinutes
	}
	if strings.Contains(s, "just now") || s == "now" {
		return 0
	}

	m := freshnessRe.FindStringSubmatch(s)
	if m == nil {
		return defaultFreshnessMinutes
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return defaultFreshnessMinutes
	}

	switch {
	case strings.HasPrefix(m[2], "min"):
		return n
	case strings.HasPrefix(m[2], "h"):
		return n * 60
	case strings.HasPrefix(m[2], "day"):
		return n * 60 * 24
	}
	return defaultFreshnessMinutes
}
