// Package biscotto detects tacit-collusion draws: matches where a draw
// suits both teams' standings objectives and the market is pricing it
// like the teams already know. Not necessarily fixing, but a statistical
// anomaly worth acting on.
package biscotto

import (
	"fmt"
	"strings"
)

// Severity aggregates how many independent signals fired and how hard.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityExtreme
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "NONE"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityExtreme:
		return "EXTREME"
	default:
		return "UNKNOWN"
	}
}

// DropPattern classifies how the draw price came down.
type DropPattern string

const (
	DropNone  DropPattern = "NONE"
	DropDrift DropPattern = "DRIFT" // slow, steady shortening
	DropCrash DropPattern = "CRASH" // sudden collapse
)

// Params tune the detector per league.
type Params struct {
	// DrawOddThreshold is the absolute draw price below which the
	// market looks suspicious. 2.50 for major leagues, 2.60 for minor.
	DrawOddThreshold float64
	// EndOfSeasonModifier loosens the threshold in the final rounds.
	EndOfSeasonModifier float64
	// SignificantDropPct is the drop-from-opening that counts.
	SignificantDropPct float64
	// LeagueAvgDrawProb and LeagueDrawStdDev parameterize the z-score
	// signal.
	LeagueAvgDrawProb float64
	LeagueDrawStdDev  float64
	// EndOfSeasonMatches is how many remaining rounds still count as
	// end-of-season.
	EndOfSeasonMatches int
}

// DefaultParams covers a typical top-division league.
func DefaultParams() Params {
	return Params{
		DrawOddThreshold:    2.50,
		EndOfSeasonModifier: 0.15,
		SignificantDropPct:  12.0,
		LeagueAvgDrawProb:   0.26,
		LeagueDrawStdDev:    0.08,
		EndOfSeasonMatches:  3,
	}
}

// TableSituation is one team's standings context near the run-in.
type TableSituation struct {
	Position      int
	Points        int
	TotalTeams    int
	PointsNeeded  int // points still needed for the objective; 1 is the classic biscotto setup
	InRelegation  bool
	ChasingEurope bool
}

// Input is everything the detector looks at for one match.
type Input struct {
	CurrentDrawOdd   float64
	OpeningDrawOdd   float64
	MatchesRemaining int
	Home             *TableSituation
	Away             *TableSituation
}

// Result is the aggregated verdict.
type Result struct {
	Severity       Severity
	Factors        []string
	DropPattern    DropPattern
	DropPct        float64
	ZScore         float64
	MutualBenefit  bool
	Recommendation string
}

// Detect runs every signal and aggregates a severity. A missing or
// sub-1.0 draw odd is never suspect.
func Detect(in Input, p Params) Result {
	res := Result{Severity: SeverityNone, DropPattern: DropNone, Recommendation: "AVOID"}
	if in.CurrentDrawOdd <= 1.0 {
		return res
	}
	if p.DrawOddThreshold <= 0 {
		p = DefaultParams()
	}

	score := 0

	endOfSeason := in.MatchesRemaining > 0 && in.MatchesRemaining <= p.EndOfSeasonMatches

	// Signal 1: absolute draw price below the league threshold.
	threshold := p.DrawOddThreshold
	if endOfSeason {
		threshold += p.EndOfSeasonModifier
	}
	if in.CurrentDrawOdd < threshold {
		score++
		res.Factors = append(res.Factors, fmt.Sprintf("draw odd %.2f below threshold %.2f", in.CurrentDrawOdd, threshold))
	}

	// Signal 2: drop from opening, drift vs crash.
	if in.OpeningDrawOdd > 1.0 && in.CurrentDrawOdd < in.OpeningDrawOdd {
		drop := (in.OpeningDrawOdd - in.CurrentDrawOdd) / in.OpeningDrawOdd * 100
		res.DropPct = drop
		if drop >= p.SignificantDropPct {
			score++
			if drop >= p.SignificantDropPct*2 {
				res.DropPattern = DropCrash
				score++
			} else {
				res.DropPattern = DropDrift
			}
			res.Factors = append(res.Factors, fmt.Sprintf("draw odd dropped %.1f%% from opening (%s)", drop, res.DropPattern))
		}
	}

	// Signal 3: z-score of the implied draw probability vs league.
	if p.LeagueDrawStdDev > 0 {
		implied := 1.0 / in.CurrentDrawOdd
		res.ZScore = (implied - p.LeagueAvgDrawProb) / p.LeagueDrawStdDev
		if res.ZScore >= 2.0 {
			score++
			res.Factors = append(res.Factors, fmt.Sprintf("implied draw probability %.1f sigma above league average", res.ZScore))
		}
	}

	// Signal 4: end-of-season mutual benefit.
	if endOfSeason && mutualBenefit(in.Home, in.Away) {
		res.MutualBenefit = true
		score += 2
		res.Factors = append(res.Factors, "end of season: a draw serves both teams' objectives")
		if in.Home != nil && in.Away != nil && in.Home.PointsNeeded == 1 && in.Away.PointsNeeded == 1 {
			score++
			res.Factors = append(res.Factors, "both teams need exactly one point")
		}
	}

	switch {
	case score >= 5:
		res.Severity = SeverityExtreme
	case score >= 4:
		res.Severity = SeverityHigh
	case score >= 2:
		res.Severity = SeverityMedium
	case score >= 1:
		res.Severity = SeverityLow
	}

	switch {
	case res.Severity >= SeverityHigh:
		res.Recommendation = "BET X " + strings.Join(res.Factors, "; ")
	case res.Severity == SeverityMedium:
		res.Recommendation = "MONITOR"
	default:
		res.Recommendation = "AVOID"
	}

	return res
}

// mutualBenefit reports whether a draw plausibly serves both sides:
// both fighting relegation, both chasing the last European spot, or
// both explicitly needing a single point.
func mutualBenefit(home, away *TableSituation) bool {
	if home == nil || away == nil {
		return false
	}
	if home.PointsNeeded == 1 && away.PointsNeeded == 1 {
		return true
	}
	if home.InRelegation && away.InRelegation {
		return true
	}
	if home.ChasingEurope && away.ChasingEurope {
		return true
	}
	return false
}

// AtLeast compares severities for callers gating on a minimum level.
func (s Severity) AtLeast(other Severity) bool { return s >= other }
