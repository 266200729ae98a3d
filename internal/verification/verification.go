// Package verification is the quality gate between a candidate alert
// and the send decision. It re-checks the claimed absences against the
// official squad context, sanity-checks the recommended market against
// what the absences do to the attack, and corroborates cards and
// corners angles against head-to-head and referee tendencies. The
// driving case: a squad with seven critical absences should not carry
// an Over 2.5 recommendation out the door.
package verification

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cicosss/earlybird/internal/injury"
	"github.com/cicosss/earlybird/internal/model"
)

// Thresholds parameterize the gate; values come from configuration.
type Thresholds struct {
	// CriticalImpact is the cumulative starter/key-player impact above
	// which absences count as critical.
	CriticalImpact float64
	// AttackImpact is the offensive-impact level that invalidates an
	// Over recommendation.
	AttackImpact float64
	// FormDeviation is the points-per-game gap from league mean that
	// counts as a real deviation.
	FormDeviation float64
	// H2HCards / H2HCorners corroborate cards/corners angles.
	H2HCards   float64
	H2HCorners float64
	// RefereeStrictCards / RefereeLenientCards split referees by cards
	// per game.
	RefereeStrictCards  float64
	RefereeLenientCards float64
}

// DefaultThresholds mirrors the calibration the gate shipped with.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CriticalImpact:      12.0,
		AttackImpact:        5.0,
		FormDeviation:       0.6,
		H2HCards:            4.5,
		H2HCorners:          9.5,
		RefereeStrictCards:  5.0,
		RefereeLenientCards: 3.0,
	}
}

// Evidence is everything the gate can look at for one candidate alert.
// Any field may be absent; a missing signal never fails verification on
// its own.
type Evidence struct {
	// HomeImpact/AwayImpact are the officially-grounded injury
	// aggregates (not the AI-cited ones).
	HomeImpact *injury.TeamImpact
	AwayImpact *injury.TeamImpact
	// RecommendedTeamFormPPG and LeagueMeanPPG feed the form-deviation
	// check for the side the recommendation leans on.
	RecommendedTeamFormPPG *float64
	LeagueMeanPPG          *float64
	// H2HCardsAvg / H2HCornersAvg from the stats provider.
	H2HCardsAvg   *float64
	H2HCornersAvg *float64
	// RefereeCardsPerGame when the referee is known.
	RefereeCardsPerGame *float64
	// Under25Priced reports whether an Under 2.5 price exists to
	// switch to.
	Under25Priced bool
}

// Outcome is the gate's decision plus the possibly-rewritten result.
type Outcome struct {
	Status model.VerificationStatus
	Result *model.AnalysisResult
	Notes  []string
}

// Gate holds the configured thresholds.
type Gate struct {
	t   Thresholds
	log zerolog.Logger
}

func New(t Thresholds, log zerolog.Logger) *Gate {
	if t.CriticalImpact <= 0 {
		t = DefaultThresholds()
	}
	return &Gate{t: t, log: log}
}

// Verify runs every check against a copy of the candidate result and
// returns the gated outcome. With no usable evidence at all the result
// passes through flagged UNVERIFIED.
func (g *Gate) Verify(candidate model.AnalysisResult, ev Evidence) Outcome {
	result := candidate
	out := Outcome{Status: model.VerificationConfirmed, Result: &result}

	hasEvidence := ev.HomeImpact != nil || ev.AwayImpact != nil ||
		ev.RecommendedTeamFormPPG != nil || ev.H2HCardsAvg != nil ||
		ev.H2HCornersAvg != nil || ev.RefereeCardsPerGame != nil

	if !hasEvidence {
		out.Status = model.VerificationUnverified
		out.Notes = append(out.Notes, "no verification evidence available")
		result.Verification = model.VerificationUnverified
		return out
	}

	// Critical-absence check, and the Over-with-no-attack rewrite.
	attackImpact := 0.0
	criticalImpact := 0.0
	for _, ti := range []*injury.TeamImpact{ev.HomeImpact, ev.AwayImpact} {
		if ti == nil {
			continue
		}
		attackImpact += ti.OffensiveImpact
		if ti.Severity() == injury.SeverityCritical || ti.Severity() == injury.SeverityHigh {
			criticalImpact += ti.TotalImpact
		}
	}

	if result.RecommendedMarket == model.MarketOver25 && attackImpact >= g.t.AttackImpact {
		if ev.Under25Priced {
			out.Status = model.VerificationChangeMarket
			result.RecommendedMarket = model.MarketUnder25
			result.Reasoning = appendReason(result.Reasoning,
				fmt.Sprintf("market changed to Under 2.5: missing attackers remove %.1f offensive impact", attackImpact))
			out.Notes = append(out.Notes, "over recommendation contradicted by attack absences; switched to under")
		} else {
			return g.reject(&result, out, "over recommendation contradicted by attack absences and no under price available")
		}
	}

	if criticalImpact >= g.t.CriticalImpact && result.Verdict == model.VerdictBet && out.Status != model.VerificationChangeMarket {
		switch result.RecommendedMarket {
		case model.MarketHome, model.MarketAway, model.MarketOver25, model.MarketBTTS:
			return g.reject(&result, out, fmt.Sprintf("critical absences (impact %.1f) undermine the recommendation", criticalImpact))
		}
	}

	// Form deviation: a side recommended to win while running well
	// below the league mean is rejected.
	if ev.RecommendedTeamFormPPG != nil && ev.LeagueMeanPPG != nil {
		deviation := *ev.RecommendedTeamFormPPG - *ev.LeagueMeanPPG
		winMarket := result.RecommendedMarket == model.MarketHome || result.RecommendedMarket == model.MarketAway
		if winMarket && deviation <= -g.t.FormDeviation {
			return g.reject(&result, out, fmt.Sprintf("recommended side's form is %.2f ppg below league mean", -deviation))
		}
	}

	// Cards/corners corroboration for stats-angle markets.
	if isCardsMarket(result.RecommendedMarket) {
		corroborated := ev.H2HCardsAvg != nil && *ev.H2HCardsAvg >= g.t.H2HCards
		if ev.RefereeCardsPerGame != nil {
			if *ev.RefereeCardsPerGame >= g.t.RefereeStrictCards {
				corroborated = true
				result.Confidence += 5
				out.Notes = append(out.Notes, "strict referee corroborates cards angle")
			} else if *ev.RefereeCardsPerGame <= g.t.RefereeLenientCards {
				corroborated = false
				result.Confidence -= 10
				out.Notes = append(out.Notes, "lenient referee undermines cards angle")
			}
		}
		if !corroborated {
			result.Confidence -= 10
			out.Notes = append(out.Notes, "cards angle not corroborated")
		}
	}
	if isCornersMarket(result.RecommendedMarket) {
		if ev.H2HCornersAvg == nil || *ev.H2HCornersAvg < g.t.H2HCorners {
			result.Confidence -= 10
			out.Notes = append(out.Notes, "corners angle not corroborated")
		}
	}

	clampConfidence(&result)
	result.Verification = out.Status
	return out
}

func (g *Gate) reject(result *model.AnalysisResult, out Outcome, reason string) Outcome {
	out.Status = model.VerificationRejected
	result.Verdict = model.VerdictNoBet
	result.Reasoning = appendReason(result.Reasoning, "rejected: "+reason)
	result.Verification = model.VerificationRejected
	out.Notes = append(out.Notes, reason)
	g.log.Info().Str("match", result.MatchID).Str("reason", reason).Msg("verification rejected alert")
	out.Result = result
	return out
}

func appendReason(existing, added string) string {
	if existing == "" {
		return added
	}
	return existing + "; " + added
}

func clampConfidence(r *model.AnalysisResult) {
	if r.Confidence < 0 {
		r.Confidence = 0
	}
	if r.Confidence > 100 {
		r.Confidence = 100
	}
}

func isCardsMarket(m model.Market) bool   { return m == model.MarketCards }
func isCornersMarket(m model.Market) bool { return m == model.MarketCorners }
