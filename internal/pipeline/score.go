package pipeline

import (
	"fmt"
	"strings"

	"github.com/cicosss/earlybird/internal/biscotto"
	"github.com/cicosss/earlybird/internal/enrichment"
	"github.com/cicosss/earlybird/internal/fatigue"
	"github.com/cicosss/earlybird/internal/injury"
	"github.com/cicosss/earlybird/internal/marketintel"
	"github.com/cicosss/earlybird/internal/quant"
)

// signals collects everything the pre-AI scoring pass looks at.
type signals struct {
	Quant    *quant.MatchAnalysis
	Injuries injury.Differential
	Fatigue  fatigue.Comparison
	Biscotto biscotto.Result
	Steam    *marketintel.SteamMove
	RLM      *marketintel.ReverseLineMovement
	Data     enrichment.Data
}

// preliminaryScore folds the quantitative and contextual signals into a
// 0-10 candidate score. Only matches clearing the alert threshold are
// worth an AI triangulation call.
func preliminaryScore(s signals) (float64, []string) {
	score := 0.0
	var notes []string

	if s.Quant != nil && s.Quant.BestEdge != nil {
		switch {
		case s.Quant.BestEdge.Edge >= 8:
			score += 4.0
		case s.Quant.BestEdge.Edge >= 5:
			score += 3.0
		case s.Quant.BestEdge.Edge >= 2:
			score += 2.0
		case s.Quant.BestEdge.Edge > 0:
			score += 1.0
		}
		notes = append(notes, fmt.Sprintf("best edge %s %+.1f%%", s.Quant.BestMarket, s.Quant.BestEdge.Edge))
	}

	if s.Steam != nil {
		score += 1.5
		notes = append(notes, fmt.Sprintf("steam move on %s (-%.1f%%)", s.Steam.Market, s.Steam.DropPct))
	}

	if s.RLM != nil {
		switch s.RLM.Confidence {
		case marketintel.RLMHigh:
			score += 1.5
		case marketintel.RLMMedium:
			score += 1.0
		default:
			score += 0.5
		}
		notes = append(notes, fmt.Sprintf("reverse line movement, sharp side %s (%s)", s.RLM.SharpSide, s.RLM.Confidence))
	}

	if s.Biscotto.Severity.AtLeast(biscotto.SeverityHigh) {
		score += 2.0
		notes = append(notes, "draw-collusion pattern: "+strings.Join(s.Biscotto.Factors, "; "))
	} else if s.Biscotto.Severity == biscotto.SeverityMedium {
		score += 0.5
	}

	if s.Fatigue.Advantage != fatigue.AdvantageNeutral {
		score += 0.5
		notes = append(notes, fmt.Sprintf("fatigue advantage %s", s.Fatigue.Advantage))
	}

	// The injury differential shifts the score toward or away from the
	// quant engine's preferred side.
	if s.Quant != nil {
		before := score
		score = s.Injuries.ApplyToScore(score, s.Quant.BestMarket)
		if score != before {
			notes = append(notes, fmt.Sprintf("injury differential %+.1f applied", score-before))
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return score, notes
}
