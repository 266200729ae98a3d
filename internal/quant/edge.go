package quant

import (
	"math"

	"github.com/cicosss/earlybird/internal/model"
)

// MaxStakePct caps exposure on any single bet at 5% of bankroll.
const MaxStakePct = 5.0

// minOddForEdge rejects odds below this floor: the risk/reward is
// too poor to price an edge at all.
const minOddForEdge = 1.05

// EdgeResult is one market's value assessment. Probabilities are
// expressed 0-100 for display; KellyStake is a bankroll percentage.
type EdgeResult struct {
	Market      model.Market
	MathProb    float64
	ImpliedProb float64
	Edge        float64
	FairOdd     float64
	ActualOdd   float64
	KellyStake  float64
	HasValue    bool
}

// CalculateEdge compares a model probability against a bookmaker odd.
//
// The Kelly fraction uses a shrunk probability: with few samples the
// point estimate is uncertain, so the stake leans toward the lower end
// of a 68% confidence interval, blended back toward the point estimate
// as the sample grows (full trust from n=15 up, never below 0.6). Edge
// and fair odd are reported from the unshrunk probability.
func CalculateEdge(mathProb, bookmakerOdd float64, sampleSize int) EdgeResult {
	if bookmakerOdd < minOddForEdge {
		return EdgeResult{
			Market:      model.MarketUnknown,
			MathProb:    mathProb * 100,
			ImpliedProb: 100.0,
			FairOdd:     1.0,
			ActualOdd:   bookmakerOdd,
		}
	}

	// No certainty exists in sports.
	if mathProb >= 0.99 {
		mathProb = 0.99
	}

	effectiveProb := mathProb
	if sampleSize > 0 {
		se := math.Sqrt(mathProb * (1 - mathProb) / float64(sampleSize))
		shrunk := math.Max(0.01, mathProb-se)
		confidenceFactor := math.Min(1.0, math.Max(0.6, float64(sampleSize)/15))
		effectiveProb = shrunk + (mathProb-shrunk)*confidenceFactor
	}

	impliedProb := 1.0 / bookmakerOdd
	fairOdd := 999.0
	if mathProb > 0 {
		fairOdd = 1.0 / mathProb
	}
	edge := (mathProb - impliedProb) * 100

	b := bookmakerOdd - 1
	kellyFull := 0.0
	if b > 0 {
		kellyFull = (b*effectiveProb - (1 - effectiveProb)) / b
	}
	stakePct := math.Max(0, kellyFull/4) * 100
	if stakePct > MaxStakePct {
		stakePct = MaxStakePct
	}

	return EdgeResult{
		MathProb:    mathProb * 100,
		ImpliedProb: impliedProb * 100,
		Edge:        edge,
		FairOdd:     round2(fairOdd),
		ActualOdd:   bookmakerOdd,
		KellyStake:  round2(stakePct),
		HasValue:    edge > 0,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MatchAnalysis bundles the Poisson result with per-market edges and the
// best-value pick for the alert payload.
type MatchAnalysis struct {
	Poisson         *PoissonResult
	Edges           map[model.Market]EdgeResult
	BestMarket      model.Market
	BestEdge        *EdgeResult
	ExpectedGoals   float64
	MostLikelyScore string
}

// AnalyzeMatch runs the full quantitative pass: Poisson grid, then edge
// calculation for every priced market, including Double Chance markets
// whose offered odd is inferred from the bookmaker's own 1X2 prices.
// Returns nil when the grid cannot run.
func (p *Predictor) AnalyzeMatch(homeScored, homeConceded, awayScored, awayConceded float64, odds model.Odds, sampleSize int) *MatchAnalysis {
	poisson := p.SimulateMatch(homeScored, homeConceded, awayScored, awayConceded)
	if poisson == nil {
		return nil
	}

	edges := make(map[model.Market]EdgeResult)

	addEdge := func(market model.Market, prob, odd float64) {
		if odd <= 1 {
			return
		}
		e := CalculateEdge(prob, odd, sampleSize)
		e.Market = market
		edges[market] = e
	}

	addEdge(model.MarketHome, poisson.HomeWinProb, odds.Home)
	addEdge(model.MarketDraw, poisson.DrawProb, odds.Draw)
	addEdge(model.MarketAway, poisson.AwayWinProb, odds.Away)
	addEdge(model.MarketOver25, poisson.Over25Prob, odds.Over25)

	switch {
	case odds.Under25 > 1:
		addEdge(model.MarketUnder25, poisson.Under25Prob, odds.Under25)
	case odds.Over25 > 1:
		// Derive an Under 2.5 price from the Over side, assuming a
		// roughly 5% bookmaker margin on the pair.
		overImplied := 1.0 / odds.Over25
		underImplied := math.Max(0.01, 1.0-overImplied-0.05)
		addEdge(model.MarketUnder25, poisson.Under25Prob, 1.0/underImplied)
	}

	addEdge(model.MarketBTTS, poisson.BTTSProb, odds.BTTS)

	// Double Chance: the market odd is what the bookmaker's 1X2 prices
	// imply for the combined outcome, 1/(1/oA + 1/oB).
	if odds.Home > 1 && odds.Draw > 1 {
		prob := poisson.HomeWinProb + poisson.DrawProb
		marketOdd := 1.0 / (1.0/odds.Home + 1.0/odds.Draw)
		e := CalculateEdge(prob, marketOdd, sampleSize)
		e.Market = model.MarketDoubleOneX
		if prob > 0 {
			e.FairOdd = round2(1.0 / prob)
		}
		edges[model.MarketDoubleOneX] = e
	}
	if odds.Draw > 1 && odds.Away > 1 {
		prob := poisson.DrawProb + poisson.AwayWinProb
		marketOdd := 1.0 / (1.0/odds.Draw + 1.0/odds.Away)
		e := CalculateEdge(prob, marketOdd, sampleSize)
		e.Market = model.MarketDoubleX2
		if prob > 0 {
			e.FairOdd = round2(1.0 / prob)
		}
		edges[model.MarketDoubleX2] = e
	}

	analysis := &MatchAnalysis{
		Poisson:         poisson,
		Edges:           edges,
		BestMarket:      model.MarketUnknown,
		ExpectedGoals:   round2(poisson.HomeLambda + poisson.AwayLambda),
		MostLikelyScore: poisson.MostLikelyScore,
	}

	for market, e := range edges {
		if !e.HasValue {
			continue
		}
		if analysis.BestEdge == nil || e.Edge > analysis.BestEdge.Edge {
			best := e
			analysis.BestEdge = &best
			analysis.BestMarket = market
		}
	}

	return analysis
}

// QuantBlock flattens the best pick into the alert attachment shape.
func (a *MatchAnalysis) QuantBlock() model.QuantBlock {
	if a == nil || a.BestEdge == nil {
		return model.QuantBlock{BestMarket: model.MarketUnknown}
	}
	return model.QuantBlock{
		BestMarket: a.BestMarket,
		EdgePct:    a.BestEdge.Edge,
		KellyPct:   a.BestEdge.KellyStake,
		FairOdd:    a.BestEdge.FairOdd,
		ActualOdd:  a.BestEdge.ActualOdd,
	}
}
