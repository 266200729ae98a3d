package quant

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cicosss/earlybird/internal/model"
)

func TestPoissonProbability_ZeroLambda(t *testing.T) {
	assert.Equal(t, 1.0, PoissonProbability(0, 0))
	assert.Equal(t, 0.0, PoissonProbability(0, 3))
}

func TestDixonColesCorrection_LiftsDraws(t *testing.T) {
	c00 := DixonColesCorrection(0, 0, 1.5, 1.2, DefaultRho)
	assert.Greater(t, c00, 1.0)
	c11 := DixonColesCorrection(1, 1, 1.5, 1.2, DefaultRho)
	assert.Greater(t, c11, 1.0)
	assert.Equal(t, 1.0, DixonColesCorrection(2, 3, 1.5, 1.2, DefaultRho))
}

func TestDixonColesCorrection_ClampedAcrossLambdaRange(t *testing.T) {
	for lh := 0.1; lh <= 5.0; lh += 0.7 {
		for la := 0.1; la <= 5.0; la += 0.7 {
			for _, cell := range [][2]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}} {
				c := DixonColesCorrection(cell[0], cell[1], lh, la, DefaultRho)
				assert.GreaterOrEqual(t, c, 0.01)
				assert.LessOrEqual(t, c, 2.0)
			}
		}
	}
}

func TestSimulateMatch_OutcomesSumToOne(t *testing.T) {
	p := NewPredictor(0, 0, 0)
	for _, stats := range [][4]float64{
		{2.1, 0.8, 1.2, 1.9},
		{0.5, 2.5, 3.0, 0.4},
		{1.35, 1.35, 1.35, 1.35},
	} {
		r := p.SimulateMatch(stats[0], stats[1], stats[2], stats[3])
		require.NotNil(t, r)
		sum := r.HomeWinProb + r.DrawProb + r.AwayWinProb
		assert.InDelta(t, 1.0, sum, 1e-6)
	}
}

func TestSimulateMatch_HomeAdvantageBoostsHomeLambdaOnly(t *testing.T) {
	with := NewPredictor(1.35, 0.30, DefaultRho)
	without := &Predictor{LeagueAvg: 1.35, HomeAdvantage: 0, Rho: DefaultRho}

	rw := with.SimulateMatch(1.5, 1.0, 1.2, 1.1)
	ro := without.SimulateMatch(1.5, 1.0, 1.2, 1.1)
	require.NotNil(t, rw)
	require.NotNil(t, ro)

	assert.InDelta(t, rw.HomeLambda, ro.HomeLambda+0.30, 1e-9)
	assert.Equal(t, ro.AwayLambda, rw.AwayLambda)
}

func TestSimulateMatch_RejectsNegativeInputs(t *testing.T) {
	p := NewPredictor(0, 0, 0)
	assert.Nil(t, p.SimulateMatch(-1, 0.8, 1.2, 1.9))
}

func TestCalculateEdge_FairOddAndEdgeDefinition(t *testing.T) {
	for _, tc := range []struct {
		p float64
		o float64
	}{
		{0.55, 2.10}, {0.30, 4.00}, {0.80, 1.40}, {0.99, 1.10},
	} {
		e := CalculateEdge(tc.p, tc.o, 10)
		assert.InDelta(t, 1.0/tc.p, e.FairOdd, 0.01, "fair odd for p=%v", tc.p)
		assert.InDelta(t, (tc.p-1.0/tc.o)*100, e.Edge, 1e-9)
		assert.Equal(t, e.Edge > 0, e.HasValue)
	}
}

func TestCalculateEdge_OddFloorBoundary(t *testing.T) {
	atFloor := CalculateEdge(0.99, 1.05, 10)
	assert.True(t, atFloor.HasValue)
	assert.Greater(t, atFloor.Edge, 0.0)

	rejected := CalculateEdge(0.99, 1.0499, 10)
	assert.False(t, rejected.HasValue)
	assert.Equal(t, 0.0, rejected.KellyStake)
	assert.Equal(t, model.MarketUnknown, rejected.Market)
}

func TestCalculateEdge_KellyMonotoneInSampleSize(t *testing.T) {
	prev := -1.0
	for n := 1; n <= 100; n++ {
		e := CalculateEdge(0.60, 2.00, n)
		assert.GreaterOrEqual(t, e.KellyStake, prev, "n=%d", n)
		prev = e.KellyStake
	}
}

func TestCalculateEdge_KellyAlwaysWithinCap(t *testing.T) {
	for p := 0.05; p < 1.0; p += 0.05 {
		for o := 1.10; o < 10; o += 0.45 {
			e := CalculateEdge(p, o, 10)
			assert.GreaterOrEqual(t, e.KellyStake, 0.0)
			assert.LessOrEqual(t, e.KellyStake, MaxStakePct)
		}
	}
}

func TestAnalyzeMatch_StrongHomeScenario(t *testing.T) {
	p := NewPredictor(1.35, 0, 0)
	a := p.AnalyzeMatch(2.1, 0.8, 1.2, 1.9, model.Odds{
		Home: 1.65, Draw: 3.80, Away: 5.50, Over25: 1.85, BTTS: 1.75,
	}, 10)
	require.NotNil(t, a)

	assert.Greater(t, a.Poisson.HomeWinProb, 0.50)

	home := a.Edges[model.MarketHome]
	assert.InDelta(t, 1.0/a.Poisson.HomeWinProb, home.FairOdd, 0.02)

	hasValue := false
	for _, e := range a.Edges {
		if e.HasValue {
			hasValue = true
		}
		assert.LessOrEqual(t, e.KellyStake, 5.0)
	}
	assert.True(t, hasValue)
}

func TestAnalyzeMatch_DoubleChanceUsesInferredMarketOdd(t *testing.T) {
	p := NewPredictor(1.35, 0, 0)
	a := p.AnalyzeMatch(1.5, 1.0, 1.3, 1.2, model.Odds{Home: 2.20, Draw: 3.30, Away: 3.40}, 10)
	require.NotNil(t, a)

	oneX, ok := a.Edges[model.MarketDoubleOneX]
	require.True(t, ok)
	wantOdd := 1.0 / (1.0/2.20 + 1.0/3.30)
	assert.InDelta(t, wantOdd, oneX.ActualOdd, 1e-9)

	prob := a.Poisson.HomeWinProb + a.Poisson.DrawProb
	assert.InDelta(t, 1.0/prob, oneX.FairOdd, 0.01)
}

func TestAnalyzeMatch_BestMarketIsLargestEdge(t *testing.T) {
	p := NewPredictor(1.35, 0, 0)
	a := p.AnalyzeMatch(2.1, 0.8, 1.2, 1.9, model.Odds{Home: 1.65, Draw: 3.80, Away: 5.50}, 10)
	require.NotNil(t, a)
	require.NotNil(t, a.BestEdge)

	for _, e := range a.Edges {
		if e.HasValue {
			assert.LessOrEqual(t, e.Edge, a.BestEdge.Edge+1e-12)
		}
	}
}

func TestCalculateBTTSTrend_KnownHistory(t *testing.T) {
	i := func(v int) *int { return &v }
	trend := CalculateBTTSTrend([]H2HScore{
		{i(2), i(1)}, {i(1), i(0)}, {i(1), i(2)}, {i(0), i(0)}, {i(3), i(1)},
	})
	assert.Equal(t, 3, trend.Hits)
	assert.Equal(t, 5, trend.TotalGames)
	assert.Equal(t, 60.0, trend.Rate)
	assert.Equal(t, "High", trend.TrendSignal)
}

func TestCalculateBTTSTrend_PermutationInvariantAndSkipsMissing(t *testing.T) {
	i := func(v int) *int { return &v }
	a := []H2HScore{{i(2), i(1)}, {nil, i(1)}, {i(0), i(0)}, {i(1), i(1)}}
	b := []H2HScore{{i(1), i(1)}, {i(0), i(0)}, {i(2), i(1)}, {nil, i(1)}}

	ta := CalculateBTTSTrend(a)
	tb := CalculateBTTSTrend(b)
	assert.Equal(t, ta, tb)
	assert.Equal(t, 3, ta.TotalGames)
	assert.LessOrEqual(t, ta.Hits, ta.TotalGames)
}

func TestCalculateBTTSTrend_Empty(t *testing.T) {
	trend := CalculateBTTSTrend(nil)
	assert.Equal(t, 0.0, trend.Rate)
	assert.Equal(t, "Unknown", trend.TrendSignal)
}

func TestQuantBlock_NilSafe(t *testing.T) {
	var a *MatchAnalysis
	block := a.QuantBlock()
	assert.Equal(t, model.MarketUnknown, block.BestMarket)
	assert.True(t, math.Abs(block.EdgePct) < 1e-12)
}
