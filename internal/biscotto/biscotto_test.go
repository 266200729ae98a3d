package biscotto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect_ExtremeEndOfSeasonScenario(t *testing.T) {
	in := Input{
		CurrentDrawOdd:   1.80,
		OpeningDrawOdd:   3.00,
		MatchesRemaining: 2,
		Home:             &TableSituation{Position: 17, PointsNeeded: 1, InRelegation: true},
		Away:             &TableSituation{Position: 16, PointsNeeded: 1, InRelegation: true},
	}
	res := Detect(in, DefaultParams())

	assert.Equal(t, SeverityExtreme, res.Severity)
	assert.True(t, strings.HasPrefix(res.Recommendation, "BET X"))
	assert.True(t, res.MutualBenefit)
	assert.Equal(t, DropCrash, res.DropPattern)
}

func TestDetect_MissingOrInvalidDrawOddNotSuspect(t *testing.T) {
	res := Detect(Input{CurrentDrawOdd: 0}, DefaultParams())
	assert.Equal(t, SeverityNone, res.Severity)

	res = Detect(Input{CurrentDrawOdd: 1.0}, DefaultParams())
	assert.Equal(t, SeverityNone, res.Severity)
	assert.Equal(t, "AVOID", res.Recommendation)
}

func TestDetect_NormalPriceNoSignals(t *testing.T) {
	res := Detect(Input{CurrentDrawOdd: 3.40, OpeningDrawOdd: 3.30, MatchesRemaining: 20}, DefaultParams())
	assert.Equal(t, SeverityNone, res.Severity)
	assert.Equal(t, "AVOID", res.Recommendation)
}

func TestDetect_LowPriceAloneIsLow(t *testing.T) {
	res := Detect(Input{CurrentDrawOdd: 2.60, OpeningDrawOdd: 2.65, MatchesRemaining: 10}, DefaultParams())
	// Below the 2.50 threshold? No: 2.60 > 2.50 and z-score small.
	assert.Equal(t, SeverityNone, res.Severity)

	res = Detect(Input{CurrentDrawOdd: 2.40, OpeningDrawOdd: 2.45, MatchesRemaining: 10}, DefaultParams())
	assert.Equal(t, SeverityLow, res.Severity)
	assert.Equal(t, "AVOID", res.Recommendation)
}

func TestDetect_DriftVsCrashClassification(t *testing.T) {
	p := DefaultParams()

	drift := Detect(Input{CurrentDrawOdd: 2.55, OpeningDrawOdd: 3.00, MatchesRemaining: 10}, p)
	assert.Equal(t, DropDrift, drift.DropPattern) // 15% drop

	crash := Detect(Input{CurrentDrawOdd: 2.10, OpeningDrawOdd: 3.00, MatchesRemaining: 10}, p)
	assert.Equal(t, DropCrash, crash.DropPattern) // 30% drop
}

func TestDetect_EndOfSeasonLoosensThreshold(t *testing.T) {
	p := DefaultParams()
	in := Input{CurrentDrawOdd: 2.55, OpeningDrawOdd: 2.58, MatchesRemaining: 2}

	res := Detect(in, p)
	// 2.55 is above the normal 2.50 threshold but below 2.65 at season end.
	found := false
	for _, f := range res.Factors {
		if strings.Contains(f, "below threshold") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestMutualBenefit(t *testing.T) {
	assert.False(t, mutualBenefit(nil, nil))
	assert.True(t, mutualBenefit(
		&TableSituation{InRelegation: true},
		&TableSituation{InRelegation: true},
	))
	assert.True(t, mutualBenefit(
		&TableSituation{ChasingEurope: true},
		&TableSituation{ChasingEurope: true},
	))
	assert.False(t, mutualBenefit(
		&TableSituation{InRelegation: true},
		&TableSituation{ChasingEurope: true},
	))
}

func TestSeverityAtLeast(t *testing.T) {
	assert.True(t, SeverityExtreme.AtLeast(SeverityHigh))
	assert.True(t, SeverityHigh.AtLeast(SeverityHigh))
	assert.False(t, SeverityMedium.AtLeast(SeverityHigh))
}
