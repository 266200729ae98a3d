package fatigue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cicosss/earlybird/internal/model"
)

var kickoff = time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)

func TestAssessTeam_EmptyScheduleIsExactlyZero(t *testing.T) {
	out := AssessTeam(nil, kickoff, model.DepthMid)
	assert.Equal(t, 0.0, out.Index)
	assert.Equal(t, LevelFresh, out.Level)
	assert.Equal(t, 0, out.MatchesInWindow)
}

func TestAssessTeam_RecentMatchesWeighMore(t *testing.T) {
	congested := AssessTeam([]time.Time{
		kickoff.Add(-2 * 24 * time.Hour),
		kickoff.Add(-5 * 24 * time.Hour),
	}, kickoff, model.DepthMid)

	rested := AssessTeam([]time.Time{
		kickoff.Add(-10 * 24 * time.Hour),
		kickoff.Add(-17 * 24 * time.Hour),
	}, kickoff, model.DepthMid)

	assert.Greater(t, congested.Index, rested.Index)
}

func TestAssessTeam_HalfDayClampPreventsBlowup(t *testing.T) {
	out := AssessTeam([]time.Time{kickoff.Add(-1 * time.Hour)}, kickoff, model.DepthMid)
	assert.LessOrEqual(t, out.Index, 2.0)
}

func TestAssessTeam_DepthScalesIndex(t *testing.T) {
	recent := []time.Time{kickoff.Add(-3 * 24 * time.Hour), kickoff.Add(-6 * 24 * time.Hour)}

	elite := AssessTeam(recent, kickoff, model.DepthElite)
	thin := AssessTeam(recent, kickoff, model.DepthLow)
	assert.Less(t, elite.Index, thin.Index)
}

func TestAssessTeam_MixedTimezonesNormalized(t *testing.T) {
	rome := time.FixedZone("CET", 3600)
	utcSchedule := []time.Time{kickoff.Add(-48 * time.Hour)}
	romeSchedule := []time.Time{kickoff.Add(-48 * time.Hour).In(rome)}

	a := AssessTeam(utcSchedule, kickoff, model.DepthMid)
	b := AssessTeam(romeSchedule, kickoff, model.DepthMid)
	assert.Equal(t, a.Index, b.Index)
	assert.Equal(t, a.HoursSinceLast, b.HoursSinceLast)
}

func TestAssessTeam_IgnoresOldAndFutureMatches(t *testing.T) {
	out := AssessTeam([]time.Time{
		kickoff.Add(-40 * 24 * time.Hour), // outside the 21-day window
		kickoff.Add(24 * time.Hour),       // after kickoff
	}, kickoff, model.DepthMid)
	assert.Equal(t, 0.0, out.Index)
	assert.Equal(t, 0, out.MatchesInWindow)
}

func TestLevelBuckets(t *testing.T) {
	assert.Equal(t, LevelCritical, levelFromRest(60))
	assert.Equal(t, LevelHigh, levelFromRest(80))
	assert.Equal(t, LevelMedium, levelFromRest(100))
	assert.Equal(t, LevelLow, levelFromRest(150))
	assert.Equal(t, LevelFresh, levelFromRest(300))
	assert.Equal(t, LevelFresh, levelFromRest(-1))
}

func TestCompare_CriticalSideLosesAdvantage(t *testing.T) {
	homeRecent := []time.Time{kickoff.Add(-48 * time.Hour)} // critical rest
	awayRecent := []time.Time{kickoff.Add(-8 * 24 * time.Hour)}

	c := Compare(homeRecent, awayRecent, kickoff, model.DepthMid, model.DepthMid)
	assert.Equal(t, LevelCritical, c.Home.Level)
	assert.Equal(t, AdvantageAway, c.Advantage)
}

func TestCompare_NeutralWhenBothRested(t *testing.T) {
	recent := []time.Time{kickoff.Add(-9 * 24 * time.Hour)}
	c := Compare(recent, recent, kickoff, model.DepthMid, model.DepthMid)
	assert.Equal(t, AdvantageNeutral, c.Advantage)
	assert.Equal(t, 0.0, c.Differential)
}
