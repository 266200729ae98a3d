package injury

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cicosss/earlybird/internal/model"
)

func TestScoreTeam_EmptyListIsZero(t *testing.T) {
	impact := ScoreTeam("Empoli", nil, nil)
	assert.Equal(t, 0.0, impact.TotalImpact)
	assert.Equal(t, SeverityLow, impact.Severity())
}

func TestScoreTeam_SkipsNamelessEntries(t *testing.T) {
	impact := ScoreTeam("Empoli", []model.MissingPlayer{
		{Name: "  ", Role: model.RoleStarter, Position: model.PositionForward},
		{Name: "Caputo", Role: model.RoleStarter, Position: model.PositionForward},
	}, nil)
	require.Len(t, impact.Players, 1)
	assert.Equal(t, "Caputo", impact.Players[0].Name)
}

func TestScoreTeam_StarterOutweighsBackup(t *testing.T) {
	starter := ScoreTeam("A", []model.MissingPlayer{
		{Name: "X", Role: model.RoleStarter, Position: model.PositionMidfielder},
	}, nil)
	backup := ScoreTeam("B", []model.MissingPlayer{
		{Name: "Y", Role: model.RoleBackup, Position: model.PositionMidfielder},
	}, nil)
	assert.Greater(t, starter.TotalImpact, backup.TotalImpact)
}

func TestScoreTeam_PerPlayerScoreClampedToTen(t *testing.T) {
	squad := &SquadInfo{KeyPlayers: map[string]bool{"Osimhen": true}}
	impact := ScoreTeam("Napoli", []model.MissingPlayer{
		{Name: "Osimhen", Role: model.RoleStarter, Position: model.PositionForward},
	}, squad)
	require.Len(t, impact.Players, 1)
	assert.LessOrEqual(t, impact.Players[0].ImpactScore, 10.0)
	assert.Greater(t, impact.Players[0].ImpactScore, 0.0)
	assert.Equal(t, []string{"Osimhen"}, impact.KeyPlayersOut)
}

func TestScoreTeam_SeverityThresholds(t *testing.T) {
	threeStarters := []model.MissingPlayer{
		{Name: "A", Role: model.RoleStarter, Position: model.PositionDefender},
		{Name: "B", Role: model.RoleStarter, Position: model.PositionDefender},
		{Name: "C", Role: model.RoleStarter, Position: model.PositionMidfielder},
	}
	assert.Equal(t, SeverityCritical, ScoreTeam("X", threeStarters, nil).Severity())

	twoStarters := threeStarters[:2]
	assert.Equal(t, SeverityHigh, ScoreTeam("X", twoStarters, nil).Severity())

	oneStarter := threeStarters[:1]
	assert.Equal(t, SeverityMedium, ScoreTeam("X", oneStarter, nil).Severity())

	oneBackup := []model.MissingPlayer{{Name: "D", Role: model.RoleBackup, Position: model.PositionMidfielder}}
	assert.Equal(t, SeverityLow, ScoreTeam("X", oneBackup, nil).Severity())
}

func TestResolveRole_Heuristics(t *testing.T) {
	squad := &SquadInfo{
		Starters:    map[string]bool{"Di Lorenzo": true},
		Appearances: map[string]int{"Veteran": 31},
		PositionGroupSize: map[model.PlayerPosition]int{
			model.PositionGoalkeeper: 0,
		},
	}

	// Squad sheet says starter.
	impact := ScoreTeam("Napoli", []model.MissingPlayer{
		{Name: "Di Lorenzo", Position: model.PositionDefender},
	}, squad)
	assert.Equal(t, model.RoleStarter, impact.Players[0].Role)

	// Heavy appearances mean starter.
	impact = ScoreTeam("Napoli", []model.MissingPlayer{
		{Name: "Veteran", Position: model.PositionMidfielder},
	}, squad)
	assert.Equal(t, model.RoleStarter, impact.Players[0].Role)

	// A zero-size position group yields backup.
	impact = ScoreTeam("Napoli", []model.MissingPlayer{
		{Name: "Nobody", Position: model.PositionGoalkeeper},
	}, squad)
	assert.Equal(t, model.RoleBackup, impact.Players[0].Role)

	// First unknown player of a position group is assumed the starter;
	// the second is not.
	impact = ScoreTeam("Napoli", []model.MissingPlayer{
		{Name: "First", Position: model.PositionForward},
		{Name: "Second", Position: model.PositionForward},
	}, nil)
	assert.Equal(t, model.RoleStarter, impact.Players[0].Role)
	assert.Equal(t, model.RoleBackup, impact.Players[1].Role)
}

func TestCompare_SignConventionAndCap(t *testing.T) {
	home := TeamImpact{TotalImpact: 12}
	away := TeamImpact{TotalImpact: 3}
	d := Compare(home, away)

	assert.Equal(t, 9.0, d.Diff)
	assert.Equal(t, 1.8, d.ScoreAdjustment)

	reversed := Compare(away, home)
	assert.Equal(t, -1.8, reversed.ScoreAdjustment)
}

func TestApplyToScore_MarketDependentSign(t *testing.T) {
	d := Compare(TeamImpact{TotalImpact: 5}, TeamImpact{TotalImpact: 4})
	require.Equal(t, 1.0, d.ScoreAdjustment)

	assert.Equal(t, 7.0, d.ApplyToScore(8.0, model.MarketHome))
	assert.Equal(t, 9.0, d.ApplyToScore(8.0, model.MarketAway))
	assert.Equal(t, 8.0, d.ApplyToScore(8.0, model.MarketBTTS))
	assert.Equal(t, 8.0, d.ApplyToScore(8.0, model.MarketOver25))
}

func TestScoreTeam_DefensiveOffensiveSplit(t *testing.T) {
	impact := ScoreTeam("X", []model.MissingPlayer{
		{Name: "GK", Role: model.RoleStarter, Position: model.PositionGoalkeeper},
		{Name: "ST", Role: model.RoleStarter, Position: model.PositionForward},
	}, nil)
	assert.Greater(t, impact.DefensiveImpact, 0.0)
	assert.Greater(t, impact.OffensiveImpact, 0.0)
	assert.LessOrEqual(t, impact.DefensiveImpact, 10.0)
	assert.LessOrEqual(t, impact.OffensiveImpact, 10.0)
}
