// Package injury scores the real impact of squad absences: who is
// missing, how central they are to the eleven, and which side of the
// pitch their absence weakens. The per-team scores feed a home-away
// differential the analyzer folds into the final alert score.
package injury

import (
	"math"
	"strings"

	"github.com/cicosss/earlybird/internal/model"
)

// Severity buckets a team's total absence impact.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// maxAdjustment bounds how far the differential can move an alert score.
const maxAdjustment = 1.8

// positionBase is the starting weight per position. A missing keeper or
// striker hurts more than a missing full-back of equal standing.
func positionBase(p model.PlayerPosition) float64 {
	switch p {
	case model.PositionGoalkeeper:
		return 2.5
	case model.PositionDefender:
		return 2.0
	case model.PositionMidfielder:
		return 2.0
	case model.PositionForward:
		return 2.5
	default:
		return 1.0
	}
}

func roleMultiplier(r model.PlayerRole) float64 {
	switch r {
	case model.RoleStarter:
		return 1.6
	case model.RoleRotation:
		return 1.0
	case model.RoleBackup:
		return 0.4
	case model.RoleYouth:
		return 0.2
	default:
		return 0.4
	}
}

const keyPlayerBonus = 1.5

// PlayerImpact is the scored absence of one player.
type PlayerImpact struct {
	Name        string
	Position    model.PlayerPosition
	Role        model.PlayerRole
	ImpactScore float64
	Reason      string
	IsKeyPlayer bool
}

// TeamImpact aggregates a team's absences.
type TeamImpact struct {
	Team            string
	TotalImpact     float64
	MissingStarters int
	MissingRotation int
	MissingBackups  int
	KeyPlayersOut   []string
	DefensiveImpact float64
	OffensiveImpact float64
	Players         []PlayerImpact
}

// Severity classifies the aggregate per the absence thresholds: three
// missing starters or a total of 15 is squad-decimation territory.
func (t TeamImpact) Severity() Severity {
	switch {
	case t.TotalImpact >= 15 || t.MissingStarters >= 3:
		return SeverityCritical
	case t.TotalImpact >= 8 || t.MissingStarters >= 2:
		return SeverityHigh
	case t.TotalImpact >= 4 || t.MissingStarters >= 1:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Differential is the home-vs-away comparison. Positive means the home
// side is more affected.
type Differential struct {
	Home            TeamImpact
	Away            TeamImpact
	Diff            float64
	ScoreAdjustment float64
}

// SquadInfo is optional squad knowledge used to resolve role and
// position when the absence report doesn't carry them: names of the
// usual eleven, appearance counts, and the captain/top-scorer set.
type SquadInfo struct {
	Starters    map[string]bool
	Appearances map[string]int
	KeyPlayers  map[string]bool
	// PositionGroupSize is how many squad players share the absent
	// player's position group, when known.
	PositionGroupSize map[model.PlayerPosition]int
}

// appearancesStarterFloor is the appearance count from which a player is
// treated as a starter when the squad sheet doesn't say.
const appearancesStarterFloor = 20

// resolveRole fills in a missing role from squad data, falling back to
// heuristics: a listed starter is a starter, heavy appearance counts
// mean starter, a player whose position group has a known size of zero
// or less is a backup, and otherwise the first player seen in a position
// group is assumed to be its starter and any later one a backup. A known
// but small positive group size gets no special treatment.
func resolveRole(p model.MissingPlayer, squad *SquadInfo, firstOfPosition bool) model.PlayerRole {
	if p.Role != model.RoleUnknown {
		return p.Role
	}
	if squad != nil {
		if squad.Starters[p.Name] {
			return model.RoleStarter
		}
		if squad.Appearances[p.Name] >= appearancesStarterFloor {
			return model.RoleStarter
		}
		if size, ok := squad.PositionGroupSize[p.Position]; ok && size <= 0 {
			return model.RoleBackup
		}
	}
	if firstOfPosition {
		return model.RoleStarter
	}
	return model.RoleBackup
}

// ScoreTeam scores every absence for one team. Entries with an empty
// name are skipped.
func ScoreTeam(team string, missing []model.MissingPlayer, squad *SquadInfo) TeamImpact {
	impact := TeamImpact{Team: team}
	seenPosition := make(map[model.PlayerPosition]bool)

	for _, p := range missing {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}

		first := !seenPosition[p.Position]
		seenPosition[p.Position] = true

		role := resolveRole(p, squad, first)
		isKey := squad != nil && squad.KeyPlayers[p.Name]

		score := positionBase(p.Position) * roleMultiplier(role)
		if isKey {
			score += keyPlayerBonus
		}
		score = math.Max(0, math.Min(10, score))

		impact.Players = append(impact.Players, PlayerImpact{
			Name:        p.Name,
			Position:    p.Position,
			Role:        role,
			ImpactScore: score,
			Reason:      p.Reason,
			IsKeyPlayer: isKey,
		})
		impact.TotalImpact += score

		switch role {
		case model.RoleStarter:
			impact.MissingStarters++
		case model.RoleRotation:
			impact.MissingRotation++
		case model.RoleBackup:
			impact.MissingBackups++
		}
		if isKey {
			impact.KeyPlayersOut = append(impact.KeyPlayersOut, p.Name)
		}

		switch p.Position {
		case model.PositionGoalkeeper, model.PositionDefender:
			impact.DefensiveImpact += score
		case model.PositionForward:
			impact.OffensiveImpact += score
		case model.PositionMidfielder:
			impact.DefensiveImpact += score * 0.5
			impact.OffensiveImpact += score * 0.5
		}
	}

	impact.DefensiveImpact = math.Min(10, impact.DefensiveImpact)
	impact.OffensiveImpact = math.Min(10, impact.OffensiveImpact)
	return impact
}

// Compare scores both teams and produces the differential. The raw
// difference is the score adjustment, capped at ±1.8; the analyzer
// applies the market-dependent sign when it folds it in.
func Compare(home, away TeamImpact) Differential {
	diff := home.TotalImpact - away.TotalImpact
	adj := math.Max(-maxAdjustment, math.Min(maxAdjustment, diff))
	return Differential{Home: home, Away: away, Diff: diff, ScoreAdjustment: adj}
}

// ApplyToScore folds the adjustment into an alert score given the
// recommended market. A home-win recommendation is weakened when the
// home side is the more depleted one (positive diff subtracts); an
// away-win recommendation is strengthened by the same situation. Other
// markets leave the score untouched and rely on the defensive/offensive
// split instead.
func (d Differential) ApplyToScore(score float64, market model.Market) float64 {
	switch market {
	case model.MarketHome:
		return score - d.ScoreAdjustment
	case model.MarketAway:
		return score + d.ScoreAdjustment
	default:
		return score
	}
}
