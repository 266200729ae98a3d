package enrichment

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/cicosss/earlybird/internal/model"
)

// Coords is a stadium location.
type Coords struct {
	Lat float64
	Lon float64
}

// RefereeInfo is what the data source knows about the appointed
// official.
type RefereeInfo struct {
	Name         string
	CardsPerGame float64
	Strictness   string
}

// TeamStats is the aggregate scoring profile used by the quant engine.
type TeamStats struct {
	AvgScored   float64
	AvgConceded float64
	SampleSize  int
	FormPPG     float64
	H2H         []H2HResult
}

// H2HResult is one past meeting between the two sides.
type H2HResult struct {
	HomeScore *int
	AwayScore *int
	Cards     float64
	Corners   float64
}

// WeatherImpact is the derived pitch-condition assessment.
type WeatherImpact struct {
	Condition string
	Alert     bool
	Summary   string
}

// Source is the upstream data provider the orchestrator fans out over.
// Implementations do their own per-host rate limiting; each method is
// one independent network fetch.
type Source interface {
	TeamContext(ctx context.Context, team string) (model.TeamContext, error)
	TurnoverRisk(ctx context.Context, team string) (model.TurnoverRisk, error)
	RefereeInfo(ctx context.Context, home, away string) (RefereeInfo, error)
	StadiumCoords(ctx context.Context, homeTeam string) (Coords, error)
	TeamStats(ctx context.Context, team string) (TeamStats, error)
	TacticalInsights(ctx context.Context, home, away string) (string, error)
	Weather(ctx context.Context, coords Coords, kickoff time.Time) (WeatherImpact, error)
}

// Data is the typed aggregate one enrichment pass produces. Any field
// may hold its zero value when the corresponding fetch failed; callers
// degrade per the partial-result policy.
type Data struct {
	HomeContext  model.TeamContext
	AwayContext  model.TeamContext
	HomeTurnover model.TurnoverRisk
	AwayTurnover model.TurnoverRisk
	Referee      RefereeInfo
	Stadium      *Coords
	HomeStats    TeamStats
	AwayStats    TeamStats
	Tactical     string
	Weather      *WeatherImpact

	ElapsedMS    int64
	SuccessCount int
	FailedCalls  map[string]string
}

// Enricher binds a Source to the fan-out orchestrator and maps the
// loosely-typed task results back into Data.
type Enricher struct {
	src  Source
	orch *Orchestrator
}

func NewEnricher(src Source, cfg Config, log zerolog.Logger) *Enricher {
	return &Enricher{src: src, orch: New(cfg, log)}
}

const stadiumCoordsKey = "stadium_coords"

// Enrich runs the nine independent fetches plus the dependent weather
// fetch for one match.
func (e *Enricher) Enrich(ctx context.Context, m model.Match) Data {
	tasks := []Task{
		{Key: "home_context", Run: func(ctx context.Context) (any, error) {
			return e.src.TeamContext(ctx, m.Home)
		}},
		{Key: "away_context", Run: func(ctx context.Context) (any, error) {
			return e.src.TeamContext(ctx, m.Away)
		}},
		{Key: "home_turnover", Run: func(ctx context.Context) (any, error) {
			return e.src.TurnoverRisk(ctx, m.Home)
		}},
		{Key: "away_turnover", Run: func(ctx context.Context) (any, error) {
			return e.src.TurnoverRisk(ctx, m.Away)
		}},
		{Key: "referee", Run: func(ctx context.Context) (any, error) {
			return e.src.RefereeInfo(ctx, m.Home, m.Away)
		}},
		{Key: stadiumCoordsKey, Run: func(ctx context.Context) (any, error) {
			return e.src.StadiumCoords(ctx, m.Home)
		}},
		{Key: "home_stats", Run: func(ctx context.Context) (any, error) {
			return e.src.TeamStats(ctx, m.Home)
		}},
		{Key: "away_stats", Run: func(ctx context.Context) (any, error) {
			return e.src.TeamStats(ctx, m.Away)
		}},
		{Key: "tactical", Run: func(ctx context.Context) (any, error) {
			return e.src.TacticalInsights(ctx, m.Home, m.Away)
		}},
	}

	weather := func(ctx context.Context, coords any) (any, error) {
		c, ok := coords.(Coords)
		if !ok {
			return nil, nil
		}
		return e.src.Weather(ctx, c, m.StartInstant)
	}

	res := e.orch.Run(ctx, tasks, stadiumCoordsKey, weather)

	data := Data{
		ElapsedMS:    res.ElapsedMS,
		SuccessCount: res.SuccessCount,
		FailedCalls:  res.FailedCalls,
	}

	if v, ok := res.Values["home_context"].(model.TeamContext); ok {
		data.HomeContext = v
	}
	if v, ok := res.Values["away_context"].(model.TeamContext); ok {
		data.AwayContext = v
	}
	if v, ok := res.Values["home_turnover"].(model.TurnoverRisk); ok {
		data.HomeTurnover = v
	}
	if v, ok := res.Values["away_turnover"].(model.TurnoverRisk); ok {
		data.AwayTurnover = v
	}
	if v, ok := res.Values["referee"].(RefereeInfo); ok {
		data.Referee = v
	}
	if v, ok := res.Values[stadiumCoordsKey].(Coords); ok {
		data.Stadium = &v
	}
	if v, ok := res.Values["home_stats"].(TeamStats); ok {
		data.HomeStats = v
	}
	if v, ok := res.Values["away_stats"].(TeamStats); ok {
		data.AwayStats = v
	}
	if v, ok := res.Values["tactical"].(string); ok {
		data.Tactical = v
	}
	if v, ok := res.Values["weather"].(WeatherImpact); ok {
		data.Weather = &v
	}

	return data
}
