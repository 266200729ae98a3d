package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cicosss/earlybird/internal/model"
	"github.com/cicosss/earlybird/internal/providerfed/httpclient"
)

// fotmobSource gathers team and match context from a FotMob-style free
// data endpoint, with weather resolved through a separate forecast
// vendor. All traffic runs through the guarded shared client, which
// owns the per-host rate limiting and fingerprint rotation this scraped
// endpoint needs.
type fotmobSource struct {
	data    *httpclient.Client
	weather *httpclient.Client
	baseURL string
	wxURL   string
	log     zerolog.Logger
}

// NewLiveSource builds the production Source over the guarded clients.
func NewLiveSource(data, weather *httpclient.Client, log zerolog.Logger) Source {
	return &fotmobSource{
		data:    data,
		weather: weather,
		baseURL: "https://www.fotmob.com/api",
		wxURL:   "https://api.openweathermap.org/data/2.5/forecast",
		log:     log,
	}
}

func (s *fotmobSource) get(ctx context.Context, component, rawURL string) ([]byte, error) {
	res, err := s.data.Do(ctx, component, false, func(ctx context.Context, _ string) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	})
	if err != nil {
		return nil, err
	}
	return res.Body, nil
}

// searchTeam resolves a team name to the source's team id, fuzzily: the
// feed's spelling rarely matches the odds feed's spelling exactly.
func (s *fotmobSource) searchTeam(ctx context.Context, team string) (int, string, error) {
	body, err := s.get(ctx, "enrichment.team_search",
		fmt.Sprintf("%s/searchapi?term=%s", s.baseURL, url.QueryEscape(team)))
	if err != nil {
		return 0, "", err
	}

	var parsed struct {
		Teams []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"teams"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, "", fmt.Errorf("team search: malformed response: %w", err)
	}

	names := make([]string, 0, len(parsed.Teams))
	for _, t := range parsed.Teams {
		names = append(names, t.Name)
	}
	best := FuzzyMatchTeam(team, names)
	if best == "" {
		return 0, "", fmt.Errorf("team search: no confident match for %q", team)
	}
	for _, t := range parsed.Teams {
		if t.Name == best {
			return t.ID, t.Name, nil
		}
	}
	return 0, "", fmt.Errorf("team search: no confident match for %q", team)
}

func (s *fotmobSource) TeamContext(ctx context.Context, team string) (model.TeamContext, error) {
	id, resolved, err := s.searchTeam(ctx, team)
	if err != nil {
		return model.TeamContext{}, err
	}

	body, err := s.get(ctx, "enrichment.team_context",
		fmt.Sprintf("%s/teams?id=%d", s.baseURL, id))
	if err != nil {
		return model.TeamContext{}, err
	}

	var parsed struct {
		Injuries []struct {
			Name     string `json:"name"`
			Reason   string `json:"reason"`
			Position string `json:"position"`
		} `json:"injuries"`
		Table struct {
			Position int `json:"position"`
			Points   int `json:"points"`
			Teams    int `json:"teams"`
		} `json:"table"`
		SquadSize int `json:"squadSize"`
		Fixtures  []struct {
			UTCTime time.Time `json:"utcTime"`
			Played  bool      `json:"played"`
		} `json:"fixtures"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return model.TeamContext{}, fmt.Errorf("team context: malformed response: %w", err)
	}

	tc := model.TeamContext{
		Team:          resolved,
		TablePosition: parsed.Table.Position,
		Points:        parsed.Table.Points,
		TotalTeams:    parsed.Table.Teams,
		SquadDepth:    depthFromSquadSize(parsed.SquadSize),
	}
	for _, inj := range parsed.Injuries {
		if strings.TrimSpace(inj.Name) == "" {
			continue
		}
		tc.Missing = append(tc.Missing, model.MissingPlayer{
			Name:     inj.Name,
			Reason:   inj.Reason,
			Position: positionFromLabel(inj.Position),
		})
	}
	for _, fx := range parsed.Fixtures {
		if fx.Played {
			tc.RecentMatches = append(tc.RecentMatches, fx.UTCTime.UTC())
		}
	}
	return tc, nil
}

func depthFromSquadSize(n int) model.SquadDepth {
	switch {
	case n >= 28:
		return model.DepthElite
	case n >= 25:
		return model.DepthUpper
	case n >= 22:
		return model.DepthMid
	case n >= 19:
		return model.DepthLower
	case n > 0:
		return model.DepthLow
	default:
		return model.DepthMid
	}
}

func positionFromLabel(label string) model.PlayerPosition {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "GK", "GOALKEEPER", "KEEPER":
		return model.PositionGoalkeeper
	case "DEF", "DEFENDER", "CB", "LB", "RB":
		return model.PositionDefender
	case "MID", "MIDFIELDER", "CM", "DM", "AM":
		return model.PositionMidfielder
	case "FWD", "FORWARD", "ST", "LW", "RW", "ATTACKER":
		return model.PositionForward
	default:
		return model.PositionUnknown
	}
}

func (s *fotmobSource) TurnoverRisk(ctx context.Context, team string) (model.TurnoverRisk, error) {
	tc, err := s.TeamContext(ctx, team)
	if err != nil {
		return model.TurnoverRiskLow, err
	}
	// A side drifting at the bottom with nothing to play for rotates
	// and sells; mid-table safety means stability.
	if tc.TotalTeams > 0 && tc.TablePosition > tc.TotalTeams-3 {
		return model.TurnoverRiskHigh, nil
	}
	if tc.TotalTeams > 0 && tc.TablePosition > tc.TotalTeams*2/3 {
		return model.TurnoverRiskMedium, nil
	}
	return model.TurnoverRiskLow, nil
}

func (s *fotmobSource) RefereeInfo(ctx context.Context, home, away string) (RefereeInfo, error) {
	body, err := s.get(ctx, "enrichment.referee",
		fmt.Sprintf("%s/matchDetails?home=%s&away=%s", s.baseURL, url.QueryEscape(home), url.QueryEscape(away)))
	if err != nil {
		return RefereeInfo{}, err
	}

	var parsed struct {
		Referee struct {
			Name         string  `json:"name"`
			CardsPerGame float64 `json:"cardsPerGame"`
		} `json:"referee"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return RefereeInfo{}, fmt.Errorf("referee: malformed response: %w", err)
	}
	info := RefereeInfo{Name: parsed.Referee.Name, CardsPerGame: parsed.Referee.CardsPerGame}
	switch {
	case info.CardsPerGame >= 5.0:
		info.Strictness = "strict"
	case info.CardsPerGame > 0 && info.CardsPerGame <= 3.0:
		info.Strictness = "lenient"
	default:
		info.Strictness = "average"
	}
	return info, nil
}

func (s *fotmobSource) StadiumCoords(ctx context.Context, homeTeam string) (Coords, error) {
	id, _, err := s.searchTeam(ctx, homeTeam)
	if err != nil {
		return Coords{}, err
	}
	body, err := s.get(ctx, "enrichment.stadium",
		fmt.Sprintf("%s/teams?id=%d&tab=overview", s.baseURL, id))
	if err != nil {
		return Coords{}, err
	}

	var parsed struct {
		Venue struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"long"`
		} `json:"venue"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Coords{}, fmt.Errorf("stadium: malformed response: %w", err)
	}
	if parsed.Venue.Lat == 0 && parsed.Venue.Lon == 0 {
		return Coords{}, fmt.Errorf("stadium: no coordinates for %q", homeTeam)
	}
	return Coords{Lat: parsed.Venue.Lat, Lon: parsed.Venue.Lon}, nil
}

func (s *fotmobSource) TeamStats(ctx context.Context, team string) (TeamStats, error) {
	id, _, err := s.searchTeam(ctx, team)
	if err != nil {
		return TeamStats{}, err
	}
	body, err := s.get(ctx, "enrichment.team_stats",
		fmt.Sprintf("%s/teams?id=%d&tab=stats", s.baseURL, id))
	if err != nil {
		return TeamStats{}, err
	}

	var parsed struct {
		Stats struct {
			Scored   float64 `json:"goalsScoredPerMatch"`
			Conceded float64 `json:"goalsConcededPerMatch"`
			Matches  int     `json:"matchesPlayed"`
			Points   float64 `json:"pointsPerGame"`
		} `json:"stats"`
		H2H []struct {
			HomeScore *int    `json:"homeScore"`
			AwayScore *int    `json:"awayScore"`
			Cards     float64 `json:"cards"`
			Corners   float64 `json:"corners"`
		} `json:"h2h"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return TeamStats{}, fmt.Errorf("team stats: malformed response: %w", err)
	}

	stats := TeamStats{
		AvgScored:   parsed.Stats.Scored,
		AvgConceded: parsed.Stats.Conceded,
		SampleSize:  parsed.Stats.Matches,
		FormPPG:     parsed.Stats.Points,
	}
	for _, h := range parsed.H2H {
		stats.H2H = append(stats.H2H, H2HResult{
			HomeScore: h.HomeScore, AwayScore: h.AwayScore,
			Cards: h.Cards, Corners: h.Corners,
		})
	}
	return stats, nil
}

func (s *fotmobSource) TacticalInsights(ctx context.Context, home, away string) (string, error) {
	body, err := s.get(ctx, "enrichment.tactical",
		fmt.Sprintf("%s/matchDetails?home=%s&away=%s&tab=preview", s.baseURL, url.QueryEscape(home), url.QueryEscape(away)))
	if err != nil {
		return "", err
	}
	var parsed struct {
		Preview struct {
			Text string `json:"text"`
		} `json:"preview"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("tactical: malformed response: %w", err)
	}
	return parsed.Preview.Text, nil
}

func (s *fotmobSource) Weather(ctx context.Context, coords Coords, kickoff time.Time) (WeatherImpact, error) {
	res, err := s.weather.Do(ctx, "enrichment.weather", false, func(ctx context.Context, apiKey string) (*http.Request, error) {
		u := fmt.Sprintf("%s?lat=%.4f&lon=%.4f&appid=%s&units=metric", s.wxURL, coords.Lat, coords.Lon, apiKey)
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return WeatherImpact{}, err
	}

	var parsed struct {
		List []struct {
			DT      int64 `json:"dt"`
			Weather []struct {
				Main string `json:"main"`
			} `json:"weather"`
			Wind struct {
				Speed float64 `json:"speed"`
			} `json:"wind"`
		} `json:"list"`
	}
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return WeatherImpact{}, fmt.Errorf("weather: malformed response: %w", err)
	}

	// Pick the forecast slot closest to kickoff.
	var bestGap time.Duration = -1
	impact := WeatherImpact{Condition: "Unknown"}
	for _, slot := range parsed.List {
		gap := kickoff.Sub(time.Unix(slot.DT, 0).UTC())
		if gap < 0 {
			gap = -gap
		}
		if bestGap >= 0 && gap >= bestGap {
			continue
		}
		bestGap = gap
		condition := "Clear"
		if len(slot.Weather) > 0 {
			condition = slot.Weather[0].Main
		}
		impact.Condition = condition
		impact.Alert = condition == "Snow" || condition == "Thunderstorm" || slot.Wind.Speed >= 15
		impact.Summary = fmt.Sprintf("%s, wind %.0f m/s", condition, slot.Wind.Speed)
	}
	return impact, nil
}
