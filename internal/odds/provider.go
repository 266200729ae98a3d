// Package odds ingests upcoming fixtures and their market prices from
// the odds aggregation vendor. Every call runs through the guarded
// shared client; responses are decoded tolerantly and invalid prices
// are dropped at this boundary so nothing below ever sees an odd under
// 1.01.
package odds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cicosss/earlybird/internal/model"
	"github.com/cicosss/earlybird/internal/providerfed/httpclient"
)

// sportKeys maps internal league keys to the vendor's sport keys.
var sportKeys = map[string]string{
	"serie_a":           "soccer_italy_serie_a",
	"serie_b":           "soccer_italy_serie_b",
	"premier_league":    "soccer_epl",
	"championship":      "soccer_efl_champ",
	"la_liga":           "soccer_spain_la_liga",
	"bundesliga":        "soccer_germany_bundesliga",
	"ligue_1":           "soccer_france_ligue_one",
	"eredivisie":        "soccer_netherlands_eredivisie",
	"liga_portugal":     "soccer_portugal_primeira_liga",
	"super_lig":         "soccer_turkey_super_league",
	"jupiler_pro":       "soccer_belgium_first_div",
	"brasileirao":       "soccer_brazil_campeonato",
	"argentina_primera": "soccer_argentina_primera_division",
}

// Provider fetches fixtures and prices for one league at a time.
type Provider struct {
	client  *httpclient.Client
	baseURL string
	log     zerolog.Logger
}

func NewProvider(client *httpclient.Client, log zerolog.Logger) *Provider {
	return &Provider{
		client:  client,
		baseURL: "https://api.the-odds-api.com/v4/sports",
		log:     log,
	}
}

type vendorEvent struct {
	ID           string    `json:"id"`
	CommenceTime time.Time `json:"commence_time"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	Bookmakers   []struct {
		Markets []struct {
			Key      string `json:"key"`
			Outcomes []struct {
				Name  string  `json:"name"`
				Price float64 `json:"price"`
				Point float64 `json:"point"`
			} `json:"outcomes"`
		} `json:"markets"`
	} `json:"bookmakers"`
}

// ListUpcoming returns the league's fixtures inside the horizon with
// their current prices. Fixtures already kicked off are skipped here so
// ingestion stays idempotent across re-polls.
func (p *Provider) ListUpcoming(ctx context.Context, leagueKey string, now time.Time, horizon time.Duration) ([]model.Match, error) {
	sport, ok := sportKeys[leagueKey]
	if !ok {
		return nil, fmt.Errorf("odds: no sport mapping for league %q", leagueKey)
	}

	res, err := p.client.Do(ctx, "odds.fixtures", true, func(ctx context.Context, apiKey string) (*http.Request, error) {
		u := fmt.Sprintf("%s/%s/odds?apiKey=%s&regions=eu&markets=h2h,totals,btts", p.baseURL, sport, apiKey)
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return nil, err
	}

	var events []vendorEvent
	if err := json.Unmarshal(res.Body, &events); err != nil {
		return nil, fmt.Errorf("odds: malformed response for %s: %w", leagueKey, err)
	}

	out := make([]model.Match, 0, len(events))
	for _, ev := range events {
		start := ev.CommenceTime.UTC()
		if !start.After(now) || start.After(now.Add(horizon)) {
			continue
		}

		m := model.Match{
			ID:           matchID(leagueKey, ev.HomeTeam, ev.AwayTeam, start),
			LeagueKey:    leagueKey,
			Home:         ev.HomeTeam,
			Away:         ev.AwayTeam,
			StartInstant: start,
			CurrentOdds:  p.extractOdds(ev),
		}
		if !m.CurrentOdds.Valid() {
			p.log.Warn().Str("match", m.ID).Msg("odds below floor dropped at ingestion")
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// matchID derives a stable id from the fixture identity so re-polls hit
// the same row; the UUID namespace keeps it collision-safe across
// leagues and seasons.
func matchID(league, home, away string, start time.Time) string {
	seed := fmt.Sprintf("%s|%s|%s|%s", league, strings.ToLower(home), strings.ToLower(away), start.Format(time.RFC3339))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

func (p *Provider) extractOdds(ev vendorEvent) model.Odds {
	var odds model.Odds
	for _, bk := range ev.Bookmakers {
		for _, market := range bk.Markets {
			switch market.Key {
			case "h2h":
				for _, o := range market.Outcomes {
					switch o.Name {
					case ev.HomeTeam:
						odds.Home = firstOdd(odds.Home, o.Price)
					case ev.AwayTeam:
						odds.Away = firstOdd(odds.Away, o.Price)
					case "Draw":
						odds.Draw = firstOdd(odds.Draw, o.Price)
					}
				}
			case "totals":
				for _, o := range market.Outcomes {
					if o.Point != 2.5 {
						continue
					}
					switch o.Name {
					case "Over":
						odds.Over25 = firstOdd(odds.Over25, o.Price)
					case "Under":
						odds.Under25 = firstOdd(odds.Under25, o.Price)
					}
				}
			case "btts":
				for _, o := range market.Outcomes {
					if o.Name == "Yes" {
						odds.BTTS = firstOdd(odds.BTTS, o.Price)
					}
				}
			}
		}
	}
	return odds
}

// firstOdd keeps the first bookmaker's price for a market; later books
// in the payload don't overwrite it.
func firstOdd(existing, candidate float64) float64 {
	if existing > 0 {
		return existing
	}
	if candidate >= 1.01 {
		return candidate
	}
	return 0
}
