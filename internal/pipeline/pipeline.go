// Package pipeline wires the whole decision path together and runs it
// once per scheduling cycle: ingest fixtures and prices, enrich each
// analyzable match, score it quantitatively, and, for candidates
// clearing the alert threshold, triangulate with the AI, gate the
// verdict, and emit the alert.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cicosss/earlybird/internal/ai"
	"github.com/cicosss/earlybird/internal/alert"
	"github.com/cicosss/earlybird/internal/analyzer"
	"github.com/cicosss/earlybird/internal/biscotto"
	"github.com/cicosss/earlybird/internal/config"
	"github.com/cicosss/earlybird/internal/enrichment"
	"github.com/cicosss/earlybird/internal/fatigue"
	"github.com/cicosss/earlybird/internal/injury"
	"github.com/cicosss/earlybird/internal/leagues"
	"github.com/cicosss/earlybird/internal/marketintel"
	"github.com/cicosss/earlybird/internal/metrics"
	"github.com/cicosss/earlybird/internal/model"
	"github.com/cicosss/earlybird/internal/persistence"
	"github.com/cicosss/earlybird/internal/quant"
	"github.com/cicosss/earlybird/internal/verification"
)

// FixtureSource lists a league's upcoming fixtures with current prices.
type FixtureSource interface {
	ListUpcoming(ctx context.Context, leagueKey string, now time.Time, horizon time.Duration) ([]model.Match, error)
}

// IntelSource provides the AI deep-dive block quoted verbatim into the
// dossier's tactical context.
type IntelSource interface {
	DeepDive(ctx context.Context, m ai.MatchIdentity, referee string, missingPlayers []string) (*ai.DeepDiveResult, error)
}

// NewsFunc fetches fresh headlines for a match query; the pipeline
// stamps the match id, persists them through the dedup key, and folds
// the freshest into the dossier.
type NewsFunc func(ctx context.Context, query string, limit int) []model.NewsItem

// Pipeline owns one process's full decision path. All dependencies are
// constructed once at startup and passed in.
type Pipeline struct {
	cfg      config.Config
	store    persistence.Store
	fixtures FixtureSource
	enricher *enrichment.Enricher
	analyzer *analyzer.Analyzer
	gate     *verification.Gate
	brain    *leagues.Brain
	channel  alert.Channel
	metrics  *metrics.Metrics
	log      zerolog.Logger

	intel IntelSource
	news  NewsFunc

	cycle model.CycleState
}

// WithIntel attaches the AI deep-dive source; nil leaves the tactical
// context to the enrichment data alone.
func (p *Pipeline) WithIntel(intel IntelSource) *Pipeline {
	p.intel = intel
	return p
}

// WithNews attaches the headline gatherer.
func (p *Pipeline) WithNews(news NewsFunc) *Pipeline {
	p.news = news
	return p
}

func New(cfg config.Config, store persistence.Store, fixtures FixtureSource, enricher *enrichment.Enricher,
	an *analyzer.Analyzer, gate *verification.Gate, brain *leagues.Brain, channel alert.Channel,
	m *metrics.Metrics, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg: cfg, store: store, fixtures: fixtures, enricher: enricher,
		analyzer: an, gate: gate, brain: brain, channel: channel,
		metrics: m, log: log,
	}
}

// CycleResult summarizes one cycle for the caller and the logs.
type CycleResult struct {
	Cycle         int64
	Leagues       []string
	MatchesSeen   int
	Analyzed      int
	AlertsEmitted int
	Elapsed       time.Duration
}

// RunCycle executes one full scheduling cycle.
func (p *Pipeline) RunCycle(ctx context.Context, emergency bool) CycleResult {
	start := time.Now()
	p.cycle.Cycle++

	selected := p.brain.LeaguesForCycle(emergency, start)
	if p.brain.ShouldPromoteFallback(start) {
		promoted := p.brain.PromoteFallback(start)
		selected = append(selected, promoted...)
		p.log.Info().Strs("promoted", promoted).Msg("dry spell: widened coverage with tier-2 fallback batch")
	}

	res := CycleResult{Cycle: p.cycle.Cycle, Leagues: selected}

	for _, league := range selected {
		matches, err := p.ingestLeague(ctx, league, start)
		if err != nil {
			p.log.Warn().Str("league", league).Err(err).Msg("fixture ingestion failed; skipping league this cycle")
			continue
		}
		res.MatchesSeen += len(matches)

		for _, m := range matches {
			if !m.Analyzable(time.Now().UTC(), p.cfg.Gates.AnalyzableHorizon) {
				continue
			}
			emitted, analyzed := p.processMatch(ctx, m)
			if analyzed {
				res.Analyzed++
			}
			if emitted {
				res.AlertsEmitted++
			}
		}
	}

	p.brain.RecordCycleOutcome(res.AlertsEmitted)
	if res.AlertsEmitted == 0 {
		p.cycle.ConsecutiveDryCycles++
	} else {
		p.cycle.ConsecutiveDryCycles = 0
	}

	res.Elapsed = time.Since(start)
	if p.metrics != nil {
		p.metrics.CyclesTotal.Inc()
		p.metrics.CycleDuration.Observe(res.Elapsed.Seconds())
	}
	p.log.Info().
		Int64("cycle", res.Cycle).
		Int("matches", res.MatchesSeen).
		Int("analyzed", res.Analyzed).
		Int("alerts", res.AlertsEmitted).
		Dur("elapsed", res.Elapsed).
		Msg("cycle complete")
	return res
}

// ingestLeague pulls fixtures, persists them, and appends an odds
// snapshot per poll.
func (p *Pipeline) ingestLeague(ctx context.Context, league string, now time.Time) ([]model.Match, error) {
	matches, err := p.fixtures.ListUpcoming(ctx, league, now, p.cfg.Gates.AnalyzableHorizon)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		if err := p.store.UpsertMatch(ctx, m); err != nil {
			p.log.Warn().Str("match", m.ID).Err(err).Msg("match upsert failed")
			continue
		}
		snap := model.OddsSnapshot{MatchID: m.ID, CapturedAt: now.UTC(), Odds: m.CurrentOdds}
		if err := p.store.AppendOddsSnapshot(ctx, snap); err != nil {
			p.log.Warn().Str("match", m.ID).Err(err).Msg("odds snapshot append failed")
		}
	}
	return matches, nil
}

// processMatch runs the full per-match path. It reports (emitted,
// analyzed): analyzed means the AI triangulation ran.
func (p *Pipeline) processMatch(ctx context.Context, m model.Match) (bool, bool) {
	params := p.cfg.ParamsFor(m.LeagueKey)

	data := p.enricher.Enrich(ctx, m)
	if len(data.FailedCalls) > 0 {
		p.log.Debug().Str("match", m.ID).Interface("failed", data.FailedCalls).Msg("enrichment partial")
	}

	s := p.collectSignals(ctx, m, params, data)
	score, notes := preliminaryScore(s)

	if score < p.cfg.Gates.AlertThresholdHigh {
		p.log.Debug().Str("match", m.ID).Float64("score", score).Msg("below alert threshold")
		return false, false
	}

	result, err := p.triangulate(ctx, m, s, notes)
	if err != nil {
		p.log.Warn().Str("match", m.ID).Err(err).Msg("triangulation failed")
		return false, true
	}
	if p.metrics != nil {
		p.metrics.MatchesAnalyzed.Inc()
	}

	if score >= p.cfg.Gates.VerificationScoreThreshold {
		outcome := p.gate.Verify(*result, verificationEvidence(s, m, params))
		result = outcome.Result
	}

	result.Cycle = p.cycle.Cycle
	if s.Quant != nil {
		result.Quant = s.Quant.QuantBlock()
	}

	if result.Verdict != model.VerdictBet {
		return false, true
	}

	if err := p.store.RecordAlert(ctx, *result); err != nil {
		p.log.Warn().Str("match", m.ID).Err(err).Msg("alert record failed")
	}
	payload := alert.NewPayload(m, *result, time.Now())
	if err := p.channel.SendAlert(ctx, payload); err != nil {
		p.log.Warn().Str("match", m.ID).Err(err).Msg("alert delivery failed")
	}
	if p.metrics != nil {
		p.metrics.AlertsEmitted.WithLabelValues(m.LeagueKey, string(result.RecommendedMarket)).Inc()
	}
	return true, true
}

// AnalyzeOne runs the full per-match path for a single fixture
// regardless of the alert threshold, returning the analysis for
// inspection. Used by the one-off analyze command; nothing is emitted
// or recorded.
func (p *Pipeline) AnalyzeOne(ctx context.Context, m model.Match) (*model.AnalysisResult, error) {
	params := p.cfg.ParamsFor(m.LeagueKey)
	data := p.enricher.Enrich(ctx, m)
	s := p.collectSignals(ctx, m, params, data)
	score, notes := preliminaryScore(s)
	notes = append(notes, fmt.Sprintf("preliminary score %.1f", score))

	result, err := p.triangulate(ctx, m, s, notes)
	if err != nil {
		return nil, err
	}
	outcome := p.gate.Verify(*result, verificationEvidence(s, m, params))
	result = outcome.Result
	if s.Quant != nil {
		result.Quant = s.Quant.QuantBlock()
	}
	return result, nil
}

func (p *Pipeline) collectSignals(ctx context.Context, m model.Match, params config.LeagueParams, data enrichment.Data) signals {
	s := signals{Data: data}

	if data.HomeStats.SampleSize >= quant.MinMatchesRequired && data.AwayStats.SampleSize >= quant.MinMatchesRequired {
		predictor := quant.NewPredictor(params.LeagueAvgGoals, params.HomeAdvantage, p.cfg.Gates.DixonColesRho)
		sample := data.HomeStats.SampleSize
		if data.AwayStats.SampleSize < sample {
			sample = data.AwayStats.SampleSize
		}
		s.Quant = predictor.AnalyzeMatch(
			data.HomeStats.AvgScored, data.HomeStats.AvgConceded,
			data.AwayStats.AvgScored, data.AwayStats.AvgConceded,
			m.CurrentOdds, sample)
	}

	homeImpact := injury.ScoreTeam(m.Home, data.HomeContext.Missing, nil)
	awayImpact := injury.ScoreTeam(m.Away, data.AwayContext.Missing, nil)
	s.Injuries = injury.Compare(homeImpact, awayImpact)

	s.Fatigue = fatigue.Compare(
		data.HomeContext.RecentMatches, data.AwayContext.RecentMatches,
		m.StartInstant, data.HomeContext.SquadDepth, data.AwayContext.SquadDepth)

	s.Biscotto = biscotto.Detect(biscotto.Input{
		CurrentDrawOdd: m.CurrentOdds.Draw,
		OpeningDrawOdd: m.OpeningOdds.Draw,
		Home:           tableSituation(data.HomeContext),
		Away:           tableSituation(data.AwayContext),
	}, biscottoParams(params))

	if history, err := p.store.ReadOddsHistory(ctx, m.ID, time.Hour); err == nil {
		s.Steam = marketintel.DetectSteamMove(history, marketintel.DefaultSteamWindow, marketintel.DefaultSteamThresholdPct)
	}
	s.RLM = marketintel.DetectRLM(
		m.OpeningOdds.Home, m.CurrentOdds.Home,
		m.OpeningOdds.Away, m.CurrentOdds.Away,
		marketintel.PublicSplit{}, marketintel.DefaultRLMThresholdPct)

	return s
}

func biscottoParams(params config.LeagueParams) biscotto.Params {
	p := biscotto.DefaultParams()
	if params.DrawOddsThreshold > 0 {
		p.DrawOddThreshold = params.DrawOddsThreshold
	}
	return p
}

func tableSituation(tc model.TeamContext) *biscotto.TableSituation {
	if tc.TotalTeams == 0 {
		return nil
	}
	return &biscotto.TableSituation{
		Position:     tc.TablePosition,
		Points:       tc.Points,
		TotalTeams:   tc.TotalTeams,
		InRelegation: tc.TablePosition > tc.TotalTeams-3,
	}
}

// triangulate builds the dossier and runs the AI verdict.
func (p *Pipeline) triangulate(ctx context.Context, m model.Match, s signals, notes []string) (*model.AnalysisResult, error) {
	d := analyzer.Dossier{
		Home:                m.Home,
		Away:                m.Away,
		NewsSnippet:         p.gatherNews(ctx, m),
		MarketStatus:        marketStatus(m, s),
		OfficialData:        officialData(s),
		TeamStats:           teamStats(s),
		TacticalContext:     p.tacticalContext(ctx, m, s),
		InvestigationStatus: strings.Join(notes, "; "),
	}
	return p.analyzer.Analyze(ctx, m, d, time.Now())
}

// gatherNews pulls fresh headlines, persists them under the dedup
// fingerprint, and returns the freshest few for the dossier.
func (p *Pipeline) gatherNews(ctx context.Context, m model.Match) string {
	if p.news == nil {
		return ""
	}
	items := p.news(ctx, fmt.Sprintf("%s %s injuries lineup news", m.Home, m.Away), 5)
	var titles []string
	for _, item := range items {
		item.MatchID = m.ID
		if p.store != nil {
			if err := p.store.UpsertNews(ctx, item); err != nil {
				p.log.Debug().Str("match", m.ID).Err(err).Msg("news upsert failed")
			}
		}
		if len(titles) < 3 && item.Title != "" {
			titles = append(titles, item.Title)
		}
	}
	return strings.Join(titles, " | ")
}

// tacticalContext prefers the AI deep-dive block, quoted verbatim,
// falling back to the data source's preview text.
func (p *Pipeline) tacticalContext(ctx context.Context, m model.Match, s signals) string {
	if p.intel == nil {
		return s.Data.Tactical
	}
	var missing []string
	for _, pl := range s.Data.HomeContext.Missing {
		missing = append(missing, pl.Name)
	}
	for _, pl := range s.Data.AwayContext.Missing {
		missing = append(missing, pl.Name)
	}
	dive, err := p.intel.DeepDive(ctx, ai.MatchIdentity{
		Home:   m.Home,
		Away:   m.Away,
		Date:   m.StartInstant.UTC().Format("2006-01-02"),
		League: m.LeagueKey,
	}, s.Data.Referee.Name, missing)
	if err != nil {
		p.log.Debug().Str("match", m.ID).Err(err).Msg("deep dive unavailable")
		return s.Data.Tactical
	}
	block := fmt.Sprintf(
		"internal crisis: %s; turnover risk: %s; referee intel: %s; injury impact: %s; motivation home: %s; motivation away: %s; table context: %s",
		dive.InternalCrisis, dive.TurnoverRisk, dive.RefereeIntel, dive.InjuryImpact,
		dive.MotivationHome, dive.MotivationAway, dive.TableContext)
	if s.Data.Tactical != "" {
		block += "; preview: " + s.Data.Tactical
	}
	return block
}

func marketStatus(m model.Match, s signals) string {
	var b strings.Builder
	fmt.Fprintf(&b, "current 1X2 %.2f/%.2f/%.2f", m.CurrentOdds.Home, m.CurrentOdds.Draw, m.CurrentOdds.Away)
	if m.OpeningOdds.Home > 0 {
		fmt.Fprintf(&b, "; opening 1X2 %.2f/%.2f/%.2f", m.OpeningOdds.Home, m.OpeningOdds.Draw, m.OpeningOdds.Away)
	}
	if s.Steam != nil {
		fmt.Fprintf(&b, "; steam move on %s", s.Steam.Market)
	}
	if s.RLM != nil {
		fmt.Fprintf(&b, "; reverse line movement toward %s", s.RLM.SharpSide)
	}
	return b.String()
}

func officialData(s signals) string {
	var parts []string
	if n := len(s.Data.HomeContext.Missing); n > 0 {
		parts = append(parts, fmt.Sprintf("home missing %d (impact %.1f)", n, s.Injuries.Home.TotalImpact))
	}
	if n := len(s.Data.AwayContext.Missing); n > 0 {
		parts = append(parts, fmt.Sprintf("away missing %d (impact %.1f)", n, s.Injuries.Away.TotalImpact))
	}
	if s.Data.Referee.Name != "" {
		parts = append(parts, fmt.Sprintf("referee %s (%.1f cards/game)", s.Data.Referee.Name, s.Data.Referee.CardsPerGame))
	}
	if s.Data.Weather != nil && s.Data.Weather.Alert {
		parts = append(parts, "weather alert: "+s.Data.Weather.Summary)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "; ")
}

func teamStats(s signals) string {
	if s.Quant == nil {
		return ""
	}
	return fmt.Sprintf("poisson home/draw/away %.0f%%/%.0f%%/%.0f%%, expected goals %.2f, most likely %s",
		s.Quant.Poisson.HomeWinProb*100, s.Quant.Poisson.DrawProb*100, s.Quant.Poisson.AwayWinProb*100,
		s.Quant.ExpectedGoals, s.Quant.MostLikelyScore)
}

// verificationEvidence projects the gathered signals into the gate's
// evidence shape, sourcing the form baseline from the match's own
// league parameters.
func verificationEvidence(s signals, m model.Match, params config.LeagueParams) verification.Evidence {
	ev := verification.Evidence{
		Under25Priced: m.CurrentOdds.Under25 > 1 || m.CurrentOdds.Over25 > 1,
	}
	home, away := s.Injuries.Home, s.Injuries.Away
	ev.HomeImpact = &home
	ev.AwayImpact = &away

	if s.Data.HomeStats.FormPPG > 0 {
		ppg := s.Data.HomeStats.FormPPG
		ev.RecommendedTeamFormPPG = &ppg
		mean := params.LeagueAvgGoals
		ev.LeagueMeanPPG = &mean
	}
	if s.Data.Referee.CardsPerGame > 0 {
		cards := s.Data.Referee.CardsPerGame
		ev.RefereeCardsPerGame = &cards
	}
	if len(s.Data.HomeStats.H2H) > 0 {
		var cards, corners float64
		for _, h := range s.Data.HomeStats.H2H {
			cards += h.Cards
			corners += h.Corners
		}
		n := float64(len(s.Data.HomeStats.H2H))
		cardsAvg, cornersAvg := cards/n, corners/n
		ev.H2HCardsAvg = &cardsAvg
		ev.H2HCornersAvg = &cornersAvg
	}
	return ev
}
